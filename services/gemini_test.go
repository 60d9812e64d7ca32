package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain json untouched",
			input:    `{"rating": 8, "feedback": "good"}`,
			expected: `{"rating": 8, "feedback": "good"}`,
		},
		{
			name:     "json fence stripped",
			input:    "```json\n{\"rating\": 8, \"feedback\": \"good\"}\n```",
			expected: `{"rating": 8, "feedback": "good"}`,
		},
		{
			name:     "bare fence stripped",
			input:    "```\n[{\"question\": \"q\", \"answer\": \"a\"}]\n```",
			expected: `[{"question": "q", "answer": "a"}]`,
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  \n{\"score\": 75}\n  ",
			expected: `{"score": 75}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONResponse(tt.input))
		})
	}
}

func TestParseEvaluation(t *testing.T) {
	t.Run("valid response", func(t *testing.T) {
		eval, err := ParseEvaluation(`{"rating": 8, "feedback": "Solid answer, mention trade-offs."}`)
		require.NoError(t, err)
		assert.Equal(t, 8, eval.Rating)
		assert.Equal(t, "Solid answer, mention trade-offs.", eval.Feedback)
	})

	t.Run("fenced response", func(t *testing.T) {
		eval, err := ParseEvaluation("```json\n{\"rating\": 3, \"feedback\": \"Too vague.\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, 3, eval.Rating)
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
		}{
			{"not json", "the answer was pretty good, 8/10"},
			{"missing rating", `{"feedback": "good"}`},
			{"missing feedback", `{"rating": 8}`},
			{"empty feedback", `{"rating": 8, "feedback": "  "}`},
			{"wrong field name", `{"score": 8, "feedback": "good"}`},
			{"rating zero", `{"rating": 0, "feedback": "good"}`},
			{"rating above ten", `{"rating": 11, "feedback": "good"}`},
			{"rating as string", `{"rating": "8", "feedback": "good"}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ParseEvaluation(tt.input)
				assert.Error(t, err)
			})
		}
	})
}

func TestParseQuestionSet(t *testing.T) {
	t.Run("valid array", func(t *testing.T) {
		questions, err := ParseQuestionSet(`[
			{"question": "What is a goroutine?", "answer": "A lightweight thread."},
			{"question": "What does defer do?", "answer": "Schedules a call for function exit."}
		]`)
		require.NoError(t, err)
		require.Len(t, questions, 2)
		assert.Equal(t, 0, questions[0].QuestionIndex)
		assert.Equal(t, 1, questions[1].QuestionIndex)
		assert.Equal(t, "What is a goroutine?", questions[0].Question)
		assert.Equal(t, "Schedules a call for function exit.", questions[1].Answer)
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
		}{
			{"not an array", `{"question": "q", "answer": "a"}`},
			{"empty array", `[]`},
			{"entry missing answer", `[{"question": "q"}]`},
			{"entry with blank question", `[{"question": " ", "answer": "a"}]`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ParseQuestionSet(tt.input)
				assert.Error(t, err)
			})
		}
	})
}

func TestParseResumeAnalysis(t *testing.T) {
	t.Run("valid response", func(t *testing.T) {
		analysis, err := ParseResumeAnalysis(`{
			"score": 75,
			"summary": "Experienced backend engineer.",
			"strengths": ["Go", "PostgreSQL", "system design"],
			"improvements": ["quantify impact", "add certifications", "tighten summary"],
			"missingKeywords": ["Kubernetes", "gRPC"]
		}`)
		require.NoError(t, err)
		assert.Equal(t, 75, analysis.Score)
		assert.Equal(t, "Experienced backend engineer.", analysis.Summary)
		assert.Len(t, analysis.Strengths, 3)
		assert.Equal(t, []string{"Kubernetes", "gRPC"}, analysis.MissingKeywords)
	})

	t.Run("rejections", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
		}{
			{"missing score", `{"summary": "ok"}`},
			{"missing summary", `{"score": 75}`},
			{"score above range", `{"score": 101, "summary": "ok"}`},
			{"negative score", `{"score": -1, "summary": "ok"}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ParseResumeAnalysis(tt.input)
				assert.Error(t, err)
			})
		}
	})
}
