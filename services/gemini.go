package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/hireready/backend/models"
	"github.com/hireready/backend/session"
)

const (
	ModelName         = "gemini-2.5-flash"
	QuestionsPerSet   = 5
	evaluationTimeout = 45 * time.Second
)

// GeminiService is the gateway to the generative AI endpoint. All prompts
// request a single JSON payload; responses are stripped of markdown fences
// and validated against the expected schema at this boundary. A response
// missing an expected field fails the whole call rather than propagating
// zero values into grading arithmetic.
type GeminiService struct {
	genaiClient *genai.Client
}

func NewGeminiService(apiKey string) (*GeminiService, error) {
	genaiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiService{genaiClient: genaiClient}, nil
}

// GenerateQuestions produces the question/reference-answer set for a new
// interview from the role details captured on the creation form.
func (g *GeminiService) GenerateQuestions(ctx context.Context, position, description string, experience int, techStack string) ([]models.InterviewQuestion, error) {
	prompt := fmt.Sprintf(`As an experienced prompt engineer, generate a JSON array containing %d technical interview questions along with answers based on the following job information. Each object in the array should have the fields "question" and "answer", formatted as follows:

[
  { "question": "<Question text>", "answer": "<Answer text>" },
  ...
]

Job Information:
- Job Position: %s
- Job Description: %s
- Years of Experience Required: %d
- Tech Stacks: %s

The questions should assess skills in %s development and best practices, problem-solving, and experience handling complex requirements. Please format the output strictly as an array of JSON objects without any additional labels, code blocks, or explanations. Return only the JSON array with questions and answers. Keep the questions short and answerable with a short answer.`,
		QuestionsPerSet, position, description, experience, techStack, techStack)

	text, err := g.generateJSON(ctx, prompt, 0.7)
	if err != nil {
		return nil, err
	}

	questions, err := ParseQuestionSet(text)
	if err != nil {
		return nil, err
	}

	slog.Info("Generated interview questions", "position", position, "count", len(questions))
	return questions, nil
}

// EvaluateAnswer grades a candidate answer against the reference answer and
// returns the rating/feedback pair.
func (g *GeminiService) EvaluateAnswer(ctx context.Context, question, correctAnswer, userAnswer string) (session.Evaluation, error) {
	prompt := fmt.Sprintf(`You are an expert technical interviewer.

Context:
- Question: "%s"
- Correct Answer (Reference): "%s"
- User's Answer: "%s"

Task:
Compare the User's Answer to the Correct Answer. Assess the accuracy, depth, and clarity.
Provide a rating from 1 to 10 (integer) and detailed feedback on how to improve.

Output Format:
Return a single JSON object strictly in this format (no markdown):
{ "rating": number, "feedback": "string" }`,
		question, correctAnswer, userAnswer)

	text, err := g.generateJSON(ctx, prompt, 0.7)
	if err != nil {
		return session.Evaluation{}, err
	}

	eval, err := ParseEvaluation(text)
	if err != nil {
		return session.Evaluation{}, err
	}

	slog.Info("Evaluated answer", "rating", eval.Rating, "answer_length", len(userAnswer))
	return eval, nil
}

// ResumeAnalysis is the structured result of the ATS resume review.
type ResumeAnalysis struct {
	Score           int
	Summary         string
	Strengths       []string
	Improvements    []string
	MissingKeywords []string
}

// AnalyzeResume reviews extracted resume text against a target role.
func (g *GeminiService) AnalyzeResume(ctx context.Context, resumeText, targetRole string) (*ResumeAnalysis, error) {
	prompt := fmt.Sprintf(`You are an expert Applicant Tracking System (ATS) and professional career coach.
Analyze the following resume text for the target role: "%s".

Resume Content:
"%s"

Provide a detailed analysis in the following JSON format ONLY:
{
  "score": (number between 0-100 representing job match percentage),
  "summary": "a brief professional overview of the candidate",
  "strengths": ["at least 3 key strengths"],
  "improvements": ["at least 3 specific areas to improve"],
  "missingKeywords": ["industry keywords or skills missing from the resume"]
}`,
		targetRole, resumeText)

	text, err := g.generateJSON(ctx, prompt, 0.4)
	if err != nil {
		return nil, err
	}

	analysis, err := ParseResumeAnalysis(text)
	if err != nil {
		return nil, err
	}

	slog.Info("Analyzed resume", "target_role", targetRole, "score", analysis.Score)
	return analysis, nil
}

func (g *GeminiService) generateJSON(ctx context.Context, prompt string, temperature float32) (string, error) {
	if g.genaiClient == nil {
		return "", fmt.Errorf("genai client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, evaluationTimeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
	}

	result, err := g.genaiClient.Models.GenerateContent(ctx, ModelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty AI response")
	}

	return text, nil
}

// CleanJSONResponse strips markdown code-fence artifacts the model sometimes
// wraps around JSON payloads.
func CleanJSONResponse(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// ParseEvaluation parses the grading response. The rating must be an integer
// in 1..10 and feedback must be present; anything else is a parse error.
func ParseEvaluation(text string) (session.Evaluation, error) {
	var payload struct {
		Rating   *int    `json:"rating"`
		Feedback *string `json:"feedback"`
	}

	if err := json.Unmarshal([]byte(CleanJSONResponse(text)), &payload); err != nil {
		return session.Evaluation{}, fmt.Errorf("malformed evaluation response: %w", err)
	}
	if payload.Rating == nil {
		return session.Evaluation{}, fmt.Errorf("evaluation response missing rating field")
	}
	if payload.Feedback == nil || strings.TrimSpace(*payload.Feedback) == "" {
		return session.Evaluation{}, fmt.Errorf("evaluation response missing feedback field")
	}
	if *payload.Rating < 1 || *payload.Rating > 10 {
		return session.Evaluation{}, fmt.Errorf("evaluation rating out of range: %d", *payload.Rating)
	}

	return session.Evaluation{Rating: *payload.Rating, Feedback: *payload.Feedback}, nil
}

// ParseQuestionSet parses the generated question array and assigns sequence
// positions.
func ParseQuestionSet(text string) ([]models.InterviewQuestion, error) {
	var payload []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}

	if err := json.Unmarshal([]byte(CleanJSONResponse(text)), &payload); err != nil {
		return nil, fmt.Errorf("malformed question set response: %w", err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("question set response contained no questions")
	}

	questions := make([]models.InterviewQuestion, 0, len(payload))
	for i, q := range payload {
		if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.Answer) == "" {
			return nil, fmt.Errorf("question set entry %d missing question or answer", i)
		}
		questions = append(questions, models.InterviewQuestion{
			QuestionIndex: i,
			Question:      q.Question,
			Answer:        q.Answer,
		})
	}

	return questions, nil
}

// ParseResumeAnalysis parses the ATS analysis response.
func ParseResumeAnalysis(text string) (*ResumeAnalysis, error) {
	var payload struct {
		Score           *int     `json:"score"`
		Summary         *string  `json:"summary"`
		Strengths       []string `json:"strengths"`
		Improvements    []string `json:"improvements"`
		MissingKeywords []string `json:"missingKeywords"`
	}

	if err := json.Unmarshal([]byte(CleanJSONResponse(text)), &payload); err != nil {
		return nil, fmt.Errorf("malformed resume analysis response: %w", err)
	}
	if payload.Score == nil {
		return nil, fmt.Errorf("resume analysis response missing score field")
	}
	if payload.Summary == nil || strings.TrimSpace(*payload.Summary) == "" {
		return nil, fmt.Errorf("resume analysis response missing summary field")
	}
	if *payload.Score < 0 || *payload.Score > 100 {
		return nil, fmt.Errorf("resume analysis score out of range: %d", *payload.Score)
	}

	return &ResumeAnalysis{
		Score:           *payload.Score,
		Summary:         *payload.Summary,
		Strengths:       payload.Strengths,
		Improvements:    payload.Improvements,
		MissingKeywords: payload.MissingKeywords,
	}, nil
}
