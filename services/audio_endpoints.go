package services

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hireready/backend/models"
	"github.com/hireready/backend/repository"
)

// AudioEndpoints serves read-aloud audio for interview questions.
type AudioEndpoints struct {
	repo       *repository.GORMRepository
	elevenLabs *ElevenLabsService
	cache      *AudioCache
}

func NewAudioEndpoints(repo *repository.GORMRepository, elevenLabs *ElevenLabsService, cache *AudioCache) *AudioEndpoints {
	return &AudioEndpoints{
		repo:       repo,
		elevenLabs: elevenLabs,
		cache:      cache,
	}
}

func (e *AudioEndpoints) RegisterRoutes(r chi.Router) {
	r.Get("/interviews/{id}/questions/{index}/audio", e.QuestionAudioHandler)
}

func (e *AudioEndpoints) QuestionAudioHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	interview, err := e.repo.GetInterviewByID(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		http.Error(w, "Failed to get interview", http.StatusInternalServerError)
		return
	}
	if interview == nil {
		http.Error(w, "Interview not found", http.StatusNotFound)
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 || index >= len(interview.Questions) {
		http.Error(w, "Invalid question index", http.StatusBadRequest)
		return
	}

	text := interview.Questions[index].Question

	if data, ok := e.cache.Get(text, defaultVoiceID); ok {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(data)
		return
	}

	audio, err := e.elevenLabs.TextToSpeech(r.Context(), text)
	if err != nil {
		slog.Error("Failed to synthesize question audio", "error", err, "interview_id", interview.ID, "question_index", index)
		http.Error(w, "Failed to synthesize audio", http.StatusBadGateway)
		return
	}
	defer audio.Close()

	data, err := io.ReadAll(audio)
	if err != nil {
		http.Error(w, "Failed to read audio", http.StatusBadGateway)
		return
	}

	e.cache.Put(text, defaultVoiceID, data)

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(data)
}
