package services

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/hireready/backend/models"
	"github.com/hireready/backend/repository"
)

type InterviewEndpoints struct {
	repo          *repository.GORMRepository
	geminiService *GeminiService
}

func NewInterviewEndpoints(repo *repository.GORMRepository, geminiService *GeminiService) *InterviewEndpoints {
	return &InterviewEndpoints{
		repo:          repo,
		geminiService: geminiService,
	}
}

type InterviewRequest struct {
	Position    string `json:"position"`
	Description string `json:"description"`
	Experience  int    `json:"experience"`
	TechStack   string `json:"tech_stack"`
	// Regenerate requests a fresh question set on edit; otherwise the
	// existing questions are kept.
	Regenerate bool `json:"regenerate,omitempty"`
}

func (req *InterviewRequest) validate() string {
	if req.Position == "" {
		return "Position is required"
	}
	if req.Experience < 0 {
		return "Experience must be a non-negative number of years"
	}
	return ""
}

func (e *InterviewEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/interviews", func(r chi.Router) {
		r.Post("/", e.CreateInterviewHandler)
		r.Get("/", e.GetInterviewsHandler)
		r.Get("/{id}", e.GetInterviewHandler)
		r.Put("/{id}", e.UpdateInterviewHandler)
		r.Delete("/{id}", e.DeleteInterviewHandler)
	})
}

func (e *InterviewEndpoints) CreateInterviewHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req InterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	questions, err := e.geminiService.GenerateQuestions(r.Context(), req.Position, req.Description, req.Experience, req.TechStack)
	if err != nil {
		slog.Error("Failed to generate questions", "error", err, "position", req.Position)
		http.Error(w, "Failed to generate interview questions", http.StatusBadGateway)
		return
	}

	interview := models.Interview{
		UserID:      user.ID,
		Position:    req.Position,
		Description: req.Description,
		Experience:  req.Experience,
		TechStack:   req.TechStack,
		Questions:   questions,
	}

	if err := e.repo.CreateInterview(r.Context(), &interview); err != nil {
		http.Error(w, "Failed to create interview", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"interview": interview,
		"message":   "Interview created successfully",
	})

	slog.Info("Interview created", "interview_id", interview.ID, "user_id", user.ID, "questions", len(questions))
}

func (e *InterviewEndpoints) GetInterviewsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	interviews, err := e.repo.GetInterviews(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "Failed to get interviews", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"interviews": interviews,
		"count":      len(interviews),
	})
}

func (e *InterviewEndpoints) GetInterviewHandler(w http.ResponseWriter, r *http.Request) {
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

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"interview": interview,
	})
}

func (e *InterviewEndpoints) UpdateInterviewHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	interviewID := chi.URLParam(r, "id")
	existing, err := e.repo.GetInterviewByID(r.Context(), interviewID, user.ID)
	if err != nil {
		http.Error(w, "Failed to get interview", http.StatusInternalServerError)
		return
	}
	if existing == nil {
		http.Error(w, "Interview not found", http.StatusNotFound)
		return
	}

	var req InterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	// Questions stay fixed on edit unless the user explicitly asks for a
	// regenerated set.
	var questions []models.InterviewQuestion
	if req.Regenerate {
		questions, err = e.geminiService.GenerateQuestions(r.Context(), req.Position, req.Description, req.Experience, req.TechStack)
		if err != nil {
			slog.Error("Failed to regenerate questions", "error", err, "interview_id", interviewID)
			http.Error(w, "Failed to generate interview questions", http.StatusBadGateway)
			return
		}
	}

	existing.Position = req.Position
	existing.Description = req.Description
	existing.Experience = req.Experience
	existing.TechStack = req.TechStack

	if err := e.repo.UpdateInterview(r.Context(), existing, questions); err != nil {
		http.Error(w, "Failed to update interview", http.StatusInternalServerError)
		return
	}

	updated, err := e.repo.GetInterviewByID(r.Context(), interviewID, user.ID)
	if err != nil {
		http.Error(w, "Failed to get interview", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"interview": updated,
		"message":   "Interview updated successfully",
	})

	slog.Info("Interview updated", "interview_id", interviewID, "user_id", user.ID, "regenerated", req.Regenerate)
}

func (e *InterviewEndpoints) DeleteInterviewHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	interviewID := chi.URLParam(r, "id")
	if err := e.repo.DeleteInterview(r.Context(), interviewID, user.ID); err != nil {
		if err == gorm.ErrRecordNotFound {
			http.Error(w, "Interview not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete interview", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Interview deleted successfully",
	})
}
