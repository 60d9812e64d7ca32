package services

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hireready/backend/models"
	"github.com/hireready/backend/repository"
)

const maxUploadSize = 10 << 20 // 10MB

// ResumeEndpoints handles resume upload, AI analysis and the analysis
// report.
type ResumeEndpoints struct {
	repo          *repository.GORMRepository
	geminiService *GeminiService
	pdfService    *PDFService
	storage       *StorageService
}

func NewResumeEndpoints(repo *repository.GORMRepository, geminiService *GeminiService, pdfService *PDFService, storage *StorageService) *ResumeEndpoints {
	return &ResumeEndpoints{
		repo:          repo,
		geminiService: geminiService,
		pdfService:    pdfService,
		storage:       storage,
	}
}

func (e *ResumeEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/resumes", func(r chi.Router) {
		r.Post("/", e.UploadHandler)
		r.Get("/", e.GetResumesHandler)
		r.Post("/{id}/analyze", e.AnalyzeHandler)
		r.Get("/{id}/report", e.GetReportHandler)
		r.Delete("/{id}", e.DeleteHandler)
	})
}

func (e *ResumeEndpoints) UploadHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	_, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "A PDF file is required", http.StatusBadRequest)
		return
	}

	filePath, err := e.storage.SaveFile(header)
	if err != nil {
		slog.Error("Failed to store resume upload", "error", err, "file_name", header.Filename)
		http.Error(w, "Failed to store uploaded file", http.StatusBadRequest)
		return
	}

	cvFile := models.CVFile{
		UserID:     user.ID,
		FileName:   header.Filename,
		FilePath:   filePath,
		TargetRole: r.FormValue("target_role"),
	}

	if err := e.repo.CreateCVFile(r.Context(), &cvFile); err != nil {
		http.Error(w, "Failed to save resume metadata", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"cv_file": cvFile,
		"message": "Resume uploaded successfully",
	})

	slog.Info("Resume uploaded", "cv_file_id", cvFile.ID, "user_id", user.ID, "file_name", cvFile.FileName)
}

func (e *ResumeEndpoints) GetResumesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	files, err := e.repo.GetCVFiles(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "Failed to get resumes", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"cv_files": files,
		"count":    len(files),
	})
}

// AnalyzeHandler extracts the resume text and runs the ATS analysis,
// persisting the result linked to the CV file.
func (e *ResumeEndpoints) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	fileID := chi.URLParam(r, "id")
	cvFile, err := e.repo.GetCVFileByID(r.Context(), fileID, user.ID)
	if err != nil {
		http.Error(w, "Failed to get resume", http.StatusInternalServerError)
		return
	}
	if cvFile == nil {
		http.Error(w, "Resume not found", http.StatusNotFound)
		return
	}

	targetRole := cvFile.TargetRole
	if targetRole == "" {
		targetRole = "a general professional role"
	}

	resumeText, err := e.pdfService.ExtractText(cvFile.FilePath)
	if err != nil {
		slog.Error("Failed to extract resume text", "error", err, "cv_file_id", fileID)
		http.Error(w, "Failed to extract text from resume", http.StatusBadRequest)
		return
	}

	analysis, err := e.geminiService.AnalyzeResume(r.Context(), resumeText, targetRole)
	if err != nil {
		slog.Error("Resume analysis failed", "error", err, "cv_file_id", fileID)
		http.Error(w, "Failed to analyze resume", http.StatusBadGateway)
		return
	}

	result := models.AnalysisResult{
		CVFileID:        cvFile.ID,
		UserID:          user.ID,
		ATSScore:        analysis.Score,
		Feedback:        analysis.Summary,
		MissingKeywords: strings.Join(analysis.MissingKeywords, ", "),
		ImprovedSummary: strings.Join(analysis.Improvements, "\n"),
	}

	if err := e.repo.SaveAnalysisResult(r.Context(), &result); err != nil {
		http.Error(w, "Failed to save analysis result", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"analysis": result,
		"message":  "Resume analyzed successfully",
	})

	slog.Info("Resume analyzed", "cv_file_id", fileID, "user_id", user.ID, "ats_score", analysis.Score)
}

func (e *ResumeEndpoints) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	fileID := chi.URLParam(r, "id")
	cvFile, err := e.repo.GetCVFileByID(r.Context(), fileID, user.ID)
	if err != nil {
		http.Error(w, "Failed to get resume", http.StatusInternalServerError)
		return
	}
	if cvFile == nil {
		http.Error(w, "Resume not found", http.StatusNotFound)
		return
	}
	if cvFile.Analysis == nil {
		http.Error(w, "Analysis report not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"cv_file":  cvFile,
		"analysis": cvFile.Analysis,
	})
}

func (e *ResumeEndpoints) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	fileID := chi.URLParam(r, "id")
	cvFile, err := e.repo.DeleteCVFile(r.Context(), fileID, user.ID)
	if err != nil {
		http.Error(w, "Failed to delete resume", http.StatusInternalServerError)
		return
	}
	if cvFile == nil {
		http.Error(w, "Resume not found", http.StatusNotFound)
		return
	}

	if err := e.storage.DeleteFile(cvFile.FilePath); err != nil {
		slog.Warn("Failed to delete stored resume file", "error", err, "cv_file_id", fileID)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Resume deleted successfully",
	})

	slog.Info("Resume deleted", "cv_file_id", fileID, "user_id", user.ID)
}
