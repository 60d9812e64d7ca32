package services

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/hireready/backend/models"
	"github.com/hireready/backend/repository"
	"github.com/hireready/backend/session"
	ws "github.com/hireready/backend/websocket"
)

// Server holds all server dependencies
type Server struct {
	config             *Config
	repo               *repository.GORMRepository
	gormDB             *gorm.DB
	geminiService      *GeminiService
	elevenLabsService  *ElevenLabsService
	pdfService         *PDFService
	storageService     *StorageService
	audioCache         *AudioCache
	sessionManager     *session.Manager
	speechHandler      *SpeechHandler
	authService        *AuthService
	authEndpoints      *AuthEndpoints
	interviewEndpoints *InterviewEndpoints
	sessionEndpoints   *SessionEndpoints
	resumeEndpoints    *ResumeEndpoints
	audioEndpoints     *AudioEndpoints
	wsHub              *ws.Hub
	upgrader           websocket.Upgrader
}

// NewServer creates a new server instance
func NewServer(config *Config) *Server {
	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return CheckOrigin(r, config.WebSocket.AllowedOrigins)
			},
		},
	}
}

// SetDatabase sets the database connection
func (s *Server) SetDatabase(repo *repository.GORMRepository, db *gorm.DB) {
	s.repo = repo
	s.gormDB = db
}

// InitializeServices initializes all server services
func (s *Server) InitializeServices() error {
	geminiService, err := NewGeminiService(s.config.AI.GeminiAPIKey)
	if err != nil {
		return err
	}
	s.geminiService = geminiService
	slog.Info("Gemini service initialized")

	if s.config.AI.ElevenLabsKey != "" {
		s.elevenLabsService = NewElevenLabsService(s.config.AI.ElevenLabsKey)
		s.audioCache = NewAudioCache(s.config.Storage.AudioCacheDir)
		slog.Info("ElevenLabs service initialized")
	}

	s.pdfService = NewPDFService()

	storageService, err := NewStorageService(s.config.Storage.UploadDir)
	if err != nil {
		return err
	}
	s.storageService = storageService

	s.sessionManager = session.NewManager()
	s.speechHandler = NewSpeechHandler(s.repo, s.geminiService, s.sessionManager)

	if s.config.JWT.Secret != "" && s.repo != nil {
		s.authService = NewAuthService(s.repo, s.config.JWT.Secret)
		s.authEndpoints = NewAuthEndpoints(s.authService)
		slog.Info("Authentication service initialized")
	}

	s.interviewEndpoints = NewInterviewEndpoints(s.repo, s.geminiService)
	s.sessionEndpoints = NewSessionEndpoints(s.repo, s.geminiService, s.sessionManager)
	s.resumeEndpoints = NewResumeEndpoints(s.repo, s.geminiService, s.pdfService, s.storageService)
	if s.elevenLabsService != nil {
		s.audioEndpoints = NewAudioEndpoints(s.repo, s.elevenLabsService, s.audioCache)
	}

	s.wsHub = ws.NewHub()
	go s.wsHub.Run()

	return nil
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health endpoint
	r.Get("/health", s.healthHandler)

	// API v1 route group
	r.Route("/api/v1", func(r chi.Router) {
		// Authentication routes
		if s.authEndpoints != nil {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", s.authEndpoints.LoginHandler)
				r.Post("/signup", s.authEndpoints.SignupHandler)
				r.Post("/refresh", s.authEndpoints.RefreshHandler)

				r.Group(func(r chi.Router) {
					r.Use(s.authService.Middleware)
					r.Post("/logout", s.authEndpoints.LogoutHandler)
					r.Get("/me", s.authEndpoints.MeHandler)
				})
			})
		}

		// Protected routes
		if s.authService != nil {
			r.Group(func(r chi.Router) {
				r.Use(s.authService.Middleware)

				s.interviewEndpoints.RegisterRoutes(r)
				s.sessionEndpoints.RegisterRoutes(r)
				s.resumeEndpoints.RegisterRoutes(r)
				if s.audioEndpoints != nil {
					s.audioEndpoints.RegisterRoutes(r)
				}

				// Speech capture stream
				r.Get("/ws", s.websocketHandlerFunc)
			})
		}
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start() {
	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: s.SetupRoutes(),
	}

	// Graceful shutdown
	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.sessionManager.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// CheckOrigin validates the origin of WebSocket connections to prevent CSRF attacks
func CheckOrigin(r *http.Request, allowedOriginsStr string) bool {
	origin := r.Header.Get("Origin")

	// If no allowed origins are configured, deny all requests for security
	if allowedOriginsStr == "" {
		slog.Warn("WebSocket connection rejected: no allowed origins configured", "origin", origin)
		return false
	}

	allowedOrigins := strings.Split(allowedOriginsStr, ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	for _, allowed := range allowedOrigins {
		if allowed == origin {
			return true
		}
	}

	slog.Warn("WebSocket connection rejected: origin not allowed", "origin", origin, "allowed_origins", allowedOriginsStr)
	return false
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "not configured"

	if s.gormDB != nil {
		if sqlDB, err := s.gormDB.DB(); err == nil {
			if err := sqlDB.Ping(); err != nil {
				dbStatus = "down"
				status = "degraded"
			} else {
				dbStatus = "up"
			}
		} else {
			dbStatus = "down"
			status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"` + status + `","database":"` + dbStatus + `"}`))
}

func (s *Server) websocketHandlerFunc(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	interviewID := r.URL.Query().Get("interview_id")
	if interviewID == "" {
		http.Error(w, "interview_id is required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	slog.Info("WebSocket connection established", "user_id", user.ID, "interview_id", interviewID)

	client := s.wsHub.RegisterClient(conn, user.ID, interviewID)
	client.MessageHandler = s.speechHandler.HandleMessage

	go client.WritePump()
	client.ReadPump()
}
