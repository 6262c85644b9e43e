package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/resumatch/apiserver/config"
	"github.com/resumatch/apiserver/internal/ai"
	"github.com/resumatch/apiserver/internal/db"
	"github.com/resumatch/apiserver/internal/handlers"
	"github.com/resumatch/apiserver/internal/jobsearch"
	"github.com/resumatch/apiserver/internal/services"
	"github.com/resumatch/apiserver/internal/storage"
	"github.com/resumatch/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	aiClient   *ai.Client
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objectStore, err := newObjectStorage(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	fileStore := storage.NewStorage(objectStore)
	if err := fileStore.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ensure bucket: %w", err)
	}

	aiClient, err := ai.NewClient(ctx, cfg.Gemini)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	searchClient, err := jobsearch.NewClient(cfg.JobSearch.BaseURL, cfg.JobSearch.APIKey)
	if err != nil {
		_ = dbConn.Close()
		_ = aiClient.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	resumeRepo := store.NewResumeRepository(dbConn)
	jobMatchRepo := store.NewJobMatchRepository(dbConn)
	interviewRepo := store.NewInterviewPrepRepository(dbConn)

	userService := services.NewUserService(userRepo)
	resumeService := services.NewResumeService(resumeRepo, fileStore, aiClient, ai.FallbackStructure)
	jobMatchService := services.NewJobMatchService(jobMatchRepo, userRepo, resumeRepo, searchClient, aiClient)
	interviewService := services.NewInterviewService(interviewRepo, aiClient)

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, jwtSecret)
	})
	router.Route("/resumes", func(r chi.Router) {
		handlers.ResumeRouter(r, resumeService, authMiddleware)
	})
	router.Route("/jobs", func(r chi.Router) {
		handlers.JobMatchRouter(r, jobMatchService, authMiddleware)
	})
	router.Route("/interviews", func(r chi.Router) {
		handlers.InterviewRouter(r, interviewService, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		aiClient:   aiClient,
	}, nil
}

func newObjectStorage(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStorage, error) {
	switch cfg.Backend {
	case "minio":
		return storage.NewMinioClient(cfg.Minio)
	case "gcs":
		return storage.NewGCSClient(ctx, cfg.GCS)
	case "s3":
		return storage.NewS3Client(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.aiClient != nil {
		_ = s.aiClient.Close()
	}
	return s.httpServer.Close()
}
