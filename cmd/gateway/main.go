package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/invigil/invigil/internal/api/http"
	"github.com/invigil/invigil/internal/audit"
	auth "github.com/invigil/invigil/internal/auth/middleware"
	"github.com/invigil/invigil/internal/config"
	"github.com/invigil/invigil/internal/db"
	"github.com/invigil/invigil/internal/exam"
	"github.com/invigil/invigil/internal/integrity"
	"github.com/invigil/invigil/internal/proctor"
	"github.com/invigil/invigil/internal/rbac"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	auditRepo := audit.NewEventRepo(dbh)
	store := exam.NewSQLStore(dbh, auditRepo)

	// --- Proctoring hub (one integrity monitor per live attempt) ---
	hub := proctor.NewHub(store, integrity.RealClock(), cfg.GraceSeconds)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.GraderUser, cfg.GraderPassHash)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc))

	candidateOf := func(req *http.Request) string {
		return auth.SubjectFromContext(req.Context())
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Examiner: publish exams
		pr.With(rbac.Require("exam:create")).
			Post("/exams", api.UploadExamHandler(store))

		// Candidate/grader: fetch exam (keys stripped)
		pr.With(rbac.Require("exam:view")).
			Get("/exams/{examID}", api.GetExamHandler(store))

		// Candidate flow: proctored attempt
		pr.With(rbac.Require("attempt:create")).
			Post("/attempts", api.OpenAttemptHandler(hub, store, candidateOf))
		pr.With(rbac.Require("attempt:signal")).
			Post("/attempts/{attemptID}/focus", api.FocusSignalHandler(hub))
		pr.With(rbac.Require("attempt:save")).
			Put("/attempts/{attemptID}/answers", api.StageAnswersHandler(hub))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(hub))

		// Grader flow
		pr.With(rbac.Require("submission:list")).
			Get("/submissions", api.ListSubmissionsHandler(store))
		pr.With(rbac.Require("submission:view")).
			Get("/submissions/{submissionID}", api.GetSubmissionHandler(store))
		pr.With(rbac.Require("submission:grade")).
			Get("/submissions/{submissionID}/grading", api.GetGradingHandler(store))
		pr.With(rbac.Require("submission:grade")).
			Put("/submissions/{submissionID}/grading", api.SaveGradesHandler(store))
		pr.With(rbac.Require("audit:view")).
			Get("/audit", api.AuditLogHandler(auditRepo))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s, grace=%ds)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, cfg.GraceSeconds)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
