package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/assignment"
	auth "github.com/crazy0629/Projitt-HR-Management-sub001/internal/auth/middleware"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/definition"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/rbac"
	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/reporting"
)

type Deps struct {
	Tests       definition.Store
	Assignments *assignment.Service
	Reports     *reporting.Aggregator
	Auth        *auth.AuthService
	Admin       auth.Admin
	CORSOrigins []string
	Ping        func(ctx context.Context) error
	Metrics     http.Handler // nil disables /metrics
	AccessLog   bool
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	if d.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Admin))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		// Definitions
		pr.With(rbac.Require(rbac.PermTestCreate)).
			Post("/tests", CreateTestHandler(d.Tests))
		pr.With(rbac.Require(rbac.PermTestView)).
			Get("/tests", ListTestsHandler(d.Tests))
		pr.With(rbac.Require(rbac.PermTestView)).
			Get("/tests/{id}", GetTestHandler(d.Tests))
		pr.With(rbac.Require(rbac.PermTestPublish)).
			Post("/tests/{id}/publish", PublishTestHandler(d.Tests))

		// Lifecycle
		pr.With(rbac.Require(rbac.PermAssign)).
			Post("/tests/{id}/assign", AssignHandler(d.Assignments))
		pr.With(rbac.RequireAny(rbac.PermAssignmentAll, rbac.PermAssignmentOwn)).
			Get("/assignments", ListAssignmentsHandler(d.Assignments))
		pr.With(rbac.RequireAny(rbac.PermAssignmentAll, rbac.PermAssignmentOwn)).
			Get("/assignments/{id}", GetAssignmentHandler(d.Assignments))
		pr.With(rbac.RequireAny(rbac.PermAssignmentAll, rbac.PermAssignmentOwn)).
			Get("/assignments/{id}/presentation", PresentationHandler(d.Assignments))
		pr.With(rbac.Require(rbac.PermResultsView)).
			Get("/assignments/{id}/results", ResultsHandler(d.Assignments))
		pr.With(rbac.RequireAny(rbac.PermAttemptTake, rbac.PermForceSubmit)).
			Post("/assignments/{id}/start", StartHandler(d.Assignments))
		pr.With(rbac.RequireAny(rbac.PermAttemptTake, rbac.PermForceSubmit)).
			Post("/assignments/{id}/submit", SubmitHandler(d.Assignments))
		pr.With(rbac.Require(rbac.PermCancel)).
			Post("/assignments/{id}/cancel", CancelHandler(d.Assignments))

		// Reporting
		pr.With(rbac.Require(rbac.PermReportsView)).
			Get("/reports/summary", ReportSummaryHandler(d.Reports))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ping != nil {
			if err := d.Ping(r.Context()); err != nil {
				http.Error(w, "db unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}
	return r
}
