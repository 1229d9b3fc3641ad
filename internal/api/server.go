package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/symposium-registry/internal/admin"
	"github.com/terra-clan/symposium-registry/internal/config"
	"github.com/terra-clan/symposium-registry/internal/health"
	"github.com/terra-clan/symposium-registry/internal/metrics"
	"github.com/terra-clan/symposium-registry/internal/models"
	"github.com/terra-clan/symposium-registry/internal/workflow"
)

// Settings is the settings snapshot source used by public handlers
type Settings interface {
	Fetch(ctx context.Context) models.SiteSettings
}

// Catalog is the read-only event catalog
type Catalog interface {
	Event(id string) *models.Event
	Events(category models.EventCategory) []*models.Event
	Coordinators() []models.Coordinator
	Departments() []models.Department
}

// OuterFlow is the paid registration flow
type OuterFlow interface {
	Begin(ctx context.Context) error
	Submit(ctx context.Context, form models.OuterForm) (*workflow.PaymentStep, error)
	UploadProof(ctx context.Context, token string, upload workflow.Upload) (*workflow.Confirmation, error)
}

// FreeFlow is the inter-college or department flow
type FreeFlow[F any] interface {
	Begin(ctx context.Context) error
	Submit(ctx context.Context, form F, replace bool) (*workflow.Confirmation, error)
}

// EventsUpdater is the self-service update-events flow
type EventsUpdater interface {
	Lookup(ctx context.Context, email string) (*models.RegistrationSummary, error)
	Apply(ctx context.Context, req models.UpdateEventsRequest) (*models.RegistrationSummary, error)
}

// ManualEntries is the operator create/edit flow
type ManualEntries interface {
	Create(ctx context.Context, v models.Variant, entry models.ManualEntry, upload *workflow.Upload) (*models.RegistrationSummary, error)
	Update(ctx context.Context, v models.Variant, id string, patch models.RegistrationPatch) (*models.RegistrationSummary, error)
}

// Admin is the dashboard service
type Admin interface {
	Authenticate(password string) error
	Dashboard(ctx context.Context) (*admin.Dashboard, error)
	List(ctx context.Context, f admin.Filter) ([]models.RegistrationSummary, error)
	SetPaymentVerified(ctx context.Context, v models.Variant, id string, value bool) error
	SetEntryConfirmed(ctx context.Context, v models.Variant, id string, value bool) error
	Delete(ctx context.Context, v models.Variant, id, deletePassword string) error
	Settings(ctx context.Context) models.SiteSettings
	UpdateSetting(ctx context.Context, key string, value json.RawMessage) (models.SiteSettings, error)
	Export(ctx context.Context) (map[models.Variant]int, error)
}

// Deps are the services behind the HTTP handlers
type Deps struct {
	Settings     Settings
	Catalog      Catalog
	Outer        OuterFlow
	Inter        FreeFlow[models.InterForm]
	Department   FreeFlow[models.DepartmentForm]
	UpdateEvents EventsUpdater
	Manual       ManualEntries
	Admin        Admin
	Health       *health.Registry
}

// Options tune request handling
type Options struct {
	MaxUploadBytes int64
	// UploadsDir is served under /uploads when proofs are kept on disk
	UploadsDir string
}

// Server represents the HTTP API server
type Server struct {
	config config.ServerConfig
	router *chi.Mux
	deps   Deps
	opts   Options
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, deps Deps, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	if deps.Health == nil {
		deps.Health = health.NewRegistry(0)
	}

	s := &Server{
		config: cfg,
		deps:   deps,
		opts:   opts,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// Addr is the listen address
func (s *Server) Addr() string {
	return s.config.Host + ":" + strconv.Itoa(s.config.Port)
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", adminPasswordHeader, deletePasswordHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", metrics.Handler())

	// Proofs are served even in maintenance mode
	if s.opts.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", noListing(http.FileServer(http.Dir(s.opts.UploadsDir)))))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/settings", s.handlePublicSettings)

		// Public routes are held while the site is in maintenance
		r.Group(func(r chi.Router) {
			r.Use(s.maintenanceMiddleware)

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/events", s.handleListEvents)
				r.Get("/events/{id}", s.handleGetEvent)
				r.Get("/coordinators", s.handleListCoordinators)
				r.Get("/departments", s.handleListDepartments)
			})

			r.Route("/register", func(r chi.Router) {
				r.With(variantMiddleware).Get("/{variant}/status", s.handleRegistrationStatus)
				r.Post("/outer", s.handleSubmitOuter)
				r.Post("/outer/{token}/proof", s.handleUploadProof)
				r.Post("/inter", s.handleSubmitInter)
				r.Post("/department", s.handleSubmitDepartment)
			})

			r.Get("/registrations/lookup", s.handleLookup)
			r.Put("/registrations/events", s.handleUpdateEvents)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleAdminLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.adminAuthMiddleware)

				r.Get("/stats", s.handleAdminStats)
				r.Get("/registrations", s.handleAdminList)
				r.Route("/registrations/{variant}", func(r chi.Router) {
					r.Use(variantMiddleware)
					r.Post("/", s.handleManualCreate)
					r.Patch("/{id}", s.handleManualUpdate)
					r.Put("/{id}/verification", s.handleSetVerification)
					r.Put("/{id}/entry", s.handleSetEntry)
					r.Delete("/{id}", s.handleDeleteRegistration)
				})
				r.Get("/settings", s.handleAdminSettings)
				r.Put("/settings/{key}", s.handleUpdateSetting)
				r.Post("/export", s.handleExport)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog and records their latency
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			elapsed := time.Since(start)
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			metrics.ObserveRequest(route, strconv.Itoa(ww.Status()), elapsed)

			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", elapsed.Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// noListing hides directory indexes of the uploads dir
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || r.URL.Path[len(r.URL.Path)-1] == '/' {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
