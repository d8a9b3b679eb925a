// Package api implements the edge security gateway for the writeups
// blog: rate limiting, login lockout, sessions, cross-origin checks and
// upload validation, plus the HTTP handlers they protect.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/geeklurk/lurkgate/internal/config"
	"github.com/geeklurk/lurkgate/internal/secret"
	"github.com/geeklurk/lurkgate/storage"
)

// sweepInterval is how often guard state (rate records, lockouts,
// in-memory sessions) is swept for expired entries.
const sweepInterval = 5 * time.Minute

//go:embed openapi.yaml
var openapiSpec []byte

// API holds the gateway guards and the dependencies of the HTTP
// handlers behind them.
type API struct {
	cfg           *config.Config
	store         storage.Store
	creds         *secret.Credentials
	sessions      SessionStore
	limiter       *rateLimiter
	lockouts      *lockoutTracker
	audit         *auditLogger
	trustedOrigin string
	// uploadSem bounds concurrent multipart processing so one large
	// upload cannot stall unrelated requests.
	uploadSem chan struct{}
	// failureDelay is the fixed pause before answering a failed login,
	// blunting timing-based enumeration. Shortened in tests.
	failureDelay time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.audit = newAuditLogger(logger)
	}
}

// WithSessionStore replaces the default in-memory session store.
func WithSessionStore(store SessionStore) Option {
	return func(a *API) {
		a.sessions = store
	}
}

// WithFailureDelay overrides the fixed failed-login delay.
func WithFailureDelay(d time.Duration) Option {
	return func(a *API) {
		a.failureDelay = d
	}
}

// New creates a new API instance and starts its background sweep.
func New(cfg *config.Config, store storage.Store, creds *secret.Credentials, opts ...Option) *API {
	a := &API{
		cfg:           cfg,
		store:         store,
		creds:         creds,
		limiter:       newRateLimiter(cfg.Limits),
		lockouts:      newLockoutTracker(),
		trustedOrigin: cfg.TrustedOrigin(),
		uploadSem:     make(chan struct{}, cfg.MaxConcurrentUploads),
		failureDelay:  1 * time.Second,
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.audit == nil {
		a.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	if a.sessions == nil {
		a.sessions = NewMemorySessionStore()
	}
	go a.sweepLoop()
	return a
}

// Close stops the background sweep goroutine.
func (a *API) Close() {
	a.stopOnce.Do(func() { close(a.stopCh) })
}

func (a *API) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.limiter.sweep()
			a.lockouts.sweep()
			if mem, ok := a.sessions.(*MemorySessionStore); ok {
				mem.sweep()
			}
		case <-a.stopCh:
			return
		}
	}
}

// Router returns a chi.Router with all gateway-fronted routes mounted.
// Callers should wrap it with Guard, SecurityHeaders and
// MetricsMiddleware; see cmd/lurkgate.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/openapi.yaml",
		Path:    "docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/openapi.yaml",
		Path:    "redoc",
	}, nil))

	r.Post("/api/admin/login", a.Login)
	r.Post("/api/admin/logout", a.Logout)
	r.Post("/api/admin/upload", a.UploadWriteup)

	r.Get("/api/comments", a.ListComments)
	r.Post("/api/comments", a.PostComment)
	r.Get("/api/reactions", a.ListReactions)
	r.Post("/api/reactions", a.PostReaction)

	// Minimal admin pages. The real console is rendered elsewhere; the
	// gateway only needs something behind the session check.
	r.Get(adminLoginPath, a.adminLoginPage)
	r.Get("/admin", a.adminPage)
	r.Get("/admin/*", a.adminPage)

	return r
}

func (a *API) adminLoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("<!doctype html><title>admin login</title><h1>Sign in</h1>"))
}

func (a *API) adminPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("<!doctype html><title>admin</title><h1>Admin console</h1>"))
}
