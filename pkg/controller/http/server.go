package http

import (
	"context"
	"crypto/rand"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/snipzip/pkg/domain/interfaces"
)

// DefaultMaxBodySize caps request bodies at 4 MiB
const DefaultMaxBodySize int64 = 4 << 20

// config holds internal HTTP server configuration
type config struct {
	addr         string
	cookieSecret []byte
	cookieTTL    time.Duration
	secureCookie bool
	maxBodySize  int64
	sentry       bool
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithCookieSecret sets the HMAC key signing session cookies
func WithCookieSecret(secret []byte) Option {
	return func(c *config) {
		c.cookieSecret = secret
	}
}

// WithCookieTTL sets the lifetime of a session cookie
func WithCookieTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.cookieTTL = ttl
	}
}

// WithSecureCookie marks session cookies Secure (HTTPS only)
func WithSecureCookie(secure bool) Option {
	return func(c *config) {
		c.secureCookie = secure
	}
}

// WithMaxBodySize sets the maximum accepted request body size in bytes
func WithMaxBodySize(n int64) Option {
	return func(c *config) {
		c.maxBodySize = n
	}
}

// WithSentry enables Sentry panic and error reporting. sentry.Init must have
// been called beforehand.
func WithSentry(enabled bool) Option {
	return func(c *config) {
		c.sentry = enabled
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	sessionUC interfaces.SessionUseCase,
	archiveUC interfaces.ArchiveUseCase,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr:        "localhost:8080",
		cookieTTL:   24 * time.Hour,
		maxBodySize: DefaultMaxBodySize,
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.cookieSecret) == 0 {
		cfg.cookieSecret = make([]byte, 32)
		if _, err := rand.Read(cfg.cookieSecret); err != nil {
			return nil, goerr.Wrap(err, "failed to generate cookie secret")
		}
		ctxlog.From(ctx).Warn("No cookie secret configured, sessions will not survive a restart")
	}

	validator, err := newRequestValidator()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load API document")
	}

	cookies := newCookieSigner(cfg.cookieSecret, cfg.cookieTTL, cfg.secureCookie)

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	if cfg.sentry {
		router.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	router.Use(middleware.Recoverer)
	router.Use(BodyLimitMiddleware(cfg.maxBodySize))

	// Health check
	router.Get("/health", handleHealth)

	// HTML form
	form, err := newFormHandler(sessionUC, cookies)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create form handler")
	}
	router.Get("/", form.Show)
	router.Post("/", form.Submit)

	// JSON API
	api := newAPIHandler(sessionUC, archiveUC)
	router.Get("/api/openapi.yaml", handleOpenAPI)
	router.Route("/api", func(r chi.Router) {
		r.Use(validator.Middleware)
		r.Post("/archive", api.BuildArchive)
		r.Post("/sessions", api.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", api.GetSession)
			r.Delete("/", api.DeleteSession)
			r.Post("/slots", api.GrowSession)
			r.Put("/slots/{index}", api.UpdateSlot)
			r.Get("/files", api.PreviewFiles)
			r.Get("/archive", api.DownloadArchive)
		})
	})

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}

// captureError reports err to Sentry when a hub is bound to the request
func captureError(r *http.Request, err error) {
	if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
		hub.CaptureException(err)
	}
}
