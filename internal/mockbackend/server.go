// Package mockbackend is an in-memory stand-in for the verification engine,
// the document extraction service and the credential issuance backend. It
// serves the same HTTP contract the client speaks.
//
// Uploaded file names steer failures:
//
//	*unreadable*  extraction fails (500 on the sync endpoint, "failed" status on async)
//	*decline*     the holder abandons the async exchange
package mockbackend

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"credguard/internal/audit"
	"credguard/internal/platform/health"
	"credguard/internal/platform/logger"
	"credguard/internal/platform/metrics"
	"credguard/internal/platform/middleware"
)

// IssuerDID signs every credential minted by the mock backend.
const IssuerDID = "did:example:credguard-issuer"

// Config tunes the mock backend.
type Config struct {
	// PollsToIssue is how many status requests an async exchange stays in progress.
	PollsToIssue int
	// Latency delays every request.
	Latency time.Duration
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Server routes the backend contract onto an in-memory store.
type Server struct {
	pollsToIssue int
	logger       *slog.Logger
	now          func() time.Time
	store        *store
	audit        *audit.Publisher
	health       *health.Handler
	router       chi.Router
}

// New builds a Server with its routes mounted.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.PollsToIssue < 0 {
		cfg.PollsToIssue = 0
	}
	s := &Server{
		pollsToIssue: cfg.PollsToIssue,
		logger:       cfg.Logger,
		now:          cfg.Now,
		store:        newStore(),
		audit: audit.NewPublisher(audit.NewInMemoryStore(),
			audit.WithPublisherLogger(cfg.Logger),
			audit.WithClock(cfg.Now),
		),
		health: health.New(health.ServiceName),
	}
	s.router = s.routes(cfg)
	return s
}

func (s *Server) routes(cfg Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger, cfg.Metrics))
	r.Use(middleware.Latency(cfg.Latency))

	s.health.Register(r)

	jsonOnly := middleware.RequireContentType("application/json")
	multipartOnly := middleware.RequireContentType("multipart/form-data")

	r.Route("/api/credentials", func(r chi.Router) {
		r.With(jsonOnly).Post("/verify", s.handleVerify)
		r.With(multipartOnly).Post("/upload", s.handleUpload)

		r.Route("/issuance", func(r chi.Router) {
			r.With(multipartOnly).Post("/issue-from-document", s.handleIssue)
			r.With(multipartOnly).Post("/issue-from-document/async", s.handleIssueAsync)
			r.Get("/status/{exchangeId}", s.handleStatus)
			r.Post("/revoke/{credentialId}", s.handleRevoke)
			r.Get("/connection/{connectionId}/status", s.handleConnectionStatus)
		})
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Health exposes the health handler so callers can register readiness checks.
func (s *Server) Health() *health.Handler {
	return s.health
}

// Exchanges reports how many issuances the server is tracking.
func (s *Server) Exchanges() int {
	return s.store.size()
}

// Audit exposes the credential lifecycle trail.
func (s *Server) Audit() *audit.Publisher {
	return s.audit
}

// record appends a lifecycle event tagged with the request id. Audit failures
// never fail the request.
func (s *Server) record(r *http.Request, event audit.Event) {
	event.RequestID = middleware.GetRequestID(r.Context())
	if err := s.audit.Emit(r.Context(), event); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to record audit event", "action", event.Action, "error", err)
	}
}
