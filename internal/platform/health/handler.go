// Package health serves the backend health contract plus liveness and readiness probes.
package health

import (
	"maps"
	"net/http"
	"sync"

	"credguard/internal/models"
	"credguard/pkg/platform/httputil"

	"github.com/go-chi/chi/v5"
)

// Version is set at build time via ldflags.
var Version = "1.0.0"

// ServiceName is reported by the status endpoint.
const ServiceName = "credguard-backend"

// CheckFunc is a function that checks the health of a dependency.
// It returns nil if healthy, or an error describing the issue.
type CheckFunc func() error

// Handler provides health check endpoints.
type Handler struct {
	service string

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// New creates a new health handler.
func New(service string) *Handler {
	if service == "" {
		service = ServiceName
	}
	return &Handler{
		service: service,
		checks:  make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named health check consulted by readiness and status.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Register mounts health check routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.HandleStatus)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

// HandleStatus answers the backend health contract.
func (h *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	status, code := "OK", http.StatusOK
	if failed := h.run(); len(failed) > 0 {
		status, code = "DOWN", http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, code, models.Health{
		Status:  status,
		Service: h.service,
		Version: Version,
	})
}

// LivenessResponse is the response for the liveness probe.
type LivenessResponse struct {
	Status string `json:"status"`
}

// HandleLiveness always returns 200 OK while the process is serving.
func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

// ReadinessResponse is the response for the readiness probe.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HandleReadiness returns 503 if any registered check fails.
func (h *Handler) HandleReadiness(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	h.mu.RUnlock()

	failed := h.run()
	response := ReadinessResponse{Status: "ready", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		response.Checks[name] = "up"
	}
	maps.Copy(response.Checks, failed)

	if len(failed) > 0 {
		response.Status = "not_ready"
		httputil.WriteJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

func (h *Handler) run() map[string]string {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	maps.Copy(checks, h.checks)
	h.mu.RUnlock()

	failed := make(map[string]string)
	for name, check := range checks {
		if err := check(); err != nil {
			failed[name] = "down: " + err.Error()
		}
	}
	return failed
}
