package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/FACorreiaa/ai-course-generator/internal/api"
)

// Check reports whether one backing service is reachable.
type Check func(ctx context.Context) error

type HandlerImpl struct {
	logger  *slog.Logger
	checks  map[string]Check
	timeout time.Duration
}

func NewHandlerImpl(checks map[string]Check, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		checks:  checks,
		timeout: 2 * time.Second,
	}
}

// Health godoc
// @Summary      Liveness probe
// @Tags         Health
// @Success      200 {object} map[string]interface{}
// @Router       /api/health [get]
func (h *HandlerImpl) Health(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{"success": true, "status": "ok"})
}

// Ready pings every dependency and answers 503 when one is down.
func (h *HandlerImpl) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "Readiness check failed", slog.String("dependency", name), slog.Any("error", err))
			results[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "up"
	}
	api.WriteJSONResponse(w, r, status, map[string]interface{}{
		"success":      status == http.StatusOK,
		"dependencies": results,
	})
}
