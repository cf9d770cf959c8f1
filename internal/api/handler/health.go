package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const readinessTimeout = 3 * time.Second

// PingFunc checks one dependency.
type PingFunc func(ctx context.Context) error

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checks map[string]PingFunc
	log    zerolog.Logger
}

func NewHealthHandler(checks map[string]PingFunc, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, log: log}
}

type healthResponse struct {
	Success      bool              `json:"success"`
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Liveness reports that the process is serving.
//
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  healthResponse
// @Router       /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Success: true, Status: "ok"})
}

// Readiness pings every dependency. Failure detail goes to the log only.
//
// @Summary      Readiness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  healthResponse
// @Failure      503  {object}  healthResponse
// @Router       /health/ready [get]
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			deps[name] = "unhealthy"
			healthy = false
			continue
		}
		deps[name] = "ok"
	}

	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, healthResponse{Success: false, Status: "degraded", Dependencies: deps})
	}
	return c.JSON(http.StatusOK, healthResponse{Success: true, Status: "ok", Dependencies: deps})
}
