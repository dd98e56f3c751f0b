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

const (
	statusOK        = "ok"
	statusUnhealthy = "unhealthy"
	statusDegraded  = "degraded"
)

// HealthHandler handles GET /health, the liveness probe.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

type livenessResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// Liveness godoc
//
// @Summary  Liveness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  livenessResponse
// @Router   /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, livenessResponse{Success: true, Status: statusOK})
}

// Check probes one dependency.
type Check func(ctx context.Context) error

// HealthDependenciesHandler handles GET /health/ready, the readiness probe.
// Probe errors are logged and never sent to the client.
type HealthDependenciesHandler struct {
	checks map[string]Check
	log    zerolog.Logger
}

func NewHealthDependenciesHandler(checks map[string]Check, log zerolog.Logger) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{checks: checks, log: log}
}

type readinessResponse struct {
	Success      bool              `json:"success"`
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

// Readiness godoc
//
// @Summary  Readiness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  readinessResponse
// @Failure  503  {object}  readinessResponse
// @Router   /health/ready [get]
func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
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
			h.log.Error().Err(err).Str("dependency", name).Msg("readiness check failed")
			deps[name] = statusUnhealthy
			healthy = false
			continue
		}
		deps[name] = statusOK
	}

	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, readinessResponse{
			Success:      false,
			Status:       statusDegraded,
			Dependencies: deps,
		})
	}
	return c.JSON(http.StatusOK, readinessResponse{
		Success:      true,
		Status:       statusOK,
		Dependencies: deps,
	})
}
