// Package handler provides HTTP handlers for the CartShare API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/cartshare/cartshare/internal/api/models"
	"github.com/cartshare/cartshare/internal/api/response"
	"github.com/cartshare/cartshare/internal/provider/resilience"
)

// SubsystemCheck probes a single dependency for readiness reporting.
type SubsystemCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	checks    []SubsystemCheck
}

// NewOpsHandler creates a new OpsHandler. The checks are probed on every
// readiness and status request, so they should be cheap (a pool ping, not
// a query).
func NewOpsHandler(version, buildTime string, checks ...SubsystemCheck) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		checks:    checks,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. Returns 503
// when any dependency probe fails.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := models.HealthStatusOK
	httpStatus := http.StatusOK
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			status = models.HealthStatusFail
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	health := models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	}
	response.JSON(w, r, httpStatus, health)
}

// SystemStatus handles GET /v1/ops/status - per-subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	now := models.Timestamp(time.Now())
	overall := models.HealthStatusOK
	subsystems := make([]models.SubsystemStatus, 0, len(h.checks))
	for _, check := range h.checks {
		sub := models.SubsystemStatus{Name: check.Name, Status: models.HealthStatusOK}
		if err := check.Check(ctx); err != nil {
			detail := err.Error()
			sub.Status = models.HealthStatusFail
			sub.Detail = &detail
			overall = models.HealthStatusDegraded
		}
		subsystems = append(subsystems, sub)
	}

	providers := make([]models.ProviderStatus, 0)
	for _, health := range resilience.GlobalRegistry.GetAllHealth() {
		p := models.ProviderStatus{
			Provider: health.Name,
			Status:   models.HealthStatusOK,
		}
		if health.IsDegraded() {
			p.Status = models.HealthStatusDegraded
		} else if health.IsUnhealthy() {
			p.Status = models.HealthStatusFail
		}
		if health.LastSuccessAt != nil {
			ts := models.Timestamp(*health.LastSuccessAt)
			p.LastSuccessAt = &ts
		}
		if health.LastFailureAt != nil {
			ts := models.Timestamp(*health.LastFailureAt)
			p.LastFailureAt = &ts
		}
		if health.LastError != "" {
			msg := health.LastError
			p.Message = &msg
		}
		if p.Status != models.HealthStatusOK && overall == models.HealthStatusOK {
			overall = models.HealthStatusDegraded
		}
		providers = append(providers, p)
	}

	status := models.SystemStatus{
		Status:     overall,
		Time:       now,
		Subsystems: subsystems,
		Providers:  providers,
	}
	response.JSON(w, r, http.StatusOK, status)
}
