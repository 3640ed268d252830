package observability

import (
	"net/http"

	"github.com/promoflow/adkit/component"
)

// Report is the service-level health document served to external
// probes. component.Health describes a single component; a Report folds
// the per-component results into one overall status next to the service
// identity, so a probe can act on a single field.
type Report struct {
	Service    string                 `json:"service,omitempty"`
	Version    string                 `json:"version,omitempty"`
	Status     component.HealthStatus `json:"status"`
	Components []component.Health     `json:"components,omitempty"`
}

// NewReport starts a healthy report for the named service. Component
// results are folded in with Add.
func NewReport(service, version string) *Report {
	return &Report{
		Service: service,
		Version: version,
		Status:  component.StatusHealthy,
	}
}

// Add records one component result and downgrades the overall status:
// an unhealthy component makes the whole service unhealthy, while
// degraded or unknown components mark it degraded unless something
// worse was already recorded.
func (r *Report) Add(h component.Health) {
	r.Components = append(r.Components, h)

	switch h.Status {
	case component.StatusUnhealthy:
		r.Status = component.StatusUnhealthy
	case component.StatusDegraded, component.StatusUnknown:
		if r.Status == component.StatusHealthy {
			r.Status = component.StatusDegraded
		}
	}
}

// HTTPStatus maps the overall status to a response code. Only an
// unhealthy service maps to 503; a degraded one still answers 200.
func (r *Report) HTTPStatus() int {
	if r.Status == component.StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
