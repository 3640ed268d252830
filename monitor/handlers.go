package monitor

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/promoflow/adkit/errors"
	"github.com/promoflow/adkit/interstitial"
	"github.com/promoflow/adkit/observability"
	"github.com/promoflow/adkit/version"
)

// DataResponse is the standard success envelope for /api/v1 resources.
type DataResponse struct {
	Data any `json:"data"`
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// RespondWithError inspects err: if it is an *errors.AdError the status
// and structured body are derived automatically; otherwise a generic 500
// is sent.
func RespondWithError(c *gin.Context, err error) {
	if adErr, ok := errors.AsAdError(err); ok {
		c.JSON(adErr.HTTPStatus, adErr.ToResponse())
		return
	}
	c.JSON(http.StatusInternalServerError, errors.Internal(err).ToResponse())
}

// handleHealthz reports per-component health. Any unhealthy component
// turns the response into a 503; degraded or not-started components are
// flagged but keep the 200.
func (s *Server) handleHealthz(c *gin.Context) {
	ctx := c.Request.Context()

	report := observability.NewReport(s.serviceName, version.Version)
	if s.components != nil {
		for _, h := range s.components.HealthAll(ctx) {
			report.Add(h)
		}
	} else {
		report.Add(s.registry.Health(ctx))
	}

	c.JSON(report.HTTPStatus(), report)
}

func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, version.Info())
}

func (s *Server) handlePlacements(c *gin.Context) {
	RespondOK(c, s.registry.Snapshot())
}

func (s *Server) handlePlacement(c *gin.Context) {
	tag := interstitial.Tag(c.Param("tag"))
	status, err := s.registry.StatusOf(tag)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, status)
}
