package results

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/labwatch/labwatch/internal/domain/alerts"
	"github.com/labwatch/labwatch/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "lab_tech"))
	g.POST("/results", h.IngestResult)
}

// IngestResult handles POST /results. Responds 201 with the alert when the
// value is critical, 204 when unremarkable.
func (h *Handler) IngestResult(c echo.Context) error {
	var r Result
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if r.TestName == "" || r.SubjectID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "test_name and subject_id are required")
	}

	alert, err := h.svc.Ingest(c.Request().Context(), r)
	switch {
	case errors.Is(err, ErrInvalidValue):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, alerts.ErrPolicyNotFound):
		// Recorded but unrouted: surface the alert, routing gap is logged.
		return c.JSON(http.StatusCreated, alert)
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if alert == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusCreated, alert)
}
