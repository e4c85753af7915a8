package reporting

import (
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/labwatch/labwatch/internal/platform/auth"
)

// Handler provides HTTP handlers for the reporting API. pool may be nil;
// SQL-backed measures then respond 503 while turnaround stats keep working.
type Handler struct {
	svc  *Service
	pool *pgxpool.Pool
}

func NewHandler(svc *Service, pool *pgxpool.Pool) *Handler {
	return &Handler{svc: svc, pool: pool}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	reportGroup := api.Group("/reports", auth.RequireRole("admin", "physician"))
	reportGroup.GET("/turnaround", h.GetTurnaround)
	reportGroup.GET("/turnaround/:test", h.GetTurnaroundForTest)
	reportGroup.GET("/measures", h.ListMeasures)
	reportGroup.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

// GetTurnaround returns per-test turnaround summaries.
func (h *Handler) GetTurnaround(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Stats())
}

// GetTurnaroundForTest returns the summary for one test.
func (h *Handler) GetTurnaroundForTest(c echo.Context) error {
	stats, ok := h.svc.StatsFor(c.Param("test"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no turnaround samples for test")
	}
	return c.JSON(http.StatusOK, stats)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure executes a measure's SQL and returns the results.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	if h.pool == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "measures require a database")
	}
	m := FindMeasure(c.Param("id"))
	if m == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}
	report, err := EvaluateMeasure(c.Request().Context(), h.pool, m)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}
	return c.JSON(http.StatusOK, report)
}
