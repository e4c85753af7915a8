package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/labwatch/labwatch/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse", "lab_tech"))
	readGroup.GET("/catalog/tests", h.ListTests)
	readGroup.GET("/catalog/tests/:name", h.GetTest)
	readGroup.GET("/catalog/policies", h.ListPolicies)
}

func (h *Handler) ListTests(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.ListTests())
}

func (h *Handler) GetTest(c echo.Context) error {
	def, ok := h.svc.Lookup(c.Param("name"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown test")
	}
	return c.JSON(http.StatusOK, def)
}

func (h *Handler) ListPolicies(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.ListPolicies())
}
