package wardview

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/wardboard/wardboard/internal/engine/rank"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/wards/:id/patients", h.WardPatients)
	api.GET("/wards/:id/rapid-round", h.RapidRound)
	api.GET("/wards/:id/handover", h.Handover)
	api.GET("/patients/:id/sbar", h.SBAR)
}

func (h *Handler) WardPatients(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	mode := rank.Mode(c.QueryParam("sort"))
	if mode != "" && !rank.ValidMode(mode) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid sort mode")
	}
	views, err := h.svc.WardPatients(c.Request().Context(), id, mode)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, views)
}

func (h *Handler) RapidRound(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	queue, err := h.svc.RapidRound(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, queue)
}

// Handover returns plain text ready for the printer or pastebin; the
// board exports it verbatim.
func (h *Handler) Handover(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	text, err := h.svc.HandoverText(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.String(http.StatusOK, text)
}

func (h *Handler) SBAR(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	text, err := h.svc.SBARText(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.String(http.StatusOK, text)
}
