package workspace

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/workspace/:user/patients", h.ListPinned)
	api.PUT("/workspace/:user/patients/:id", h.Pin)
	api.DELETE("/workspace/:user/patients/:id", h.Unpin)
	api.DELETE("/workspace/:user/patients", h.Clear)
}

func (h *Handler) ListPinned(c echo.Context) error {
	ids, err := h.svc.List(c.Request().Context(), c.Param("user"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return c.JSON(http.StatusOK, ids)
}

func (h *Handler) Pin(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ids, err := h.svc.Pin(c.Request().Context(), c.Param("user"), pid)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, ids)
}

func (h *Handler) Unpin(c echo.Context) error {
	pid, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ids, err := h.svc.Unpin(c.Request().Context(), c.Param("user"), pid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return c.JSON(http.StatusOK, ids)
}

func (h *Handler) Clear(c echo.Context) error {
	if err := h.svc.Clear(c.Request().Context(), c.Param("user")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
