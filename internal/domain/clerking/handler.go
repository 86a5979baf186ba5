package clerking

import (
	"errors"
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
	api.POST("/drafts", h.CreateDraft)
	api.GET("/drafts", h.ListOpenDrafts)
	api.GET("/drafts/:id", h.GetDraft)
	api.PUT("/drafts/:id", h.SaveDraft)
	api.GET("/drafts/:id/problems", h.ParseProblems)
	api.POST("/drafts/:id/finalize", h.Finalize)
}

func (h *Handler) CreateDraft(c echo.Context) error {
	var d Draft
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDraft(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDraft(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDraft(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "draft not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListOpenDrafts(c echo.Context) error {
	items, err := h.svc.ListOpenDrafts(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

// SaveDraft queues a debounced save and returns immediately. 202 tells
// the client the edit is scheduled, not yet durable.
func (h *Handler) SaveDraft(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var d Draft
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.SaveDraft(c.Request().Context(), &d); err != nil {
		if errors.Is(err, ErrAlreadyFinalized) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusNotFound, "draft not found")
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
}

func (h *Handler) ParseProblems(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	probs, err := h.svc.Problems(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "draft not found")
	}
	return c.JSON(http.StatusOK, probs)
}

func (h *Handler) Finalize(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	res, err := h.svc.Finalize(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrFinalizeInFlight):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, ErrAlreadyFinalized):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
	}
	return c.JSON(http.StatusOK, res)
}
