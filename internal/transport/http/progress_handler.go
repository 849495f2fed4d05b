package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type studyRequest struct {
	Minutes *int `json:"minutes" validate:"required"`
}

func (h *Handler) reportStudy(c echo.Context) error {
	var req studyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	entry, err := h.svc.Progress.ReportStudy(c.Request().Context(), claimsFrom(c).UserID(), *req.Minutes)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "progress recorded", entry)
}

func (h *Handler) streak(c echo.Context) error {
	state, err := h.svc.Progress.TouchStreak(c.Request().Context(), claimsFrom(c).UserID())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", state)
}

func (h *Handler) dashboard(c echo.Context) error {
	dash, err := h.svc.Progress.Dashboard(c.Request().Context(), claimsFrom(c).UserID())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", dash)
}
