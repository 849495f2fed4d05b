package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"lms-service/internal/domain"
)

type verificationRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) teachers(c echo.Context) error {
	status := domain.VerificationStatus(c.QueryParam("status"))
	switch status {
	case "", domain.VerificationPending, domain.VerificationVerified, domain.VerificationRejected:
	default:
		return domain.Invalid("status must be Pending, Verified or Rejected")
	}
	teachers, err := h.svc.Admin.Teachers(c.Request().Context(), status)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", teachers)
}

func (h *Handler) approveTeacher(c echo.Context) error {
	return h.verify(c, "teacher approved", h.svc.Admin.ApproveTeacher)
}

func (h *Handler) rejectTeacher(c echo.Context) error {
	return h.verify(c, "teacher rejected", h.svc.Admin.RejectTeacher)
}

func (h *Handler) verify(c echo.Context, message string, apply func(ctx context.Context, teacherID, notes string) (domain.User, error)) error {
	var req verificationRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := apply(c.Request().Context(), c.Param("teacherId"), req.Notes)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, message, user)
}
