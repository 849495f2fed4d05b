package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"lms-service/internal/app"
	"lms-service/internal/domain"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=student teacher"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Name string `json:"name" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

func (h *Handler) register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.svc.Auth.Register(c.Request().Context(), app.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "account created", user)
}

func (h *Handler) login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.svc.Auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "logged in", res)
}

func (h *Handler) logout(c echo.Context) error {
	if err := h.svc.Auth.Logout(c.Request().Context(), claimsFrom(c)); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "logged out", nil)
}

func (h *Handler) profile(c echo.Context) error {
	user, err := h.svc.Auth.Profile(c.Request().Context(), claimsFrom(c).UserID())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", user)
}

func (h *Handler) updateProfile(c echo.Context) error {
	var req profileRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.svc.Auth.UpdateProfile(c.Request().Context(), claimsFrom(c).UserID(), req.Name)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "profile updated", user)
}

func (h *Handler) changePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.svc.Auth.ChangePassword(c.Request().Context(), claimsFrom(c).UserID(), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "password changed", nil)
}
