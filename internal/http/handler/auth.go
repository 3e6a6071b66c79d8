package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"board-service/internal/auth"
	"board-service/internal/domain/user"
)

type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type ValidateResponse struct {
	Valid bool      `json:"valid"`
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}

	summary, err := h.svc.Register(c.Request().Context(), auth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return respondData(c, http.StatusCreated, msgRegistered, summary)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}

	pair, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return respondData(c, http.StatusOK, msgLoggedIn, pair)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}

	pair, err := h.svc.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return respondData(c, http.StatusOK, msgTokenRefreshed, pair)
}

// Logout drops the principal for the rest of this request. Tokens already issued
// remain usable until they expire.
func (h *AuthHandler) Logout(c echo.Context) error {
	req := c.Request()
	ctx, message := h.svc.Logout(req.Context())
	c.SetRequest(req.WithContext(ctx))
	return respondMessage(c, http.StatusOK, message)
}

func (h *AuthHandler) Me(c echo.Context) error {
	summary, err := h.svc.CurrentUser(c.Request().Context())
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, "", summary)
}

func (h *AuthHandler) Validate(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, "", ValidateResponse{Valid: true, Email: p.Email, Role: p.Role})
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}

	if err := h.svc.ChangePassword(c.Request().Context(), req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}

	return respondMessage(c, http.StatusOK, msgPasswordChanged)
}
