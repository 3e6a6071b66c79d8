package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"board-service/internal/audit"
	"board-service/internal/auth"
	"board-service/internal/domain/user"
	"board-service/internal/rbac"
	"board-service/internal/rbac/presets"
	apperrors "board-service/pkg/errors"
	"board-service/pkg/validator"
)

type UserHandler struct {
	users   UserStore
	checker *rbac.Checker
	auditor AuditRecorder
	pages   Pagination
}

func NewUserHandler(users UserStore, checker *rbac.Checker, auditor AuditRecorder, pages Pagination) *UserHandler {
	if auditor == nil {
		auditor = nopAuditor{}
	}
	return &UserHandler{users: users, checker: checker, auditor: auditor, pages: pages}
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// List is mounted behind RequireRole(MANAGER).
func (h *UserHandler) List(c echo.Context) error {
	page, size, err := h.pages.parse(c)
	if err != nil {
		return err
	}

	filter := user.ListFilter{
		Keyword: strings.TrimSpace(c.QueryParam(queryKeyword)),
		Limit:   size,
		Offset:  page * size,
	}
	if raw := c.QueryParam(queryRole); raw != "" {
		role, ok := user.ParseRole(raw)
		if !ok {
			return apperrors.Validation(msgInvalidRole)
		}
		filter.Role = &role
	}

	users, total, err := h.users.List(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	summaries := make([]user.Summary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, u.Summary())
	}
	return respondData(c, http.StatusOK, "", newPage(summaries, page, size, total))
}

// Get returns a user to themselves or to a role allowed to read users.
func (h *UserHandler) Get(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, paramID)
	if err != nil {
		return err
	}

	if id != p.ID && !h.checker.IsAuthorized(p.Subject(), presets.ResourceUser, presets.ActionRead) {
		return apperrors.Forbidden(msgNotAllowedUser)
	}

	u, err := h.users.FindActiveByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respondData(c, http.StatusOK, "", u.Summary())
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	var req UpdateProfileRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}
	name := strings.TrimSpace(req.Name)
	if err := validator.Name(name); err != nil {
		return apperrors.Validation(err.Error())
	}

	u, err := h.users.UpdateName(c.Request().Context(), p.ID, name)
	if err != nil {
		return err
	}

	h.auditor.Record(c.Request().Context(), &audit.Event{
		ActorID:      &p.ID,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   &u.ID,
		Action:       audit.ActionUpdate,
		Status:       audit.StatusSuccess,
		Metadata:     map[string]any{"field": "name"},
	})
	return respondData(c, http.StatusOK, msgUserUpdated, u.Summary())
}

// UpdateRole is mounted behind RequireRole(ADMIN).
func (h *UserHandler) UpdateRole(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, paramID)
	if err != nil {
		return err
	}

	var req UpdateRoleRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}
	role, ok := user.ParseRole(req.Role)
	if !ok {
		return apperrors.Validation(msgInvalidRole)
	}
	if id == p.ID {
		return apperrors.BadRequest(msgCannotModifySelf)
	}

	u, err := h.users.UpdateRole(c.Request().Context(), id, role)
	if err != nil {
		return err
	}

	h.auditor.Record(c.Request().Context(), &audit.Event{
		ActorID:      &p.ID,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   &u.ID,
		Action:       audit.ActionUpdate,
		Status:       audit.StatusSuccess,
		Metadata:     map[string]any{"role": string(role)},
	})
	return respondData(c, http.StatusOK, msgRoleUpdated, u.Summary())
}

// Delete soft-deletes a user. It is mounted behind RequireRole(ADMIN).
func (h *UserHandler) Delete(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := parseUUIDParam(c, paramID)
	if err != nil {
		return err
	}
	if id == p.ID {
		return apperrors.BadRequest(msgCannotModifySelf)
	}

	if err := h.users.SoftDelete(c.Request().Context(), id); err != nil {
		return err
	}

	h.auditor.Record(c.Request().Context(), &audit.Event{
		ActorID:      &p.ID,
		ResourceType: audit.ResourceTypeUser,
		ResourceID:   &id,
		Action:       audit.ActionDelete,
		Status:       audit.StatusSuccess,
	})
	return respondMessage(c, http.StatusOK, msgUserDeleted)
}
