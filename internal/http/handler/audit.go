package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"board-service/internal/audit"
	"board-service/internal/auth"
	"board-service/internal/rbac"
	"board-service/internal/rbac/presets"
	apperrors "board-service/pkg/errors"
)

const defaultAuditQueryLimit = 100

type AuditHandler struct {
	events  AuditQuerier
	checker *rbac.Checker
}

func NewAuditHandler(events AuditQuerier, checker *rbac.Checker) *AuditHandler {
	return &AuditHandler{events: events, checker: checker}
}

// Query lists audit events, newest first.
func (h *AuditHandler) Query(c echo.Context) error {
	p, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	if !h.checker.IsAuthorized(p.Subject(), presets.ResourceAudit, presets.ActionRead) {
		return apperrors.Forbidden("")
	}

	filter := audit.QueryFilter{Limit: defaultAuditQueryLimit}

	if raw := c.QueryParam(queryActorID); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperrors.BadRequest(msgInvalidID)
		}
		filter.ActorID = &id
	}
	if raw := c.QueryParam(queryAction); raw != "" {
		action := audit.Action(strings.ToLower(raw))
		if !action.Valid() {
			return apperrors.Validation(msgInvalidAction)
		}
		filter.Action = &action
	}
	if raw := c.QueryParam(queryResourceType); raw != "" {
		resourceType := audit.ResourceType(strings.ToLower(raw))
		if !resourceType.Valid() {
			return apperrors.Validation(msgInvalidResourceType)
		}
		filter.ResourceType = &resourceType
	}
	if raw := c.QueryParam(queryLimit); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return apperrors.Validation(msgInvalidLimit)
		}
		filter.Limit = min(limit, maxAuditQueryLimit)
	}
	if raw := c.QueryParam(queryOffset); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 || offset > maxOffset {
			return apperrors.Validation(msgInvalidOffset)
		}
		filter.Offset = offset
	}

	events, err := h.events.Query(c.Request().Context(), filter)
	if err != nil {
		return apperrors.InternalServer("", err)
	}
	if events == nil {
		events = []*audit.Event{}
	}
	return respondData(c, http.StatusOK, "", events)
}
