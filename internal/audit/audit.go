package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActorType represents the type of entity performing an action
type ActorType string

const (
	ActorTypeUser      ActorType = "user"
	ActorTypeAnonymous ActorType = "anonymous"
	ActorTypeSystem    ActorType = "system"
)

// ResourceType represents the type of resource being acted upon
type ResourceType string

const (
	ResourceTypeSession ResourceType = "session"
	ResourceTypeUser    ResourceType = "user"
	ResourceTypePost    ResourceType = "post"
	ResourceTypeFile    ResourceType = "file"
)

// Action represents the action being performed
type Action string

const (
	ActionLogin    Action = "login"
	ActionLogout   Action = "logout"
	ActionRefresh  Action = "refresh"
	ActionRegister Action = "register"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

func (a Action) Valid() bool {
	switch a {
	case ActionLogin, ActionLogout, ActionRefresh, ActionRegister,
		ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

func (r ResourceType) Valid() bool {
	switch r {
	case ResourceTypeSession, ResourceTypeUser, ResourceTypePost, ResourceTypeFile:
		return true
	}
	return false
}

// Status represents the outcome of an action
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusDenied  Status = "denied"
)

const (
	defaultQueryLimit  = 100
	defaultWriteTimout = 2 * time.Second
)

// Event represents an audit event
type Event struct {
	ID           uuid.UUID      `json:"id"`
	EventType    string         `json:"event_type"`
	ActorType    ActorType      `json:"actor_type"`
	ActorID      *uuid.UUID     `json:"actor_id,omitempty"`
	ResourceType ResourceType   `json:"resource_type"`
	ResourceID   *uuid.UUID     `json:"resource_id,omitempty"`
	Action       Action         `json:"action"`
	Status       Status         `json:"status"`
	IPAddress    string         `json:"ip_address,omitempty"`
	UserAgent    string         `json:"user_agent,omitempty"`
	RequestID    string         `json:"request_id,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// RequestInfo describes the HTTP request an event originated from.
type RequestInfo struct {
	IPAddress string
	UserAgent string
	RequestID string
}

type requestInfoKey struct{}

func ContextWithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

func RequestInfoFromContext(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info, ok
}

// Logger handles audit logging
type Logger struct {
	db      *sql.DB
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	closed  bool
	pending sync.WaitGroup
}

// NewLogger creates a new audit logger
func NewLogger(db *sql.DB, logger *slog.Logger) *Logger {
	return &Logger{db: db, logger: logger, timeout: defaultWriteTimout}
}

// Log records an audit event
func (l *Logger) Log(ctx context.Context, event *Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.EventType == "" {
		event.EventType = string(event.Action) + "_" + string(event.ResourceType)
	}
	if event.ActorType == "" {
		event.ActorType = ActorTypeAnonymous
		if event.ActorID != nil {
			event.ActorType = ActorTypeUser
		}
	}
	if info, ok := RequestInfoFromContext(ctx); ok {
		event.IPAddress = info.IPAddress
		event.UserAgent = info.UserAgent
		event.RequestID = info.RequestID
	}

	var metadataJSON []byte
	if event.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("audit: marshal metadata: %w", err)
		}
	}

	_, err := l.db.ExecContext(ctx, insertEventQuery,
		event.ID,
		event.EventType,
		event.ActorType,
		event.ActorID,
		event.ResourceType,
		event.ResourceID,
		event.Action,
		event.Status,
		event.IPAddress,
		event.UserAgent,
		event.RequestID,
		metadataJSON,
		event.ErrorMessage,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}

// Record writes the event in the background. The write outlives the request but is
// bounded by the logger's timeout; failures are logged and otherwise dropped.
// Events recorded after Close are dropped.
func (l *Logger) Record(ctx context.Context, event *Event) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.logger.Warn("audit logger closed, event dropped", slog.String("event_type", event.EventType))
		return
	}
	l.pending.Add(1)
	l.mu.Unlock()

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	go func() {
		defer l.pending.Done()
		defer cancel()
		if err := l.Log(writeCtx, event); err != nil {
			l.logger.Warn("audit log failed",
				slog.String("event_type", event.EventType),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Close stops accepting events and waits for in-flight writes, or for ctx to end.
// Call it before closing the database.
func (l *Logger) Close(ctx context.Context) error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		l.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit: drain pending writes: %w", ctx.Err())
	}
}

// QueryFilter narrows Query results
type QueryFilter struct {
	ActorID      *uuid.UUID
	ResourceType *ResourceType
	Action       *Action
	Status       *Status
	StartTime    *time.Time
	EndTime      *time.Time
	Limit        int
	Offset       int
}

// Query retrieves audit events, newest first
func (l *Logger) Query(ctx context.Context, filter QueryFilter) ([]*Event, error) {
	query := selectEventsQuery
	args := []any{}
	argCount := 1

	if filter.ActorID != nil {
		query += fmt.Sprintf(" AND actor_id = $%d", argCount)
		args = append(args, *filter.ActorID)
		argCount++
	}

	if filter.ResourceType != nil {
		query += fmt.Sprintf(" AND resource_type = $%d", argCount)
		args = append(args, *filter.ResourceType)
		argCount++
	}

	if filter.Action != nil {
		query += fmt.Sprintf(" AND action = $%d", argCount)
		args = append(args, *filter.Action)
		argCount++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, *filter.Status)
		argCount++
	}

	if filter.StartTime != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argCount)
		args = append(args, *filter.StartTime)
		argCount++
	}

	if filter.EndTime != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argCount)
		args = append(args, *filter.EndTime)
		argCount++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, limit, filter.Offset)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query events: %w", err)
	}
	defer rows.Close()

	events := []*Event{}
	for rows.Next() {
		event := &Event{}
		var (
			metadataJSON []byte
			ip, ua, rid  sql.NullString
			errMsg       sql.NullString
		)

		err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.ActorType,
			&event.ActorID,
			&event.ResourceType,
			&event.ResourceID,
			&event.Action,
			&event.Status,
			&ip,
			&ua,
			&rid,
			&metadataJSON,
			&errMsg,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		event.IPAddress = ip.String
		event.UserAgent = ua.String
		event.RequestID = rid.String
		event.ErrorMessage = errMsg.String

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &event.Metadata); err != nil {
				return nil, fmt.Errorf("audit: decode metadata: %w", err)
			}
		}

		events = append(events, event)
	}

	return events, rows.Err()
}

const insertEventQuery = `
	INSERT INTO audit_events (
		id, event_type, actor_type, actor_id, resource_type, resource_id,
		action, status, ip_address, user_agent, request_id, metadata, error_message, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

const selectEventsQuery = `
	SELECT id, event_type, actor_type, actor_id, resource_type, resource_id,
	       action, status, ip_address, user_agent, request_id, metadata, error_message, created_at
	FROM audit_events
	WHERE 1=1`
