package handler

import (
	"context"
	"io"

	"github.com/google/uuid"

	"board-service/internal/audit"
	"board-service/internal/domain/file"
	"board-service/internal/domain/post"
	"board-service/internal/domain/user"
)

// Consumer-side interfaces defined by handlers
// Each interface contains only the methods needed by the specific handler

// UserHandler interfaces
type UserStore interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	List(ctx context.Context, filter user.ListFilter) ([]*user.User, int, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) (*user.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role user.Role) (*user.User, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// PostHandler interfaces
type PostStore interface {
	Create(ctx context.Context, input post.CreatePostInput) (*post.Post, error)
	FindByID(ctx context.Context, id uuid.UUID) (*post.Post, error)
	List(ctx context.Context, filter post.ListFilter) ([]*post.Post, int, error)
	Update(ctx context.Context, id, authorID uuid.UUID, input post.UpdatePostInput) (*post.Post, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// FileHandler interfaces
type FileStore interface {
	Create(ctx context.Context, input file.CreateFileInput) (*file.File, error)
	FindByID(ctx context.Context, id uuid.UUID) (*file.File, error)
	ListByUploader(ctx context.Context, uploaderID uuid.UUID, limit, offset int) ([]*file.File, int, error)
	Transition(ctx context.Context, id uuid.UUID, from, to file.UploadStatus) error
	VisibleThroughPost(ctx context.Context, fileID, viewerID uuid.UUID) (bool, error)
}

type ObjectStorage interface {
	Bucket() string
	CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error)
	UploadPart(ctx context.Context, key, uploadID string, partNumber int64, body io.ReadSeeker, size int64) (string, error)
	CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []file.Part) error
	AbortMultipartUpload(ctx context.Context, key, uploadID string) error
	PresignedDownloadURL(ctx context.Context, key, fileName string) (string, error)
}

type UploadEventRecorder interface {
	UploadEvent(event string)
}

// Shared
type AuditRecorder interface {
	Record(ctx context.Context, event *audit.Event)
}

type AuditQuerier interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]*audit.Event, error)
}

// Pinger is a dependency the health endpoint checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, *audit.Event) {}

type nopUploadRecorder struct{}

func (nopUploadRecorder) UploadEvent(string) {}
