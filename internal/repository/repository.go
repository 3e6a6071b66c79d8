package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"board-service/internal/domain/file"
	"board-service/internal/domain/post"
	"board-service/internal/domain/user"
)

// Lookups return an error wrapping apperrors.ErrNotFound on a miss. Soft-deleted
// rows are never returned.

// UserRepository defines user data access operations
type UserRepository interface {
	Create(ctx context.Context, input user.CreateUserInput) (*user.User, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	FindActiveByEmail(ctx context.Context, email string) (*user.User, error)
	List(ctx context.Context, filter user.ListFilter) ([]*user.User, int, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) (*user.User, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role user.Role) (*user.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// PostRepository defines post data access operations
type PostRepository interface {
	Create(ctx context.Context, input post.CreatePostInput) (*post.Post, error)
	FindByID(ctx context.Context, id uuid.UUID) (*post.Post, error)
	List(ctx context.Context, filter post.ListFilter) ([]*post.Post, int, error)
	Update(ctx context.Context, id, authorID uuid.UUID, input post.UpdatePostInput) (*post.Post, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// FileRepository defines file data access operations
type FileRepository interface {
	Create(ctx context.Context, input file.CreateFileInput) (*file.File, error)
	FindByID(ctx context.Context, id uuid.UUID) (*file.File, error)
	ListByUploader(ctx context.Context, uploaderID uuid.UUID, limit, offset int) ([]*file.File, int, error)
	Transition(ctx context.Context, id uuid.UUID, from, to file.UploadStatus) error
	VisibleThroughPost(ctx context.Context, fileID, viewerID uuid.UUID) (bool, error)
}
