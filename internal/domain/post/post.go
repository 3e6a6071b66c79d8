package post

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusArchived  Status = "ARCHIVED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

const summaryContentRunes = 100

type Post struct {
	ID          uuid.UUID
	Title       string
	Content     string
	AuthorID    uuid.UUID
	AuthorEmail string
	AuthorName  string
	Status      Status
	FileIDs     []uuid.UUID
	DeletedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Post) OwnedBy(userID uuid.UUID) bool {
	return p.AuthorID == userID
}

// Summary is the list-view projection of a post.
type Summary struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	AuthorEmail string    `json:"author_email"`
	AuthorName  string    `json:"author_name"`
	Status      Status    `json:"status"`
	FileCount   int       `json:"file_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p *Post) Summary() Summary {
	return Summary{
		ID:          p.ID,
		Title:       p.Title,
		Content:     truncateRunes(p.Content, summaryContentRunes),
		AuthorEmail: p.AuthorEmail,
		AuthorName:  p.AuthorName,
		Status:      p.Status,
		FileCount:   len(p.FileIDs),
		CreatedAt:   p.CreatedAt,
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

type CreatePostInput struct {
	Title    string
	Content  string
	AuthorID uuid.UUID
	Status   Status
	FileIDs  []uuid.UUID
}

type UpdatePostInput struct {
	Title   *string
	Content *string
	Status  *Status
	FileIDs *[]uuid.UUID
}

type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortTitle     SortField = "title"
	SortAuthor    SortField = "author"
)

type ListFilter struct {
	AuthorEmail string
	AuthorID    *uuid.UUID
	Status      *Status
	Search      string
	Sort        SortField
	Ascending   bool
	Limit       int
	Offset      int
}
