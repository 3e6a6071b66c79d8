package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"board-service/internal/domain/post"
	apperrors "board-service/pkg/errors"
)

var postCols = []string{"id", "title", "content", "author_id", "email", "name", "status", "deleted_at", "created_at", "updated_at"}

func postRow(rows *sqlmock.Rows, id, author uuid.UUID, title string) *sqlmock.Rows {
	return rows.AddRow(id.String(), title, "body", author.String(), "author@example.com", "Author", "PUBLISHED", nil, fixedTime, fixedTime)
}

func TestPostCreateWithFiles(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)
	postID, author, fileID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO posts (title, content, author_id, status)")).
		WithArgs("Hello", "body", author, "PUBLISHED").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(postID.String()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM files WHERE id = $1 AND uploader_id = $2")).
		WithArgs(fileID, author).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("COMPLETED"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO post_files (post_id, file_id, position)")).
		WithArgs(postID, fileID, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1 AND p.deleted_at IS NULL")).
		WithArgs(postID).
		WillReturnRows(postRow(sqlmock.NewRows(postCols), postID, author, "Hello"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT post_id, file_id FROM post_files WHERE post_id IN ($1)")).
		WithArgs(postID).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "file_id"}).AddRow(postID.String(), fileID.String()))

	p, err := repo.Create(context.Background(), post.CreatePostInput{
		Title: "Hello", Content: "body", AuthorID: author, Status: post.StatusPublished,
		FileIDs: []uuid.UUID{fileID, fileID},
	})
	require.NoError(t, err)
	assert.Equal(t, postID, p.ID)
	assert.Equal(t, "author@example.com", p.AuthorEmail)
	assert.Equal(t, []uuid.UUID{fileID}, p.FileIDs)
}

func TestPostCreateRejectsIncompleteFile(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)
	postID, author, fileID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO posts")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(postID.String()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM files")).
		WithArgs(fileID, author).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("UPLOADING"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), post.CreatePostInput{
		Title: "Hello", AuthorID: author, Status: post.StatusDraft, FileIDs: []uuid.UUID{fileID},
	})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestPostCreateRejectsForeignFile(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)
	postID, author, fileID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO posts")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(postID.String()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM files")).
		WithArgs(fileID, author).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), post.CreatePostInput{
		Title: "Hello", AuthorID: author, Status: post.StatusDraft, FileIDs: []uuid.UUID{fileID},
	})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestPostFindByIDMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), id)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestPostListSortsAndFilters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)
	author := uuid.New()
	first, second := uuid.New(), uuid.New()
	status := post.StatusPublished

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM posts p JOIN users u ON u.id = p.author_id WHERE p.deleted_at IS NULL AND u.email = $1 AND p.status = $2")).
		WithArgs("author@example.com", "PUBLISHED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	rows := sqlmock.NewRows(postCols)
	postRow(rows, first, author, "A")
	postRow(rows, second, author, "B")
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.title ASC, p.id LIMIT $3 OFFSET $4")).
		WithArgs("author@example.com", "PUBLISHED", 10, 0).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE post_id IN ($1, $2)")).
		WithArgs(first, second).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "file_id"}))

	posts, total, err := repo.List(context.Background(), post.ListFilter{
		AuthorEmail: "Author@Example.com", Status: &status, Sort: post.SortTitle, Ascending: true, Limit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, posts, 2)
	assert.Equal(t, "A", posts[0].Title)
	assert.NotNil(t, posts[0].FileIDs)
	assert.Empty(t, posts[0].FileIDs)
}

func TestPostListUnknownSortFallsBack(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.created_at DESC, p.id")).
		WillReturnRows(sqlmock.NewRows(postCols))

	posts, _, err := repo.List(context.Background(), post.ListFilter{Sort: "id; DROP TABLE posts"})
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPostUpdateReplacesFiles(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)
	postID, author, fileID := uuid.New(), uuid.New(), uuid.New()
	title := "Renamed"
	files := []uuid.UUID{fileID}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE posts")).
		WithArgs(postID, "Renamed", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM post_files WHERE post_id = $1")).
		WithArgs(postID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status FROM files")).
		WithArgs(fileID, author).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("COMPLETED"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO post_files")).
		WithArgs(postID, fileID, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).
		WithArgs(postID).
		WillReturnRows(postRow(sqlmock.NewRows(postCols), postID, author, "Renamed"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM post_files")).
		WithArgs(postID).
		WillReturnRows(sqlmock.NewRows([]string{"post_id", "file_id"}).AddRow(postID.String(), fileID.String()))

	p, err := repo.Update(context.Background(), postID, author, post.UpdatePostInput{Title: &title, FileIDs: &files})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Title)
	assert.Len(t, p.FileIDs, 1)
}

func TestPostUpdateMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE posts")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), id, uuid.New(), post.UpdatePostInput{})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestPostSoftDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPostRepository(db)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE posts SET deleted_at = NOW()")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDelete(context.Background(), id)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
