package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"board-service/internal/domain/file"
	"board-service/internal/domain/post"
	apperrors "board-service/pkg/errors"
)

const postSelect = `
	SELECT p.id, p.title, p.content, p.author_id, u.email, u.name, p.status, p.deleted_at, p.created_at, p.updated_at
	FROM posts p
	JOIN users u ON u.id = p.author_id`

var postSortColumns = map[post.SortField]string{
	post.SortCreatedAt: "p.created_at",
	post.SortTitle:     "p.title",
	post.SortAuthor:    "u.email",
}

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

func scanPost(row scanner) (*post.Post, error) {
	var (
		p         post.Post
		status    string
		deletedAt sql.NullTime
	)
	if err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Content,
		&p.AuthorID,
		&p.AuthorEmail,
		&p.AuthorName,
		&status,
		&deletedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = post.Status(status)
	p.DeletedAt = nullTimePtr(deletedAt)
	return &p, nil
}

// Create inserts the post and its file links in one transaction. Every linked
// file must be a completed upload owned by the author.
func (r *PostRepository) Create(ctx context.Context, input post.CreatePostInput) (*post.Post, error) {
	var id uuid.UUID
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO posts (title, content, author_id, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id`
		if err := tx.QueryRowContext(ctx, query, input.Title, input.Content, input.AuthorID, string(input.Status)).Scan(&id); err != nil {
			return errFailedCreatePost(err)
		}
		return attachFiles(ctx, tx, id, input.AuthorID, input.FileIDs)
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *PostRepository) FindByID(ctx context.Context, id uuid.UUID) (*post.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, postSelect+` WHERE p.id = $1 AND p.deleted_at IS NULL`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errPostNotFound)
		}
		return nil, errFailedGetPost(err)
	}

	if err := r.loadFileIDs(ctx, []*post.Post{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostRepository) List(ctx context.Context, filter post.ListFilter) ([]*post.Post, int, error) {
	conds := []string{"p.deleted_at IS NULL"}
	var args []any

	if filter.AuthorID != nil {
		args = append(args, *filter.AuthorID)
		conds = append(conds, fmt.Sprintf("p.author_id = $%d", len(args)))
	}
	if email := strings.TrimSpace(filter.AuthorEmail); email != "" {
		args = append(args, strings.ToLower(email))
		conds = append(conds, fmt.Sprintf("u.email = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("p.status = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, containsPattern(s))
		conds = append(conds, fmt.Sprintf(`(p.title ILIKE $%d ESCAPE '\' OR p.content ILIKE $%d ESCAPE '\')`, len(args), len(args)))
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM posts p JOIN users u ON u.id = p.author_id` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errFailedCountPosts(err)
	}

	column, ok := postSortColumns[filter.Sort]
	if !ok {
		column = postSortColumns[post.SortCreatedAt]
	}
	direction := "DESC"
	if filter.Ascending {
		direction = "ASC"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	pageArgs := append(args, limit, filter.Offset)
	query := fmt.Sprintf(`%s%s ORDER BY %s %s, p.id LIMIT $%d OFFSET $%d`,
		postSelect, where, column, direction, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, errFailedListPosts(err)
	}
	defer rows.Close()

	var posts []*post.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, errFailedScanPost(err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errFailedListPosts(err)
	}

	if err := r.loadFileIDs(ctx, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// Update applies the non-nil fields. A non-nil FileIDs replaces the attachment
// list, validated against authorID.
func (r *PostRepository) Update(ctx context.Context, id, authorID uuid.UUID, input post.UpdatePostInput) (*post.Post, error) {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var status *string
		if input.Status != nil {
			s := string(*input.Status)
			status = &s
		}

		query := `
			UPDATE posts
			SET title = COALESCE($2, title),
				content = COALESCE($3, content),
				status = COALESCE($4, status),
				updated_at = NOW()
			WHERE id = $1 AND deleted_at IS NULL`
		result, err := tx.ExecContext(ctx, query, id, input.Title, input.Content, status)
		if err != nil {
			return errFailedUpdatePost(err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return errFailedUpdatePost(err)
		}
		if n == 0 {
			return apperrors.NotFound(errPostNotFound)
		}

		if input.FileIDs == nil {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM post_files WHERE post_id = $1`, id); err != nil {
			return errFailedAttachFiles(err)
		}
		return attachFiles(ctx, tx, id, authorID, *input.FileIDs)
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *PostRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE posts SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return errFailedDeletePost(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errFailedDeletePost(err)
	}
	if n == 0 {
		return apperrors.NotFound(errPostNotFound)
	}
	return nil
}

func attachFiles(ctx context.Context, q querier, postID, ownerID uuid.UUID, fileIDs []uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(fileIDs))
	position := 0
	for _, fileID := range fileIDs {
		if _, dup := seen[fileID]; dup {
			continue
		}
		seen[fileID] = struct{}{}

		var status string
		err := q.QueryRowContext(ctx,
			`SELECT status FROM files WHERE id = $1 AND uploader_id = $2 FOR SHARE`,
			fileID, ownerID,
		).Scan(&status)
		if err != nil {
			if isNoRows(err) {
				return apperrors.NotFound(errAttachFileNotFound)
			}
			return errFailedAttachFiles(err)
		}
		if file.UploadStatus(status) != file.StatusCompleted {
			return apperrors.Validation(errAttachFileNotReady)
		}

		if _, err := q.ExecContext(ctx,
			`INSERT INTO post_files (post_id, file_id, position) VALUES ($1, $2, $3)`,
			postID, fileID, position,
		); err != nil {
			return errFailedAttachFiles(err)
		}
		position++
	}
	return nil
}

// loadFileIDs fills FileIDs for all posts with a single query.
func (r *PostRepository) loadFileIDs(ctx context.Context, posts []*post.Post) error {
	if len(posts) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*post.Post, len(posts))
	placeholders := make([]string, 0, len(posts))
	args := make([]any, 0, len(posts))
	for _, p := range posts {
		p.FileIDs = []uuid.UUID{}
		byID[p.ID] = p
		args = append(args, p.ID)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := `SELECT post_id, file_id FROM post_files WHERE post_id IN (` +
		strings.Join(placeholders, ", ") + `) ORDER BY post_id, position`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return errFailedLoadPostFiles(err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID, fileID uuid.UUID
		if err := rows.Scan(&postID, &fileID); err != nil {
			return errFailedLoadPostFiles(err)
		}
		if p, ok := byID[postID]; ok {
			p.FileIDs = append(p.FileIDs, fileID)
		}
	}
	if err := rows.Err(); err != nil {
		return errFailedLoadPostFiles(err)
	}
	return nil
}
