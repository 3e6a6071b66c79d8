package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"board-service/internal/domain/file"
	apperrors "board-service/pkg/errors"
)

const fileColumns = `id, original_name, stored_name, s3_key, s3_bucket, upload_id, size_bytes, content_type, status, uploader_id, created_at, updated_at`

type FileRepository struct {
	db *sql.DB
}

func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

func scanFile(row scanner) (*file.File, error) {
	var (
		f      file.File
		status string
	)
	if err := row.Scan(
		&f.ID, &f.OriginalName, &f.StoredName, &f.S3Key, &f.S3Bucket, &f.UploadID,
		&f.SizeBytes, &f.ContentType, &status, &f.UploaderID, &f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	f.Status = file.UploadStatus(status)
	return &f, nil
}

// Create records a new upload in UPLOADING state.
func (r *FileRepository) Create(ctx context.Context, input file.CreateFileInput) (*file.File, error) {
	query := `
		INSERT INTO files (original_name, stored_name, s3_key, s3_bucket, upload_id, size_bytes, content_type, status, uploader_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + fileColumns

	f, err := scanFile(r.db.QueryRowContext(ctx, query,
		input.OriginalName, input.StoredName, input.S3Key, input.S3Bucket, input.UploadID,
		input.SizeBytes, input.ContentType, string(file.StatusUploading), input.UploaderID,
	))
	if err != nil {
		return nil, errFailedCreateFile(err)
	}
	return f, nil
}

func (r *FileRepository) FindByID(ctx context.Context, id uuid.UUID) (*file.File, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errFileNotFound)
		}
		return nil, errFailedGetFile(err)
	}
	return f, nil
}

func (r *FileRepository) ListByUploader(ctx context.Context, uploaderID uuid.UUID, limit, offset int) ([]*file.File, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files WHERE uploader_id = $1`, uploaderID).Scan(&total); err != nil {
		return nil, 0, errFailedCountFiles(err)
	}

	if limit <= 0 {
		limit = defaultListLimit
	}
	query := `SELECT ` + fileColumns + ` FROM files WHERE uploader_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, uploaderID, limit, offset)
	if err != nil {
		return nil, 0, errFailedListFiles(err)
	}
	defer rows.Close()

	var files []*file.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, 0, errFailedScanFile(err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errFailedListFiles(err)
	}
	return files, total, nil
}

// Transition moves an upload from one status to another. It fails with CONFLICT
// when the row is not currently in the from state.
func (r *FileRepository) Transition(ctx context.Context, id uuid.UUID, from, to file.UploadStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE files SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, string(from), string(to),
	)
	if err != nil {
		return errFailedUpdateFile(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errFailedUpdateFile(err)
	}
	if n == 0 {
		return apperrors.Conflict(errUploadNotInFlight)
	}
	return nil
}

// VisibleThroughPost reports whether the file is attached to a live post the
// viewer can read: a published post, or one the viewer wrote.
func (r *FileRepository) VisibleThroughPost(ctx context.Context, fileID, viewerID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM post_files pf
			JOIN posts p ON p.id = pf.post_id
			WHERE pf.file_id = $1
				AND p.deleted_at IS NULL
				AND (p.status = 'PUBLISHED' OR p.author_id = $2)
		)`
	var visible bool
	if err := r.db.QueryRowContext(ctx, query, fileID, viewerID).Scan(&visible); err != nil {
		return false, errFailedCheckVisibility(err)
	}
	return visible, nil
}
