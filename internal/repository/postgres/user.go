package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"board-service/internal/domain/user"
	apperrors "board-service/pkg/errors"
)

const userColumns = `id, email, name, password_hash, role, last_login_at, deleted_at, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row scanner) (*user.User, error) {
	var (
		u         user.User
		role      string
		lastLogin sql.NullTime
		deletedAt sql.NullTime
	)
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&role,
		&lastLogin,
		&deletedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Role = user.Role(role)
	u.LastLoginAt = nullTimePtr(lastLogin)
	u.DeletedAt = nullTimePtr(deletedAt)
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, input user.CreateUserInput) (*user.User, error) {
	query := `
		INSERT INTO users (email, name, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	u, err := scanUser(r.db.QueryRowContext(ctx, query, input.Email, input.Name, input.PasswordHash, string(input.Role)))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict(errEmailExists)
		}
		return nil, errFailedCreateUser(err)
	}

	return u, nil
}

func (r *UserRepository) FindActiveByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	return r.findOne(ctx, query, id)
}

func (r *UserRepository) FindActiveByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL`
	return r.findOne(ctx, query, email)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*user.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errUserNotFound)
		}
		return nil, errFailedGetUser(err)
	}
	return u, nil
}

// List returns one page of live users, newest first, along with the total count
// matching the filter.
func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]*user.User, int, error) {
	conds := []string{"deleted_at IS NULL"}
	var args []any

	if filter.Role != nil {
		args = append(args, string(*filter.Role))
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		args = append(args, containsPattern(kw))
		conds = append(conds, fmt.Sprintf(`(name ILIKE $%d ESCAPE '\' OR email ILIKE $%d ESCAPE '\')`, len(args), len(args)))
	}
	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, errFailedCountUsers(err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	pageArgs := append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, errFailedListUsers(err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, errFailedScanUser(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errIterateUsers(err)
	}

	return users, total, nil
}

func (r *UserRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) (*user.User, error) {
	query := `
		UPDATE users SET name = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + userColumns
	return r.updateReturning(ctx, query, id, name)
}

func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role user.Role) (*user.User, error) {
	query := `
		UPDATE users SET role = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + userColumns
	return r.updateReturning(ctx, query, id, string(role))
}

func (r *UserRepository) updateReturning(ctx context.Context, query string, id uuid.UUID, value any) (*user.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id, value))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NotFound(errUserNotFound)
		}
		return nil, errFailedUpdateUser(err)
	}
	return u, nil
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	return r.execAffectingOne(ctx, query, errFailedUpdateUser, id, hash)
}

// UpdateLastLogin leaves updated_at alone; a login is not an edit.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_login_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	return r.execAffectingOne(ctx, query, errFailedUpdateUser, id, at)
}

func (r *UserRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	return r.execAffectingOne(ctx, query, errFailedDeleteUser, id)
}

func (r *UserRepository) execAffectingOne(ctx context.Context, query string, wrap func(error) error, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return wrap(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return wrap(err)
	}
	if n == 0 {
		return apperrors.NotFound(errUserNotFound)
	}
	return nil
}
