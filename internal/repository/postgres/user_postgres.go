package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"stackapi/internal/apperr"
	"stackapi/internal/model"
	"stackapi/internal/repository"
	"stackapi/internal/resource"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

const userColumns = `id, email, full_name, is_active, is_superuser, password_hash, password_salt, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&u.IsActive,
		&u.IsSuperuser,
		&u.PasswordHash,
		&u.PasswordSalt,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

// Insert persists a new user row and returns the stored record. A duplicate
// email surfaces as a field validation error.
func (r *UserPostgres) Insert(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, email, full_name, is_active, is_superuser, password_hash, password_salt, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, q,
		u.ID,
		u.Email,
		u.FullName,
		u.IsActive,
		u.IsSuperuser,
		u.PasswordHash,
		u.PasswordSalt,
		u.CreatedAt,
	)
	out, err := scanUser(row)
	if isUniqueViolation(err) {
		return nil, apperr.Invalid("email", "a user with this email already exists")
	}
	return out, err
}

// FindByID fetches a single user by ID, returning (nil, nil) when absent.
func (r *UserPostgres) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// FindByEmail fetches a single user by email, returning (nil, nil) when absent.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// List returns users in creation order bounded by the window. The owner filter
// does not apply to users; it is accepted to satisfy the store contract.
func (r *UserPostgres) List(ctx context.Context, _ resource.Filter, pq resource.PageQuery) ([]model.User, error) {
	const q = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at ASC, id ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, q, pq.Limit, pq.Skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Count returns the total number of users.
func (r *UserPostgres) Count(ctx context.Context, _ resource.Filter) (int, error) {
	const q = `SELECT COUNT(*) FROM users`
	var total int
	err := r.db.QueryRowContext(ctx, q).Scan(&total)
	return total, err
}

// Update persists the full current state of an already-loaded user.
func (r *UserPostgres) Update(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		UPDATE users
		SET email = $2, full_name = $3, is_active = $4, is_superuser = $5, password_hash = $6, password_salt = $7
		WHERE id = $1
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, q,
		u.ID,
		u.Email,
		u.FullName,
		u.IsActive,
		u.IsSuperuser,
		u.PasswordHash,
		u.PasswordSalt,
	)
	out, err := scanUser(row)
	if isUniqueViolation(err) {
		return nil, apperr.Invalid("email", "a user with this email already exists")
	}
	return out, err
}

// Delete removes a user by ID. Owned items are removed by the schema's
// ON DELETE CASCADE in the same transaction. Deleting a missing row is
// not an error.
func (r *UserPostgres) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM users WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}
