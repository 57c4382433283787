package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackapi/internal/apperr"
	"stackapi/internal/model"
	"stackapi/internal/resource"
)

var userCols = []string{"id", "email", "full_name", "is_active", "is_superuser", "password_hash", "password_salt", "created_at"}

func userRow(u *model.User) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow(u.ID, u.Email, u.FullName, u.IsActive, u.IsSuperuser, u.PasswordHash, u.PasswordSalt, u.CreatedAt)
}

func testUser() *model.User {
	return &model.User{
		ID:           uuid.New(),
		Email:        "alice@example.com",
		FullName:     "Alice",
		IsActive:     true,
		PasswordHash: []byte("hash"),
		PasswordSalt: []byte("salt"),
		CreatedAt:    time.Now().UTC(),
	}
}

func TestUserPostgres_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()
	u := testUser()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(u.ID, u.Email, u.FullName, u.IsActive, u.IsSuperuser, u.PasswordHash, u.PasswordSalt, u.CreatedAt).
		WillReturnRows(userRow(u))

	stored, err := repo.Insert(ctx, u)

	assert.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, u.Email, stored.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()
	u := testUser()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ?").
			WithArgs(u.ID).
			WillReturnRows(userRow(u))

		got, err := repo.FindByID(ctx, u.ID)

		assert.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("absent yields nil without error", func(t *testing.T) {
		missing := uuid.New()
		mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ?").
			WithArgs(missing).
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByID(ctx, missing)

		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestUserPostgres_FindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()
	u := testUser()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").
		WithArgs(u.Email).
		WillReturnRows(userRow(u))

	got, err := repo.FindByEmail(ctx, u.Email)

	assert.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.Email, got.Email)
}

func TestUserPostgres_ListAndCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()
	u := testUser()

	mock.ExpectQuery("SELECT (.+) FROM users ORDER BY").
		WithArgs(10, 0).
		WillReturnRows(userRow(u))

	users, err := repo.List(ctx, resource.Filter{}, resource.PageQuery{Skip: 0, Limit: 10})
	assert.NoError(t, err)
	assert.Len(t, users, 1)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.Count(ctx, resource.Filter{})
	assert.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestUserPostgres_UpdateDuplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()
	u := testUser()

	mock.ExpectQuery("UPDATE users").
		WithArgs(u.ID, u.Email, u.FullName, u.IsActive, u.IsSuperuser, u.PasswordHash, u.PasswordSalt).
		WillReturnError(&pgUniqueErr)

	_, err = repo.Update(ctx, u)

	verr, ok := apperr.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "email", verr.Fields[0].Field)
}

func TestUserPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()
	id := uuid.New()

	t.Run("existing row", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM users WHERE id = ?").
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, id))
	})

	t.Run("missing row is a no-op", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM users WHERE id = ?").
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.Delete(ctx, id))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
