package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

// pgUniqueErr mimics the driver error produced by a violated unique index.
var pgUniqueErr = pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgUniqueErr))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(assert.AnError))
}
