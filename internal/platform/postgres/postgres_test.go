package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"tramite/pkg/platform/sentinel"
)

func TestTranslate(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Translate(nil, "op"))
	})

	t.Run("no rows becomes not found", func(t *testing.T) {
		err := Translate(sql.ErrNoRows, "get flow")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
		assert.Contains(t, err.Error(), "get flow")
	})

	t.Run("unique violation becomes conflict", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "procedures_code_key"}
		err := Translate(fmt.Errorf("exec: %w", pgErr), "insert procedure")
		assert.ErrorIs(t, err, sentinel.ErrConflict)
		assert.True(t, IsUniqueViolation(err))
	})

	t.Run("other errors pass through", func(t *testing.T) {
		boom := errors.New("boom")
		err := Translate(boom, "op")
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, sentinel.ErrConflict)
	})
}

func TestMigrationsEmbedded(t *testing.T) {
	body, err := migrations.ReadFile("migrations/0001_init.sql")
	assert.NoError(t, err)
	assert.Contains(t, string(body), "procedure_flows")
}
