package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crazy0629/Projitt-HR-Management-sub001/internal/db"
)

func openMem(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(context.Background(), db.DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestParseDriver(t *testing.T) {
	cases := map[string]db.Driver{
		"":         db.DriverSQLite,
		"sqlite3":  db.DriverSQLite,
		"Postgres": db.DriverPostgres,
		"pgx":      db.DriverPostgres,
	}
	for in, want := range cases {
		got, err := db.ParseDriver(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := db.ParseDriver("oracle")
	assert.Error(t, err)
}

func TestLockClause(t *testing.T) {
	assert.Equal(t, " FOR UPDATE", db.DriverPostgres.LockClause())
	assert.Equal(t, "", db.DriverSQLite.LockClause())
}

func TestLockPair_NoopOnSQLite(t *testing.T) {
	d := openMem(t)
	err := d.WithTx(context.Background(), func(tx *sql.Tx) error {
		return d.Driver.LockPair(context.Background(), tx, 1, 2)
	})
	assert.NoError(t, err)
}

func TestOpen_SchemaIsIdempotent(t *testing.T) {
	d := openMem(t)
	require.NoError(t, d.EnsureSchema(context.Background()))

	var n int
	err := d.SQL.QueryRow(`SELECT COUNT(*) FROM assignments`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	d := openMem(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := d.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO tests (title, created_at) VALUES ($1, $2)`, "rolled back", 1)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, d.SQL.QueryRow(`SELECT COUNT(*) FROM tests`).Scan(&n))
	assert.Equal(t, 0, n)

	err = d.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO tests (title, created_at) VALUES ($1, $2)`, "kept", 1)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, d.SQL.QueryRow(`SELECT COUNT(*) FROM tests`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestNullHelpers(t *testing.T) {
	assert.False(t, db.NullInt64(nil).Valid)
	id := int64(7)
	assert.Equal(t, &id, db.Int64Ptr(db.NullInt64(&id)))
	assert.Nil(t, db.TimePtr(sql.NullInt64{}))
	assert.Nil(t, db.Float64Ptr(sql.NullFloat64{}))
}
