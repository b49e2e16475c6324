package widgetstate

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE widget_states (
  instance_id TEXT PRIMARY KEY,
  document    BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestSaveAndGet(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	doc := []byte(`{"currentIndex":0,"remindItems":[]}`)
	require.NoError(t, r.Save(ctx, "w1", doc))

	got, err := r.Get(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, doc, got)
}

func TestGet_NotExists_ReturnsNilNil(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	got, err := r.Get(ctx, "absent")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSave_UpsertOverwritesDocument(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, "w1", []byte(`{"currentIndex":0}`)))
	require.NoError(t, r.Save(ctx, "w1", []byte(`{"currentIndex":2}`)))

	got, err := r.Get(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, []byte(`{"currentIndex":2}`), got)
}

func TestDelete_RemovesDocument_AndIsIdempotent(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, "w1", []byte(`{}`)))
	require.NoError(t, r.Delete(ctx, "w1"))

	got, err := r.Get(ctx, "w1")
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, r.Delete(ctx, "w1"))
}
