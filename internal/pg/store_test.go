package pg

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erdgen/internal/snapshot"
)

func newMockStore(t *testing.T) (*SnapshotStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSnapshotStore(db), mock
}

func TestSnapshotStore_EnsureSchema(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("create table if not exists erd_snapshots (")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("create index if not exists erd_snapshots_created_at_idx")).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotStore_SaveGet(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	snap := &snapshot.Snapshot{Title: "shop", Diagram: "erDiagram\n"}
	mock.ExpectExec(regexp.QuoteMeta("insert into erd_snapshots")).
		WithArgs(sqlmock.AnyArg(), "shop", "erDiagram\n", "[]", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Save(ctx, snap))
	require.Len(t, snap.ID, 26)

	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("select id, title, diagram, entities, created_at from erd_snapshots where id = $1")).
		WithArgs(snap.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "diagram", "entities", "created_at"}).
			AddRow(snap.ID, "shop", "erDiagram\n", []byte(`["CART","ORDER"]`), created))
	got, err := store.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"CART", "ORDER"}, got.Entities)
	assert.Equal(t, created, got.CreatedAt)

	mock.ExpectQuery("select id, title").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "diagram", "entities", "created_at"}))
	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, snapshot.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotStore_List(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`select count(*) from erd_snapshots where title ilike $1 escape '\'`)).
		WithArgs("%shop%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("order by title asc, id asc limit 2 offset $2")).
		WithArgs("%shop%", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "diagram", "entities", "created_at"}).
			AddRow("01A", "shop a", "erDiagram\n", []byte(`[]`), time.Now()).
			AddRow("01B", "shop b", "erDiagram\n", []byte(`["X"]`), time.Now()))

	items, total, err := store.List(context.Background(), snapshot.ListParams{
		Limit: 2, Offset: 1, Q: "shop", Sort: []snapshot.SortKey{{Field: "title"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "shop b", items[1].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotStore_Delete(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("delete from erd_snapshots where id = $1")).WithArgs("a").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("delete from erd_snapshots where id = $1")).WithArgs("b").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Delete(context.Background(), "a"))
	assert.ErrorIs(t, store.Delete(context.Background(), "b"), snapshot.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotStore_ListEscapesPattern(t *testing.T) {
	store, mock := newMockStore(t)

	// % и _ ищутся буквально, как в MemoryRepo
	mock.ExpectQuery(regexp.QuoteMeta(`where title ilike $1 escape '\'`)).
		WithArgs(`%50\%\_off\\%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`where title ilike $1 escape '\' order by`)).
		WithArgs(`%50\%\_off\\%`, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "diagram", "entities", "created_at"}))

	items, total, err := store.List(context.Background(), snapshot.ListParams{Q: `50%_off\`})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}
