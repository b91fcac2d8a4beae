package datastore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerly/internal/datastore"
	"github.com/MrJamesThe3rd/ledgerly/internal/datastore/memory"
	"github.com/MrJamesThe3rd/ledgerly/internal/rowcodec"
)

var widgets = rowcodec.Schema{
	Table:   "Widgets",
	Version: 1,
	Fields:  []string{"id", "name", "owner"},
}

func rec(id, name, owner string) rowcodec.Record {
	return rowcodec.Record{"id": id, "name": name, "owner": owner}
}

func newTable(t *testing.T) (*datastore.Table, *memory.Store) {
	t.Helper()

	store := memory.New()
	tbl := datastore.NewTable(store, widgets)
	require.NoError(t, tbl.Init(context.Background()))

	return tbl, store
}

func TestTable_Init(t *testing.T) {
	ctx := context.Background()
	tbl, store := newTable(t)

	require.NoError(t, tbl.Init(ctx))

	rows, err := store.ListRows(ctx, "Widgets")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"id", "name", "owner"}}, rows)

	all, err := tbl.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTable_InitExtendsHeader(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.EnsureTable(ctx, "Widgets"))
	require.NoError(t, store.AppendRows(ctx, "Widgets", [][]string{{"id", "name"}, {"w1", "Bolt"}}))

	tbl := datastore.NewTable(store, widgets)
	require.NoError(t, tbl.Init(ctx))

	got, err := tbl.Find(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, rec("w1", "Bolt", ""), got)
}

func TestTable_InitRejectsForeignHeader(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.EnsureTable(ctx, "Widgets"))
	require.NoError(t, store.AppendRows(ctx, "Widgets", [][]string{{"name", "id"}}))

	err := datastore.NewTable(store, widgets).Init(ctx)
	assert.ErrorIs(t, err, datastore.ErrSchemaMismatch)
}

func TestTable_CRUD(t *testing.T) {
	ctx := context.Background()
	tbl, _ := newTable(t)

	require.NoError(t, tbl.Insert(ctx, rec("w1", "Bolt", "a"), rec("w2", "Nut", "b"), rec("w3", "Gear", "a")))

	require.NoError(t, tbl.Replace(ctx, rec("w2", "Washer", "b")))
	require.NoError(t, tbl.Remove(ctx, "w1"))

	all, err := tbl.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []rowcodec.Record{rec("w2", "Washer", "b"), rec("w3", "Gear", "a")}, all)

	assert.ErrorIs(t, tbl.Replace(ctx, rec("missing", "x", "y")), datastore.ErrRowNotFound)
	assert.ErrorIs(t, tbl.Remove(ctx, "w1"), datastore.ErrRowNotFound)

	_, err = tbl.Find(ctx, "w1")
	assert.ErrorIs(t, err, datastore.ErrRowNotFound)
}

func TestStage_MultiTableCommit(t *testing.T) {
	ctx := context.Background()
	tbl, store := newTable(t)

	parts := datastore.NewTable(store, rowcodec.Schema{Table: "Parts", Fields: []string{"id", "widgetId"}})
	require.NoError(t, parts.Init(ctx))

	require.NoError(t, tbl.Insert(ctx, rec("w1", "Bolt", "a")))
	require.NoError(t, parts.Insert(ctx,
		rowcodec.Record{"id": "p1", "widgetId": "w1"},
		rowcodec.Record{"id": "p2", "widgetId": "w9"},
		rowcodec.Record{"id": "p3", "widgetId": "w1"},
	))

	wSnap, err := tbl.Snapshot(ctx)
	require.NoError(t, err)
	pSnap, err := parts.Snapshot(ctx)
	require.NoError(t, err)

	ws := wSnap.Stage()
	require.NoError(t, ws.Put(rec("w1", "Bolt v2", "a")))

	ps := pSnap.Stage()
	assert.Equal(t, 2, ps.DropWhere("widgetId", "w1"))
	ps.Add(rowcodec.Record{"id": "p4", "widgetId": "w1"})

	require.NoError(t, datastore.Commit(ctx, store, ws.Mutation(), ps.Mutation()))

	got, err := parts.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []rowcodec.Record{
		{"id": "p2", "widgetId": "w9"},
		{"id": "p4", "widgetId": "w1"},
	}, got)
}

// sequential hides the Batcher of the wrapped store and fails appends on demand.
type sequential struct {
	datastore.Gateway
	failAppend bool
}

func (s *sequential) AppendRows(ctx context.Context, table string, rows [][]string) error {
	if s.failAppend {
		return errors.New("quota exceeded")
	}

	return s.Gateway.AppendRows(ctx, table, rows)
}

func TestCommit_SequentialPartialFailure(t *testing.T) {
	ctx := context.Background()
	tbl, store := newTable(t)
	require.NoError(t, tbl.Insert(ctx, rec("w1", "Bolt", "a"), rec("w2", "Nut", "a")))

	snap, err := tbl.Snapshot(ctx)
	require.NoError(t, err)

	st := snap.Stage()
	st.DropWhere("owner", "a")
	st.Add(rec("w3", "Gear", "a"))

	gw := &sequential{Gateway: store, failAppend: true}
	err = datastore.Commit(ctx, gw, st.Mutation())
	require.Error(t, err)

	// Deletes already went through; the append did not.
	all, err := tbl.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCommit_BatchIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	tbl, store := newTable(t)
	require.NoError(t, tbl.Insert(ctx, rec("w1", "Bolt", "a")))

	err := datastore.Commit(ctx, store,
		datastore.Mutation{Table: "Widgets", Deletes: []int{1}},
		datastore.Mutation{Table: "Missing", Appends: [][]string{{"x"}}},
	)
	require.ErrorIs(t, err, datastore.ErrTableNotFound)

	all, err := tbl.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestApplyRows(t *testing.T) {
	rows := [][]string{{"h"}, {"a"}, {"b"}, {"c"}}

	got, err := datastore.ApplyRows(rows, datastore.Mutation{
		Updates: map[int][]string{2: {"B"}},
		Deletes: []int{1, 3, 3},
		Appends: [][]string{{"d"}},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"h"}, {"B"}, {"d"}}, got)
	assert.Equal(t, [][]string{{"h"}, {"a"}, {"b"}, {"c"}}, rows)

	_, err = datastore.ApplyRows(rows, datastore.Mutation{Deletes: []int{9}})
	assert.ErrorIs(t, err, datastore.ErrRowOutOfRange)
}
