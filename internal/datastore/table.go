package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/MrJamesThe3rd/ledgerly/internal/rowcodec"
)

const idField = "id"

// Table binds a Schema to a Gateway and hides row positions from callers:
// records are addressed by their id field and positions are recomputed from a
// fresh read on every write.
type Table struct {
	gw     Gateway
	schema rowcodec.Schema
}

func NewTable(gw Gateway, schema rowcodec.Schema) *Table {
	return &Table{gw: gw, schema: schema}
}

func (t *Table) Name() string {
	return t.schema.Table
}

func (t *Table) Gateway() Gateway {
	return t.gw
}

// Init creates the table and writes the header row if missing. A stored header
// that is a prefix of the schema is extended in place. Safe to call repeatedly.
func (t *Table) Init(ctx context.Context) error {
	name := t.schema.Table

	if err := t.gw.EnsureTable(ctx, name); err != nil {
		return fmt.Errorf("ensuring table %s: %w", name, err)
	}

	rows, err := t.gw.ListRows(ctx, name)
	if err != nil {
		return fmt.Errorf("reading table %s: %w", name, err)
	}

	if len(rows) == 0 {
		if err := t.gw.AppendRows(ctx, name, [][]string{t.schema.Header()}); err != nil {
			return fmt.Errorf("writing header for %s: %w", name, err)
		}

		return nil
	}

	header := trimAll(rows[0])

	switch {
	case slices.Equal(header, t.schema.Fields):
		return nil
	case t.schema.Extends(header):
		slog.Info("extending table header", "table", name, "from_fields", len(header), "version", t.schema.Version)

		if err := t.gw.UpdateRange(ctx, name, 0, [][]string{t.schema.Header()}); err != nil {
			return fmt.Errorf("extending header for %s: %w", name, err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrSchemaMismatch, name)
	}
}

// Snapshot reads the whole table once.
func (t *Table) Snapshot(ctx context.Context) (*Snapshot, error) {
	rows, err := t.gw.ListRows(ctx, t.schema.Table)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", t.schema.Table, err)
	}

	snap := &Snapshot{table: t.schema.Table, schema: t.schema}
	if len(rows) == 0 {
		return snap, nil
	}

	snap.header = trimAll(rows[0])
	snap.Records = make([]rowcodec.Record, 0, len(rows)-1)

	for _, row := range rows[1:] {
		snap.Records = append(snap.Records, rowcodec.Decode(snap.header, row))
	}

	return snap, nil
}

// All returns every record with a non-empty id. A header-only table yields an
// empty slice.
func (t *Table) All(ctx context.Context) ([]rowcodec.Record, error) {
	snap, err := t.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	recs := make([]rowcodec.Record, 0, len(snap.Records))
	for _, r := range snap.Records {
		if r[idField] != "" {
			recs = append(recs, r)
		}
	}

	return recs, nil
}

func (t *Table) Find(ctx context.Context, id string) (rowcodec.Record, error) {
	snap, err := t.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	rec, ok := snap.Find(id)
	if !ok {
		return nil, ErrRowNotFound
	}

	return rec, nil
}

func (t *Table) Insert(ctx context.Context, recs ...rowcodec.Record) error {
	if len(recs) == 0 {
		return nil
	}

	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = t.schema.Encode(r)
	}

	if err := t.gw.AppendRows(ctx, t.schema.Table, rows); err != nil {
		return fmt.Errorf("appending to %s: %w", t.schema.Table, err)
	}

	return nil
}

// Appends stages recs for a later Commit without reading the table.
func (t *Table) Appends(recs ...rowcodec.Record) Mutation {
	m := Mutation{Table: t.schema.Table}
	for _, r := range recs {
		m.Appends = append(m.Appends, t.schema.Encode(r))
	}

	return m
}

// Replace overwrites the record with the same id.
func (t *Table) Replace(ctx context.Context, rec rowcodec.Record) error {
	snap, err := t.Snapshot(ctx)
	if err != nil {
		return err
	}

	st := snap.Stage()
	if err := st.Put(rec); err != nil {
		return err
	}

	return Commit(ctx, t.gw, st.Mutation())
}

func (t *Table) Remove(ctx context.Context, id string) error {
	snap, err := t.Snapshot(ctx)
	if err != nil {
		return err
	}

	st := snap.Stage()
	if err := st.Drop(id); err != nil {
		return err
	}

	return Commit(ctx, t.gw, st.Mutation())
}

// Snapshot is one read of a table. Records[i] is stored at row i+1.
type Snapshot struct {
	table   string
	schema  rowcodec.Schema
	header  []string
	Records []rowcodec.Record
}

func (s *Snapshot) Index(id string) int {
	if id == "" {
		return -1
	}

	return slices.IndexFunc(s.Records, func(r rowcodec.Record) bool {
		return r[idField] == id
	})
}

func (s *Snapshot) Find(id string) (rowcodec.Record, bool) {
	i := s.Index(id)
	if i < 0 {
		return nil, false
	}

	return s.Records[i], true
}

// Where returns the records whose field equals value.
func (s *Snapshot) Where(field, value string) []rowcodec.Record {
	var out []rowcodec.Record

	for _, r := range s.Records {
		if r[idField] != "" && r[field] == value {
			out = append(out, r)
		}
	}

	return out
}

func (s *Snapshot) Stage() *Stage {
	return &Stage{snap: s, m: Mutation{Table: s.table}}
}

// Stage accumulates changes against a Snapshot without touching storage.
type Stage struct {
	snap *Snapshot
	m    Mutation
}

// Put replaces the stored record sharing rec's id.
func (st *Stage) Put(rec rowcodec.Record) error {
	i := st.snap.Index(rec[idField])
	if i < 0 {
		return ErrRowNotFound
	}

	if st.m.Updates == nil {
		st.m.Updates = make(map[int][]string)
	}

	st.m.Updates[i+1] = st.snap.schema.Encode(rec)

	return nil
}

func (st *Stage) Add(recs ...rowcodec.Record) {
	for _, r := range recs {
		st.m.Appends = append(st.m.Appends, st.snap.schema.Encode(r))
	}
}

func (st *Stage) Drop(id string) error {
	i := st.snap.Index(id)
	if i < 0 {
		return ErrRowNotFound
	}

	st.m.Deletes = append(st.m.Deletes, i+1)

	return nil
}

// DropWhere stages deletion of every record whose field equals value and
// returns how many were staged.
func (st *Stage) DropWhere(field, value string) int {
	n := 0

	for i, r := range st.snap.Records {
		if r[idField] != "" && r[field] == value {
			st.m.Deletes = append(st.m.Deletes, i+1)
			n++
		}
	}

	return n
}

func (st *Stage) Mutation() Mutation {
	return st.m
}

func trimAll(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}

	return out
}
