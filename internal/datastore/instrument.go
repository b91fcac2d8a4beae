package datastore

import (
	"context"
	"time"
)

// Observer receives one call per gateway operation.
type Observer interface {
	ObserveDatastore(op, table string, started time.Time, err error)
}

// Instrument wraps gw so every call is reported to obs. Batch support of gw is
// preserved.
func Instrument(gw Gateway, obs Observer) Gateway {
	base := instrumented{next: gw, obs: obs}

	if b, ok := gw.(Batcher); ok {
		return &instrumentedBatcher{instrumented: base, batcher: b}
	}

	return &base
}

type instrumented struct {
	next Gateway
	obs  Observer
}

func (g *instrumented) EnsureTable(ctx context.Context, table string) error {
	started := time.Now()
	err := g.next.EnsureTable(ctx, table)
	g.obs.ObserveDatastore("ensure_table", table, started, err)

	return err
}

func (g *instrumented) ListRows(ctx context.Context, table string) ([][]string, error) {
	started := time.Now()
	rows, err := g.next.ListRows(ctx, table)
	g.obs.ObserveDatastore("list_rows", table, started, err)

	return rows, err
}

func (g *instrumented) AppendRows(ctx context.Context, table string, rows [][]string) error {
	started := time.Now()
	err := g.next.AppendRows(ctx, table, rows)
	g.obs.ObserveDatastore("append_rows", table, started, err)

	return err
}

func (g *instrumented) UpdateRange(ctx context.Context, table string, row int, rows [][]string) error {
	started := time.Now()
	err := g.next.UpdateRange(ctx, table, row, rows)
	g.obs.ObserveDatastore("update_range", table, started, err)

	return err
}

func (g *instrumented) DeleteRow(ctx context.Context, table string, row int) error {
	started := time.Now()
	err := g.next.DeleteRow(ctx, table, row)
	g.obs.ObserveDatastore("delete_row", table, started, err)

	return err
}

type instrumentedBatcher struct {
	instrumented
	batcher Batcher
}

func (g *instrumentedBatcher) Apply(ctx context.Context, muts []Mutation) error {
	started := time.Now()
	err := g.batcher.Apply(ctx, muts)

	table := "multi"
	if len(muts) == 1 {
		table = muts[0].Table
	}

	g.obs.ObserveDatastore("apply_batch", table, started, err)

	return err
}
