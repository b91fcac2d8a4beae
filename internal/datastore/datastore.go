// Package datastore is the row-oriented storage layer: named tables whose
// first row is a header, addressed by 0-indexed row numbers.
package datastore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
)

var (
	ErrTableNotFound   = errors.New("table not found")
	ErrRowNotFound     = errors.New("row not found")
	ErrRowOutOfRange   = errors.New("row out of range")
	ErrSchemaMismatch  = errors.New("stored header does not match schema")
	ErrUnsupportedMode = errors.New("unsupported datastore driver")
)

// Gateway is the remote table API. Row numbers are 0-indexed and include the
// header, so data record i lives at row i+1.
type Gateway interface {
	EnsureTable(ctx context.Context, table string) error
	ListRows(ctx context.Context, table string) ([][]string, error)
	AppendRows(ctx context.Context, table string, rows [][]string) error
	// UpdateRange overwrites len(rows) consecutive rows starting at row.
	UpdateRange(ctx context.Context, table string, row int, rows [][]string) error
	// DeleteRow removes one row; later rows shift up by one.
	DeleteRow(ctx context.Context, table string, row int) error
}

// Batcher is implemented by gateways that can apply several mutations as one
// unit of work.
type Batcher interface {
	Apply(ctx context.Context, muts []Mutation) error
}

// Mutation is a set of staged changes against one table. Row numbers refer to
// the table as it was read, before any part of the mutation is applied.
// Updates are applied first, then deletes (highest row first), then appends.
type Mutation struct {
	Table   string
	Updates map[int][]string
	Deletes []int
	Appends [][]string
}

func (m Mutation) Empty() bool {
	return len(m.Updates) == 0 && len(m.Deletes) == 0 && len(m.Appends) == 0
}

// ApplyRows returns the rows that result from applying m to rows. The input
// is not modified.
func ApplyRows(rows [][]string, m Mutation) ([][]string, error) {
	out := make([][]string, len(rows))
	copy(out, rows)

	for _, idx := range sortedKeys(m.Updates) {
		if idx < 0 {
			return nil, fmt.Errorf("%w: update at %d", ErrRowOutOfRange, idx)
		}

		for len(out) <= idx {
			out = append(out, []string{})
		}

		out[idx] = slices.Clone(m.Updates[idx])
	}

	deletes := slices.Clone(m.Deletes)
	sort.Sort(sort.Reverse(sort.IntSlice(deletes)))
	deletes = slices.Compact(deletes)

	for _, idx := range deletes {
		if idx < 0 || idx >= len(out) {
			return nil, fmt.Errorf("%w: delete at %d of %d", ErrRowOutOfRange, idx, len(out))
		}

		out = slices.Delete(out, idx, idx+1)
	}

	for _, row := range m.Appends {
		out = append(out, slices.Clone(row))
	}

	return out, nil
}

// Commit applies muts. When gw implements Batcher all mutations land
// together or not at all. Otherwise they are applied one call at a time and a
// failure part way leaves the earlier calls in place; the returned error names
// the table being written when it happened.
func Commit(ctx context.Context, gw Gateway, muts ...Mutation) error {
	pending := make([]Mutation, 0, len(muts))
	for _, m := range muts {
		if !m.Empty() {
			pending = append(pending, m)
		}
	}

	if len(pending) == 0 {
		return nil
	}

	if b, ok := gw.(Batcher); ok {
		if err := b.Apply(ctx, pending); err != nil {
			return fmt.Errorf("applying batch: %w", err)
		}

		return nil
	}

	for _, m := range pending {
		if err := applySequential(ctx, gw, m); err != nil {
			return fmt.Errorf("applying mutation on %s: %w", m.Table, err)
		}
	}

	return nil
}

func applySequential(ctx context.Context, gw Gateway, m Mutation) error {
	for _, idx := range sortedKeys(m.Updates) {
		if err := gw.UpdateRange(ctx, m.Table, idx, [][]string{m.Updates[idx]}); err != nil {
			return err
		}
	}

	deletes := slices.Clone(m.Deletes)
	sort.Sort(sort.Reverse(sort.IntSlice(deletes)))

	for _, idx := range slices.Compact(deletes) {
		if err := gw.DeleteRow(ctx, m.Table, idx); err != nil {
			return err
		}
	}

	if len(m.Appends) > 0 {
		return gw.AppendRows(ctx, m.Table, m.Appends)
	}

	return nil
}

func sortedKeys(m map[int][]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Ints(keys)

	return keys
}
