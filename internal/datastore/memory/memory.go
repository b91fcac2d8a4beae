// Package memory is an in-process Gateway used for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/MrJamesThe3rd/ledgerly/internal/datastore"
)

type Store struct {
	mu     sync.RWMutex
	tables map[string][][]string
}

func New() *Store {
	return &Store{tables: make(map[string][][]string)}
}

func (s *Store) EnsureTable(_ context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[table]; !ok {
		s.tables[table] = nil
	}

	return nil
}

func (s *Store) ListRows(_ context.Context, table string) ([][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", datastore.ErrTableNotFound, table)
	}

	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}

	return out, nil
}

func (s *Store) AppendRows(ctx context.Context, table string, rows [][]string) error {
	return s.Apply(ctx, []datastore.Mutation{{Table: table, Appends: rows}})
}

func (s *Store) UpdateRange(ctx context.Context, table string, row int, rows [][]string) error {
	updates := make(map[int][]string, len(rows))
	for i, r := range rows {
		updates[row+i] = r
	}

	return s.Apply(ctx, []datastore.Mutation{{Table: table, Updates: updates}})
}

func (s *Store) DeleteRow(ctx context.Context, table string, row int) error {
	return s.Apply(ctx, []datastore.Mutation{{Table: table, Deletes: []int{row}}})
}

// Apply stages every mutation against copies and swaps them in only if all
// succeed.
func (s *Store) Apply(_ context.Context, muts []datastore.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[string][][]string, len(muts))

	for _, m := range muts {
		current, ok := staged[m.Table]
		if !ok {
			current, ok = s.tables[m.Table]
			if !ok {
				return fmt.Errorf("%w: %s", datastore.ErrTableNotFound, m.Table)
			}
		}

		next, err := datastore.ApplyRows(current, m)
		if err != nil {
			return fmt.Errorf("table %s: %w", m.Table, err)
		}

		staged[m.Table] = next
	}

	for name, rows := range staged {
		s.tables[name] = rows
	}

	return nil
}
