// Package postgres keeps spreadsheet-shaped tables in a single Postgres
// relation keyed by (table, position).
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"slices"

	"github.com/MrJamesThe3rd/ledgerly/internal/datastore"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) EnsureTable(ctx context.Context, table string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sheet_tables (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, table)
	if err != nil {
		return fmt.Errorf("ensuring table %s: %w", table, err)
	}

	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) ListRows(ctx context.Context, table string) ([][]string, error) {
	return listRows(ctx, s.db, table)
}

func listRows(ctx context.Context, q querier, table string) ([][]string, error) {
	var name string

	err := q.QueryRowContext(ctx, `SELECT name FROM sheet_tables WHERE name = $1`, table).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", datastore.ErrTableNotFound, table)
		}

		return nil, fmt.Errorf("looking up table %s: %w", table, err)
	}

	rs, err := q.QueryContext(ctx, `SELECT cells FROM sheet_rows WHERE tbl = $1 ORDER BY pos`, table)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", table, err)
	}
	defer rs.Close()

	var rows [][]string

	for rs.Next() {
		var raw []byte
		if err := rs.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}

		var row []string
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, fmt.Errorf("decoding %s row: %w", table, err)
		}

		rows = append(rows, row)
	}

	return rows, rs.Err()
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

// Apply runs every mutation inside one SQL transaction. Each touched table is
// guarded by an advisory lock so positions read here cannot shift under a
// concurrent writer.
func (s *Store) Apply(ctx context.Context, muts []datastore.Mutation) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	tables := make([]string, 0, len(muts))
	for _, m := range muts {
		tables = append(tables, m.Table)
	}

	slices.Sort(tables)

	for _, t := range slices.Compact(tables) {
		if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", tableLockKey(t)); err != nil {
			return fmt.Errorf("locking %s: %w", t, err)
		}
	}

	for _, m := range muts {
		if err := applyMutation(ctx, dbTx, m); err != nil {
			return err
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	return nil
}

func applyMutation(ctx context.Context, tx *sql.Tx, m datastore.Mutation) error {
	current, err := listRows(ctx, tx, m.Table)
	if err != nil {
		return err
	}

	next, err := datastore.ApplyRows(current, m)
	if err != nil {
		return fmt.Errorf("table %s: %w", m.Table, err)
	}

	for i, row := range next {
		if i < len(current) && slices.Equal(current[i], row) {
			continue
		}

		cells, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encoding %s row: %w", m.Table, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sheet_rows (tbl, pos, cells)
			VALUES ($1, $2, $3)
			ON CONFLICT (tbl, pos) DO UPDATE SET cells = EXCLUDED.cells
		`, m.Table, i, cells)
		if err != nil {
			return fmt.Errorf("writing %s row %d: %w", m.Table, i, err)
		}
	}

	if len(next) < len(current) {
		_, err := tx.ExecContext(ctx, `DELETE FROM sheet_rows WHERE tbl = $1 AND pos >= $2`, m.Table, len(next))
		if err != nil {
			return fmt.Errorf("truncating %s: %w", m.Table, err)
		}
	}

	return nil
}

func tableLockKey(table string) int64 {
	h := fnv.New64a()
	h.Write([]byte("sheet_rows"))
	h.Write([]byte{0})
	h.Write([]byte(table))

	return int64(h.Sum64())
}
