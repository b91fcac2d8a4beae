// Package sheets stores tables as tabs of one Google spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/MrJamesThe3rd/ledgerly/internal/datastore"
)

const valueInputRaw = "RAW"

type Store struct {
	svc           *sheets.Service
	spreadsheetID string

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// New authenticates with a service-account JSON key file.
func New(ctx context.Context, spreadsheetID, credentialsFile string) (*Store, error) {
	key, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading sheets credentials: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, key, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parsing sheets credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithTokenSource(creds.TokenSource))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &Store{svc: svc, spreadsheetID: spreadsheetID, sheetIDs: make(map[string]int64)}, nil
}

func (s *Store) EnsureTable(ctx context.Context, table string) error {
	if _, err := s.sheetID(ctx, table); err == nil {
		return nil
	}

	resp, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: table}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("adding sheet %s: %w", table, err)
	}

	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil {
		s.mu.Lock()
		s.sheetIDs[table] = resp.Replies[0].AddSheet.Properties.SheetId
		s.mu.Unlock()
	}

	return nil
}

func (s *Store) ListRows(ctx context.Context, table string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quote(table)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, r := range resp.Values {
		row := make([]string, len(r))
		for j, c := range r {
			row[j] = fmt.Sprint(c)
		}

		rows[i] = row
	}

	return rows, nil
}

func (s *Store) AppendRows(ctx context.Context, table string, rows [][]string) error {
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, quote(table), valueRange(rows)).
		ValueInputOption(valueInputRaw).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("appending to %s: %w", table, err)
	}

	return nil
}

func (s *Store) UpdateRange(ctx context.Context, table string, row int, rows [][]string) error {
	rng := fmt.Sprintf("%s!A%d", quote(table), row+1)

	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, valueRange(rows)).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("updating %s: %w", rng, err)
	}

	return nil
}

func (s *Store) DeleteRow(ctx context.Context, table string, row int) error {
	id, err := s.sheetID(ctx, table)
	if err != nil {
		return err
	}

	return s.batchUpdate(ctx, []*sheets.Request{deleteRow(id, row)})
}

// Apply translates all mutations into a single spreadsheets.batchUpdate call,
// which the API applies atomically.
func (s *Store) Apply(ctx context.Context, muts []datastore.Mutation) error {
	var reqs []*sheets.Request

	for _, m := range muts {
		id, err := s.sheetID(ctx, m.Table)
		if err != nil {
			return err
		}

		reqs = append(reqs, mutationRequests(id, m)...)
	}

	return s.batchUpdate(ctx, reqs)
}

func mutationRequests(sheetID int64, m datastore.Mutation) []*sheets.Request {
	var reqs []*sheets.Request

	rows := make([]int, 0, len(m.Updates))
	for row := range m.Updates {
		rows = append(rows, row)
	}

	sort.Ints(rows)

	for _, row := range rows {
		values := m.Updates[row]
		reqs = append(reqs, &sheets.Request{
			UpdateCells: &sheets.UpdateCellsRequest{
				Start:  &sheets.GridCoordinate{SheetId: sheetID, RowIndex: int64(row)},
				Rows:   []*sheets.RowData{rowData(values)},
				Fields: "userEnteredValue",
			},
		})
	}

	deletes := slices.Clone(m.Deletes)
	sort.Sort(sort.Reverse(sort.IntSlice(deletes)))

	for _, row := range slices.Compact(deletes) {
		reqs = append(reqs, deleteRow(sheetID, row))
	}

	if len(m.Appends) > 0 {
		data := make([]*sheets.RowData, len(m.Appends))
		for i, r := range m.Appends {
			data[i] = rowData(r)
		}

		reqs = append(reqs, &sheets.Request{
			AppendCells: &sheets.AppendCellsRequest{SheetId: sheetID, Rows: data, Fields: "userEnteredValue"},
		})
	}

	return reqs
}

func (s *Store) batchUpdate(ctx context.Context, reqs []*sheets.Request) error {
	if len(reqs) == 0 {
		return nil
	}

	_, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: reqs,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch update: %w", err)
	}

	return nil
}

func (s *Store) sheetID(ctx context.Context, table string) (int64, error) {
	s.mu.Lock()
	id, ok := s.sheetIDs[table]
	s.mu.Unlock()

	if ok {
		return id, nil
	}

	resp, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("reading spreadsheet: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sh := range resp.Sheets {
		s.sheetIDs[sh.Properties.Title] = sh.Properties.SheetId
	}

	id, ok = s.sheetIDs[table]
	if !ok {
		return 0, fmt.Errorf("%w: %s", datastore.ErrTableNotFound, table)
	}

	return id, nil
}

func deleteRow(sheetID int64, row int) *sheets.Request {
	return &sheets.Request{
		DeleteDimension: &sheets.DeleteDimensionRequest{
			Range: &sheets.DimensionRange{
				SheetId:    sheetID,
				Dimension:  "ROWS",
				StartIndex: int64(row),
				EndIndex:   int64(row + 1),
			},
		},
	}
}

func rowData(values []string) *sheets.RowData {
	cells := make([]*sheets.CellData, len(values))
	for i, v := range values {
		cells[i] = &sheets.CellData{UserEnteredValue: &sheets.ExtendedValue{StringValue: &v}}
	}

	return &sheets.RowData{Values: cells}
}

func valueRange(rows [][]string) *sheets.ValueRange {
	values := make([][]interface{}, len(rows))
	for i, r := range rows {
		row := make([]interface{}, len(r))
		for j, c := range r {
			row[j] = c
		}

		values[i] = row
	}

	return &sheets.ValueRange{Values: values}
}

// quote wraps a sheet title for use in A1 notation.
func quote(table string) string {
	return "'" + strings.ReplaceAll(table, "'", "''") + "'"
}
