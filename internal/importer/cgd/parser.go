package cgd

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/ledgerly/internal/importer/charset"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

const dateLayout = "02-01-2006"

var errNoLayout = errors.New("no matching CGD format found: expected columns for conta, extrato, or cartão")

// Parser reads Caixa Geral de Depósitos CSV exports. The export flavour
// (conta, extrato, cartão) is recognised from the header row, which may be
// preceded by any number of account summary lines.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse returns one CreateParams per movement row. RawDescription keeps the
// bank text as exported; Description is the same text with runs of padding
// collapsed. Category is left for the caller.
func (p *Parser) Parse(r io.Reader) ([]transaction.CreateParams, error) {
	utf8r, enc, err := charset.Decode(r)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	l, cols, header, ok := detect(rows)
	if !ok {
		return nil, errNoLayout
	}

	slog.Debug("parsing bank statement", "bank", "cgd", "layout", l.name, "encoding", enc)

	out := make([]transaction.CreateParams, 0, len(rows)-header-1)

	for i, cells := range rows[header+1:] {
		rec := record{cells: cells, cols: cols}

		date, ok := rec.date(l.date)
		if !ok {
			continue
		}

		raw := rec.get(l.desc)
		if raw == "" {
			return nil, fmt.Errorf("row %d: missing description", header+i+2)
		}

		amount, typ, ok := l.amount.read(rec)
		if !ok {
			continue
		}

		out = append(out, transaction.CreateParams{
			Type:           typ,
			Amount:         amount,
			Date:           date,
			Description:    strings.Join(strings.Fields(raw), " "),
			RawDescription: raw,
			PaymentMethod:  l.method,
		})
	}

	return out, nil
}

// detect finds the first row naming every column of some layout.
func detect(rows [][]string) (layout, map[string]int, int, bool) {
	for i, row := range rows {
		cols := make(map[string]int, len(row))

		for j, cell := range row {
			if name := strings.TrimSpace(cell); name != "" {
				cols[name] = j
			}
		}

		for _, l := range layouts {
			if hasAll(cols, l.required()) {
				return l, cols, i, true
			}
		}
	}

	return layout{}, nil, 0, false
}

func hasAll(cols map[string]int, names []string) bool {
	for _, n := range names {
		if _, ok := cols[n]; !ok {
			return false
		}
	}

	return true
}

// record is one data row addressed by header name.
type record struct {
	cells []string
	cols  map[string]int
}

func (r record) get(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.cells) {
		return ""
	}

	return strings.TrimSpace(r.cells[i])
}

func (r record) date(name string) (time.Time, bool) {
	s := r.get(name)
	if s == "" {
		return time.Time{}, false
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}
