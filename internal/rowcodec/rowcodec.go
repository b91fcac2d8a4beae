// Package rowcodec maps typed entities to flat rows of strings and back.
//
// A Schema is the ordered list of fields for one table. Encoding writes values
// in schema order. Decoding is name based: it uses the header row actually
// stored in the table, so rows written before a field was appended to the
// schema still decode, with the new field empty.
package rowcodec

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DateLayout = time.DateOnly
	TimeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Schema describes one table. Version is bumped whenever Fields changes;
// new fields may only be appended.
type Schema struct {
	Table   string
	Version int
	Fields  []string
}

func (s Schema) Header() []string {
	return slices.Clone(s.Fields)
}

// Extends reports whether header is a prefix of the schema fields, i.e. the
// stored table predates some appended fields but is otherwise compatible.
func (s Schema) Extends(header []string) bool {
	if len(header) > len(s.Fields) {
		return false
	}

	for i, h := range header {
		if strings.TrimSpace(h) != s.Fields[i] {
			return false
		}
	}

	return true
}

// Record is one entity as a field name to scalar map.
type Record map[string]string

// Encode returns rec's values in schema order. Missing fields become "".
func (s Schema) Encode(rec Record) []string {
	row := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		row[i] = rec[f]
	}

	return row
}

// Decode maps row onto header. Positions past the end of row become "".
func Decode(header, row []string) Record {
	rec := make(Record, len(header))

	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			continue
		}

		if i < len(row) {
			rec[name] = row[i]
		} else {
			rec[name] = ""
		}
	}

	return rec
}

// Strings encodes a list as JSON text held in one cell.
func Strings(list []string) string {
	if list == nil {
		list = []string{}
	}

	b, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}

	return string(b)
}

// ParseStrings decodes a JSON list cell. Empty or malformed cells yield nil.
func ParseStrings(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil
	}

	if len(list) == 0 {
		return nil
	}

	return list
}

func Bool(b bool) string {
	if b {
		return "true"
	}

	return "false"
}

func ParseBool(s string) bool {
	return s == "true"
}

func Decimal(d decimal.Decimal) string {
	return d.String()
}

// ParseDecimal returns zero for empty or unparsable cells.
func ParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}

	return d
}

// Date formats a calendar date. The zero time encodes as "".
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(DateLayout)
}

// ParseDate accepts a plain date or a full RFC 3339 timestamp (whose date part
// is kept). Anything else yields the zero time.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	if t, err := time.Parse(DateLayout, s); err == nil {
		return t
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	return time.Time{}
}

func Time(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(TimeLayout)
}

func ParseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}

	return t
}
