// Package daterange resolves named reporting periods into concrete,
// day-aligned UTC ranges.
package daterange

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Preset string

const (
	Today      Preset = "today"
	ThisWeek   Preset = "this_week"
	LastWeek   Preset = "last_week"
	ThisMonth  Preset = "this_month"
	LastMonth  Preset = "last_month"
	ThisYear   Preset = "this_year"
	Last30Days Preset = "last_30_days"
	AllTime    Preset = "all_time"
)

// Presets lists every preset in the order pickers show them.
var Presets = []Preset{Today, ThisWeek, LastWeek, ThisMonth, LastMonth, ThisYear, Last30Days, AllTime}

func (p Preset) Label() string {
	switch p {
	case Today:
		return "Today"
	case ThisWeek:
		return "This Week"
	case LastWeek:
		return "Last Week"
	case ThisMonth:
		return "This Month"
	case LastMonth:
		return "Last Month"
	case ThisYear:
		return "This Year"
	case Last30Days:
		return "Last 30 Days"
	case AllTime:
		return "All Time"
	}

	return "Unknown"
}

// Range is inclusive on both ends. A zero Range matches everything.
type Range struct {
	Start time.Time
	End   time.Time
}

func (r Range) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r Range) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}

	if !r.End.IsZero() && t.After(r.End) {
		return false
	}

	return true
}

// Previous returns the range of equal length that ends just before r starts.
func (r Range) Previous() Range {
	if r.IsZero() {
		return Range{}
	}

	days := int(r.End.Sub(r.Start).Hours()/24) + 1
	start := r.Start.AddDate(0, 0, -days)

	return Normalize(start, r.Start.AddDate(0, 0, -1))
}

// Normalize widens start and end to cover their whole UTC days.
func Normalize(start, end time.Time) Range {
	return Range{
		Start: time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		End:   time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.UTC),
	}
}

func Resolve(p Preset, now time.Time) (Range, error) {
	now = now.UTC()

	switch p {
	case Today:
		return Normalize(now, now), nil
	case ThisWeek:
		start := now.AddDate(0, 0, -weekOffset(now))
		return Normalize(start, now), nil
	case LastWeek:
		end := now.AddDate(0, 0, -weekOffset(now)-1)
		return Normalize(end.AddDate(0, 0, -6), end), nil
	case ThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Normalize(start, now), nil
	case LastMonth:
		start := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC)
		return Normalize(start, start.AddDate(0, 1, -1)), nil
	case ThisYear:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return Normalize(start, now), nil
	case Last30Days:
		return Normalize(now.AddDate(0, 0, -29), now), nil
	case AllTime:
		return Range{}, nil
	}

	return Range{}, fmt.Errorf("unknown date range preset %q", p)
}

// weekOffset is the number of days since Monday.
func weekOffset(t time.Time) int {
	offset := int(t.Weekday())
	if offset == 0 {
		offset = 7
	}

	return offset - 1
}

var hundred = decimal.NewFromInt(100)

// PercentChange is the change from prev to cur in percent, rounded to one
// decimal place.
func PercentChange(prev, cur decimal.Decimal) decimal.Decimal {
	if prev.IsZero() {
		if cur.IsZero() {
			return decimal.Zero
		}

		return hundred
	}

	return cur.Sub(prev).Div(prev.Abs()).Mul(hundred).Round(1)
}
