// Package request decodes and validates JSON request bodies and query values.
package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/daterange"
	"github.com/MrJamesThe3rd/ledgerly/internal/validation"
)

const maxBody = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode reads a JSON body into v and checks its validate tags. A body that
// does not parse or fails a tag comes back as a validation error carrying
// invalid.
func Decode(r *http.Request, v any, invalid string) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))

	if err := dec.Decode(v); err != nil {
		return validation.New("Invalid request body")
	}

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return validation.New(invalid)
		}

		return err
	}

	return nil
}

// Date parses an optional YYYY-MM-DD value. Empty yields nil.
func Date(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, validation.New("Invalid date: " + s)
	}

	return &t, nil
}

// Period reads a date window from either a named preset or explicit
// startDate/endDate values. The preset wins when both are given; all_time and
// absent values leave the bounds open.
func Period(q url.Values, now time.Time) (start, end *time.Time, err error) {
	if p := q.Get("preset"); p != "" {
		rng, err := daterange.Resolve(daterange.Preset(p), now)
		if err != nil {
			return nil, nil, validation.New("Invalid date range preset: " + p)
		}

		if rng.IsZero() {
			return nil, nil, nil
		}

		return &rng.Start, &rng.End, nil
	}

	if start, err = Date(q.Get("startDate")); err != nil {
		return nil, nil, err
	}

	if end, err = Date(q.Get("endDate")); err != nil {
		return nil, nil, err
	}

	return start, end, nil
}

func Decimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, validation.New("Invalid amount: " + s)
	}

	return &d, nil
}

// List splits a comma separated value, dropping blanks.
func List(s string) []string {
	var out []string

	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

// Day is a calendar date in JSON. It accepts "YYYY-MM-DD" and full RFC 3339
// timestamps, keeping only the date, and encodes as "YYYY-MM-DD".
type Day struct {
	time.Time
}

func (d *Day) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}

	if t, err := time.Parse(time.DateOnly, s); err == nil {
		d.Time = t
		return nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}

	d.Time = clock.DateOf(t)

	return nil
}

func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}

	return []byte(`"` + d.Format(time.DateOnly) + `"`), nil
}

// Ptr returns nil for a nil Day and the wrapped time otherwise.
func (d *Day) Ptr() *time.Time {
	if d == nil {
		return nil
	}

	return &d.Time
}
