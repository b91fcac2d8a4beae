package ids

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	PrefixTransaction = "txn_"
	PrefixClient      = "client_"
	PrefixInvoice     = "inv_"
	PrefixItem        = "item_"
	PrefixRule        = "rule_"
)

// New returns prefix followed by a lowercase ULID: a millisecond timestamp
// plus an 80-bit random suffix. Uniqueness is not checked against storage.
func New(prefix string) string {
	return NewAt(prefix, time.Now())
}

func NewAt(prefix string, t time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(t), rand.Reader)
	return prefix + strings.ToLower(id.String())
}

// Time extracts the creation instant encoded in an id produced by New.
func Time(id string) (time.Time, bool) {
	i := strings.LastIndexByte(id, '_')
	raw := id[i+1:]

	parsed, err := ulid.ParseStrict(strings.ToUpper(raw))
	if err != nil {
		return time.Time{}, false
	}

	return ulid.Time(parsed.Time()), true
}
