package ids_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerly/internal/ids"
)

func TestNew(t *testing.T) {
	a := ids.New(ids.PrefixTransaction)
	b := ids.New(ids.PrefixTransaction)

	assert.True(t, strings.HasPrefix(a, "txn_"))
	assert.Len(t, a, len("txn_")+26)
	assert.NotEqual(t, a, b)
	assert.Equal(t, strings.ToLower(a), a)
}

func TestTime(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	id := ids.NewAt(ids.PrefixInvoice, at)

	got, ok := ids.Time(id)
	require.True(t, ok)
	assert.True(t, at.Equal(got))

	_, ok = ids.Time("inv_not-a-ulid")
	assert.False(t, ok)
}
