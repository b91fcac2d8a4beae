package events

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	e := Event{
		Type:       InvoicePaid,
		SubjectID:  "inv_01",
		Actor:      "owner@example.com",
		OccurredAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	body, err := encode(e)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(body)
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, e, got)
}

type failing struct{}

func (failing) Publish(context.Context, Event) error { return errors.New("queue down") }

func TestEmitSwallowsErrors(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit(context.Background(), failing{}, Event{Type: InvoiceSent})
		Emit(context.Background(), nil, Event{Type: InvoiceSent})
	})

	rec := &Recorder{}
	Emit(context.Background(), rec, Event{Type: InvoiceCreated, SubjectID: "inv_1"})
	require.Len(t, rec.Events, 1)
	assert.Equal(t, "inv_1", rec.Events[0].SubjectID)
}
