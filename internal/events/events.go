// Package events publishes domain notifications (invoice created, paid, sent)
// to a queue for downstream consumers such as mailers.
package events

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

const (
	InvoiceCreated = "invoice.created"
	InvoicePaid    = "invoice.paid"
	InvoiceSent    = "invoice.sent"
)

type Event struct {
	Type       string    `json:"type"`
	SubjectID  string    `json:"subjectId"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory. Useful in tests.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

const azuriteKey = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="

type Queue struct {
	client *azqueue.QueueClient
}

// NewQueue connects to queueName under serviceURL, creating the queue if
// needed. Plain http URLs are treated as a local Azurite emulator.
func NewQueue(ctx context.Context, serviceURL, queueName string) (*Queue, error) {
	var (
		svc *azqueue.ServiceClient
		err error
	)

	if strings.HasPrefix(serviceURL, "http://") {
		cred, credErr := azqueue.NewSharedKeyCredential("devstoreaccount1", azuriteKey)
		if credErr != nil {
			return nil, fmt.Errorf("creating shared key credential: %w", credErr)
		}

		svc, err = azqueue.NewServiceClientWithSharedKeyCredential(serviceURL, cred, nil)
	} else {
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("creating azure credential: %w", credErr)
		}

		svc, err = azqueue.NewServiceClient(serviceURL, cred, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("creating queue service client: %w", err)
	}

	client := svc.NewQueueClient(queueName)

	if _, err := client.Create(ctx, nil); err != nil && !isAlreadyExists(err) {
		return nil, fmt.Errorf("creating queue %s: %w", queueName, err)
	}

	return &Queue{client: client}, nil
}

func (q *Queue) Publish(ctx context.Context, e Event) error {
	body, err := encode(e)
	if err != nil {
		return err
	}

	if _, err := q.client.EnqueueMessage(ctx, body, nil); err != nil {
		return fmt.Errorf("enqueueing %s: %w", e.Type, err)
	}

	return nil
}

// encode serialises e as base64 JSON, the format Azure Functions queue
// triggers expect.
func encode(e Event) (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshalling event: %w", err)
	}

	return base64.StdEncoding.EncodeToString(raw), nil
}

func isAlreadyExists(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists"
}

// Emit publishes e and logs instead of failing; notifications never block the
// write that produced them.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}

	if err := p.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "failed to publish event", "type", e.Type, "subject", e.SubjectID, "error", err)
	}
}
