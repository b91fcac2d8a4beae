// Package aztable stores each table in its own Azure Storage table. Row
// positions are kept dense in the RowKey so positional operations from the
// datastore contract map onto keyed entities.
package aztable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/MrJamesThe3rd/ledgerly/internal/datastore"
)

const (
	partitionKey = "rows"
	batchSize    = 100

	// Azurite development account.
	azuriteAccountName = "devstoreaccount1"
	azuriteAccountKey  = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
)

type Store struct {
	svc *aztables.ServiceClient
}

type entity struct {
	PartitionKey string
	RowKey       string
	Cells        string `json:",omitempty"`
}

// New connects with the Azurite shared key for http:// URLs and with the
// default Azure credential chain otherwise.
func New(serviceURL string) (*Store, error) {
	var (
		svc *aztables.ServiceClient
		err error
	)

	if strings.HasPrefix(serviceURL, "http://") {
		slog.Info("using Azurite credentials for table storage")

		cred, credErr := aztables.NewSharedKeyCredential(azuriteAccountName, azuriteAccountKey)
		if credErr != nil {
			return nil, fmt.Errorf("creating shared key credential: %w", credErr)
		}

		svc, err = aztables.NewServiceClientWithSharedKey(serviceURL, cred, nil)
	} else {
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("creating default azure credential: %w", credErr)
		}

		svc, err = aztables.NewServiceClient(serviceURL, cred, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("creating table service client: %w", err)
	}

	return &Store{svc: svc}, nil
}

func (s *Store) EnsureTable(ctx context.Context, table string) error {
	_, err := s.svc.CreateTable(ctx, table, nil)
	if err != nil {
		var azErr *azcore.ResponseError
		if errors.As(err, &azErr) && azErr.ErrorCode == "TableAlreadyExists" {
			return nil
		}

		return fmt.Errorf("creating table %s: %w", table, err)
	}

	return nil
}

func (s *Store) ListRows(ctx context.Context, table string) ([][]string, error) {
	filter := fmt.Sprintf("PartitionKey eq '%s'", partitionKey)
	pager := s.svc.NewClient(table).NewListEntitiesPager(&aztables.ListEntitiesOptions{
		Filter: &filter,
	})

	var entities []entity

	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			var azErr *azcore.ResponseError
			if errors.As(err, &azErr) && azErr.ErrorCode == "TableNotFound" {
				return nil, fmt.Errorf("%w: %s", datastore.ErrTableNotFound, table)
			}

			return nil, fmt.Errorf("listing %s: %w", table, err)
		}

		for _, raw := range resp.Entities {
			var e entity
			if err := json.Unmarshal(raw, &e); err != nil {
				return nil, fmt.Errorf("decoding %s entity: %w", table, err)
			}

			entities = append(entities, e)
		}
	}

	sort.Slice(entities, func(i, j int) bool { return entities[i].RowKey < entities[j].RowKey })

	rows := make([][]string, len(entities))
	for i, e := range entities {
		if err := json.Unmarshal([]byte(e.Cells), &rows[i]); err != nil {
			return nil, fmt.Errorf("decoding %s row %s: %w", table, e.RowKey, err)
		}
	}

	return rows, nil
}

func (s *Store) AppendRows(ctx context.Context, table string, rows [][]string) error {
	return s.apply(ctx, datastore.Mutation{Table: table, Appends: rows})
}

func (s *Store) UpdateRange(ctx context.Context, table string, row int, rows [][]string) error {
	updates := make(map[int][]string, len(rows))
	for i, r := range rows {
		updates[row+i] = r
	}

	return s.apply(ctx, datastore.Mutation{Table: table, Updates: updates})
}

func (s *Store) DeleteRow(ctx context.Context, table string, row int) error {
	return s.apply(ctx, datastore.Mutation{Table: table, Deletes: []int{row}})
}

// Apply writes each mutation as entity transactions of up to 100 actions.
// Azure only guarantees atomicity per transaction, so a table touched by more
// than 100 changed rows, or a batch spanning several tables, can be left
// partially applied.
func (s *Store) Apply(ctx context.Context, muts []datastore.Mutation) error {
	for _, m := range muts {
		if err := s.apply(ctx, m); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) apply(ctx context.Context, m datastore.Mutation) error {
	current, err := s.ListRows(ctx, m.Table)
	if err != nil {
		return err
	}

	next, err := datastore.ApplyRows(current, m)
	if err != nil {
		return fmt.Errorf("table %s: %w", m.Table, err)
	}

	actions, err := diff(current, next)
	if err != nil {
		return fmt.Errorf("table %s: %w", m.Table, err)
	}

	client := s.svc.NewClient(m.Table)

	for i := 0; i < len(actions); i += batchSize {
		end := min(i+batchSize, len(actions))

		if _, err := client.SubmitTransaction(ctx, actions[i:end], nil); err != nil {
			return fmt.Errorf("submitting %s batch %d-%d: %w", m.Table, i, end, err)
		}
	}

	return nil
}

// diff returns the entity actions that turn current into next.
func diff(current, next [][]string) ([]aztables.TransactionAction, error) {
	var actions []aztables.TransactionAction

	for i, row := range next {
		if i < len(current) && slices.Equal(current[i], row) {
			continue
		}

		cells, err := json.Marshal(row)
		if err != nil {
			return nil, err
		}

		body, err := json.Marshal(entity{PartitionKey: partitionKey, RowKey: rowKey(i), Cells: string(cells)})
		if err != nil {
			return nil, err
		}

		actions = append(actions, aztables.TransactionAction{
			ActionType: aztables.TransactionTypeInsertReplace,
			Entity:     body,
		})
	}

	for i := len(next); i < len(current); i++ {
		body, err := json.Marshal(entity{PartitionKey: partitionKey, RowKey: rowKey(i)})
		if err != nil {
			return nil, err
		}

		actions = append(actions, aztables.TransactionAction{
			ActionType: aztables.TransactionTypeDelete,
			Entity:     body,
		})
	}

	return actions, nil
}

func rowKey(i int) string {
	return fmt.Sprintf("%010d", i)
}
