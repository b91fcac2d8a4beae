package store

import (
	"context"
	"fmt"

	"github.com/MrJamesThe3rd/ledgerly/internal/categorize"
	"github.com/MrJamesThe3rd/ledgerly/internal/datastore"
	"github.com/MrJamesThe3rd/ledgerly/internal/rowcodec"
)

var Schema = rowcodec.Schema{
	Table:   "CategoryRules",
	Version: 1,
	Fields:  []string{"id", "pattern", "category", "createdAt", "createdBy"},
}

type Store struct {
	table *datastore.Table
}

func New(gw datastore.Gateway) *Store {
	return &Store{table: datastore.NewTable(gw, Schema)}
}

func (s *Store) Init(ctx context.Context) error {
	return s.table.Init(ctx)
}

func (s *Store) ListRules(ctx context.Context) ([]*categorize.Rule, error) {
	recs, err := s.table.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing category rules: %w", err)
	}

	out := make([]*categorize.Rule, len(recs))
	for i, r := range recs {
		out[i] = &categorize.Rule{
			ID:        r["id"],
			Pattern:   r["pattern"],
			Category:  r["category"],
			CreatedAt: rowcodec.ParseTime(r["createdAt"]),
			CreatedBy: r["createdBy"],
		}
	}

	return out, nil
}

func (s *Store) CreateRule(ctx context.Context, rule *categorize.Rule) error {
	err := s.table.Insert(ctx, rowcodec.Record{
		"id":        rule.ID,
		"pattern":   rule.Pattern,
		"category":  rule.Category,
		"createdAt": rowcodec.Time(rule.CreatedAt),
		"createdBy": rule.CreatedBy,
	})
	if err != nil {
		return fmt.Errorf("creating category rule: %w", err)
	}

	return nil
}
