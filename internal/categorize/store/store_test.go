package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerly/internal/categorize"
	"github.com/MrJamesThe3rd/ledgerly/internal/categorize/store"
	"github.com/MrJamesThe3rd/ledgerly/internal/datastore/memory"
)

func TestStore_CreateAndList(t *testing.T) {
	ctx := context.Background()
	s := store.New(memory.New())
	require.NoError(t, s.Init(ctx))

	rules, err := s.ListRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)

	want := &categorize.Rule{
		ID:        "rule_1",
		Pattern:   "AWS EMEA",
		Category:  "Software & Subscriptions",
		CreatedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		CreatedBy: "owner@example.com",
	}
	require.NoError(t, s.CreateRule(ctx, want))

	rules, err = s.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, want, rules[0])
}
