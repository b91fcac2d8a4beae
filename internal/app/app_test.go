package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerly/internal/app"
	"github.com/MrJamesThe3rd/ledgerly/internal/clock"
	"github.com/MrJamesThe3rd/ledgerly/internal/config"
	"github.com/MrJamesThe3rd/ledgerly/internal/identity"
	"github.com/MrJamesThe3rd/ledgerly/internal/metrics"
	"github.com/MrJamesThe3rd/ledgerly/internal/transaction"
)

func TestNew(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	t.Run("Memory", func(t *testing.T) {
		var cfg config.Config
		cfg.Datastore.Driver = "memory"

		a, err := app.New(ctx, &cfg, clk, metrics.New())
		require.NoError(t, err)
		t.Cleanup(a.Close)

		actor := identity.Identity{Email: "owner@example.com"}

		created, err := a.Transactions.Create(ctx, actor, transaction.CreateParams{
			Type:        transaction.TypeIncome,
			Amount:      decimal.NewFromInt(100),
			Date:        clock.Today(clk),
			Category:    "Sales",
			Description: "Consulting",
		})
		require.NoError(t, err)

		got, err := a.Transactions.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Consulting", got.Description)
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		var cfg config.Config
		cfg.Datastore.Driver = "floppy"

		_, err := app.New(ctx, &cfg, clk, nil)
		assert.ErrorContains(t, err, "unknown datastore driver")
	})

	t.Run("BadRedisURL", func(t *testing.T) {
		var cfg config.Config
		cfg.Redis.URL = "not a url"

		_, err := app.New(ctx, &cfg, clk, nil)
		assert.ErrorContains(t, err, "parsing redis url")
	})
}
