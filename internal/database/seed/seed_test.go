package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/rifas-backend/internal/config"
	"github.com/javajoker/rifas-backend/internal/lock"
	"github.com/javajoker/rifas-backend/internal/services"
	"github.com/javajoker/rifas-backend/internal/store"
)

func newRaffleService(st store.Store) *services.RaffleService {
	cfg := &config.Config{Raffle: config.RaffleConfig{
		KeepOrphanTickets:     true,
		SellerCodeLength:      6,
		SellerCodeMaxAttempts: 5,
		MaxTicketsPerRaffle:   1000,
	}}
	locker := lock.NewLocalLocker(time.Second)
	ledger := services.NewTicketLedger(st)
	sellers := services.NewSellerService(st, locker, ledger, cfg)
	return services.NewRaffleService(st, locker, sellers, ledger, cfg)
}

func TestSeedDemoData(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	raffles := newRaffleService(st)

	require.NoError(t, SeedDemoData(ctx, raffles))

	stats, err := raffles.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRaffles)
	assert.Equal(t, 2, stats.ActiveRaffleCount)
	assert.Equal(t, 0, stats.TotalTicketsSold)

	// Second run leaves the catalog alone
	require.NoError(t, SeedDemoData(ctx, raffles))
	stats, err = raffles.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRaffles)
}

func TestDemoRafflesDrawInFuture(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	for _, req := range DemoRaffles(now) {
		assert.True(t, req.DrawDate.After(now), req.Title)
		assert.NotEmpty(t, req.Prizes)
	}
}
