package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/javajoker/rifas-backend/internal/config"
	"github.com/javajoker/rifas-backend/internal/lock"
	"github.com/javajoker/rifas-backend/internal/models"
	"github.com/javajoker/rifas-backend/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 2,
		},
		Raffle: config.RaffleConfig{
			KeepOrphanTickets:     true,
			SellerCodeLength:      6,
			SellerCodeMaxAttempts: 3,
			MaxTicketsPerRaffle:   1000,
		},
		Admin: config.AdminConfig{Emails: []string{"admin@rifa.com"}},
	}
}

// faultyStore wraps a store and fails Puts the hook rejects.
type faultyStore struct {
	store.Store

	mu      sync.Mutex
	failPut func(collection string, rec store.Record) error
}

func (f *faultyStore) Put(ctx context.Context, collection string, rec store.Record) (store.Record, error) {
	f.mu.Lock()
	hook := f.failPut
	f.mu.Unlock()
	if hook != nil {
		if err := hook(collection, rec); err != nil {
			return store.Record{}, err
		}
	}
	return f.Store.Put(ctx, collection, rec)
}

func (f *faultyStore) setFailPut(hook func(collection string, rec store.Record) error) {
	f.mu.Lock()
	f.failPut = hook
	f.mu.Unlock()
}

// failNthTicket fails the n-th ticket insert (1-based) with an unavailable store.
func failNthTicket(n int) func(string, store.Record) error {
	var mu sync.Mutex
	count := 0
	return func(collection string, _ store.Record) error {
		if collection != store.CollectionTickets {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		count++
		if count == n {
			return fmt.Errorf("put: %w: connection reset", store.ErrUnavailable)
		}
		return nil
	}
}

type testServices struct {
	store   *faultyStore
	locker  *lock.LocalLocker
	ledger  *TicketLedger
	sellers *SellerService
	raffles *RaffleService
	cfg     *config.Config
}

func newTestServices(cfg *config.Config, wait time.Duration) *testServices {
	st := &faultyStore{Store: store.NewMemoryStore()}
	locker := lock.NewLocalLocker(wait)
	ledger := NewTicketLedger(st)
	sellers := NewSellerService(st, locker, ledger, cfg)
	return &testServices{
		store:   st,
		locker:  locker,
		ledger:  ledger,
		sellers: sellers,
		raffles: NewRaffleService(st, locker, sellers, ledger, cfg),
		cfg:     cfg,
	}
}

func raffleRequest(total int) CreateRaffleRequest {
	return CreateRaffleRequest{
		Title:        "Rifa de prueba",
		TicketPrice:  decimal.NewFromInt(10),
		TotalTickets: total,
		Prizes: []models.Prize{
			{Name: "Primer premio", Position: 1},
			{Name: "Segundo premio", Position: 2},
		},
		DrawDate: models.NewDate(2027, time.January, 31),
	}
}

// sequenceGenerator returns the given codes in order, repeating the last one.
func sequenceGenerator(codes ...string) CodeGenerator {
	var mu sync.Mutex
	i := 0
	return func(int) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		code := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return code, nil
	}
}

func strPtr(s string) *string { return &s }
