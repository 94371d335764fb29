package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterSeller(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(testConfig(), time.Second)

	seller, err := svc.sellers.RegisterSeller(ctx, "user-1", " Ana ", "ana@x.com")
	require.NoError(t, err)
	assert.Len(t, seller.Code, 6)
	assert.Equal(t, "Ana", seller.DisplayName)
	assert.Equal(t, "user-1", seller.OwnerUserID)

	found, err := svc.sellers.ValidateCode(ctx, seller.Code)
	require.NoError(t, err)
	assert.Equal(t, seller.Code, found.Code)

	byOwner, err := svc.sellers.GetSellerByOwner(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, seller.Code, byOwner.Code)
}

func TestRegisterSellerValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(testConfig(), time.Second)

	_, err := svc.sellers.RegisterSeller(ctx, "user-1", "", "ana@x.com")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "display_name", verr.Field)

	_, err = svc.sellers.RegisterSeller(ctx, "user-1", "Ana", "not-an-email")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "contact_email", verr.Field)
}

func TestRegisterSellerOncePerUser(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(testConfig(), time.Second)

	_, err := svc.sellers.RegisterSeller(ctx, "user-1", "Ana", "ana@x.com")
	require.NoError(t, err)

	_, err = svc.sellers.RegisterSeller(ctx, "user-1", "Ana", "ana@x.com")
	assert.ErrorIs(t, err, ErrSellerAlreadyRegistered)
}

func TestRegisterSellerConcurrentSameOwner(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(testConfig(), 5*time.Second)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.sellers.RegisterSeller(ctx, "user-1", "Ana", "ana@x.com")
		}(i)
	}
	wg.Wait()

	registered := 0
	for _, err := range errs {
		if err == nil {
			registered++
		} else {
			assert.ErrorIs(t, err, ErrSellerAlreadyRegistered)
		}
	}
	assert.Equal(t, 1, registered)
}

func TestRegisterSellerRetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(testConfig(), time.Second)
	svc.sellers.WithCodeGenerator(sequenceGenerator("AAAAAA"))

	first, err := svc.sellers.RegisterSeller(ctx, "user-1", "Ana", "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.Code)

	svc.sellers.WithCodeGenerator(sequenceGenerator("AAAAAA", "AAAAAA", "BBBBBB"))
	second, err := svc.sellers.RegisterSeller(ctx, "user-2", "Beto", "beto@x.com")
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", second.Code)

	// The first seller was not overwritten
	found, err := svc.sellers.ValidateCode(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "user-1", found.OwnerUserID)
}

func TestRegisterSellerCodeSpaceExhausted(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(testConfig(), time.Second)
	svc.sellers.WithCodeGenerator(sequenceGenerator("AAAAAA"))

	_, err := svc.sellers.RegisterSeller(ctx, "user-1", "Ana", "ana@x.com")
	require.NoError(t, err)

	calls := 0
	svc.sellers.WithCodeGenerator(func(int) (string, error) {
		calls++
		return "AAAAAA", nil
	})
	_, err = svc.sellers.RegisterSeller(ctx, "user-2", "Beto", "beto@x.com")
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
	assert.Equal(t, svc.cfg.Raffle.SellerCodeMaxAttempts, calls)

	_, err = svc.sellers.GetSellerByOwner(ctx, "user-2")
	assert.ErrorIs(t, err, ErrSellerNotFound)
}

func TestValidateCode(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(testConfig(), time.Second)
	svc.sellers.WithCodeGenerator(sequenceGenerator("XY12Z9"))

	_, err := svc.sellers.RegisterSeller(ctx, "user-1", "Ana", "ana@x.com")
	require.NoError(t, err)

	seller, err := svc.sellers.ValidateCode(ctx, " xy12z9 ")
	require.NoError(t, err)
	assert.Equal(t, "XY12Z9", seller.Code)

	for _, code := range []string{"", "XY12Z8", "no way", "../../etc"} {
		_, err := svc.sellers.ValidateCode(ctx, code)
		assert.ErrorIs(t, err, ErrSellerNotFound, code)
	}
}

func TestSellerStats(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(testConfig(), time.Second)
	svc.sellers.WithCodeGenerator(sequenceGenerator("SELL01"))

	_, err := svc.sellers.RegisterSeller(ctx, "user-1", "Ana", "ana@x.com")
	require.NoError(t, err)

	cheap, err := svc.raffles.CreateRaffle(ctx, raffleRequest(10))
	require.NoError(t, err)
	pricey := raffleRequest(10)
	pricey.TicketPrice = decimal.NewFromInt(25)
	gone, err := svc.raffles.CreateRaffle(ctx, pricey)
	require.NoError(t, err)

	reserve := func(raffleID, buyer string, code *string, numbers ...int) {
		_, err := svc.raffles.ReserveNumbers(ctx, ReservationRequest{
			RaffleID:      raffleID,
			Numbers:       numbers,
			BuyerIdentity: buyer,
			SellerCode:    code,
		})
		require.NoError(t, err)
	}
	reserve(cheap.ID, "a@x.com", strPtr("SELL01"), 1, 2)
	reserve(cheap.ID, "b@x.com", strPtr("sell01"), 3)
	reserve(cheap.ID, "c@x.com", nil, 4)
	reserve(gone.ID, "a@x.com", strPtr("SELL01"), 1)

	stats, err := svc.sellers.SellerStats(ctx, "SELL01")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TicketsSold)
	assert.Equal(t, 2, stats.UniqueBuyerCount)
	assert.True(t, decimal.NewFromInt(55).Equal(stats.TotalSalesAmount), stats.TotalSalesAmount.String())

	// Sales of a deleted raffle count as zero
	require.NoError(t, svc.raffles.DeleteRaffle(ctx, gone.ID))
	stats, err = svc.sellers.SellerStats(ctx, "SELL01")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TicketsSold)
	assert.True(t, decimal.NewFromInt(30).Equal(stats.TotalSalesAmount), stats.TotalSalesAmount.String())

	_, err = svc.sellers.SellerStats(ctx, "NOPE00")
	assert.ErrorIs(t, err, ErrSellerNotFound)
}
