// internal/services/records.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/javajoker/rifas-backend/internal/lock"
	"github.com/javajoker/rifas-backend/internal/models"
	"github.com/javajoker/rifas-backend/internal/store"
)

func decodeRecord[T any](rec store.Record) (*T, error) {
	var v T
	if err := json.Unmarshal(rec.Data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode record %s: %w", rec.ID, err)
	}
	return &v, nil
}

func encodeRecord(id string, version int64, attrs map[string]string, v interface{}) (store.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return store.Record{}, fmt.Errorf("failed to encode record %s: %w", id, err)
	}
	return store.Record{ID: id, Version: version, Attrs: attrs, Data: data}, nil
}

func raffleAttrs(r *models.Raffle) map[string]string {
	return map[string]string{"status": string(r.Status)}
}

// loadRaffle reads a raffle together with its raw record.
func loadRaffle(ctx context.Context, st store.Store, id string) (*models.Raffle, store.Record, error) {
	rec, err := st.Get(ctx, store.CollectionRaffles, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, store.Record{}, ErrRaffleNotFound
		}
		return nil, store.Record{}, fmt.Errorf("failed to load raffle: %w", err)
	}
	raffle, err := decodeRecord[models.Raffle](rec)
	if err != nil {
		return nil, store.Record{}, err
	}
	raffle.Version = rec.Version
	return raffle, rec, nil
}

// saveRaffle writes the raffle guarded by its version. A lost race reports
// ErrBusy.
func saveRaffle(ctx context.Context, st store.Store, raffle *models.Raffle) error {
	rec, err := encodeRecord(raffle.ID, raffle.Version, raffleAttrs(raffle), raffle)
	if err != nil {
		return err
	}
	saved, err := st.Put(ctx, store.CollectionRaffles, rec)
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return ErrBusy
		}
		if errors.Is(err, store.ErrNotFound) {
			return ErrRaffleNotFound
		}
		return fmt.Errorf("failed to save raffle: %w", err)
	}
	raffle.Version = saved.Version
	return nil
}

// acquire takes a keyed lock and maps its failures onto service errors.
func acquire(ctx context.Context, locker lock.Locker, key string) (func(), error) {
	unlock, err := locker.Lock(ctx, key)
	if err == nil {
		return unlock, nil
	}
	switch {
	case errors.Is(err, lock.ErrLockTimeout):
		return nil, ErrBusy
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
}
