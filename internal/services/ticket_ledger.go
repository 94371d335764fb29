// internal/services/ticket_ledger.go
package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/rifas-backend/internal/models"
	"github.com/javajoker/rifas-backend/internal/store"
)

// TicketLedger is the append-only collection of issued tickets.
type TicketLedger struct {
	store store.Store
}

func NewTicketLedger(st store.Store) *TicketLedger {
	return &TicketLedger{store: st}
}

func ticketAttrs(t *models.Ticket) map[string]string {
	attrs := map[string]string{
		"raffle_id": t.RaffleID,
		"buyer":     t.BuyerIdentity,
	}
	if t.SellerCode != nil {
		attrs["seller_code"] = *t.SellerCode
	}
	return attrs
}

// Append inserts every ticket or none. Tickets already written when a later
// insert fails are removed again.
func (l *TicketLedger) Append(ctx context.Context, tickets []models.Ticket) error {
	inserted := make([]string, 0, len(tickets))
	for i := range tickets {
		t := &tickets[i]
		rec, err := encodeRecord(t.ID, 0, ticketAttrs(t), t)
		if err == nil {
			_, err = l.store.Put(ctx, store.CollectionTickets, rec)
		}
		if err != nil {
			l.rollback(ctx, inserted)
			return fmt.Errorf("failed to record ticket %d: %w", t.Number, err)
		}
		inserted = append(inserted, t.ID)
	}
	return nil
}

func (l *TicketLedger) rollback(ctx context.Context, ids []string) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range ids {
		if err := l.store.Delete(ctx, store.CollectionTickets, id); err != nil {
			logrus.WithError(err).WithField("ticket_id", id).Error("Failed to roll back ticket")
		}
	}
}

func (l *TicketLedger) ByRaffle(ctx context.Context, raffleID string) ([]models.Ticket, error) {
	return l.list(ctx, store.Filter{"raffle_id": raffleID})
}

func (l *TicketLedger) ByBuyer(ctx context.Context, buyer string) ([]models.Ticket, error) {
	return l.list(ctx, store.Filter{"buyer": buyer})
}

func (l *TicketLedger) BySeller(ctx context.Context, code string) ([]models.Ticket, error) {
	return l.list(ctx, store.Filter{"seller_code": code})
}

// PurgeRaffle deletes every ticket of a raffle and returns how many went.
func (l *TicketLedger) PurgeRaffle(ctx context.Context, raffleID string) (int, error) {
	tickets, err := l.ByRaffle(ctx, raffleID)
	if err != nil {
		return 0, err
	}
	for _, t := range tickets {
		if err := l.store.Delete(ctx, store.CollectionTickets, t.ID); err != nil {
			return 0, fmt.Errorf("failed to delete ticket %s: %w", t.ID, err)
		}
	}
	return len(tickets), nil
}

func (l *TicketLedger) list(ctx context.Context, filter store.Filter) ([]models.Ticket, error) {
	recs, err := l.store.List(ctx, store.CollectionTickets, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}

	tickets := make([]models.Ticket, 0, len(recs))
	for _, rec := range recs {
		t, err := decodeRecord[models.Ticket](rec)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}

	sort.Slice(tickets, func(i, j int) bool {
		if !tickets[i].PurchasedAt.Equal(tickets[j].PurchasedAt) {
			return tickets[i].PurchasedAt.Before(tickets[j].PurchasedAt)
		}
		if tickets[i].RaffleID != tickets[j].RaffleID {
			return tickets[i].RaffleID < tickets[j].RaffleID
		}
		return tickets[i].Number < tickets[j].Number
	})
	return tickets, nil
}
