// internal/services/raffle_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/rifas-backend/internal/config"
	"github.com/javajoker/rifas-backend/internal/lock"
	"github.com/javajoker/rifas-backend/internal/models"
	"github.com/javajoker/rifas-backend/internal/store"
	"github.com/javajoker/rifas-backend/internal/utils"
)

// RaffleService owns the raffle catalog and number inventory.
type RaffleService struct {
	store   store.Store
	locker  lock.Locker
	sellers *SellerService
	ledger  *TicketLedger
	cfg     *config.Config
	now     func() time.Time
}

type CreateRaffleRequest struct {
	Title        string          `json:"title" validate:"required,max=200"`
	Description  string          `json:"description" validate:"max=2000"`
	TicketPrice  decimal.Decimal `json:"ticket_price"`
	TotalTickets int             `json:"total_tickets" validate:"required,min=1"`
	Prizes       []models.Prize  `json:"prizes" validate:"required,min=1,unique_positions,dive"`
	DrawDate     models.Date     `json:"draw_date"`
	Image        string          `json:"image" validate:"omitempty,url"`
}

// UpdateRaffleRequest is a partial patch; nil fields stay unchanged.
type UpdateRaffleRequest struct {
	Title        *string              `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string              `json:"description" validate:"omitempty,max=2000"`
	TicketPrice  *decimal.Decimal     `json:"ticket_price"`
	TotalTickets *int                 `json:"total_tickets" validate:"omitempty,min=1"`
	Prizes       []models.Prize       `json:"prizes" validate:"omitempty,min=1,unique_positions,dive"`
	DrawDate     *models.Date         `json:"draw_date"`
	Image        *string              `json:"image" validate:"omitempty,url"`
	Status       *models.RaffleStatus `json:"status" validate:"omitempty,oneof=active closed"`
}

type ReservationRequest struct {
	RaffleID      string
	Numbers       []int
	BuyerIdentity string
	SellerCode    *string
}

type RaffleFilter struct {
	Status     *models.RaffleStatus
	Pagination utils.PaginationParams
}

type Stats struct {
	ActiveRaffleCount int             `json:"active_raffle_count"`
	TotalRaffles      int             `json:"total_raffles"`
	TotalTicketsSold  int             `json:"total_tickets_sold"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
}

func NewRaffleService(st store.Store, locker lock.Locker, sellers *SellerService, ledger *TicketLedger, cfg *config.Config) *RaffleService {
	return &RaffleService{
		store:   st,
		locker:  locker,
		sellers: sellers,
		ledger:  ledger,
		cfg:     cfg,
		now:     time.Now,
	}
}

func raffleLockKey(id string) string {
	return "raffle:" + id
}

func (s *RaffleService) CreateRaffle(ctx context.Context, req CreateRaffleRequest) (*models.Raffle, error) {
	// Validate request
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	if !req.TicketPrice.IsPositive() {
		return nil, newValidationError("ticket_price", "must be greater than zero")
	}
	if req.DrawDate.IsZero() {
		return nil, newValidationError("draw_date", "is required")
	}
	if limit := s.cfg.Raffle.MaxTicketsPerRaffle; limit > 0 && req.TotalTickets > limit {
		return nil, newValidationError("total_tickets", fmt.Sprintf("must be at most %d", limit))
	}

	now := s.now().UTC()
	raffle := &models.Raffle{
		ID:               uuid.NewString(),
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		TicketPrice:      req.TicketPrice,
		TotalTickets:     req.TotalTickets,
		SoldCount:        0,
		AvailableNumbers: numberRange(1, req.TotalTickets),
		Prizes:           sortedPrizes(req.Prizes),
		DrawDate:         req.DrawDate,
		Image:            req.Image,
		Status:           models.RaffleStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	rec, err := encodeRecord(raffle.ID, 0, raffleAttrs(raffle), raffle)
	if err != nil {
		return nil, err
	}
	saved, err := s.store.Put(ctx, store.CollectionRaffles, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to create raffle: %w", err)
	}
	raffle.Version = saved.Version

	logrus.WithFields(logrus.Fields{
		"raffle_id":     raffle.ID,
		"total_tickets": raffle.TotalTickets,
	}).Info("Raffle created")
	return raffle, nil
}

func (s *RaffleService) UpdateRaffle(ctx context.Context, id string, req UpdateRaffleRequest) (*models.Raffle, error) {
	// Validate request
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	if req.TicketPrice != nil && !req.TicketPrice.IsPositive() {
		return nil, newValidationError("ticket_price", "must be greater than zero")
	}
	if req.DrawDate != nil && req.DrawDate.IsZero() {
		return nil, newValidationError("draw_date", "is required")
	}

	unlock, err := acquire(ctx, s.locker, raffleLockKey(id))
	if err != nil {
		return nil, err
	}
	defer unlock()

	raffle, _, err := loadRaffle(ctx, s.store, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		raffle.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		raffle.Description = *req.Description
	}
	if req.TicketPrice != nil {
		raffle.TicketPrice = *req.TicketPrice
	}
	if req.Prizes != nil {
		raffle.Prizes = sortedPrizes(req.Prizes)
	}
	if req.DrawDate != nil {
		raffle.DrawDate = *req.DrawDate
	}
	if req.Image != nil {
		raffle.Image = *req.Image
	}
	if req.Status != nil {
		raffle.Status = *req.Status
	}
	if req.TotalTickets != nil && *req.TotalTickets != raffle.TotalTickets {
		if err := s.resize(raffle, *req.TotalTickets); err != nil {
			return nil, err
		}
	}
	raffle.UpdatedAt = s.now().UTC()

	if err := saveRaffle(ctx, s.store, raffle); err != nil {
		return nil, err
	}

	logrus.WithField("raffle_id", raffle.ID).Info("Raffle updated")
	return raffle, nil
}

// resize changes the number range. Growing appends fresh numbers; shrinking
// only drops unsold numbers and is rejected if any sold number would fall
// outside the new range.
func (s *RaffleService) resize(raffle *models.Raffle, total int) error {
	if limit := s.cfg.Raffle.MaxTicketsPerRaffle; limit > 0 && total > limit {
		return newValidationError("total_tickets", fmt.Sprintf("must be at most %d", limit))
	}

	old := raffle.TotalTickets
	if total > old {
		raffle.AvailableNumbers = append(raffle.AvailableNumbers, numberRange(old+1, total)...)
		raffle.TotalTickets = total
		return nil
	}

	floor := raffle.SoldCount
	if highest := highestSold(raffle); highest > floor {
		floor = highest
	}
	if total < floor {
		return newValidationError("total_tickets", fmt.Sprintf("cannot be less than %d, numbers up to it are sold", floor))
	}

	cut := sort.SearchInts(raffle.AvailableNumbers, total+1)
	raffle.AvailableNumbers = raffle.AvailableNumbers[:cut]
	raffle.TotalTickets = total
	return nil
}

// DeleteRaffle removes a raffle. Deleting an unknown id is a no-op.
func (s *RaffleService) DeleteRaffle(ctx context.Context, id string) error {
	unlock, err := acquire(ctx, s.locker, raffleLockKey(id))
	if err != nil {
		return err
	}
	defer unlock()

	if _, _, err := loadRaffle(ctx, s.store, id); err != nil {
		if errors.Is(err, ErrRaffleNotFound) {
			return nil
		}
		return err
	}

	if err := s.store.Delete(ctx, store.CollectionRaffles, id); err != nil {
		return fmt.Errorf("failed to delete raffle: %w", err)
	}

	fields := logrus.Fields{"raffle_id": id}
	if !s.cfg.Raffle.KeepOrphanTickets {
		purged, err := s.ledger.PurgeRaffle(ctx, id)
		if err != nil {
			return err
		}
		fields["purged_tickets"] = purged
	}

	logrus.WithFields(fields).Info("Raffle deleted")
	return nil
}

func (s *RaffleService) GetRaffle(ctx context.Context, id string) (*models.Raffle, error) {
	raffle, _, err := loadRaffle(ctx, s.store, id)
	return raffle, err
}

func (s *RaffleService) ListRaffles(ctx context.Context, filter RaffleFilter) ([]models.RaffleSummary, int64, error) {
	var attrs store.Filter
	if filter.Status != nil {
		attrs = store.Filter{"status": string(*filter.Status)}
	}

	raffles, err := s.listAll(ctx, attrs)
	if err != nil {
		return nil, 0, err
	}

	// Soonest draw first
	sort.Slice(raffles, func(i, j int) bool {
		if !raffles[i].DrawDate.Equal(raffles[j].DrawDate.Time) {
			return raffles[i].DrawDate.Before(raffles[j].DrawDate.Time)
		}
		return raffles[i].CreatedAt.Before(raffles[j].CreatedAt)
	})

	start, end := filter.Pagination.Bounds(len(raffles))
	summaries := make([]models.RaffleSummary, 0, end-start)
	for _, r := range raffles[start:end] {
		summaries = append(summaries, r.Summary())
	}
	return summaries, int64(len(raffles)), nil
}

func (s *RaffleService) AvailableNumbers(ctx context.Context, id string) ([]int, error) {
	raffle, err := s.GetRaffle(ctx, id)
	if err != nil {
		return nil, err
	}
	return raffle.AvailableNumbers, nil
}

// ReserveNumbers sells the requested numbers to the buyer, all of them or
// none. The availability check and the write happen under the raffle lock.
func (s *RaffleService) ReserveNumbers(ctx context.Context, req ReservationRequest) ([]models.Ticket, error) {
	if _, _, err := loadRaffle(ctx, s.store, req.RaffleID); err != nil {
		return nil, err
	}

	// Seller code is checked before anything is written
	var sellerCode *string
	if req.SellerCode != nil && strings.TrimSpace(*req.SellerCode) != "" {
		seller, err := s.sellers.ValidateCode(ctx, *req.SellerCode)
		if err != nil {
			if errors.Is(err, ErrSellerNotFound) {
				return nil, ErrInvalidSellerCode
			}
			return nil, err
		}
		sellerCode = &seller.Code
	}

	numbers := dedupeNumbers(req.Numbers)
	if len(numbers) == 0 {
		return nil, ErrEmptySelection
	}
	if strings.TrimSpace(req.BuyerIdentity) == "" {
		return nil, newValidationError("buyer_identity", "is required")
	}

	unlock, err := acquire(ctx, s.locker, raffleLockKey(req.RaffleID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	raffle, original, err := loadRaffle(ctx, s.store, req.RaffleID)
	if err != nil {
		return nil, err
	}
	if !raffle.IsActive() {
		return nil, ErrRaffleClosed
	}

	remaining, conflicts := takeNumbers(raffle.AvailableNumbers, numbers)
	if len(conflicts) > 0 {
		return nil, &UnavailableError{Numbers: conflicts}
	}

	now := s.now().UTC()
	raffle.AvailableNumbers = remaining
	raffle.SoldCount += len(numbers)
	raffle.UpdatedAt = now
	if err := saveRaffle(ctx, s.store, raffle); err != nil {
		return nil, err
	}

	tickets := make([]models.Ticket, len(numbers))
	for i, n := range numbers {
		tickets[i] = models.Ticket{
			ID:            uuid.NewString(),
			RaffleID:      raffle.ID,
			RaffleTitle:   raffle.Title,
			Number:        n,
			BuyerIdentity: req.BuyerIdentity,
			SellerCode:    sellerCode,
			PurchasedAt:   now,
			Status:        models.TicketStatusActive,
		}
	}

	if err := s.ledger.Append(ctx, tickets); err != nil {
		s.restore(ctx, raffle, original)
		return nil, err
	}

	entry := logrus.WithFields(logrus.Fields{
		"raffle_id": raffle.ID,
		"numbers":   numbers,
		"buyer":     req.BuyerIdentity,
	})
	if sellerCode != nil {
		entry = entry.WithField("seller_code", *sellerCode)
	}
	entry.Info("Numbers reserved")
	return tickets, nil
}

// restore writes back the raffle state read before a failed reservation.
func (s *RaffleService) restore(ctx context.Context, raffle *models.Raffle, original store.Record) {
	ctx = context.WithoutCancel(ctx)
	rec := store.Record{
		ID:      original.ID,
		Version: raffle.Version,
		Attrs:   original.Attrs,
		Data:    original.Data,
	}
	if _, err := s.store.Put(ctx, store.CollectionRaffles, rec); err != nil {
		logrus.WithError(err).WithField("raffle_id", raffle.ID).
			Error("Failed to restore raffle after ledger failure")
	}
}

func (s *RaffleService) GetStats(ctx context.Context) (*Stats, error) {
	raffles, err := s.listAll(ctx, nil)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalRaffles: len(raffles), TotalRevenue: decimal.Zero}
	for _, r := range raffles {
		if r.IsActive() {
			stats.ActiveRaffleCount++
		}
		stats.TotalTicketsSold += r.SoldCount
		stats.TotalRevenue = stats.TotalRevenue.Add(r.Revenue())
	}
	return stats, nil
}

func (s *RaffleService) listAll(ctx context.Context, filter store.Filter) ([]*models.Raffle, error) {
	recs, err := s.store.List(ctx, store.CollectionRaffles, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list raffles: %w", err)
	}
	raffles := make([]*models.Raffle, 0, len(recs))
	for _, rec := range recs {
		r, err := decodeRecord[models.Raffle](rec)
		if err != nil {
			return nil, err
		}
		r.Version = rec.Version
		raffles = append(raffles, r)
	}
	return raffles, nil
}

func numberRange(from, to int) []int {
	if to < from {
		return []int{}
	}
	out := make([]int, 0, to-from+1)
	for n := from; n <= to; n++ {
		out = append(out, n)
	}
	return out
}

// dedupeNumbers returns the distinct numbers in ascending order.
func dedupeNumbers(numbers []int) []int {
	seen := make(map[int]struct{}, len(numbers))
	out := make([]int, 0, len(numbers))
	for _, n := range numbers {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// takeNumbers removes wanted from the sorted available set. Numbers that are
// not available are returned as conflicts and nothing is removed.
func takeNumbers(available, wanted []int) (remaining, conflicts []int) {
	for _, n := range wanted {
		i := sort.SearchInts(available, n)
		if i == len(available) || available[i] != n {
			conflicts = append(conflicts, n)
		}
	}
	if len(conflicts) > 0 {
		return available, conflicts
	}

	take := make(map[int]struct{}, len(wanted))
	for _, n := range wanted {
		take[n] = struct{}{}
	}
	remaining = make([]int, 0, len(available)-len(wanted))
	for _, n := range available {
		if _, ok := take[n]; !ok {
			remaining = append(remaining, n)
		}
	}
	return remaining, nil
}

// highestSold returns the largest number not in the available set, or 0.
func highestSold(raffle *models.Raffle) int {
	avail := raffle.AvailableNumbers
	for n := raffle.TotalTickets; n >= 1; n-- {
		i := sort.SearchInts(avail, n)
		if i == len(avail) || avail[i] != n {
			return n
		}
	}
	return 0
}

func sortedPrizes(prizes []models.Prize) []models.Prize {
	out := make([]models.Prize, len(prizes))
	copy(out, prizes)
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
