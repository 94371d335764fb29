// internal/services/seller_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/rifas-backend/internal/config"
	"github.com/javajoker/rifas-backend/internal/lock"
	"github.com/javajoker/rifas-backend/internal/models"
	"github.com/javajoker/rifas-backend/internal/store"
	"github.com/javajoker/rifas-backend/internal/utils"
)

// CodeGenerator produces candidate seller codes of the given length.
type CodeGenerator func(length int) (string, error)

type SellerService struct {
	store        store.Store
	locker       lock.Locker
	ledger       *TicketLedger
	cfg          *config.Config
	generateCode CodeGenerator
	now          func() time.Time
}

type RegisterSellerRequest struct {
	OwnerUserID  string `json:"-" validate:"required"`
	DisplayName  string `json:"display_name" validate:"required,max=100"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
}

type SellerStats struct {
	Code             string          `json:"code"`
	TicketsSold      int             `json:"tickets_sold"`
	UniqueBuyerCount int             `json:"unique_buyer_count"`
	TotalSalesAmount decimal.Decimal `json:"total_sales_amount"`
}

func NewSellerService(st store.Store, locker lock.Locker, ledger *TicketLedger, cfg *config.Config) *SellerService {
	return &SellerService{
		store:        st,
		locker:       locker,
		ledger:       ledger,
		cfg:          cfg,
		generateCode: utils.GenerateSellerCode,
		now:          time.Now,
	}
}

// WithCodeGenerator replaces the random code source.
func (s *SellerService) WithCodeGenerator(gen CodeGenerator) *SellerService {
	s.generateCode = gen
	return s
}

// RegisterSeller issues a fresh code for the user. Codes are inserted
// create-only, so a collision never overwrites an existing seller; the
// generator is retried up to the configured number of attempts.
func (s *SellerService) RegisterSeller(ctx context.Context, ownerUserID, displayName, contactEmail string) (*models.Seller, error) {
	req := RegisterSellerRequest{
		OwnerUserID:  ownerUserID,
		DisplayName:  strings.TrimSpace(displayName),
		ContactEmail: strings.TrimSpace(contactEmail),
	}
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	// One seller per user
	unlock, err := acquire(ctx, s.locker, "seller-owner:"+ownerUserID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := s.GetSellerByOwner(ctx, ownerUserID); err == nil {
		return nil, ErrSellerAlreadyRegistered
	} else if !errors.Is(err, ErrSellerNotFound) {
		return nil, err
	}

	for attempt := 1; attempt <= s.cfg.Raffle.SellerCodeMaxAttempts; attempt++ {
		code, err := s.generateCode(s.cfg.Raffle.SellerCodeLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate seller code: %w", err)
		}

		seller := &models.Seller{
			Code:         code,
			OwnerUserID:  ownerUserID,
			DisplayName:  req.DisplayName,
			ContactEmail: req.ContactEmail,
			RegisteredAt: s.now().UTC(),
		}
		rec, err := encodeRecord(code, 0, map[string]string{"owner_user_id": ownerUserID}, seller)
		if err != nil {
			return nil, err
		}

		_, err = s.store.Put(ctx, store.CollectionSellers, rec)
		if err == nil {
			logrus.WithFields(logrus.Fields{
				"seller_code": code,
				"owner":       ownerUserID,
				"attempt":     attempt,
			}).Info("Seller registered")
			return seller, nil
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			return nil, fmt.Errorf("failed to save seller: %w", err)
		}

		logrus.WithField("attempt", attempt).Debug("Seller code collision, regenerating")
	}

	return nil, ErrCodeSpaceExhausted
}

// ValidateCode looks a seller up by code. Codes are case-insensitive.
func (s *SellerService) ValidateCode(ctx context.Context, code string) (*models.Seller, error) {
	code = NormalizeSellerCode(code)
	if !utils.IsSellerCode(code) {
		return nil, ErrSellerNotFound
	}

	rec, err := s.store.Get(ctx, store.CollectionSellers, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSellerNotFound
		}
		return nil, fmt.Errorf("failed to load seller: %w", err)
	}
	return decodeRecord[models.Seller](rec)
}

func (s *SellerService) GetSellerByOwner(ctx context.Context, userID string) (*models.Seller, error) {
	recs, err := s.store.List(ctx, store.CollectionSellers, store.Filter{"owner_user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list sellers: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrSellerNotFound
	}
	return decodeRecord[models.Seller](recs[0])
}

// SellerStats derives sales figures from the ledger. Tickets of a raffle that
// no longer exists count with a price of zero.
func (s *SellerService) SellerStats(ctx context.Context, code string) (*SellerStats, error) {
	seller, err := s.ValidateCode(ctx, code)
	if err != nil {
		return nil, err
	}

	tickets, err := s.ledger.BySeller(ctx, seller.Code)
	if err != nil {
		return nil, err
	}

	buyers := make(map[string]struct{})
	prices := make(map[string]decimal.Decimal)
	total := decimal.Zero
	for _, t := range tickets {
		buyers[t.BuyerIdentity] = struct{}{}

		price, ok := prices[t.RaffleID]
		if !ok {
			raffle, _, err := loadRaffle(ctx, s.store, t.RaffleID)
			switch {
			case err == nil:
				price = raffle.TicketPrice
			case errors.Is(err, ErrRaffleNotFound):
				price = decimal.Zero
			default:
				return nil, err
			}
			prices[t.RaffleID] = price
		}
		total = total.Add(price)
	}

	return &SellerStats{
		Code:             seller.Code,
		TicketsSold:      len(tickets),
		UniqueBuyerCount: len(buyers),
		TotalSalesAmount: total,
	}, nil
}

func NormalizeSellerCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
