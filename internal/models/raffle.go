// internal/models/raffle.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Prize struct {
	Name     string `json:"name" validate:"required,max=200"`
	Position int    `json:"position" validate:"min=1"`
}

type Raffle struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description,omitempty"`
	TicketPrice      decimal.Decimal `json:"ticket_price"`
	TotalTickets     int             `json:"total_tickets"`
	SoldCount        int             `json:"sold_count"`
	AvailableNumbers []int           `json:"available_numbers"`
	Prizes           []Prize         `json:"prizes"`
	DrawDate         Date            `json:"draw_date"`
	Image            string          `json:"image,omitempty"`
	Status           RaffleStatus    `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Version of the stored record, used for compare-and-swap writes.
	Version int64 `json:"-"`
}

// Revenue is the sold count times the ticket price.
func (r *Raffle) Revenue() decimal.Decimal {
	return r.TicketPrice.Mul(decimal.NewFromInt(int64(r.SoldCount)))
}

func (r *Raffle) IsActive() bool {
	return r.Status == RaffleStatusActive
}

// RaffleSummary is the catalog view of a raffle, without the number set.
type RaffleSummary struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	TicketPrice    decimal.Decimal `json:"ticket_price"`
	TotalTickets   int             `json:"total_tickets"`
	SoldCount      int             `json:"sold_count"`
	AvailableCount int             `json:"available_count"`
	Prizes         []Prize         `json:"prizes"`
	DrawDate       Date            `json:"draw_date"`
	Image          string          `json:"image,omitempty"`
	Status         RaffleStatus    `json:"status"`
}

func (r *Raffle) Summary() RaffleSummary {
	return RaffleSummary{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		TicketPrice:    r.TicketPrice,
		TotalTickets:   r.TotalTickets,
		SoldCount:      r.SoldCount,
		AvailableCount: len(r.AvailableNumbers),
		Prizes:         r.Prizes,
		DrawDate:       r.DrawDate,
		Image:          r.Image,
		Status:         r.Status,
	}
}
