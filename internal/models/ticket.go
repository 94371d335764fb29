// internal/models/ticket.go
package models

import "time"

// Ticket is one sold raffle number. Tickets are immutable once issued.
type Ticket struct {
	ID            string       `json:"id"`
	RaffleID      string       `json:"raffle_id"`
	RaffleTitle   string       `json:"raffle_title"`
	Number        int          `json:"number"`
	BuyerIdentity string       `json:"buyer_identity"`
	SellerCode    *string      `json:"seller_code,omitempty"`
	PurchasedAt   time.Time    `json:"purchased_at"`
	Status        TicketStatus `json:"status"`
}
