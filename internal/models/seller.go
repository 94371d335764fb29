// internal/models/seller.go
package models

import "time"

// Seller is a referral identity. Code is its identifier.
type Seller struct {
	Code         string    `json:"code"`
	OwnerUserID  string    `json:"owner_user_id"`
	DisplayName  string    `json:"display_name"`
	ContactEmail string    `json:"contact_email"`
	RegisteredAt time.Time `json:"registered_at"`
}
