package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID `json:"id"`
	Handle        string    `json:"handle"`
	DisplayName   *string   `json:"display_name,omitempty"`
	WalletAddress *string   `json:"wallet_address,omitempty"` // cached from active user_wallets row
	CreatedAt     time.Time `json:"created_at"`
	LastActiveAt  time.Time `json:"last_active_at"`
}
