package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet connection states. "connecting" is transient: it exists only
// while a connect attempt is in flight and is never persisted.
const (
	WalletStateDisconnected = "disconnected"
	WalletStateConnecting   = "connecting"
	WalletStateConnected    = "connected"
)

type UserWallet struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"user_id"`
	PublicKey      string     `json:"public_key"` // base58 Solana address
	Network        string     `json:"network"`    // mainnet-beta/devnet/testnet
	ConnectedAt    time.Time  `json:"connected_at"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
	IsActive       bool       `json:"is_active"`
}

// WalletBalance is re-fetched from the chain on every request,
// never cached in the database.
type WalletBalance struct {
	PublicKey   string  `json:"public_key"`
	SOL         float64 `json:"sol"`
	Lamports    uint64  `json:"lamports"`
	ExplorerURL string  `json:"explorer_url"`
}
