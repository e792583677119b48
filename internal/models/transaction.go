package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction statuses. The on-chain payment rail is the system of
// record; these mirror it.
const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
)

// Valid status transitions: from -> []to
var ValidTxTransitions = map[string][]string{
	TxStatusPending:   {TxStatusCompleted, TxStatusFailed},
	TxStatusCompleted: {},
	TxStatusFailed:    {},
}

func IsValidTxTransition(from, to string) bool {
	allowed, ok := ValidTxTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Item types sold on the marketplace
const (
	ItemTypePrompt = "prompt"
	ItemTypeAgent  = "agent"
)

func IsValidItemType(t string) bool {
	return t == ItemTypePrompt || t == ItemTypeAgent
}

// MarketplaceTransaction is created once when a purchase is initiated
// and is immutable afterwards except for its status, which the
// settlement indexer advances. Amounts are SOL-denominated:
// Amount = PlatformFee + SellerAmount always holds.
type MarketplaceTransaction struct {
	ID                   uuid.UUID `json:"id"`
	BuyerID              uuid.UUID `json:"buyer_id"`
	SellerID             uuid.UUID `json:"seller_id"`
	ItemType             string    `json:"item_type"`
	Amount               float64   `json:"amount"`        // gross price paid by the buyer
	PlatformFee          float64   `json:"platform_fee"`  // commission withheld by the platform
	SellerAmount         float64   `json:"seller_amount"` // net payout to the seller
	Status               string    `json:"status"`
	TransactionSignature string    `json:"transaction_signature"`
	CreatedAt            time.Time `json:"created_at"`
}

// UserStats is recomputed from the full transaction set on every
// fetch; no counters are persisted.
type UserStats struct {
	TotalPurchases int     `json:"total_purchases"`
	TotalSales     int     `json:"total_sales"`
	TotalSpent     float64 `json:"total_spent"`
	TotalEarned    float64 `json:"total_earned"`
}
