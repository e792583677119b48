// Package ledger classifies marketplace transactions relative to a
// user and aggregates their history into summary stats. All functions
// operate on an already-fetched snapshot and never re-query storage.
package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/swarm-marketplace/backend/internal/models"
	"go.uber.org/zap"
)

const (
	DirectionPurchase = "purchase"
	DirectionSale     = "sale"
)

// ErrNotParticipant marks a data-integrity violation: a transaction
// attributed to a user who is neither its buyer nor its seller.
var ErrNotParticipant = errors.New("user is neither buyer nor seller of transaction")

// Classified is a transaction viewed from one user's side.
type Classified struct {
	Direction string
	// Amount attributed to the user: the gross amount for a purchase,
	// the net seller amount for a sale. Using the gross amount for a
	// sale would overstate earnings by the commission.
	Amount float64
}

func Classify(tx models.MarketplaceTransaction, userID uuid.UUID) (Classified, error) {
	switch userID {
	case tx.BuyerID:
		return Classified{Direction: DirectionPurchase, Amount: tx.Amount}, nil
	case tx.SellerID:
		return Classified{Direction: DirectionSale, Amount: tx.SellerAmount}, nil
	}
	return Classified{}, fmt.Errorf("tx %s: %w", tx.ID, ErrNotParticipant)
}

// Aggregate recomputes the user's stats from the given snapshot.
// Records that fail classification are logged and excluded rather
// than counted toward either side. An empty snapshot yields all
// zeroes.
func Aggregate(txs []models.MarketplaceTransaction, userID uuid.UUID, log *zap.Logger) models.UserStats {
	var stats models.UserStats
	for _, tx := range txs {
		c, err := Classify(tx, userID)
		if err != nil {
			log.Warn("excluding transaction from aggregation",
				zap.String("tx_id", tx.ID.String()),
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			continue
		}
		switch c.Direction {
		case DirectionPurchase:
			stats.TotalPurchases++
			stats.TotalSpent += c.Amount
		case DirectionSale:
			stats.TotalSales++
			stats.TotalEarned += c.Amount
		}
	}
	return stats
}
