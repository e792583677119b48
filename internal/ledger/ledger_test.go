package ledger

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/swarm-marketplace/backend/internal/models"
	"go.uber.org/zap"
)

var (
	userA = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	userB = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	userC = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

func tx(buyer, seller uuid.UUID, amount, fee, sellerAmount float64) models.MarketplaceTransaction {
	return models.MarketplaceTransaction{
		ID:           uuid.New(),
		BuyerID:      buyer,
		SellerID:     seller,
		ItemType:     models.ItemTypePrompt,
		Amount:       amount,
		PlatformFee:  fee,
		SellerAmount: sellerAmount,
		Status:       models.TxStatusCompleted,
	}
}

func TestClassify(t *testing.T) {
	sample := tx(userA, userB, 50, 5, 45)

	tests := []struct {
		name          string
		user          uuid.UUID
		wantDirection string
		wantAmount    float64
		wantErr       bool
	}{
		{"buyer sees purchase at gross", userA, DirectionPurchase, 50, false},
		{"seller sees sale at net", userB, DirectionSale, 45, false},
		{"stranger is a violation", userC, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Classify(sample, tt.user)
			if tt.wantErr {
				if !errors.Is(err, ErrNotParticipant) {
					t.Fatalf("Classify() error = %v, want ErrNotParticipant", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Classify() unexpected error: %v", err)
			}
			if c.Direction != tt.wantDirection {
				t.Errorf("direction = %q, want %q", c.Direction, tt.wantDirection)
			}
			if c.Amount != tt.wantAmount {
				t.Errorf("amount = %v, want %v", c.Amount, tt.wantAmount)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	log := zap.NewNop()

	t.Run("empty set yields zeroes", func(t *testing.T) {
		stats := Aggregate(nil, userA, log)
		if stats != (models.UserStats{}) {
			t.Errorf("Aggregate(nil) = %+v, want all zeroes", stats)
		}
	})

	t.Run("mixed buyer and seller", func(t *testing.T) {
		txs := []models.MarketplaceTransaction{
			tx(userA, userB, 50, 5, 45),
			tx(userB, userA, 20, 2, 18),
		}
		stats := Aggregate(txs, userA, log)
		want := models.UserStats{TotalPurchases: 1, TotalSales: 1, TotalSpent: 50, TotalEarned: 18}
		if stats != want {
			t.Errorf("Aggregate() = %+v, want %+v", stats, want)
		}
	})

	t.Run("violating record is excluded", func(t *testing.T) {
		txs := []models.MarketplaceTransaction{
			tx(userA, userB, 50, 5, 45),
			tx(userB, userC, 100, 10, 90), // userA is on neither side
		}
		stats := Aggregate(txs, userA, log)
		want := models.UserStats{TotalPurchases: 1, TotalSpent: 50}
		if stats != want {
			t.Errorf("Aggregate() = %+v, want %+v", stats, want)
		}
	})

	t.Run("totals match sums", func(t *testing.T) {
		txs := []models.MarketplaceTransaction{
			tx(userA, userB, 1.25, 0.125, 1.125),
			tx(userA, userC, 0.4, 0.04, 0.36),
			tx(userC, userA, 3, 0.3, 2.7),
		}
		stats := Aggregate(txs, userA, log)
		if stats.TotalPurchases != 2 || stats.TotalSales != 1 {
			t.Fatalf("counts = %d/%d, want 2/1", stats.TotalPurchases, stats.TotalSales)
		}
		if math.Abs(stats.TotalSpent-1.65) > 1e-9 {
			t.Errorf("TotalSpent = %v, want 1.65", stats.TotalSpent)
		}
		if math.Abs(stats.TotalEarned-2.7) > 1e-9 {
			t.Errorf("TotalEarned = %v, want 2.7", stats.TotalEarned)
		}
	})
}
