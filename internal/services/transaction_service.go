package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/swarm-marketplace/backend/internal/commission"
	"github.com/swarm-marketplace/backend/internal/config"
	"github.com/swarm-marketplace/backend/internal/events"
	"github.com/swarm-marketplace/backend/internal/ledger"
	"github.com/swarm-marketplace/backend/internal/models"
	"github.com/swarm-marketplace/backend/internal/repositories"
	"github.com/swarm-marketplace/backend/internal/solana"
	"go.uber.org/zap"
)

type transactionStore interface {
	Create(ctx context.Context, t *models.MarketplaceTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MarketplaceTransaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter string, limit, offset int) ([]models.MarketplaceTransaction, error)
	ListAllByUser(ctx context.Context, userID uuid.UUID) ([]models.MarketplaceTransaction, error)
}

// TransactionView is a transaction seen from one user's side, ready
// for display.
type TransactionView struct {
	models.MarketplaceTransaction
	Direction       string  `json:"direction"` // purchase/sale
	UserAmount      float64 `json:"user_amount"`
	UserAmountLabel string  `json:"user_amount_label"`
	ExplorerURL     string  `json:"explorer_url"`
}

type CreatePurchaseInput struct {
	SellerID             uuid.UUID
	ItemType             string
	Amount               float64
	TransactionSignature string
}

type TransactionService struct {
	txs       transactionStore
	audit     auditLogger
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
}

func NewTransactionService(
	txs transactionStore,
	audit auditLogger,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *TransactionService {
	return &TransactionService{
		txs:       txs,
		audit:     audit,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// CreatePurchase records a pending marketplace transaction. The
// commission split is computed here, never by the caller, so the
// stored fee and payout always follow the configured rate.
func (s *TransactionService) CreatePurchase(ctx context.Context, buyerID uuid.UUID, input CreatePurchaseInput) (*models.MarketplaceTransaction, error) {
	if !models.IsValidItemType(input.ItemType) {
		return nil, fmt.Errorf("invalid item type %q, must be one of: prompt, agent", input.ItemType)
	}
	if input.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %v", input.Amount)
	}
	if input.SellerID == buyerID {
		return nil, fmt.Errorf("buyer and seller must differ")
	}
	if input.TransactionSignature == "" {
		return nil, fmt.Errorf("transaction_signature is required")
	}

	fee, sellerAmount := commission.Split(input.Amount, s.cfg.CommissionRateBPS)
	tx := &models.MarketplaceTransaction{
		BuyerID:              buyerID,
		SellerID:             input.SellerID,
		ItemType:             input.ItemType,
		Amount:               input.Amount,
		PlatformFee:          fee,
		SellerAmount:         sellerAmount,
		Status:               models.TxStatusPending,
		TransactionSignature: input.TransactionSignature,
	}
	if err := s.txs.Create(ctx, tx); err != nil {
		return nil, err
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &buyerID,
		ActorType:   "user",
		Action:      "purchase_created",
		EntityType:  "marketplace_transaction",
		EntityID:    &tx.ID,
		Meta: map[string]any{
			"item_type": input.ItemType,
			"amount":    commission.Format(input.Amount),
		},
	})

	_ = s.publisher.Publish(ctx, events.StreamTransactions, events.Event{
		Type: events.EventPurchaseCreated,
		Payload: map[string]any{
			"transaction_id": tx.ID.String(),
			"buyer_id":       buyerID.String(),
			"seller_id":      input.SellerID.String(),
		},
	})

	s.log.Info("purchase created",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("item_type", input.ItemType),
		zap.Float64("amount", input.Amount),
	)

	return tx, nil
}

// List returns the user's history, newest first, each record
// classified from the user's side. Records the user is not a party to
// are logged and dropped rather than shown under either direction.
func (s *TransactionService) List(ctx context.Context, userID uuid.UUID, filter string, limit, offset int) ([]TransactionView, error) {
	switch filter {
	case repositories.FilterAll, repositories.FilterPurchases, repositories.FilterSales, "":
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, filter)
	}

	txs, err := s.txs.ListByUser(ctx, userID, filter, limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]TransactionView, 0, len(txs))
	for _, tx := range txs {
		v, err := s.view(tx, userID)
		if err != nil {
			s.log.Warn("dropping transaction from history",
				zap.String("tx_id", tx.ID.String()),
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
			continue
		}
		views = append(views, v)
	}
	return views, nil
}

// Stats recomputes the four aggregate fields over the user's full
// transaction set, fetched once. Nothing incremental is kept.
func (s *TransactionService) Stats(ctx context.Context, userID uuid.UUID) (models.UserStats, error) {
	txs, err := s.txs.ListAllByUser(ctx, userID)
	if err != nil {
		return models.UserStats{}, err
	}
	return ledger.Aggregate(txs, userID, s.log), nil
}

// Get returns a single transaction, classified for the requesting
// user. Non-participants get ErrForbidden.
func (s *TransactionService) Get(ctx context.Context, id, userID uuid.UUID) (*TransactionView, error) {
	tx, err := s.txs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s not found", id)
		}
		return nil, err
	}

	v, err := s.view(*tx, userID)
	if err != nil {
		return nil, ErrForbidden
	}
	return &v, nil
}

func (s *TransactionService) view(tx models.MarketplaceTransaction, userID uuid.UUID) (TransactionView, error) {
	c, err := ledger.Classify(tx, userID)
	if err != nil {
		return TransactionView{}, err
	}
	return TransactionView{
		MarketplaceTransaction: tx,
		Direction:              c.Direction,
		UserAmount:             c.Amount,
		UserAmountLabel:        commission.Format(c.Amount),
		ExplorerURL:            solana.ExplorerTxURL(tx.TransactionSignature, s.cfg.SolanaNetwork),
	}, nil
}
