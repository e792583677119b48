package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/swarm-marketplace/backend/internal/models"
)

// History filters
const (
	FilterAll       = "all"
	FilterPurchases = "purchases"
	FilterSales     = "sales"
)

type TransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const txColumns = `id, buyer_id, seller_id, item_type, amount, platform_fee, seller_amount,
       status, transaction_signature, created_at`

func (r *TransactionRepo) Create(ctx context.Context, t *models.MarketplaceTransaction) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO marketplace_transactions
			(buyer_id, seller_id, item_type, amount, platform_fee, seller_amount, status, transaction_signature)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, t.BuyerID, t.SellerID, t.ItemType, t.Amount, t.PlatformFee, t.SellerAmount,
		t.Status, t.TransactionSignature,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.MarketplaceTransaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+txColumns+` FROM marketplace_transactions WHERE id = $1`, id)
	return scanTx(row)
}

func (r *TransactionRepo) GetBySignature(ctx context.Context, signature string) (*models.MarketplaceTransaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+txColumns+` FROM marketplace_transactions WHERE transaction_signature = $1`, signature)
	return scanTx(row)
}

// ListByUser returns the user's transactions, most recent first. The
// ordering is explicit; storage default order is never relied on.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID uuid.UUID, filter string, limit, offset int) ([]models.MarketplaceTransaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var where string
	switch filter {
	case FilterPurchases:
		where = "buyer_id = $1"
	case FilterSales:
		where = "seller_id = $1"
	case FilterAll, "":
		where = "(buyer_id = $1 OR seller_id = $1)"
	default:
		return nil, fmt.Errorf("unknown filter %q", filter)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+txColumns+`
		FROM marketplace_transactions WHERE `+where+`
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.MarketplaceTransaction
	for rows.Next() {
		t, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

// ListAllByUser returns the user's complete transaction set in one
// snapshot, for aggregation.
func (r *TransactionRepo) ListAllByUser(ctx context.Context, userID uuid.UUID) ([]models.MarketplaceTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+txColumns+`
		FROM marketplace_transactions
		WHERE buyer_id = $1 OR seller_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.MarketplaceTransaction
	for rows.Next() {
		t, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

// ListPendingSignatures returns the chain signatures of transactions
// the settlement indexer still has to confirm.
func (r *TransactionRepo) ListPendingSignatures(ctx context.Context) (map[string]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT transaction_signature, id FROM marketplace_transactions WHERE status = 'pending'
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pending := make(map[string]uuid.UUID)
	for rows.Next() {
		var sig string
		var id uuid.UUID
		if err := rows.Scan(&sig, &id); err != nil {
			return nil, err
		}
		pending[sig] = id
	}
	return pending, rows.Err()
}

func (r *TransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE marketplace_transactions SET status = $1 WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s is not in status %s", id, from)
	}
	return nil
}

func scanTx(row pgx.Row) (*models.MarketplaceTransaction, error) {
	var t models.MarketplaceTransaction
	err := row.Scan(
		&t.ID, &t.BuyerID, &t.SellerID, &t.ItemType, &t.Amount, &t.PlatformFee,
		&t.SellerAmount, &t.Status, &t.TransactionSignature, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
