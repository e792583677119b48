package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/swarm-marketplace/backend/internal/models"
)

type WalletRepo struct {
	pool *pgxpool.Pool
}

func NewWalletRepo(pool *pgxpool.Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Upsert associates the user with a public key. Keyed by user_id so a
// reconnect overwrites the previous key and repeated calls with the
// same arguments leave exactly one row.
func (r *WalletRepo) Upsert(ctx context.Context, w *models.UserWallet) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO user_wallets (user_id, public_key, network, is_active)
		VALUES ($1, $2, $3, true)
		ON CONFLICT (user_id) DO UPDATE SET
			public_key = EXCLUDED.public_key,
			network = EXCLUDED.network,
			is_active = true,
			disconnected_at = NULL,
			connected_at = now()
		RETURNING id, connected_at
	`, w.UserID, w.PublicKey, w.Network).Scan(&w.ID, &w.ConnectedAt)
}

// Deactivate clears the active flag but keeps the association row:
// disconnect never hard-deletes.
func (r *WalletRepo) Deactivate(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE user_wallets SET is_active = false, disconnected_at = now()
		WHERE user_id = $1 AND is_active = true
	`, userID)
	return err
}

func (r *WalletRepo) GetActive(ctx context.Context, userID uuid.UUID) (*models.UserWallet, error) {
	var w models.UserWallet
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, public_key, network, connected_at, disconnected_at, is_active
		FROM user_wallets
		WHERE user_id = $1 AND is_active = true
	`, userID).Scan(
		&w.ID, &w.UserID, &w.PublicKey, &w.Network, &w.ConnectedAt, &w.DisconnectedAt, &w.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepo) UpdateUserWalletAddress(ctx context.Context, userID uuid.UUID, address string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET wallet_address = $1 WHERE id = $2`, address, userID)
	return err
}

func (r *WalletRepo) ClearUserWalletAddress(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET wallet_address = NULL WHERE id = $1`, userID)
	return err
}
