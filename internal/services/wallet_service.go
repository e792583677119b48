package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/swarm-marketplace/backend/internal/config"
	"github.com/swarm-marketplace/backend/internal/events"
	"github.com/swarm-marketplace/backend/internal/models"
	"github.com/swarm-marketplace/backend/internal/solana"
	"go.uber.org/zap"
)

// walletStore is the subset of WalletRepo the service needs; an
// interface so tests run without Postgres.
type walletStore interface {
	Upsert(ctx context.Context, w *models.UserWallet) error
	Deactivate(ctx context.Context, userID uuid.UUID) error
	GetActive(ctx context.Context, userID uuid.UUID) (*models.UserWallet, error)
	UpdateUserWalletAddress(ctx context.Context, userID uuid.UUID, address string) error
	ClearUserWalletAddress(ctx context.Context, userID uuid.UUID) error
}

type auditLogger interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

// chainClient is the wallet-provider boundary: an opaque capability
// that can validate an address and report its balance.
type chainClient interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
}

type WalletService struct {
	wallets   walletStore
	audit     auditLogger
	chain     chainClient
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{} // userIDs with a pending connect
}

func NewWalletService(
	wallets walletStore,
	audit auditLogger,
	chain chainClient,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *WalletService {
	return &WalletService{
		wallets:   wallets,
		audit:     audit,
		chain:     chain,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		inflight:  make(map[uuid.UUID]struct{}),
	}
}

// Connect привязывает Solana-кошелёк к пользователю.
// The key is validated and probed on chain before anything is stored,
// so a provider failure leaves no partial state. At most one connect
// per user may be in flight; a second call gets ErrConnectInFlight.
func (s *WalletService) Connect(ctx context.Context, userID uuid.UUID, publicKey, network string) (*models.UserWallet, error) {
	if err := s.beginConnect(userID); err != nil {
		return nil, err
	}
	defer s.endConnect(userID)

	if _, err := solana.ParseAddress(publicKey); err != nil {
		return nil, err
	}

	if network == "" {
		network = s.cfg.SolanaNetwork
	}
	if network != s.cfg.SolanaNetwork {
		return nil, fmt.Errorf("network mismatch: expected %s, got %s", s.cfg.SolanaNetwork, network)
	}

	// Probe the account so a dead provider or a bogus key fails the
	// connect before we touch storage.
	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.RPCTimeout)
	defer cancel()
	if _, err := s.chain.GetBalance(probeCtx, publicKey); err != nil {
		if errors.Is(err, solana.ErrUnavailable) {
			return nil, err // timeout: retryable as-is
		}
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, err)
	}

	wallet := &models.UserWallet{
		UserID:    userID,
		PublicKey: publicKey,
		Network:   network,
		IsActive:  true,
	}
	if err := s.wallets.Upsert(ctx, wallet); err != nil {
		// The chain connection itself succeeded; the caller decides
		// whether to retry the persist.
		return nil, fmt.Errorf("%w: %s", ErrPersistenceFailure, err)
	}

	// Кеш адреса в users.wallet_address
	_ = s.wallets.UpdateUserWalletAddress(ctx, userID, publicKey)

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &userID,
		ActorType:   "user",
		Action:      "wallet_connected",
		EntityType:  "user_wallet",
		EntityID:    &wallet.ID,
		Meta:        map[string]any{"public_key": publicKey, "network": network},
	})

	_ = s.publisher.Publish(ctx, events.StreamWallets, events.Event{
		Type: events.EventWalletConnected,
		Payload: map[string]any{
			"user_id":    userID.String(),
			"public_key": publicKey,
		},
	})

	s.log.Info("wallet connected",
		zap.String("user_id", userID.String()),
		zap.String("public_key", publicKey),
	)

	return wallet, nil
}

// Disconnect clears the active association. The row survives with
// is_active=false; nothing is deleted.
func (s *WalletService) Disconnect(ctx context.Context, userID uuid.UUID) error {
	if err := s.wallets.Deactivate(ctx, userID); err != nil {
		return err
	}
	_ = s.wallets.ClearUserWalletAddress(ctx, userID)

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &userID,
		ActorType:   "user",
		Action:      "wallet_disconnected",
		EntityType:  "user",
		EntityID:    &userID,
	})

	_ = s.publisher.Publish(ctx, events.StreamWallets, events.Event{
		Type:    events.EventWalletDisconnected,
		Payload: map[string]any{"user_id": userID.String()},
	})

	return nil
}

func (s *WalletService) ActiveWallet(ctx context.Context, userID uuid.UUID) (*models.UserWallet, error) {
	w, err := s.wallets.GetActive(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoWallet
		}
		return nil, err
	}
	return w, nil
}

// Balance re-fetches the wallet balance from the chain. Always a full
// replace; nothing is cached between calls.
func (s *WalletService) Balance(ctx context.Context, userID uuid.UUID) (*models.WalletBalance, error) {
	w, err := s.ActiveWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	rpcCtx, cancel := context.WithTimeout(ctx, s.cfg.RPCTimeout)
	defer cancel()
	lamports, err := s.chain.GetBalance(rpcCtx, w.PublicKey)
	if err != nil {
		if errors.Is(err, solana.ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, err)
	}

	return &models.WalletBalance{
		PublicKey:   w.PublicKey,
		Lamports:    lamports,
		SOL:         solana.LamportsToSOL(lamports),
		ExplorerURL: solana.ExplorerAddressURL(w.PublicKey, w.Network),
	}, nil
}

func (s *WalletService) beginConnect(userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[userID]; busy {
		return ErrConnectInFlight
	}
	s.inflight[userID] = struct{}{}
	return nil
}

func (s *WalletService) endConnect(userID uuid.UUID) {
	s.mu.Lock()
	delete(s.inflight, userID)
	s.mu.Unlock()
}
