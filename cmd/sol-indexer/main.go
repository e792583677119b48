package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/swarm-marketplace/backend/internal/config"
	"github.com/swarm-marketplace/backend/internal/db"
	"github.com/swarm-marketplace/backend/internal/events"
	"github.com/swarm-marketplace/backend/internal/models"
	"github.com/swarm-marketplace/backend/internal/repositories"
	"github.com/swarm-marketplace/backend/internal/solana"
	"go.uber.org/zap"
)

const (
	redisCursorSig = "sol-indexer:cursor:signature"
	redisProcessed = "sol-indexer:sig:"
	processedTTL   = 7 * 24 * time.Hour
	dbTimeout      = 5 * time.Second // bound on every store call so a hung DB cannot stall the loop
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.TreasuryWalletAddress == "" {
		log.Fatal("TREASURY_WALLET_ADDRESS is required")
	}

	treasury, err := solana.ParseAddress(cfg.TreasuryWalletAddress)
	if err != nil {
		log.Fatal("invalid TREASURY_WALLET_ADDRESS", zap.String("addr", cfg.TreasuryWalletAddress), zap.Error(err))
	}

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	txRepo := repositories.NewTransactionRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)
	publisher := events.NewRedisPublisher(rdb, log)
	chain := solana.NewClient(solana.NewRPCClient(cfg.SolanaRPCURL), cfg.SolanaNetwork, log)

	log.Info("sol indexer started",
		zap.String("treasury", treasury.String()),
		zap.String("network", cfg.SolanaNetwork),
	)

	initCursor(ctx, chain, treasury, cfg, rdb, log)

	ticker := time.NewTicker(cfg.IndexerPollInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if err := pollAndProcess(ctx, chain, treasury, cfg, txRepo, auditRepo, publisher, rdb, log); err != nil {
				log.Error("poll cycle failed", zap.Error(err))
			}
		case <-sigCh:
			log.Info("shutting down sol indexer")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

// initCursor sets the initial cursor position on first run: the most
// recent treasury signature, so only transfers arriving after startup
// are processed. A saved cursor is always resumed.
func initCursor(ctx context.Context, chain *solana.Client, treasury solanago.PublicKey, cfg *config.Config, rdb *redis.Client, log *zap.Logger) {
	existing, _ := rdb.Get(ctx, redisCursorSig).Result()
	if existing != "" {
		log.Info("resuming from saved cursor", zap.String("signature", existing))
		return
	}

	rpcCtx, cancel := context.WithTimeout(ctx, cfg.RPCTimeout)
	defer cancel()
	sigs, err := chain.SignaturesSince(rpcCtx, treasury, nil, 1)
	if err != nil || len(sigs) == 0 {
		log.Warn("no signatures for cursor init, starting from scratch", zap.Error(err))
		return
	}

	saveCursor(ctx, rdb, sigs[0].Signature.String())
	log.Info("cursor initialized at latest treasury signature (skipping history)",
		zap.String("signature", sigs[0].Signature.String()),
	)
}

func loadCursor(ctx context.Context, rdb *redis.Client) *solanago.Signature {
	val, err := rdb.Get(ctx, redisCursorSig).Result()
	if err != nil || val == "" {
		return nil
	}
	sig, err := solanago.SignatureFromBase58(val)
	if err != nil {
		return nil
	}
	return &sig
}

func saveCursor(ctx context.Context, rdb *redis.Client, signature string) {
	rdb.Set(ctx, redisCursorSig, signature, 0)
}

// pollAndProcess runs a single poll cycle:
// 1. Fetch treasury signatures newer than the cursor
// 2. Match them against pending marketplace transactions
// 3. Advance matched transactions to completed/failed
// 4. Update the cursor
func pollAndProcess(
	ctx context.Context,
	chain *solana.Client,
	treasury solanago.PublicKey,
	cfg *config.Config,
	txRepo *repositories.TransactionRepo,
	auditRepo *repositories.AuditRepo,
	publisher events.Publisher,
	rdb *redis.Client,
	log *zap.Logger,
) error {
	cursor := loadCursor(ctx, rdb)

	rpcCtx, cancel := context.WithTimeout(ctx, cfg.RPCTimeout)
	defer cancel()
	sigs, err := chain.SignaturesSince(rpcCtx, treasury, cursor, cfg.IndexerBatchSize)
	if err != nil {
		return err
	}
	if len(sigs) == 0 {
		return nil
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, dbTimeout)
	pending, err := txRepo.ListPendingSignatures(dbCtx)
	dbCancel()
	if err != nil {
		return err
	}

	// RPC returns newest first; settle oldest first.
	for i := len(sigs) - 1; i >= 0; i-- {
		processSignature(ctx, sigs[i], pending, txRepo, auditRepo, publisher, rdb, log)
	}

	saveCursor(ctx, rdb, sigs[0].Signature.String())
	return nil
}

// processSignature settles a single treasury signature against
// pending marketplace transactions.
func processSignature(
	ctx context.Context,
	sig *rpc.TransactionSignature,
	pending map[string]uuid.UUID,
	txRepo *repositories.TransactionRepo,
	auditRepo *repositories.AuditRepo,
	publisher events.Publisher,
	rdb *redis.Client,
	log *zap.Logger,
) {
	sigStr := sig.Signature.String()

	// Re-delivery guard across restarts
	seen, _ := rdb.Exists(ctx, redisProcessed+sigStr).Result()
	if seen > 0 {
		return
	}

	txID, ok := pending[sigStr]
	if !ok {
		return
	}

	newStatus := models.TxStatusCompleted
	eventType := events.EventTransactionCompleted
	if sig.Err != nil {
		newStatus = models.TxStatusFailed
		eventType = events.EventTransactionFailed
	}

	if !models.IsValidTxTransition(models.TxStatusPending, newStatus) {
		return
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	if err := txRepo.UpdateStatus(dbCtx, txID, models.TxStatusPending, newStatus); err != nil {
		log.Error("failed to update transaction status",
			zap.String("transaction_id", txID.String()),
			zap.String("signature", sigStr),
			zap.Error(err),
		)
		return
	}

	_ = auditRepo.Log(dbCtx, models.AuditLog{
		ActorType:  "indexer",
		Action:     "transaction_" + newStatus,
		EntityType: "marketplace_transaction",
		EntityID:   &txID,
		Meta:       map[string]any{"signature": sigStr},
	})

	_ = publisher.Publish(ctx, events.StreamTransactions, events.Event{
		Type: eventType,
		Payload: map[string]any{
			"transaction_id": txID.String(),
			"signature":      sigStr,
			"status":         newStatus,
		},
	})

	rdb.Set(ctx, redisProcessed+sigStr, "1", processedTTL)

	log.Info("transaction settled",
		zap.String("transaction_id", txID.String()),
		zap.String("signature", sigStr),
		zap.String("status", newStatus),
	)
}
