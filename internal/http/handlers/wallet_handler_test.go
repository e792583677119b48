package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/swarm-marketplace/backend/internal/config"
	"github.com/swarm-marketplace/backend/internal/events"
	"github.com/swarm-marketplace/backend/internal/middleware"
	"github.com/swarm-marketplace/backend/internal/models"
	"github.com/swarm-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

type stubWalletStore struct {
	wallet *models.UserWallet
	err    error
}

func (s *stubWalletStore) Upsert(ctx context.Context, w *models.UserWallet) error { return nil }

func (s *stubWalletStore) Deactivate(ctx context.Context, userID uuid.UUID) error { return nil }

func (s *stubWalletStore) GetActive(ctx context.Context, userID uuid.UUID) (*models.UserWallet, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.wallet == nil {
		return nil, pgx.ErrNoRows
	}
	return s.wallet, nil
}

func (s *stubWalletStore) UpdateUserWalletAddress(ctx context.Context, userID uuid.UUID, address string) error {
	return nil
}

func (s *stubWalletStore) ClearUserWalletAddress(ctx context.Context, userID uuid.UUID) error {
	return nil
}

type stubAudit struct{}

func (stubAudit) Log(ctx context.Context, entry models.AuditLog) error { return nil }

type stubPublisher struct{}

func (stubPublisher) Publish(ctx context.Context, stream string, event events.Event) error {
	return nil
}

type stubChain struct {
	balance uint64
	err     error
}

func (s stubChain) GetBalance(ctx context.Context, address string) (uint64, error) {
	return s.balance, s.err
}

func handlerConfig() *config.Config {
	return &config.Config{
		SolanaNetwork:     "devnet",
		RPCTimeout:        time.Second,
		CommissionRateBPS: 1000,
	}
}

// testApp mounts a single handler behind a stub auth that injects the
// given user, mirroring what AuthMiddleware puts in Locals.
func testApp(method, path string, userID uuid.UUID, h fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(middleware.CtxUserID, userID)
		return c.Next()
	})
	app.Add(method, path, h)
	return app
}

func newWalletHandler(store *stubWalletStore) *WalletHandler {
	svc := services.NewWalletService(store, stubAudit{}, stubChain{}, stubPublisher{}, handlerConfig(), zap.NewNop())
	return NewWalletHandler(svc, zap.NewNop())
}

func TestGetWalletNoWalletIsOKNull(t *testing.T) {
	h := newWalletHandler(&stubWalletStore{})
	app := testApp(http.MethodGet, "/me/wallet", uuid.New(), h.GetWallet)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me/wallet", nil))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ok"] != true {
		t.Errorf("ok = %v, want true", body["ok"])
	}
	if body["data"] != nil {
		t.Errorf("data = %v, want null", body["data"])
	}
}

// A storage outage must surface as a server error, not as "no wallet".
func TestGetWalletStorageFailureIs500(t *testing.T) {
	h := newWalletHandler(&stubWalletStore{err: errors.New("connection refused")})
	app := testApp(http.MethodGet, "/me/wallet", uuid.New(), h.GetWallet)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me/wallet", nil))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
}

func TestGetWalletReturnsActive(t *testing.T) {
	userID := uuid.New()
	h := newWalletHandler(&stubWalletStore{wallet: &models.UserWallet{
		ID:        uuid.New(),
		UserID:    userID,
		PublicKey: "So11111111111111111111111111111111111111112",
		Network:   "devnet",
		IsActive:  true,
	}})
	app := testApp(http.MethodGet, "/me/wallet", userID, h.GetWallet)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me/wallet", nil))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["data"] == nil {
		t.Error("data is null, want wallet")
	}
}
