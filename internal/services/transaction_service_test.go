package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/swarm-marketplace/backend/internal/models"
	"github.com/swarm-marketplace/backend/internal/repositories"
	"go.uber.org/zap"
)

type fakeTxStore struct {
	mu  sync.Mutex
	txs []models.MarketplaceTransaction
}

func (f *fakeTxStore) Create(ctx context.Context, t *models.MarketplaceTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	f.txs = append(f.txs, *t)
	return nil
}

func (f *fakeTxStore) GetByID(ctx context.Context, id uuid.UUID) (*models.MarketplaceTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tx := range f.txs {
		if tx.ID == id {
			t := tx
			return &t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTxStore) ListByUser(ctx context.Context, userID uuid.UUID, filter string, limit, offset int) ([]models.MarketplaceTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MarketplaceTransaction
	for _, tx := range f.txs {
		switch filter {
		case repositories.FilterPurchases:
			if tx.BuyerID != userID {
				continue
			}
		case repositories.FilterSales:
			if tx.SellerID != userID {
				continue
			}
		default:
			if tx.BuyerID != userID && tx.SellerID != userID {
				continue
			}
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeTxStore) ListAllByUser(ctx context.Context, userID uuid.UUID) ([]models.MarketplaceTransaction, error) {
	return f.ListByUser(ctx, userID, repositories.FilterAll, 0, 0)
}

func newTxService(store *fakeTxStore) *TransactionService {
	return NewTransactionService(store, fakeAudit{}, fakePublisher{}, testConfig(), zap.NewNop())
}

func TestListRejectsUnknownFilter(t *testing.T) {
	store := &fakeTxStore{}
	svc := newTxService(store)

	_, err := svc.List(context.Background(), uuid.New(), "bogus", 50, 0)
	if !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("error = %v, want ErrInvalidFilter", err)
	}
}

func TestCreatePurchaseComputesSplit(t *testing.T) {
	store := &fakeTxStore{}
	svc := newTxService(store)
	buyer, seller := uuid.New(), uuid.New()

	tx, err := svc.CreatePurchase(context.Background(), buyer, CreatePurchaseInput{
		SellerID:             seller,
		ItemType:             models.ItemTypeAgent,
		Amount:               100,
		TransactionSignature: "sig-1",
	})
	if err != nil {
		t.Fatalf("CreatePurchase() error: %v", err)
	}
	if tx.PlatformFee != 10 || tx.SellerAmount != 90 {
		t.Errorf("split = %v/%v, want 10/90", tx.PlatformFee, tx.SellerAmount)
	}
	if tx.Status != models.TxStatusPending {
		t.Errorf("status = %q, want pending", tx.Status)
	}
}

func TestCreatePurchaseValidation(t *testing.T) {
	svc := newTxService(&fakeTxStore{})
	buyer, seller := uuid.New(), uuid.New()

	tests := []struct {
		name  string
		input CreatePurchaseInput
	}{
		{"bad item type", CreatePurchaseInput{SellerID: seller, ItemType: "nft", Amount: 1, TransactionSignature: "s"}},
		{"zero amount", CreatePurchaseInput{SellerID: seller, ItemType: models.ItemTypePrompt, Amount: 0, TransactionSignature: "s"}},
		{"negative amount", CreatePurchaseInput{SellerID: seller, ItemType: models.ItemTypePrompt, Amount: -5, TransactionSignature: "s"}},
		{"self purchase", CreatePurchaseInput{SellerID: buyer, ItemType: models.ItemTypePrompt, Amount: 1, TransactionSignature: "s"}},
		{"missing signature", CreatePurchaseInput{SellerID: seller, ItemType: models.ItemTypePrompt, Amount: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreatePurchase(context.Background(), buyer, tt.input); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestListClassifiesPerUser(t *testing.T) {
	store := &fakeTxStore{}
	svc := newTxService(store)
	a, b := uuid.New(), uuid.New()

	if _, err := svc.CreatePurchase(context.Background(), a, CreatePurchaseInput{
		SellerID: b, ItemType: models.ItemTypePrompt, Amount: 50, TransactionSignature: "sig-a",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreatePurchase(context.Background(), b, CreatePurchaseInput{
		SellerID: a, ItemType: models.ItemTypeAgent, Amount: 20, TransactionSignature: "sig-b",
	}); err != nil {
		t.Fatal(err)
	}

	views, err := svc.List(context.Background(), a, repositories.FilterAll, 50, 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("len = %d, want 2", len(views))
	}

	byDirection := map[string]TransactionView{}
	for _, v := range views {
		byDirection[v.Direction] = v
	}
	if p := byDirection["purchase"]; p.UserAmount != 50 {
		t.Errorf("purchase amount = %v, want gross 50", p.UserAmount)
	}
	if s := byDirection["sale"]; s.UserAmount != 18 {
		t.Errorf("sale amount = %v, want net 18", s.UserAmount)
	}
}

func TestStats(t *testing.T) {
	store := &fakeTxStore{}
	svc := newTxService(store)
	a, b := uuid.New(), uuid.New()

	t.Run("empty", func(t *testing.T) {
		stats, err := svc.Stats(context.Background(), a)
		if err != nil {
			t.Fatalf("Stats() error: %v", err)
		}
		if stats != (models.UserStats{}) {
			t.Errorf("stats = %+v, want zeroes", stats)
		}
	})

	if _, err := svc.CreatePurchase(context.Background(), a, CreatePurchaseInput{
		SellerID: b, ItemType: models.ItemTypePrompt, Amount: 50, TransactionSignature: "sig-a",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreatePurchase(context.Background(), b, CreatePurchaseInput{
		SellerID: a, ItemType: models.ItemTypeAgent, Amount: 20, TransactionSignature: "sig-b",
	}); err != nil {
		t.Fatal(err)
	}

	t.Run("mixed", func(t *testing.T) {
		stats, err := svc.Stats(context.Background(), a)
		if err != nil {
			t.Fatalf("Stats() error: %v", err)
		}
		want := models.UserStats{TotalPurchases: 1, TotalSales: 1, TotalSpent: 50, TotalEarned: 18}
		if stats != want {
			t.Errorf("stats = %+v, want %+v", stats, want)
		}
	})
}

func TestGetForbiddenForStranger(t *testing.T) {
	store := &fakeTxStore{}
	svc := newTxService(store)
	a, b := uuid.New(), uuid.New()

	tx, err := svc.CreatePurchase(context.Background(), a, CreatePurchaseInput{
		SellerID: b, ItemType: models.ItemTypePrompt, Amount: 1, TransactionSignature: "sig",
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Get(context.Background(), tx.ID, uuid.New()); !errors.Is(err, ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}

	v, err := svc.Get(context.Background(), tx.ID, a)
	if err != nil {
		t.Fatalf("Get() as buyer error: %v", err)
	}
	if v.Direction != "purchase" {
		t.Errorf("direction = %q, want purchase", v.Direction)
	}
	if v.ExplorerURL != "https://explorer.solana.com/tx/sig?cluster=devnet" {
		t.Errorf("unexpected explorer url %q", v.ExplorerURL)
	}
}
