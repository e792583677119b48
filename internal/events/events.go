package events

import "context"

// Streams
const (
	StreamTransactions = "events:transactions"
	StreamWallets      = "events:wallets"
)

// Event types
const (
	EventPurchaseCreated      = "purchase_created"
	EventTransactionCompleted = "transaction_completed"
	EventTransactionFailed    = "transaction_failed"
	EventWalletConnected      = "wallet_connected"
	EventWalletDisconnected   = "wallet_disconnected"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
