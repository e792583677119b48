package solana

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

const LamportsPerSOL = 1_000_000_000

// ErrUnavailable wraps RPC timeouts so callers can treat them as a
// retryable condition without inspecting the transport error.
var ErrUnavailable = errors.New("solana rpc unavailable")

// RPCClient covers the subset of the Solana RPC surface we use.
// Kept as an interface so tests can run without a real node.
type RPCClient interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetSignaturesForAddressWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error)
}

type Client struct {
	rpc     RPCClient
	network string // mainnet-beta/devnet/testnet
	log     *zap.Logger
}

func NewClient(rpcClient RPCClient, network string, log *zap.Logger) *Client {
	return &Client{rpc: rpcClient, network: network, log: log}
}

// NewRPCClient dials the given RPC endpoint. For premium endpoints the
// API key goes in the URL.
func NewRPCClient(rpcURL string) RPCClient {
	return rpc.New(rpcURL)
}

// ParseAddress validates a base58 Solana public key.
func ParseAddress(address string) (solana.PublicKey, error) {
	pub, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid solana address %q: %w", address, err)
	}
	return pub, nil
}

// GetBalance returns the current lamport balance of the address at
// finalized commitment. Always a full fetch, never cached.
func (c *Client) GetBalance(ctx context.Context, address string) (uint64, error) {
	pub, err := ParseAddress(address)
	if err != nil {
		return 0, err
	}

	res, err := c.rpc.GetBalance(ctx, pub, rpc.CommitmentFinalized)
	if err != nil {
		c.log.Warn("balance fetch failed", zap.String("address", address), zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("get balance for %s: %w", address, ErrUnavailable)
		}
		return 0, fmt.Errorf("get balance for %s: %w", address, err)
	}
	return res.Value, nil
}

// SignaturesSince returns all signatures involving the address newer
// than until, newest first. A single RPC response is capped at
// pageSize, so this pages backwards with Before until the until cursor
// is reached; a backlog larger than one page is still fetched in full.
// Without a cursor only the newest page is returned.
func (c *Client) SignaturesSince(ctx context.Context, address solana.PublicKey, until *solana.Signature, pageSize int) ([]*rpc.TransactionSignature, error) {
	if pageSize <= 0 {
		pageSize = 100
	}

	var all []*rpc.TransactionSignature
	var before *solana.Signature
	for {
		opts := &rpc.GetSignaturesForAddressOpts{
			Limit:      &pageSize,
			Commitment: rpc.CommitmentFinalized,
		}
		if until != nil {
			opts.Until = *until
		}
		if before != nil {
			opts.Before = *before
		}

		page, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, address, opts)
		if err != nil {
			c.log.Warn("signature fetch failed", zap.String("address", address.String()), zap.Error(err))
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("get signatures for %s: %w", address, ErrUnavailable)
			}
			return nil, fmt.Errorf("get signatures for %s: %w", address, err)
		}
		all = append(all, page...)

		// A short page means the cursor was reached.
		if until == nil || len(page) < pageSize {
			return all, nil
		}
		last := page[len(page)-1].Signature
		before = &last
	}
}

// LamportsToSOL converts a lamport amount to SOL.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSOL
}
