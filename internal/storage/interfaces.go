package storage

import (
	"context"
	"errors"
	"io"

	"github.com/gagliardetto/solana-go"

	"github.com/cheliosooo/bankineco-amm-interface/internal/models"
)

// ErrNotFound is returned when no snapshot has been stored for a vault
var ErrNotFound = errors.New("not found")

// SnapshotStore keeps the last good raw accounts of each vault
type SnapshotStore interface {
	// SaveSnapshot replaces the stored snapshot of snap.Vault
	SaveSnapshot(ctx context.Context, snap *models.AccountSnapshot) error

	// LoadSnapshot returns the stored snapshot or ErrNotFound
	LoadSnapshot(ctx context.Context, vault solana.PublicKey) (*models.AccountSnapshot, error)

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	io.Closer
}

// QuoteJournal is an append-only record of served quotes
type QuoteJournal interface {
	// InsertQuote appends one quote
	InsertQuote(ctx context.Context, q *models.QuoteEvent) error

	// Ping checks if the journal is reachable
	Ping(ctx context.Context) error

	io.Closer
}

// MarketPublisher fans out market updates to subscribers
type MarketPublisher interface {
	PublishMarket(ctx context.Context, ev *models.MarketEvent) error
}

// MarketHandler processes market update events
type MarketHandler func(*models.MarketEvent)
