package port

import (
	"context"
	"time"

	"porg/internal/domain/entity"
)

// Store defines the persistent backend for cached pricing data, portfolio
// snapshots, and classified transaction records.
type Store interface {
	// UpsertMetadata writes or refreshes a metadata entry keyed by mint.
	UpsertMetadata(ctx context.Context, entry entity.MetadataEntry) error
	// GetMetadata returns the stored metadata for mint, or nil if absent.
	GetMetadata(ctx context.Context, mint string) (*entity.MetadataEntry, error)

	// InsertPrice appends a price observation for the entry's mint.
	InsertPrice(ctx context.Context, entry entity.PriceEntry) error
	// LatestPrice returns the most recent price for mint observed at or
	// after notBefore, or nil when none qualifies.
	LatestPrice(ctx context.Context, mint string, notBefore time.Time) (*entity.PriceEntry, error)
	// PriceHistory returns up to limit recent observations, newest first.
	PriceHistory(ctx context.Context, mint string, limit int) ([]entity.PriceEntry, error)

	// SavePortfolio stores a portfolio snapshot keyed by wallet.
	SavePortfolio(ctx context.Context, p entity.Portfolio) error
	// LatestPortfolio returns the freshest snapshot for wallet taken at or
	// after notBefore, or nil when none qualifies.
	LatestPortfolio(ctx context.Context, wallet string, notBefore time.Time) (*entity.Portfolio, error)

	// UpsertTransaction writes a classified record keyed by signature.
	// Re-observation of the same signature is idempotent.
	UpsertTransaction(ctx context.Context, rec entity.TransactionRecord) error
	// GetTransaction returns the stored record for signature, or nil.
	GetTransaction(ctx context.Context, signature string) (*entity.TransactionRecord, error)
	// ListTransactions returns up to limit records for wallet, newest first.
	ListTransactions(ctx context.Context, wallet string, limit int) ([]entity.TransactionRecord, error)

	// Sweep applies bounded retention: portfolio snapshots older than
	// snapshotRetention are dropped, and each mint keeps at most
	// keepPrices price observations.
	Sweep(ctx context.Context, snapshotRetention time.Duration, keepPrices int) error
}
