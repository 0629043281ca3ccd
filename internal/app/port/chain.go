package port

import (
	"context"

	"porg/internal/domain/entity"
)

// ChainClient defines the interface for interacting with the chain.
// The core uses it only to enumerate holdings, resolve token accounts, and
// inspect finalized transactions; it never signs or submits anything.
type ChainClient interface {
	// ListHoldings enumerates all token holdings of a wallet, including
	// zero balances.
	ListHoldings(ctx context.Context, wallet string) ([]entity.RawHolding, error)

	// FindTokenAccount resolves the token account holding mint for owner.
	FindTokenAccount(ctx context.Context, owner, mint string) (string, error)

	// LatestBlockhash returns a recent blockhash handle for transaction
	// assembly.
	LatestBlockhash(ctx context.Context) (string, error)

	// GetTransaction fetches a finalized transaction by signature.
	GetTransaction(ctx context.Context, signature string) (*entity.ChainTransaction, error)
}
