package port

import (
	"context"

	"porg/internal/domain/entity"
)

// QuoteClient defines the interface for the external swap-quote provider.
type QuoteClient interface {
	// Quote requests a swap quote converting rawAmount of inputMint into
	// outputMint at the given slippage tolerance.
	Quote(ctx context.Context, inputMint, outputMint string, rawAmount uint64, slippageBps int) (entity.SwapQuote, error)
}

// BridgeClient defines the interface for the external bridge-quote provider.
type BridgeClient interface {
	// QuoteBridge prices bridging rawAmount of mint to the given target
	// chain and returns the bridge fee in USD.
	QuoteBridge(ctx context.Context, mint string, rawAmount uint64, targetChainID uint16) (float64, error)
}
