package port

import (
	"context"

	"porg/internal/domain/entity"
)

// ValuationService values a wallet's holdings into a Portfolio.
type ValuationService interface {
	Valuate(ctx context.Context, wallet string) (entity.Portfolio, error)
}

// LiquidationService builds batch conversion plans and dry-run previews.
// Plan and Simulate share the same selection predicate and fee formula;
// divergence between them is a bug, not an approximation.
type LiquidationService interface {
	Plan(ctx context.Context, req entity.PlanRequest) (entity.LiquidationPlan, error)
	Simulate(ctx context.Context, req entity.PlanRequest) (entity.SimulationResult, error)
}

// ClassifierService classifies finalized transactions and records them.
type ClassifierService interface {
	Classify(ctx context.Context, tx entity.ChainTransaction) (entity.TransactionRecord, error)
	// ClassifySignature fetches the transaction from the chain first.
	ClassifySignature(ctx context.Context, signature string) (entity.TransactionRecord, error)
}

// HistoryService lists stored transaction records for a wallet.
type HistoryService interface {
	List(ctx context.Context, wallet string, limit int) ([]entity.TransactionRecord, error)
}
