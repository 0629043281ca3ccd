package service

import (
	"context"

	"porg/internal/app/port"
	"porg/internal/domain/entity"
	"porg/internal/pkg/metrics"
)

// historyServiceImpl implements port.HistoryService over the persistent
// store.
type historyServiceImpl struct {
	store        port.Store
	defaultLimit int
	logger       port.Logger
}

// NewHistoryService creates a new history service.
func NewHistoryService(store port.Store, defaultLimit int, logger port.Logger) port.HistoryService {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	return &historyServiceImpl{store: store, defaultLimit: defaultLimit, logger: logger}
}

// List returns up to limit stored records for the wallet, newest first.
func (s *historyServiceImpl) List(ctx context.Context, wallet string, limit int) ([]entity.TransactionRecord, error) {
	if err := entity.ValidateAddress("wallet", wallet); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	records, err := s.store.ListTransactions(ctx, wallet, limit)
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("store").Inc()
		return nil, &entity.UpstreamError{Collaborator: "store", Err: err}
	}
	return records, nil
}
