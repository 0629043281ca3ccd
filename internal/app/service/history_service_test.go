package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"porg/internal/domain/entity"
)

func TestHistoryListNewestFirst(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, sig := range []string{"sigA111111111111111111111111111111111111111111111111111111111",
		"sigB111111111111111111111111111111111111111111111111111111111",
		"sigC111111111111111111111111111111111111111111111111111111111"} {
		require.NoError(t, store.UpsertTransaction(context.Background(), entity.TransactionRecord{
			Signature: sig,
			Wallet:    testWallet,
			Type:      entity.TxLiquidate,
			BlockTime: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	svc := NewHistoryService(store, 50, nopLogger{})
	records, err := svc.List(context.Background(), testWallet, 2)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.True(t, records[0].BlockTime.After(records[1].BlockTime))
}

func TestHistoryListValidatesWallet(t *testing.T) {
	svc := NewHistoryService(newFakeStore(), 50, nopLogger{})
	_, err := svc.List(context.Background(), "nope", 10)
	require.Error(t, err)
	assert.True(t, entity.IsValidation(err))
}

func TestHistoryListStoreFailureIsUpstream(t *testing.T) {
	store := newFakeStore()
	store.listErr = assert.AnError
	svc := NewHistoryService(store, 50, nopLogger{})

	_, err := svc.List(context.Background(), testWallet, 10)
	require.Error(t, err)
	assert.True(t, entity.IsUpstream(err))
}
