package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"porg/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// fakeChain implements port.ChainClient from fixed maps.
type fakeChain struct {
	holdings      map[string][]entity.RawHolding
	tokenAccounts map[string]string // owner+":"+mint -> account
	blockhash     string
	transactions  map[string]*entity.ChainTransaction
	listErr       error
}

func (c *fakeChain) ListHoldings(_ context.Context, wallet string) ([]entity.RawHolding, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.holdings[wallet], nil
}

func (c *fakeChain) FindTokenAccount(_ context.Context, owner, mint string) (string, error) {
	acc, ok := c.tokenAccounts[owner+":"+mint]
	if !ok {
		return "", &entity.NotFoundError{What: "token account for mint " + mint}
	}
	return acc, nil
}

func (c *fakeChain) LatestBlockhash(context.Context) (string, error) {
	return c.blockhash, nil
}

func (c *fakeChain) GetTransaction(_ context.Context, signature string) (*entity.ChainTransaction, error) {
	tx, ok := c.transactions[signature]
	if !ok {
		return nil, &entity.NotFoundError{What: "transaction " + signature}
	}
	return tx, nil
}

// fakeMetadata implements port.MetadataResolver from a fixed map, falling
// back to the sentinel like the real resolver does.
type fakeMetadata struct {
	entries map[string]entity.MetadataEntry
}

func (m *fakeMetadata) Resolve(_ context.Context, mint string) entity.MetadataEntry {
	if e, ok := m.entries[mint]; ok {
		return e
	}
	return entity.UnknownMetadata(mint)
}

// fakePrices implements port.PriceResolver from a fixed map. Mints absent
// from the map resolve to the tagged neutral default.
type fakePrices struct {
	prices map[string]float64
	states map[string]entity.Provenance
}

func (p *fakePrices) Resolve(_ context.Context, mint string) entity.PriceQuote {
	price, ok := p.prices[mint]
	if !ok {
		return entity.PriceQuote{Mint: mint, PriceUSD: NeutralPriceUSD, State: entity.ProvenanceDefault}
	}
	state := entity.ProvenanceFresh
	if s, ok := p.states[mint]; ok {
		state = s
	}
	return entity.PriceQuote{Mint: mint, PriceUSD: price, State: state}
}

// fakeValuator implements port.ValuationService with a canned portfolio.
type fakeValuator struct {
	portfolio entity.Portfolio
	err       error
}

func (v *fakeValuator) Valuate(_ context.Context, wallet string) (entity.Portfolio, error) {
	if v.err != nil {
		return entity.Portfolio{}, v.err
	}
	p := v.portfolio
	p.Wallet = wallet
	return p, nil
}

// fakeQuoter implements port.QuoteClient with a fixed quote per input mint.
type fakeQuoter struct {
	quotes map[string]entity.SwapQuote
	err    error
	calls  []string
}

func (q *fakeQuoter) Quote(_ context.Context, inputMint, outputMint string, rawAmount uint64, slippageBps int) (entity.SwapQuote, error) {
	q.calls = append(q.calls, inputMint)
	if q.err != nil {
		return entity.SwapQuote{}, q.err
	}
	quote, ok := q.quotes[inputMint]
	if !ok {
		return entity.SwapQuote{}, fmt.Errorf("no route for %s", inputMint)
	}
	quote.InputMint = inputMint
	quote.OutputMint = outputMint
	quote.InAmount = rawAmount
	return quote, nil
}

// fakeBridger implements port.BridgeClient with a flat fee.
type fakeBridger struct {
	feeUSD float64
	err    error
}

func (b *fakeBridger) QuoteBridge(context.Context, string, uint64, uint16) (float64, error) {
	if b.err != nil {
		return 0, b.err
	}
	return b.feeUSD, nil
}

// fakeStore implements port.Store in memory.
type fakeStore struct {
	metadata     map[string]entity.MetadataEntry
	prices       map[string][]entity.PriceEntry
	portfolios   map[string][]entity.Portfolio
	transactions map[string]entity.TransactionRecord
	upserts      int
	listErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		metadata:     make(map[string]entity.MetadataEntry),
		prices:       make(map[string][]entity.PriceEntry),
		portfolios:   make(map[string][]entity.Portfolio),
		transactions: make(map[string]entity.TransactionRecord),
	}
}

func (s *fakeStore) UpsertMetadata(_ context.Context, entry entity.MetadataEntry) error {
	s.metadata[entry.Mint] = entry
	return nil
}

func (s *fakeStore) GetMetadata(_ context.Context, mint string) (*entity.MetadataEntry, error) {
	if e, ok := s.metadata[mint]; ok {
		return &e, nil
	}
	return nil, nil
}

func (s *fakeStore) InsertPrice(_ context.Context, entry entity.PriceEntry) error {
	s.prices[entry.Mint] = append(s.prices[entry.Mint], entry)
	return nil
}

func (s *fakeStore) LatestPrice(_ context.Context, mint string, notBefore time.Time) (*entity.PriceEntry, error) {
	entries := s.prices[mint]
	var latest *entity.PriceEntry
	for i := range entries {
		e := entries[i]
		if !notBefore.IsZero() && e.ObservedAt.Before(notBefore) {
			continue
		}
		if latest == nil || e.ObservedAt.After(latest.ObservedAt) {
			latest = &e
		}
	}
	return latest, nil
}

func (s *fakeStore) PriceHistory(_ context.Context, mint string, limit int) ([]entity.PriceEntry, error) {
	entries := append([]entity.PriceEntry(nil), s.prices[mint]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].ObservedAt.After(entries[j].ObservedAt) })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *fakeStore) SavePortfolio(_ context.Context, p entity.Portfolio) error {
	s.portfolios[p.Wallet] = append(s.portfolios[p.Wallet], p)
	return nil
}

func (s *fakeStore) LatestPortfolio(_ context.Context, wallet string, notBefore time.Time) (*entity.Portfolio, error) {
	snapshots := s.portfolios[wallet]
	var latest *entity.Portfolio
	for i := range snapshots {
		p := snapshots[i]
		if !notBefore.IsZero() && p.FetchedAt.Before(notBefore) {
			continue
		}
		if latest == nil || p.FetchedAt.After(latest.FetchedAt) {
			latest = &p
		}
	}
	return latest, nil
}

func (s *fakeStore) UpsertTransaction(_ context.Context, rec entity.TransactionRecord) error {
	s.upserts++
	s.transactions[rec.Signature] = rec
	return nil
}

func (s *fakeStore) GetTransaction(_ context.Context, signature string) (*entity.TransactionRecord, error) {
	if r, ok := s.transactions[signature]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *fakeStore) ListTransactions(_ context.Context, wallet string, limit int) ([]entity.TransactionRecord, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var records []entity.TransactionRecord
	for _, r := range s.transactions {
		if r.Wallet == wallet {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].BlockTime.After(records[j].BlockTime) })
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *fakeStore) Sweep(context.Context, time.Duration, int) error { return nil }
