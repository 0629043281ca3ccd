package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"porg/internal/app/port"
	"porg/internal/domain/entity"
	"porg/internal/infrastructure/cache"
	"porg/internal/pkg/metrics"
	"porg/internal/pkg/utils"
)

// valuationServiceImpl implements port.ValuationService. Valuation results
// are cached per wallet with a short freshness window, so repeated planning
// calls do not multiply chain and price-feed traffic.
type valuationServiceImpl struct {
	chain                 port.ChainClient
	metadata              port.MetadataResolver
	price                 port.PriceResolver
	cache                 *cache.Layered[entity.Portfolio]
	logger                port.Logger
	now                   func() time.Time
	maxConcurrentRoutines int
}

// NewValuationService creates a new valuation service. portfolioTTL is the
// snapshot freshness window; backend persists snapshots across restarts.
// now may be nil to use the wall clock.
func NewValuationService(
	chain port.ChainClient,
	metadata port.MetadataResolver,
	price port.PriceResolver,
	backend cache.Backend[entity.Portfolio],
	portfolioTTL time.Duration,
	maxRoutines int,
	now func() time.Time,
	logger port.Logger,
) port.ValuationService {
	if maxRoutines <= 0 {
		maxRoutines = 1
	}
	if now == nil {
		now = time.Now
	}
	s := &valuationServiceImpl{
		chain:                 chain,
		metadata:              metadata,
		price:                 price,
		logger:                logger,
		now:                   now,
		maxConcurrentRoutines: maxRoutines,
	}
	s.cache = cache.New("portfolio", portfolioTTL, backend, s.build, now, logger).
		WithClone(entity.Portfolio.Clone)
	return s
}

// Valuate returns the wallet's valued portfolio, serving a cached snapshot
// when one is still inside the freshness window.
func (s *valuationServiceImpl) Valuate(ctx context.Context, wallet string) (entity.Portfolio, error) {
	if err := entity.ValidateAddress("wallet", wallet); err != nil {
		return entity.Portfolio{}, err
	}

	res, err := s.cache.Get(ctx, wallet)
	if err != nil {
		return entity.Portfolio{}, err
	}
	portfolio := res.Value
	if res.State == entity.ProvenanceStale {
		portfolio.Warnings = append(portfolio.Warnings,
			fmt.Sprintf("portfolio snapshot is stale (age %s)", res.Age.Round(time.Second)))
	}
	return portfolio, nil
}

// build performs a full valuation pass: enumerate holdings, resolve metadata
// and price per holding, compute values and portfolio weights.
func (s *valuationServiceImpl) build(ctx context.Context, wallet string) (entity.Portfolio, error) {
	s.logger.Debug("Valuating wallet", "wallet", wallet)

	raw, err := s.chain.ListHoldings(ctx, wallet)
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("chain").Inc()
		return entity.Portfolio{}, &entity.UpstreamError{Collaborator: "chain", Err: err}
	}

	// Zero balances carry no value and are dropped before resolution.
	candidates := make([]entity.RawHolding, 0, len(raw))
	for _, h := range raw {
		if h.RawBalance > 0 {
			candidates = append(candidates, h)
		}
	}

	holdings := make([]entity.TokenHolding, len(candidates))
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.maxConcurrentRoutines)

	for i, h := range candidates {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, h entity.RawHolding) {
			defer wg.Done()
			defer func() { <-sem }()
			holdings[i] = s.valueHolding(ctx, h)
		}(i, h)
	}
	wg.Wait()

	var totalValue float64
	var warnings []string
	for _, h := range holdings {
		totalValue += h.ValueUSD
		if h.PriceState != entity.ProvenanceFresh {
			warnings = append(warnings, fmt.Sprintf("price for %s (%s) is %s", h.Symbol, h.Mint, h.PriceState))
		}
	}

	for i := range holdings {
		if totalValue > 0 {
			holdings[i].Percent = holdings[i].ValueUSD / totalValue * 100
		} else {
			holdings[i].Percent = 0
		}
	}

	sort.SliceStable(holdings, func(i, j int) bool {
		if holdings[i].ValueUSD != holdings[j].ValueUSD {
			return holdings[i].ValueUSD > holdings[j].ValueUSD
		}
		return holdings[i].Mint < holdings[j].Mint
	})

	portfolio := entity.Portfolio{
		Wallet:        wallet,
		TotalValueUSD: totalValue,
		Holdings:      holdings,
		FetchedAt:     s.now(),
		Warnings:      warnings,
	}

	s.logger.Info("Wallet valuated",
		"wallet", wallet, "holdings", len(holdings), "total_value_usd", totalValue, "degraded_prices", len(warnings))
	return portfolio, nil
}

// valueHolding resolves metadata and price for one holding and computes its
// value. Resolution failures never surface here: both resolvers absorb them
// into sentinel/tagged defaults.
func (s *valuationServiceImpl) valueHolding(ctx context.Context, h entity.RawHolding) entity.TokenHolding {
	meta := s.metadata.Resolve(ctx, h.Mint)

	decimals := h.Decimals
	if decimals == 0 && meta.Decimals != 0 {
		decimals = meta.Decimals
	}

	quote := s.price.Resolve(ctx, h.Mint)
	balance := utils.RawToUI(h.RawBalance, decimals)

	s.logger.Debug("Holding valued",
		"mint", h.Mint, "symbol", meta.Symbol,
		"balance", utils.FormatAmount(h.RawBalance, decimals),
		"price_usd", quote.PriceUSD, "price_state", quote.State)

	return entity.TokenHolding{
		Mint:       h.Mint,
		Symbol:     meta.Symbol,
		Name:       meta.Name,
		Icon:       meta.Icon,
		Decimals:   decimals,
		RawBalance: h.RawBalance,
		Balance:    balance,
		PriceUSD:   quote.PriceUSD,
		ValueUSD:   quote.PriceUSD * balance,
		PriceState: quote.State,
	}
}
