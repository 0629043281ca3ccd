package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"porg/internal/app/port"
	"porg/internal/domain/entity"
	"porg/internal/pkg/metrics"
	"porg/internal/pkg/utils"
)

// liquidationServiceImpl implements port.LiquidationService. Plan and
// Simulate run the identical selection, quoting, and fee pipeline; Plan
// additionally assembles the executable instruction payload.
type liquidationServiceImpl struct {
	valuator            port.ValuationService
	quotes              port.QuoteClient
	bridge              port.BridgeClient
	chain               port.ChainClient
	feeBps              int
	feeAccount          string
	programID           string
	maxConcurrentQuotes int
	logger              port.Logger
	nonce               func() uint64
}

// NewLiquidationService creates a new liquidation planner. feeBps is the
// protocol fee in basis points; nonce may be nil to use a random source.
func NewLiquidationService(
	valuator port.ValuationService,
	quotes port.QuoteClient,
	bridge port.BridgeClient,
	chain port.ChainClient,
	feeBps int,
	feeAccount string,
	programID string,
	maxConcurrentQuotes int,
	nonce func() uint64,
	logger port.Logger,
) port.LiquidationService {
	if feeBps <= 0 {
		feeBps = entity.DefaultFeeBps
	}
	if maxConcurrentQuotes <= 0 {
		maxConcurrentQuotes = 1
	}
	if nonce == nil {
		nonce = rand.Uint64
	}
	return &liquidationServiceImpl{
		valuator:            valuator,
		quotes:              quotes,
		bridge:              bridge,
		chain:               chain,
		feeBps:              feeBps,
		feeAccount:          feeAccount,
		programID:           programID,
		maxConcurrentQuotes: maxConcurrentQuotes,
		logger:              logger,
		nonce:               nonce,
	}
}

// Plan builds an executable batch conversion plan for the request.
func (s *liquidationServiceImpl) Plan(ctx context.Context, req entity.PlanRequest) (entity.LiquidationPlan, error) {
	selected, quotes, warnings, err := s.pipeline(ctx, &req)
	if err != nil {
		metrics.PlansBuilt.WithLabelValues("plan", "error").Inc()
		return entity.LiquidationPlan{}, err
	}

	gross, fee, net, minOut := aggregateQuotes(quotes, s.feeBps)

	plan := entity.LiquidationPlan{
		Wallet:        req.Wallet,
		TargetMint:    req.TargetMint,
		Quotes:        quotes,
		GrossOutputUI: gross,
		PorgFeeUI:     fee,
		NetOutputUI:   net,
		MinOutputUI:   minOut,
		FeeBps:        s.feeBps,
		Warnings:      warnings,
	}

	payload, err := s.assemblePayload(ctx, req, selected, quotes)
	if err != nil {
		metrics.PlansBuilt.WithLabelValues("plan", "error").Inc()
		return entity.LiquidationPlan{}, err
	}
	plan.Payload = payload

	metrics.PlansBuilt.WithLabelValues("plan", "ok").Inc()
	s.logger.Info("Liquidation plan built",
		"wallet", req.Wallet, "target", req.TargetMint, "inputs", len(quotes),
		"gross_output", gross, "porg_fee", fee, "net_output", net)
	return plan, nil
}

// Simulate runs the same pipeline as Plan but stops short of instruction
// assembly, returning a preview of inputs and output totals.
func (s *liquidationServiceImpl) Simulate(ctx context.Context, req entity.PlanRequest) (entity.SimulationResult, error) {
	selected, quotes, warnings, err := s.pipeline(ctx, &req)
	if err != nil {
		metrics.PlansBuilt.WithLabelValues("simulate", "error").Inc()
		return entity.SimulationResult{}, err
	}

	gross, fee, net, minOut := aggregateQuotes(quotes, s.feeBps)

	var totalInput float64
	for _, h := range selected {
		totalInput += h.ValueUSD
	}

	result := entity.SimulationResult{
		Wallet:        req.Wallet,
		TargetMint:    req.TargetMint,
		Inputs:        selected,
		TotalInputUSD: totalInput,
		GrossOutputUI: gross,
		PorgFeeUI:     fee,
		NetOutputUI:   net,
		MinOutputUI:   minOut,
		FeeBps:        s.feeBps,
		Warnings:      warnings,
	}

	if req.Bridge != nil {
		bridgeFee, err := s.quoteBridgeLeg(ctx, req, quotes)
		if err != nil {
			metrics.PlansBuilt.WithLabelValues("simulate", "error").Inc()
			return entity.SimulationResult{}, err
		}
		result.BridgeFeeUSD = bridgeFee
	}

	metrics.PlansBuilt.WithLabelValues("simulate", "ok").Inc()
	return result, nil
}

// pipeline is the shared front half of Plan and Simulate: validate, value
// the wallet, select convertible holdings, and gather quotes in holding
// order.
func (s *liquidationServiceImpl) pipeline(ctx context.Context, req *entity.PlanRequest) ([]entity.TokenHolding, []entity.SwapQuote, []string, error) {
	if err := entity.ValidateAddress("wallet", req.Wallet); err != nil {
		return nil, nil, nil, err
	}
	if err := entity.ValidateAddress("targetMint", req.TargetMint); err != nil {
		return nil, nil, nil, err
	}
	req.Normalize()

	portfolio, err := s.valuator.Valuate(ctx, req.Wallet)
	if err != nil {
		return nil, nil, nil, err
	}

	selected := selectHoldings(portfolio, *req)
	if len(selected) == 0 {
		return nil, nil, nil, &entity.NotFoundError{What: "convertible holdings"}
	}

	quotes, err := s.gatherQuotes(ctx, selected, req.TargetMint, req.SlippageBps)
	if err != nil {
		return nil, nil, nil, err
	}

	var warnings []string
	for _, h := range selected {
		if h.PriceState != entity.ProvenanceFresh {
			warnings = append(warnings, fmt.Sprintf("valuation of %s (%s) used a %s price", h.Symbol, h.Mint, h.PriceState))
		}
	}

	return selected, quotes, warnings, nil
}

// selectHoldings applies the selection rule: never the target token itself,
// and nothing below the dust threshold unless dust is explicitly included.
// Portfolio order (descending by value) is preserved so quote aggregation is
// deterministic.
func selectHoldings(p entity.Portfolio, req entity.PlanRequest) []entity.TokenHolding {
	selected := make([]entity.TokenHolding, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		if h.Mint == req.TargetMint {
			continue
		}
		if !req.IncludeDust && h.ValueUSD < req.MinDustValueUSD {
			continue
		}
		selected = append(selected, h)
	}
	return selected
}

// gatherQuotes requests one quote per selected holding. Requests run
// concurrently but results are addressed by index, so the returned slice is
// in selection order regardless of completion order.
func (s *liquidationServiceImpl) gatherQuotes(ctx context.Context, selected []entity.TokenHolding, targetMint string, slippageBps int) ([]entity.SwapQuote, error) {
	quotes := make([]entity.SwapQuote, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrentQuotes)
	for i, h := range selected {
		g.Go(func() error {
			q, err := s.quotes.Quote(gctx, h.Mint, targetMint, h.RawBalance, slippageBps)
			if err != nil {
				return fmt.Errorf("quote for %s failed: %w", h.Mint, err)
			}
			quotes[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.UpstreamFailures.WithLabelValues("quote").Inc()
		return nil, &entity.UpstreamError{Collaborator: "quote provider", Err: err}
	}
	return quotes, nil
}

// aggregateQuotes folds per-token quotes into the plan totals. This is the
// single fee formula shared by Plan and Simulate.
func aggregateQuotes(quotes []entity.SwapQuote, feeBps int) (gross, fee, net, minOut float64) {
	for _, q := range quotes {
		gross += utils.RawToUI(q.OutAmount, q.OutputDecimals)
		minOut += utils.RawToUI(q.MinOutputAmount, q.OutputDecimals)
	}
	fee = gross * float64(feeBps) / 10000
	net = gross - fee
	return gross, fee, net, minOut
}

// assemblePayload resolves the accounts the on-chain instruction needs and
// lays the route legs out in quote order.
func (s *liquidationServiceImpl) assemblePayload(ctx context.Context, req entity.PlanRequest, selected []entity.TokenHolding, quotes []entity.SwapQuote) (*entity.InstructionPayload, error) {
	legs := make([]entity.RouteLeg, len(quotes))
	var targetAccount, blockhash string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrentQuotes)

	g.Go(func() error {
		acc, err := s.chain.FindTokenAccount(gctx, req.Wallet, req.TargetMint)
		if err != nil {
			return fmt.Errorf("target token account lookup failed: %w", err)
		}
		targetAccount = acc
		return nil
	})
	g.Go(func() error {
		bh, err := s.chain.LatestBlockhash(gctx)
		if err != nil {
			return fmt.Errorf("blockhash lookup failed: %w", err)
		}
		blockhash = bh
		return nil
	})
	for i, h := range selected {
		g.Go(func() error {
			source, err := s.chain.FindTokenAccount(gctx, req.Wallet, h.Mint)
			if err != nil {
				return fmt.Errorf("source token account lookup for %s failed: %w", h.Mint, err)
			}
			legs[i] = entity.RouteLeg{
				Mint:          h.Mint,
				SourceAccount: source,
				Data:          base64.StdEncoding.EncodeToString(quotes[i].Route),
				Accounts:      []string{source},
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.UpstreamFailures.WithLabelValues("chain").Inc()
		return nil, &entity.UpstreamError{Collaborator: "chain", Err: err}
	}

	for i := range legs {
		legs[i].Accounts = append(legs[i].Accounts, targetAccount)
	}

	var grossRaw, minOutRaw uint64
	for _, q := range quotes {
		grossRaw += q.OutAmount
		minOutRaw += q.MinOutputAmount
	}

	payload := &entity.InstructionPayload{
		ProgramID:          s.programID,
		Wallet:             req.Wallet,
		TargetMint:         req.TargetMint,
		TargetTokenAccount: targetAccount,
		FeeAccount:         s.feeAccount,
		RecentBlockhash:    blockhash,
		IncludeDust:        req.IncludeDust,
		MinTokenValueCents: utils.UIToCents(req.MinDustValueUSD),
		MinOutputAmount:    minOutRaw,
		Legs:               legs,
	}

	if req.Bridge != nil {
		feeUSD, err := s.quoteBridgeLeg(ctx, req, quotes)
		if err != nil {
			return nil, err
		}
		feeRaw := grossRaw * uint64(s.feeBps) / 10000
		payload.Bridge = &entity.BridgeLeg{
			TargetChainID: req.Bridge.TargetChainID,
			Recipient:     req.Bridge.Recipient,
			Amount:        grossRaw - feeRaw,
			FeeUSD:        feeUSD,
			Nonce:         s.nonce(),
		}
	}

	return payload, nil
}

// quoteBridgeLeg prices the optional cross-chain leg over the net output.
func (s *liquidationServiceImpl) quoteBridgeLeg(ctx context.Context, req entity.PlanRequest, quotes []entity.SwapQuote) (float64, error) {
	if s.bridge == nil {
		return 0, &entity.ValidationError{Field: "bridge", Value: "", Reason: "bridging is not configured"}
	}

	var grossRaw uint64
	for _, q := range quotes {
		grossRaw += q.OutAmount
	}
	feeRaw := grossRaw * uint64(s.feeBps) / 10000

	feeUSD, err := s.bridge.QuoteBridge(ctx, req.TargetMint, grossRaw-feeRaw, req.Bridge.TargetChainID)
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("bridge").Inc()
		return 0, &entity.UpstreamError{Collaborator: "bridge provider", Err: err}
	}
	return feeUSD, nil
}
