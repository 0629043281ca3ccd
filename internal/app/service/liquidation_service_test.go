package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"porg/internal/app/port"
	"porg/internal/domain/entity"
)

// Portfolio fixture: SOL $5, USDC $2, DUST $0.30 (dust under the default
// $1 threshold).
func testPortfolio() entity.Portfolio {
	return entity.Portfolio{
		Wallet:        testWallet,
		TotalValueUSD: 7.30,
		Holdings: []entity.TokenHolding{
			{Mint: solMint, Symbol: "SOL", Decimals: 9, RawBalance: 50_000_000, Balance: 0.05, PriceUSD: 100, ValueUSD: 5, PriceState: entity.ProvenanceFresh},
			{Mint: usdcMint, Symbol: "USDC", Decimals: 6, RawBalance: 2_000_000, Balance: 2, PriceUSD: 1, ValueUSD: 2, PriceState: entity.ProvenanceFresh},
			{Mint: dustMint, Symbol: "DUST", Decimals: 9, RawBalance: 300_000_000, Balance: 0.3, PriceUSD: 1, ValueUSD: 0.3, PriceState: entity.ProvenanceFresh},
		},
	}
}

// Quotes denominated in USDC (6 decimals): SOL nets 4.95, DUST nets 0.295.
func testQuoter() *fakeQuoter {
	return &fakeQuoter{quotes: map[string]entity.SwapQuote{
		solMint:  {OutAmount: 4_950_000, MinOutputAmount: 4_925_250, OutputDecimals: 6, Route: []byte(`{"leg":"sol"}`)},
		dustMint: {OutAmount: 295_000, MinOutputAmount: 293_525, OutputDecimals: 6, Route: []byte(`{"leg":"dust"}`)},
	}}
}

func testAccounts() map[string]string {
	return map[string]string{
		testWallet + ":" + solMint:  "SoLAccnt111111111111111111111111111111111111",
		testWallet + ":" + usdcMint: "UsdcAccnt11111111111111111111111111111111111",
		testWallet + ":" + dustMint: "DustAccnt11111111111111111111111111111111111",
	}
}

func newTestPlanner(quoter *fakeQuoter, bridger *fakeBridger) *liquidationServiceImpl {
	chain := &fakeChain{tokenAccounts: testAccounts(), blockhash: "BLHash1111111111111111111111111111111111111"}
	valuator := &fakeValuator{portfolio: testPortfolio()}
	var bridge port.BridgeClient
	if bridger != nil {
		bridge = bridger
	}
	nonce := uint64(0)
	svc := NewLiquidationService(valuator, quoter, bridge, chain, 100, "FeeAccnt111111111111111111111111111111111111",
		"Prog11111111111111111111111111111111111111", 4, func() uint64 { nonce++; return nonce }, nopLogger{})
	return svc.(*liquidationServiceImpl)
}

func TestPlanExcludesDustByDefault(t *testing.T) {
	quoter := testQuoter()
	svc := newTestPlanner(quoter, nil)

	plan, err := svc.Plan(context.Background(), entity.PlanRequest{Wallet: testWallet, TargetMint: usdcMint})
	require.NoError(t, err)

	// Only SOL qualifies: USDC is the target, DUST is under the threshold.
	require.Len(t, plan.Quotes, 1)
	assert.Equal(t, solMint, plan.Quotes[0].InputMint)
	assert.ElementsMatch(t, []string{solMint}, quoter.calls)

	assert.InDelta(t, 4.95, plan.GrossOutputUI, 1e-9)
	assert.InDelta(t, 0.0495, plan.PorgFeeUI, 1e-9)
	assert.InDelta(t, 4.9005, plan.NetOutputUI, 1e-9)
	assert.Equal(t, 100, plan.FeeBps)
}

func TestPlanIncludesDustOnRequest(t *testing.T) {
	svc := newTestPlanner(testQuoter(), nil)

	plan, err := svc.Plan(context.Background(), entity.PlanRequest{
		Wallet: testWallet, TargetMint: usdcMint, IncludeDust: true,
	})
	require.NoError(t, err)

	// Selection keeps portfolio order: SOL before DUST.
	require.Len(t, plan.Quotes, 2)
	assert.Equal(t, solMint, plan.Quotes[0].InputMint)
	assert.Equal(t, dustMint, plan.Quotes[1].InputMint)

	// gross 5.245, fee at 100 bps, net is the remainder.
	assert.InDelta(t, 5.245, plan.GrossOutputUI, 1e-9)
	assert.InDelta(t, 0.05245, plan.PorgFeeUI, 1e-9)
	assert.InDelta(t, 5.19255, plan.NetOutputUI, 1e-9)
}

func TestPlanPayloadAssembly(t *testing.T) {
	svc := newTestPlanner(testQuoter(), nil)

	plan, err := svc.Plan(context.Background(), entity.PlanRequest{Wallet: testWallet, TargetMint: usdcMint})
	require.NoError(t, err)
	require.NotNil(t, plan.Payload)

	p := plan.Payload
	assert.Equal(t, testWallet, p.Wallet)
	assert.Equal(t, usdcMint, p.TargetMint)
	assert.Equal(t, "UsdcAccnt11111111111111111111111111111111111", p.TargetTokenAccount)
	assert.Equal(t, "BLHash1111111111111111111111111111111111111", p.RecentBlockhash)
	assert.Equal(t, uint64(100), p.MinTokenValueCents) // $1.00 default threshold
	assert.Equal(t, uint64(4_925_250), p.MinOutputAmount)

	require.Len(t, p.Legs, 1)
	leg := p.Legs[0]
	assert.Equal(t, solMint, leg.Mint)
	assert.Equal(t, "SoLAccnt111111111111111111111111111111111111", leg.SourceAccount)
	assert.NotEmpty(t, leg.Data)
	assert.Equal(t, []string{"SoLAccnt111111111111111111111111111111111111", "UsdcAccnt11111111111111111111111111111111111"}, leg.Accounts)
	assert.Nil(t, p.Bridge)
}

func TestPlanWithBridgeLeg(t *testing.T) {
	svc := newTestPlanner(testQuoter(), &fakeBridger{feeUSD: 0.12})

	plan, err := svc.Plan(context.Background(), entity.PlanRequest{
		Wallet:     testWallet,
		TargetMint: usdcMint,
		Bridge:     &entity.BridgeRequest{TargetChainID: 2, Recipient: "0x" + "ab"},
	})
	require.NoError(t, err)
	require.NotNil(t, plan.Payload)
	require.NotNil(t, plan.Payload.Bridge)

	b := plan.Payload.Bridge
	assert.Equal(t, uint16(2), b.TargetChainID)
	// Bridged amount is gross minus the protocol fee, in raw units.
	assert.Equal(t, uint64(4_950_000-49_500), b.Amount)
	assert.InDelta(t, 0.12, b.FeeUSD, 1e-9)
	assert.Equal(t, uint64(1), b.Nonce)
}

func TestPlanBridgeUnconfigured(t *testing.T) {
	svc := newTestPlanner(testQuoter(), nil)
	svc.bridge = nil

	_, err := svc.Plan(context.Background(), entity.PlanRequest{
		Wallet:     testWallet,
		TargetMint: usdcMint,
		Bridge:     &entity.BridgeRequest{TargetChainID: 2},
	})
	require.Error(t, err)
	assert.True(t, entity.IsValidation(err))
}

func TestPlanNothingToLiquidate(t *testing.T) {
	svc := newTestPlanner(testQuoter(), nil)
	svc.valuator = &fakeValuator{portfolio: entity.Portfolio{
		Holdings: []entity.TokenHolding{
			{Mint: usdcMint, ValueUSD: 2}, // target only
		},
	}}

	_, err := svc.Plan(context.Background(), entity.PlanRequest{Wallet: testWallet, TargetMint: usdcMint})
	require.Error(t, err)
	assert.True(t, entity.IsNotFound(err))
}

func TestPlanQuoteFailureIsUpstream(t *testing.T) {
	quoter := testQuoter()
	quoter.err = assert.AnError
	svc := newTestPlanner(quoter, nil)

	_, err := svc.Plan(context.Background(), entity.PlanRequest{Wallet: testWallet, TargetMint: usdcMint})
	require.Error(t, err)
	assert.True(t, entity.IsUpstream(err))
}

func TestPlanRejectsMalformedAddresses(t *testing.T) {
	svc := newTestPlanner(testQuoter(), nil)

	_, err := svc.Plan(context.Background(), entity.PlanRequest{Wallet: "bad", TargetMint: usdcMint})
	assert.True(t, entity.IsValidation(err))

	_, err = svc.Plan(context.Background(), entity.PlanRequest{Wallet: testWallet, TargetMint: "bad"})
	assert.True(t, entity.IsValidation(err))
}

func TestSimulateMatchesPlanTotals(t *testing.T) {
	svc := newTestPlanner(testQuoter(), nil)
	req := entity.PlanRequest{Wallet: testWallet, TargetMint: usdcMint, IncludeDust: true}

	plan, err := svc.Plan(context.Background(), req)
	require.NoError(t, err)
	sim, err := svc.Simulate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, plan.GrossOutputUI, sim.GrossOutputUI)
	assert.Equal(t, plan.PorgFeeUI, sim.PorgFeeUI)
	assert.Equal(t, plan.NetOutputUI, sim.NetOutputUI)
	assert.Equal(t, plan.MinOutputUI, sim.MinOutputUI)

	require.Len(t, sim.Inputs, 2)
	assert.InDelta(t, 5.30, sim.TotalInputUSD, 1e-9)
}

func TestSimulateReportsBridgeFee(t *testing.T) {
	svc := newTestPlanner(testQuoter(), &fakeBridger{feeUSD: 0.25})

	sim, err := svc.Simulate(context.Background(), entity.PlanRequest{
		Wallet:     testWallet,
		TargetMint: usdcMint,
		Bridge:     &entity.BridgeRequest{TargetChainID: 5},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, sim.BridgeFeeUSD, 1e-9)
}

func TestPlanWarnsOnDegradedPrices(t *testing.T) {
	svc := newTestPlanner(testQuoter(), nil)
	portfolio := testPortfolio()
	portfolio.Holdings[0].PriceState = entity.ProvenanceStale
	svc.valuator = &fakeValuator{portfolio: portfolio}

	plan, err := svc.Plan(context.Background(), entity.PlanRequest{Wallet: testWallet, TargetMint: usdcMint})
	require.NoError(t, err)
	assert.NotEmpty(t, plan.Warnings)
}

func TestCustomDustThreshold(t *testing.T) {
	svc := newTestPlanner(testQuoter(), nil)

	// With a $0.25 threshold DUST ($0.30) is no longer dust.
	plan, err := svc.Plan(context.Background(), entity.PlanRequest{
		Wallet: testWallet, TargetMint: usdcMint, MinDustValueUSD: 0.25,
	})
	require.NoError(t, err)
	assert.Len(t, plan.Quotes, 2)
	assert.Equal(t, uint64(25), plan.Payload.MinTokenValueCents)
}
