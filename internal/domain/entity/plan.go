package entity

import "encoding/json"

// Default liquidation parameters. The fee cap mirrors the on-chain program,
// which rejects fee updates above 500 basis points.
const (
	DefaultMinDustValueUSD = 1.0
	DefaultSlippageBps     = 50
	DefaultFeeBps          = 100
	MaxFeeBps              = 500
)

// BridgeRequest asks for the liquidation proceeds to be bridged to another
// chain after conversion.
type BridgeRequest struct {
	TargetChainID uint16 `json:"targetChainId"`
	// Recipient is the 32-byte recipient address on the target chain,
	// hex encoded.
	Recipient string `json:"recipient"`
}

// PlanRequest carries the parameters of a liquidation plan or simulation.
type PlanRequest struct {
	Wallet          string         `json:"wallet"`
	TargetMint      string         `json:"targetMint"`
	IncludeDust     bool           `json:"includeDust"`
	MinDustValueUSD float64        `json:"minDustValueUSD"`
	SlippageBps     int            `json:"slippageBps"`
	Bridge          *BridgeRequest `json:"bridge,omitempty"`
}

// Normalize fills zero-valued request fields with their defaults.
func (r *PlanRequest) Normalize() {
	if r.MinDustValueUSD <= 0 {
		r.MinDustValueUSD = DefaultMinDustValueUSD
	}
	if r.SlippageBps <= 0 {
		r.SlippageBps = DefaultSlippageBps
	}
}

// SwapQuote is one exchange-rate offer converting a holding's full balance
// into the target token.
type SwapQuote struct {
	InputMint       string  `json:"inputMint"`
	OutputMint      string  `json:"outputMint"`
	InAmount        uint64  `json:"inAmount"`
	OutAmount       uint64  `json:"outAmount"`
	OutputDecimals  uint8   `json:"outputDecimals"`
	FeeAmount       uint64  `json:"feeAmount"`
	MinOutputAmount uint64  `json:"minOutputAmount"`
	PriceImpactPct  float64 `json:"priceImpactPct,omitempty"`
	// Route is the provider's opaque route descriptor, passed through to
	// instruction assembly untouched.
	Route json.RawMessage `json:"route,omitempty"`
}

// RouteLeg is one ordered swap leg of the executable instruction payload.
type RouteLeg struct {
	Mint          string   `json:"mint"`
	SourceAccount string   `json:"sourceAccount"`
	Data          string   `json:"data"`
	Accounts      []string `json:"accounts"`
}

// InstructionPayload carries the ordered inputs the on-chain batch
// liquidation instruction is invoked with. Constructing it is the end of
// this system's responsibility; signing and submission are not.
type InstructionPayload struct {
	ProgramID          string     `json:"programId"`
	Wallet             string     `json:"wallet"`
	TargetMint         string     `json:"targetMint"`
	TargetTokenAccount string     `json:"targetTokenAccount"`
	FeeAccount         string     `json:"feeAccount"`
	RecentBlockhash    string     `json:"recentBlockhash"`
	IncludeDust        bool       `json:"includeDust"`
	MinTokenValueCents uint64     `json:"minTokenValueCents"`
	MinOutputAmount    uint64     `json:"minOutputAmount"`
	Legs               []RouteLeg `json:"legs"`
	Bridge             *BridgeLeg `json:"bridge,omitempty"`
}

// BridgeLeg describes the optional cross-chain leg appended to a plan.
type BridgeLeg struct {
	TargetChainID uint16  `json:"targetChainId"`
	Recipient     string  `json:"recipient"`
	Amount        uint64  `json:"amount"`
	FeeUSD        float64 `json:"feeUSD"`
	Nonce         uint64  `json:"nonce"`
}

// LiquidationPlan is the aggregated batch conversion plan for one wallet.
// Quotes appear in the same order as the holdings they were selected from.
type LiquidationPlan struct {
	Wallet        string              `json:"wallet"`
	TargetMint    string              `json:"targetMint"`
	Quotes        []SwapQuote         `json:"quotes"`
	GrossOutputUI float64             `json:"grossOutput"`
	PorgFeeUI     float64             `json:"porgFee"`
	NetOutputUI   float64             `json:"netOutput"`
	MinOutputUI   float64             `json:"minOutput"`
	FeeBps        int                 `json:"feeBps"`
	Warnings      []string            `json:"warnings,omitempty"`
	Payload       *InstructionPayload `json:"payload,omitempty"`
}

// SimulationResult is the dry-run counterpart of a LiquidationPlan: same
// selection, same quotes, same fee arithmetic, no executable payload.
type SimulationResult struct {
	Wallet        string         `json:"wallet"`
	TargetMint    string         `json:"targetMint"`
	Inputs        []TokenHolding `json:"inputs"`
	TotalInputUSD float64        `json:"totalInputUSD"`
	GrossOutputUI float64        `json:"grossOutput"`
	PorgFeeUI     float64        `json:"porgFee"`
	NetOutputUI   float64        `json:"netOutput"`
	MinOutputUI   float64        `json:"minOutput"`
	FeeBps        int            `json:"feeBps"`
	BridgeFeeUSD  float64        `json:"bridgeFeeUSD,omitempty"`
	Warnings      []string       `json:"warnings,omitempty"`
}
