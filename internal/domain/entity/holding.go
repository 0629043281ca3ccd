package entity

import "time"

// RawHolding is an unvalued token position as enumerated by the chain
// collaborator: mint, raw balance, and on-chain decimal precision only.
type RawHolding struct {
	Mint       string `json:"mint"`
	RawBalance uint64 `json:"rawBalance"`
	Decimals   uint8  `json:"decimals"`
}

// TokenHolding represents a single valued token position inside a wallet.
// Instances are built once per valuation pass and are not mutated afterwards.
type TokenHolding struct {
	Mint       string     `json:"mint"`
	Symbol     string     `json:"symbol"`
	Name       string     `json:"name"`
	Icon       string     `json:"icon,omitempty"`
	Decimals   uint8      `json:"decimals"`
	RawBalance uint64     `json:"rawBalance"`
	Balance    float64    `json:"balance"`
	PriceUSD   float64    `json:"priceUSD"`
	ValueUSD   float64    `json:"valueUSD"`
	Percent    float64    `json:"percent"`
	PriceState Provenance `json:"priceState"`
}

// Portfolio aggregates the valued holdings of one wallet.
// Holdings are sorted descending by ValueUSD.
type Portfolio struct {
	Wallet        string         `json:"wallet"`
	TotalValueUSD float64        `json:"totalValueUSD"`
	Holdings      []TokenHolding `json:"holdings"`
	FetchedAt     time.Time      `json:"fetchedAt"`
	// Warnings lists holdings whose price came from a stale or default
	// source, so callers can tell a real valuation from a degraded one.
	Warnings []string `json:"warnings,omitempty"`
}

// Clone returns a copy whose Holdings and Warnings do not share backing
// arrays with the receiver. TokenHolding itself is a plain value type, so a
// shallow slice copy is a full copy.
func (p Portfolio) Clone() Portfolio {
	p.Holdings = append([]TokenHolding(nil), p.Holdings...)
	p.Warnings = append([]string(nil), p.Warnings...)
	return p
}

// Holding returns the holding for the given mint, if the portfolio contains it.
func (p *Portfolio) Holding(mint string) (TokenHolding, bool) {
	for _, h := range p.Holdings {
		if h.Mint == mint {
			return h, true
		}
	}
	return TokenHolding{}, false
}
