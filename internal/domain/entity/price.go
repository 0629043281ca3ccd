package entity

import "time"

// Provenance tags where a resolved value came from, so downstream consumers
// can distinguish a real observation from a fallback.
type Provenance string

const (
	// ProvenanceFresh means the value was observed inside its freshness window.
	ProvenanceFresh Provenance = "fresh"
	// ProvenanceStale means the value came from an expired in-memory entry
	// after the origin failed.
	ProvenanceStale Provenance = "stale"
	// ProvenanceDefault means no value was available at all and a neutral
	// placeholder was substituted.
	ProvenanceDefault Provenance = "default"
)

// PriceEntry is one observed unit price for a token, in USD.
type PriceEntry struct {
	Mint       string    `json:"mint"`
	PriceUSD   float64   `json:"priceUSD"`
	ObservedAt time.Time `json:"observedAt"`
}

// PriceQuote is the result of a price resolution, value plus provenance.
type PriceQuote struct {
	Mint     string     `json:"mint"`
	PriceUSD float64    `json:"priceUSD"`
	State    Provenance `json:"state"`
}

// MetadataEntry holds display metadata for a token mint. Decimals never
// change for a deployed mint, so entries are treated as immutable and are
// cached without any freshness window.
type MetadataEntry struct {
	Mint     string `json:"mint"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Icon     string `json:"icon,omitempty"`
	Decimals uint8  `json:"decimals"`
}

const (
	// UnknownSymbol is the sentinel symbol used when the token registry has
	// no record for a mint. Metadata absence must never block a valuation.
	UnknownSymbol = "UNKNOWN"
	// DefaultDecimals is the decimal precision assumed for unknown mints.
	DefaultDecimals uint8 = 9
)

// UnknownMetadata returns the sentinel metadata entry for an unresolvable mint.
func UnknownMetadata(mint string) MetadataEntry {
	return MetadataEntry{
		Mint:     mint,
		Symbol:   UnknownSymbol,
		Name:     UnknownSymbol,
		Decimals: DefaultDecimals,
	}
}
