package entity

import "time"

// TransactionType classifies how a finalized transaction relates to the
// protocol.
type TransactionType string

const (
	TxLiquidate          TransactionType = "liquidate"
	TxBridge             TransactionType = "bridge"
	TxLiquidateAndBridge TransactionType = "liquidate_and_bridge"
	TxUnknown            TransactionType = "unknown"
)

// TransactionStatus is the finality outcome of an observed transaction.
type TransactionStatus string

const (
	TxConfirmed TransactionStatus = "confirmed"
	TxFailed    TransactionStatus = "failed"
)

// InstructionInfo is one program invocation inside a finalized transaction.
type InstructionInfo struct {
	ProgramID string   `json:"programId"`
	Accounts  []string `json:"accounts,omitempty"`
	Data      string   `json:"data,omitempty"`
}

// TokenDelta is the net raw balance change of one (mint, owner) pair across
// a transaction. Negative deltas are outflows.
type TokenDelta struct {
	Mint     string `json:"mint"`
	Owner    string `json:"owner"`
	Decimals uint8  `json:"decimals"`
	RawDelta int64  `json:"rawDelta"`
}

// ChainTransaction is the finalized on-chain transaction view the classifier
// consumes. The chain collaborator produces it; the classifier never talks
// to the chain directly.
type ChainTransaction struct {
	Signature    string            `json:"signature"`
	Slot         uint64            `json:"slot"`
	BlockTime    time.Time         `json:"blockTime"`
	FeePayer     string            `json:"feePayer"`
	FeeLamports  uint64            `json:"feeLamports"`
	Failed       bool              `json:"failed"`
	Instructions []InstructionInfo `json:"instructions"`
	TokenDeltas  []TokenDelta      `json:"tokenDeltas"`
}

// TokenLeg is one token movement extracted from a classified transaction.
type TokenLeg struct {
	Mint     string  `json:"mint"`
	Amount   uint64  `json:"amount"`
	Decimals uint8   `json:"decimals"`
	UIAmount float64 `json:"uiAmount"`
}

// BridgeRecord is the cross-chain leg extracted from a classified
// transaction, when one is present.
type BridgeRecord struct {
	TargetChainID uint16 `json:"targetChainId"`
	Recipient     string `json:"recipient,omitempty"`
	Amount        uint64 `json:"amount"`
}

// TransactionRecord is the stored classification result for one signature.
// The signature is the natural key; re-classifying the same transaction
// upserts the same row.
type TransactionRecord struct {
	Signature   string            `json:"signature"`
	Wallet      string            `json:"wallet"`
	Type        TransactionType   `json:"type"`
	Status      TransactionStatus `json:"status"`
	BlockTime   time.Time         `json:"blockTime"`
	FeeLamports uint64            `json:"feeLamports"`
	InputLegs   []TokenLeg        `json:"inputLegs,omitempty"`
	OutputLeg   *TokenLeg         `json:"outputLeg,omitempty"`
	Bridge      *BridgeRecord     `json:"bridge,omitempty"`
}
