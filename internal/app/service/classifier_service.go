package service

import (
	"context"
	"encoding/base64"
	"encoding/binary"

	"porg/internal/app/port"
	"porg/internal/domain/entity"
	"porg/internal/pkg/metrics"
	"porg/internal/pkg/utils"
)

// classifierServiceImpl implements port.ClassifierService. It decides
// whether a finalized transaction originated from the protocol and, if so,
// extracts a structured record for history storage.
type classifierServiceImpl struct {
	chain           port.ChainClient
	store           port.Store
	programID       string
	bridgeProgramID string
	logger          port.Logger
}

// NewClassifierService creates a new transaction classifier.
func NewClassifierService(chain port.ChainClient, store port.Store, programID, bridgeProgramID string, logger port.Logger) port.ClassifierService {
	return &classifierServiceImpl{
		chain:           chain,
		store:           store,
		programID:       programID,
		bridgeProgramID: bridgeProgramID,
		logger:          logger,
	}
}

// Classify builds a TransactionRecord from a finalized transaction and
// upserts it keyed by signature, so re-observation is a no-op in effect.
func (s *classifierServiceImpl) Classify(ctx context.Context, tx entity.ChainTransaction) (entity.TransactionRecord, error) {
	rec := entity.TransactionRecord{
		Signature:   tx.Signature,
		Wallet:      tx.FeePayer,
		Type:        entity.TxUnknown,
		Status:      entity.TxConfirmed,
		BlockTime:   tx.BlockTime,
		FeeLamports: tx.FeeLamports,
	}
	if tx.Failed {
		rec.Status = entity.TxFailed
	}

	if s.referencesProgram(tx, s.programID) {
		s.parseProtocolTransaction(tx, &rec)
	}

	if err := s.store.UpsertTransaction(ctx, rec); err != nil {
		metrics.UpstreamFailures.WithLabelValues("store").Inc()
		return entity.TransactionRecord{}, &entity.UpstreamError{Collaborator: "store", Err: err}
	}

	metrics.TransactionsClassified.WithLabelValues(string(rec.Type)).Inc()
	s.logger.Debug("Transaction classified", "signature", rec.Signature, "type", rec.Type, "status", rec.Status)
	return rec, nil
}

// ClassifySignature fetches the transaction from the chain first.
func (s *classifierServiceImpl) ClassifySignature(ctx context.Context, signature string) (entity.TransactionRecord, error) {
	tx, err := s.chain.GetTransaction(ctx, signature)
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("chain").Inc()
		return entity.TransactionRecord{}, &entity.UpstreamError{Collaborator: "chain", Err: err}
	}
	if tx == nil {
		return entity.TransactionRecord{}, &entity.NotFoundError{What: "transaction " + signature}
	}
	return s.Classify(ctx, *tx)
}

func (s *classifierServiceImpl) referencesProgram(tx entity.ChainTransaction, programID string) bool {
	for _, in := range tx.Instructions {
		if in.ProgramID == programID {
			return true
		}
	}
	return false
}

// parseProtocolTransaction fills the record's type and token legs for a
// transaction known to invoke the protocol program.
func (s *classifierServiceImpl) parseProtocolTransaction(tx entity.ChainTransaction, rec *entity.TransactionRecord) {
	inputs, output := extractLegs(tx)
	rec.InputLegs = inputs
	rec.OutputLeg = output

	bridged := s.bridgeProgramID != "" && s.referencesProgram(tx, s.bridgeProgramID)
	switch {
	case bridged && len(inputs) > 0:
		rec.Type = entity.TxLiquidateAndBridge
	case bridged:
		rec.Type = entity.TxBridge
	default:
		rec.Type = entity.TxLiquidate
	}

	if bridged {
		rec.Bridge = s.extractBridgeLeg(tx, output)
	}
}

// extractLegs derives token legs from the fee payer's net balance deltas:
// outflows are input legs, the largest inflow is the output leg.
func extractLegs(tx entity.ChainTransaction) ([]entity.TokenLeg, *entity.TokenLeg) {
	var inputs []entity.TokenLeg
	var output *entity.TokenLeg

	for _, d := range tx.TokenDeltas {
		if d.Owner != tx.FeePayer || d.RawDelta == 0 {
			continue
		}
		if d.RawDelta < 0 {
			amount := uint64(-d.RawDelta)
			inputs = append(inputs, entity.TokenLeg{
				Mint:     d.Mint,
				Amount:   amount,
				Decimals: d.Decimals,
				UIAmount: utils.RawToUI(amount, d.Decimals),
			})
			continue
		}
		amount := uint64(d.RawDelta)
		if output == nil || amount > output.Amount {
			output = &entity.TokenLeg{
				Mint:     d.Mint,
				Amount:   amount,
				Decimals: d.Decimals,
				UIAmount: utils.RawToUI(amount, d.Decimals),
			}
		}
	}
	return inputs, output
}

// extractBridgeLeg decodes the bridge instruction's argument block: an
// 8-byte discriminator, then amount (u64 LE) and target chain (u16 LE).
// Undecodable data yields a leg with the transferred amount only.
func (s *classifierServiceImpl) extractBridgeLeg(tx entity.ChainTransaction, output *entity.TokenLeg) *entity.BridgeRecord {
	leg := &entity.BridgeRecord{}
	if output != nil {
		leg.Amount = output.Amount
	}

	for _, in := range tx.Instructions {
		if in.ProgramID != s.bridgeProgramID || in.Data == "" {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(in.Data)
		if err != nil || len(raw) < 18 {
			s.logger.Debug("Bridge instruction data not decodable", "signature", tx.Signature)
			continue
		}
		leg.Amount = binary.LittleEndian.Uint64(raw[8:16])
		leg.TargetChainID = binary.LittleEndian.Uint16(raw[16:18])
		break
	}
	return leg
}
