// Package chain implements the read-only Solana JSON-RPC collaborator.
package chain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"porg/internal/app/port"
	"porg/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// tokenProgramID is the SPL token program owning all token accounts we
// enumerate.
const tokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// SolanaClient implements port.ChainClient over plain JSON-RPC. Each call is
// tried against the primary endpoint first and then the fallbacks in order.
type SolanaClient struct {
	client  *fasthttp.Client
	rpcURLs []string
	timeout time.Duration
	logger  *zap.Logger
}

// NewSolanaClient creates a chain client for the given endpoints.
func NewSolanaClient(rpcURL string, fallbackURLs []string, timeout time.Duration, logger *zap.Logger) port.ChainClient {
	urls := append([]string{strings.TrimRight(rpcURL, "/")}, fallbackURLs...)
	return &SolanaClient{
		client:  &fasthttp.Client{},
		rpcURLs: urls,
		timeout: timeout,
		logger:  logger.Named("SolanaClient"),
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result jsoniter.RawMessage `json:"result"`
	Error  *rpcError           `json:"error"`
}

// call executes one JSON-RPC method, decoding the result into out. Endpoints
// are tried in order; the last error wins.
func (c *SolanaClient) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	var lastErr error
	for _, rpcURL := range c.rpcURLs {
		result, err := c.post(ctx, rpcURL, body)
		if err != nil {
			c.logger.Warn("RPC call failed, trying next endpoint",
				zap.String("method", method), zap.String("url", rpcURL), zap.Error(err))
			lastErr = err
			continue
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(result, out); err != nil {
			return fmt.Errorf("failed to unmarshal %s result: %w", method, err)
		}
		return nil
	}
	return fmt.Errorf("all RPC endpoints failed for %s: %w", method, lastErr)
}

func (c *SolanaClient) post(ctx context.Context, rpcURL string, body []byte) (jsoniter.RawMessage, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(rpcURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("failed to execute request to %s: %w", rpcURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			return nil, fmt.Errorf("failed to execute request to %s with default timeout: %w", rpcURL, err)
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("RPC request to %s failed with status %d: %s", rpcURL, resp.StatusCode(), string(resp.Body()))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(resp.Body(), &rpcResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal RPC envelope: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("RPC error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	return rpcResp.Result, nil
}

type tokenAmount struct {
	Amount   string `json:"amount"`
	Decimals uint8  `json:"decimals"`
}

type tokenAccountsResult struct {
	Value []struct {
		Pubkey  string `json:"pubkey"`
		Account struct {
			Data struct {
				Parsed struct {
					Info struct {
						Mint        string      `json:"mint"`
						TokenAmount tokenAmount `json:"tokenAmount"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"account"`
	} `json:"value"`
}

// ListHoldings enumerates every token account of the wallet, including zero
// balances.
func (c *SolanaClient) ListHoldings(ctx context.Context, wallet string) ([]entity.RawHolding, error) {
	var result tokenAccountsResult
	params := []interface{}{
		wallet,
		map[string]interface{}{"programId": tokenProgramID},
		map[string]interface{}{"encoding": "jsonParsed"},
	}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return nil, err
	}

	holdings := make([]entity.RawHolding, 0, len(result.Value))
	for _, acc := range result.Value {
		info := acc.Account.Data.Parsed.Info
		raw, err := strconv.ParseUint(info.TokenAmount.Amount, 10, 64)
		if err != nil {
			c.logger.Warn("Skipping token account with unparseable amount",
				zap.String("account", acc.Pubkey), zap.String("amount", info.TokenAmount.Amount))
			continue
		}
		holdings = append(holdings, entity.RawHolding{
			Mint:       info.Mint,
			RawBalance: raw,
			Decimals:   info.TokenAmount.Decimals,
		})
	}

	c.logger.Debug("Listed wallet holdings", zap.String("wallet", wallet), zap.Int("count", len(holdings)))
	return holdings, nil
}

// FindTokenAccount resolves the token account holding mint for owner. The
// account with the highest balance wins when the owner holds several.
func (c *SolanaClient) FindTokenAccount(ctx context.Context, owner, mint string) (string, error) {
	var result tokenAccountsResult
	params := []interface{}{
		owner,
		map[string]interface{}{"mint": mint},
		map[string]interface{}{"encoding": "jsonParsed"},
	}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &result); err != nil {
		return "", err
	}
	if len(result.Value) == 0 {
		return "", &entity.NotFoundError{What: "token account for mint " + mint}
	}

	best := result.Value[0]
	bestAmount, _ := strconv.ParseUint(best.Account.Data.Parsed.Info.TokenAmount.Amount, 10, 64)
	for _, acc := range result.Value[1:] {
		amount, _ := strconv.ParseUint(acc.Account.Data.Parsed.Info.TokenAmount.Amount, 10, 64)
		if amount > bestAmount {
			best, bestAmount = acc, amount
		}
	}
	return best.Pubkey, nil
}

// LatestBlockhash returns a recent blockhash for transaction assembly.
func (c *SolanaClient) LatestBlockhash(ctx context.Context) (string, error) {
	var result struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	params := []interface{}{map[string]interface{}{"commitment": "finalized"}}
	if err := c.call(ctx, "getLatestBlockhash", params, &result); err != nil {
		return "", err
	}
	return result.Value.Blockhash, nil
}

type transactionResult struct {
	Slot        uint64 `json:"slot"`
	BlockTime   *int64 `json:"blockTime"`
	Transaction struct {
		Message struct {
			AccountKeys []struct {
				Pubkey string `json:"pubkey"`
				Signer bool   `json:"signer"`
			} `json:"accountKeys"`
			Instructions []struct {
				ProgramID string   `json:"programId"`
				Accounts  []string `json:"accounts"`
				Data      string   `json:"data"`
			} `json:"instructions"`
		} `json:"message"`
	} `json:"transaction"`
	Meta *struct {
		Err               interface{}    `json:"err"`
		Fee               uint64         `json:"fee"`
		PreTokenBalances  []tokenBalance `json:"preTokenBalances"`
		PostTokenBalances []tokenBalance `json:"postTokenBalances"`
	} `json:"meta"`
}

type tokenBalance struct {
	AccountIndex  int         `json:"accountIndex"`
	Mint          string      `json:"mint"`
	Owner         string      `json:"owner"`
	UITokenAmount tokenAmount `json:"uiTokenAmount"`
}

// GetTransaction fetches a finalized transaction by signature and flattens it
// into the classifier's view: instructions plus net token deltas per
// (mint, owner) pair.
func (c *SolanaClient) GetTransaction(ctx context.Context, signature string) (*entity.ChainTransaction, error) {
	var result *transactionResult
	params := []interface{}{
		signature,
		map[string]interface{}{"encoding": "jsonParsed", "maxSupportedTransactionVersion": 0},
	}
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, &entity.NotFoundError{What: "transaction " + signature}
	}

	tx := &entity.ChainTransaction{
		Signature: signature,
		Slot:      result.Slot,
	}
	if result.BlockTime != nil {
		tx.BlockTime = time.Unix(*result.BlockTime, 0).UTC()
	}
	for _, key := range result.Transaction.Message.AccountKeys {
		if key.Signer {
			tx.FeePayer = key.Pubkey
			break
		}
	}
	for _, ins := range result.Transaction.Message.Instructions {
		tx.Instructions = append(tx.Instructions, entity.InstructionInfo{
			ProgramID: ins.ProgramID,
			Accounts:  ins.Accounts,
			Data:      ins.Data,
		})
	}
	if result.Meta != nil {
		tx.Failed = result.Meta.Err != nil
		tx.FeeLamports = result.Meta.Fee
		tx.TokenDeltas = tokenDeltas(result.Meta.PreTokenBalances, result.Meta.PostTokenBalances)
	}
	return tx, nil
}

// tokenDeltas nets post minus pre balances per (mint, owner) pair. Pairs with
// a zero net change are dropped.
func tokenDeltas(pre, post []tokenBalance) []entity.TokenDelta {
	type pairKey struct{ mint, owner string }
	type pairAcc struct {
		delta     entity.TokenDelta
		pre, post uint64
	}

	accs := make(map[pairKey]*pairAcc)
	order := make([]pairKey, 0, len(post))

	// Amounts are u64 strings and can exceed int64, so pre and post sides
	// accumulate unsigned and are netted at the end.
	upsert := func(b tokenBalance, isPost bool) {
		amount, err := strconv.ParseUint(b.UITokenAmount.Amount, 10, 64)
		if err != nil {
			return
		}
		key := pairKey{b.Mint, b.Owner}
		a, ok := accs[key]
		if !ok {
			a = &pairAcc{delta: entity.TokenDelta{Mint: b.Mint, Owner: b.Owner, Decimals: b.UITokenAmount.Decimals}}
			accs[key] = a
			order = append(order, key)
		}
		if isPost {
			a.post += amount
		} else {
			a.pre += amount
		}
	}

	for _, b := range pre {
		upsert(b, false)
	}
	for _, b := range post {
		upsert(b, true)
	}

	out := make([]entity.TokenDelta, 0, len(order))
	for _, key := range order {
		a := accs[key]
		switch {
		case a.post == a.pre:
		case a.post > a.pre:
			a.delta.RawDelta = int64(a.post - a.pre)
			out = append(out, a.delta)
		default:
			a.delta.RawDelta = -int64(a.pre - a.post)
			out = append(out, a.delta)
		}
	}
	return out
}
