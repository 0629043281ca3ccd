// Package httpclient implements the outbound HTTP collaborators: swap
// quotes, token registry, price feed, and bridge quotes.
package httpclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"porg/internal/app/port"
	"porg/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jupiterClient implements port.QuoteClient against the Jupiter quote API.
// Requests are rate limited client-side so a quote fan-out cannot trip the
// provider's throttling.
type jupiterClient struct {
	client   *fasthttp.Client
	baseURL  string
	timeout  time.Duration
	limiter  *rate.Limiter
	metadata port.MetadataResolver
	logger   *zap.Logger
}

// NewJupiterClient creates a quote client. metadata supplies output token
// decimals, which the quote response itself does not carry.
func NewJupiterClient(baseURL string, timeout time.Duration, ratePerSecond float64, burst int, metadata port.MetadataResolver, logger *zap.Logger) port.QuoteClient {
	return &jupiterClient{
		client:   &fasthttp.Client{},
		baseURL:  strings.TrimRight(baseURL, "/"),
		timeout:  timeout,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		metadata: metadata,
		logger:   logger.Named("JupiterClient"),
	}
}

type jupiterQuoteResponse struct {
	InputMint            string `json:"inputMint"`
	InAmount             string `json:"inAmount"`
	OutputMint           string `json:"outputMint"`
	OutAmount            string `json:"outAmount"`
	OtherAmountThreshold string `json:"otherAmountThreshold"`
	PriceImpactPct       string `json:"priceImpactPct"`
	PlatformFee          *struct {
		Amount string `json:"amount"`
	} `json:"platformFee"`
}

// Quote implements port.QuoteClient.
func (c *jupiterClient) Quote(ctx context.Context, inputMint, outputMint string, rawAmount uint64, slippageBps int) (entity.SwapQuote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return entity.SwapQuote{}, fmt.Errorf("rate limit wait aborted: %w", err)
	}

	requestURL := fmt.Sprintf("%s/quote?inputMint=%s&outputMint=%s&amount=%d&slippageBps=%d",
		c.baseURL, inputMint, outputMint, rawAmount, slippageBps)

	c.logger.Debug("Requesting swap quote", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return entity.SwapQuote{}, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			return entity.SwapQuote{}, fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Quote API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return entity.SwapQuote{}, fmt.Errorf("quote API request to %s failed with status %d: %s", requestURL, resp.StatusCode(), string(rawBody))
	}

	var quoteResp jupiterQuoteResponse
	if err := json.Unmarshal(rawBody, &quoteResp); err != nil {
		return entity.SwapQuote{}, fmt.Errorf("failed to unmarshal quote response: %w", err)
	}

	outAmount, err := strconv.ParseUint(quoteResp.OutAmount, 10, 64)
	if err != nil {
		return entity.SwapQuote{}, fmt.Errorf("failed to parse outAmount %q: %w", quoteResp.OutAmount, err)
	}
	minOut, err := strconv.ParseUint(quoteResp.OtherAmountThreshold, 10, 64)
	if err != nil {
		return entity.SwapQuote{}, fmt.Errorf("failed to parse otherAmountThreshold %q: %w", quoteResp.OtherAmountThreshold, err)
	}

	quote := entity.SwapQuote{
		InputMint:       inputMint,
		OutputMint:      outputMint,
		InAmount:        rawAmount,
		OutAmount:       outAmount,
		OutputDecimals:  c.metadata.Resolve(ctx, outputMint).Decimals,
		MinOutputAmount: minOut,
		Route:           append([]byte(nil), rawBody...),
	}
	if quoteResp.PriceImpactPct != "" {
		quote.PriceImpactPct, _ = strconv.ParseFloat(quoteResp.PriceImpactPct, 64)
	}
	if quoteResp.PlatformFee != nil {
		quote.FeeAmount, _ = strconv.ParseUint(quoteResp.PlatformFee.Amount, 10, 64)
	}
	return quote, nil
}
