package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"porg/internal/app/port"
)

// bridgeClient implements port.BridgeClient against the bridge relayer fee
// API.
type bridgeClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewBridgeClient creates a bridge quote client.
func NewBridgeClient(baseURL string, timeout time.Duration) port.BridgeClient {
	return &bridgeClient{
		baseURL:    baseURL,
		httpClient: newRetryClient(),
		timeout:    timeout,
	}
}

// QuoteBridge prices bridging rawAmount of mint to targetChainID and returns
// the relayer fee in USD.
func (c *bridgeClient) QuoteBridge(ctx context.Context, mint string, rawAmount uint64, targetChainID uint16) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestURL := fmt.Sprintf("%s/v1/quote?mint=%s&amount=%d&targetChain=%d", c.baseURL, mint, rawAmount, targetChainID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return 0, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logrus.Debugf("Fetching bridge quote: %s", requestURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("error fetching bridge quote for %s: %w", mint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("bridge API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var response struct {
		FeeUSD float64 `json:"feeUsd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("error decoding bridge quote response: %w", err)
	}
	return response.FeeUSD, nil
}
