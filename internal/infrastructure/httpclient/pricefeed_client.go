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

// priceFeedClient implements port.PriceFeedClient against the price feed
// API. A mint the feed has no signal for is a hard error; the resolver
// degrades it to the tagged neutral default.
type priceFeedClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewPriceFeedClient creates a price feed client.
func NewPriceFeedClient(baseURL string, timeout time.Duration) port.PriceFeedClient {
	return &priceFeedClient{
		baseURL:    baseURL,
		httpClient: newRetryClient(),
		timeout:    timeout,
	}
}

// LookupPrice fetches the unit USD price for one mint.
func (c *priceFeedClient) LookupPrice(ctx context.Context, mint string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestURL := fmt.Sprintf("%s/price?ids=%s", c.baseURL, mint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return 0, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logrus.Debugf("Fetching price from feed: %s", requestURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("error fetching price for %s: %w", mint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("price feed API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Data map[string]struct {
			Price float64 `json:"price"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("error decoding price feed response: %w", err)
	}

	entry, ok := response.Data[mint]
	if !ok {
		return 0, fmt.Errorf("no price signal for %s", mint)
	}
	return entry.Price, nil
}
