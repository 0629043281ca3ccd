package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"porg/internal/app/port"
	"porg/internal/domain/entity"
)

// registryClient implements port.RegistryClient against the token registry
// API. Lookups retry transient failures; a token absent from the registry is
// a hard error the resolver turns into the sentinel.
type registryClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewRegistryClient creates a token registry client.
func NewRegistryClient(baseURL string, timeout time.Duration) port.RegistryClient {
	return &registryClient{
		baseURL:    baseURL,
		httpClient: newRetryClient(),
		timeout:    timeout,
	}
}

// LookupMetadata fetches display metadata for one mint.
func (c *registryClient) LookupMetadata(ctx context.Context, mint string) (entity.MetadataEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestURL := fmt.Sprintf("%s/token/%s", c.baseURL, mint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return entity.MetadataEntry{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logrus.Debugf("Fetching token metadata from registry: %s", requestURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.MetadataEntry{}, fmt.Errorf("error fetching metadata for %s: %w", mint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return entity.MetadataEntry{}, fmt.Errorf("registry API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Address  string `json:"address"`
		Symbol   string `json:"symbol"`
		Name     string `json:"name"`
		Decimals uint8  `json:"decimals"`
		LogoURI  string `json:"logoURI"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return entity.MetadataEntry{}, fmt.Errorf("error decoding registry response: %w", err)
	}

	return entity.MetadataEntry{
		Mint:     mint,
		Symbol:   response.Symbol,
		Name:     response.Name,
		Icon:     response.LogoURI,
		Decimals: response.Decimals,
	}, nil
}

// newRetryClient creates an HTTP client with retry logic.
func newRetryClient() *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 3 * time.Second
	retryClient.Logger = nil
	return retryClient.StandardClient()
}
