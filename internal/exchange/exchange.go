// Package exchange defines the adapter contract every venue implements and
// the concrete REST adapters shipped with the engine. Adapters are thin
// translators: they shape vendor payloads into the domain model and report
// errors upward; the fetch orchestrator decides how failures are absorbed.
package exchange

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/arbhub/arbhub/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Adapter produces normalized quotes, rates, and volumes for one venue.
// Every method is independently fallible; a failure on one data kind says
// nothing about the others.
type Adapter interface {
	Name() string
	FetchOrderBooks(ctx context.Context) (map[string]domain.Quote, error)
	FetchFundingRates(ctx context.Context) (map[string]domain.FundingRecord, error)
	FetchVolumes(ctx context.Context) (map[string]float64, error)
	FetchMarginTokens(ctx context.Context) (map[string]domain.MarginTokenInfo, error)
	FetchSpotPrices(ctx context.Context) (map[string]float64, error)
}

// requestTimeout is deliberately generous: slow venues degrade cycle
// latency but must not fail the cycle.
const requestTimeout = 30 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// getJSON performs a GET request and decodes the JSON response into out.
func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// parseFloat converts vendor string-encoded numbers, returning 0 for empty
// or malformed values so a single bad row never fails a whole payload.
func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// msToTime converts a millisecond epoch timestamp to UTC.
func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
