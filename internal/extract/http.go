// Package extract provides clients for the extraction boundary: sources that
// produce the current deal list for a matching run.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"dealhound/internal/common"
	"dealhound/internal/model"
)

const defaultHTTPTimeout = 2 * time.Minute

// HTTPExtractor fetches the deal list from an extraction service endpoint
// that returns deal JSON. Scraping itself lives behind that service; this
// client only consumes its output.
type HTTPExtractor struct {
	client *http.Client
	url    string
}

// NewHTTPExtractor creates an extractor for the given endpoint URL.
func NewHTTPExtractor(url string) (*HTTPExtractor, error) {
	if url == "" {
		return nil, fmt.Errorf("extractor URL cannot be empty: %w", common.ErrMissingConfig)
	}
	return &HTTPExtractor{
		url:    url,
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}, nil
}

// Extract fetches and decodes the current deal list.
func (e *HTTPExtractor) Extract(ctx context.Context) ([]model.Deal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrExtractionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: extraction service returned %d: %s",
			common.ErrExtractionFailed, resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrExtractionFailed, err)
	}
	return decodeDeals(data)
}

// decodeDeals accepts either a bare JSON array of deals or an object with a
// "deals" field, and fills in missing discount percentages.
func decodeDeals(data []byte) ([]model.Deal, error) {
	var deals []model.Deal
	if err := json.Unmarshal(data, &deals); err != nil {
		var wrapper struct {
			Deals []model.Deal `json:"deals"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: unrecognized deal payload: %v", common.ErrExtractionFailed, err)
		}
		deals = wrapper.Deals
	}

	if len(deals) == 0 {
		return nil, common.ErrNoDeals
	}

	for i := range deals {
		if deals[i].DiscountPercent == 0 {
			deals[i].DiscountPercent = deals[i].ComputeDiscount()
		}
	}
	return deals, nil
}
