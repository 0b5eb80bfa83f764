// Package llm is the single call boundary to the external classification
// oracle. It builds prompts, rate-limits and retries requests, and converts
// the oracle's untrusted text replies into typed, validated results. Every
// oracle-facing failure is absorbed here: a malformed reply, a timeout, or an
// unreachable provider degrades to an empty result, never an error that
// aborts the run.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"dealhound/internal/common"
	"dealhound/internal/model"
	"dealhound/internal/service"
)

// Config holds configuration for the classification gateway.
type Config struct {
	Provider            string
	APIKey              string
	Model               string
	MaxRetries          int
	RetryDelay          time.Duration
	RateLimit           int // requests per minute
	Temperature         float64
	MaxTokens           int
	CallTimeout         time.Duration
	MinConfidence       int // inclusion acceptance threshold, 0-100
	ExclusionConfidence int // confidence the exclusion prompt demands, 0-100
}

// Gateway wraps an oracle client with retry, rate limiting, prompt
// construction, and response validation. It keeps no state across calls.
type Gateway struct {
	client        Client
	logger        *slog.Logger
	limiter       *rate.Limiter
	retryOpts     service.RetryOptions
	callTimeout   time.Duration
	minConfidence int
	exclusionConf int
}

// NewGateway creates a gateway for the configured provider.
func NewGateway(cfg Config, logger *slog.Logger) (*Gateway, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle client: %w", err)
	}
	return NewGatewayWithClient(client, cfg, logger), nil
}

// NewGatewayWithClient creates a gateway around an existing client. Used by
// tests and anywhere a pre-built client is available.
func NewGatewayWithClient(client Client, cfg Config, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}

	rpm := cfg.RateLimit
	if rpm <= 0 {
		rpm = 60
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	callTimeout := cfg.CallTimeout
	if callTimeout == 0 {
		callTimeout = 60 * time.Second
	}

	minConfidence := cfg.MinConfidence
	if minConfidence <= 0 {
		minConfidence = 50
	}

	exclusionConf := cfg.ExclusionConfidence
	if exclusionConf <= 0 {
		exclusionConf = 90
	}

	return &Gateway{
		client:        client,
		logger:        logger,
		limiter:       rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 3),
		retryOpts:     retryOpts,
		callTimeout:   callTimeout,
		minConfidence: minConfidence,
		exclusionConf: exclusionConf,
	}
}

// MinConfidence returns the inclusion acceptance threshold in effect.
func (g *Gateway) MinConfidence() int {
	return g.minConfidence
}

// CheckExclusions asks the oracle which deals in the batch contain an
// excluded item. The returned map is keyed by batch-local index (0-based)
// with the oracle's reason as the value. Only deals with explicit,
// high-confidence evidence come back; absence of evidence never excludes.
// Oracle and parse failures degrade to an empty map; the only error returned
// is context cancellation.
func (g *Gateway) CheckExclusions(ctx context.Context, deals []model.Deal, exclusions []string) (map[int]string, error) {
	if len(deals) == 0 || len(exclusions) == 0 {
		return map[int]string{}, nil
	}

	raw, err := g.complete(ctx, CompletionRequest{
		System: "You are a food product classifier. You only respond with valid JSON in the exact format requested.",
		Prompt: g.buildExclusionPrompt(deals, exclusions),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		g.logger.Warn("exclusion check failed, continuing without exclusions for batch",
			"batch_size", len(deals),
			"error", err)
		return map[int]string{}, nil
	}

	excluded := g.parseExclusionResponse(raw, len(deals))
	return excluded, nil
}

// FindMatches asks the oracle which deals in the batch satisfy at least one
// inclusion preference. The returned map is keyed by batch-local index
// (0-based); only entries at or above the acceptance threshold are retained.
// Oracle and parse failures degrade to an empty map; the only error returned
// is context cancellation.
func (g *Gateway) FindMatches(ctx context.Context, deals []model.Deal, inclusions []string) (map[int]Match, error) {
	if len(deals) == 0 || len(inclusions) == 0 {
		return map[int]Match{}, nil
	}

	raw, err := g.complete(ctx, CompletionRequest{
		System: "You are a food product classifier. You only respond with valid JSON in the exact format requested.",
		Prompt: g.buildInclusionPrompt(deals, inclusions),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		g.logger.Warn("inclusion check failed, continuing without matches for batch",
			"batch_size", len(deals),
			"error", err)
		return map[int]Match{}, nil
	}

	matches := g.parseInclusionResponse(raw, len(deals))
	return matches, nil
}

// complete issues one rate-limited, retried, timeout-bounded oracle call.
func (g *Gateway) complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	var content string
	err := common.WithRetry(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
		defer cancel()

		raw, err := g.client.Complete(callCtx, req)
		if err != nil {
			// Clients mark their own non-retryable failures.
			var retryable *common.RetryableError
			if errors.As(err, &retryable) {
				return err
			}
			return &common.RetryableError{Err: err, Retryable: true}
		}
		content = raw
		return nil
	}, g.retryOpts)
	if err != nil {
		return "", err
	}

	return content, nil
}

// buildExclusionPrompt lists the batch with 1-based indices and asks for
// explicit evidence only.
func (g *Gateway) buildExclusionPrompt(deals []model.Deal, exclusions []string) string {
	var b strings.Builder

	b.WriteString("You are checking if food products contain specific ingredients or qualities that should exclude them.\n\n")
	b.WriteString("Products to evaluate:\n")
	writeDealList(&b, deals)

	b.WriteString("\nItems to exclude if found (check each product against ALL items):\n")
	for _, ex := range exclusions {
		fmt.Fprintf(&b, "- %s\n", ex)
	}

	fmt.Fprintf(&b, `
Instructions:
- Return ONLY products that DEFINITELY contain excluded items
- Require EXPLICIT evidence (ingredients, descriptions, categories)
- Do NOT exclude based on assumptions
- If unsure, do not exclude
- Return valid JSON only - no explanatory text or markdown

Return Format:
{
  "excluded_products": [
    {
      "index": product_number,
      "reason": "Clear explanation of why this product contains an excluded item"
    }
  ]
}

Only return products that you are VERY confident (%d%%+) contain excluded items.
Return ONLY the JSON object. No other text, no markdown formatting.`, g.exclusionConf)

	return b.String()
}

// buildInclusionPrompt lists the batch with 1-based indices and asks for
// confidence-scored matches against the inclusion preferences.
func (g *Gateway) buildInclusionPrompt(deals []model.Deal, inclusions []string) string {
	var b strings.Builder

	b.WriteString("You are finding food products that match specific dietary preferences.\n\n")
	b.WriteString("Products to evaluate:\n")
	writeDealList(&b, deals)

	b.WriteString("\nPreferences to match (product must match AT LEAST ONE):\n")
	for _, inc := range inclusions {
		fmt.Fprintf(&b, "- %s\n", inc)
	}

	fmt.Fprintf(&b, `
Instructions:
- Find products that CLEARLY match at least one preference
- Require clear evidence from product name, description, or category
- Provide confidence score (0-100) for how well it matches
- Only include matches with %d%%+ confidence
- Explain exactly why each product matches
- Return valid JSON only - no explanatory text or markdown

Return Format:
{
  "matches": [
    {
      "index": product_number,
      "confidence": confidence_score,
      "reason": "Clear explanation of how this product matches a preference"
    }
  ]
}

Return ONLY the JSON object. No other text, no markdown formatting.`, g.minConfidence)

	return b.String()
}

func writeDealList(b *strings.Builder, deals []model.Deal) {
	for i, deal := range deals {
		fmt.Fprintf(b, "%d. %s", i+1, deal.Name)
		if deal.Description != "" {
			fmt.Fprintf(b, " - %s", deal.Description)
		}
		if deal.Category != "" {
			fmt.Fprintf(b, " (%s)", deal.Category)
		}
		b.WriteByte('\n')
	}
}

// parseExclusionResponse validates the oracle's exclusion reply. Entries with
// out-of-range indices, wrong types, or empty reasons are dropped one by one;
// an unrecognized top-level shape drops the whole response. Indices are
// converted from the prompt's 1-based numbering to 0-based.
func (g *Gateway) parseExclusionResponse(raw string, batchSize int) map[int]string {
	excluded := make(map[int]string)

	var payload struct {
		ExcludedProducts []json.RawMessage `json:"excluded_products"`
	}
	cleaned := sanitizeResponse(raw)
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		g.logger.Warn("discarding unparseable exclusion response",
			"error", err,
			"raw_length", len(raw))
		return excluded
	}

	for _, entry := range payload.ExcludedProducts {
		var product struct {
			Index  float64 `json:"index"`
			Reason string  `json:"reason"`
		}
		if err := json.Unmarshal(entry, &product); err != nil {
			g.logger.Debug("dropping malformed exclusion entry", "error", err)
			continue
		}
		idx, ok := validateIndex(product.Index, batchSize)
		if !ok || product.Reason == "" {
			g.logger.Debug("dropping invalid exclusion entry",
				"index", product.Index,
				"batch_size", batchSize)
			continue
		}
		excluded[idx] = product.Reason
	}

	return excluded
}

// parseInclusionResponse validates the oracle's match reply and applies the
// acceptance threshold. Invalid entries are dropped one by one.
func (g *Gateway) parseInclusionResponse(raw string, batchSize int) map[int]Match {
	matches := make(map[int]Match)

	var payload struct {
		Matches []json.RawMessage `json:"matches"`
	}
	cleaned := sanitizeResponse(raw)
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		g.logger.Warn("discarding unparseable match response",
			"error", err,
			"raw_length", len(raw))
		return matches
	}

	for _, entry := range payload.Matches {
		var match struct {
			Index      float64 `json:"index"`
			Confidence float64 `json:"confidence"`
			Reason     string  `json:"reason"`
		}
		if err := json.Unmarshal(entry, &match); err != nil {
			g.logger.Debug("dropping malformed match entry", "error", err)
			continue
		}
		idx, ok := validateIndex(match.Index, batchSize)
		if !ok || match.Reason == "" {
			g.logger.Debug("dropping invalid match entry",
				"index", match.Index,
				"batch_size", batchSize)
			continue
		}
		if match.Confidence < 0 || match.Confidence > 100 {
			g.logger.Debug("dropping match with out-of-range confidence",
				"index", idx,
				"confidence", match.Confidence)
			continue
		}
		confidence := int(math.Round(match.Confidence))
		if confidence < g.minConfidence {
			continue
		}
		matches[idx] = Match{
			Confidence: confidence,
			Reason:     match.Reason,
		}
	}

	return matches
}

// validateIndex checks a 1-based oracle index against the batch bounds and
// returns its 0-based equivalent.
func validateIndex(index float64, batchSize int) (int, bool) {
	if index != math.Trunc(index) {
		return 0, false
	}
	i := int(index)
	if i < 1 || i > batchSize {
		return 0, false
	}
	return i - 1, true
}
