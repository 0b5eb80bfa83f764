package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"dealhound/internal/common"
	"dealhound/internal/model"
)

const defaultEndpoint = "https://api.resend.com/emails"

// ResendNotifier sends match digests through the Resend email API.
type ResendNotifier struct {
	client   *http.Client
	apiKey   string
	from     string
	endpoint string
}

// ResendConfig configures the notifier.
type ResendConfig struct {
	APIKey   string
	From     string
	Endpoint string // defaults to the Resend API
}

// NewResendNotifier creates a notifier from the given configuration.
func NewResendNotifier(cfg ResendConfig) (*ResendNotifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("notify API key is required: %w", common.ErrMissingConfig)
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("notify from address is required: %w", common.ErrMissingConfig)
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &ResendNotifier{
		apiKey:   cfg.APIKey,
		from:     cfg.From,
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type emailRequest struct {
	From    string   `json:"from"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	To      []string `json:"to"`
}

// SendDigest renders and delivers the digest for one user's matches.
// Empty match sets are skipped rather than sent.
func (n *ResendNotifier) SendDigest(ctx context.Context, recipient string, matches []model.MatchResult, preferences []string) error {
	if len(matches) == 0 {
		return nil
	}

	subject, html, err := BuildDigest(matches, preferences)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(emailRequest{
		From:    n.from,
		To:      []string{recipient},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to encode email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email API returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
