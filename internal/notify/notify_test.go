package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealhound/internal/common"
	"dealhound/internal/model"
)

func sampleMatches() []model.MatchResult {
	return []model.MatchResult{
		{
			DealIndex:   2,
			Confidence:  88,
			Explanation: "high protein snack",
			Deal: model.Deal{
				Name:         "Protein Bar",
				Category:     "Snacks",
				SalePrice:    1.99,
				RegularPrice: 2.99,
				ProductURL:   "https://example.com/protein-bar",
			},
		},
		{
			DealIndex:   5,
			Confidence:  71,
			Explanation: "organic produce",
			Deal:        model.Deal{Name: "Organic Kale", SalePrice: 2.49, RegularPrice: 3.49},
		},
	}
}

func TestBuildDigestRendersMatches(t *testing.T) {
	subject, html, err := BuildDigest(sampleMatches(), []string{"no dairy", "high protein"})
	require.NoError(t, err)

	assert.Equal(t, "2 deals match your grocery preferences", subject)
	assert.Contains(t, html, "Protein Bar")
	assert.Contains(t, html, "$1.99")
	assert.Contains(t, html, "$2.99")
	assert.Contains(t, html, "high protein snack")
	assert.Contains(t, html, "88% confidence")
	assert.Contains(t, html, "https://example.com/protein-bar")
	assert.Contains(t, html, "no dairy, high protein")
}

func TestBuildDigestSingularSubject(t *testing.T) {
	subject, _, err := BuildDigest(sampleMatches()[:1], nil)
	require.NoError(t, err)
	assert.Equal(t, "1 deal matches your grocery preferences", subject)
}

func TestBuildDigestEscapesHTML(t *testing.T) {
	matches := []model.MatchResult{{
		Deal:        model.Deal{Name: "<script>alert(1)</script>", SalePrice: 1},
		Explanation: "match",
	}}
	_, html, err := BuildDigest(matches, nil)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestResendNotifierSendsEmail(t *testing.T) {
	var captured emailRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id": "email-123"}`))
	}))
	defer server.Close()

	notifier, err := NewResendNotifier(ResendConfig{
		APIKey:   "re_test_key",
		From:     "deals@example.com",
		Endpoint: server.URL,
	})
	require.NoError(t, err)

	err = notifier.SendDigest(context.Background(), "ana@example.com", sampleMatches(), []string{"high protein"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer re_test_key", auth)
	assert.Equal(t, "deals@example.com", captured.From)
	assert.Equal(t, []string{"ana@example.com"}, captured.To)
	assert.Contains(t, captured.HTML, "Protein Bar")
}

func TestResendNotifierSkipsEmptyMatchSet(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer server.Close()

	notifier, err := NewResendNotifier(ResendConfig{APIKey: "k", From: "f@example.com", Endpoint: server.URL})
	require.NoError(t, err)

	require.NoError(t, notifier.SendDigest(context.Background(), "u@example.com", nil, nil))
	assert.False(t, called)
}

func TestResendNotifierSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message": "invalid from address"}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	notifier, err := NewResendNotifier(ResendConfig{APIKey: "k", From: "bad", Endpoint: server.URL})
	require.NoError(t, err)

	err = notifier.SendDigest(context.Background(), "u@example.com", sampleMatches(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestResendNotifierRequiresConfig(t *testing.T) {
	_, err := NewResendNotifier(ResendConfig{From: "f@example.com"})
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	_, err = NewResendNotifier(ResendConfig{APIKey: "k"})
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}
