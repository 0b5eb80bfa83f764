package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealhound/internal/common"
)

const dealJSON = `[
	{"product_name": "Organic Bananas", "sale_price": 0.49, "regular_price": 0.69, "category": "Produce"},
	{"product_name": "Protein Bar", "sale_price": 1.99, "regular_price": 2.99, "discount_percentage": 33.4}
]`

func TestHTTPExtractorFetchesDeals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(dealJSON))
	}))
	defer server.Close()

	extractor, err := NewHTTPExtractor(server.URL)
	require.NoError(t, err)

	deals, err := extractor.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, "Organic Bananas", deals[0].Name)

	// Missing discount gets computed; provided one is kept.
	assert.InDelta(t, 28.98, deals[0].DiscountPercent, 0.01)
	assert.InDelta(t, 33.4, deals[1].DiscountPercent, 0.001)
}

func TestHTTPExtractorAcceptsWrappedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"deals": ` + dealJSON + `}`))
	}))
	defer server.Close()

	extractor, err := NewHTTPExtractor(server.URL)
	require.NoError(t, err)

	deals, err := extractor.Extract(context.Background())
	require.NoError(t, err)
	assert.Len(t, deals, 2)
}

func TestHTTPExtractorServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "scrape blew up", http.StatusInternalServerError)
	}))
	defer server.Close()

	extractor, err := NewHTTPExtractor(server.URL)
	require.NoError(t, err)

	_, err = extractor.Extract(context.Background())
	assert.ErrorIs(t, err, common.ErrExtractionFailed)
}

func TestHTTPExtractorEmptyDealListIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	extractor, err := NewHTTPExtractor(server.URL)
	require.NoError(t, err)

	_, err = extractor.Extract(context.Background())
	assert.ErrorIs(t, err, common.ErrNoDeals)
}

func TestHTTPExtractorRequiresURL(t *testing.T) {
	_, err := NewHTTPExtractor("")
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestFileExtractorReadsDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deals.json")
	require.NoError(t, os.WriteFile(path, []byte(dealJSON), 0600))

	deals, err := NewFileExtractor(path).Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, "Protein Bar", deals[1].Name)
}

func TestFileExtractorMissingFile(t *testing.T) {
	_, err := NewFileExtractor("/nonexistent/deals.json").Extract(context.Background())
	assert.Error(t, err)
}

func TestFileExtractorRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deals.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := NewFileExtractor(path).Extract(context.Background())
	assert.ErrorIs(t, err, common.ErrExtractionFailed)
}
