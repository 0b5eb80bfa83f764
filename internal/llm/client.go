package llm

import (
	"context"
)

// Client defines the interface for classification oracle providers. The
// oracle returns free-form text; all parsing and validation happens in the
// Gateway, never in provider implementations.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is a single prompt sent to the oracle.
type CompletionRequest struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Match is one validated inclusion judgment for a deal, keyed externally by
// the deal's batch-local index.
type Match struct {
	Reason     string
	Confidence int
}
