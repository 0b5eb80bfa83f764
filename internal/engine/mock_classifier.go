package engine

import (
	"context"
	"sync"

	"dealhound/internal/llm"
	"dealhound/internal/model"
)

// MockClassifier is a test implementation of the Classifier interface. It
// returns deterministic judgments keyed by deal name and records every call
// so tests can assert ordering and batch composition.
type MockClassifier struct {
	Exclusions   map[string]string    // deal name -> exclusion reason
	Matches      map[string]llm.Match // deal name -> inclusion judgment
	ExclusionErr error
	MatchErr     error
	calls        []MockCall
	mu           sync.Mutex
}

// MockCall records one classifier invocation.
type MockCall struct {
	Kind  string // "exclusion" or "inclusion"
	Deals []string
}

// NewMockClassifier creates an empty mock.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{
		Exclusions: make(map[string]string),
		Matches:    make(map[string]llm.Match),
	}
}

// CheckExclusions returns scripted exclusions for the batch.
func (m *MockClassifier) CheckExclusions(ctx context.Context, deals []model.Deal, exclusions []string) (map[int]string, error) {
	m.record("exclusion", deals)
	if m.ExclusionErr != nil {
		return nil, m.ExclusionErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[int]string)
	if len(exclusions) == 0 {
		return out, nil
	}
	for i, deal := range deals {
		if reason, ok := m.Exclusions[deal.Name]; ok {
			out[i] = reason
		}
	}
	return out, nil
}

// FindMatches returns scripted matches for the batch.
func (m *MockClassifier) FindMatches(ctx context.Context, deals []model.Deal, inclusions []string) (map[int]llm.Match, error) {
	m.record("inclusion", deals)
	if m.MatchErr != nil {
		return nil, m.MatchErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[int]llm.Match)
	if len(inclusions) == 0 {
		return out, nil
	}
	for i, deal := range deals {
		if match, ok := m.Matches[deal.Name]; ok {
			out[i] = match
		}
	}
	return out, nil
}

// Calls returns a copy of the recorded invocations in order.
func (m *MockClassifier) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockClassifier) record(kind string, deals []model.Deal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(deals))
	for i, d := range deals {
		names[i] = d.Name
	}
	m.calls = append(m.calls, MockCall{Kind: kind, Deals: names})
}
