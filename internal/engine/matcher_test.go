package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealhound/internal/common"
	"dealhound/internal/llm"
	"dealhound/internal/model"
)

// mockStorage is an in-memory service.Storage for engine tests.
type mockStorage struct {
	latestSnapshot *model.Snapshot
	snapshotErr    error
	saveSnapErr    error
	saveMatchErr   error
	preferences    map[string][]model.Preference
	savedSnapshots []*model.Snapshot
	savedMatches   map[string][]model.MatchResult
	nextID         int64
}

func newMockStorage() *mockStorage {
	return &mockStorage{
		preferences:  make(map[string][]model.Preference),
		savedMatches: make(map[string][]model.MatchResult),
		nextID:       1,
	}
}

func (m *mockStorage) setPreferences(userID string, texts ...string) {
	prefs := make([]model.Preference, len(texts))
	for i, txt := range texts {
		prefs[i] = model.Preference{ID: int64(i + 1), UserID: userID, Text: txt}
	}
	m.preferences[userID] = prefs
}

func (m *mockStorage) SaveSnapshot(_ context.Context, snapshot *model.Snapshot) error {
	if m.saveSnapErr != nil {
		return m.saveSnapErr
	}
	snapshot.ID = m.nextID
	m.nextID++
	m.savedSnapshots = append(m.savedSnapshots, snapshot)
	return nil
}

func (m *mockStorage) GetLatestSuccessfulSnapshot(_ context.Context) (*model.Snapshot, error) {
	if m.snapshotErr != nil {
		return nil, m.snapshotErr
	}
	if m.latestSnapshot == nil {
		return nil, common.ErrNotFound
	}
	return m.latestSnapshot, nil
}

func (m *mockStorage) SavePreference(_ context.Context, userID, text string) (*model.Preference, error) {
	pref := model.Preference{ID: m.nextID, UserID: userID, Text: text}
	m.nextID++
	m.preferences[userID] = append(m.preferences[userID], pref)
	return &pref, nil
}

func (m *mockStorage) ListPreferences(_ context.Context, userID string) ([]model.Preference, error) {
	return m.preferences[userID], nil
}

func (m *mockStorage) DeletePreference(_ context.Context, _ string, _ int64) error {
	return nil
}

func (m *mockStorage) ListUsersWithPreferences(_ context.Context) ([]string, error) {
	users := make([]string, 0, len(m.preferences))
	for u := range m.preferences {
		users = append(users, u)
	}
	return users, nil
}

func (m *mockStorage) SaveMatches(_ context.Context, _ int64, userID string, matches []model.MatchResult) error {
	if m.saveMatchErr != nil {
		return m.saveMatchErr
	}
	m.savedMatches[userID] = matches
	return nil
}

func (m *mockStorage) ListMatches(_ context.Context, userID string, _ int) ([]model.MatchResult, error) {
	return m.savedMatches[userID], nil
}

func (m *mockStorage) Migrate(_ context.Context) error { return nil }
func (m *mockStorage) Close() error                    { return nil }

// mockExtractor returns scripted deals or an error.
type mockExtractor struct {
	deals []model.Deal
	err   error
	calls int
}

func (m *mockExtractor) Extract(_ context.Context) ([]model.Deal, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.deals, nil
}

// mockNotifier records digests.
type mockNotifier struct {
	err        error
	recipients []string
	matchSets  [][]model.MatchResult
}

func (m *mockNotifier) SendDigest(_ context.Context, recipient string, matches []model.MatchResult, _ []string) error {
	if m.err != nil {
		return m.err
	}
	m.recipients = append(m.recipients, recipient)
	m.matchSets = append(m.matchSets, matches)
	return nil
}

func testMatcher(store *mockStorage, extractor *mockExtractor, classifier Classifier, notifier *mockNotifier) *Matcher {
	cfg := MatcherConfig{
		Storage:     store,
		Extractor:   extractor,
		Classifier:  classifier,
		BatchSize:   5,
		Concurrency: 2,
		CacheTTL:    24 * time.Hour,
	}
	if notifier != nil {
		cfg.Notifier = notifier
	}
	return NewMatcher(cfg)
}

func TestMatcherFullRunWithFreshExtraction(t *testing.T) {
	store := newMockStorage()
	store.setPreferences("ana@example.com", "no shellfish", "high protein")

	extractor := &mockExtractor{deals: namedDeals("Bananas", "ShrimpSalad", "ProteinBar")}

	classifier := NewMockClassifier()
	classifier.Exclusions["ShrimpSalad"] = "contains shrimp"
	classifier.Matches["ProteinBar"] = llm.Match{Confidence: 88, Reason: "high protein"}

	notifier := &mockNotifier{}
	m := testMatcher(store, extractor, classifier, notifier)

	summary, err := m.Run(context.Background(), "ana@example.com")
	require.NoError(t, err)

	assert.False(t, summary.CacheHit)
	assert.Equal(t, 3, summary.TotalDeals)
	require.Len(t, summary.Matches, 1)
	assert.Equal(t, "ProteinBar", summary.Matches[0].Deal.Name)
	assert.Equal(t, 88, summary.Matches[0].Confidence)

	// Snapshot recorded, matches persisted, digest delivered.
	require.Len(t, store.savedSnapshots, 1)
	assert.True(t, store.savedSnapshots[0].Successful)
	assert.Len(t, store.savedMatches["ana@example.com"], 1)
	assert.True(t, summary.Notified)
	assert.Equal(t, []string{"ana@example.com"}, notifier.recipients)
}

func TestMatcherUsesCachedSnapshot(t *testing.T) {
	store := newMockStorage()
	store.setPreferences("u", "organic")
	store.latestSnapshot = &model.Snapshot{
		ID:         42,
		FetchedAt:  time.Now().Add(-time.Hour),
		Successful: true,
		Deals:      namedDeals("Apples"),
	}

	extractor := &mockExtractor{deals: namedDeals("should not be used")}
	classifier := NewMockClassifier()
	classifier.Matches["Apples"] = llm.Match{Confidence: 70, Reason: "organic apples"}

	m := testMatcher(store, extractor, classifier, nil)
	summary, err := m.Run(context.Background(), "u")
	require.NoError(t, err)

	assert.True(t, summary.CacheHit)
	assert.Equal(t, int64(42), summary.SnapshotID)
	assert.Zero(t, extractor.calls)
	require.Len(t, summary.Matches, 1)
}

func TestMatcherExtractionFailureRecordsFailedSnapshot(t *testing.T) {
	store := newMockStorage()
	store.setPreferences("u", "organic")

	extractor := &mockExtractor{err: errors.New("page did not load")}
	m := testMatcher(store, extractor, NewMockClassifier(), nil)

	_, err := m.Run(context.Background(), "u")
	require.Error(t, err)

	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)

	require.Len(t, store.savedSnapshots, 1)
	assert.False(t, store.savedSnapshots[0].Successful)
	assert.Contains(t, store.savedSnapshots[0].ErrorMessage, "page did not load")
}

func TestMatcherForceRefreshBypassesCache(t *testing.T) {
	store := newMockStorage()
	store.setPreferences("u", "organic")
	store.latestSnapshot = &model.Snapshot{
		ID:         1,
		FetchedAt:  time.Now(),
		Successful: true,
		Deals:      namedDeals("Stale"),
	}

	extractor := &mockExtractor{deals: namedDeals("Fresh")}
	m := testMatcher(store, extractor, NewMockClassifier(), nil)

	summary, err := m.RunFresh(context.Background(), "u")
	require.NoError(t, err)
	assert.False(t, summary.CacheHit)
	assert.Equal(t, 1, extractor.calls)
}

func TestMatcherEmptyPreferencesSkipsOracle(t *testing.T) {
	store := newMockStorage()
	store.latestSnapshot = &model.Snapshot{
		ID:         1,
		FetchedAt:  time.Now(),
		Successful: true,
		Deals:      namedDeals("A"),
	}

	classifier := NewMockClassifier()
	m := testMatcher(store, &mockExtractor{}, classifier, nil)

	summary, err := m.Run(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, summary.Matches)
	assert.Empty(t, classifier.Calls())
}

func TestMatcherMatchPersistenceFailureKeepsResults(t *testing.T) {
	store := newMockStorage()
	store.setPreferences("u", "organic")
	store.latestSnapshot = &model.Snapshot{
		ID:         1,
		FetchedAt:  time.Now(),
		Successful: true,
		Deals:      namedDeals("Apples"),
	}
	store.saveMatchErr = errors.New("disk full")

	classifier := NewMockClassifier()
	classifier.Matches["Apples"] = llm.Match{Confidence: 80, Reason: "organic"}

	notifier := &mockNotifier{}
	m := testMatcher(store, &mockExtractor{}, classifier, notifier)

	summary, err := m.Run(context.Background(), "u")
	require.Error(t, err)

	// The computed matches survive and the digest still goes out.
	require.NotNil(t, summary)
	require.Len(t, summary.Matches, 1)
	assert.True(t, summary.Notified)
}

func TestMatcherNotifierFailureDoesNotFailRun(t *testing.T) {
	store := newMockStorage()
	store.setPreferences("u", "organic")
	store.latestSnapshot = &model.Snapshot{
		ID:         1,
		FetchedAt:  time.Now(),
		Successful: true,
		Deals:      namedDeals("Apples"),
	}

	classifier := NewMockClassifier()
	classifier.Matches["Apples"] = llm.Match{Confidence: 80, Reason: "organic"}

	notifier := &mockNotifier{err: errors.New("smtp down")}
	m := testMatcher(store, &mockExtractor{}, classifier, notifier)

	summary, err := m.Run(context.Background(), "u")
	require.NoError(t, err)
	assert.False(t, summary.Notified)
	require.Len(t, summary.Matches, 1)
}

func TestMatcherDryRunWritesNothing(t *testing.T) {
	store := newMockStorage()
	store.setPreferences("u", "organic")

	extractor := &mockExtractor{deals: namedDeals("Apples")}
	classifier := NewMockClassifier()
	classifier.Matches["Apples"] = llm.Match{Confidence: 80, Reason: "organic"}

	notifier := &mockNotifier{}
	cfg := MatcherConfig{
		Storage:    store,
		Extractor:  extractor,
		Classifier: classifier,
		Notifier:   notifier,
		DryRun:     true,
	}

	summary, err := NewMatcher(cfg).Run(context.Background(), "u")
	require.NoError(t, err)
	require.Len(t, summary.Matches, 1)

	assert.Empty(t, store.savedSnapshots)
	assert.Empty(t, store.savedMatches)
	assert.Empty(t, notifier.recipients)
	assert.False(t, summary.Notified)
}

func TestMatcherRunAllSharesSnapshot(t *testing.T) {
	store := newMockStorage()
	store.setPreferences("a", "no dairy", "organic")
	store.setPreferences("b", "high protein")

	extractor := &mockExtractor{deals: namedDeals("Apples", "Yogurt")}
	classifier := NewMockClassifier()
	classifier.Exclusions["Yogurt"] = "dairy product"
	classifier.Matches["Apples"] = llm.Match{Confidence: 75, Reason: "organic"}

	m := testMatcher(store, extractor, classifier, nil)
	summaries, err := m.RunAll(context.Background(), false)
	require.NoError(t, err)

	assert.Len(t, summaries, 2)
	assert.Equal(t, 1, extractor.calls)
}
