package testutil

import (
	"context"
	"sync"

	"serp-comparator/internal/models"
)

// MockProvider implements serp.Provider for tests. Keys are keywords.
type MockProvider struct {
	Mu     sync.Mutex
	Resp   map[string][]models.Result
	Err    map[string]error
	Calls  []string
	Params []models.SearchParams
}

func NewMockProvider() *MockProvider {
	return &MockProvider{Resp: map[string][]models.Result{}, Err: map[string]error{}}
}

func (m *MockProvider) Search(ctx context.Context, keyword string, params models.SearchParams) ([]models.Result, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Calls = append(m.Calls, keyword)
	m.Params = append(m.Params, params)
	if err, ok := m.Err[keyword]; ok {
		return nil, err
	}
	if r, ok := m.Resp[keyword]; ok {
		out := make([]models.Result, len(r))
		copy(out, r)
		return out, nil
	}
	// default: no organic results
	return []models.Result{}, nil
}

// MockClassifier implements intent.Classifier for tests.
type MockClassifier struct {
	Mu    sync.Mutex
	Resp  map[string]models.IntentData
	Err   map[string]error
	Calls []string
}

func NewMockClassifier() *MockClassifier {
	return &MockClassifier{Resp: map[string]models.IntentData{}, Err: map[string]error{}}
}

func (m *MockClassifier) Classify(ctx context.Context, keyword string, results []models.Result) (models.IntentData, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Calls = append(m.Calls, keyword)
	if err, ok := m.Err[keyword]; ok {
		return models.IntentData{}, err
	}
	if r, ok := m.Resp[keyword]; ok {
		return r, nil
	}
	return models.IntentData{OverallIntent: models.IntentInformational}, nil
}

// MockResolver implements location.Resolver for tests.
type MockResolver struct {
	Mu    sync.Mutex
	Resp  map[string]string
	Err   error
	Calls int
}

func NewMockResolver() *MockResolver {
	return &MockResolver{Resp: map[string]string{}}
}

func (m *MockResolver) Resolve(ctx context.Context, location, country string) (string, error) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return location, m.Err
	}
	if r, ok := m.Resp[location]; ok {
		return r, nil
	}
	return location, nil
}
