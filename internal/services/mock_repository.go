package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cellar/internal/infrastructure/errors"
	"cellar/internal/repository"
	"cellar/internal/types"
)

// MockRepository implements the BottleRepository interface for testing
type MockRepository struct {
	mu               sync.RWMutex
	bottles          map[string]types.Bottle
	createCallCount  int
	getCallCount     int
	saveCallCount    int
	deleteCallCount  int
	transactionCalls int
	shouldFailSave   bool
	shouldFailLoad   bool
	shouldFailTx     bool
	savedSettings    []types.Settings
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		bottles: make(map[string]types.Bottle),
	}
}

// SetFailureModes configures the mock to simulate failures
func (m *MockRepository) SetFailureModes(save, load, tx bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailSave = save
	m.shouldFailLoad = load
	m.shouldFailTx = tx
}

// GetCallCounts returns the number of times each method was called
func (m *MockRepository) GetCallCounts() (create, get, save, delete, tx int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.createCallCount, m.getCallCount, m.saveCallCount, m.deleteCallCount, m.transactionCalls
}

// SavedSettings returns every settings value passed to SaveSettings, in call order
func (m *MockRepository) SavedSettings() []types.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Settings, len(m.savedSettings))
	copy(out, m.savedSettings)
	return out
}

// CreateBottle implements BottleRepository interface
func (m *MockRepository) CreateBottle(ctx context.Context, bottle *types.Bottle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCallCount++

	if m.shouldFailSave {
		return errors.New("CreateBottle", fmt.Errorf("mock save failure"), errors.ErrCodeConnection)
	}
	if _, exists := m.bottles[bottle.Name]; exists {
		return errors.HandleDuplicateError("CreateBottle", "bottle", "name", bottle.Name)
	}

	if bottle.Settings.WindowsVersion == "" {
		bottle.Settings.WindowsVersion = types.DefaultWinVersion
	}
	now := time.Now().UTC()
	bottle.CreatedAt = now
	bottle.UpdatedAt = now
	m.bottles[bottle.Name] = *bottle
	return nil
}

// GetBottle implements BottleRepository interface
func (m *MockRepository) GetBottle(ctx context.Context, name string) (*types.Bottle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getCallCount++

	if m.shouldFailLoad {
		return nil, errors.New("GetBottle", fmt.Errorf("mock load failure"), errors.ErrCodeConnection)
	}

	bottle, ok := m.bottles[name]
	if !ok {
		return nil, errors.HandleNotFound("GetBottle", "bottle", name)
	}
	return &bottle, nil
}

// ListBottles implements BottleRepository interface
func (m *MockRepository) ListBottles(ctx context.Context) ([]types.Bottle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.shouldFailLoad {
		return nil, errors.New("ListBottles", fmt.Errorf("mock load failure"), errors.ErrCodeConnection)
	}

	out := make([]types.Bottle, 0, len(m.bottles))
	for _, b := range m.bottles {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SaveSettings implements BottleRepository interface
func (m *MockRepository) SaveSettings(ctx context.Context, name string, settings types.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saveCallCount++

	if m.shouldFailSave {
		return errors.New("SaveSettings", fmt.Errorf("mock save failure"), errors.ErrCodeConnection)
	}

	bottle, ok := m.bottles[name]
	if !ok {
		return errors.HandleNotFound("SaveSettings", "bottle", name)
	}
	bottle.Settings = settings
	bottle.UpdatedAt = time.Now().UTC()
	m.bottles[name] = bottle
	m.savedSettings = append(m.savedSettings, settings)
	return nil
}

// DeleteBottle implements BottleRepository interface
func (m *MockRepository) DeleteBottle(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleteCallCount++

	if _, ok := m.bottles[name]; !ok {
		return errors.HandleNotFound("DeleteBottle", "bottle", name)
	}
	delete(m.bottles, name)
	return nil
}

// WithTransaction implements BottleRepository interface
func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repo repository.BottleRepository) error) error {
	m.mu.Lock()
	m.transactionCalls++
	failTx := m.shouldFailTx
	m.mu.Unlock()

	if failTx {
		return errors.New("WithTransaction", fmt.Errorf("mock transaction failure"), errors.ErrCodeTransaction)
	}

	// Execute the function with this mock repository
	return fn(m)
}
