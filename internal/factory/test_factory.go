package factory

import (
	"time"

	"github.com/mcoot/gridfire-go/internal/config"
	"github.com/mcoot/gridfire-go/internal/dependencies/mocks"
	"github.com/mcoot/gridfire-go/internal/storage/memory"
	"github.com/mcoot/gridfire-go/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithConfig(TestConfig())
}

// NewTestAppWithConfig creates a test App with specific settings
func NewTestAppWithConfig(cfg config.Config) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, cfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// TestConfig returns configuration suitable for tests
func TestConfig() config.Config {
	return config.Config{
		BoardSize:              10,
		TurnDuration:           60 * time.Second,
		HeartbeatInterval:      30 * time.Second,
		StaleSweepInterval:     60 * time.Second,
		StaleAfter:             90 * time.Second,
		ReconnectGrace:         5 * time.Minute,
		ReconnectSweepInterval: 2 * time.Minute,
		GameRetention:          time.Hour,
		RetentionInterval:      10 * time.Minute,
		SessionDuration:        24 * time.Hour,
	}
}
