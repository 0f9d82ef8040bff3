package factory

import (
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/tourneygate/internal/dependencies/mocks"
	"github.com/mcoot/tourneygate/internal/services/auth"
	"github.com/mcoot/tourneygate/internal/services/monitor"
	"github.com/mcoot/tourneygate/internal/services/ratelimit"
	"github.com/mcoot/tourneygate/internal/services/registration"
	"github.com/mcoot/tourneygate/internal/storage/memory"
)

// Operator credentials accepted by every TestApp
const (
	TestOperator    = "test-operator"
	TestOperatorKey = "test-operator-key"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock   *mocks.MockClock
	MockRandom  *mocks.MockRandom
	MemoryStore *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp(opts ...registration.Option) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestOperatorKey), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	authCfg := auth.Config{
		SessionDuration: time.Hour,
		Operators:       map[string]string{TestOperator: string(hash)},
	}

	app := newWithDependencies(
		store,
		ratelimit.NewMemory(mockClock),
		mockClock,
		mockRandom,
		authCfg,
		monitor.DefaultConfig(),
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
		opts...,
	)

	return &TestApp{
		App:         app,
		MockClock:   mockClock,
		MockRandom:  mockRandom,
		MemoryStore: store,
	}
}
