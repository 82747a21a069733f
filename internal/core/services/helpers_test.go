package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	authadapter "github.com/custodia-labs/foodorder-identity/internal/adapters/driven/auth"
	"github.com/custodia-labs/foodorder-identity/internal/core/domain"
	"github.com/custodia-labs/foodorder-identity/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/foodorder-identity/internal/core/ports/driving"
)

const (
	testContact  = "9876543210"
	testPassword = "Ab1@cd"
)

// fakeClock is a settable clock shared by the services under test
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixture wires both services to shared in-memory stores
type fixture struct {
	customers *mocks.MockCustomerStore
	sessions  *mocks.MockSessionStore
	lock      *mocks.MockDistributedLock
	crypto    *authadapter.PasswordCrypto
	tokens    *authadapter.TokenIssuer
	clock     *fakeClock

	customerSvc *customerService
	authSvc     *authService
}

func newFixture() *fixture {
	f := &fixture{
		customers: mocks.NewMockCustomerStore(),
		sessions:  mocks.NewMockSessionStore(),
		lock:      mocks.NewMockDistributedLock(),
		crypto:    authadapter.NewPasswordCryptoWithParams(authadapter.Params{Time: 1, Memory: 64, Threads: 1}),
		tokens:    authadapter.NewTokenIssuer(""),
		clock:     newFakeClock(),
	}

	opts := []Option{
		WithClock(f.clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithSignupLock(f.lock, 2*time.Second),
	}
	f.customerSvc = NewCustomerService(f.customers, f.crypto, opts...).(*customerService)
	f.authSvc = NewAuthService(f.customers, f.sessions, f.crypto, f.tokens, opts...).(*authService)
	return f
}

func validSignup() driving.RegisterRequest {
	return driving.RegisterRequest{
		FirstName:     "Asha",
		LastName:      "Rao",
		Email:         "asha@example.com",
		ContactNumber: testContact,
		Password:      testPassword,
	}
}

func (f *fixture) register(t *testing.T) *domain.Customer {
	t.Helper()
	customer, err := f.customerSvc.Register(context.Background(), validSignup())
	require.NoError(t, err)
	return customer
}

func (f *fixture) login(t *testing.T) *domain.Session {
	t.Helper()
	resp, err := f.authSvc.Authenticate(context.Background(), domain.LoginRequest{
		ContactNumber: testContact,
		Password:      testPassword,
	})
	require.NoError(t, err)
	return resp.Session
}
