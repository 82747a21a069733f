package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/foodorder-identity/internal/core/domain"
	"github.com/custodia-labs/foodorder-identity/internal/core/ports/driving"
	"github.com/custodia-labs/foodorder-identity/internal/observability"
)

// Mock services for testing

type mockAuthService struct {
	authenticateFn   func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
	validateFn       func(ctx context.Context, token string) (*domain.Customer, error)
	logoutFn         func(ctx context.Context, token string) (*domain.Session, error)
	changePasswordFn func(ctx context.Context, customerID string, req domain.ChangePasswordRequest) (*domain.Customer, error)
}

func (m *mockAuthService) Authenticate(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Validate(ctx context.Context, token string) (*domain.Customer, error) {
	if m.validateFn != nil {
		return m.validateFn(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Logout(ctx context.Context, token string) (*domain.Session, error) {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) ChangePassword(ctx context.Context, customerID string, req domain.ChangePasswordRequest) (*domain.Customer, error) {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(ctx, customerID, req)
	}
	return nil, errors.New("not implemented")
}

type mockCustomerService struct {
	registerFn      func(ctx context.Context, req driving.RegisterRequest) (*domain.Customer, error)
	getFn           func(ctx context.Context, id string) (*domain.Customer, error)
	updateProfileFn func(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
}

func (m *mockCustomerService) Register(ctx context.Context, req driving.RegisterRequest) (*domain.Customer, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCustomerService) Get(ctx context.Context, id string) (*domain.Customer, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCustomerService) UpdateProfile(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, customer)
	}
	return nil, errors.New("not implemented")
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

func testCustomer() *domain.Customer {
	return &domain.Customer{
		ID:             "01HZX4T8Q6W3K2M1N0P9R8S7T6",
		FirstName:      "Asha",
		LastName:       "Rao",
		Email:          "asha@example.com",
		ContactNumber:  "9876543210",
		PasswordDigest: "$argon2id$secret",
		PasswordSalt:   "salt",
	}
}

// authenticatedAs returns an auth mock that accepts "valid-token" for customer
func authenticatedAs(customer *domain.Customer) *mockAuthService {
	return &mockAuthService{
		validateFn: func(ctx context.Context, token string) (*domain.Customer, error) {
			if token != "valid-token" {
				return nil, domain.ErrNotLoggedIn
			}
			return customer, nil
		},
	}
}

func newTestServer(auth *mockAuthService, customers *mockCustomerService, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	return NewServer(DefaultConfig(), auth, customers, deps)
}

func doRequest(s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(&mockAuthService{}, &mockCustomerService{}, Deps{})

	rr := doRequest(s, "GET", "/health", "", nil)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	var resp StatusResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %s", resp.Status)
	}
}

func TestReadyHandler(t *testing.T) {
	tests := []struct {
		name     string
		db       Pinger
		redis    Pinger
		expected int
	}{
		{"no dependencies", nil, nil, http.StatusOK},
		{"all healthy", &mockPinger{}, &mockPinger{}, http.StatusOK},
		{"database down", &mockPinger{err: errors.New("refused")}, nil, http.StatusServiceUnavailable},
		{"redis down", &mockPinger{}, &mockPinger{err: errors.New("refused")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&mockAuthService{}, &mockCustomerService{}, Deps{DB: tt.db, Redis: tt.redis})

			rr := doRequest(s, "GET", "/ready", "", nil)

			if rr.Code != tt.expected {
				t.Errorf("expected status %d, got %d", tt.expected, rr.Code)
			}
		})
	}
}

func TestVersionHandler(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Version = "1.2.3"
	s := NewServer(cfg, &mockAuthService{}, &mockCustomerService{}, Deps{Logger: slog.New(slog.DiscardHandler)})

	rr := doRequest(s, "GET", "/version", "", nil)

	var resp VersionResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Version != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %s", resp.Version)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	s := newTestServer(&mockAuthService{}, &mockCustomerService{}, Deps{
		Metrics:     metrics,
		MetricsView: observability.Handler(reg),
	})

	doRequest(s, "GET", "/health", "", nil)
	rr := doRequest(s, "GET", "/metrics", "", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `identity_http_requests_total{route="GET /health",status="200"} 1`) {
		t.Errorf("expected health request in metrics, got %s", rr.Body.String())
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"input", domain.ErrInvalidEmail, http.StatusBadRequest, "SGR-002"},
		{"conflict", domain.ErrDuplicateContact, http.StatusConflict, "SGR-001"},
		{"authentication", domain.ErrBadCredentials, http.StatusUnauthorized, "ATH-002"},
		{"authorization", domain.ErrSessionExpired, http.StatusForbidden, "ATHR-003"},
		{"wrapped coded error", errors.Join(errors.New("context"), domain.ErrWrongOldPassword), http.StatusBadRequest, "UCR-004"},
		{"not found", domain.ErrNotFound, http.StatusNotFound, codeNotFound},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, codeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			if code := writeError(rr, tt.err); code != tt.code {
				t.Errorf("expected returned code %s, got %s", tt.code, code)
			}
			if strings.Contains(rr.Body.String(), "pq:") {
				t.Error("internal details must not leak")
			}
			assertErrorBody(t, rr, tt.status, tt.code)
		})
	}
}

func TestHandleSignup(t *testing.T) {
	var got driving.RegisterRequest
	s := newTestServer(&mockAuthService{}, &mockCustomerService{
		registerFn: func(ctx context.Context, req driving.RegisterRequest) (*domain.Customer, error) {
			got = req
			c := testCustomer()
			c.Address = req.Address
			return c, nil
		},
	}, Deps{})

	rr := doRequest(s, "POST", "/api/v1/customer/signup", "", driving.RegisterRequest{
		FirstName:     "Asha",
		Email:         "asha@example.com",
		ContactNumber: "9876543210",
		Password:      "Ab1@cd",
		Address:       &domain.Address{City: "Pune"},
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.Password != "Ab1@cd" || got.Address == nil || got.Address.City != "Pune" {
		t.Errorf("request not passed through: %+v", got)
	}
	if strings.Contains(rr.Body.String(), "argon2id") || strings.Contains(rr.Body.String(), "salt") {
		t.Error("credentials must not be serialized")
	}

	var resp domain.CustomerSummary
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.ContactNumber != "9876543210" {
		t.Errorf("unexpected summary %+v", resp)
	}
}

func TestHandleSignup_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		err    error
		status int
		code   string
	}{
		{"invalid json", "{not json", nil, http.StatusBadRequest, codeBadRequest},
		{"duplicate contact", driving.RegisterRequest{}, domain.ErrDuplicateContact, http.StatusConflict, "SGR-001"},
		{"missing field", driving.RegisterRequest{}, domain.ErrMissingField, http.StatusBadRequest, "SGR-005"},
		{"weak password", driving.RegisterRequest{}, domain.ErrWeakPassword, http.StatusBadRequest, "SGR-004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&mockAuthService{}, &mockCustomerService{
				registerFn: func(ctx context.Context, req driving.RegisterRequest) (*domain.Customer, error) {
					return nil, tt.err
				},
			}, Deps{})

			rr := doRequest(s, "POST", "/api/v1/customer/signup", "", tt.body)

			assertErrorBody(t, rr, tt.status, tt.code)
		})
	}
}

func TestHandleLogin(t *testing.T) {
	issued := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	customer := testCustomer()
	s := newTestServer(&mockAuthService{
		authenticateFn: func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
			if req.ContactNumber != "9876543210" || req.Password != "Ab1@cd" {
				return nil, domain.ErrBadCredentials
			}
			return &domain.LoginResponse{
				Session: &domain.Session{
					ID:         "session-1",
					CustomerID: customer.ID,
					Token:      "jwt-token",
					IssuedAt:   issued,
					ExpiresAt:  issued.Add(domain.SessionValidity),
				},
				Customer: customer.ToSummary(),
			}, nil
		},
	}, &mockCustomerService{}, Deps{})

	rr := doRequest(s, "POST", "/api/v1/customer/login", "", domain.LoginRequest{
		ContactNumber: "9876543210",
		Password:      "Ab1@cd",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if rr.Header().Get(accessTokenHeader) != "jwt-token" {
		t.Errorf("expected access-token header, got %q", rr.Header().Get(accessTokenHeader))
	}

	var resp domain.LoginResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Session == nil || !resp.Session.ExpiresAt.Equal(issued.Add(8*time.Hour)) {
		t.Errorf("unexpected session %+v", resp.Session)
	}
	if resp.Customer == nil || resp.Customer.ID != customer.ID {
		t.Errorf("unexpected customer %+v", resp.Customer)
	}

	rr = doRequest(s, "POST", "/api/v1/customer/login", "", domain.LoginRequest{
		ContactNumber: "9876543210",
		Password:      "wrong",
	})
	assertErrorBody(t, rr, http.StatusUnauthorized, "ATH-002")
}

func TestHandleLogin_UnknownContact(t *testing.T) {
	s := newTestServer(&mockAuthService{
		authenticateFn: func(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
			return nil, domain.ErrUnknownContact
		},
	}, &mockCustomerService{}, Deps{})

	rr := doRequest(s, "POST", "/api/v1/customer/login", "", domain.LoginRequest{ContactNumber: "9000000000"})

	assertErrorBody(t, rr, http.StatusUnauthorized, "ATH-001")
	if rr.Header().Get(accessTokenHeader) != "" {
		t.Error("no token on failed login")
	}
}

func TestHandleLogout(t *testing.T) {
	logoutAt := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	calls := 0
	s := newTestServer(&mockAuthService{
		logoutFn: func(ctx context.Context, token string) (*domain.Session, error) {
			calls++
			if calls > 1 {
				return nil, domain.ErrAlreadyLoggedOut
			}
			return &domain.Session{ID: "session-1", Token: token, LogoutAt: &logoutAt}, nil
		},
	}, &mockCustomerService{}, Deps{})

	rr := doRequest(s, "POST", "/api/v1/customer/logout", "jwt-token", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var session domain.Session
	_ = json.NewDecoder(rr.Body).Decode(&session)
	if session.LogoutAt == nil || !session.LogoutAt.Equal(logoutAt) {
		t.Errorf("expected logout time, got %v", session.LogoutAt)
	}

	rr = doRequest(s, "POST", "/api/v1/customer/logout", "jwt-token", nil)
	assertErrorBody(t, rr, http.StatusForbidden, "ATHR-002")
}

func TestHandleLogout_NoToken(t *testing.T) {
	s := newTestServer(&mockAuthService{
		logoutFn: func(ctx context.Context, token string) (*domain.Session, error) {
			t.Error("logout should not be called without a token")
			return nil, nil
		},
	}, &mockCustomerService{}, Deps{})

	rr := doRequest(s, "POST", "/api/v1/customer/logout", "", nil)

	assertErrorBody(t, rr, http.StatusForbidden, "ATHR-001")
}

func TestHandleGetCustomer(t *testing.T) {
	customer := testCustomer()
	s := newTestServer(authenticatedAs(customer), &mockCustomerService{}, Deps{})

	rr := doRequest(s, "GET", "/api/v1/customer", "valid-token", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp domain.CustomerSummary
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.ID != customer.ID {
		t.Errorf("expected customer %s, got %s", customer.ID, resp.ID)
	}

	rr = doRequest(s, "GET", "/api/v1/customer", "other-token", nil)
	assertErrorBody(t, rr, http.StatusForbidden, "ATHR-001")
}

func TestHandleUpdateCustomer(t *testing.T) {
	customer := testCustomer()
	var stored *domain.Customer
	s := newTestServer(authenticatedAs(customer), &mockCustomerService{
		updateProfileFn: func(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
			stored = c
			return c, nil
		},
	}, Deps{})

	rr := doRequest(s, "PUT", "/api/v1/customer", "valid-token", map[string]any{
		"last_name": "",
		"address":   map[string]string{"city": "Mumbai"},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if stored == nil {
		t.Fatal("expected UpdateProfile to be called")
	}
	if stored.FirstName != "Asha" || stored.LastName != "" || stored.Address.City != "Mumbai" {
		t.Errorf("unexpected stored profile %+v", stored)
	}
	if stored.ID != customer.ID || stored.PasswordDigest != customer.PasswordDigest {
		t.Error("identity and credentials must carry over")
	}
	if customer.LastName != "Rao" {
		t.Error("customer from context must not be mutated")
	}
}

func TestHandleUpdateCustomer_Unauthenticated(t *testing.T) {
	s := newTestServer(&mockAuthService{
		validateFn: func(ctx context.Context, token string) (*domain.Customer, error) {
			return nil, domain.ErrSessionExpired
		},
	}, &mockCustomerService{
		updateProfileFn: func(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
			t.Error("profile must not be updated")
			return c, nil
		},
	}, Deps{})

	rr := doRequest(s, "PUT", "/api/v1/customer", "expired-token", map[string]string{"first_name": "X"})

	assertErrorBody(t, rr, http.StatusForbidden, "ATHR-003")
}

func TestHandleChangePassword(t *testing.T) {
	customer := testCustomer()
	auth := authenticatedAs(customer)
	auth.changePasswordFn = func(ctx context.Context, customerID string, req domain.ChangePasswordRequest) (*domain.Customer, error) {
		if customerID != customer.ID {
			t.Errorf("expected customer %s, got %s", customer.ID, customerID)
		}
		switch {
		case req.OldPassword != "Ab1@cd":
			return nil, domain.ErrWrongOldPassword
		case req.NewPassword == "weak":
			return nil, domain.ErrWeakNewPassword
		}
		return customer, nil
	}
	s := newTestServer(auth, &mockCustomerService{}, Deps{})

	tests := []struct {
		name   string
		req    domain.ChangePasswordRequest
		status int
		code   string
	}{
		{"success", domain.ChangePasswordRequest{OldPassword: "Ab1@cd", NewPassword: "Passw0rd@"}, http.StatusOK, ""},
		{"wrong old password", domain.ChangePasswordRequest{OldPassword: "nope", NewPassword: "Passw0rd@"}, http.StatusBadRequest, "UCR-004"},
		{"weak new password", domain.ChangePasswordRequest{OldPassword: "Ab1@cd", NewPassword: "weak"}, http.StatusBadRequest, "UCR-001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doRequest(s, "PUT", "/api/v1/customer/password", "valid-token", tt.req)
			if tt.code == "" {
				if rr.Code != tt.status {
					t.Errorf("expected status %d, got %d", tt.status, rr.Code)
				}
				return
			}
			assertErrorBody(t, rr, tt.status, tt.code)
		})
	}
}

func TestServer_StartStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	s := NewServer(cfg, &mockAuthService{}, &mockCustomerService{}, Deps{Logger: slog.New(slog.DiscardHandler)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
