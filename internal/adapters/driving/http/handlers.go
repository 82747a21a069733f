package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/custodia-labs/foodorder-identity/internal/core/domain"
	"github.com/custodia-labs/foodorder-identity/internal/core/ports/driving"
)

const (
	accessTokenHeader = "access-token"

	codeBadRequest = "BAD_REQUEST"
	codeNotFound   = "NOT_FOUND"
	codeInternal   = "INTERNAL"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Code    string `json:"code" example:"ATH-002"`
	Message string `json:"message" example:"Invalid Credentials"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the database and, when configured, Redis
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  StatusResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	for name, p := range map[string]Pinger{"database": s.db, "redis": s.redisClient} {
		if p == nil {
			continue
		}
		if err := p.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", "dependency", name, "error", err)
			writeJSON(w, http.StatusServiceUnavailable, StatusResponse{Status: "not ready", Error: name + " unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// Customer endpoints

// handleSignup godoc
// @Summary      Customer signup
// @Description  Register a new customer
// @Tags         Customer
// @Accept       json
// @Produce      json
// @Param        request  body      driving.RegisterRequest  true  "Signup details"
// @Success      201      {object}  domain.CustomerSummary
// @Failure      400      {object}  ErrorResponse  "SGR-002..SGR-005"
// @Failure      409      {object}  ErrorResponse  "SGR-001, SGR-006"
// @Router       /customer/signup [post]
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req driving.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	customer, err := s.customerService.Register(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, customer.ToSummary())
}

// handleLogin godoc
// @Summary      Customer login
// @Description  Authenticate with contact number and password. The token is returned in the access-token header.
// @Tags         Customer
// @Accept       json
// @Produce      json
// @Param        request  body      domain.LoginRequest  true  "Login credentials"
// @Success      200      {object}  domain.LoginResponse
// @Failure      401      {object}  ErrorResponse  "ATH-001, ATH-002"
// @Router       /customer/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := s.authService.Authenticate(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set(accessTokenHeader, resp.Session.Token)
	writeJSON(w, http.StatusOK, resp)
}

// handleLogout godoc
// @Summary      Customer logout
// @Description  Close the session behind the bearer token
// @Tags         Customer
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Session
// @Failure      403  {object}  ErrorResponse  "ATHR-001, ATHR-002, ATHR-003"
// @Router       /customer/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r)
	if token == "" {
		s.fail(w, r, domain.ErrNotLoggedIn)
		return
	}

	session, err := s.authService.Logout(r.Context(), token)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// handleGetCustomer godoc
// @Summary      Current customer
// @Description  Returns the profile of the authenticated customer
// @Tags         Customer
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.CustomerSummary
// @Failure      403  {object}  ErrorResponse
// @Router       /customer [get]
func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer := GetCustomer(r.Context())
	if customer == nil {
		s.fail(w, r, domain.ErrNotLoggedIn)
		return
	}
	writeJSON(w, http.StatusOK, customer.ToSummary())
}

// handleUpdateCustomer godoc
// @Summary      Update profile
// @Description  Stores the given profile fields as-is
// @Tags         Customer
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.UpdateProfileRequest  true  "Profile fields"
// @Success      200      {object}  domain.CustomerSummary
// @Failure      403      {object}  ErrorResponse
// @Router       /customer [put]
func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	current := GetCustomer(r.Context())
	if current == nil {
		s.fail(w, r, domain.ErrNotLoggedIn)
		return
	}

	var req driving.UpdateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	edited := *current
	req.Apply(&edited)

	customer, err := s.customerService.UpdateProfile(r.Context(), &edited)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, customer.ToSummary())
}

// handleChangePassword godoc
// @Summary      Change password
// @Description  Replaces the password after checking the old one
// @Tags         Customer
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.ChangePasswordRequest  true  "Old and new password"
// @Success      200      {object}  domain.CustomerSummary
// @Failure      400      {object}  ErrorResponse  "UCR-001, UCR-004"
// @Router       /customer/password [put]
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		s.fail(w, r, domain.ErrNotLoggedIn)
		return
	}

	var req domain.ChangePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	customer, err := s.authService.ChangePassword(r.Context(), authCtx.CustomerID, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, customer.ToSummary())
}

// fail writes err, counts it and logs anything that is not a client error
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := writeError(w, err)
	s.metrics.RecordError(code)
	if code == codeInternal {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return false
	}
	return true
}

// statusFor maps an error kind to its HTTP status
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInput:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as {"code","message"} and returns the code written.
// Internal details never reach the client.
func writeError(w http.ResponseWriter, err error) string {
	var coded *domain.Error
	switch {
	case errors.As(err, &coded):
		writeErrorResponse(w, statusFor(coded.Kind), coded.Code, coded.Message)
		return coded.Code
	case errors.Is(err, domain.ErrNotFound):
		writeErrorResponse(w, http.StatusNotFound, codeNotFound, "not found")
		return codeNotFound
	default:
		writeErrorResponse(w, http.StatusInternalServerError, codeInternal, "internal server error")
		return codeInternal
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
