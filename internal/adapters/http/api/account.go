package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/okian/insights/internal/adapters/session"
	"github.com/okian/insights/internal/domain/account"
	"github.com/okian/insights/pkg/logger"
)

const maxAccountBodyBytes = 1 << 16

// AccountDependencies defines the interface for signup, login and logout.
type AccountDependencies interface {
	Signup(ctx context.Context, username, password, businessName string) (account.Account, error)
	Login(ctx context.Context, username, password string) (account.Account, error)
	OpenSession(ctx context.Context, a account.Account) (session.Session, string, error)
	CloseSession(ctx context.Context, id uuid.UUID) bool
}

// signupRequest mirrors the OpenAPI schema for POST /signup.
type signupRequest struct {
	Username     string `json:"username" validate:"required,max=64"`
	Password     string `json:"password" validate:"required,max=128"`
	BusinessName string `json:"business_name" validate:"required,max=128"`
}

// loginRequest mirrors the OpenAPI schema for POST /login.
type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type accountResponse struct {
	Username     string    `json:"username"`
	BusinessName string    `json:"business_name"`
	CreatedAt    time.Time `json:"created_at"`
}

type loginResponse struct {
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Username     string    `json:"username"`
	BusinessName string    `json:"business_name"`
}

// AccountHandler handles account and session requests.
type AccountHandler struct {
	deps     AccountDependencies
	validate *validator.Validate
	logger   logger.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(deps AccountDependencies, v *validator.Validate, l logger.Logger) *AccountHandler {
	return &AccountHandler{deps: deps, validate: v, logger: l}
}

// HandleSignup handles POST /signup requests.
func (h *AccountHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req signupRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errorCode(err), err)
		return
	}
	a, err := h.deps.Signup(r.Context(), req.Username, req.Password, req.BusinessName)
	switch {
	case errors.Is(err, account.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "missing_fields", err)
		return
	case errors.Is(err, account.ErrExists):
		writeError(w, http.StatusConflict, "username_taken", err)
		return
	case err != nil:
		h.logger.Error(r.Context(), "signup failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	writeJSON(w, http.StatusCreated, accountResponse{
		Username:     a.Username,
		BusinessName: a.BusinessName,
		CreatedAt:    a.CreatedAt,
	})
}

// HandleLogin handles POST /login requests.
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req loginRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errorCode(err), err)
		return
	}
	a, err := h.deps.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, account.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err)
		return
	}
	if err != nil {
		h.logger.Error(r.Context(), "login failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	s, token, err := h.deps.OpenSession(r.Context(), a)
	if err != nil {
		h.logger.Error(r.Context(), "open session failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:        token,
		ExpiresAt:    s.ExpiresAt,
		Username:     s.Username,
		BusinessName: s.BusinessName,
	})
}

// HandleLogout handles POST /logout requests. It must run behind AuthMiddleware.
func (h *AccountHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	s, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
		return
	}
	h.deps.CloseSession(r.Context(), s.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxAccountBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json body", ErrBadRequest)
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				if fe.Tag() != "required" {
					return fmt.Errorf("%w: %s fails %s", ErrBadRequest, fe.Field(), fe.Tag())
				}
				missing = append(missing, fe.Field())
			}
			return fmt.Errorf("%w: %s", account.ErrMissingFields, strings.Join(missing, ", "))
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

func errorCode(err error) string {
	if errors.Is(err, account.ErrMissingFields) {
		return "missing_fields"
	}
	return "bad_request"
}
