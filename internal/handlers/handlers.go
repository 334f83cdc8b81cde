// Package handlers contains the HTTP handlers for the public and admin API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"giveaway/internal/apperror"
	"giveaway/internal/eligibility"
	"giveaway/internal/middleware"
	"giveaway/internal/store"
)

// Handler wraps the HTTP handlers with their dependencies.
type Handler struct {
	log           *zap.Logger
	store         store.Store
	svc           *eligibility.Service
	auth          *middleware.AdminAuth
	validate      *validator.Validate
	adminPassword string
	backend       string
	started       time.Time
	now           func() time.Time
}

type Options struct {
	Store         store.Store
	Service       *eligibility.Service
	Auth          *middleware.AdminAuth
	Validate      *validator.Validate
	AdminPassword string
	// Backend names the record store in the health response.
	Backend string
}

func New(log *zap.Logger, opts Options) *Handler {
	if opts.Validate == nil {
		opts.Validate = apperror.NewValidator()
	}
	return &Handler{
		log:           log,
		store:         opts.Store,
		svc:           opts.Service,
		auth:          opts.Auth,
		validate:      opts.Validate,
		adminPassword: opts.AdminPassword,
		backend:       opts.Backend,
		started:       time.Now(),
		now:           time.Now,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("unable to write response stream", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.log.Debug("failed to decode json", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	return true
}

// valid writes the 400 response itself when v fails validation.
func (h *Handler) valid(w http.ResponseWriter, v any) bool {
	err := h.validate.Struct(v)
	if err == nil {
		return true
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		h.log.Error("validation misuse", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
		return false
	}
	h.log.Debug("validation failed", zap.Error(err))
	h.writeJSON(w, http.StatusBadRequest, apperror.CustomValidationError(err))
	return false
}

// storeError maps a record-store error to a response.
func (h *Handler) storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not found")
		return
	}
	h.log.Error(op+" failed", zap.Error(err))
	h.writeError(w, http.StatusInternalServerError, "internal error")
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
