package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"giveaway/internal/eligibility"
)

type BlockRequest struct {
	IP string `json:"ip" validate:"required"`
}

// ListRestrictions returns every restriction record with its current status.
func (h *Handler) ListRestrictions(w http.ResponseWriter, r *http.Request) {
	rs, err := h.svc.Restrictions(r.Context())
	if err != nil {
		h.storeError(w, "list restrictions", err)
		return
	}
	h.writeJSON(w, http.StatusOK, rs)
}

func (h *Handler) BlockIP(w http.ResponseWriter, r *http.Request) {
	var req BlockRequest
	if !h.decode(w, r, &req) || !h.valid(w, req) {
		return
	}
	id, err := h.svc.BlockIP(r.Context(), req.IP)
	if errors.Is(err, eligibility.ErrInvalidIP) {
		h.writeJSON(w, http.StatusBadRequest, []map[string]string{{"ip": "must be a valid IP address"}})
		return
	}
	if err != nil {
		h.storeError(w, "block ip", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// Unblock deletes one restriction record by id.
func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Unblock(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.storeError(w, "unblock", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
