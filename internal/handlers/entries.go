package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"giveaway/internal/eligibility"
	"giveaway/internal/middleware"
	"giveaway/internal/types"
)

type EntryResponse struct {
	ID       string               `json:"id"`
	Decision eligibility.Decision `json:"decision"`
}

// Eligibility reports whether the caller may enter the giveaway right now.
func (h *Handler) Eligibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	g, err := h.store.GetGiveaway(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, "get giveaway", err)
		return
	}
	d, err := h.svc.Evaluate(ctx, g.ID, middleware.ClientIPFrom(ctx))
	if err != nil {
		h.eligibilityError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

// SubmitEntry validates the entry form and enters the caller into the
// giveaway if the eligibility policy admits them.
func (h *Handler) SubmitEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	g, err := h.store.GetGiveaway(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, "get giveaway", err)
		return
	}

	var entry types.GiveawayEntry
	if !h.decode(w, r, &entry) {
		return
	}
	trim(&entry.Name, &entry.Location, &entry.PhoneNumber, &entry.Email)
	if !h.valid(w, entry) {
		return
	}
	entry.ID = ""
	entry.GiveawayID = g.ID
	entry.IPAddress = middleware.ClientIPFrom(ctx)
	entry.SubmittedAt = h.now().UTC()

	d, id, err := h.svc.Enter(ctx, entry)
	if err != nil {
		h.eligibilityError(w, err)
		return
	}
	if !d.Admit {
		status := http.StatusForbidden
		if d.Code == eligibility.CodeGiveawayClosed {
			status = http.StatusConflict
		}
		h.log.Info("entry denied",
			zap.String("giveaway_id", g.ID),
			zap.String("ip", entry.IPAddress),
			zap.String("code", string(d.Code)),
			zap.NamedError("reason", d.Err()))
		h.writeJSON(w, status, d)
		return
	}
	h.writeJSON(w, http.StatusCreated, EntryResponse{ID: id, Decision: d})
}

func (h *Handler) eligibilityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, eligibility.ErrStoreUnavailable):
		h.log.Error("eligibility unavailable", zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, "entries are temporarily unavailable, please try again later")
	case errors.Is(err, eligibility.ErrWriteFailure):
		h.log.Error("entry write failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to submit entry, please try again")
	default:
		h.log.Error("eligibility check failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ListAllEntries returns every entry grouped by giveaway id.
func (h *Handler) ListAllEntries(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.ListAllEntries(r.Context())
	if err != nil {
		h.storeError(w, "list entries", err)
		return
	}
	h.writeJSON(w, http.StatusOK, all)
}

func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListEntries(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, "list entries", err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// DeleteEntry removes a single entry. The cooldown it started is not lifted.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	err := h.store.DeleteEntry(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "entryID"))
	if err != nil {
		h.storeError(w, "delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
