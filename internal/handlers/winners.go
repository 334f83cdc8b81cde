package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"giveaway/internal/types"
)

// ListWinners returns winners, newest first.
func (h *Handler) ListWinners(w http.ResponseWriter, r *http.Request) {
	winners, err := h.store.ListWinners(r.Context())
	if err != nil {
		h.storeError(w, "list winners", err)
		return
	}
	h.writeJSON(w, http.StatusOK, winners)
}

func (h *Handler) CreateWinner(w http.ResponseWriter, r *http.Request) {
	var winner types.Winner
	if !h.decode(w, r, &winner) {
		return
	}
	trim(&winner.Name, &winner.GiveawayTitle, &winner.ImageURL)
	if !h.valid(w, winner) {
		return
	}
	winner.ID = ""

	id, err := h.store.CreateWinner(r.Context(), winner)
	if err != nil {
		h.storeError(w, "create winner", err)
		return
	}
	winner.ID = id
	h.writeJSON(w, http.StatusCreated, winner)
}

func (h *Handler) UpdateWinner(w http.ResponseWriter, r *http.Request) {
	var winner types.Winner
	if !h.decode(w, r, &winner) {
		return
	}
	trim(&winner.Name, &winner.GiveawayTitle, &winner.ImageURL)
	if !h.valid(w, winner) {
		return
	}
	winner.ID = chi.URLParam(r, "id")

	if err := h.store.UpdateWinner(r.Context(), winner.ID, winner); err != nil {
		h.storeError(w, "update winner", err)
		return
	}
	h.writeJSON(w, http.StatusOK, winner)
}

func (h *Handler) DeleteWinner(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteWinner(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.storeError(w, "delete winner", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
