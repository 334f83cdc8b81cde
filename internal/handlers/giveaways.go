package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"giveaway/internal/types"
)

// GiveawayView is a giveaway as shown to visitors.
type GiveawayView struct {
	types.Giveaway
	EntryCount int  `json:"entryCount"`
	IsOpen     bool `json:"isOpen"`
}

// ListGiveaways returns the giveaways still accepting entries, or every
// giveaway with ?all=true.
func (h *Handler) ListGiveaways(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	giveaways, err := h.store.ListGiveaways(ctx)
	if err != nil {
		h.storeError(w, "list giveaways", err)
		return
	}
	entries, err := h.store.ListAllEntries(ctx)
	if err != nil {
		h.storeError(w, "list entries", err)
		return
	}

	all := r.URL.Query().Get("all") == "true"
	now := h.now()
	out := make([]GiveawayView, 0, len(giveaways))
	for _, g := range giveaways {
		n := len(entries[g.ID])
		v := GiveawayView{Giveaway: g, EntryCount: n, IsOpen: g.IsOpen(now, n)}
		if v.IsOpen || all {
			out = append(out, v)
		}
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetGiveaway(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	g, err := h.store.GetGiveaway(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, "get giveaway", err)
		return
	}
	entries, err := h.store.ListEntries(ctx, g.ID)
	if err != nil {
		h.storeError(w, "list entries", err)
		return
	}
	h.writeJSON(w, http.StatusOK, GiveawayView{
		Giveaway:   *g,
		EntryCount: len(entries),
		IsOpen:     g.IsOpen(h.now(), len(entries)),
	})
}

func (h *Handler) CreateGiveaway(w http.ResponseWriter, r *http.Request) {
	var g types.Giveaway
	if !h.decode(w, r, &g) {
		return
	}
	trim(&g.Title, &g.Description)
	if !h.valid(w, g) {
		return
	}
	g.ID = ""
	g.CreatedAt = h.now().UTC()

	id, err := h.store.CreateGiveaway(r.Context(), g)
	if err != nil {
		h.storeError(w, "create giveaway", err)
		return
	}
	g.ID = id
	h.writeJSON(w, http.StatusCreated, g)
}

func (h *Handler) UpdateGiveaway(w http.ResponseWriter, r *http.Request) {
	var patch types.GiveawayPatch
	if !h.decode(w, r, &patch) || !h.valid(w, patch) {
		return
	}
	g, err := h.store.UpdateGiveaway(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.storeError(w, "update giveaway", err)
		return
	}
	h.writeJSON(w, http.StatusOK, g)
}

// DeleteGiveaway removes the giveaway together with its entries. Restriction
// records written for those entries stay.
func (h *Handler) DeleteGiveaway(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteGiveaway(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.storeError(w, "delete giveaway", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
