package handlers

import (
	"net/http"
	"time"
)

type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
	Store  string `json:"store,omitempty"`
}

// Health returns service health and uptime.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(h.started).Round(time.Second).String(),
		Store:  h.backend,
	})
}
