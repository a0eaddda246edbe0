package api

import "net/http"

// ListCategories returns the distinct product categories.
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.Categories(r.Context()))
}
