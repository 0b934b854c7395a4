package api

import (
	"net/http"
	"strconv"

	"food-order-backend/internal/models"
)

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.menu.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cats))
}

func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	var categoryID *int64
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, models.NewValidationError("category_id", "A valid integer is required."))
			return
		}
		categoryID = &id
	}

	items, err := h.menu.MenuItems(r.Context(), categoryID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

// nonNil keeps empty listings encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
