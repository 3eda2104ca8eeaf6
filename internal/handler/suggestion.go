package handler

import (
	"net/http"

	"mobileservice-backend/internal/domain"
	"mobileservice-backend/internal/service"

	"github.com/go-chi/chi/v5"
)

type SuggestionHandler struct {
	Shops service.ShopService
}

func (h SuggestionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/suggestions", h.list)
}

func (h SuggestionHandler) list(w http.ResponseWriter, r *http.Request) {
	kind := domain.SuggestionKind(r.URL.Query().Get("kind"))
	values, err := h.Shops.Suggest(r.Context(), kind, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": values})
}
