package httpx

import (
	"net/http"

	"github.com/ariefcatur/go-menu-orders.git/internal/stats"
	"github.com/go-chi/chi/v5"
)

type StatsHandler struct {
	Repo *stats.Repo
}

func (h *StatsHandler) Register(r *chi.Mux) {
	r.Get("/stats/dishes", h.dishStats)
	r.Get("/stats/orders", h.orderStats)
}

func (h *StatsHandler) dishStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.Repo.DishStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

func (h *StatsHandler) orderStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.Repo.OrderStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, out)
}
