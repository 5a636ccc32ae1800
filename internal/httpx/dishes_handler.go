package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-menu-orders.git/internal/menu"
	"github.com/ariefcatur/go-menu-orders.git/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type DishesHandler struct {
	Catalog menu.Catalog
	Ledger  menu.Ledger
	Redis   *redis.Client
}

type RestockReq struct {
	Quantity int `json:"quantity"`
}

func (h *DishesHandler) Register(r *chi.Mux) {
	r.Get("/dishes", h.listDishes)
	r.Get("/dishes/popular", h.popularDishes)
	r.Get("/dishes/search", h.searchDishes)
	r.Get("/dishes/{id}", h.getDish)
	r.Patch("/dishes/{id}/stock", h.restockDish)
}

func (h *DishesHandler) listDishes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := menu.ListFilter{
		Category: q.Get("category"),
		SortBy:   q.Get("sort_by"),
		Order:    q.Get("order"),
		Limit:    atoiDefault(q.Get("limit"), 100),
		Skip:     atoiDefault(q.Get("skip"), 0),
	}
	if v := q.Get("is_active"); v != "" {
		b := v == "true"
		f.IsActive = &b
	}

	dishes, total, err := h.Catalog.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true, "data": dishes, "total": total, "limit": f.Limit, "skip": f.Skip,
	})
}

func (h *DishesHandler) getDish(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid dish id"})
		return
	}

	// cache dulu, DB kalau miss
	key := fmt.Sprintf(redisx.KeyDish, id)
	if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": json.RawMessage(s)})
		return
	}

	d, err := h.Catalog.DishByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if b, err := json.Marshal(d); err == nil {
		_ = h.Redis.Set(r.Context(), key, b, redisx.TTLDishCache).Err()
	}
	writeData(w, http.StatusOK, d)
}

func (h *DishesHandler) restockDish(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid dish id"})
		return
	}

	var req RestockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid json"})
		return
	}

	// Stock only moves through the ledger, manual adjustments included.
	if err := h.Ledger.Restock(r.Context(), id, req.Quantity); err != nil {
		writeError(w, err)
		return
	}

	// cache lama buang, biar GET berikutnya baca stok baru
	_ = h.Redis.Del(r.Context(), fmt.Sprintf(redisx.KeyDish, id)).Err()

	d, err := h.Catalog.DishByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, d)
}

func (h *DishesHandler) popularDishes(w http.ResponseWriter, r *http.Request) {
	limit := atoiDefault(r.URL.Query().Get("limit"), 10)

	key := fmt.Sprintf(redisx.KeyPopularDishes, limit)
	if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": json.RawMessage(s)})
		return
	}

	dishes, err := h.Catalog.Popular(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if b, err := json.Marshal(dishes); err == nil {
		_ = h.Redis.Set(r.Context(), key, b, redisx.TTLPopular).Err()
	}
	writeData(w, http.StatusOK, dishes)
}

func (h *DishesHandler) searchDishes(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")
	if keyword == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "search keyword is required"})
		return
	}

	dishes, err := h.Catalog.Search(r.Context(), keyword)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": dishes, "total": len(dishes)})
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
