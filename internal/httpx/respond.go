package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-menu-orders.git/internal/menu"
	"github.com/ariefcatur/go-menu-orders.git/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]any{"success": false, "error": err.Error()})
}

func writeData(w http.ResponseWriter, code int, v any) {
	writeJSON(w, code, map[string]any{"success": true, "data": v})
}

// statusFor maps the domain sentinels onto HTTP codes; anything unknown is a
// storage/infrastructure failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, menu.ErrDishNotFound), errors.Is(err, orders.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, menu.ErrInsufficientStock),
		errors.Is(err, menu.ErrInvalidQuantity),
		errors.Is(err, orders.ErrEmptyOrder):
		return http.StatusBadRequest
	case errors.Is(err, orders.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
