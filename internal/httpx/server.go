package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ariefcatur/go-detailing-bookings/internal/bookings"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// StatusSource is whatever knows the tracked booking's latest status.
type StatusSource interface {
	Current() (bookings.StatusView, bool)
}

// StatusHandler exposes the tracked booking to a local status widget.
type StatusHandler struct {
	Source StatusSource
}

func (h *StatusHandler) Register(r chi.Router) {
	r.Get("/status", h.getStatus)
}

func (h *StatusHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	v, ok := h.Source.Current()
	if !ok {
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": "no booking tracked"})
		return
	}
	WriteJSON(w, http.StatusOK, v)
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
