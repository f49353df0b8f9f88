// Package fakestore is an in-memory stand-in for the booking store's REST
// API, used to drive the client end to end in tests.
package fakestore

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ariefcatur/go-detailing-bookings/internal/bookings"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Request is what the fake saw for one call.
type Request struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
}

type Store struct {
	Username, Password, Token string

	mu       sync.Mutex
	nextID   int
	services map[string]bookings.Service
	bookings map[string]bookings.Booking
	reviews  map[string]bookings.Review
	requests []Request
	failures map[string]int // "METHOD /path" -> status to answer once
}

func New() *Store {
	return &Store{
		Username: "owner@shop.test",
		Password: "secret",
		Token:    "test-token",
		services: map[string]bookings.Service{},
		bookings: map[string]bookings.Booking{},
		reviews:  map[string]bookings.Review{},
		failures: map[string]int{},
	}
}

func (s *Store) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, s.record)

	r.Post("/api/login", s.login)

	r.Get("/api/services", s.listServices)
	r.With(s.gated).Post("/api/services", s.createService)
	r.With(s.gated).Put("/api/services/{id}", s.updateService)
	r.With(s.gated).Delete("/api/services/{id}", s.deleteService)

	r.With(s.gated).Get("/api/bookings", s.listBookings)
	r.Get("/api/bookings/{id}", s.getBooking)
	r.Post("/api/bookings", s.createBooking)
	r.With(s.gated).Put("/api/bookings/{id}", s.updateBooking)
	r.With(s.gated).Delete("/api/bookings/{id}", s.deleteBooking)

	r.Get("/api/reviews", s.listReviews)
	r.Post("/api/reviews", s.createReview)
	r.With(s.gated).Delete("/api/reviews/{id}", s.deleteReview)
	return r
}

// FailNext makes the next "METHOD path" call answer status.
func (s *Store) FailNext(method, path string, status int) {
	s.mu.Lock()
	s.failures[method+" "+path] = status
	s.mu.Unlock()
}

func (s *Store) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Store) SeedService(svc bookings.Service) bookings.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	if svc.ID == "" {
		svc.ID = s.id()
	}
	s.services[string(svc.ID)] = svc
	return svc
}

func (s *Store) SeedBooking(b bookings.Booking) bookings.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = s.id()
	}
	if b.Status == "" {
		b.Status = bookings.InitialStatus
	}
	s.bookings[string(b.ID)] = b
	return b
}

func (s *Store) SeedReview(rv bookings.Review) bookings.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rv.ID == "" {
		rv.ID = s.id()
	}
	s.reviews[string(rv.ID)] = rv
	return rv
}

func (s *Store) Booking(id string) (bookings.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, ok
}

func (s *Store) DeleteBooking(id string) {
	s.mu.Lock()
	delete(s.bookings, id)
	s.mu.Unlock()
}

// id must be called with mu held.
func (s *Store) id() bookings.ID {
	s.nextID++
	return bookings.ID(strconv.Itoa(s.nextID))
}

func (s *Store) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
		})
		key := r.Method + " " + r.URL.Path
		code, fail := s.failures[key]
		delete(s.failures, key)
		s.mu.Unlock()
		if fail {
			writeJSON(w, code, map[string]string{"error": http.StatusText(code)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Store) gated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "details": "Invalid or missing token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Store) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Username != s.Username || req.Password != s.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "details": "Wrong email or password"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": s.Token})
}

func sorted[T any](m map[string]T, key func(T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(key(out[i]))
		b, _ := strconv.Atoi(key(out[j]))
		return a < b
	})
	return out
}

func (s *Store) listServices(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := sorted(s.services, bookings.Service.Key)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Store) createService(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
		return
	}
	title := r.FormValue("title")
	price, err := bookings.ParsePrice(r.FormValue("price"))
	if title == "" || err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "details": "title and price are required"})
		return
	}
	svc := bookings.Service{Title: title, Price: price, Description: r.FormValue("description")}
	if _, hdr, err := r.FormFile("image"); err == nil {
		svc.Image = "/uploads/" + hdr.Filename
	}
	s.mu.Lock()
	svc.ID = s.id()
	s.services[string(svc.ID)] = svc
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, svc)
}

func (s *Store) updateService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	svc, ok := s.services[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if v, ok := r.MultipartForm.Value["title"]; ok {
		svc.Title = v[0]
	}
	if v, ok := r.MultipartForm.Value["price"]; ok {
		p, err := bookings.ParsePrice(v[0])
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "details": err.Error()})
			return
		}
		svc.Price = p
	}
	if v, ok := r.MultipartForm.Value["description"]; ok {
		svc.Description = v[0]
	}
	if fh, ok := r.MultipartForm.File["image"]; ok && len(fh) > 0 {
		svc.Image = "/uploads/" + fh[0].Filename
	}
	s.services[id] = svc
	writeJSON(w, http.StatusOK, svc)
}

func (s *Store) deleteService(w http.ResponseWriter, r *http.Request) {
	remove(s, w, s.services, chi.URLParam(r, "id"))
}

func (s *Store) listBookings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := sorted(s.bookings, bookings.Booking.Key)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Store) getBooking(w http.ResponseWriter, r *http.Request) {
	b, ok := s.Booking(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Booking not found"})
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Store) createBooking(w http.ResponseWriter, r *http.Request) {
	var d bookings.BookingDraft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if d.CustomerName == "" || d.Email == "" || d.BookingDate == "" || d.BookingTime == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "details": "missing required field"})
		return
	}
	b := bookings.Booking{
		CustomerName: d.CustomerName,
		Email:        d.Email,
		BookingDate:  d.BookingDate,
		BookingTime:  d.BookingTime,
		LocationType: d.LocationType,
		ServiceTitle: d.ServiceTitle,
		Message:      d.Message,
		Status:       bookings.InitialStatus,
		CreatedAt:    time.Now().UTC(),
	}
	s.mu.Lock()
	b.ID = s.id()
	s.bookings[string(b.ID)] = b
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, b)
}

func (s *Store) updateBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	st := bookings.Status(req.Status)
	if !st.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "details": fmt.Sprintf("unknown status %q", req.Status)})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	b.Status = st
	s.bookings[id] = b
	writeJSON(w, http.StatusOK, b)
}

func (s *Store) deleteBooking(w http.ResponseWriter, r *http.Request) {
	remove(s, w, s.bookings, chi.URLParam(r, "id"))
}

func (s *Store) listReviews(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := sorted(s.reviews, bookings.Review.Key)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Store) createReview(w http.ResponseWriter, r *http.Request) {
	var d bookings.ReviewDraft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if d.Rating < 1 || d.Rating > 5 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "details": "rating must be 1-5"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.services[string(d.ServiceID)]; !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "validation", "details": "unknown service"})
		return
	}
	rv := bookings.Review{ID: s.id(), ServiceID: d.ServiceID, Rating: d.Rating, Comment: d.Comment, CreatedAt: time.Now().UTC()}
	s.reviews[string(rv.ID)] = rv
	writeJSON(w, http.StatusCreated, rv)
}

func (s *Store) deleteReview(w http.ResponseWriter, r *http.Request) {
	remove(s, w, s.reviews, chi.URLParam(r, "id"))
}

func remove[T any](s *Store, w http.ResponseWriter, m map[string]T, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := m[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	delete(m, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}
