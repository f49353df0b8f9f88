package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ariefcatur/go-detailing-bookings/internal/bookings"
	"github.com/ariefcatur/go-detailing-bookings/internal/config"
	"github.com/ariefcatur/go-detailing-bookings/internal/fakestore"
	"github.com/ariefcatur/go-detailing-bookings/internal/httpx"
	"github.com/ariefcatur/go-detailing-bookings/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T) (*App, *fakestore.Store, state.Store) {
	t.Helper()
	fs := fakestore.New()
	srv := httptest.NewServer(fs.Router())
	t.Cleanup(srv.Close)

	cfg := config.Config{
		APIBaseURL:     srv.URL,
		Profile:        "default",
		PollInterval:   time.Millisecond,
		RequestTimeout: 2 * time.Second,
	}
	st := state.NewMemory()
	a, err := New(context.Background(), cfg, st)
	require.NoError(t, err)
	return a, fs, st
}

func signIn(t *testing.T, a *App, fs *fakestore.Store) {
	t.Helper()
	require.NoError(t, a.SignIn(context.Background(), fs.Username, fs.Password))
}

func anaDraft() bookings.BookingDraft {
	d := bookings.NewBookingDraft(&bookings.Service{Title: "Full Detail"})
	d.CustomerName = "Ana"
	d.Email = "a@x.com"
	d.BookingDate = "2024-05-01"
	d.BookingTime = "10:00"
	d.LocationType = bookings.LocationMobile
	return d
}

func TestSubmitBookingIsPendingAndRemembered(t *testing.T) {
	a, fs, st := newApp(t)
	ctx := context.Background()

	b, err := a.SubmitBooking(ctx, anaDraft())
	require.NoError(t, err)
	assert.Equal(t, bookings.StatusPending, b.Status)
	assert.Equal(t, "Full Detail", b.ServiceTitle)
	assert.Equal(t, bookings.LocationMobile, b.LocationType)

	id, ok, err := st.Get(ctx, state.LastBookingKey("default"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, string(b.ID), id)

	reqs := fs.Requests()
	require.Len(t, reqs, 1, "visitor create does not try the operator-only list")
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Empty(t, reqs[0].Authorization)
}

func TestSubmitBookingValidatesLocally(t *testing.T) {
	a, fs, _ := newApp(t)
	d := anaDraft()
	d.Email = "not-an-email"

	_, err := a.SubmitBooking(context.Background(), d)
	assert.ErrorIs(t, err, bookings.ErrInvalid)
	assert.Empty(t, fs.Requests())
}

func TestOperatorCreateRefreshesBookings(t *testing.T) {
	a, fs, _ := newApp(t)
	signIn(t, a, fs)

	b, err := a.SubmitBooking(context.Background(), anaDraft())
	require.NoError(t, err)
	got, ok := a.Bookings.Get(string(b.ID))
	require.True(t, ok)
	assert.Equal(t, "Ana", got.CustomerName)

	reqs := fs.Requests()
	var create fakestore.Request
	for _, r := range reqs {
		if r.Method == http.MethodPost && r.Path == "/api/bookings" {
			create = r
		}
	}
	assert.Empty(t, create.Authorization, "booking create never carries the credential")
}

func TestUnauthenticatedStatusChangeIsRejected(t *testing.T) {
	a, fs, _ := newApp(t)
	ctx := context.Background()
	fs.SeedBooking(bookings.Booking{ID: "7", CustomerName: "Ana", ServiceTitle: "Full Detail", Status: bookings.StatusPending})

	signIn(t, a, fs)
	_, err := a.Bookings.Refresh(ctx)
	require.NoError(t, err)

	// session vanishes locally but the mirror is still on screen
	fs.Token = "rotated"
	err = a.SetBookingStatus(ctx, "7", bookings.StatusInProgress)
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)

	got, ok := a.Bookings.Get("7")
	require.True(t, ok)
	assert.Equal(t, bookings.StatusPending, got.Status)
	assert.True(t, a.Gate.IsAuthorized(), "authorization failures do not log the operator out")
}

func TestStatusChangeWithoutToken(t *testing.T) {
	a, fs, _ := newApp(t)
	fs.SeedBooking(bookings.Booking{ID: "7", Status: bookings.StatusPending})

	err := a.SetBookingStatus(context.Background(), "7", bookings.StatusInProgress)
	assert.ErrorIs(t, err, httpx.ErrUnauthorized)

	reqs := fs.Requests()
	require.NotEmpty(t, reqs)
	last := reqs[len(reqs)-1]
	assert.Equal(t, http.MethodPut, last.Method, "the store decides, not the client")
	b, _ := fs.Booking("7")
	assert.Equal(t, bookings.StatusPending, b.Status)
}

func TestStatusLifecycle(t *testing.T) {
	a, fs, _ := newApp(t)
	ctx := context.Background()
	fs.SeedBooking(bookings.Booking{ID: "1", CustomerName: "Ana", Status: bookings.StatusPending})
	fs.SeedBooking(bookings.Booking{ID: "2", CustomerName: "Ben", Status: bookings.StatusPending})
	signIn(t, a, fs)
	_, err := a.Bookings.Refresh(ctx)
	require.NoError(t, err)

	for _, s := range []bookings.Status{bookings.StatusInProgress, bookings.StatusFinished, bookings.StatusPending} {
		require.NoError(t, a.SetBookingStatus(ctx, "1", s))
		got, _ := a.Bookings.Get("1")
		assert.Equal(t, s, got.Status)
	}
	other, _ := a.Bookings.Get("2")
	assert.Equal(t, bookings.StatusPending, other.Status, "other bookings untouched")

	n := len(fs.Requests())
	err = a.SetBookingStatus(ctx, "1", bookings.Status("Cancelled"))
	assert.ErrorIs(t, err, bookings.ErrInvalidStatus)
	assert.Len(t, fs.Requests(), n, "invalid status is never written")
}

func TestGatedCallsAttachCredential(t *testing.T) {
	a, fs, _ := newApp(t)
	ctx := context.Background()
	signIn(t, a, fs)
	auth := "Bearer " + fs.Token

	svc, err := a.Services.Create(ctx, bookings.ServiceDraft{Title: "Mobile Wash", Price: 3000})
	require.NoError(t, err)
	title := "Mobile Wash XL"
	require.NoError(t, a.Services.Update(ctx, string(svc.ID), bookings.ServicePatch{Title: &title}))

	b, err := a.SubmitBooking(ctx, anaDraft())
	require.NoError(t, err)
	require.NoError(t, a.SetBookingStatus(ctx, string(b.ID), bookings.StatusFinished))

	rv, err := a.SubmitReview(ctx, bookings.ReviewDraft{ServiceID: svc.ID, Rating: 5, Comment: "Spotless"})
	require.NoError(t, err)

	require.NoError(t, a.Reviews.Remove(ctx, string(rv.ID)))
	require.NoError(t, a.Bookings.Remove(ctx, string(b.ID)))
	require.NoError(t, a.Services.Remove(ctx, string(svc.ID)))

	for _, r := range fs.Requests() {
		public := r.Path == "/api/login" ||
			(r.Method == http.MethodPost && (r.Path == "/api/bookings" || r.Path == "/api/reviews"))
		gated := r.Method == http.MethodPut || r.Method == http.MethodDelete ||
			(r.Method == http.MethodPost && r.Path == "/api/services") ||
			(r.Method == http.MethodGet && r.Path == "/api/bookings")
		switch {
		case public:
			assert.Empty(t, r.Authorization, "%s %s", r.Method, r.Path)
		case gated:
			assert.Equal(t, auth, r.Authorization, "%s %s", r.Method, r.Path)
		}
	}
}

func TestServiceSearchScenario(t *testing.T) {
	a, fs, _ := newApp(t)
	fs.SeedService(bookings.Service{Title: "Mobile Wash", Description: "We come to you"})
	fs.SeedService(bookings.Service{Title: "Interior Detail", Description: "Seats and carpets"})
	_, err := a.Services.Refresh(context.Background())
	require.NoError(t, err)

	got := a.SearchServices("mobile")
	require.Len(t, got, 1)
	assert.Equal(t, "Mobile Wash", got[0].Title)

	assert.Len(t, a.SearchServices("CARPETS"), 1, "description is searched too")
}

func TestBookingSearchByCustomer(t *testing.T) {
	a, fs, _ := newApp(t)
	fs.SeedBooking(bookings.Booking{CustomerName: "Ana Lima", ServiceTitle: "Mobile Wash"})
	fs.SeedBooking(bookings.Booking{CustomerName: "Ben", ServiceTitle: "Mobile Wash"})
	signIn(t, a, fs)
	_, err := a.Bookings.Refresh(context.Background())
	require.NoError(t, err)

	got := a.SearchBookings("ana")
	require.Len(t, got, 1)
	assert.Equal(t, "Ana Lima", got[0].CustomerName)
	assert.Empty(t, a.SearchBookings("mobile"), "bookings match on customer name only")
}

func TestSignOutDropsOperatorViews(t *testing.T) {
	a, fs, st := newApp(t)
	ctx := context.Background()
	fs.SeedBooking(bookings.Booking{CustomerName: "Ana"})
	signIn(t, a, fs)
	_, err := a.Bookings.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, a.Bookings.Items(), 1)

	require.NoError(t, a.SignOut(ctx))
	assert.False(t, a.Gate.IsAuthorized())
	assert.Empty(t, a.Bookings.Items())
	_, ok, _ := st.Get(ctx, state.AdminTokenKey("default"))
	assert.False(t, ok)
}

func TestSignInFailureMessage(t *testing.T) {
	a, fs, _ := newApp(t)
	err := a.SignIn(context.Background(), fs.Username, "wrong")
	require.Error(t, err)
	assert.Equal(t, "Wrong email or password", err.Error())
	assert.False(t, a.Gate.IsAuthorized())
}

func TestReviewTitleForDeletedService(t *testing.T) {
	a, fs, _ := newApp(t)
	ctx := context.Background()
	svc := fs.SeedService(bookings.Service{Title: "Ceramic Coat"})
	signIn(t, a, fs)
	_, err := a.Services.Refresh(ctx)
	require.NoError(t, err)

	rv, err := a.SubmitReview(ctx, bookings.ReviewDraft{ServiceID: svc.ID, Rating: 4, Comment: "Shiny"})
	require.NoError(t, err)
	assert.Equal(t, "Ceramic Coat", a.ReviewTitle(rv))

	require.NoError(t, a.Services.Remove(ctx, string(svc.ID)))
	assert.Equal(t, bookings.GeneralReview, a.ReviewTitle(rv))
}

func TestReviewRatingBounds(t *testing.T) {
	a, fs, _ := newApp(t)
	svc := fs.SeedService(bookings.Service{Title: "Wash"})
	for _, r := range []int{0, 6, -1} {
		_, err := a.SubmitReview(context.Background(), bookings.ReviewDraft{ServiceID: svc.ID, Rating: r, Comment: "x"})
		assert.ErrorIs(t, err, bookings.ErrInvalid, "rating %d", r)
	}
	assert.Empty(t, fs.Requests())
}

func TestTrackerFollowsSubmittedBooking(t *testing.T) {
	a, fs, st := newApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := a.SubmitBooking(ctx, anaDraft())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Tracker.Run(ctx) }()

	require.Eventually(t, func() bool {
		v, ok := a.Tracker.Current()
		return ok && v.Status == bookings.StatusPending
	}, time.Second, time.Millisecond)

	fs.DeleteBooking(string(b.ID))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("tracker kept polling a deleted booking")
	}
	_, ok := a.Tracker.Current()
	assert.False(t, ok)
	_, ok, _ = st.Get(context.Background(), state.LastBookingKey("default"))
	assert.False(t, ok)
}

func TestSetStatusOnStoreRecordWithoutStatus(t *testing.T) {
	var put []byte
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/bookings", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":7,"customer_name":"Ana","service_title":"Full Detail"}]`))
	})
	mux.HandleFunc("PUT /api/bookings/7", func(w http.ResponseWriter, r *http.Request) {
		put, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	ctx := context.Background()
	a, err := New(ctx, config.Config{APIBaseURL: srv.URL, Profile: "default", RequestTimeout: 2 * time.Second}, state.NewMemory())
	require.NoError(t, err)
	require.NoError(t, a.Gate.Login(ctx, "tok"))

	items, err := a.Bookings.Refresh(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, bookings.StatusPending, items[0].Status)

	require.NoError(t, a.SetBookingStatus(ctx, "7", bookings.StatusInProgress))
	assert.JSONEq(t, `{"status":"In Progress"}`, string(put))
	b, ok := a.Bookings.Get("7")
	require.True(t, ok)
	assert.Equal(t, bookings.StatusInProgress, b.Status)
}
