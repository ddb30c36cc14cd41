package listings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := New(srv.URL, 2*time.Second, zap.NewNop())
	c.backoff = time.Millisecond
	return c
}

func TestGetByID(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/listings/l-1":
			w.Write([]byte(`{
				"id": "l-1",
				"employerId": 100,
				"title": "Nanny",
				"status": "active",
				"schedule": {"kind": "live_in", "daysOff": [0]}
			}`))
		default:
			http.NotFound(w, r)
		}
	})

	l, err := c.GetByID(context.Background(), "l-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if l.ID != "l-1" || l.EmployerID != 100 || l.Title != "Nanny" {
		t.Fatalf("listing = %+v", l)
	}
	if got := len(l.Schedule.Slots()); got != 6 {
		t.Fatalf("live-in slots = %d, want 6", got)
	}

	missing, err := c.GetByID(context.Background(), "nope")
	if err != nil || missing != nil {
		t.Fatalf("GetByID(missing) = %v, %v; want nil, nil", missing, err)
	}
}

func TestListActiveByOwnerQuery(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("owner") != "100" || r.URL.Query().Get("status") != "active" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"items": [{"id": "a"}, {"id": "b"}]}`))
	})

	items, err := c.ListActiveByOwner(context.Background(), 100)
	if err != nil {
		t.Fatalf("ListActiveByOwner: %v", err)
	}
	if len(items) != 2 || items[1].ID != "b" {
		t.Fatalf("items = %+v", items)
	}
}

func TestRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"items": []}`))
	})

	if _, err := c.ListActive(context.Background()); err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	})

	if _, err := c.ListActive(context.Background()); err == nil {
		t.Fatal("ListActive succeeded, want error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestGivesUpAfterRetries(t *testing.T) {
	t.Parallel()

	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	if _, err := c.ListActive(context.Background()); err == nil {
		t.Fatal("ListActive succeeded, want error")
	}
	if got := atomic.LoadInt32(&calls); got != maxAttempts {
		t.Fatalf("calls = %d, want %d", got, maxAttempts)
	}
}
