package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	logx "herald/pkg/logx"
)

func testSupplier() *Supplier {
	return New(Config{
		Timeout:       2 * time.Second,
		RetryMax:      2,
		RetryBase:     time.Millisecond,
		RetryMaxDelay: 5 * time.Millisecond,
	}, logx.Nop())
}

func TestFetchValidFeed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"e1","name":"Go meetup","start_time":1754000000,"duration":7200,
			 "venue":{"id":"v1","name":"Hub","city":"Berlin"},"rsvp_count":12},
			{"id":"e2","name":"Lightning talks","start_time":1754100000,"end_time":1754103600},
			{"id":"e3","name":"Zero duration","start_time":1754200000}
		]`))
	}))
	defer srv.Close()

	got, err := testSupplier().Fetch(context.Background(), "g", srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("candidates = %d, want 3", len(got))
	}

	e1 := got[0]
	if e1.ID != "e1" || e1.VenueID != "v1" || e1.Attendees != 12 {
		t.Fatalf("e1 = %+v", e1)
	}
	if e1.Location != "Hub, Berlin" {
		t.Fatalf("e1 location = %q", e1.Location)
	}
	if e1.End.Sub(e1.Start) != 2*time.Hour {
		t.Fatalf("e1 duration = %v, want 2h", e1.End.Sub(e1.Start))
	}
	if e2 := got[1]; !e2.End.Equal(time.Unix(1754103600, 0).UTC()) {
		t.Fatalf("e2 explicit end lost: %v", e2.End)
	}
	if e3 := got[2]; !e3.End.Equal(e3.Start) {
		t.Fatalf("e3 must be zero-duration: start=%v end=%v", e3.Start, e3.End)
	}
}

func TestFetchSkipsMalformedEntries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id":"","name":"no id","start_time":1754000000},
			{"id":"e2","name":"no start"},
			{"id":"e3","name":"backwards","start_time":1754000000,"end_time":1753000000},
			{"id":"ok","name":"fine","start_time":1754000000}
		]`))
	}))
	defer srv.Close()

	got, err := testSupplier().Fetch(context.Background(), "g", srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 1 || got[0].ID != "ok" {
		t.Fatalf("candidates = %+v, want just ok", got)
	}
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"e1","name":"n","start_time":1754000000}]`))
	}))
	defer srv.Close()

	got, err := testSupplier().Fetch(context.Background(), "g", srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("candidates = %d, want 1", len(got))
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("calls = %d, want 3", n)
	}
}

func TestFetchExhaustsRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := testSupplier().Fetch(context.Background(), "g", srv.URL); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if n := calls.Load(); n != 3 {
		t.Fatalf("calls = %d, want 3 (1 + 2 retries)", n)
	}
}

func TestFetchHonorsContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := testSupplier().Fetch(ctx, "g", srv.URL); err == nil {
		t.Fatal("expected context error")
	}
}
