package aladhan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/azan-reminder/internal/domain/entities"
)

const timingsBody = `{
	"code": 200,
	"status": "OK",
	"data": {
		"timings": {
			"Fajr": "06:00",
			"Sunrise": "07:25",
			"Dhuhr": "12:00",
			"Asr": "15:30",
			"Maghrib": "18:45",
			"Isha": "20:00"
		},
		"meta": {"timezone": "UTC"}
	}
}`

func TestTimingsByCoordinates(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Write([]byte(timingsBody))
	}))
	defer srv.Close()

	c := New(srv.URL, 2, zap.NewNop())
	day := time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC)
	table, err := c.Timings(context.Background(), 41.0082, 28.9784, day)
	if err != nil {
		t.Fatalf("Timings: %v", err)
	}

	if gotPath != "/timings/03-11-2025" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotQuery["latitude"][0] != "41.0082" || gotQuery["longitude"][0] != "28.9784" {
		t.Fatalf("coordinates not sent: %v", gotQuery)
	}
	if gotQuery["method"][0] != "2" {
		t.Fatalf("method selector not sent: %v", gotQuery)
	}
	if table.Len() != 6 {
		t.Fatalf("want 6 events, got %d", table.Len())
	}
	at, _ := table.At(entities.Maghrib)
	want := time.Date(2025, time.November, 3, 18, 45, 0, 0, time.UTC)
	if !at.Equal(want) {
		t.Fatalf("Maghrib: want %v, got %v", want, at)
	}
}

func TestTimingsByCity(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Write([]byte(timingsBody))
	}))
	defer srv.Close()

	c := New(srv.URL, 2, zap.NewNop())
	day := time.Date(2025, time.November, 3, 0, 0, 0, 0, time.UTC)
	if _, err := c.TimingsByCity(context.Background(), "Istanbul", "Turkey", day); err != nil {
		t.Fatalf("TimingsByCity: %v", err)
	}

	if gotPath != "/timingsByCity" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotQuery["city"][0] != "Istanbul" || gotQuery["country"][0] != "Turkey" {
		t.Fatalf("location not sent: %v", gotQuery)
	}
}

func TestNon2xxIsRecoverableError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, 0, zap.NewNop())
	if _, err := c.Timings(context.Background(), 0, 0, time.Now()); err == nil {
		t.Fatal("non-2xx must surface as an error")
	}
}

func TestMalformedPayloadIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": 200, "status": "OK", "data": {"timings": {}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 0, zap.NewNop())
	if _, err := c.Timings(context.Background(), 0, 0, time.Now()); err == nil {
		t.Fatal("empty timings must surface as an error")
	}
}

func TestMalformedSingleTimeIsSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"code": 200, "status": "OK",
			"data": {"timings": {"Fajr": "garbage", "Dhuhr": "12:00"}, "meta": {"timezone": "UTC"}}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 0, zap.NewNop())
	table, err := c.Timings(context.Background(), 0, 0, time.Now())
	if err != nil {
		t.Fatalf("one bad event must not reject the table: %v", err)
	}
	if table.Len() != 1 {
		t.Fatalf("want 1 usable event, got %d", table.Len())
	}
}
