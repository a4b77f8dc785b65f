package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestSendSuccess(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"success":1,"failure":0,"results":[{}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-key", zap.NewNop())
	if err := c.Send(context.Background(), "tok-1", "Dhuhr Prayer Reminder", "Dhuhr is in 60 minutes"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotAuth != "key=secret-key" {
		t.Fatalf("authorization header %q", gotAuth)
	}
	if gotBody["to"] != "tok-1" {
		t.Fatalf("token not sent: %v", gotBody)
	}
}

func TestSendClassifiesDeadToken(t *testing.T) {
	for _, code := range []string{"NotRegistered", "InvalidRegistration"} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":0,"failure":1,"results":[{"error":"` + code + `"}]}`))
		}))

		c := New(srv.URL, "k", zap.NewNop())
		err := c.Send(context.Background(), "dead", "t", "b")
		srv.Close()

		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: want ErrInvalidToken, got %v", code, err)
		}
	}
}

func TestSendOtherFailureIsNotInvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":0,"failure":1,"results":[{"error":"Unavailable"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "k", zap.NewNop())
	err := c.Send(context.Background(), "tok", "t", "b")
	if err == nil {
		t.Fatal("rejected push must surface an error")
	}
	if errors.Is(err, ErrInvalidToken) {
		t.Fatal("transient failure must not be classified as a dead token")
	}
}

func TestSendHTTPGoneIsInvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	c := New(srv.URL, "k", zap.NewNop())
	if err := c.Send(context.Background(), "tok", "t", "b"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken for 410, got %v", err)
	}
}

func TestSendServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "k", zap.NewNop())
	err := c.Send(context.Background(), "tok", "t", "b")
	if err == nil || errors.Is(err, ErrInvalidToken) {
		t.Fatalf("want transient error, got %v", err)
	}
}
