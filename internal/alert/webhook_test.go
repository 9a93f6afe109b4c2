package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookNotifier_PostsJSON(t *testing.T) {
	var got Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, 0)
	err := n.Notify(context.Background(), Alert{
		Severity: SeverityCritical,
		Title:    "risk check blocked orders",
		Message:  "total exposure exceeded",
	})
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if got.Severity != SeverityCritical || got.Title != "risk check blocked orders" {
		t.Errorf("unexpected alert payload: %+v", got)
	}
}

func TestWebhookNotifier_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, 0)
	if err := n.Notify(context.Background(), Alert{Severity: SeverityWarning}); err == nil {
		t.Error("expected error on 502 response")
	}
}
