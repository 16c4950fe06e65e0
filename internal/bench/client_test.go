package bench

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		_, _ = w.Write([]byte("4.0"))
	}))
	defer srv.Close()

	client := NewClient()
	defer client.Close()

	resp := client.Fetch(context.Background(), srv.URL, 5*time.Second)
	if resp.Error != nil {
		t.Fatalf("Fetch() error = %v", resp.Error)
	}
	if resp.StatusCode != http.StatusOK || string(resp.Body) != "4.0" {
		t.Errorf("Fetch() = (%d, %q), want (200, %q)", resp.StatusCode, resp.Body, "4.0")
	}
	if resp.Latency <= 0 {
		t.Errorf("Latency = %s, want positive", resp.Latency)
	}
}

func TestClient_FetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	resp := NewClient().Fetch(context.Background(), url, time.Second)
	if resp.Error == nil {
		t.Fatal("Fetch() expected error for a closed server, got nil")
	}
	if resp.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", resp.StatusCode)
	}
}

func TestClient_Close_NilClient(t *testing.T) {
	var client *Client

	// should not panic on nil receiver
	client.Close()
}
