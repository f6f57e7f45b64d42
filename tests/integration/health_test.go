//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestLiveness(t *testing.T) {
	resp := doGet(t, "/livez")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	health := decodeJSON[healthResponse](t, resp)
	if health.Status != "ok" {
		t.Errorf("status: got %q, want ok", health.Status)
	}
}

func TestReadiness(t *testing.T) {
	resp := doGet(t, "/readyz")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestDenominations(t *testing.T) {
	resp := doGet(t, "/api/denominations")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	pool := decodeJSON[[]denominationResponse](t, resp)
	if len(pool) == 0 {
		t.Fatal("expected seeded denominations")
	}
	for i := 1; i < len(pool); i++ {
		if pool[i].Value >= pool[i-1].Value {
			t.Errorf("pool not sorted descending at %d: %d >= %d", i, pool[i].Value, pool[i-1].Value)
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()

	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header on response")
	}
}
