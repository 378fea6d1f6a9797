package health

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pilot-net/pathwatch/internal/stats"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProvider struct {
	user, pass, token string
	err               error
}

func (f *fakeProvider) HealthCredentials(ctx context.Context) (string, string, string, error) {
	return f.user, f.pass, f.token, f.err
}

func newTestServer(repo StatsSource, provider *fakeProvider) *Server {
	if provider == nil {
		return NewServer(Config{Addr: "127.0.0.1:0"}, repo, nil, testLogger())
	}
	return NewServer(Config{Addr: "127.0.0.1:0"}, repo, provider, testLogger())
}

func TestHealthEndpointAlwaysReturns200(t *testing.T) {
	repo := stats.New(1800, 600, 50)
	s := newTestServer(repo, nil)
	srv := httptest.NewServer(http.HandlerFunc(s.handleHealth))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected status healthy, got %q", body["status"])
	}
}

func TestReadyEndpointReturns503WhenNoPingsYet(t *testing.T) {
	repo := stats.New(1800, 600, 50)
	s := newTestServer(repo, nil)
	srv := httptest.NewServer(http.HandlerFunc(s.handleReady))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestReadyEndpointReturns200WithCountsAfterPings(t *testing.T) {
	repo := stats.New(1800, 600, 50)
	repo.UpdateAfterPing(true, 10, true, false, 0, false)
	repo.UpdateAfterPing(false, 0, false, false, 0, false)

	s := newTestServer(repo, nil)
	srv := httptest.NewServer(http.HandlerFunc(s.handleReady))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if int(body["total"].(float64)) != 2 {
		t.Errorf("expected total 2, got %v", body["total"])
	}
	if int(body["success"].(float64)) != 1 {
		t.Errorf("expected success 1, got %v", body["success"])
	}
}

func TestWithAuthRejectsMissingBasicAuth(t *testing.T) {
	repo := stats.New(1800, 600, 50)
	s := newTestServer(repo, &fakeProvider{user: "admin", pass: "hunter2"})
	srv := httptest.NewServer(s.withAuth(s.handleHealth))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestWithAuthAcceptsValidBasicAuth(t *testing.T) {
	repo := stats.New(1800, 600, 50)
	s := newTestServer(repo, &fakeProvider{user: "admin", pass: "hunter2"})
	srv := httptest.NewServer(s.withAuth(s.handleHealth))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.SetBasicAuth("admin", "hunter2")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestWithAuthAcceptsValidToken(t *testing.T) {
	repo := stats.New(1800, 600, 50)
	s := newTestServer(repo, &fakeProvider{token: "secret-token"})
	srv := httptest.NewServer(s.withAuth(s.handleHealth))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("X-Health-Token", "secret-token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestWithAuthPassesThroughWhenUnconfigured(t *testing.T) {
	repo := stats.New(1800, 600, 50)
	s := newTestServer(repo, &fakeProvider{})
	srv := httptest.NewServer(s.withAuth(s.handleHealth))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 when no credentials configured, got %d", resp.StatusCode)
	}
}

func TestClientIPHonorsForwardedForOnlyWhenTrusted(t *testing.T) {
	repo := stats.New(1800, 600, 50)
	s := NewServer(Config{Addr: "127.0.0.1:0", TrustedProxies: []string{"192.0.2.1"}}, repo, nil, testLogger())

	untrusted := &http.Request{RemoteAddr: "203.0.113.9:1234", Header: http.Header{"X-Forwarded-For": []string{"10.0.0.5"}}}
	if got := s.ClientIP(untrusted); got != "203.0.113.9" {
		t.Errorf("expected untrusted peer address, got %q", got)
	}

	trusted := &http.Request{RemoteAddr: "192.0.2.1:1234", Header: http.Header{"X-Forwarded-For": []string{"10.0.0.5"}}}
	if got := s.ClientIP(trusted); got != "10.0.0.5" {
		t.Errorf("expected forwarded address from trusted proxy, got %q", got)
	}
}
