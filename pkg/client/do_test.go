package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// resourceServer fakes a protected resource that accepts one specific
// bearer token and answers 401 to anything else.
func resourceServer(t *testing.T, accept *atomic.Value) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := "Bearer " + accept.Load().(string)
		if r.Header.Get("Authorization") != want {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, "ok")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Do(t *testing.T) {
	var accept atomic.Value
	accept.Store("A")
	resource := resourceServer(t, &accept)

	_, tokenSrv := newTokenEndpoint(t, jsonGrant(`{"access_token":"A2"}`))
	c := testClient(t, exchangeProfile(tokenSrv.URL))

	token := &Token{AccessToken: "A", RefreshToken: "R"}
	req := newRequest(t, resource.URL)

	resp, err := c.Do(context.Background(), req, token)
	if err != nil {
		t.Fatalf("Do() returned error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestClient_Do_RefreshesOn401(t *testing.T) {
	var accept atomic.Value
	accept.Store("A2")
	resource := resourceServer(t, &accept)

	te, tokenSrv := newTokenEndpoint(t, jsonGrant(`{"access_token":"A2"}`))
	c := testClient(t, exchangeProfile(tokenSrv.URL))

	// The resource only accepts A2; the stale token forces one refresh.
	token := &Token{AccessToken: "A", RefreshToken: "R"}
	req := newRequest(t, resource.URL)

	resp, err := c.Do(context.Background(), req, token)
	if err != nil {
		t.Fatalf("Do() returned error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 after refresh", resp.StatusCode)
	}
	if token.AccessToken != "A2" {
		t.Errorf("AccessToken = %q, want refreshed A2", token.AccessToken)
	}
	if got := te.requests.Load(); got != 1 {
		t.Errorf("token endpoint saw %d requests, want 1", got)
	}
}

func TestClient_Do_NoRetryWithoutRefreshToken(t *testing.T) {
	var accept atomic.Value
	accept.Store("other")
	resource := resourceServer(t, &accept)

	te, tokenSrv := newTokenEndpoint(t, jsonGrant(`{"access_token":"A2"}`))
	c := testClient(t, exchangeProfile(tokenSrv.URL))

	token := &Token{AccessToken: "A"}
	req := newRequest(t, resource.URL)

	resp, err := c.Do(context.Background(), req, token)
	if err != nil {
		t.Fatalf("Do() returned error: %v", err)
	}
	defer resp.Body.Close()

	// The 401 is surfaced; restarting the flow is the caller's decision.
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
	if te.requests.Load() != 0 {
		t.Error("no refresh should have been attempted")
	}
}

func TestClient_Do_RefreshFailure(t *testing.T) {
	var accept atomic.Value
	accept.Store("other")
	resource := resourceServer(t, &accept)

	_, tokenSrv := newTokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	})
	c := testClient(t, exchangeProfile(tokenSrv.URL))

	token := &Token{AccessToken: "A", RefreshToken: "R"}
	req := newRequest(t, resource.URL)

	_, err := c.Do(context.Background(), req, token)
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("error = %v, want ProtocolError from the failed refresh", err)
	}
}
