package client

import (
	"net/http"
	"testing"
)

func attachClient(t *testing.T, scheme string, referer string) *Client {
	t.Helper()
	s, err := ParseScheme(scheme)
	if err != nil {
		t.Fatalf("ParseScheme(%q) returned error: %v", scheme, err)
	}
	p := testProfile()
	p.TokenScheme = s
	p.Referer = referer
	return testClient(t, p)
}

func newRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("NewRequest() returned error: %v", err)
	}
	return req
}

func TestClient_Attach(t *testing.T) {
	tests := []struct {
		name       string
		scheme     string
		url        string
		wantHeader string
		wantURL    string
	}{
		{
			name:       "bearer header",
			scheme:     "auth-header:Bearer",
			url:        "https://api.example.com/user",
			wantHeader: "Bearer tok_abc",
		},
		{
			name:       "oauth header",
			scheme:     "auth-header:OAuth",
			url:        "https://api.example.com/user",
			wantHeader: "OAuth tok_abc",
		},
		{
			name:    "query parameter",
			scheme:  "uri-query:access_token",
			url:     "https://api.example.com/user",
			wantURL: "https://api.example.com/user?access_token=tok_abc",
		},
		{
			name:    "query parameter appended to existing query",
			scheme:  "uri-query:access_token",
			url:     "https://api.example.com/user?page=2",
			wantURL: "https://api.example.com/user?access_token=tok_abc&page=2",
		},
		{
			name:    "custom query parameter name",
			scheme:  "uri-query:oauth_token",
			url:     "https://api.example.com/user",
			wantURL: "https://api.example.com/user?oauth_token=tok_abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := attachClient(t, tt.scheme, "")
			token := &Token{AccessToken: "tok_abc"}
			req := newRequest(t, tt.url)

			c.Attach(req, token)

			if tt.wantHeader != "" {
				if got := req.Header.Get("Authorization"); got != tt.wantHeader {
					t.Errorf("Authorization = %q, want %q", got, tt.wantHeader)
				}
			} else if req.Header.Get("Authorization") != "" {
				t.Errorf("Authorization should be empty for %s", tt.scheme)
			}
			if tt.wantURL != "" {
				if got := req.URL.String(); got != tt.wantURL {
					t.Errorf("URL = %q, want %q", got, tt.wantURL)
				}
			}
		})
	}
}

func TestClient_Attach_Idempotent(t *testing.T) {
	t.Run("header", func(t *testing.T) {
		c := attachClient(t, "auth-header:Bearer", "")
		token := &Token{AccessToken: "tok_abc"}
		req := newRequest(t, "https://api.example.com/user")

		c.Attach(req, token)
		c.Attach(req, token)

		if got := len(req.Header.Values("Authorization")); got != 1 {
			t.Errorf("Authorization header appears %d times, want 1", got)
		}
		if got := req.Header.Get("Authorization"); got != "Bearer tok_abc" {
			t.Errorf("Authorization = %q, want Bearer tok_abc", got)
		}
	})

	t.Run("query", func(t *testing.T) {
		c := attachClient(t, "uri-query:access_token", "")
		token := &Token{AccessToken: "tok_abc"}
		req := newRequest(t, "https://api.example.com/user")

		c.Attach(req, token)
		c.Attach(req, token)

		if got := len(req.URL.Query()["access_token"]); got != 1 {
			t.Errorf("access_token appears %d times, want 1", got)
		}
	})

	t.Run("query value replaced after refresh", func(t *testing.T) {
		c := attachClient(t, "uri-query:access_token", "")
		token := &Token{AccessToken: "old"}
		req := newRequest(t, "https://api.example.com/user")

		c.Attach(req, token)
		token.AccessToken = "new"
		c.Attach(req, token)

		if got := req.URL.Query().Get("access_token"); got != "new" {
			t.Errorf("access_token = %q, want new", got)
		}
	})
}

func TestClient_Attach_Referer(t *testing.T) {
	c := attachClient(t, "auth-header:Bearer", "https://app.example.com")
	req := newRequest(t, "https://api.example.com/user")

	c.Attach(req, &Token{AccessToken: "tok_abc"})

	if got := req.Header.Get("Referer"); got != "https://app.example.com" {
		t.Errorf("Referer = %q, want https://app.example.com", got)
	}
}

func TestClient_Attach_TokenSchemeOverride(t *testing.T) {
	c := attachClient(t, "auth-header:Bearer", "")
	token := &Token{
		AccessToken:    "tok_abc",
		SchemeOverride: &Scheme{Location: SchemeURIQuery, Label: "token"},
	}
	req := newRequest(t, "https://api.example.com/user")

	c.Attach(req, token)

	if req.Header.Get("Authorization") != "" {
		t.Error("override should have suppressed the Authorization header")
	}
	if got := req.URL.Query().Get("token"); got != "tok_abc" {
		t.Errorf("token query = %q, want tok_abc", got)
	}
}

func TestClient_Attach_DefaultScheme(t *testing.T) {
	// A profile without a scheme falls back to the Bearer header.
	c := testClient(t, testProfile())
	req := newRequest(t, "https://api.example.com/user")

	c.Attach(req, &Token{AccessToken: "tok_abc"})

	if got := req.Header.Get("Authorization"); got != "Bearer tok_abc" {
		t.Errorf("Authorization = %q, want Bearer tok_abc", got)
	}
}
