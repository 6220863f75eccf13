package client

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultHTTPTimeout bounds token endpoint exchanges when no custom HTTP
// client is supplied.
const DefaultHTTPTimeout = 30 * time.Second

// Client drives the authorization-code grant for one Profile. It is safe
// for concurrent use; the profile it wraps is read-only after New.
type Client struct {
	profile    *Profile
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the transport used for token endpoint exchanges and
// for Do. Timeouts and retries at the socket level are its responsibility.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger for grant and refresh events. Defaults to
// slog.Default. Token material is never logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New validates the profile and returns a Client for it.
func New(profile *Profile, opts ...Option) (*Client, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		profile: profile,
		httpClient: &http.Client{
			Timeout: DefaultHTTPTimeout,
		},
		logger: slog.Default(),
		tracer: otel.Tracer("oauth2-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Profile returns the profile the client was built from.
func (c *Client) Profile() *Profile {
	return c.profile
}
