package client

import (
	"net/url"
)

// Default endpoint paths, joined to the profile's Site when the profile
// does not override them.
const (
	DefaultAuthorizePath   = "/oauth/authorize"
	DefaultAccessTokenPath = "/oauth/token"
)

// DefaultGrantType is the grant this package implements.
const DefaultGrantType = "authorization_code"

// AutoSaveFunc is the persistence hook invoked after every token mutation.
// It receives the owning profile and the freshly granted or refreshed token.
// A non-nil return surfaces to the exchange caller as an AutoSaveError.
type AutoSaveFunc func(p *Profile, t *Token) error

// Profile is the immutable configuration of one confidential-client
// integration: who the client is, where the authorization server lives, and
// how granted tokens are attached and persisted. Construct it once, pass it
// to New, and share it read-only across all sessions of the integration.
type Profile struct {
	// ClientID and ClientSecret identify the confidential client.
	// Both are required.
	ClientID     string
	ClientSecret string

	// Site is the base URL of the authorization server, for example
	// "https://auth.example.com". AuthorizePath and AccessTokenPath are
	// joined to it; they default to DefaultAuthorizePath and
	// DefaultAccessTokenPath.
	Site            string
	AuthorizePath   string
	AccessTokenPath string

	// RedirectURI is sent on authorize redirects and code exchanges when
	// set. Scope is the default scope requested on authorize redirects.
	RedirectURI string
	Scope       string

	// Referer, when set, is added as a Referer header to every request
	// decorated by Attach.
	Referer string

	// GrantType defaults to DefaultGrantType.
	GrantType string

	// TokenScheme says how access tokens are attached to requests against
	// the protected resource. Defaults to DefaultScheme. Individual tokens
	// may carry their own override.
	TokenScheme Scheme

	// AutoSave, when non-nil, is invoked synchronously exactly once after
	// every successful grant or refresh.
	AutoSave AutoSaveFunc
}

// Validate checks the required fields. It does not mutate the profile.
func (p *Profile) Validate() error {
	if p == nil {
		return &ConfigurationError{Reason: "profile is nil"}
	}
	if p.ClientID == "" {
		return &ConfigurationError{Reason: "client_id is required"}
	}
	if p.ClientSecret == "" {
		return &ConfigurationError{Reason: "client_secret is required"}
	}
	if p.Site == "" {
		return &ConfigurationError{Reason: "site is required"}
	}
	u, err := url.Parse(p.Site)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return &ConfigurationError{Reason: "site must be an absolute base URL, got " + p.Site}
	}
	return nil
}

// authorizeURL returns the absolute authorization endpoint URL.
func (p *Profile) authorizeURL() (string, error) {
	return p.endpointURL(p.AuthorizePath, DefaultAuthorizePath)
}

// accessTokenURL returns the absolute token endpoint URL.
func (p *Profile) accessTokenURL() (string, error) {
	return p.endpointURL(p.AccessTokenPath, DefaultAccessTokenPath)
}

func (p *Profile) endpointURL(path, fallback string) (string, error) {
	if path == "" {
		path = fallback
	}
	u, err := url.JoinPath(p.Site, path)
	if err != nil {
		return "", &ConfigurationError{Reason: "cannot join site and endpoint path: " + err.Error()}
	}
	return u, nil
}

// scheme returns the profile's attachment scheme, falling back to
// DefaultScheme.
func (p *Profile) scheme() Scheme {
	if p.TokenScheme.IsZero() {
		return DefaultScheme
	}
	return p.TokenScheme
}

// grantType returns the configured grant type, falling back to
// DefaultGrantType.
func (p *Profile) grantType() string {
	if p.GrantType == "" {
		return DefaultGrantType
	}
	return p.GrantType
}
