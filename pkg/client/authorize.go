package client

import (
	"net/http"
	"net/url"
)

// authorizeParams are the query parameters of an authorization redirect.
// Defaults come from the profile; options override per request.
type authorizeParams struct {
	clientID     string
	responseType string
	redirectURI  string
	scope        string
	state        string
}

// AuthorizeOption overrides one parameter of an authorization redirect.
type AuthorizeOption func(*authorizeParams)

// WithState sets the opaque state parameter echoed back on the callback.
// The caller is responsible for correlating it.
func WithState(state string) AuthorizeOption {
	return func(p *authorizeParams) { p.state = state }
}

// WithScope overrides the profile's default scope for this redirect.
func WithScope(scope string) AuthorizeOption {
	return func(p *authorizeParams) { p.scope = scope }
}

// WithRedirectURI overrides the profile's redirect URI for this redirect.
func WithRedirectURI(uri string) AuthorizeOption {
	return func(p *authorizeParams) { p.redirectURI = uri }
}

// WithResponseType overrides the response_type parameter. The default is
// "code", the only type this package exchanges.
func WithResponseType(rt string) AuthorizeOption {
	return func(p *authorizeParams) { p.responseType = rt }
}

// WithAuthorizeClientID overrides the client_id sent on the redirect.
func WithAuthorizeClientID(clientID string) AuthorizeOption {
	return func(p *authorizeParams) { p.clientID = clientID }
}

// AuthCodeURL builds the URL the resource owner is redirected to in order
// to grant access. The result always carries response_type and client_id;
// redirect_uri, scope, and state are included when non-empty. The client
// secret is never part of the URL.
func (c *Client) AuthCodeURL(opts ...AuthorizeOption) (string, error) {
	params := authorizeParams{
		clientID:     c.profile.ClientID,
		responseType: "code",
		redirectURI:  c.profile.RedirectURI,
		scope:        c.profile.Scope,
	}
	for _, opt := range opts {
		opt(&params)
	}

	endpoint, err := c.profile.authorizeURL()
	if err != nil {
		return "", err
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", &ConfigurationError{Reason: "invalid authorize endpoint: " + err.Error()}
	}

	values := url.Values{}
	values.Set("response_type", params.responseType)
	values.Set("client_id", params.clientID)
	if params.redirectURI != "" {
		values.Set("redirect_uri", params.redirectURI)
	}
	if params.scope != "" {
		values.Set("scope", params.scope)
	}
	if params.state != "" {
		values.Set("state", params.state)
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// RedirectToAuthorize writes a 307 Temporary Redirect to the authorization
// endpoint with an empty body.
func (c *Client) RedirectToAuthorize(w http.ResponseWriter, opts ...AuthorizeOption) error {
	u, err := c.AuthCodeURL(opts...)
	if err != nil {
		return err
	}
	w.Header().Set("Location", u)
	w.WriteHeader(http.StatusTemporaryRedirect)
	return nil
}
