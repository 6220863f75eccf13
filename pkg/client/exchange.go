package client

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Grant types sent to the token endpoint.
const (
	grantTypeRefresh = "refresh_token"
)

// exchangeParams carry per-exchange credential overrides.
type exchangeParams struct {
	clientID     string
	clientSecret string
}

// ExchangeOption overrides one parameter of a token endpoint exchange.
type ExchangeOption func(*exchangeParams)

// WithClientCredentials overrides the profile's client_id and client_secret
// for this exchange.
func WithClientCredentials(clientID, clientSecret string) ExchangeOption {
	return func(p *exchangeParams) {
		p.clientID = clientID
		p.clientSecret = clientSecret
	}
}

// tokenResponse is the parsed body of a token endpoint response, accepted
// either as JSON or form-encoded.
type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	TokenType    string        `json:"token_type"`
	RefreshToken string        `json:"refresh_token"`
	Scope        string        `json:"scope"`
	ExpiresIn    expirySeconds `json:"expires_in"`
}

// expirySeconds tolerates servers that send expires_in as a JSON string.
type expirySeconds int64

func (e *expirySeconds) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*e = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*e = expirySeconds(n)
	return nil
}

// errorResponse is the OAuth error body of a failed exchange.
type errorResponse struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

// ExchangeCode exchanges an authorization code for a new Token. On success
// the token is marked Changed and the profile's AutoSave hook has already
// run; an AutoSaveError therefore still returns the granted token.
func (c *Client) ExchangeCode(ctx context.Context, code string, opts ...ExchangeOption) (*Token, error) {
	if code == "" {
		return nil, &ConfigurationError{Reason: "authorization code is required"}
	}

	form := url.Values{}
	form.Set("grant_type", c.profile.grantType())
	form.Set("code", code)
	if c.profile.RedirectURI != "" {
		form.Set("redirect_uri", c.profile.RedirectURI)
	}

	resp, err := c.grant(ctx, form, opts)
	if err != nil {
		return nil, err
	}

	t := &Token{}
	t.applyGrant(resp, time.Now())
	c.logger.Info("access token granted",
		"client_id", c.profile.ClientID,
		"expires_at", t.ExpiresAt,
		"can_refresh", t.CanRefresh(),
	)
	return t, c.notifyChanged(t)
}

// RefreshToken exchanges the token's refresh token for fresh material,
// mutating the token in place. The access token and expiry are replaced;
// the refresh token is replaced only when the server rotates it.
//
// Refreshes of the same token are serialized: a caller arriving while
// another refresh is in flight waits for it and, if it succeeded, returns
// without issuing a competing request. Authorization servers may invalidate
// a refresh token the instant it is used, so a second concurrent exchange
// would strand one caller with a dead session.
func (c *Client) RefreshToken(ctx context.Context, t *Token, opts ...ExchangeOption) error {
	if t == nil {
		return &ConfigurationError{Reason: "no refresh token"}
	}

	entered := t.generation.Load()
	t.refreshMu.Lock()
	defer t.refreshMu.Unlock()

	if t.generation.Load() != entered {
		// Another caller refreshed while we waited; reuse its result.
		return nil
	}
	// Checked under refreshMu: t.RefreshToken only changes while it is held.
	if !t.CanRefresh() {
		return &ConfigurationError{Reason: "no refresh token"}
	}

	form := url.Values{}
	form.Set("grant_type", grantTypeRefresh)
	form.Set("refresh_token", t.RefreshToken)

	resp, err := c.grant(ctx, form, opts)
	if err != nil {
		return err
	}

	rotated := resp.RefreshToken != "" && resp.RefreshToken != t.RefreshToken
	t.applyGrant(resp, time.Now())
	c.logger.Info("access token refreshed",
		"client_id", c.profile.ClientID,
		"expires_at", t.ExpiresAt,
		"refresh_token_rotated", rotated,
	)
	return c.notifyChanged(t)
}

// notifyChanged invokes the profile's auto-save hook exactly once for a
// freshly mutated token. The mutation is never rolled back on failure.
func (c *Client) notifyChanged(t *Token) error {
	if c.profile.AutoSave == nil {
		return nil
	}
	if err := c.profile.AutoSave(c.profile, t); err != nil {
		c.logger.Error("auto-save hook failed", "client_id", c.profile.ClientID, "error", err)
		return &AutoSaveError{Err: err}
	}
	return nil
}

// grant performs one POST against the token endpoint and parses the
// response. Transport failures map to NetworkError; non-2xx statuses,
// unparsable bodies, and missing access_token map to ProtocolError.
func (c *Client) grant(ctx context.Context, form url.Values, opts []ExchangeOption) (*tokenResponse, error) {
	params := exchangeParams{
		clientID:     c.profile.ClientID,
		clientSecret: c.profile.ClientSecret,
	}
	for _, opt := range opts {
		opt(&params)
	}
	form.Set("client_id", params.clientID)
	form.Set("client_secret", params.clientSecret)

	endpoint, err := c.profile.accessTokenURL()
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "oauth2.token_exchange")
	defer span.End()
	span.SetAttributes(
		attribute.String("oauth2.grant_type", form.Get("grant_type")),
		attribute.String("oauth2.token_endpoint", endpoint),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &ConfigurationError{Reason: "cannot build token request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json, application/x-www-form-urlencoded")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return nil, &NetworkError{URL: endpoint, Err: err}
	}
	defer httpResp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", httpResp.StatusCode))

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failure")
		return nil, &NetworkError{URL: endpoint, Err: err}
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		perr := &ProtocolError{StatusCode: httpResp.StatusCode}
		// Best effort: the body often still carries the OAuth error fields.
		if oauthErr := parseErrorBody(httpResp.Header.Get("Content-Type"), body); oauthErr != nil {
			perr.Code = oauthErr.Code
			perr.Description = oauthErr.Description
		}
		span.SetStatus(codes.Error, "token endpoint error")
		return nil, perr
	}

	resp, err := parseTokenBody(httpResp.Header.Get("Content-Type"), body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unparsable response")
		return nil, &ProtocolError{StatusCode: httpResp.StatusCode, Err: err}
	}
	if resp.AccessToken == "" {
		span.SetStatus(codes.Error, "missing access_token")
		return nil, &ProtocolError{
			StatusCode:  httpResp.StatusCode,
			Description: "response did not include an access_token",
		}
	}
	return resp, nil
}

// parseTokenBody decodes a token endpoint body, JSON or form-encoded,
// guided by the Content-Type with a JSON fallback for servers that omit it.
func parseTokenBody(contentType string, body []byte) (*tokenResponse, error) {
	switch mediaType(contentType) {
	case "application/x-www-form-urlencoded", "text/plain":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, err
		}
		resp := &tokenResponse{
			AccessToken:  values.Get("access_token"),
			TokenType:    values.Get("token_type"),
			RefreshToken: values.Get("refresh_token"),
			Scope:        values.Get("scope"),
		}
		if raw := values.Get("expires_in"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, err
			}
			resp.ExpiresIn = expirySeconds(n)
		}
		return resp, nil
	default:
		resp := &tokenResponse{}
		if err := json.Unmarshal(body, resp); err != nil {
			return nil, err
		}
		return resp, nil
	}
}

// parseErrorBody decodes the OAuth error fields of a failed exchange, or
// returns nil when the body has no recognizable error.
func parseErrorBody(contentType string, body []byte) *errorResponse {
	switch mediaType(contentType) {
	case "application/x-www-form-urlencoded", "text/plain":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil
		}
		if values.Get("error") == "" {
			return nil
		}
		return &errorResponse{
			Code:        values.Get("error"),
			Description: values.Get("error_description"),
		}
	default:
		resp := &errorResponse{}
		if err := json.Unmarshal(body, resp); err != nil || resp.Code == "" {
			return nil
		}
		return resp
	}
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return mt
}
