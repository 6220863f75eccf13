package client

import (
	"context"
	"net/http"
)

// Attach decorates an outgoing request with the token's access token per
// the effective attachment scheme: the token's override when set, otherwise
// the profile's. Attaching is idempotent; re-attaching replaces the header
// or query value rather than duplicating it. When the profile configures a
// Referer, it is set as well.
//
// Attach only decorates; it never sends the request.
func (c *Client) Attach(req *http.Request, t *Token) {
	access, scheme := t.material(c.profile)
	switch scheme.Location {
	case SchemeURIQuery:
		query := req.URL.Query()
		query.Set(scheme.Label, access)
		req.URL.RawQuery = query.Encode()
	default:
		req.Header.Set("Authorization", scheme.Label+" "+access)
	}
	if c.profile.Referer != "" {
		req.Header.Set("Referer", c.profile.Referer)
	}
}

// Do attaches the token and sends the request through the client's
// transport. When the resource answers 401 and the token can refresh, the
// token is refreshed once (serialized with any concurrent refresh) and the
// request is retried once with the new material. Requests with a body are
// retried only when req.GetBody is set.
//
// Refresh here is reactive only: a token with an unknown expiry is used
// as-is until the resource rejects it.
func (c *Client) Do(ctx context.Context, req *http.Request, t *Token) (*http.Response, error) {
	req = req.WithContext(ctx)
	c.Attach(req, t)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || !t.CanRefresh() {
		return resp, nil
	}

	retry, err := cloneForRetry(req)
	if err != nil {
		return resp, nil
	}

	c.logger.Debug("resource rejected token, refreshing", "url", req.URL.Redacted())
	resp.Body.Close()
	if err := c.RefreshToken(ctx, t); err != nil {
		return nil, err
	}

	c.Attach(retry, t)
	return c.httpClient.Do(retry)
}

// cloneForRetry clones a request for the post-refresh retry, rewinding the
// body via GetBody. Bodiless requests clone freely; anything else without
// GetBody cannot be retried.
func cloneForRetry(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, http.ErrBodyReadAfterClose
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}
