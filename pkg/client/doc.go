// Package client implements the OAuth 2.0 authorization-code grant for
// confidential (server-side) applications.
//
// A Profile describes one integration with an authorization server: the
// client credentials, the authorize and token endpoints, and how granted
// tokens are attached to outgoing requests. A Client built from a Profile
// can build the browser redirect to the authorization endpoint, exchange
// the returned code for a Token, refresh that Token when it expires, and
// decorate requests against the protected resource.
//
// Token persistence is coordinated through the Profile's AutoSave hook,
// which is invoked exactly once after every grant or refresh. The hook's
// calling contract is the only thing this package knows about persistence;
// see the store package for ready-made session-token backends.
//
// Refreshing the same Token from multiple goroutines is safe: at most one
// refresh is in flight per token, and callers arriving while a refresh is
// running wait for it and reuse its result.
package client
