package client

import "fmt"

// ConfigurationError reports a missing or malformed profile field, or an
// operation attempted without the material it needs (for example refreshing
// a token that has no refresh token).
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "oauth2: configuration error: " + e.Reason
}

// NetworkError reports that the transport could not complete a token
// endpoint exchange: connection failures, timeouts, cancelled contexts.
// The token involved is left in its prior state.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("oauth2: token endpoint unreachable: %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError reports a token endpoint response that could not be used:
// a non-2xx status, an unparsable body, or a 2xx body missing access_token.
// Code and Description carry the OAuth error fields when the server sent
// them.
type ProtocolError struct {
	StatusCode  int
	Code        string
	Description string
	Err         error
}

func (e *ProtocolError) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("oauth2: token endpoint returned %d: %s: %s", e.StatusCode, e.Code, e.Description)
	case e.Code != "":
		return fmt.Sprintf("oauth2: token endpoint returned %d: %s", e.StatusCode, e.Code)
	case e.Err != nil:
		return fmt.Sprintf("oauth2: invalid token endpoint response (status %d): %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("oauth2: invalid token endpoint response (status %d)", e.StatusCode)
	}
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// AutoSaveError reports that the profile's AutoSave hook failed after a
// successful grant or refresh. The in-memory token keeps the new material;
// the caller decides whether to retry persistence or discard the token.
type AutoSaveError struct {
	Err error
}

func (e *AutoSaveError) Error() string {
	return fmt.Sprintf("oauth2: auto-save hook failed: %v", e.Err)
}

func (e *AutoSaveError) Unwrap() error { return e.Err }
