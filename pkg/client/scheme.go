package client

import (
	"strconv"
	"strings"
)

// SchemeLocation says where an access token is placed on an outgoing request.
type SchemeLocation string

const (
	// SchemeAuthHeader places the token in the Authorization header.
	SchemeAuthHeader SchemeLocation = "auth-header"
	// SchemeURIQuery places the token in the request URI's query string.
	SchemeURIQuery SchemeLocation = "uri-query"
)

// Scheme describes how an access token is attached to a request. Location
// chooses the carrier; Label is the Authorization scheme name (for example
// "Bearer" or "OAuth") or the query parameter name.
type Scheme struct {
	Location SchemeLocation
	Label    string
}

// DefaultScheme is applied when a profile does not configure one.
var DefaultScheme = Scheme{Location: SchemeAuthHeader, Label: "Bearer"}

// ParseScheme parses a "<location>:<label>" descriptor such as
// "auth-header:Bearer" or "uri-query:access_token".
func ParseScheme(s string) (Scheme, error) {
	location, label, ok := strings.Cut(s, ":")
	if !ok || label == "" {
		return Scheme{}, &ConfigurationError{Reason: "token scheme must be <location>:<label>, got " + strconv.Quote(s)}
	}
	switch SchemeLocation(location) {
	case SchemeAuthHeader, SchemeURIQuery:
		return Scheme{Location: SchemeLocation(location), Label: label}, nil
	default:
		return Scheme{}, &ConfigurationError{Reason: "unknown token scheme location " + strconv.Quote(location)}
	}
}

// String returns the "<location>:<label>" descriptor for the scheme.
func (s Scheme) String() string {
	return string(s.Location) + ":" + s.Label
}

// IsZero reports whether the scheme is unset.
func (s Scheme) IsZero() bool {
	return s.Location == "" && s.Label == ""
}
