// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import "fmt"

// FetchError reports a transport failure or a non-success HTTP status.
type FetchError struct {
	// Op is the E-utilities operation: "esearch" or "efetch".
	Op string

	// URL is the request URL.
	URL string

	// StatusCode is the HTTP status, or 0 when no response arrived.
	StatusCode int

	Err error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s returned HTTP %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: request %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a response body that is malformed or lacks an
// expected field.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parsing response: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
