// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the visual-medicine pipeline:
// the search query, ranked word counts, and stage configuration.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyTerm is returned when a query carries no disease term.
var ErrEmptyTerm = errors.New("search term is empty")

// Bounds on the number of documents a single query may request.
const (
	MinDocuments        = 1
	MaxDocuments        = 10000
	DefaultMaxDocuments = 50
)

// SearchQuery is a disease term and the cap on documents to resolve for it.
type SearchQuery struct {
	// Term is the free-text disease term sent to the literature database.
	Term string `json:"term" yaml:"term"`

	// MaxDocuments caps the identifier list (retmax).
	MaxDocuments int `json:"max_documents" yaml:"max_documents"`
}

// NewSearchQuery trims term, applies the default cap when maxDocuments is
// zero, and validates the result.
func NewSearchQuery(term string, maxDocuments int) (SearchQuery, error) {
	if maxDocuments == 0 {
		maxDocuments = DefaultMaxDocuments
	}
	q := SearchQuery{Term: strings.TrimSpace(term), MaxDocuments: maxDocuments}
	return q, q.Validate()
}

// Validate checks that the term is present and the cap is in range.
func (q SearchQuery) Validate() error {
	if strings.TrimSpace(q.Term) == "" {
		return fmt.Errorf("%w: provide a disease to crawl for", ErrEmptyTerm)
	}
	if q.MaxDocuments < MinDocuments || q.MaxDocuments > MaxDocuments {
		return fmt.Errorf("document count must be between %d and %d, got %d",
			MinDocuments, MaxDocuments, q.MaxDocuments)
	}
	return nil
}

// WordCount is one entry of a ranked frequency list.
type WordCount struct {
	Word  string `json:"word" yaml:"word"`
	Count int    `json:"count" yaml:"count"`
}
