// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wordindex

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

//go:embed stopwords.txt
var defaultStopwords string

// Stopwords is a set of words excluded from counting. Entries are stored
// NFKC-normalized and lower-cased, so lookups are case-insensitive.
type Stopwords map[string]struct{}

// NewStopwords builds a set from words.
func NewStopwords(words ...string) Stopwords {
	s := make(Stopwords, len(words))
	for _, w := range words {
		s.Add(w)
	}
	return s
}

// Add inserts w. Blank input is ignored.
func (s Stopwords) Add(w string) {
	w = strings.ToLower(norm.NFKC.String(strings.TrimSpace(w)))
	if w != "" {
		s[w] = struct{}{}
	}
}

// Contains reports whether w is a stopword, ignoring case.
func (s Stopwords) Contains(w string) bool {
	_, ok := s[strings.ToLower(norm.NFKC.String(w))]
	return ok
}

// ParseStopwords reads a whitespace-delimited word list.
func ParseStopwords(r io.Reader) (Stopwords, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	s := make(Stopwords)
	for sc.Scan() {
		s.Add(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading stopwords: %w", err)
	}
	return s, nil
}

// LoadStopwords reads the word list at path. An empty path selects the
// built-in English list.
func LoadStopwords(path string) (Stopwords, error) {
	if path == "" {
		return DefaultStopwords(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stopwords %s: %w", path, err)
	}
	defer f.Close()
	return ParseStopwords(f)
}

// DefaultStopwords returns the built-in English list.
func DefaultStopwords() Stopwords {
	s, _ := ParseStopwords(strings.NewReader(defaultStopwords))
	return s
}
