// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package wordindex counts word occurrences across a corpus of abstracts
// and ranks them by frequency.
package wordindex

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/visual-medicine/pkg/types"
)

// FrequencyTable maps a normalized word to its occurrence count.
type FrequencyTable map[string]int

// BuildFrequencyTable makes one pass over corpus. Each block is split on
// whitespace and every token is normalized with Normalize; tokens that
// survive and are not in stopwords are counted.
func BuildFrequencyTable(corpus []string, stopwords Stopwords) FrequencyTable {
	table := make(FrequencyTable)
	for _, block := range corpus {
		for _, token := range strings.Fields(block) {
			word, ok := Normalize(token)
			if !ok || stopwords.Contains(word) {
				continue
			}
			table[word]++
		}
	}
	return table
}

// Normalize folds a raw token to its counted form: NFKC, leading and
// trailing punctuation or symbols trimmed, lower-cased. It returns false
// when the result is empty, purely numeric, or still contains a rune that
// is neither a letter nor a digit.
func Normalize(token string) (string, bool) {
	word := norm.NFKC.String(token)
	word = strings.TrimFunc(word, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	word = strings.ToLower(word)
	if word == "" {
		return "", false
	}

	numeric := true
	for _, r := range word {
		switch {
		case unicode.IsDigit(r):
		case unicode.IsLetter(r):
			numeric = false
		default:
			return "", false
		}
	}
	if numeric {
		return "", false
	}
	return word, true
}

// Total returns the sum of all counts.
func (t FrequencyTable) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// Rank returns the table as a list sorted by count descending. Equal
// counts are ordered by word so the output is deterministic.
func Rank(table FrequencyTable) []types.WordCount {
	ranked := make([]types.WordCount, 0, len(table))
	for word, count := range table {
		ranked = append(ranked, types.WordCount{Word: word, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count == ranked[j].Count {
			return ranked[i].Word < ranked[j].Word
		}
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}
