// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// esearch JSON structures. Pointers distinguish a missing field from an
// empty one.
type esearchResponse struct {
	Result *esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count  string    `json:"count"`
	IDList *[]string `json:"idlist"`
	Error  string    `json:"ERROR"`
}

// parseIdentifiers extracts esearchresult.idlist from an esearch body.
func parseIdentifiers(body []byte) ([]string, error) {
	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ParseError{Op: opSearch, Err: err}
	}
	if resp.Result == nil {
		return nil, &ParseError{Op: opSearch, Err: errors.New("missing esearchresult")}
	}
	if resp.Result.IDList == nil {
		if resp.Result.Error != "" {
			return nil, &ParseError{Op: opSearch, Err: fmt.Errorf("missing idlist: %s", resp.Result.Error)}
		}
		return nil, &ParseError{Op: opSearch, Err: errors.New("missing esearchresult.idlist")}
	}

	ids := make([]string, 0, len(*resp.Result.IDList))
	for _, id := range *resp.Result.IDList {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

const abstractElement = "Abstract"

// parseAbstracts returns the inner text of every Abstract element at any
// depth, in document order. Nested text runs (AbstractText, inline markup)
// are concatenated and tags discarded. Elements without text contribute
// no entry.
func parseAbstracts(body []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Entity = xml.HTMLEntity

	var (
		texts   []*strings.Builder
		open    []int // indexes into texts of the Abstract elements being read
		sawRoot bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Op: opFetch, Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			sawRoot = true
			if t.Name.Local == abstractElement {
				open = append(open, len(texts))
				texts = append(texts, &strings.Builder{})
			}
		case xml.EndElement:
			if t.Name.Local == abstractElement && len(open) > 0 {
				open = open[:len(open)-1]
			}
		case xml.CharData:
			for _, idx := range open {
				texts[idx].Write(t)
			}
		}
	}

	if !sawRoot {
		return nil, &ParseError{Op: opFetch, Err: errors.New("empty XML document")}
	}

	corpus := make([]string, 0, len(texts))
	for _, b := range texts {
		if s := b.String(); strings.TrimSpace(s) != "" {
			corpus = append(corpus, s)
		}
	}
	return corpus, nil
}
