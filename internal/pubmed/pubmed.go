// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pubmed resolves a disease term to PubMed identifiers and fetches
// the abstract text for those identifiers through NCBI E-utilities.
//
// The two calls are sequential: esearch (JSON) returns the identifier list,
// efetch (XML) returns the records whose Abstract elements make up the corpus.
package pubmed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/visual-medicine/internal/httputil"
	"github.com/pdiddy/visual-medicine/pkg/types"
)

const (
	database = "pubmed"

	opSearch = "esearch"
	opFetch  = "efetch"

	// maxBodyBytes bounds a single response body read.
	maxBodyBytes = 64 << 20
)

// Client talks to the esearch and efetch endpoints with one configured
// identity (User-Agent, optional api_key/tool/email).
type Client struct {
	HTTP *http.Client
	cfg  types.PubMedConfig
}

// NewClient returns a Client whose HTTP client enforces cfg.Timeout.
func NewClient(cfg types.PubMedConfig) *Client {
	return &Client{
		HTTP: &http.Client{Timeout: cfg.Timeout},
		cfg:  cfg,
	}
}

// ResolveIdentifiers returns the PubMed UIDs matching q.Term, at most
// q.MaxDocuments of them, in the order the API returned them. An empty
// slice with a nil error means the search succeeded and matched nothing.
func (c *Client) ResolveIdentifiers(ctx context.Context, q types.SearchQuery) ([]string, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	params := c.baseParams()
	params.Set("term", q.Term)
	params.Set("retmax", strconv.Itoa(q.MaxDocuments))
	params.Set("retmode", "json")

	body, err := c.get(ctx, opSearch, c.cfg.SearchURL, params)
	if err != nil {
		return nil, err
	}
	return parseIdentifiers(body)
}

// FetchAbstracts returns the text of every Abstract element in the efetch
// records for ids. With no ids it returns an empty corpus without issuing
// a request.
func (c *Client) FetchAbstracts(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}

	params := c.baseParams()
	params.Set("rettype", "abstract")
	params.Set("retmode", "xml")
	params.Set("id", strings.Join(ids, ","))

	body, err := c.get(ctx, opFetch, c.cfg.FetchURL, params)
	if err != nil {
		return nil, err
	}
	return parseAbstracts(body)
}

func (c *Client) baseParams() url.Values {
	params := url.Values{"db": {database}}
	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}
	if c.cfg.Tool != "" {
		params.Set("tool", c.cfg.Tool)
	}
	if c.cfg.Email != "" {
		params.Set("email", c.cfg.Email)
	}
	return params
}

// get issues one GET and returns the body of a 2xx response. Failures are
// reported as *FetchError.
func (c *Client) get(ctx context.Context, op, base string, params url.Values) ([]byte, error) {
	reqURL := base + "?" + params.Encode()
	display := redact(reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &FetchError{Op: op, URL: display, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.cfg.MaxRetries)
	if err != nil {
		return nil, &FetchError{Op: op, URL: display, Err: err}
	}
	defer resp.Body.Close()

	if !httputil.IsSuccess(resp.StatusCode) {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &FetchError{
			Op:         op,
			URL:        display,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Op: op, URL: display, Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}

// redact hides the api_key value so request URLs can be logged.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get("api_key") == "" {
		return raw
	}
	q.Set("api_key", "REDACTED")
	u.RawQuery = q.Encode()
	return u.String()
}
