// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"time"
)

// Default endpoints and identity for the NCBI E-utilities API.
const (
	DefaultSearchURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	DefaultFetchURL  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
	DefaultUserAgent = "visual-medicine/1.0"
	DefaultTool      = "visual-medicine"
)

// Size factors observed for the two front ends. The CLI renders a larger
// canvas per word than the web page does, so each mode carries its own.
const (
	CLISizeFactor = 625
	WebSizeFactor = 825
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of extra attempts on HTTP 429. Zero means a
	// single attempt per call.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// PubMedConfig holds settings for the document fetcher.
type PubMedConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// SearchURL is the esearch endpoint that resolves a term to UIDs.
	SearchURL string `json:"search_url" yaml:"search_url" mapstructure:"search_url"`

	// FetchURL is the efetch endpoint that returns abstract records.
	FetchURL string `json:"fetch_url" yaml:"fetch_url" mapstructure:"fetch_url"`

	// MaxDocuments caps the number of identifiers requested (1-10000).
	MaxDocuments int `json:"max_documents" yaml:"max_documents" mapstructure:"max_documents"`

	// APIKey is an optional NCBI API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Email and Tool identify the caller to NCBI, as its usage policy asks.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`
	Tool  string `json:"tool,omitempty" yaml:"tool,omitempty" mapstructure:"tool"`
}

// IndexConfig holds settings for the word indexer.
type IndexConfig struct {
	// StopwordsPath points at a whitespace-delimited word list. When empty
	// the built-in English list is used.
	StopwordsPath string `json:"stopwords_path" yaml:"stopwords_path" mapstructure:"stopwords_path"`
}

// Layout selects how ranked words are arranged under the root node.
type Layout string

const (
	// LayoutFlat emits one leaf per word directly under the root.
	LayoutFlat Layout = "flat"

	// LayoutGrouped nests runs of equal-count words under a group node.
	// Kept for compatibility with early output files.
	LayoutGrouped Layout = "grouped"
)

// VisualizationConfig holds settings for building the output document.
type VisualizationConfig struct {
	// Words is the number of ranked words kept in the document.
	Words int `json:"words" yaml:"words" mapstructure:"words"`

	// SizeFactor multiplies each word count into a size unit.
	SizeFactor int `json:"size_factor" yaml:"size_factor" mapstructure:"size_factor"`

	// OutputPath is where the document is written.
	OutputPath string `json:"output_path" yaml:"output_path" mapstructure:"output_path"`

	// Layout selects flat or grouped children.
	Layout Layout `json:"layout" yaml:"layout" mapstructure:"layout"`
}

// ServerConfig holds settings for the HTTP front end.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// OutputDir receives one request-scoped document per visualization.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// SizeFactor overrides the visualization size factor for web requests.
	SizeFactor int `json:"size_factor" yaml:"size_factor" mapstructure:"size_factor"`

	// MaxDocuments bounds the count parameter accepted from clients.
	MaxDocuments int `json:"max_documents" yaml:"max_documents" mapstructure:"max_documents"`

	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// PipelineConfig groups all stage configurations. One value is passed into
// each pipeline invocation; nothing here is process-global.
type PipelineConfig struct {
	PubMed        PubMedConfig        `json:"pubmed" yaml:"pubmed" mapstructure:"pubmed"`
	Index         IndexConfig         `json:"index" yaml:"index" mapstructure:"index"`
	Visualization VisualizationConfig `json:"visualization" yaml:"visualization" mapstructure:"visualization"`
	Server        ServerConfig        `json:"server" yaml:"server" mapstructure:"server"`
	Log           LogConfig           `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultPipelineConfig returns the configuration used by the CLI when no
// config file, environment variable, or flag overrides a value.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		PubMed: PubMedConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: DefaultUserAgent,
			},
			SearchURL:    DefaultSearchURL,
			FetchURL:     DefaultFetchURL,
			MaxDocuments: DefaultMaxDocuments,
			Tool:         DefaultTool,
		},
		Visualization: VisualizationConfig{
			Words:      50,
			SizeFactor: CLISizeFactor,
			OutputPath: "visual_medicine.json",
			Layout:     LayoutFlat,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			OutputDir:       "output",
			SizeFactor:      WebSizeFactor,
			MaxDocuments:    100,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate reports the first configuration value that cannot drive a run.
func (c PipelineConfig) Validate() error {
	if c.PubMed.SearchURL == "" || c.PubMed.FetchURL == "" {
		return fmt.Errorf("pubmed: search_url and fetch_url are required")
	}
	if c.PubMed.Timeout < 0 {
		return fmt.Errorf("pubmed: timeout cannot be negative")
	}
	if c.PubMed.MaxRetries < 0 {
		return fmt.Errorf("pubmed: max_retries cannot be negative")
	}
	if c.PubMed.MaxDocuments < MinDocuments || c.PubMed.MaxDocuments > MaxDocuments {
		return fmt.Errorf("pubmed: max_documents must be between %d and %d, got %d",
			MinDocuments, MaxDocuments, c.PubMed.MaxDocuments)
	}
	if c.Visualization.Words < 0 {
		return fmt.Errorf("visualization: words cannot be negative")
	}
	if c.Visualization.SizeFactor <= 0 {
		return fmt.Errorf("visualization: size_factor must be positive")
	}
	switch c.Visualization.Layout {
	case LayoutFlat, LayoutGrouped, "":
	default:
		return fmt.Errorf("visualization: unknown layout %q (want flat or grouped)", c.Visualization.Layout)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json", "":
	default:
		return fmt.Errorf("log: unknown format %q (want text or json)", c.Log.Format)
	}
	return nil
}
