// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the visual-medicine CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/visual-medicine/internal/logger"
	"github.com/pdiddy/visual-medicine/internal/secrets"
	"github.com/pdiddy/visual-medicine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds NCBI credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the visual-medicine CLI.
var rootCmd = &cobra.Command{
	Use:   "visual-medicine",
	Short: "Turn PubMed abstracts for a disease into a word-frequency treemap",
	Long: `visual-medicine searches PubMed for a disease term, downloads the matching
abstracts, counts the words that remain after removing common English words,
and writes the most frequent ones as a "Visual Medicine" JSON document for a
treemap or bubble chart.

Use visualize to write the document, words to inspect the ranked table, and
serve to expose the same pipeline over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, slog.Default())
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./visual-medicine.yaml or ~/.config/visual-medicine/visual-medicine.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets/", "directory of NCBI credential files")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("visual-medicine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "visual-medicine"))
		}
	}

	viper.SetEnvPrefix("VISUAL_MEDICINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper(), types.DefaultPipelineConfig())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so that environment variables
// reach keys absent from the config file.
func setDefaults(v *viper.Viper, d types.PipelineConfig) {
	v.SetDefault("pubmed.timeout", d.PubMed.Timeout)
	v.SetDefault("pubmed.user_agent", d.PubMed.UserAgent)
	v.SetDefault("pubmed.max_retries", d.PubMed.MaxRetries)
	v.SetDefault("pubmed.search_url", d.PubMed.SearchURL)
	v.SetDefault("pubmed.fetch_url", d.PubMed.FetchURL)
	v.SetDefault("pubmed.max_documents", d.PubMed.MaxDocuments)
	v.SetDefault("pubmed.api_key", d.PubMed.APIKey)
	v.SetDefault("pubmed.email", d.PubMed.Email)
	v.SetDefault("pubmed.tool", d.PubMed.Tool)
	v.SetDefault("index.stopwords_path", d.Index.StopwordsPath)
	v.SetDefault("visualization.words", d.Visualization.Words)
	v.SetDefault("visualization.size_factor", d.Visualization.SizeFactor)
	v.SetDefault("visualization.output_path", d.Visualization.OutputPath)
	v.SetDefault("visualization.layout", string(d.Visualization.Layout))
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.output_dir", d.Server.OutputDir)
	v.SetDefault("server.size_factor", d.Server.SizeFactor)
	v.SetDefault("server.max_documents", d.Server.MaxDocuments)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// loadConfig resolves the pipeline configuration for one command: defaults,
// then config file and environment through v, then secrets for empty
// credentials, then any flag the user actually set.
func loadConfig(cmd *cobra.Command, v *viper.Viper) (types.PipelineConfig, error) {
	cfg := types.DefaultPipelineConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	loadedSecrets.ApplyPubMed(&cfg.PubMed)

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.Log.Format, _ = flags.GetString("log-format")
	}
	if flags.Changed("count") {
		cfg.PubMed.MaxDocuments, _ = flags.GetInt("count")
	}
	if flags.Changed("words") {
		cfg.Visualization.Words, _ = flags.GetInt("words")
	}
	if flags.Changed("output") {
		cfg.Visualization.OutputPath, _ = flags.GetString("output")
	}
	if flags.Changed("size-factor") {
		cfg.Visualization.SizeFactor, _ = flags.GetInt("size-factor")
	}
	if flags.Changed("layout") {
		layout, _ := flags.GetString("layout")
		cfg.Visualization.Layout = types.Layout(layout)
	}
	if flags.Changed("stopwords") {
		cfg.Index.StopwordsPath, _ = flags.GetString("stopwords")
	}
	if flags.Changed("timeout") {
		cfg.PubMed.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("addr") {
		cfg.Server.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("output-dir") {
		cfg.Server.OutputDir, _ = flags.GetString("output-dir")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newLogger builds the command logger on stderr.
func newLogger(cfg types.PipelineConfig) *slog.Logger {
	return logger.New(cfg.Log, os.Stderr)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
