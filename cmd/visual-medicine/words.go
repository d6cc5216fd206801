// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/visual-medicine/internal/wordindex"
)

var wordsCmd = &cobra.Command{
	Use:   "words <disease>",
	Short: "Print the ranked word table for a disease term",
	Long: `Words runs the same search, fetch, and count as visualize but prints the
ranked table to stdout instead of writing a document.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWords,
}

func init() {
	addPipelineFlags(wordsCmd)
	wordsCmd.Flags().StringP("format", "f", "table", "output format: table, json, or yaml")

	rootCmd.AddCommand(wordsCmd)
}

func runWords(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (want table, json, or yaml)", format)
	}

	cfg, err := loadConfig(cmd, viper.GetViper())
	if err != nil {
		return err
	}

	res, err := runPipeline(cmd.Context(), cfg, strings.Join(args, " "), "")
	if err != nil {
		return err
	}
	if res.Failed() {
		return fmt.Errorf("%s: %w", res.Status, res.Err)
	}

	top := wordindex.Top(res.Ranked, cfg.Visualization.Words)
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return wordindex.FormatJSON(top, out)
	case "yaml":
		return wordindex.FormatYAML(top, out)
	default:
		wordindex.FormatTable(top, out)
		fmt.Fprintf(os.Stderr, "%d distinct words across %d abstracts\n", len(res.Ranked), len(res.Abstracts))
		return nil
	}
}
