// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/visual-medicine/internal/pipeline"
	"github.com/pdiddy/visual-medicine/pkg/types"
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize <disease>",
	Short: "Write the word-frequency document for a disease term",
	Long: `Visualize searches PubMed for the disease term, fetches up to --count
abstracts, ranks the words they contain, and writes the top --words entries as
a "Visual Medicine" JSON document. A failed search or fetch still writes an
empty document and exits non-zero.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVisualize,
}

func init() {
	addPipelineFlags(visualizeCmd)
	visualizeCmd.Flags().StringP("output", "o", "", "output document path (default visual_medicine.json)")
	visualizeCmd.Flags().Int("size-factor", 0, "size units per occurrence (default 625)")
	visualizeCmd.Flags().String("layout", "", "children layout: flat or grouped (default flat)")

	rootCmd.AddCommand(visualizeCmd)
}

// addPipelineFlags registers the flags shared by every command that runs
// the pipeline.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("count", "c", 0, "maximum documents to fetch (default 50)")
	cmd.Flags().IntP("words", "w", 0, "number of top words to keep (default 50)")
	cmd.Flags().String("stopwords", "", "stopword list file (default: built-in English list)")
	cmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
}

func runVisualize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, viper.GetViper())
	if err != nil {
		return err
	}

	res, err := runPipeline(cmd.Context(), cfg, strings.Join(args, " "), cfg.Visualization.OutputPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Wrote %d words from %d abstracts (%d documents) to %s\n",
		res.Document.Leaves(), len(res.Abstracts), len(res.IDs), res.OutputPath)
	if res.Failed() {
		return fmt.Errorf("%s: %w", res.Status, res.Err)
	}
	return nil
}

// runPipeline builds a pipeline from cfg and runs one cycle for term.
func runPipeline(ctx context.Context, cfg types.PipelineConfig, term, outputPath string) (pipeline.Result, error) {
	q, err := types.NewSearchQuery(term, cfg.PubMed.MaxDocuments)
	if err != nil {
		if errors.Is(err, types.ErrEmptyTerm) {
			return pipeline.Result{}, fmt.Errorf("provide a disease term, e.g. visual-medicine visualize diabetes")
		}
		return pipeline.Result{}, err
	}

	p, err := pipeline.NewFromConfig(cfg, pipeline.WithLogger(newLogger(cfg)))
	if err != nil {
		return pipeline.Result{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return p.Run(ctx, pipeline.Request{
		Query:      q,
		Words:      cfg.Visualization.Words,
		OutputPath: outputPath,
	})
}
