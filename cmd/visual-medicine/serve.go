// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/visual-medicine/internal/metrics"
	"github.com/pdiddy/visual-medicine/internal/pipeline"
	"github.com/pdiddy/visual-medicine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the visualization pipeline over HTTP",
	Long: `Serve exposes GET /visualize?disease=<term>&count=<n>&words=<n>. Each
request runs its own pipeline cycle, writes its document under --output-dir
with a unique file name, and returns the document as the response body.
Metrics are served on /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().String("output-dir", "", "directory for request documents (default output)")
	serveCmd.Flags().String("stopwords", "", "stopword list file (default: built-in English list)")
	serveCmd.Flags().Duration("timeout", 0, "HTTP request timeout toward PubMed (default 30s)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, viper.GetViper())
	if err != nil {
		return err
	}
	cfg.Visualization.SizeFactor = cfg.Server.SizeFactor
	log := newLogger(cfg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	p, err := pipeline.NewFromConfig(cfg, pipeline.WithLogger(log), pipeline.WithMetrics(m))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(p, cfg, log, m).ListenAndServe(ctx)
}
