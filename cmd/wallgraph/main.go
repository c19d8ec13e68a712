// Package main provides the wallgraph CLI: parse and normalize DXF wall
// drawings, batch-check a drawing tree and manage side corrections.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wallgraph/internal/common/config"
	"wallgraph/internal/common/logging"
	"wallgraph/internal/importer/mapper"
	"wallgraph/internal/source"
)

var (
	cfg       *config.Config
	logger    *zap.Logger
	converter *mapper.Converter
	reader    *source.Reader
)

func main() {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "wallgraph",
		Short: "Normalize DXF wall drawings into a wall graph",
		Long: `wallgraph reads 2D DXF wall centerlines and rebuilds a clean wall graph:
units in millimeters, noise removed, collinear pieces fused and junctions
classified as corner (L), tee (T), cross (X) or free end.

Sources are local paths or s3://bucket/key (S3_* environment variables).

Examples:
  wallgraph parse plan.dxf
  wallgraph normalize plan.dxf --unit m --layers WALLS --rotation 90 --svg out.svg
  wallgraph batch 'plans/**/*.dxf' --layers WALLS
  wallgraph corrections add --project p1 --mid-x 0 --mid-y -2000 --length 6000 --angle 0`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg = config.Load()
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			var err error
			logger, err = logging.New(logging.Config{
				Level:       cfg.LogLevel,
				Format:      "console",
				Development: cfg.IsDevelopment(),
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			converter = mapper.New(mapper.OptionsFrom(cfg.Tolerances), logger)
			reader = source.NewReader(cfg.S3, logger)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		parseCmd(),
		normalizeCmd(),
		batchCmd(),
		correctionsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
