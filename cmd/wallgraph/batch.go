package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wallgraph/internal/importer/mapper"
)

func batchCmd() *cobra.Command {
	var (
		layers []string
		unit   string
	)

	cmd := &cobra.Command{
		Use:   "batch <pattern>",
		Short: "Normalize every drawing matching a glob such as 'plans/**/*.dxf'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := globFiles(args[0])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no files match %q", args[0])
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range files {
				if err := cmd.Context().Err(); err != nil {
					return err
				}

				data, err := reader.Read(cmd.Context(), path)
				if err != nil {
					failed++
					fmt.Fprint(out, formatFailure(path, err))
					continue
				}
				parsed, err := converter.Parse(data)
				if err != nil {
					failed++
					fmt.Fprint(out, formatFailure(path, err))
					continue
				}

				req := mapper.Request{Unit: unit, Layers: layers}
				if len(req.Layers) == 0 {
					req.Layers = parsed.Layers
				}
				res, err := converter.Normalize(parsed, req)
				if err != nil {
					failed++
					fmt.Fprint(out, formatFailure(path, err))
					continue
				}
				fmt.Fprint(out, formatStats(path, res.Stats))
			}

			summary := fmt.Sprintf("%d file(s), %d failed", len(files), failed)
			if failed > 0 {
				fmt.Fprintln(out, color.RedString(summary))
				logger.Warn("batch finished with failures", zap.Int("failed", failed))
				return fmt.Errorf("%d drawing(s) failed", failed)
			}
			fmt.Fprintln(out, color.GreenString(summary))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&layers, "layers", "l", nil, "wall layers to keep (default: all)")
	cmd.Flags().StringVar(&unit, "unit", "", "source unit for every file (default: suggested per file)")
	return cmd
}

// globFiles expands a doublestar pattern relative to its static prefix.
func globFiles(pattern string) ([]string, error) {
	base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))

	var matches []string
	err := doublestar.GlobWalk(os.DirFS(base), rest, func(path string, d fs.DirEntry) error {
		if !d.IsDir() {
			matches = append(matches, filepath.Join(base, path))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("glob: %w", err)
	}
	return matches, nil
}
