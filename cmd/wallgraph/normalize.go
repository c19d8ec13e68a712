package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wallgraph/internal/importer/mapper"
	"wallgraph/internal/importer/service"
	"wallgraph/internal/store"
)

func parseCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a drawing and list its layers and unit suggestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := reader.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			parsed, err := converter.Parse(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			if asJSON {
				return writeJSON(cmd, parsed)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatParse(args[0], parsed))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full parse result as JSON")
	return cmd
}

func normalizeCmd() *cobra.Command {
	var (
		req       mapper.Request
		project   string
		svgPath   string
		asJSON    bool
		noCorrect bool
	)

	cmd := &cobra.Command{
		Use:   "normalize <file>",
		Short: "Run the full pipeline on one drawing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := reader.Read(ctx, args[0])
			if err != nil {
				return err
			}
			parsed, err := converter.Parse(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if len(req.Layers) == 0 {
				req.Layers = parsed.Layers
			}

			req.ApplyCorrections = cfg.Tolerances.ApplyCorrections && !noCorrect
			if project != "" {
				if err := loadProject(ctx, project, cmd.Flags().Changed("rotation") || cmd.Flags().Changed("flip-y") || cmd.Flags().Changed("mirror-x"), &req); err != nil {
					return err
				}
			}

			res, err := converter.Normalize(parsed, req)
			if err != nil {
				return err
			}

			if svgPath != "" {
				svg, err := mapper.NewRenderer().Render(res)
				if err != nil {
					return err
				}
				if err := os.WriteFile(svgPath, []byte(svg), 0o644); err != nil {
					return fmt.Errorf("write preview: %w", err)
				}
			}

			if asJSON {
				return writeJSON(cmd, res)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatStats(args[0], res.Stats))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Unit, "unit", "", "source unit: mm, cm, m or in (default: suggested)")
	cmd.Flags().StringSliceVarP(&req.Layers, "layers", "l", nil, "wall layers to keep (default: all)")
	cmd.Flags().IntVar(&req.Transform.Rotation, "rotation", 0, "clockwise rotation: 0, 90, 180 or 270")
	cmd.Flags().BoolVar(&req.Transform.FlipY, "flip-y", false, "mirror across the horizontal axis")
	cmd.Flags().BoolVar(&req.Transform.MirrorX, "mirror-x", false, "mirror across the vertical axis")
	cmd.Flags().StringVarP(&project, "project", "p", "", "project whose corrections and transform apply")
	cmd.Flags().BoolVar(&noCorrect, "no-corrections", false, "ignore stored side corrections")
	cmd.Flags().StringVar(&svgPath, "svg", "", "write an SVG preview to this path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full normalized result as JSON")
	return cmd
}

// loadProject pulls stored corrections and, unless overridden on the
// command line, the stored transform.
func loadProject(ctx context.Context, project string, transformSet bool, req *mapper.Request) error {
	projects, kv, err := openProjects(ctx)
	if err != nil {
		return err
	}
	defer kv.Close()

	if !transformSet {
		t, err := projects.Transform(ctx, project)
		if err != nil {
			return err
		}
		req.Transform = t
	}
	if req.ApplyCorrections {
		list, err := projects.Corrections(ctx, project)
		if err != nil {
			return err
		}
		req.Corrections = list
	}
	return nil
}

func openProjects(ctx context.Context) (*service.Projects, store.KV, error) {
	kv, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return service.NewProjects(kv, converter.Options().Fingerprint, logger), kv, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
