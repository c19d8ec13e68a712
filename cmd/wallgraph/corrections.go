package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallgraph/internal/importer/models"
)

func correctionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "corrections",
		Aliases: []string{"corr"},
		Short:   "Manage per-wall side corrections of a project",
		Long: `Side corrections flip which face of a wall is interior. Each correction is
keyed by a wall fingerprint (midpoint relative to the drawing center, length
and direction folded into [0, π)) so it survives small drawing revisions.`,
	}

	cmd.AddCommand(
		correctionsListCmd(),
		correctionsAddCmd(),
		correctionsRemoveCmd(),
	)
	return cmd
}

func correctionsListCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored corrections",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, kv, err := openProjects(cmd.Context())
			if err != nil {
				return err
			}
			defer kv.Close()

			list, err := projects.Corrections(cmd.Context(), project)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatCorrections(list))
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func correctionsAddCmd() *cobra.Command {
	var (
		project string
		c       models.WallSideCorrection
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Flip the wall matching a fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Fingerprint.Length <= 0 {
				return fmt.Errorf("--length must be positive")
			}
			projects, kv, err := openProjects(cmd.Context())
			if err != nil {
				return err
			}
			defer kv.Close()

			created, err := projects.AddCorrection(cmd.Context(), project, c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", created.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "project id")
	cmd.Flags().Float64Var(&c.Fingerprint.MidX, "mid-x", 0, "wall midpoint X in mm, relative to the drawing center")
	cmd.Flags().Float64Var(&c.Fingerprint.MidY, "mid-y", 0, "wall midpoint Y in mm, relative to the drawing center")
	cmd.Flags().Float64Var(&c.Fingerprint.Length, "length", 0, "wall length in mm")
	cmd.Flags().Float64Var(&c.Fingerprint.Angle, "angle", 0, "wall direction in radians")
	cmd.Flags().StringVar(&c.Label, "label", "", "free-form note")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func correctionsRemoveCmd() *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "remove <correction-id>",
		Short: "Remove a correction by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, kv, err := openProjects(cmd.Context())
			if err != nil {
				return err
			}
			defer kv.Close()

			ok, err := projects.RemoveCorrection(cmd.Context(), project, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("correction %s not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
