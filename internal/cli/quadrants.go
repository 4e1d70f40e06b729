package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/analysis"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/dashboard"
)

func newQuadrantsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quadrants [quadrant...]",
		Short: "Print the features of each matrix quadrant",
		Long: `Print the features in each quadrant, best score first. Placement uses
the scaled averages when --scale-impact or --scale-effort is set.

Quadrants: quick-wins, major-projects, fill-ins, thankless-tasks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuadrants(cmd, opts, args)
		},
	}
	addScoringFlags(cmd)
	return cmd
}

func runQuadrants(cmd *cobra.Command, opts *rootOptions, args []string) error {
	quadrants := analysis.Quadrants
	if len(args) > 0 {
		quadrants = make([]analysis.Quadrant, 0, len(args))
		for _, arg := range args {
			q := analysis.Quadrant(arg)
			if !q.Valid() {
				return fmt.Errorf("unknown quadrant %q", arg)
			}
			quadrants = append(quadrants, q)
		}
	}

	store, err := opts.loadStore(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	base, err := opts.state(store)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	st := newStyles(out, opts.v.GetBool(keyNoColor))

	for _, q := range quadrants {
		s, err := dashboard.Apply(base, dashboard.SelectQuadrant{Quadrant: q})
		if err != nil {
			return err
		}
		panel := dashboard.Render(store, s).Quadrant
		if panel == nil {
			continue
		}

		if len(panel.Features) == 0 {
			fmt.Fprintln(out, st.title.Render(panel.Title))
			fmt.Fprintln(out, st.muted.Render("  no features"))
			fmt.Fprintln(out)
			continue
		}

		t := &table{
			title:   panel.Title,
			headers: []string{"Feature", "Area", "Score", "Impact", "Effort"},
		}
		for _, f := range panel.Features {
			t.addRow(
				f.Name,
				st.swatch(f.Color)+" "+f.MacroArea,
				strconv.FormatFloat(f.Score, 'f', 1, 64),
				strconv.FormatFloat(f.DisplayImpact, 'f', 2, 64),
				strconv.FormatFloat(f.DisplayEffort, 'f', 2, 64),
			)
		}
		fmt.Fprintln(out, t.render(st))
	}
	return nil
}
