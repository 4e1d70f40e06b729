package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/analysis"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/dashboard"
)

const (
	keySort  = "sort"
	keyOrder = "order"
	keyLimit = "limit"
	keyJSON  = "json"
)

func newRankCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Print the ranked feature table",
		Long: `Print every feature that survives the filters, ranked the way the
dashboard table ranks them. Averages are always the unscaled values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRank(cmd, opts)
		},
	}

	addScoringFlags(cmd)
	cmd.Flags().String(keySort, string(analysis.SortByScore), "sort field: score, impact, effort or name")
	cmd.Flags().String(keyOrder, string(analysis.SortDesc), "sort order: asc or desc")
	cmd.Flags().Int(keyLimit, 0, "show at most this many rows (0 for all)")
	cmd.Flags().Bool(keyJSON, false, "print the rows as JSON")
	return cmd
}

func runRank(cmd *cobra.Command, opts *rootOptions) error {
	store, err := opts.loadStore(cmd.Context(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	s, err := opts.state(store)
	if err != nil {
		return err
	}
	s, err = dashboard.Apply(s, dashboard.SortTable{
		Field: analysis.SortField(strings.ToLower(opts.v.GetString(keySort))),
		Order: analysis.SortOrder(strings.ToLower(opts.v.GetString(keyOrder))),
	})
	if err != nil {
		return err
	}

	snap := dashboard.Render(store, s)
	rows := snap.Table
	if limit := opts.v.GetInt(keyLimit); limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	out := cmd.OutOrStdout()
	if opts.v.GetBool(keyJSON) {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	st := newStyles(out, opts.v.GetBool(keyNoColor))
	t := &table{
		title:   fmt.Sprintf("%d features (%d selected) from %s", snap.Counts.Total, snap.Counts.Selected, snap.Dataset.Source),
		headers: []string{"#", "Feature", "Area", "Score", "Impact", "Effort", "Selected", "Quadrant"},
	}
	for _, row := range rows {
		t.addRow(
			strconv.Itoa(row.Rank),
			row.Name,
			st.swatch(row.Color)+" "+row.MacroArea,
			strconv.FormatFloat(row.Score, 'f', 1, 64),
			strconv.FormatFloat(row.AvgImpact, 'f', 2, 64),
			strconv.FormatFloat(row.AvgEffort, 'f', 2, 64),
			fmt.Sprintf("%.0f%%", row.SelectionRate),
			string(row.Quadrant),
		)
	}

	fmt.Fprint(out, t.render(st))
	if !snap.Weights.Valid {
		fmt.Fprintf(out, "warning: weights sum to %d%%, not 100%%\n", snap.Weights.Total)
	}
	return nil
}
