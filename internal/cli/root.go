// Package cli implements the matrix command line tool: ranking and quadrant
// reports over a dataset, and importing datasets into SQLite.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/analysis"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/config"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/dashboard"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/loader"
)

// EnvPrefix prefixes every environment variable the tool reads, so
// MATRIX_SOURCE overrides --source.
const EnvPrefix = "MATRIX"

// Flag names double as config file keys.
const (
	keySource     = "source"
	keyData       = "data"
	keyURL        = "url"
	keyDB         = "db"
	keyTimeout    = "timeout"
	keyImpact     = "impact-weight"
	keyEffort     = "effort-weight"
	keyPreference = "preference-weight"
	keyScaleImp   = "scale-impact"
	keyScaleEff   = "scale-effort"
	keyExPeople   = "exclude-person"
	keyExAreas    = "exclude-area"
	keyNoColor    = "no-color"
)

type rootOptions struct {
	cfgFile string
	v       *viper.Viper
}

// NewRootCmd builds the command tree. Each call gets its own viper instance.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	root := &cobra.Command{
		Use:   "matrix",
		Short: "Impact/Effort prioritization reports",
		Long: `matrix loads evaluation datasets and prints the same rankings and
quadrants as the dashboard server.

Settings come from flags, then MATRIX_* environment variables, then the
YAML file given with --config.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.initConfig(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "YAML config file")
	flags.String(keySource, config.SourceFile, "data source: file, http or sqlite")
	flags.StringSlice(keyData, []string{"./data/output.json"}, "dataset files (JSON or YAML)")
	flags.String(keyURL, "", "dataset URL for the http source")
	flags.String(keyDB, "./data/evaluations.db", "SQLite database path")
	flags.Duration(keyTimeout, 10*time.Second, "load timeout")
	flags.Bool(keyNoColor, false, "disable colored output")

	root.AddCommand(newRankCmd(opts), newQuadrantsCmd(opts), newImportCmd(opts))
	return root
}

// Execute runs the tool against os.Args and returns the process exit code.
func Execute(version string) int {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func (o *rootOptions) initConfig(cmd *cobra.Command) error {
	if err := o.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	o.v.SetEnvPrefix(EnvPrefix)
	o.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	o.v.AutomaticEnv()

	if o.cfgFile == "" {
		return nil
	}
	o.v.SetConfigFile(o.cfgFile)
	o.v.SetConfigType("yaml")
	if err := o.v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config %s: %w", o.cfgFile, err)
	}
	return nil
}

func (o *rootOptions) sourceConfig() *config.Config {
	return &config.Config{
		DataSource:   strings.ToLower(o.v.GetString(keySource)),
		DataPaths:    o.v.GetStringSlice(keyData),
		DataURL:      o.v.GetString(keyURL),
		DBPath:       o.v.GetString(keyDB),
		FetchTimeout: o.v.GetDuration(keyTimeout),
	}
}

// loadStore fails instead of degrading, unlike the server.
func (o *rootOptions) loadStore(ctx context.Context, stderr io.Writer) (*analysis.Store, error) {
	src, err := loader.NewSource(o.sourceConfig(), nil, nil)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.v.GetDuration(keyTimeout))
	defer cancel()

	res := <-loader.LoadAsync(ctx, src)
	if res.Err != nil {
		return nil, res.Err
	}

	store := analysis.NewStore(res.Records, res.Source)
	for _, issue := range store.Issues() {
		fmt.Fprintln(stderr, "warning:", issue.String())
	}
	return store, nil
}

// state replays the configured weights, scaling and exclusions as dashboard
// events, so the report matches what the dashboard would show.
func (o *rootOptions) state(store *analysis.Store) (dashboard.State, error) {
	events := []dashboard.Event{
		dashboard.SetWeights{Weights: analysis.WeightState{
			Impact:     o.v.GetInt(keyImpact),
			Effort:     o.v.GetInt(keyEffort),
			Preference: o.v.GetInt(keyPreference),
		}},
	}
	if o.v.GetBool(keyScaleImp) {
		events = append(events, dashboard.ToggleScaling{Metric: analysis.MetricImpact})
	}
	if o.v.GetBool(keyScaleEff) {
		events = append(events, dashboard.ToggleScaling{Metric: analysis.MetricEffort})
	}
	for _, p := range o.v.GetStringSlice(keyExPeople) {
		events = append(events, dashboard.ToggleFilter{Kind: analysis.FilterPerson, Value: p, Included: false})
	}
	for _, a := range o.v.GetStringSlice(keyExAreas) {
		events = append(events, dashboard.ToggleFilter{Kind: analysis.FilterArea, Value: a, Included: false})
	}

	s := dashboard.NewState(store)
	for _, ev := range events {
		next, err := dashboard.Apply(s, ev)
		if err != nil {
			return s, err
		}
		s = next
	}
	return s, nil
}

// addScoringFlags registers the flags shared by rank and quadrants.
func addScoringFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Int(keyImpact, analysis.DefaultImpactWeight, "impact weight (%)")
	flags.Int(keyEffort, analysis.DefaultEffortWeight, "effort weight (%)")
	flags.Int(keyPreference, analysis.DefaultPreferenceWeight, "preference weight (%)")
	flags.Bool(keyScaleImp, false, "stretch impact to the full 1-5 range")
	flags.Bool(keyScaleEff, false, "stretch effort to the full 1-5 range")
	flags.StringSlice(keyExPeople, nil, "people to leave out")
	flags.StringSlice(keyExAreas, nil, "macro areas to leave out")
}
