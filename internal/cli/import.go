package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/loader"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>...",
		Short: "Replace the SQLite dataset with the given JSON or YAML files",
		Long: `Read one or more dataset files and store them in the database named by
--db, replacing what was there. The server reads it with DATA_SOURCE=sqlite.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args)
		},
	}
}

func runImport(cmd *cobra.Command, opts *rootOptions, args []string) error {
	sources := make([]loader.Source, len(args))
	for i, path := range args {
		sources[i] = loader.NewFileSource(path)
	}

	records, err := loader.NewMultiSource(sources...).Load(cmd.Context())
	if err != nil {
		return err
	}

	dbPath := opts.v.GetString(keyDB)
	result, err := loader.Import(cmd.Context(), dbPath, records)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d people and %d evaluations into %s (import %s)\n",
		result.People, result.Evaluations, dbPath, result.ID)
	return nil
}
