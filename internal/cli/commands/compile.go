package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/overpassql/internal/cli/config"
	"github.com/leapstack-labs/overpassql/pkg/compiler"
	"github.com/leapstack-labs/overpassql/pkg/dialect"
	"github.com/leapstack-labs/overpassql/pkg/parser"
	"github.com/spf13/cobra"

	// Import dialect packages to ensure descriptors are registered via init()
	_ "github.com/leapstack-labs/overpassql/pkg/dialects/duckdb"
	_ "github.com/leapstack-labs/overpassql/pkg/dialects/postgres"
)

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compile",
		Short: "Compile a query from stdin to SQL",
		Long: `Read a map query from standard input and write the compiled SQL
script to standard output.

The query is read in full before compilation; nothing is written unless
the whole query compiles. The target dialect comes from --dialect, the
OVERPASSQL_DIALECT environment variable or the config file.`,
		Example: `  # Compile for the default postgres backend
  echo 'node["amenity"="cafe"](50.7,7.0,50.8,7.2);out center;' | overpassql compile

  # Compile for duckdb, reprojecting output geometry
  overpassql compile --dialect duckdb --srid 3857 < query.oql`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompile(cmd)
		},
	}
}

func runCompile(cmd *cobra.Command) error {
	cfg := config.GetCurrentConfig()
	log := config.GetLogger(cmd.Context())

	// An unknown dialect is a configuration error. Resolve it before any
	// input is read so the failure never depends on the query.
	d, err := dialect.Lookup(cfg.Dialect)
	if err != nil {
		return err
	}

	src, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to read query: %w", err)
	}

	req, err := parser.Parse(string(src))
	if err != nil {
		return err
	}

	stmts, err := compiler.Compile(req, d, compiler.Options{
		SRID:   cfg.SRID,
		Logger: log,
	})
	if err != nil {
		return err
	}
	if len(stmts) == 0 {
		return nil
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), strings.Join(stmts, "\n")+"\n")
	return err
}
