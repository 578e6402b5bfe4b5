package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/overpassql/pkg/dialect"
	"github.com/spf13/cobra"
)

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the supported SQL dialects",
		Long: `List the registered SQL dialects with their materialization strategy,
area identifier offset and statement timeout support.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Dialect", "Strategy", "Area Offset", "Timeout"})

			for _, name := range dialect.List() {
				d, ok := dialect.Get(name)
				if !ok {
					continue
				}
				timeout := "no"
				if d.HasTimeout {
					timeout = "yes"
				}
				t.AppendRow(table.Row{d.Name, string(d.Strategy), d.AreaOffset, timeout})
			}

			t.Render()
		},
	}
}
