package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/meridian-grc/riskflow/internal/model"
)

var scenariosFile string

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List canned review scenarios",
	RunE: func(cmd *cobra.Command, args []string) error {
		scenarios := model.BuiltinScenarios()
		if scenariosFile != "" {
			loaded, err := model.LoadScenarios(scenariosFile)
			if err != nil {
				return err
			}
			scenarios = loaded
		}
		formatScenarios(os.Stdout, scenarios)
		return nil
	},
}

func init() {
	scenariosCmd.Flags().StringVar(&scenariosFile, "file", "", "YAML file of scenarios (default: builtin set)")
	rootCmd.AddCommand(scenariosCmd)
}

func formatScenarios(out io.Writer, scenarios []model.Scenario) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tINTENT\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "----\t------\t-----------")
	for _, sc := range scenarios {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", sc.Name, sc.Request.Intent, sc.Description)
	}
	_ = w.Flush()
}
