package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/facet/internal/output"
	"github.com/dshills/facet/internal/perspective"
)

var flagPerspectivesJSON bool

var perspectivesCmd = &cobra.Command{
	Use:   "perspectives",
	Short: "List the available review perspectives",
	RunE: func(cmd *cobra.Command, args []string) error {
		all := perspective.All()
		if flagPerspectivesJSON {
			data, err := json.MarshalIndent(all, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		table := output.NewTable(cmd.OutOrStdout(), []string{"ID", "Name", "Focus"})
		for _, p := range all {
			if err := table.Append([]string{string(p.ID), p.Name, strings.Join(p.Focus, "; ")}); err != nil {
				return err
			}
		}
		return table.Render()
	},
}

func init() {
	perspectivesCmd.Flags().BoolVar(&flagPerspectivesJSON, "json", false, "Print perspectives as JSON")
}
