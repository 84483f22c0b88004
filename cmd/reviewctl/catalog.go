package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/partner-review/internal/infra/catalog"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog [path]",
		Short: "Validate the control catalog and list its controls",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.CatalogPath
			if len(args) == 1 {
				path = args[0]
			}
			cat, err := catalog.Load(path)
			if err != nil {
				return err
			}
			category, _ := cmd.Flags().GetString("category")

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY")
			for _, c := range cat.ForCategory(category) {
				scope := c.Category
				if scope == "" {
					scope = "(all)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Title, scope)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("category", "", "only controls that apply to this competency category")
	return cmd
}
