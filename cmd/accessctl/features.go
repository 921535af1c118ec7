package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List the accessibility feature catalogue",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return printFeatures(cmd.OutOrStdout(), asJSON)
	},
}

func init() {
	featuresCmd.Flags().Bool("json", false, "print the catalogue as JSON")
	rootCmd.AddCommand(featuresCmd)
}

func printFeatures(out io.Writer, asJSON bool) error {
	catalogue := domain.Catalogue()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(catalogue)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLABEL\tICON")
	for _, f := range catalogue {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, f.Label, f.Icon)
	}
	return tw.Flush()
}
