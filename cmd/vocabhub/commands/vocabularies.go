package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var vocabulariesCmd = &cobra.Command{
	Use:     "vocabularies",
	Aliases: []string{"vocabs", "ls"},
	Short:   "List the vocabulary catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		vocabs, err := a.vocabs.List(cmd.Context())
		if err != nil {
			return err
		}

		id := color.New(color.FgCyan, color.Bold).SprintFunc()
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSOURCE\tTITLE\tROOT")
		for _, v := range vocabs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id(v.ID), v.Source, v.Title, v.Root)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(vocabulariesCmd)
}
