package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"vocabhub/internal/hierarchy"
	"vocabhub/internal/service"
)

var treeFormat string

var treeCmd = &cobra.Command{
	Use:   "tree <vocabulary-id> [root-uri]",
	Short: "Resolve and print the concept hierarchy of a vocabulary",
	Long: `Resolve every concept below a root and print the hierarchy. The root
defaults to the vocabulary's configured root, usually its concept scheme.`,
	Args: cobra.RangeArgs(1, 2),
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

		root := ""
		if len(args) > 1 {
			root = args[1]
		}
		view, err := a.hierarchies.Hierarchy(cmd.Context(), args[0], root)
		if err != nil {
			return err
		}

		switch treeFormat {
		case "json":
			return writeTreeJSON(cmd.OutOrStdout(), view)
		case "text":
			writeTreeText(cmd.OutOrStdout(), view)
			return nil
		default:
			return fmt.Errorf("unknown format %q: use text or json", treeFormat)
		}
	},
}

func writeTreeJSON(w io.Writer, view *service.HierarchyView) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		*service.HierarchyView
		Items []*hierarchy.Item `json:"items"`
	}{view, view.Tree.Items()})
}

func writeTreeText(w io.Writer, view *service.HierarchyView) {
	title := color.New(color.Bold).SprintFunc()
	branch := color.New(color.FgCyan).SprintFunc()
	leaf := color.New(color.FgGreen).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(w, "%s %s\n", title(view.Vocabulary.Title), faint(view.Root))

	var walk func(items []*hierarchy.Item, depth int)
	walk = func(items []*hierarchy.Item, depth int) {
		for _, item := range items {
			indent := strings.Repeat("  ", depth)
			label := leaf(item.Label)
			if item.Collapsible {
				label = branch(item.Label)
			}
			fmt.Fprintf(w, "%s%s %s\n", indent, label, faint(item.URI))
			walk(item.Children, depth+1)
		}
	}
	walk(view.Tree.Items(), 1)

	fmt.Fprintf(w, "%s\n", faint(fmt.Sprintf("%d concepts", len(view.Nodes))))
}

func init() {
	treeCmd.Flags().StringVarP(&treeFormat, "format", "o", "text", "Output format: text or json")
	rootCmd.AddCommand(treeCmd)
}
