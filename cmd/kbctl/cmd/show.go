package cmd

import (
	"fmt"

	"ai-caller-be/pkg/knowledge/resolver"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <document-id>",
	Short: "Show a document's content, size and dependent agents",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	detail := resolver.New(rt.client, rt.logger).Resolve(cmd.Context(), args[0])
	if jsonOut {
		return printJSON(out, detail)
	}

	color.New(color.FgCyan).Fprintf(out, "Document %s\n", detail.DocumentID)
	size := "unknown"
	if detail.Size != nil {
		size = *detail.Size
	}
	fmt.Fprintf(out, "Size: %s\n", size)

	if detail.Content.Resolved {
		color.New(color.FgGreen).Fprintf(out, "Content (from %s):\n", detail.Content.Source)
	} else {
		color.New(color.FgYellow).Fprintln(out, "Content unavailable:")
	}
	fmt.Fprintln(out, detail.Content.Text)

	printAgents(out, detail.DependentAgents)
	return nil
}
