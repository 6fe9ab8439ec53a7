package cmd

import (
	"fmt"
	"io"

	"ai-caller-be/pkg/elevenlabs"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var dependentsCmd = &cobra.Command{
	Use:   "dependents <document-id>",
	Short: "List the agents that would be affected by deleting a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDependents,
}

func init() {
	rootCmd.AddCommand(dependentsCmd)
}

func runDependents(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	agents := rt.engine.Impact(cmd.Context(), args[0])
	if jsonOut {
		return printJSON(cmd.OutOrStdout(), agents)
	}
	printAgents(cmd.OutOrStdout(), agents)
	return nil
}

func printAgents(w io.Writer, agents []elevenlabs.DependentAgent) {
	if len(agents) == 0 {
		color.New(color.FgGreen).Fprintln(w, "No dependent agents")
		return
	}
	color.New(color.FgRed).Fprintf(w, "%d dependent agent(s):\n", len(agents))
	for _, a := range agents {
		fmt.Fprintf(w, "  - %s (%s)\n", a.Name, a.ID)
	}
}
