package cmd

import (
	"fmt"
	"strings"

	"ai-caller-be/internal/entity"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List knowledge base documents",
	RunE:  runList,
}

var listTypeFlag string

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listTypeFlag, "type", "t", "", "only show documents of this type (url, text, file)")
}

func runList(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	docs, err := rt.engine.Reconcile(cmd.Context())
	if err != nil {
		color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "Failed to list documents: %v\n", err)
		return err
	}

	if listTypeFlag != "" {
		filtered := make([]*entity.MergedDocument, 0, len(docs))
		for _, d := range docs {
			if strings.EqualFold(d.Type, listTypeFlag) {
				filtered = append(filtered, d)
			}
		}
		docs = filtered
	}

	if jsonOut {
		return printJSON(out, docs)
	}

	color.New(color.FgCyan).Fprintf(out, "%d document(s)\n", len(docs))
	for _, d := range docs {
		fmt.Fprintf(out, "%s  %-5s  %s\n", color.YellowString(d.Id), d.Type, d.Name)
		if d.Url != "" {
			fmt.Fprintf(out, "    url: %s\n", d.Url)
		}
		if d.HasLocalMeta() {
			size := "-"
			if d.Size != nil {
				size = *d.Size
			}
			fmt.Fprintf(out, "    created by %s, size %s\n", d.CreatedBy, size)
		}
	}
	return nil
}
