package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hoodini/yuv-ai-trends/internal/digest"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <markdown_path>",
	Short: "Parse a Markdown digest and print its frontmatter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := digest.ParseFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		keys := make([]string, 0, len(doc.Frontmatter))
		for k := range doc.Frontmatter {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "%s: %s\n", k, doc.String(k))
		}
		fmt.Fprintf(out, "body bytes: %d\n", len(doc.Body))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
