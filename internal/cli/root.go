// Package cli implements the dogear command line tool: the same
// pipeline the server runs, driven one document at a time from a
// terminal.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jessemcg/Dog-Ear/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "dogear",
	Short: "Regex-driven PDF bookmark generator",
	Long: `Dog-Ear scans the text of a PDF with user-supplied regular expression
sets, writes an editable table-of-contents file, and applies the result
back onto a copy of the PDF as nested bookmarks. Each pattern file
becomes one bookmark group; each match becomes one bookmark.`,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("dogear %s\n", version.String()))
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
