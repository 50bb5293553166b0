package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jessemcg/Dog-Ear/internal/outline"
)

var mergeOutPath string

var mergeCmd = &cobra.Command{
	Use:   "merge <dir>",
	Short: "Merge numbered PDFs (1.pdf, 2.pdf, ...) into one document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		out := cmd.OutOrStdout()

		outPath := mergeOutPath
		if outPath == "" {
			outPath = filepath.Join(dir, "merged.pdf")
		}
		if err := outline.Merge(cmd.Context(), dir, outPath); err != nil {
			return err
		}
		printSuccess(out, "merged into %s", outPath)
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutPath, "output", "o", "", "Merged PDF to write (default <dir>/merged.pdf)")

	rootCmd.AddCommand(mergeCmd)
}
