package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jessemcg/Dog-Ear/internal/outline"
	"github.com/jessemcg/Dog-Ear/internal/toc"
	"github.com/jessemcg/Dog-Ear/internal/tocfile"
)

var (
	applyTOCPath string
	applyOutPath string
)

var applyCmd = &cobra.Command{
	Use:   "apply <pdf>",
	Short: "Write the TOC file's bookmarks into a copy of the PDF",
	Long: `Reads the TOC file, validates every page target against the document,
and writes a bookmarked copy. The input PDF must not already carry an
outline; the input file itself is never modified.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pdfPath := args[0]
		out := cmd.OutOrStdout()

		tocPath := applyTOCPath
		if tocPath == "" {
			tocPath = stem(pdfPath) + ".toc.txt"
		}
		entries, diags, err := tocfile.ReadFile(tocPath)
		if err != nil {
			return err
		}
		for _, d := range diags {
			printWarn(out, "%s", d)
		}
		if len(entries) == 0 {
			return fmt.Errorf("%s contains no entries", tocPath)
		}

		applier := &outline.Applier{}
		pageCount, err := applier.Preflight(pdfPath)
		if err != nil {
			return err
		}
		if errs := toc.ValidatePages(entries, pageCount); len(errs) > 0 {
			for _, e := range errs {
				printError(out, "%s", e)
			}
			return fmt.Errorf("%d entries target pages outside the %d-page document", len(errs), pageCount)
		}

		outPath := applyOutPath
		if outPath == "" {
			outPath = stem(pdfPath) + ".bookmarked.pdf"
		}
		root := outline.Build(entries)
		if err := applier.Apply(cmd.Context(), root, pdfPath, outPath); err != nil {
			return err
		}

		printSuccess(out, "%d bookmarks in %d groups written", len(entries), len(root.Children))
		printDim(out, "output: %s", outPath)
		return nil
	},
}

func init() {
	applyCmd.Flags().StringVar(&applyTOCPath, "toc", "", "TOC file to read (default <pdf stem>.toc.txt)")
	applyCmd.Flags().StringVarP(&applyOutPath, "output", "o", "", "Bookmarked PDF to write (default <pdf stem>.bookmarked.pdf)")

	rootCmd.AddCommand(applyCmd)
}
