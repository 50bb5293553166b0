package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jessemcg/Dog-Ear/internal/pagetext"
	"github.com/jessemcg/Dog-Ear/internal/pattern"
	"github.com/jessemcg/Dog-Ear/internal/toc"
	"github.com/jessemcg/Dog-Ear/internal/tocfile"
)

var (
	scanPatternDir  string
	scanTOCPath     string
	scanTextDir     string
	scanConcurrency int
	scanOffset      int
	scanFallback    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <pdf>",
	Short: "Extract page text and write the editable TOC file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pdfPath := args[0]
		out := cmd.OutOrStdout()

		groups, diags, err := pattern.Load(scanPatternDir)
		if err != nil {
			return err
		}
		for _, d := range diags {
			printWarn(out, "%s", d)
		}
		if len(groups) == 0 {
			return fmt.Errorf("no pattern groups in %s", scanPatternDir)
		}

		extractor := &pagetext.Extractor{FallbackPdftotext: scanFallback}
		pages, err := extractor.Extract(cmd.Context(), pdfPath)
		if err != nil {
			return err
		}

		textDir := scanTextDir
		if textDir == "" {
			textDir = stem(pdfPath) + "_text"
		}
		if err := pagetext.WriteDir(textDir, pages); err != nil {
			return err
		}

		assembler := &toc.Assembler{Concurrency: scanConcurrency}
		entries, err := assembler.Assemble(cmd.Context(), pages, groups)
		if err != nil {
			return err
		}

		tocPath := scanTOCPath
		if tocPath == "" {
			tocPath = stem(pdfPath) + ".toc.txt"
		}
		if err := tocfile.WriteFile(tocPath, entries, tocfile.EncodeOptions{PageOffset: scanOffset}); err != nil {
			return err
		}

		printTitle(out, "scan complete")
		printSuccess(out, "%d pages, %d groups, %d entries", len(pages), len(toc.GroupNames(entries)), len(entries))
		printDim(out, "toc:  %s", tocPath)
		printDim(out, "text: %s", textDir)
		if len(diags) > 0 {
			printWarn(out, "%d pattern diagnostics (see above)", len(diags))
		}

		var summary strings.Builder
		for _, name := range toc.GroupNames(entries) {
			n := 0
			for _, e := range entries {
				if e.GroupName == name {
					n++
				}
			}
			if summary.Len() > 0 {
				summary.WriteString("\n")
			}
			fmt.Fprintf(&summary, "%-24s %d", name, n)
		}
		if summary.Len() > 0 {
			printBox(out, summary.String())
		}
		return nil
	},
}

func init() {
	defaultPatterns := "./regex"
	if v := os.Getenv("PATTERN_DIR"); v != "" {
		defaultPatterns = v
	}
	defaultOffset := 0
	if v := os.Getenv("TOC_PAGE_OFFSET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			defaultOffset = n
		}
	}

	scanCmd.Flags().StringVarP(&scanPatternDir, "patterns", "p", defaultPatterns, "Directory of pattern files")
	scanCmd.Flags().StringVar(&scanTOCPath, "toc", "", "TOC file to write (default <pdf stem>.toc.txt)")
	scanCmd.Flags().StringVar(&scanTextDir, "textdir", "", "Page text directory to write (default <pdf stem>_text)")
	scanCmd.Flags().IntVar(&scanConcurrency, "concurrency", 4, "Parallel page matchers")
	scanCmd.Flags().IntVar(&scanOffset, "offset", defaultOffset, "Shift written page numbers (for renumbered copies)")
	scanCmd.Flags().BoolVar(&scanFallback, "pdftotext-fallback", true, "Fall back to pdftotext when the built-in extractor finds no text")

	rootCmd.AddCommand(scanCmd)
}

func stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
