package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jessemcg/Dog-Ear/internal/outline"
	"github.com/jessemcg/Dog-Ear/internal/toc"
	"github.com/jessemcg/Dog-Ear/internal/tocfile"
)

var watchTOCPath string

var watchCmd = &cobra.Command{
	Use:   "watch <pdf>",
	Short: "Live-lint the TOC file while it is edited externally",
	Long: `Watches the TOC file and revalidates it on every save: parse
diagnostics and out-of-range page targets are printed immediately, so
mistakes surface while the editor is still open. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pdfPath := args[0]
		out := cmd.OutOrStdout()

		tocPath := watchTOCPath
		if tocPath == "" {
			tocPath = stem(pdfPath) + ".toc.txt"
		}

		applier := &outline.Applier{}
		pageCount, err := applier.Preflight(pdfPath)
		if err != nil {
			return err
		}

		lint := func(path string) {
			entries, diags, err := tocfile.ReadFile(path)
			if err != nil {
				printError(out, "%s", err)
				return
			}
			clean := true
			for _, d := range diags {
				printWarn(out, "%s", d)
				clean = false
			}
			for _, e := range toc.ValidatePages(entries, pageCount) {
				printError(out, "%s", e)
				clean = false
			}
			if clean {
				printSuccess(out, "%d entries, all targets within %d pages", len(entries), pageCount)
			}
		}

		w, err := tocfile.NewWatcher([]string{tocPath}, 500*time.Millisecond, lint, nil)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			cancel()
		}()

		printTitle(out, "watching "+tocPath)
		lint(tocPath)
		w.Run(ctx)
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchTOCPath, "toc", "", "TOC file to watch (default <pdf stem>.toc.txt)")

	rootCmd.AddCommand(watchCmd)
}
