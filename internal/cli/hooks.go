package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jessemcg/Dog-Ear/internal/hook"
	"github.com/jessemcg/Dog-Ear/internal/tocfile"
)

var (
	hookDir        string
	hookTOCPath    string
	hookTextDir    string
	hookRunTimeout time.Duration
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "List post-processing hook scripts",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		hooks, err := hook.List(hookDir)
		if err != nil {
			return err
		}
		if len(hooks) == 0 {
			printDim(out, "no hooks in %s", hookDir)
			return nil
		}
		printTitle(out, "hooks in "+hookDir)
		for _, h := range hooks {
			fmt.Fprintln(out, "  "+h.Name)
		}
		return nil
	},
}

var hooksRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run one hook against a TOC file, then revalidate it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if hookTOCPath == "" {
			return fmt.Errorf("--toc is required")
		}

		h, err := hook.Find(hookDir, args[0])
		if err != nil {
			return err
		}

		stdout, err := hook.Run(cmd.Context(), h, hookTOCPath, hookTextDir, hookRunTimeout)
		if stdout != "" {
			fmt.Fprint(out, stdout)
		}
		if err != nil {
			return err
		}
		printSuccess(out, "hook %s finished", h.Name)

		// The hook is an untrusted transform; show what it left behind.
		entries, diags, err := tocfile.ReadFile(hookTOCPath)
		if err != nil {
			return err
		}
		for _, d := range diags {
			printWarn(out, "%s", d)
		}
		printDim(out, "%d entries after hook", len(entries))
		return nil
	},
}

func init() {
	defaultHooks := "./post_processing"
	if v := os.Getenv("HOOK_DIR"); v != "" {
		defaultHooks = v
	}

	hooksCmd.PersistentFlags().StringVar(&hookDir, "dir", defaultHooks, "Hook script directory")
	hooksRunCmd.Flags().StringVar(&hookTOCPath, "toc", "", "TOC file handed to the hook")
	hooksRunCmd.Flags().StringVar(&hookTextDir, "textdir", "", "Page text directory handed to the hook")
	hooksRunCmd.Flags().DurationVar(&hookRunTimeout, "timeout", 60*time.Second, "Kill the hook after this long")

	hooksCmd.AddCommand(hooksRunCmd)
	rootCmd.AddCommand(hooksCmd)
}
