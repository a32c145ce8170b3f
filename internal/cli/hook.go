package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/facet/internal/gitctx"
)

const (
	hookMarkerStart = "# >>> facet pre-commit hook >>>"
	hookMarkerEnd   = "# <<< facet pre-commit hook <<<"
)

var (
	hookThreshold    float64
	hookPerspectives string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install facet as a git pre-commit hook",
	Long: `Install a pre-commit hook that reviews staged files. A score below
the threshold blocks the commit; review errors only warn.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			exitCode = ExitRuntimeError
			return err
		}

		section := generateHookScript(hookThreshold, hookPerspectives)

		existing, err := os.ReadFile(hookPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			exitCode = ExitRuntimeError
			return fmt.Errorf("reading hook file: %w", err)
		}

		var content string
		if len(existing) == 0 {
			content = "#!/bin/sh\n" + section
		} else {
			content = replaceHookSection(string(existing), section)
		}

		if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
			exitCode = ExitRuntimeError
			return fmt.Errorf("creating hooks directory: %w", err)
		}
		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			exitCode = ExitRuntimeError
			return fmt.Errorf("writing hook file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Installed facet pre-commit hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the facet pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			exitCode = ExitRuntimeError
			return err
		}

		existing, err := os.ReadFile(hookPath)
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintln(cmd.OutOrStdout(), "No pre-commit hook found.")
			return nil
		}
		if err != nil {
			exitCode = ExitRuntimeError
			return fmt.Errorf("reading hook file: %w", err)
		}

		content := removeHookSection(string(existing))

		// Nothing but a shebang left: the hook was ours alone.
		trimmed := strings.TrimSpace(content)
		if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
			if err := os.Remove(hookPath); err != nil {
				exitCode = ExitRuntimeError
				return fmt.Errorf("removing hook file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed facet pre-commit hook at %s\n", hookPath)
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			exitCode = ExitRuntimeError
			return fmt.Errorf("writing hook file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed facet section from %s\n", hookPath)
		return nil
	},
}

func getHookPath() (string, error) {
	dir, err := gitctx.HooksDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pre-commit"), nil
}

func generateHookScript(threshold float64, perspectives string) string {
	args := fmt.Sprintf("--staged --quiet --threshold %s", formatFloat(threshold))
	if perspectives != "" {
		args += " --perspectives " + perspectives
	}

	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	fmt.Fprintf(&b, "facet review %s\n", args)
	b.WriteString("FACET_EXIT=$?\n")
	b.WriteString("if [ $FACET_EXIT -eq 1 ]; then\n")
	b.WriteString("  echo \"facet: score below threshold, commit blocked\"\n")
	b.WriteString("  exit 1\n")
	b.WriteString("elif [ $FACET_EXIT -ge 2 ]; then\n")
	b.WriteString("  echo \"facet: review did not complete (exit $FACET_EXIT), allowing commit\"\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

// replaceHookSection swaps an existing facet section for section, or
// appends it when there is none.
func replaceHookSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return before + section + after
}

func removeHookSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return before + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().Float64Var(&hookThreshold, "threshold", 70, "Minimum passing average score")
	hookInstallCmd.Flags().StringVar(&hookPerspectives, "perspectives", "", "Comma-separated perspectives (default: all)")
}
