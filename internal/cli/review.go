package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dshills/facet/internal/config"
	"github.com/dshills/facet/internal/github"
	"github.com/dshills/facet/internal/gitctx"
	"github.com/dshills/facet/internal/output"
	"github.com/dshills/facet/internal/perspective"
	"github.com/dshills/facet/internal/review"
)

var (
	flagChanged      bool
	flagStaged       bool
	flagAll          bool
	flagExclude      []string
	flagBaseBranch   string
	flagPR           int
	flagPerspectives string
	flagFormat       string
	flagOut          string
	flagThreshold    float64
	flagNoCache      bool
	flagWorkers      int
	flagMaxFileBytes int
	flagTimeout      int
	flagProvider     string
	flagModel        string
	flagEndpoint     string
	flagPostComment  bool
	flagNoRedact     bool
	flagQuiet        bool
)

var reviewCmd = &cobra.Command{
	Use:   "review [files...]",
	Short: "Review files under every selected perspective",
	Long: `Review source files with the configured LLM provider.

Files come from the arguments, from git (--changed, --staged, --all) or from a
GitHub pull request (--pr). Only files with a supported extension are
reviewed.`,
	Example: `  facet review main.go util.py
  facet review --changed --base-branch develop --format github
  facet review --pr 42 --post-comment --threshold 80`,
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = runReview(cmd, args)
		return nil
	},
}

func addReviewFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&flagChanged, "changed", false, "Review files changed against the base branch")
	f.BoolVar(&flagStaged, "staged", false, "Review files staged for commit")
	f.BoolVar(&flagAll, "all", false, "Review every tracked file in the repository")
	f.StringSliceVar(&flagExclude, "exclude", nil, "Glob patterns to skip (e.g. vendor/**)")
	f.StringVar(&flagBaseBranch, "base-branch", "main", "Base branch for --changed")
	f.IntVar(&flagPR, "pr", 0, "Review the files of this GitHub pull request")
	f.StringVar(&flagPerspectives, "perspectives", "", "Comma-separated perspectives (default: all)")
	f.StringVar(&flagFormat, "format", "", "Output format ("+strings.Join(config.Formats, ", ")+")")
	f.StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	f.Float64Var(&flagThreshold, "threshold", 0, "Minimum passing average score (0-100)")
	f.BoolVar(&flagNoCache, "no-cache", false, "Disable the result cache")
	f.IntVar(&flagWorkers, "workers", 0, "Maximum concurrent reviews")
	f.IntVar(&flagMaxFileBytes, "max-file-bytes", 0, "Truncate files beyond this many bytes")
	f.IntVar(&flagTimeout, "timeout", 0, "Per-task timeout in seconds")
	f.StringVar(&flagProvider, "provider", "", "LLM provider ("+strings.Join(config.Providers, ", ")+")")
	f.StringVar(&flagModel, "model", "", "Model name")
	f.StringVar(&flagEndpoint, "endpoint", "", "Override the provider base URL")
	f.BoolVar(&flagPostComment, "post-comment", false, "Post the report as a pull request comment")
	f.BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	f.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// buildOverrides maps explicitly set flags onto config keys.
func buildOverrides(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)
	changed := cmd.Flags().Changed
	if changed("provider") {
		m["provider"] = flagProvider
	}
	if changed("model") {
		m["model"] = flagModel
	}
	if changed("endpoint") {
		m["endpoint"] = flagEndpoint
	}
	if changed("format") {
		m["format"] = flagFormat
	}
	if changed("perspectives") {
		m["perspectives"] = splitComma(flagPerspectives)
	}
	if changed("threshold") {
		m["threshold"] = flagThreshold
	}
	if changed("workers") {
		m["maxWorkers"] = flagWorkers
	}
	if changed("max-file-bytes") {
		m["maxFileBytes"] = flagMaxFileBytes
	}
	if changed("timeout") {
		m["taskTimeoutSeconds"] = flagTimeout
	}
	if flagNoCache {
		m["cache.enabled"] = false
	}
	return m
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func runReview(cmd *cobra.Command, args []string) int {
	ui.Quiet = flagQuiet

	cfg, err := loadConfig(buildOverrides(cmd))
	if err != nil {
		ui.Error("%v", err)
		return ExitConfigError
	}
	logger := newLogger(cfg.Log.Level, ui.ErrOut)

	ids, err := perspective.Parse(cfg.Perspectives)
	if err != nil {
		ui.Error("%v", err)
		return ExitConfigError
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	pr := github.PRContextFromEnv()
	if flagPR > 0 {
		pr.PRNumber = flagPR
	}

	paths, discovered, err := discoverFiles(ctx, args, pr)
	if err != nil {
		ui.Error("%v", err)
		return exitCodeFor(err)
	}

	paths = gitctx.FilterExtensions(gitctx.Exclude(paths, flagExclude), cfg.Extensions)
	if len(paths) == 0 {
		if discovered {
			ui.Info("No supported files to review")
			return ExitOK
		}
		ui.Error("No supported files to review (extensions: %s)", strings.Join(cfg.Extensions, " "))
		return ExitConfigError
	}
	ui.Info("Reviewing %d file(s) under %d perspective(s)...", len(paths), len(ids))

	var spin *spinner.Spinner
	if !flagQuiet && isTerminal(os.Stderr) {
		spin = spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		spin.Suffix = " Reviewing..."
		spin.Start()
	}

	p, err := buildPipeline(cfg, logger, pipelineOptions{
		noRedact: flagNoRedact,
		onProgress: func(done, total int) {
			if spin != nil {
				spin.Lock()
				spin.Suffix = fmt.Sprintf(" Reviewing... %d/%d", done, total)
				spin.Unlock()
			}
		},
	})
	if err != nil {
		if spin != nil {
			spin.Stop()
		}
		ui.Error("%v", err)
		return exitCodeFor(err)
	}
	defer p.Close()

	outcomes := p.engine.Run(ctx, review.LoadFiles(paths), ids)
	if spin != nil {
		spin.Stop()
	}
	report := p.aggregator.Aggregate(outcomes)

	opts := output.Options{
		Color: flagOut == "" && isTerminal(os.Stdout) && !color.NoColor,
		Actor: pr.Actor,
	}
	if err := writeReport(cmd, &report, cfg.Format, opts); err != nil {
		ui.Error("Error writing output: %v", err)
		return ExitRuntimeError
	}

	if flagPostComment {
		if err := postComment(ctx, &report, pr); err != nil {
			ui.Warning("Could not post PR comment: %v", err)
		} else {
			ui.Info("Posted review to PR #%d", pr.PRNumber)
		}
	}

	status := review.Evaluate(report, cfg.Threshold)
	switch status {
	case review.StatusOK:
		ui.Info("Score %s/100 meets threshold %s", output.ScoreColor(report.AverageScore), formatFloat(cfg.Threshold))
	case review.StatusBelowThreshold:
		ui.Warning("Score %s/100 is below threshold %s", output.ScoreColor(report.AverageScore), formatFloat(cfg.Threshold))
	default:
		ui.Error("Review failed: %s", report.Error)
	}
	return status.ExitCode()
}

// discoverFiles returns the candidate paths and whether they came from git
// or GitHub rather than the command line.
func discoverFiles(ctx context.Context, args []string, pr github.PRContext) ([]string, bool, error) {
	switch {
	case flagPR > 0:
		owner, repo, err := resolveRepo(pr)
		if err != nil {
			return nil, true, &setupError{code: ExitConfigError, err: err}
		}
		client, err := github.NewClient()
		if err != nil {
			return nil, true, &setupError{code: ExitConfigError, err: err}
		}
		files, err := client.GetPRFiles(ctx, owner, repo, flagPR)
		if err != nil {
			return nil, true, err
		}
		return files, true, nil
	case flagChanged:
		files, err := gitctx.ChangedFiles(flagBaseBranch)
		return files, true, err
	case flagStaged:
		files, err := gitctx.StagedFiles()
		return files, true, err
	case flagAll:
		files, err := gitctx.TrackedFiles(nil, nil)
		return files, true, err
	case len(args) > 0:
		return args, false, nil
	default:
		return nil, false, &setupError{
			code: ExitConfigError,
			err:  fmt.Errorf("specify files to review, or use --changed, --staged, --all or --pr"),
		}
	}
}

// resolveRepo takes owner/repo from GITHUB_REPOSITORY, falling back to the
// origin remote.
func resolveRepo(pr github.PRContext) (string, string, error) {
	if pr.Repo != "" {
		return pr.OwnerRepo()
	}
	meta, err := gitctx.GetRepoMeta()
	if err != nil || meta.Remote == "" {
		return "", "", fmt.Errorf("cannot determine repository: set GITHUB_REPOSITORY=owner/repo")
	}
	return github.ParseRemoteURL(meta.Remote)
}

func writeReport(cmd *cobra.Command, report *review.Report, format string, opts output.Options) error {
	if flagOut != "" {
		return output.WriteReport(report, format, flagOut, opts)
	}
	w, err := output.GetWriter(format, opts)
	if err != nil {
		return err
	}
	return w.Write(cmd.OutOrStdout(), report)
}

func postComment(ctx context.Context, report *review.Report, pr github.PRContext) error {
	if pr.PRNumber == 0 {
		return fmt.Errorf("no pull request number: use --pr or set GITHUB_PR_NUMBER")
	}
	owner, repo, err := resolveRepo(pr)
	if err != nil {
		return err
	}
	client, err := github.NewClient()
	if err != nil {
		return err
	}
	body, err := output.Render(report, "github", output.Options{Actor: pr.Actor})
	if err != nil {
		return err
	}
	return client.PostComment(ctx, owner, repo, pr.PRNumber, body)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func formatFloat(f float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", f), "0"), ".")
}

func init() {
	addReviewFlags(reviewCmd)
}
