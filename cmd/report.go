package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/brainboost/codesnap/chunking"
	"github.com/brainboost/codesnap/code_analyzer"
	"github.com/brainboost/codesnap/constants/lipgloss"
	"github.com/brainboost/codesnap/report"
	"github.com/brainboost/codesnap/repository"
	"github.com/spf13/cobra"
)

// snapshotTimestampLayout names the per-run snapshot directory.
const snapshotTimestampLayout = "200601021504"

type reportFlags struct {
	additionalAvoid string
	noPDF           bool
	compressFlags
}

func newReportCmd() *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "report <github_user>",
		Short: "Generate a library usage report for a GitHub user's repositories.",
		Long: `The 'report' subcommand lists every repository of a GitHub user, clones or
updates each one under the configured source directory, writes a snapshot per
project to snapshots/<project>/<timestamp>/snapshot.json, merges the snapshots
into an overall summary and renders that summary as charts and a PDF.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			rootDependencies, err := handleRootCommand(cmd)
			if err != nil {
				return err
			}
			defer rootDependencies.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return handleReportCommand(ctx, cmd, rootDependencies, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.additionalAvoid, "additional-avoid-folders", "", "Comma separated list of additional folders to avoid.")
	cmd.Flags().BoolVar(&flags.noPDF, "no-pdf", false, "Skip chart and PDF rendering.")
	flags.compressFlags.register(cmd)

	return cmd
}

func handleReportCommand(ctx context.Context, cmd *cobra.Command, deps *RootDependencies, user string, flags reportFlags) error {
	cfg := deps.Config
	logger := deps.Logger

	lister := repository.NewGitHubLister(repository.ListerOptions{
		BaseURL:           cfg.GitHub.APIURL,
		PerPage:           cfg.GitHub.PerPage,
		RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
		Logger:            logger,
	})

	spinner, _ := newSpinner(cmd).Start("Listing repositories...")
	urls, err := lister.ListClonableURLs(ctx, []string{user})
	spinner.Stop()
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), lipgloss.Yellow.Render(fmt.Sprintf("No repositories found for %s.", user)))
		return nil
	}
	logger.Info("Repositories found", logger.Args("user", user, "count", len(urls)))

	if _, err := repository.NewCloner(logger).CloneAll(ctx, urls, cfg.Report.SourceDir); err != nil {
		return err
	}

	projects, err := projectDirs(cfg.Report.SourceDir)
	if err != nil {
		return err
	}

	extraAvoid := splitList(flags.additionalAvoid)
	for _, project := range projects {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := snapshotProject(ctx, deps, project, extraAvoid, flags.compressFlags); err != nil {
			return err
		}
	}

	languages, err := report.Aggregate(cfg.Report.SnapshotsDir, cfg.InternalNamespaces, logger)
	if err != nil {
		return err
	}
	summary := &report.Summary{GitHubUserName: user, ProgrammingLanguages: languages}
	if err := report.WriteSummary(cfg.Report.SummaryFile, summary); err != nil {
		return err
	}
	logger.Info("Overall summary saved", logger.Args("file", cfg.Report.SummaryFile))

	lines := []string{
		lipgloss.Info.Render("Projects: ") + fmt.Sprint(len(projects)),
		lipgloss.Info.Render("Summary: ") + cfg.Report.SummaryFile,
	}

	if !flags.noPDF {
		err := report.GeneratePDF(summary, cfg.Report.PDFFile, report.PDFOptions{
			ChartsDir: cfg.Report.ChartsDir,
			TopN:      cfg.Report.ChartTopN,
		})
		if err != nil {
			return err
		}
		logger.Info("PDF report generated", logger.Args("file", cfg.Report.PDFFile))
		lines = append(lines, lipgloss.Info.Render("PDF: ")+cfg.Report.PDFFile)
	}

	if err := report.PrintTerminalSummary(cmd.OutOrStdout(), summary, cfg.Report.ChartTopN); err != nil {
		return err
	}
	printBox(cmd.OutOrStdout(), lines...)
	return nil
}

// projectDirs lists the directories directly under sourceDir.
func projectDirs(sourceDir string) ([]string, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", sourceDir, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(sourceDir, e.Name()))
		}
	}
	return dirs, nil
}

// snapshotProject writes snapshots/<project>/<timestamp>/snapshot.json and
// splits it in place when compression is on.
func snapshotProject(ctx context.Context, deps *RootDependencies, projectPath string, extraAvoid []string, compress compressFlags) error {
	cfg := deps.Config
	project := filepath.Base(projectPath)
	outputDir := filepath.Join(cfg.Report.SnapshotsDir, project, time.Now().Format(snapshotTimestampLayout))
	outputFile := filepath.Join(outputDir, "snapshot.json")

	generator := code_analyzer.NewSnapshotGenerator(generatorOptions(cfg, projectPath, outputFile, extraAvoid, deps))
	if _, err := generator.Run(ctx); err != nil {
		return fmt.Errorf("snapshot of %s failed: %w", project, err)
	}

	if compress.enabled() {
		result, err := chunking.Split(outputFile, compress.splitOptions())
		if err != nil {
			return err
		}
		deps.Logger.Info("Parts directory created", deps.Logger.Args("dir", result.Dir))
	}

	deps.Logger.Info("Snapshot saved", deps.Logger.Args("project", project, "dir", outputDir))
	return nil
}
