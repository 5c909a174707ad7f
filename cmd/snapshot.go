package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/brainboost/codesnap/chunking"
	"github.com/brainboost/codesnap/code_analyzer"
	"github.com/brainboost/codesnap/code_analyzer/models"
	"github.com/brainboost/codesnap/config"
	"github.com/brainboost/codesnap/constants/lipgloss"
	"github.com/spf13/cobra"
)

type snapshotFlags struct {
	rootDir         string
	outputFile      string
	outputFolder    string
	additionalAvoid string
	compressFlags
}

func newSnapshotCmd() *cobra.Command {
	var flags snapshotFlags

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Generate a snapshot of a single project.",
		Long: `The 'snapshot' subcommand walks --root_dir, records every qualifying file with
its metadata and source, counts the imports it declares and writes everything
to --output_file as indented JSON. With --compress 1 the file is split into
parts inside a '<output>_parts' directory, which is moved into --output_folder
when one is given.`,
		Args: cobra.NoArgs,
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

			return handleSnapshotCommand(ctx, cmd, rootDependencies, flags)
		},
	}

	cmd.Flags().StringVar(&flags.rootDir, "root_dir", "", "Root directory of the project to scan.")
	cmd.Flags().StringVar(&flags.outputFile, "output_file", "", "Output file for the snapshot.")
	cmd.Flags().StringVar(&flags.outputFolder, "output_folder", "", "Folder the parts directory is moved into when compressing.")
	cmd.Flags().StringVar(&flags.additionalAvoid, "additional-avoid-folders", "", "Comma separated list of additional folders to avoid.")
	flags.compressFlags.register(cmd)
	_ = cmd.MarkFlagRequired("root_dir")
	_ = cmd.MarkFlagRequired("output_file")

	return cmd
}

func handleSnapshotCommand(ctx context.Context, cmd *cobra.Command, deps *RootDependencies, flags snapshotFlags) error {
	out := cmd.OutOrStdout()
	cfg := deps.Config

	generator := code_analyzer.NewSnapshotGenerator(generatorOptions(cfg, flags.rootDir, flags.outputFile, splitList(flags.additionalAvoid), deps))

	spinner, _ := newSpinner(cmd).Start("Generating snapshot...")
	record, err := generator.Run(ctx)
	spinner.Stop()
	if err != nil {
		return err
	}

	lines := []string{
		lipgloss.Info.Render("Snapshot: ") + flags.outputFile,
		snapshotStats(record),
	}

	if flags.enabled() {
		result, err := chunking.Split(flags.outputFile, flags.splitOptions())
		if err != nil {
			return err
		}
		if flags.outputFolder != "" {
			result, err = chunking.Relocate(result, flags.outputFolder)
			if err != nil {
				return err
			}
		}
		deps.Logger.Info("Snapshot split", deps.Logger.Args("dir", result.Dir, "parts", len(result.Parts)))
		lines = append(lines, lipgloss.Info.Render("Parts: ")+fmt.Sprintf("%d in %s", len(result.Parts), result.Dir))
	}

	printBox(out, lines...)
	return nil
}

// generatorOptions merges the configuration with per-run values.
func generatorOptions(cfg *config.Config, rootDir, outputFile string, extraAvoid []string, deps *RootDependencies) code_analyzer.Options {
	avoid := append(append([]string{}, cfg.AvoidFolders...), extraAvoid...)
	return code_analyzer.Options{
		RootDir:           rootDir,
		OutputFile:        outputFile,
		AvoidFolders:      avoid,
		IncludeExtensions: cfg.IncludeExtensions,
		KeyFiles:          cfg.KeyFiles,
		IgnorePatterns:    cfg.IgnorePatterns,
		ImportExtractor:   cfg.ImportExtractor,
		LanguageDetection: cfg.LanguageDetection,
		Logger:            deps.Logger,
	}
}

func snapshotStats(record *models.SnapshotRecord) string {
	return fmt.Sprintf("%s %s, %d files, %d distinct imports",
		lipgloss.Green.Render(record.ProjectName),
		lipgloss.BlueSky.Render("("+record.ProgrammingLanguage+")"),
		len(record.Sources),
		len(record.ExternalLibraries),
	)
}

func printBox(w io.Writer, lines ...string) {
	fmt.Fprintln(w, lipgloss.BoxStyle.Render(strings.Join(lines, "\n")))
}
