package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brainboost/codesnap/code_analyzer"
	"github.com/brainboost/codesnap/constants/lipgloss"
	"github.com/spf13/cobra"
)

type dirsFlags struct {
	startPath   string
	outputPath  string
	skipAvoided bool
}

func newDirsCmd() *cobra.Command {
	var flags dirsFlags

	cmd := &cobra.Command{
		Use:   "dirs",
		Short: "List directories that contain source code files.",
		Long: `The 'dirs' subcommand walks --start-path and appends every directory that
directly holds a file with an included extension to --output-path, one path
per line. Every directory is walked unless --skip-avoided-folders is given, in
which case the configured avoid_folders are left out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rootDependencies, err := handleRootCommand(cmd)
			if err != nil {
				return err
			}
			defer rootDependencies.Close()

			return handleDirsCommand(cmd.Context(), cmd, rootDependencies, flags)
		},
	}

	cmd.Flags().StringVar(&flags.startPath, "start-path", "", "Path to start scanning.")
	cmd.Flags().StringVar(&flags.outputPath, "output-path", "", "File the directory list is appended to.")
	cmd.Flags().BoolVar(&flags.skipAvoided, "skip-avoided-folders", false, "Do not descend into the configured avoid_folders.")
	_ = cmd.MarkFlagRequired("start-path")
	_ = cmd.MarkFlagRequired("output-path")

	return cmd
}

func handleDirsCommand(ctx context.Context, cmd *cobra.Command, deps *RootDependencies, flags dirsFlags) error {
	if dir := filepath.Dir(flags.outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	out, err := os.OpenFile(flags.outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", flags.outputPath, err)
	}
	defer out.Close()

	opts := code_analyzer.TreeOptions{
		IncludeExtensions: deps.Config.IncludeExtensions,
		Logger:            deps.Logger,
	}
	if flags.skipAvoided {
		opts.AvoidFolders = deps.Config.AvoidFolders
	}

	found := 0
	err = code_analyzer.FindSourceDirectories(ctx, flags.startPath, opts, func(dir string) error {
		found++
		deps.Logger.Debug("Source code directory found", deps.Logger.Args("dir", dir))
		_, err := fmt.Fprintln(out, dir)
		return err
	})
	if err != nil {
		return err
	}

	printBox(cmd.OutOrStdout(),
		lipgloss.Info.Render("Directories: ")+fmt.Sprint(found),
		lipgloss.Info.Render("Written to: ")+flags.outputPath,
	)
	return nil
}
