package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/brainboost/codesnap/config"
	"github.com/brainboost/codesnap/constants/lipgloss"
	"github.com/brainboost/codesnap/logging"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// RootDependencies are built once per command invocation from the merged
// configuration.
type RootDependencies struct {
	Cwd    string
	Config *config.Config
	Logger *pterm.Logger
	closer io.Closer
}

// Close flushes the rotating log file, if one is configured.
func (d *RootDependencies) Close() {
	if d.closer != nil {
		_ = d.closer.Close()
	}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = NewRootCmd()

// NewRootCmd assembles the codesnap command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "codesnap",
		Short: "Snapshot source trees and report on the libraries they import",
		Long: `codesnap walks a project, records every source file together with its
metadata and the imports it declares, and writes the result as one JSON
snapshot that can be split into parts for transport. The report command does
the same for every repository of a GitHub account and renders the merged
library usage as charts and a PDF.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	config.InitFlags(root)

	root.AddCommand(
		newSnapshotCmd(),
		newReportCmd(),
		newInspectCmd(),
		newJoinCmd(),
		newDirsCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render("Error: "+err.Error()))
	}
	return err
}

func handleRootCommand(cmd *cobra.Command) (*RootDependencies, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	cfg, err := config.LoadConfigs(cmd.Root(), cwd)
	if err != nil {
		return nil, err
	}

	logger, closer := logging.New(cfg.Log)
	logger.Debug("Configuration loaded", logger.Args("config", cfg.Log.String()))

	return &RootDependencies{
		Cwd:    cwd,
		Config: cfg,
		Logger: logger,
		closer: closer,
	}, nil
}

// splitList turns a comma separated flag value into its non-empty items.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func newSpinner(cmd *cobra.Command) *pterm.SpinnerPrinter {
	return pterm.DefaultSpinner.
		WithWriter(cmd.ErrOrStderr()).
		WithStyle(pterm.NewStyle(pterm.FgLightBlue)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100 * time.Millisecond).
		WithRemoveWhenDone(true)
}
