package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brainboost/codesnap/chunking"
	"github.com/brainboost/codesnap/constants/lipgloss"
	"github.com/spf13/cobra"
)

func newJoinCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "join <parts_dir>",
		Short: "Reassemble a split snapshot from its parts.",
		Long: `The 'join' subcommand concatenates the numbered parts in <parts_dir> and,
when the directory carries a manifest, verifies every part and the joined
file against the recorded sizes and hashes. Without --output the file is
written next to the parts directory under its original name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rootDependencies, err := handleRootCommand(cmd)
			if err != nil {
				return err
			}
			defer rootDependencies.Close()

			return handleJoinCommand(cmd, rootDependencies, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Path of the reassembled file.")
	return cmd
}

func handleJoinCommand(cmd *cobra.Command, deps *RootDependencies, dir, output string) error {
	if output == "" {
		manifest, err := chunking.ReadManifest(dir)
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no manifest in %s, pass --output", dir)
		}
		if err != nil {
			return err
		}
		output = filepath.Join(filepath.Dir(filepath.Clean(dir)), manifest.Source)
	}

	manifest, err := chunking.JoinFile(dir, output)
	if err != nil {
		return err
	}

	verified := lipgloss.Yellow.Render("unverified (no manifest)")
	if manifest != nil {
		verified = lipgloss.Green.Render("verified")
	}
	deps.Logger.Info("Parts joined", deps.Logger.Args("dir", dir, "output", output))
	printBox(cmd.OutOrStdout(),
		lipgloss.Info.Render("Joined: ")+output,
		lipgloss.Info.Render("Status: ")+verified,
	)
	return nil
}
