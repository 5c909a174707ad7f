package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/brainboost/codesnap/code_analyzer"
	"github.com/brainboost/codesnap/code_analyzer/models"
	"github.com/brainboost/codesnap/constants/lipgloss"
	"github.com/brainboost/codesnap/utils"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type inspectFlags struct {
	file  string
	theme string
	depth int
	top   int
}

func newInspectCmd() *cobra.Command {
	var flags inspectFlags

	cmd := &cobra.Command{
		Use:   "inspect <snapshot.json>",
		Short: "Show the contents of a snapshot.",
		Long: `The 'inspect' subcommand prints a summary of a snapshot file: its project,
language, file statistics, most imported libraries and the project tree.
With --file it prints the stored source of one file, syntax highlighted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rootDependencies, err := handleRootCommand(cmd)
			if err != nil {
				return err
			}
			defer rootDependencies.Close()

			record, err := code_analyzer.ReadSnapshotFile(args[0])
			if err != nil {
				return err
			}
			if flags.file != "" {
				return printSource(cmd, record, flags)
			}
			return printSnapshotSummary(cmd.OutOrStdout(), record, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "Relative path of a file whose source is printed.")
	cmd.Flags().StringVar(&flags.theme, "theme", utils.DefaultTheme, "Syntax highlighting theme for --file.")
	cmd.Flags().IntVar(&flags.depth, "depth", 3, "Maximum depth of the printed project tree (0 for unlimited).")
	cmd.Flags().IntVar(&flags.top, "top", 10, "Number of imports listed.")

	return cmd
}

func printSource(cmd *cobra.Command, record *models.SnapshotRecord, flags inspectFlags) error {
	for _, entry := range record.Sources {
		if entry.File.RelativePath == flags.file {
			return utils.RenderSource(cmd.Context(), cmd.OutOrStdout(), entry.File.Name, entry.File.SourceCode, flags.theme)
		}
	}
	return fmt.Errorf("file %q is not part of snapshot %s", flags.file, record.ProjectName)
}

func printSnapshotSummary(w io.Writer, record *models.SnapshotRecord, flags inspectFlags) error {
	var totalSize int64
	totalLines := 0
	for _, entry := range record.Sources {
		totalSize += entry.File.Size
		totalLines += entry.File.Lines
	}

	stats, err := pterm.DefaultTable.WithData(pterm.TableData{
		{"Project", record.ProjectName},
		{"Language", record.ProgrammingLanguage},
		{"Files", fmt.Sprint(len(record.Sources))},
		{"Lines", fmt.Sprint(totalLines)},
		{"Bytes", fmt.Sprint(totalSize)},
		{"Distinct imports", fmt.Sprint(len(record.ExternalLibraries))},
	}).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, lipgloss.BlueSky.Render("Snapshot"))
	fmt.Fprintln(w, stats)

	for _, observation := range record.Observations {
		fmt.Fprintln(w, lipgloss.Yellow.Render(observation))
	}

	if len(record.ExternalLibraries) > 0 {
		imports := topImports(record.ExternalLibraries, flags.top)
		data := pterm.TableData{{"Import", "Count"}}
		for _, imp := range imports {
			data = append(data, []string{imp.Name, fmt.Sprint(imp.Count)})
		}
		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, lipgloss.BlueSky.Render("Imports"))
		fmt.Fprintln(w, table)
	}

	if record.Tree != nil {
		tree, err := pterm.DefaultTree.WithRoot(pterm.TreeNode{
			Text:     lipgloss.Green.Render(record.Tree.Name),
			Children: treeChildren(record.Tree, flags.depth, 1),
		}).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, lipgloss.BlueSky.Render("Tree"))
		fmt.Fprintln(w, tree)
	}
	return nil
}

// topImports returns the n most counted imports; ties keep their snapshot
// order.
func topImports(imports []models.ImportCount, n int) []models.ImportCount {
	sorted := append([]models.ImportCount(nil), imports...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// treeChildren converts the children of node for pterm, collapsing
// directories below maxDepth into a file count.
func treeChildren(node *models.TreeNode, maxDepth, depth int) []pterm.TreeNode {
	children := make([]pterm.TreeNode, 0, len(node.Children))
	for _, child := range node.Children {
		if !child.IsDir {
			children = append(children, pterm.TreeNode{Text: child.Name})
			continue
		}
		item := pterm.TreeNode{Text: lipgloss.Green.Render(child.Name + "/")}
		if maxDepth > 0 && depth >= maxDepth {
			item.Text += lipgloss.Gray.Render(fmt.Sprintf(" (%d files)", child.CountFiles()))
		} else {
			item.Children = treeChildren(child, maxDepth, depth+1)
		}
		children = append(children, item)
	}
	return children
}
