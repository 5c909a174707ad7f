package report

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
)

// PrintTerminalSummary renders each language's top libraries as a
// horizontal bar chart.
func PrintTerminalSummary(w io.Writer, s *Summary, topN int) error {
	header := pterm.DefaultHeader.WithFullWidth().Sprint(fmt.Sprintf("GitHub User: %s", s.GitHubUserName))
	fmt.Fprintln(w, header)

	if len(s.ProgrammingLanguages) == 0 {
		fmt.Fprintln(w, pterm.Yellow("No external libraries were found."))
		return nil
	}

	for _, lang := range s.ProgrammingLanguages {
		fmt.Fprintln(w, pterm.DefaultSection.Sprintf("%s (files: %d)", Capitalize(lang.ProgrammingLanguage), lang.FileCount))

		if len(lang.LibrariesUsed) == 0 {
			continue
		}
		libs := TopLibraries(lang.LibrariesUsed, topN)
		bars := make(pterm.Bars, 0, len(libs))
		for _, l := range libs {
			bars = append(bars, pterm.Bar{Label: l.LibraryName, Value: l.TimesImported})
		}

		chart, err := pterm.DefaultBarChart.WithHorizontal().WithShowValue().WithBars(bars).Srender()
		if err != nil {
			return fmt.Errorf("failed to render chart for %s: %w", lang.ProgrammingLanguage, err)
		}
		fmt.Fprintln(w, chart)
	}
	return nil
}
