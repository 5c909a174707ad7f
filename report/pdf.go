package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-pdf/fpdf"
)

const (
	pageHeight   = 792.0
	marginLeft   = 30.0
	chartHeight  = 200.0
	bottomMargin = 100.0
)

// PDFOptions control GeneratePDF.
type PDFOptions struct {
	// ChartsDir receives the PNG charts embedded in the document.
	ChartsDir string
	// TopN limits the libraries drawn in each chart; 0 draws all of them.
	TopN int
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// ChartPaths returns the pie and bar chart paths used for language.
func ChartPaths(chartsDir, language string) (pie, bar string) {
	name := unsafeFileChars.ReplaceAllString(Capitalize(language), "_")
	return filepath.Join(chartsDir, "pie_chart_"+name+".png"),
		filepath.Join(chartsDir, "bar_chart_"+name+".png")
}

// GeneratePDF writes a letter-sized report of s to path: one section per
// language with its charts followed by every library and its import count.
func GeneratePDF(s *Summary, path string, opts PDFOptions) error {
	if opts.ChartsDir == "" {
		opts.ChartsDir = "tmp"
	}
	if err := os.MkdirAll(opts.ChartsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create charts directory %s: %w", opts.ChartsDir, err)
	}

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetTitle(fmt.Sprintf("GitHub User: %s", s.GitHubUserName), true)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "", 14)
	pdf.Text(marginLeft, 30, tr(fmt.Sprintf("GitHub User: %s - Overall Statistics", s.GitHubUserName)))
	y := 60.0

	newPageIfBelow := func(limit float64) {
		if y > pageHeight-limit {
			pdf.AddPage()
			y = 30
		}
	}

	for _, lang := range s.ProgrammingLanguages {
		language := Capitalize(lang.ProgrammingLanguage)

		pdf.SetFont("Helvetica", "B", 12)
		pdf.Text(marginLeft, y, tr(fmt.Sprintf("Programming Language: %s (Files: %d)", language, lang.FileCount)))
		y += 20

		if len(lang.LibrariesUsed) > 0 {
			newPageIfBelow(chartHeight + 20)

			pie, bar := ChartPaths(opts.ChartsDir, lang.ProgrammingLanguage)
			libs := TopLibraries(lang.LibrariesUsed, opts.TopN)
			title := fmt.Sprintf("Library Usage for %s", language)
			if err := RenderPieChart(libs, title, pie); err != nil {
				return err
			}
			if err := RenderBarChart(libs, title, bar); err != nil {
				return err
			}

			pdf.ImageOptions(pie, marginLeft, y, 200, chartHeight, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
			pdf.ImageOptions(bar, 250, y, 300, chartHeight, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
			y += chartHeight + 20
		}

		pdf.SetFont("Helvetica", "", 10)
		for _, lib := range lang.LibrariesUsed {
			newPageIfBelow(40)
			pdf.Text(marginLeft, y, tr(fmt.Sprintf("%s: %d imports", lib.LibraryName, lib.TimesImported)))
			y += 15
		}

		y += 20
		newPageIfBelow(bottomMargin)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}
