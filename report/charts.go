package report

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

const (
	pieWidth  = 1000
	pieHeight = 600
	barWidth  = 1200
	barHeight = 800
)

var (
	background = color.NRGBA{255, 255, 255, 255}
	ink        = color.NRGBA{33, 33, 33, 255}
	skyBlue    = color.NRGBA{135, 206, 235, 255}
	axisGray   = color.NRGBA{160, 160, 160, 255}
)

// palette cycles through slice colours of the pie chart.
var palette = []color.NRGBA{
	{31, 119, 180, 255},
	{255, 127, 14, 255},
	{44, 160, 44, 255},
	{214, 39, 40, 255},
	{148, 103, 189, 255},
	{140, 86, 75, 255},
	{227, 119, 194, 255},
	{127, 127, 127, 255},
	{188, 189, 34, 255},
	{23, 190, 207, 255},
}

// RenderPieChart draws the share of each library as a PNG at path with a
// legend of names and percentages.
func RenderPieChart(libs []LibraryUsage, title, path string) error {
	img := newCanvas(pieWidth, pieHeight)
	drawText(img, 20, 30, title, ink)

	total := 0
	for _, l := range libs {
		total += l.TimesImported
	}

	cx, cy, radius := float32(300), float32(330), float32(240)
	start := -math.Pi / 2
	for i, l := range libs {
		if total == 0 || l.TimesImported <= 0 {
			continue
		}
		share := float64(l.TimesImported) / float64(total)
		end := start + share*2*math.Pi
		fillSlice(img, cx, cy, radius, start, end, palette[i%len(palette)])
		start = end

		y := 80 + i*22
		if y > pieHeight-20 {
			continue
		}
		fillRect(img, image.Rect(620, y-11, 634, y+3), palette[i%len(palette)])
		drawText(img, 642, y, fmt.Sprintf("%s (%.1f%%)", l.LibraryName, share*100), ink)
	}

	return savePNG(img, path)
}

// RenderBarChart draws one horizontal bar per library, longest first as
// given, to a PNG at path.
func RenderBarChart(libs []LibraryUsage, title, path string) error {
	img := newCanvas(barWidth, barHeight)
	drawText(img, 20, 30, title, ink)

	const (
		labelWidth = 320
		top        = 60
		bottom     = barHeight - 50
		right      = barWidth - 80
	)

	maxCount := 0
	for _, l := range libs {
		if l.TimesImported > maxCount {
			maxCount = l.TimesImported
		}
	}

	fillRect(img, image.Rect(labelWidth, top, labelWidth+1, bottom), axisGray)
	fillRect(img, image.Rect(labelWidth, bottom, right, bottom+1), axisGray)
	drawText(img, labelWidth, bottom+30, "Number of Imports", ink)
	drawText(img, 20, bottom+30, "Libraries", ink)

	if len(libs) == 0 || maxCount == 0 {
		return savePNG(img, path)
	}

	slot := (bottom - top) / len(libs)
	if slot < 4 {
		slot = 4
	}
	barH := slot * 7 / 10
	for i, l := range libs {
		y := top + i*slot
		if y+barH > bottom {
			break
		}
		w := (right - labelWidth - 10) * l.TimesImported / maxCount
		fillRect(img, image.Rect(labelWidth+1, y, labelWidth+1+w, y+barH), skyBlue)
		if slot >= 13 {
			baseline := y + barH/2 + 5
			drawText(img, 20, baseline, truncate(l.LibraryName, 42), ink)
			drawText(img, labelWidth+w+8, baseline, strconv.Itoa(l.TimesImported), ink)
		}
	}

	return savePNG(img, path)
}

func newCanvas(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	return img
}

func fillRect(img *image.NRGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// fillSlice rasterizes the circular sector from angle start to end.
func fillSlice(img *image.NRGBA, cx, cy, radius float32, start, end float64, c color.Color) {
	b := img.Bounds()
	r := vector.NewRasterizer(b.Dx(), b.Dy())
	r.MoveTo(cx, cy)
	steps := int(math.Ceil((end-start)/(math.Pi/90))) + 1
	for i := 0; i <= steps; i++ {
		a := start + (end-start)*float64(i)/float64(steps)
		r.LineTo(cx+radius*float32(math.Cos(a)), cy+radius*float32(math.Sin(a)))
	}
	r.ClosePath()
	r.Draw(img, b, image.NewUniform(c), image.Point{})
}

func drawText(img *image.NRGBA, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func savePNG(img image.Image, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode chart %s: %w", path, err)
	}
	return f.Close()
}
