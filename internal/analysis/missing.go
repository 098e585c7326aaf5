package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"workbench/internal/frame"
)

var (
	ErrUnsupportedFormat   = errors.New("unsupported figure format")
	ErrUnsupportedColormap = errors.New("unsupported colormap")
	ErrInvalidColor        = errors.New("invalid color")
)

// MissingCount is the number of missing cells in one column or row.
type MissingCount struct {
	Name    string  `json:"name"`
	Missing int     `json:"missing"`
	Ratio   float64 `json:"ratio"`
}

// MissingReport summarizes the missing cells of a frame.
type MissingReport struct {
	Rows         int            `json:"rows"`
	Columns      int            `json:"columns"`
	TotalCells   int            `json:"total_cells"`
	MissingCells int            `json:"missing_cells"`
	MissingRatio float64        `json:"missing_ratio"`
	ByColumn     []MissingCount `json:"by_column"`
	ByRow        []MissingCount `json:"by_row"`
	Mask         [][]bool       `json:"mask,omitempty"`
}

// HasMissing reports whether any cell is missing.
func (r MissingReport) HasMissing() bool { return r.MissingCells > 0 }

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// ExploreMissing counts the missing cells of f per column and per row.
func ExploreMissing(f *frame.Frame) MissingReport {
	mask := f.MissingMask()
	rep := MissingReport{
		Rows:       f.Rows(),
		Columns:    f.Width(),
		TotalCells: f.Rows() * f.Width(),
		ByColumn:   make([]MissingCount, f.Width()),
		ByRow:      make([]MissingCount, f.Rows()),
		Mask:       mask,
	}
	for c, name := range f.Columns {
		rep.ByColumn[c].Name = name
	}
	for r, row := range mask {
		rep.ByRow[r].Name = f.Index[r]
		for c, missing := range row {
			if !missing {
				continue
			}
			rep.MissingCells++
			rep.ByRow[r].Missing++
			rep.ByColumn[c].Missing++
		}
		rep.ByRow[r].Ratio = ratio(rep.ByRow[r].Missing, f.Width())
	}
	for c := range rep.ByColumn {
		rep.ByColumn[c].Ratio = ratio(rep.ByColumn[c].Missing, f.Rows())
	}
	rep.MissingRatio = ratio(rep.MissingCells, rep.TotalCells)
	return rep
}

// FigureSettings configures the missing-values heatmap. Zero fields take defaults.
type FigureSettings struct {
	Width     float64 `json:"width,omitempty"`  // inches
	Height    float64 `json:"height,omitempty"` // inches
	Colormap  string  `json:"colormap,omitempty"`
	LineWidth float64 `json:"line_width,omitempty"` // points
	LineColor string  `json:"line_color,omitempty"`
	Title     string  `json:"title,omitempty"`
}

// DefaultFigureSettings returns the heatmap defaults.
func DefaultFigureSettings() FigureSettings {
	return FigureSettings{
		Width:     16,
		Height:    16,
		Colormap:  "Greys",
		LineWidth: 0.3,
		LineColor: "#c8d6e5",
		Title:     "Missing values",
	}
}

func (s FigureSettings) withDefaults() FigureSettings {
	d := DefaultFigureSettings()
	if s.Width > 0 {
		d.Width = s.Width
	}
	if s.Height > 0 {
		d.Height = s.Height
	}
	if s.Colormap != "" {
		d.Colormap = s.Colormap
	}
	if s.LineWidth > 0 {
		d.LineWidth = s.LineWidth
	}
	if s.LineColor != "" {
		d.LineColor = s.LineColor
	}
	if s.Title != "" {
		d.Title = s.Title
	}
	return d
}

// FigureFormats maps supported figure formats to their content types.
var FigureFormats = map[string]string{
	"pdf": "application/pdf",
	"png": "image/png",
	"svg": "image/svg+xml",
}

// NormalizeFormat lower-cases format, defaults it to pdf and checks support.
func NormalizeFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	if format == "" {
		format = "pdf"
	}
	if _, ok := FigureFormats[format]; !ok {
		return "", fmt.Errorf("%w: %q (supported: pdf, png, svg)", ErrUnsupportedFormat, format)
	}
	return format, nil
}

// twoTone is a palette going from the "present" color to the "missing" color.
type twoTone [2]color.Color

func (p twoTone) Colors() []color.Color { return p[:] }

var colormaps = map[string]twoTone{
	"greys": {color.RGBA{R: 247, G: 247, B: 247, A: 255}, color.RGBA{R: 37, G: 37, B: 37, A: 255}},
	"blues": {color.RGBA{R: 247, G: 251, B: 255, A: 255}, color.RGBA{R: 8, G: 48, B: 107, A: 255}},
	"reds":  {color.RGBA{R: 255, G: 245, B: 240, A: 255}, color.RGBA{R: 103, G: 0, B: 13, A: 255}},
}

// missingGrid exposes the mask as a heatmap grid. Grid row 0 is the last
// observation so the first observation is drawn on top.
type missingGrid struct {
	mask [][]bool
	cols int
}

func (g missingGrid) Dims() (c, r int) { return g.cols, len(g.mask) }

func (g missingGrid) Z(c, r int) float64 {
	if g.mask[len(g.mask)-1-r][c] {
		return 1
	}
	return 0
}

func (g missingGrid) X(c int) float64 { return float64(c) }
func (g missingGrid) Y(r int) float64 { return float64(r) }

// RenderMissing draws the missing-values heatmap of f and encodes it in format.
func RenderMissing(f *frame.Frame, settings FigureSettings, format string) ([]byte, error) {
	format, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}
	if f.Rows() == 0 {
		return nil, frame.ErrNoRows
	}
	s := settings.withDefaults()

	pal, ok := colormaps[strings.ToLower(s.Colormap)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: Greys, Blues, Reds)", ErrUnsupportedColormap, s.Colormap)
	}
	lineColor, err := parseHexColor(s.LineColor)
	if err != nil {
		return nil, err
	}

	rows, cols := f.Rows(), f.Width()
	p := plot.New()
	p.Title.Text = s.Title

	hm := plotter.NewHeatMap(missingGrid{mask: f.MissingMask(), cols: cols}, pal)
	hm.Min, hm.Max = 0, 1
	p.Add(hm)

	// Cell separators.
	for c := 0; c <= cols; c++ {
		x := float64(c) - 0.5
		if err := addLine(p, plotter.XYs{{X: x, Y: -0.5}, {X: x, Y: float64(rows) - 0.5}}, s.LineWidth, lineColor); err != nil {
			return nil, err
		}
	}
	for r := 0; r <= rows; r++ {
		y := float64(r) - 0.5
		if err := addLine(p, plotter.XYs{{X: -0.5, Y: y}, {X: float64(cols) - 0.5, Y: y}}, s.LineWidth, lineColor); err != nil {
			return nil, err
		}
	}
	p.Add(plotter.NewGrid())

	xTicks := make([]plot.Tick, cols)
	for c, name := range f.Columns {
		xTicks[c] = plot.Tick{Value: float64(c), Label: name}
	}
	yTicks := make([]plot.Tick, rows)
	for r, label := range f.Index {
		yTicks[r] = plot.Tick{Value: float64(rows - 1 - r), Label: label}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Min, p.X.Max = -0.5, float64(cols)-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(rows)-0.5

	wt, err := p.WriterTo(vg.Length(s.Width)*vg.Inch, vg.Length(s.Height)*vg.Inch, format)
	if err != nil {
		return nil, fmt.Errorf("encode %s figure: %w", format, err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode %s figure: %w", format, err)
	}
	return buf.Bytes(), nil
}

func addLine(p *plot.Plot, pts plotter.XYs, width float64, c color.Color) error {
	l, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	l.LineStyle.Width = vg.Points(width)
	l.LineStyle.Color = c
	p.Add(l)
	return nil
}

// parseHexColor parses #rgb or #rrggbb.
func parseHexColor(s string) (color.Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
