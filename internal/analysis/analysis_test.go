package analysis

import (
	"bytes"
	"encoding/json"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workbench/internal/frame"
	"workbench/internal/stats"
)

func mustParse(t *testing.T, name, src string) *frame.Frame {
	t.Helper()
	f, err := frame.ParseCSV(strings.NewReader(src), name)
	require.NoError(t, err)
	return f
}

func TestParseSettings(t *testing.T) {
	t.Run("hcl", func(t *testing.T) {
		src := `
scale "updrs" {
  field_name  = "updrs_total"
  correlation = ["Pearson", "kendall"]
}

scale "moca" {
  field_name = "moca"
}
`
		settings, err := ParseSettings([]byte(src), "settings.hcl")
		require.NoError(t, err)
		require.Len(t, settings, 2)
		assert.Equal(t, Setting{Scale: "updrs", FieldName: "updrs_total", Correlation: []stats.Method{stats.Pearson, stats.Kendall}}, settings[0])
		assert.Equal(t, "moca", settings[1].Scale)
		assert.Empty(t, settings[1].Correlation)
		assert.Equal(t, []stats.Method{stats.Spearman}, settings[1].methods())
	})

	t.Run("json", func(t *testing.T) {
		src := `[{"scale": "class", "field_name": "class", "correlation": ["pearson", "spearman", "kendall"]}]`
		settings, err := ParseSettings([]byte(src), "settings.json")
		require.NoError(t, err)
		require.Len(t, settings, 1)
		assert.Equal(t, stats.Methods, settings[0].Correlation)
	})

	tests := []struct {
		name     string
		src      string
		filename string
	}{
		{name: "empty list", src: `[]`, filename: "s.json"},
		{name: "missing field name", src: `[{"scale": "a"}]`, filename: "s.json"},
		{name: "missing scale", src: `[{"field_name": "a"}]`, filename: "s.json"},
		{name: "duplicate scale", src: `[{"scale": "a", "field_name": "x"}, {"scale": "a", "field_name": "y"}]`, filename: "s.json"},
		{name: "duplicate scale ignoring case", src: `[{"scale": "UPDRS", "field_name": "x"}, {"scale": "updrs", "field_name": "y"}]`, filename: "s.json"},
		{name: "scale too long for a sheet", src: `[{"scale": "updrs_part_three_motor_examination", "field_name": "x"}]`, filename: "s.json"},
		{name: "scale with reserved character", src: `[{"scale": "updrs/total", "field_name": "x"}]`, filename: "s.json"},
		{name: "unsupported method", src: `[{"scale": "a", "field_name": "x", "correlation": ["cosine"]}]`, filename: "s.json"},
		{name: "malformed json", src: `{`, filename: "s.json"},
		{name: "malformed hcl", src: `scale "a" {`, filename: "s.hcl"},
		{name: "hcl missing field", src: `scale "a" {}`, filename: "s.hcl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSettings([]byte(tt.src), tt.filename)
			assert.ErrorIs(t, err, ErrInvalidSettings)
		})
	}
}

func TestAssessCorrelation(t *testing.T) {
	features := mustParse(t, "features", `id,f1,f2,f3
s1,1,1,
s2,2,4,
s3,3,,
s4,4,16,
s5,5,25,7
`)
	clinical := mustParse(t, "clinical", `id,score,other
s5,5,0
s4,4,0
s3,5,0
s2,4,0
s1,2,0
`)

	settings := []Setting{{Scale: "score", FieldName: "score", Correlation: []stats.Method{"PEARSON", stats.Spearman}}}
	tables, err := AssessCorrelation(features, clinical, settings, CorrelationOptions{})
	require.NoError(t, err)
	require.Len(t, tables, 1)

	table := tables[0]
	assert.Equal(t, "score", table.Scale)
	assert.Equal(t, []string{"feature", "n", "r (pearson)", "p (pearson)", "r (spearman)", "p (spearman)"}, table.Header())
	require.Len(t, table.Rows, 3)

	f1 := table.Rows[0]
	assert.Equal(t, "f1", f1.Feature)
	assert.Equal(t, 5, f1.N)
	assert.Equal(t, stats.Pearson, f1.Coefficients[0].Method)
	assert.Equal(t, 0.7746, f1.Coefficients[0].R)
	assert.Equal(t, 0.124, f1.Coefficients[0].P)

	assert.Equal(t, 4, table.Rows[1].N)

	f3 := table.Rows[2]
	assert.Equal(t, 1, f3.N)
	assert.True(t, math.IsNaN(f3.Coefficients[0].R))

	b, err := json.Marshal(f3)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"r":null`)

	t.Run("unknown field", func(t *testing.T) {
		_, err := AssessCorrelation(features, clinical, []Setting{{Scale: "x", FieldName: "nope"}}, CorrelationOptions{})
		assert.ErrorIs(t, err, ErrUnknownField)
	})

	t.Run("index mismatch", func(t *testing.T) {
		short := mustParse(t, "short", "id,score\ns1,1\ns2,2\n")
		_, err := AssessCorrelation(features, short, settings, CorrelationOptions{})
		assert.ErrorIs(t, err, frame.ErrIndexMismatch)
	})
}

func TestCovariateController(t *testing.T) {
	covariates := mustParse(t, "covariates", `id,age,sex
a,50,0
b,60,1
c,55,0
d,70,1
e,65,0
`)
	// f = 1 + 0.5*age + 2*sex + noise
	features := mustParse(t, "features", `id,f,g
a,26.1,3
b,33.0,1
c,28.4,4
d,38.2,1
e,33.3,5
`)

	t.Run("fit transform", func(t *testing.T) {
		var c CovariateController
		out, err := c.FitTransform(features, covariates)
		require.NoError(t, err)
		assert.Equal(t, features.Columns, out.Columns)

		residuals, _ := out.Column("f")
		age, _ := covariates.Column("age")
		sex, _ := covariates.Column("sex")
		var sum, dotAge, dotSex float64
		for i, r := range residuals {
			sum += r
			dotAge += r * age[i]
			dotSex += r * sex[i]
		}
		assert.InDelta(t, 0, sum, 1e-8)
		assert.InDelta(t, 0, dotAge, 1e-6)
		assert.InDelta(t, 0, dotSex, 1e-6)

		orig, _ := features.Column("f")
		assert.Equal(t, 26.1, orig[0], "input must not change without Inline")

		models := c.Models(features.Columns)
		require.Len(t, models, 2)
		assert.Equal(t, "f", models[0].Feature)
		assert.Contains(t, models[0].Coefficients, "age")
		assert.Contains(t, models[0].Coefficients, "sex")
		require.NotNil(t, models[0].RSquared)
		assert.Greater(t, *models[0].RSquared, 0.9)
	})

	t.Run("inline", func(t *testing.T) {
		c := CovariateController{Inline: true}
		in := features.Clone()
		out, err := c.FitTransform(in, covariates)
		require.NoError(t, err)
		assert.Same(t, in, out)
		g, _ := in.Column("g")
		assert.NotEqual(t, 3.0, g[0])
	})

	t.Run("not fitted", func(t *testing.T) {
		var c CovariateController
		_, err := c.Transform(features)
		assert.ErrorIs(t, err, ErrNotFitted)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		var c CovariateController
		require.NoError(t, c.Fit(features, covariates))
		short := mustParse(t, "short", "id,f\na,1\n")
		_, err := c.Transform(short)
		assert.ErrorIs(t, err, ErrShapeMismatch)
	})

	t.Run("unknown feature", func(t *testing.T) {
		var c CovariateController
		sel, err := features.Select("f")
		require.NoError(t, err)
		require.NoError(t, c.Fit(sel, covariates))
		_, err = c.Transform(features)
		assert.ErrorIs(t, err, ErrUnknownField)
	})

	t.Run("missing values", func(t *testing.T) {
		var c CovariateController
		withGap := mustParse(t, "gap", "id,f\na,1\nb,\nc,3\nd,4\ne,5\n")
		err := c.Fit(withGap, covariates)
		assert.ErrorIs(t, err, stats.ErrMissingValues)
	})

	t.Run("inline failure leaves frame untouched", func(t *testing.T) {
		// g has no model, f comes first and would be residualized
		sel, err := features.Select("f")
		require.NoError(t, err)
		c := CovariateController{Inline: true}
		require.NoError(t, c.Fit(sel, covariates))

		in := features.Clone()
		_, err = c.Transform(in)
		assert.ErrorIs(t, err, ErrUnknownField)

		f, _ := in.Column("f")
		assert.Equal(t, []float64{26.1, 33.0, 28.4, 38.2, 33.3}, f)
	})

	t.Run("missing covariate", func(t *testing.T) {
		var c CovariateController
		gappy := mustParse(t, "visits", "id,age\na,50\nb,\nc,55\nd,70\ne,65\n")
		err := c.Fit(features, gappy)
		assert.ErrorIs(t, err, stats.ErrMissingValues)
		assert.ErrorContains(t, err, `"visits"`)
	})
}

func TestExploreMissing(t *testing.T) {
	f := mustParse(t, "d", `id,x,y
r1,1,
r2,,
r3,3,4
r4,4,5
`)
	rep := ExploreMissing(f)
	assert.Equal(t, 4, rep.Rows)
	assert.Equal(t, 2, rep.Columns)
	assert.Equal(t, 8, rep.TotalCells)
	assert.Equal(t, 3, rep.MissingCells)
	assert.InDelta(t, 0.375, rep.MissingRatio, 1e-12)
	assert.True(t, rep.HasMissing())

	assert.Equal(t, MissingCount{Name: "x", Missing: 1, Ratio: 0.25}, rep.ByColumn[0])
	assert.Equal(t, MissingCount{Name: "y", Missing: 2, Ratio: 0.5}, rep.ByColumn[1])
	assert.Equal(t, MissingCount{Name: "r2", Missing: 2, Ratio: 1}, rep.ByRow[1])
	assert.Equal(t, []bool{false, true}, rep.Mask[0])
}

func TestRenderMissing(t *testing.T) {
	f := mustParse(t, "d", "id,x,y\nr1,1,\nr2,,2\n")

	t.Run("svg", func(t *testing.T) {
		out, err := RenderMissing(f, FigureSettings{Width: 4, Height: 4}, "svg")
		require.NoError(t, err)
		assert.Contains(t, string(out), "<svg")
	})

	t.Run("default pdf", func(t *testing.T) {
		out, err := RenderMissing(f, FigureSettings{Width: 4, Height: 4, Colormap: "blues"}, "")
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	})

	t.Run("errors", func(t *testing.T) {
		_, err := RenderMissing(f, FigureSettings{}, "gif")
		assert.ErrorIs(t, err, ErrUnsupportedFormat)

		_, err = RenderMissing(f, FigureSettings{Colormap: "viridis"}, "png")
		assert.ErrorIs(t, err, ErrUnsupportedColormap)

		_, err = RenderMissing(f, FigureSettings{LineColor: "blue"}, "png")
		assert.ErrorIs(t, err, ErrInvalidColor)
	})
}

func TestFigureSettingsDefaults(t *testing.T) {
	s := FigureSettings{Width: 8}.withDefaults()
	assert.Equal(t, 8.0, s.Width)
	assert.Equal(t, 16.0, s.Height)
	assert.Equal(t, "Greys", s.Colormap)
	assert.Equal(t, 0.3, s.LineWidth)
	assert.Equal(t, "#c8d6e5", s.LineColor)
	assert.Equal(t, "Missing values", s.Title)
}

func TestParseHexColor(t *testing.T) {
	c, err := parseHexColor("#c8d6e5")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xc8, G: 0xd6, B: 0xe5, A: 255}, c)

	c, err = parseHexColor("fff")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, c)

	_, err = parseHexColor("#12345")
	assert.ErrorIs(t, err, ErrInvalidColor)
}
