package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"workbench/internal/stats"
)

var ErrInvalidSettings = errors.New("invalid correlation settings")

// DefaultMethod is used when a setting lists no correlation methods.
const DefaultMethod = stats.Spearman

// Scale names become workbook sheet names and follow the same rules.
const (
	maxScaleName       = 31
	reservedScaleChars = `:\/?*[]`
)

// Setting selects one field of the second table to correlate every feature with.
type Setting struct {
	Scale       string         `json:"scale"`
	FieldName   string         `json:"field_name"`
	Correlation []stats.Method `json:"correlation"`
}

type hclSettingsFile struct {
	Scales []*hclScale `hcl:"scale,block"`
}

type hclScale struct {
	Name        string   `hcl:"name,label"`
	FieldName   string   `hcl:"field_name"`
	Correlation []string `hcl:"correlation,optional"`
}

type jsonSetting struct {
	Scale       string   `json:"scale"`
	FieldName   string   `json:"field_name"`
	Correlation []string `json:"correlation"`
}

// ParseSettings decodes correlation settings. Files ending in .hcl use
// `scale "<name>" { field_name = "...", correlation = [...] }` blocks;
// anything else is read as a JSON array.
func ParseSettings(src []byte, filename string) ([]Setting, error) {
	var raw []jsonSetting

	if strings.EqualFold(filepath.Ext(filename), ".hcl") {
		parser := hclparse.NewParser()
		file, diags := parser.ParseHCL(src, filename)
		if diags.HasErrors() {
			return nil, fmt.Errorf("%w: parse %s: %s", ErrInvalidSettings, filename, diags.Error())
		}
		var parsed hclSettingsFile
		if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
			return nil, fmt.Errorf("%w: decode %s: %s", ErrInvalidSettings, filename, diags.Error())
		}
		for _, s := range parsed.Scales {
			raw = append(raw, jsonSetting{Scale: s.Name, FieldName: s.FieldName, Correlation: s.Correlation})
		}
	} else {
		if err := json.Unmarshal(src, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
		}
	}

	out := make([]Setting, 0, len(raw))
	for _, r := range raw {
		s := Setting{Scale: r.Scale, FieldName: r.FieldName}
		for _, name := range r.Correlation {
			s.Correlation = append(s.Correlation, stats.Method(name))
		}
		out = append(out, s)
	}
	return NormalizeSettings(out)
}

// NormalizeSettings checks required fields, methods and scale uniqueness, and
// returns a copy with canonical method names.
func NormalizeSettings(settings []Setting) ([]Setting, error) {
	if len(settings) == 0 {
		return nil, fmt.Errorf("%w: no scales", ErrInvalidSettings)
	}
	out := make([]Setting, len(settings))
	seen := make(map[string]bool, len(settings))
	for i, s := range settings {
		if strings.TrimSpace(s.Scale) == "" {
			return nil, fmt.Errorf("%w: setting %d: scale is required", ErrInvalidSettings, i)
		}
		if strings.TrimSpace(s.FieldName) == "" {
			return nil, fmt.Errorf("%w: scale %q: field_name is required", ErrInvalidSettings, s.Scale)
		}
		if len([]rune(s.Scale)) > maxScaleName {
			return nil, fmt.Errorf("%w: scale %q is longer than %d characters", ErrInvalidSettings, s.Scale, maxScaleName)
		}
		if strings.ContainsAny(s.Scale, reservedScaleChars) {
			return nil, fmt.Errorf("%w: scale %q contains one of %s", ErrInvalidSettings, s.Scale, reservedScaleChars)
		}
		key := strings.ToLower(s.Scale)
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate scale %q", ErrInvalidSettings, s.Scale)
		}
		seen[key] = true

		n := Setting{Scale: s.Scale, FieldName: s.FieldName}
		for _, m := range s.Correlation {
			canonical, err := stats.ParseMethod(string(m))
			if err != nil {
				return nil, fmt.Errorf("%w: scale %q: %v", ErrInvalidSettings, s.Scale, err)
			}
			n.Correlation = append(n.Correlation, canonical)
		}
		out[i] = n
	}
	return out, nil
}

func (s Setting) methods() []stats.Method {
	if len(s.Correlation) == 0 {
		return []stats.Method{DefaultMethod}
	}
	return s.Correlation
}
