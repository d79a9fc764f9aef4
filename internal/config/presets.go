package config

import (
	"fmt"
	"sort"
)

// Preset is a named saturation/brightness floor for the red ranges.
type Preset struct {
	S int
	V int
}

// Presets maps preset names to their S/V floors, from strictest to loosest.
var Presets = map[string]Preset{
	"very-strict":     {150, 150},
	"strict":          {120, 120},
	"medium":          {80, 80},
	"permissive":      {50, 50},
	"very-permissive": {20, 20},
}

// PresetNames returns the preset names sorted by decreasing strictness.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return Presets[names[i]].S > Presets[names[j]].S
	})
	return names
}

// WithPreset returns a copy using the named preset.
func (c Config) WithPreset(name string) (Config, error) {
	p, ok := Presets[name]
	if !ok {
		return c, fmt.Errorf("unknown preset %q", name)
	}
	return c.WithSaturationValue(p.S, p.V), nil
}

// Level describes how permissive an S/V floor is.
func Level(s, v int) string {
	avg := float64(s+v) / 2
	switch {
	case avg <= 30:
		return "very permissive (almost any reddish tone)"
	case avg <= 70:
		return "permissive (most reds)"
	case avg <= 110:
		return "medium (balanced)"
	case avg <= 140:
		return "strict (intense reds only)"
	default:
		return "very strict (pure reds only)"
	}
}
