// Package icons resolves a topic's symbolic icon name to the glyph the
// terminal UI draws for it.
package icons

import "sort"

// DefaultName is the icon used for topics that do not pick one.
const DefaultName = "Square3Stack3DIcon"

// Glyph is a renderable icon.
type Glyph struct {
	Name   string
	Symbol string
}

var glyphs = map[string]Glyph{
	"Square3Stack3DIcon":  {Name: "Square3Stack3DIcon", Symbol: "▤"},
	"DocumentTextIcon":    {Name: "DocumentTextIcon", Symbol: "▥"},
	"LinkIcon":            {Name: "LinkIcon", Symbol: "∞"},
	"ChartBarIcon":        {Name: "ChartBarIcon", Symbol: "▇"},
	"ShareIcon":           {Name: "ShareIcon", Symbol: "⋔"},
	"CpuChipIcon":         {Name: "CpuChipIcon", Symbol: "▣"},
	"SparklesIcon":        {Name: "SparklesIcon", Symbol: "✦"},
	"CursorArrowRaysIcon": {Name: "CursorArrowRaysIcon", Symbol: "➚"},
	"TrophyIcon":          {Name: "TrophyIcon", Symbol: "♛"},
}

// Resolve returns the glyph for name, or the default glyph when name is
// empty or unknown.
func Resolve(name string) Glyph {
	if g, ok := glyphs[name]; ok {
		return g
	}
	return glyphs[DefaultName]
}

// Known reports whether name is a registered icon.
func Known(name string) bool {
	_, ok := glyphs[name]
	return ok
}

// Names returns every registered icon name, sorted.
func Names() []string {
	out := make([]string, 0, len(glyphs))
	for name := range glyphs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
