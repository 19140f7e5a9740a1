package view

import (
	"fmt"
	"html/template"

	"github.com/yegors/wxdash/internal/weather"
)

// Size selects the visual scale of an icon. Sizes never change which glyph is shown.
type Size string

const (
	SizeCompact Size = "sm"
	SizeLarge   Size = "lg"
)

// Glyph names a drawable icon
type Glyph string

const (
	GlyphSun       Glyph = "sun"
	GlyphCloud     Glyph = "cloud"
	GlyphCloudRain Glyph = "cloud-rain"
	GlyphCloudSnow Glyph = "cloud-snow"
	GlyphZap       Glyph = "zap"
	GlyphDroplets  Glyph = "droplets"
	GlyphWind      Glyph = "wind"
	GlyphEye       Glyph = "eye"
	GlyphGauge     Glyph = "gauge"
	GlyphMapPin    Glyph = "map-pin"
	GlyphSearch    Glyph = "search"
)

var conditionGlyphs = map[weather.Condition]Glyph{
	weather.ConditionSunny:        GlyphSun,
	weather.ConditionPartlyCloudy: GlyphCloud,
	weather.ConditionCloudy:       GlyphCloud,
	weather.ConditionRainy:        GlyphCloudRain,
	weather.ConditionSnowy:        GlyphCloudSnow,
	weather.ConditionStormy:       GlyphZap,
}

// GlyphFor maps a condition tag to its glyph.
// Any tag outside the known set is drawn with the sunny glyph.
func GlyphFor(condition string) Glyph {
	if g, ok := conditionGlyphs[weather.Condition(condition)]; ok {
		return g
	}
	return conditionGlyphs[weather.ConditionSunny]
}

// ConditionIcon renders the glyph for a condition tag at the given size
func ConditionIcon(condition string, size Size) template.HTML {
	return GlyphIcon(GlyphFor(condition), size)
}

// GlyphIcon renders a glyph as inline SVG
func GlyphIcon(g Glyph, size Size) template.HTML {
	body, ok := glyphPaths[g]
	if !ok {
		body = glyphPaths[GlyphSun]
	}
	if size != SizeLarge {
		size = SizeCompact
	}
	return template.HTML(fmt.Sprintf(
		`<svg class="icon icon-%s icon-%s" xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round" aria-hidden="true">%s</svg>`,
		size, g, body))
}

var glyphPaths = map[Glyph]string{
	GlyphSun:       `<circle cx="12" cy="12" r="4"/><path d="M12 2v2M12 20v2M4.93 4.93l1.41 1.41M17.66 17.66l1.41 1.41M2 12h2M20 12h2M6.34 17.66l-1.41 1.41M19.07 4.93l-1.41 1.41"/>`,
	GlyphCloud:     `<path d="M17.5 19H9a7 7 0 1 1 6.71-9h1.79a4.5 4.5 0 1 1 0 9Z"/>`,
	GlyphCloudRain: `<path d="M4 14.899A7 7 0 1 1 15.71 8h1.79a4.5 4.5 0 0 1 2.5 8.242"/><path d="M16 14v6M8 14v6M12 16v6"/>`,
	GlyphCloudSnow: `<path d="M4 14.899A7 7 0 1 1 15.71 8h1.79a4.5 4.5 0 0 1 2.5 8.242"/><path d="M8 15h.01M8 19h.01M12 17h.01M12 21h.01M16 15h.01M16 19h.01"/>`,
	GlyphZap:       `<path d="M13 2 3 14h9l-1 8 10-12h-9l1-8z"/>`,
	GlyphDroplets:  `<path d="M7 16.3c2.2 0 4-1.83 4-4.05 0-1.16-.57-2.26-1.71-3.19S7.29 6.75 7 5.3c-.29 1.45-1.14 2.84-2.29 3.76S3 11.1 3 12.25c0 2.22 1.8 4.05 4 4.05z"/>`,
	GlyphWind:      `<path d="M17.7 7.7a2.5 2.5 0 1 1 1.8 4.3H2M9.6 4.6A2 2 0 1 1 11 8H2M12.6 19.4A2 2 0 1 0 14 16H2"/>`,
	GlyphEye:       `<path d="M2 12s3-7 10-7 10 7 10 7-3 7-10 7-10-7-10-7Z"/><circle cx="12" cy="12" r="3"/>`,
	GlyphGauge:     `<path d="m12 14 4-4"/><path d="M3.34 19a10 10 0 1 1 17.32 0"/>`,
	GlyphMapPin:    `<path d="M20 10c0 6-8 12-8 12s-8-6-8-12a8 8 0 0 1 16 0Z"/><circle cx="12" cy="10" r="3"/>`,
	GlyphSearch:    `<circle cx="11" cy="11" r="8"/><path d="m21 21-4.3-4.3"/>`,
}
