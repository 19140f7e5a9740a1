package view

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/yegors/wxdash/internal/dashboard"
	"github.com/yegors/wxdash/internal/weather"
)

// FormatTemperature formats whole degrees, e.g. "22°"
func FormatTemperature(degrees int) string {
	return fmt.Sprintf("%d°", degrees)
}

// FormatPercent formats a relative humidity, e.g. "65%"
func FormatPercent(value int) string {
	return fmt.Sprintf("%d%%", value)
}

// FormatSpeed formats a wind speed, e.g. "12 km/h"
func FormatSpeed(kmh int) string {
	return fmt.Sprintf("%d km/h", kmh)
}

// FormatDistance formats a visibility, e.g. "10 km"
func FormatDistance(km int) string {
	return fmt.Sprintf("%d km", km)
}

// FormatPressure formats a barometric pressure, e.g. "1013 mb"
func FormatPressure(mb int) string {
	return fmt.Sprintf("%d mb", mb)
}

// FormatFeelsLike formats the apparent temperature line
func FormatFeelsLike(degrees int) string {
	return "Feels like " + FormatTemperature(degrees)
}

// FormatDashboardData converts a dashboard state into template data
func FormatDashboardData(state dashboard.State) DashboardData {
	data := DashboardData{
		Phase:    string(state.Phase),
		Query:    state.Query,
		Error:    state.Err,
		Skeleton: SkeletonView{SmallBlocks: make([]int, skeletonSmallBlocks)},
	}

	// The snapshot is hidden while loading, even when one was shown before
	if state.Phase == dashboard.PhaseReady && state.Snapshot != nil {
		data.Current = FormatSnapshot(state.Snapshot)
	}

	return data
}

// FormatSnapshot formats a weather snapshot for the current-conditions card
func FormatSnapshot(s *weather.Snapshot) *CurrentView {
	current := &CurrentView{
		Location:    s.Location,
		Temperature: FormatTemperature(s.Temperature),
		Description: s.Description,
		FeelsLike:   FormatFeelsLike(s.FeelsLike),
		UVIndex:     s.UVIndex,
		Icon:        ConditionIcon(string(s.Condition), SizeLarge),
		Metrics: []MetricView{
			{Label: "Humidity", Value: FormatPercent(s.Humidity), Icon: GlyphIcon(GlyphDroplets, SizeCompact)},
			{Label: "Wind", Value: FormatSpeed(s.WindSpeed), Icon: GlyphIcon(GlyphWind, SizeCompact)},
			{Label: "Visibility", Value: FormatDistance(s.Visibility), Icon: GlyphIcon(GlyphEye, SizeCompact)},
			{Label: "Pressure", Value: FormatPressure(s.Pressure), Icon: GlyphIcon(GlyphGauge, SizeCompact)},
		},
	}

	if current.Description == "" {
		current.Description = describeCondition(string(s.Condition))
	}

	current.Hourly = make([]HourView, 0, len(s.HourlyForecast))
	for _, h := range s.HourlyForecast {
		current.Hourly = append(current.Hourly, HourView{
			Time:        h.Time,
			Temperature: FormatTemperature(h.Temp),
			Icon:        ConditionIcon(string(h.Condition), SizeCompact),
		})
	}

	return current
}

// describeCondition turns a tag like "partly-cloudy" into "Partly Cloudy"
func describeCondition(condition string) string {
	words := strings.Split(condition, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// templateFuncs are available to every template
var templateFuncs = template.FuncMap{
	"glyph": func(name string) template.HTML {
		return GlyphIcon(Glyph(name), SizeCompact)
	},
}
