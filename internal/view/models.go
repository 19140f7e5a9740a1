package view

import "html/template"

// DashboardData is the formatted data the dashboard templates render
type DashboardData struct {
	Phase    string       `json:"phase"`
	Query    string       `json:"query"`
	Error    string       `json:"error,omitempty"`
	Current  *CurrentView `json:"current,omitempty"` // nil unless a snapshot is displayed
	Skeleton SkeletonView `json:"skeleton"`
}

// Loading reports whether the skeleton is shown
func (d DashboardData) Loading() bool {
	return d.Phase == "loading"
}

// Failed reports whether the failure card is shown
func (d DashboardData) Failed() bool {
	return d.Phase == "failed"
}

// CurrentView is the formatted current-conditions card
type CurrentView struct {
	Location    string        `json:"location"`
	Temperature string        `json:"temperature"`
	Description string        `json:"description"`
	FeelsLike   string        `json:"feels_like"`
	UVIndex     int           `json:"uv_index"`
	Icon        template.HTML `json:"-"`
	Metrics     []MetricView  `json:"metrics"`
	Hourly      []HourView    `json:"hourly"`
}

// MetricView is one tile of the metrics grid
type MetricView struct {
	Label string        `json:"label"`
	Value string        `json:"value"`
	Icon  template.HTML `json:"-"`
}

// HourView is one entry of the hourly strip
type HourView struct {
	Time        string        `json:"time"`
	Temperature string        `json:"temperature"`
	Icon        template.HTML `json:"-"`
}

// SkeletonView describes the placeholder blocks shown while loading
type SkeletonView struct {
	SmallBlocks []int `json:"small_blocks"`
}

// ShellData is the data of the full page
type ShellData struct {
	Title     string        `json:"title"`
	WSPath    string        `json:"ws_path"`
	Dashboard DashboardData `json:"dashboard"`
}

// skeletonSmallBlocks matches the four tiles of the metrics grid
const skeletonSmallBlocks = 4
