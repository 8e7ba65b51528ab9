package store

import (
	"time"

	"einvoice-assistant-be/pkg/lang"
)

// ChartFamily is the structural kind of chart, independent of any renderer.
type ChartFamily string

const (
	ChartTimeSeries ChartFamily = "time_series"
	ChartBar        ChartFamily = "bar"
	ChartPie        ChartFamily = "pie"
	ChartGeo        ChartFamily = "geo"
	ChartNone       ChartFamily = "none"
)

// SeriesPoint carries a timestamp only in time_series specs and a region code
// only in geo specs.
type SeriesPoint struct {
	Label      string     `json:"label"`
	Value      float64    `json:"value"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	RegionCode string     `json:"region_code,omitempty"`
}

type VisualizationSpec struct {
	ChartFamily ChartFamily   `json:"chart_family"`
	Series      []SeriesPoint `json:"series"`
	Title       string        `json:"title"`
	Language    lang.Code     `json:"language"`
}
