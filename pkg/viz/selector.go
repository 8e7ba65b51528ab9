// Package viz picks a chart family from the shape of a question and fills
// its series from the data store.
package viz

import (
	"context"
	"fmt"

	"einvoice-assistant-be/internal/pkg/logger"
	"einvoice-assistant-be/pkg/datastore"
	"einvoice-assistant-be/pkg/lang"
	"einvoice-assistant-be/pkg/store"
	"einvoice-assistant-be/pkg/taxonomy"
)

const (
	module   = "viz"
	maxBars  = 10
	maxSlice = 10
)

// Source is the read side of the data store used for charts.
type Source interface {
	Monthly(ctx context.Context, table, timeCol string, m taxonomy.Measure) ([]datastore.Point, error)
	GroupBy(ctx context.Context, table, catCol string, m taxonomy.Measure, limit int) ([]datastore.Point, error)
}

type Selector struct {
	tx     *taxonomy.Taxonomy
	data   Source
	logger logger.ILogger
}

func NewSelector(tx *taxonomy.Taxonomy, data Source, l logger.ILogger) *Selector {
	return &Selector{tx: tx, data: data, logger: l}
}

// Select returns the chart for an answered question, or nil when the
// question has no chart shape or the data cannot fill one.
func (s *Selector) Select(ctx context.Context, query string, c store.Candidate, code lang.Code) *store.VisualizationSpec {
	text := lang.Prepare(query)
	family := FamilyOf(text)
	if family == store.ChartNone {
		return nil
	}

	t, ok := s.tx.Table(c.TableID)
	if !ok {
		return nil
	}
	code = code.OrDefault()

	var (
		spec *store.VisualizationSpec
		err  error
	)
	switch family {
	case store.ChartTimeSeries:
		spec, err = s.timeSeries(ctx, t, c.DomainID, code)
	case store.ChartBar:
		spec, err = s.grouped(ctx, t, c.DomainID, s.category(t, c.DomainID, text), measureOf(t, c.DomainID), maxBars, code, store.ChartBar)
	case store.ChartPie:
		spec, err = s.grouped(ctx, t, c.DomainID, s.category(t, c.DomainID, text), countOf(t), maxSlice, code, store.ChartPie)
	case store.ChartGeo:
		spec, err = s.geo(ctx, t, c.DomainID, code)
	}
	if err != nil {
		s.logger.Warn(module, "Chart data unavailable", map[string]interface{}{
			"table":  t.ID,
			"domain": c.DomainID,
			"family": family,
			"error":  err.Error(),
		})
		return nil
	}
	if spec == nil || len(spec.Series) == 0 {
		return nil
	}
	spec.Language = code
	return spec
}

func measureOf(t *taxonomy.Table, domainID string) taxonomy.Measure {
	if m, ok := t.Columns.ValueFor(domainID); ok {
		return m
	}
	return taxonomy.Measure{Agg: "count", Label: recordCount}
}

func countOf(t *taxonomy.Table) taxonomy.Measure {
	return taxonomy.Measure{Agg: "count", Label: t.Names}
}

// category groups by region when the question asks about places and the
// table has a region column.
func (s *Selector) category(t *taxonomy.Table, domainID string, text lang.Text) string {
	if t.Columns.Region != "" {
		if _, ok := text.HasAny(keywords[store.ChartGeo]); ok {
			return t.Columns.Region
		}
	}
	return t.Columns.CategoryFor(domainID)
}

func (s *Selector) timeSeries(ctx context.Context, t *taxonomy.Table, domainID string, code lang.Code) (*store.VisualizationSpec, error) {
	if t.Columns.Time == "" {
		return nil, fmt.Errorf("table %s has no time column", t.ID)
	}
	m := measureOf(t, domainID)
	points, err := s.data.Monthly(ctx, t.ID, t.Columns.Time, m)
	if err != nil {
		return nil, err
	}

	series := make([]store.SeriesPoint, 0, len(points))
	for _, p := range points {
		if p.Month == nil {
			continue
		}
		month := *p.Month
		series = append(series, store.SeriesPoint{Label: p.Label, Value: p.Value, Timestamp: &month})
	}
	return &store.VisualizationSpec{
		ChartFamily: store.ChartTimeSeries,
		Series:      series,
		Title:       fmt.Sprintf(titles.perMonth.in(code), m.Label.In(code)),
	}, nil
}

func (s *Selector) grouped(ctx context.Context, t *taxonomy.Table, domainID, col string, m taxonomy.Measure, limit int, code lang.Code, family store.ChartFamily) (*store.VisualizationSpec, error) {
	if col == "" {
		return nil, fmt.Errorf("table %s has no category column for %s", t.ID, domainID)
	}
	points, err := s.data.GroupBy(ctx, t.ID, col, m, limit)
	if err != nil {
		return nil, err
	}

	regional := col == t.Columns.Region
	series := make([]store.SeriesPoint, 0, len(points))
	for _, p := range points {
		label := p.Label
		if regional {
			label = EmirateName(label, code)
		}
		series = append(series, store.SeriesPoint{Label: label, Value: p.Value})
	}

	title := fmt.Sprintf(titles.by.in(code), m.Label.In(code), ColumnLabel(col, code))
	if family == store.ChartPie {
		title = fmt.Sprintf(titles.distribution.in(code), t.Names.In(code), ColumnLabel(col, code))
	}
	return &store.VisualizationSpec{ChartFamily: family, Series: series, Title: title}, nil
}

func (s *Selector) geo(ctx context.Context, t *taxonomy.Table, domainID string, code lang.Code) (*store.VisualizationSpec, error) {
	if t.Columns.Region == "" {
		return nil, fmt.Errorf("table %s has no region column", t.ID)
	}
	m := measureOf(t, domainID)
	points, err := s.data.GroupBy(ctx, t.ID, t.Columns.Region, m, 0)
	if err != nil {
		return nil, err
	}

	series := make([]store.SeriesPoint, 0, len(points))
	for _, p := range points {
		iso, ok := RegionCode(p.Label)
		if !ok {
			continue
		}
		series = append(series, store.SeriesPoint{Label: EmirateName(p.Label, code), Value: p.Value, RegionCode: iso})
	}
	return &store.VisualizationSpec{
		ChartFamily: store.ChartGeo,
		Series:      series,
		Title:       fmt.Sprintf(titles.byEmirate.in(code), m.Label.In(code)),
	}, nil
}
