package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"einvoice-assistant-be/pkg/taxonomy"
)

// Point is one aggregated group. Month is set for monthly aggregates only.
type Point struct {
	Label string
	Value float64
	Month *time.Time
}

func (s *Store) aggregate(table string, m taxonomy.Measure) (string, error) {
	switch m.Agg {
	case "count":
		if m.Column == "" {
			return "COUNT(*)", nil
		}
		if err := s.checkColumn(table, m.Column); err != nil {
			return "", err
		}
		return fmt.Sprintf("COUNT(%q)", m.Column), nil
	case "sum", "avg":
		if err := s.checkColumn(table, m.Column); err != nil {
			return "", err
		}
		if m.Agg == "sum" {
			return fmt.Sprintf("SUM(%q)", m.Column), nil
		}
		return fmt.Sprintf("AVG(%q)", m.Column), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAgg, m.Agg)
	}
}

// Monthly aggregates m per calendar month of timeCol, oldest first.
func (s *Store) Monthly(ctx context.Context, table, timeCol string, m taxonomy.Measure) ([]Point, error) {
	if err := s.checkColumn(table, timeCol); err != nil {
		return nil, err
	}
	agg, err := s.aggregate(table, m)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(
		`SELECT strftime('%%Y-%%m', %[1]q) AS month, %[2]s FROM %[3]q
		 WHERE month IS NOT NULL GROUP BY month ORDER BY month`,
		timeCol, agg, table)

	var out []Point
	err = s.query(ctx, q, func(label string, v float64) {
		p := Point{Label: label, Value: v}
		if t, err := time.Parse("2006-01", label); err == nil {
			p.Month = &t
		}
		out = append(out, p)
	})
	return out, err
}

// GroupBy aggregates m per distinct value of catCol, largest first. limit <= 0
// returns every group.
func (s *Store) GroupBy(ctx context.Context, table, catCol string, m taxonomy.Measure, limit int) ([]Point, error) {
	if err := s.checkColumn(table, catCol); err != nil {
		return nil, err
	}
	agg, err := s.aggregate(table, m)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(
		`SELECT %[1]q AS category, %[2]s AS value FROM %[3]q
		 WHERE category IS NOT NULL AND category <> '' GROUP BY category ORDER BY value DESC, category`,
		catCol, agg, table)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	var out []Point
	err = s.query(ctx, q, func(label string, v float64) {
		out = append(out, Point{Label: label, Value: v})
	})
	return out, err
}

func (s *Store) query(ctx context.Context, q string, each func(label string, v float64)) error {
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var label sql.NullString
		var v sql.NullFloat64
		if err := rows.Scan(&label, &v); err != nil {
			return fmt.Errorf("scan aggregate: %w", err)
		}
		if !label.Valid || !v.Valid {
			continue
		}
		each(label.String, v.Float64)
	}
	return rows.Err()
}
