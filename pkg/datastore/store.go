// Package datastore holds the e-invoice tables in an in-memory SQLite
// database. Tables are loaded once at startup from CSV files, or generated
// when no file exists, and are read-only afterwards.
package datastore

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"einvoice-assistant-be/internal/pkg/logger"
	"einvoice-assistant-be/pkg/taxonomy"

	_ "modernc.org/sqlite"
)

const module = "datastore"

var (
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
	ErrUnknownAgg    = errors.New("unknown aggregation")
)

// Records is a CSV-shaped batch of rows.
type Records struct {
	Header []string
	Rows   [][]string
}

type Store struct {
	db     *sql.DB
	logger logger.ILogger
	counts map[string]int
}

// Open creates the empty schema. Every table in Schema exists afterwards,
// even when nothing is loaded into it.
func Open(ctx context.Context, l logger.ILogger) (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	for table := range Schema {
		if _, err := db.ExecContext(ctx, createStatement(table)); err != nil {
			db.Close()
			return nil, fmt.Errorf("create table %s: %w", table, err)
		}
	}
	return &Store{db: db, logger: l, counts: make(map[string]int)}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Load fills every taxonomy table from dir/<table.File>. Tables whose file is
// missing are filled from Synthetic(seed).
func (s *Store) Load(ctx context.Context, tx *taxonomy.Taxonomy, dir string, seed uint64) error {
	var synthetic map[string]Records
	for _, t := range tx.Tables() {
		if _, ok := Schema[t.ID]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownTable, t.ID)
		}

		path := filepath.Join(dir, t.File)
		f, err := os.Open(path)
		switch {
		case err == nil:
			n, err := s.LoadCSV(ctx, t.ID, f)
			f.Close()
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			s.logger.Info(module, "Table loaded from CSV", map[string]interface{}{"table": t.ID, "path": path, "rows": n})
		case errors.Is(err, os.ErrNotExist):
			if synthetic == nil {
				synthetic = Synthetic(seed)
			}
			n, err := s.Insert(ctx, t.ID, synthetic[t.ID])
			if err != nil {
				return fmt.Errorf("seed %s: %w", t.ID, err)
			}
			s.logger.Warn(module, "CSV not found, using synthetic data", map[string]interface{}{"table": t.ID, "path": path, "rows": n})
		default:
			return fmt.Errorf("open %s: %w", path, err)
		}
	}
	return nil
}

// LoadCSV inserts the rows of a CSV stream with a header line.
func (s *Store) LoadCSV(ctx context.Context, table string, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	all, err := cr.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("read csv: %w", err)
	}
	if len(all) == 0 {
		return 0, nil
	}
	header := make([]string, len(all[0]))
	for i, h := range all[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return s.Insert(ctx, table, Records{Header: header, Rows: all[1:]})
}

// Insert adds rows in one transaction. Header names are matched against the
// table schema; unknown columns are dropped and missing ones stored as NULL.
func (s *Store) Insert(ctx context.Context, table string, rec Records) (int, error) {
	cols, ok := Schema[table]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}

	pos := make(map[string]int, len(rec.Header))
	for i, h := range rec.Header {
		pos[h] = i
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, insertStatement(table))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	invalid := 0
	args := make([]any, len(cols))
	for _, row := range rec.Rows {
		for i, c := range cols {
			j, ok := pos[c.Name]
			if !ok || j >= len(row) {
				args[i] = nil
				continue
			}
			v, ok := convert(row[j], c.Kind)
			if !ok {
				invalid++
			}
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	if invalid > 0 {
		s.logger.Warn(module, "Unparseable values stored as NULL", map[string]interface{}{"table": table, "values": invalid})
	}
	s.counts[table] += len(rec.Rows)
	return len(rec.Rows), nil
}

// convert maps a CSV cell to its storage value. Empty cells are NULL.
func convert(raw string, kind Kind) (any, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	switch kind {
	case KindReal:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	case KindInt:
		switch strings.ToLower(raw) {
		case "true", "yes":
			return int64(1), true
		case "false", "no":
			return int64(0), true
		}
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return int64(f), true
		}
		return nil, false
	default:
		return raw, true
	}
}

// Count returns the number of rows loaded into table.
func (s *Store) Count(table string) int {
	return s.counts[table]
}

// HasColumn reports whether table has col.
func (s *Store) HasColumn(table, col string) bool {
	for _, c := range Schema[table] {
		if c.Name == col {
			return true
		}
	}
	return false
}

func (s *Store) checkColumn(table, col string) error {
	if _, ok := Schema[table]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	if !s.HasColumn(table, col) {
		return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, col)
	}
	return nil
}

// Sample returns the first n rows of table, one map per row.
func (s *Store) Sample(ctx context.Context, table string, n int) ([]map[string]any, error) {
	if _, ok := Schema[table]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	names := columnNames(table)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %q LIMIT ?", table), n)
	if err != nil {
		return nil, fmt.Errorf("sample %s: %w", table, err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			row[name] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
