package datastore

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"einvoice-assistant-be/pkg/taxonomy"
)

// WriteCSV writes rec with its header line.
func WriteCSV(w io.Writer, rec Records) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rec.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(rec.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteDir writes data as one CSV per taxonomy table, named after table.File.
func WriteDir(dir string, tx *taxonomy.Taxonomy, data map[string]Records) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	var written []string
	for _, t := range tx.Tables() {
		rec, ok := data[t.ID]
		if !ok {
			continue
		}
		path := filepath.Join(dir, t.File)
		f, err := os.Create(path)
		if err != nil {
			return written, fmt.Errorf("create %s: %w", path, err)
		}
		if err := WriteCSV(f, rec); err != nil {
			f.Close()
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return written, fmt.Errorf("close %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
