package main

import (
	"log"

	"einvoice-assistant-be/internal/config"
	"einvoice-assistant-be/pkg/datastore"
	"einvoice-assistant-be/pkg/taxonomy"
)

// Writes the deterministic synthetic data set as CSV files into DATA_DIR, so
// a deployment without real exports still has files to inspect and edit.
func main() {
	cfg := config.Load()

	tx, err := taxonomy.Default()
	if err != nil {
		log.Fatal("Error: Failed to load taxonomy:", err)
	}

	log.Printf("Seeding synthetic e-invoice data (seed %d) into %s...", cfg.Data.SyntheticSeed, cfg.Data.Dir)

	files, err := datastore.WriteDir(cfg.Data.Dir, tx, datastore.Synthetic(cfg.Data.SyntheticSeed))
	if err != nil {
		log.Fatal("Error: Failed to write data:", err)
	}
	for _, f := range files {
		log.Printf("Wrote %s", f)
	}
	log.Println("Seeding completed successfully!")
}
