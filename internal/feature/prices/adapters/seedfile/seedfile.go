// Package seedfile reads and writes the bundled historical dataset, a JSON
// array of {fecha, cabezas, importe, inmag} objects.
package seedfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cattle_backend/internal/feature/prices/domain/entity"
	"cattle_backend/internal/feature/prices/usecase"
)

// seedRecord is the on-disk shape of one trading day.
type seedRecord struct {
	Fecha   string  `json:"fecha"`
	Cabezas int64   `json:"cabezas"`
	Importe float64 `json:"importe"`
	Inmag   float64 `json:"inmag"`
}

// File is a SeedSource backed by a JSON file on disk.
type File struct {
	Path string
}

// FileがSeedSourceを実装していることをコンパイル時に検証します。
var _ usecase.SeedSource = (*File)(nil)

// New returns a File for path.
func New(path string) *File {
	return &File{Path: path}
}

// Load reads the dataset. A missing file is reported as usecase.ErrNoSeedData
// so that startup falls back to scraping.
func (f *File) Load() ([]entity.PriceRecord, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, usecase.ErrNoSeedData
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file '%s': %w", f.Path, err)
	}
	return Decode(data)
}

// Decode parses a dataset held in memory.
func Decode(data []byte) ([]entity.PriceRecord, error) {
	var rows []seedRecord
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse seed data: %w", err)
	}
	records := make([]entity.PriceRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, entity.PriceRecord{
			Date:        r.Fecha,
			HeadCount:   r.Cabezas,
			TotalAmount: r.Importe,
			Index:       r.Inmag,
		})
	}
	return records, nil
}

// Write stores records as an indented JSON array, creating parent
// directories as needed. The file is replaced atomically.
func Write(path string, records []entity.PriceRecord) error {
	rows := make([]seedRecord, 0, len(records))
	for _, r := range records {
		rows = append(rows, seedRecord{
			Fecha:   r.Date,
			Cabezas: r.HeadCount,
			Importe: r.TotalAmount,
			Inmag:   r.Index,
		})
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create seed dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write seed file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace seed file: %w", err)
	}
	return nil
}
