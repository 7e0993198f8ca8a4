// Package parquet exports score history to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/anicka-net/ossuary/schema"
	"github.com/parquet-go/parquet-go"
)

// ScoreHistoryRecord is one score_history row in its export shape.
type ScoreHistoryRecord struct {
	// Ecosystem is the package ecosystem literal
	Ecosystem string `parquet:"ecosystem,snappy"`

	// Name is the package name within the ecosystem
	Name string `parquet:"name,snappy"`

	// Score is the final governance risk score (0-100)
	Score int32 `parquet:"score,snappy"`

	// ComputedAt is when this score was computed
	ComputedAt time.Time `parquet:"computed_at,snappy"`
}

// FromHistory converts store rows into export records.
func FromHistory(rows []schema.HistoryRow) []ScoreHistoryRecord {
	out := make([]ScoreHistoryRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, ScoreHistoryRecord{
			Ecosystem:  string(r.Ecosystem),
			Name:       r.Name,
			Score:      int32(r.Score),
			ComputedAt: r.ComputedAt,
		})
	}
	return out
}

// WriteScoreHistoryParquet writes records to a Parquet file at outputPath.
func WriteScoreHistoryParquet(records []ScoreHistoryRecord, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Schema is inferred from the struct tags.
	writer := parquet.NewGenericWriter[ScoreHistoryRecord](file)
	if _, err := writer.Write(records); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write parquet data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ReadScoreHistoryParquet reads records back, mostly for verification and
// tests.
func ReadScoreHistoryParquet(path string) ([]ScoreHistoryRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[ScoreHistoryRecord](file)
	defer func() { _ = reader.Close() }()

	if reader.NumRows() == 0 {
		return nil, nil
	}
	records := make([]ScoreHistoryRecord, reader.NumRows())
	n, err := reader.Read(records)
	if err != nil && n == 0 {
		return nil, err
	}
	return records[:n], nil
}
