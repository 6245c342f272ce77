package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"customer-ltv/models"
)

// CSVWriter writes both result tables of a run to CSV files in a directory.
// It is safe for concurrent use.
type CSVWriter struct {
	mu  sync.Mutex
	dir string
}

// NewCSVWriter prepares the output directory, creating it if necessary.
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{dir: dir}, nil
}

// Write saves the segmented RFM table to rfm_segments.csv and the LTV table
// to customer_ltv.csv, truncating any previous run's files.
func (c *CSVWriter) Write(result *models.PipelineResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rfmRows := make([][]string, 0, len(result.RFM))
	for _, r := range result.RFM {
		rfmRows = append(rfmRows, []string{
			r.CustomerID,
			strconv.Itoa(r.Recency),
			strconv.Itoa(r.Frequency),
			strconv.FormatFloat(r.Monetary, 'f', 2, 64),
			strconv.Itoa(r.Segment),
		})
	}
	if err := c.writeFile("rfm_segments.csv",
		[]string{"customer_id", "recency", "frequency", "monetary", "segment"}, rfmRows); err != nil {
		return err
	}

	ltvRows := make([][]string, 0, len(result.LTV))
	for _, r := range result.LTV {
		ltvRows = append(ltvRows, []string{
			r.CustomerID,
			strconv.FormatFloat(r.AvgOrderValue, 'f', 2, 64),
			strconv.Itoa(r.OrderCount),
			strconv.FormatFloat(r.LTV, 'f', 2, 64),
			strconv.FormatFloat(r.PredictedLTV, 'f', 2, 64),
		})
	}
	return c.writeFile("customer_ltv.csv",
		[]string{"customer_id", "avg_order_value", "order_count", "ltv", "predicted_ltv"}, ltvRows)
}

func (c *CSVWriter) writeFile(name string, header []string, rows [][]string) error {
	path := filepath.Join(c.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// Close is a no-op; files are opened and closed per Write.
func (c *CSVWriter) Close() error { return nil }
