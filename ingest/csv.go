package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"

	"customer-ltv/models"
	"customer-ltv/utils"
)

// requiredColumns are the input columns the pipeline cannot run without.
var requiredColumns = []string{"CustomerID", "InvoiceNo", "InvoiceDate", "Quantity", "UnitPrice"}

// CSVLoader reads raw transaction rows from a delimited file. Extra columns
// in the file are ignored; the required ones are located by header name.
type CSVLoader struct {
	path   string
	logger *utils.Logger
}

// NewCSVLoader creates a loader for the file at path.
func NewCSVLoader(path string, logger *utils.Logger) *CSVLoader {
	return &CSVLoader{path: path, logger: logger}
}

// Load reads the whole file into raw transaction rows. It fails with
// SchemaError when a required column is absent from the header and with
// ParseError when the file itself cannot be read as CSV.
func (l *CSVLoader) Load() ([]*models.RawTransaction, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", l.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, &models.ParseError{Source: "csv header", Err: err}
	}

	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, &models.ParseError{Source: "csv body", Err: err}
	}

	l.logger.Info("[ingest] Reading %d rows from %s", len(records), l.path)
	bar := progressbar.Default(int64(len(records)))

	rows := make([]*models.RawTransaction, 0, len(records))
	for _, rec := range records {
		rows = append(rows, &models.RawTransaction{
			CustomerID:  field(rec, cols["CustomerID"]),
			InvoiceNo:   field(rec, cols["InvoiceNo"]),
			InvoiceDate: field(rec, cols["InvoiceDate"]),
			Quantity:    field(rec, cols["Quantity"]),
			UnitPrice:   field(rec, cols["UnitPrice"]),
		})
		_ = bar.Add(1)
	}

	return rows, nil
}

// columnIndex maps each required column name to its position in the header.
func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		index[name] = i
	}

	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, &models.SchemaError{Column: col}
		}
	}
	return index, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
