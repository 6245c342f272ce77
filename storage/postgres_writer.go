package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"customer-ltv/models"
	"customer-ltv/utils"
)

const insertBatchSize = 50

// PostgresWriter persists the current run's result tables to PostgreSQL.
// Old rows are cleared before each write; no run history is kept.
type PostgresWriter struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, Logger: logger}
	if err := retry.Do("postgres ping", db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db, logger: logger}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS customer_rfm (
			customer_id TEXT          PRIMARY KEY,
			recency     INTEGER       NOT NULL,
			frequency   INTEGER       NOT NULL,
			monetary    NUMERIC(14,2) NOT NULL,
			segment     INTEGER       NOT NULL,
			created_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS customer_ltv (
			customer_id     TEXT          PRIMARY KEY,
			avg_order_value NUMERIC(14,2) NOT NULL,
			order_count     INTEGER       NOT NULL,
			ltv             NUMERIC(14,2) NOT NULL,
			predicted_ltv   NUMERIC(14,2) NOT NULL,
			created_at      TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_customer_rfm_segment   ON customer_rfm(segment);
		CREATE INDEX IF NOT EXISTS idx_customer_rfm_monetary  ON customer_rfm(monetary);
		CREATE INDEX IF NOT EXISTS idx_customer_ltv_predicted ON customer_ltv(predicted_ltv);
	`)
	return err
}

// Clear deletes both result tables.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM customer_rfm; DELETE FROM customer_ltv")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write batch-inserts both tables, clearing the previous run first. Batches
// for the two tables run through a small worker pool.
func (pw *PostgresWriter) Write(result *models.PipelineResult) error {
	if len(result.RFM) == 0 && len(result.LTV) == 0 {
		return nil
	}

	if err := pw.Clear(); err != nil {
		return err
	}

	pool := utils.NewWorkerPool(4, 0)
	var (
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for i := 0; i < len(result.RFM); i += insertBatchSize {
		batch := result.RFM[i:min(i+insertBatchSize, len(result.RFM))]
		pool.Submit(func() {
			if err := pw.insertRFMBatch(batch); err != nil {
				fail(err)
			}
		})
	}
	for i := 0; i < len(result.LTV); i += insertBatchSize {
		batch := result.LTV[i:min(i+insertBatchSize, len(result.LTV))]
		pool.Submit(func() {
			if err := pw.insertLTVBatch(batch); err != nil {
				fail(err)
			}
		})
	}
	pool.Wait()

	if firstErr == nil {
		pw.logger.Info("[storage] Stored %d RFM rows and %d LTV rows in PostgreSQL",
			len(result.RFM), len(result.LTV))
	}
	return firstErr
}

func (pw *PostgresWriter) insertRFMBatch(batch []*models.CustomerRFM) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*5)

	for idx, r := range batch {
		base := idx * 5
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5))
		valueArgs = append(valueArgs, r.CustomerID, r.Recency, r.Frequency, r.Monetary, r.Segment)
	}

	query := fmt.Sprintf(`
		INSERT INTO customer_rfm (customer_id, recency, frequency, monetary, segment)
		VALUES %s
		ON CONFLICT (customer_id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) insertLTVBatch(batch []*models.CustomerLTV) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*5)

	for idx, r := range batch {
		base := idx * 5
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5))
		valueArgs = append(valueArgs, r.CustomerID, r.AvgOrderValue, r.OrderCount, r.LTV, r.PredictedLTV)
	}

	query := fmt.Sprintf(`
		INSERT INTO customer_ltv (customer_id, avg_order_value, order_count, ltv, predicted_ltv)
		VALUES %s
		ON CONFLICT (customer_id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
