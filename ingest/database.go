package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"customer-ltv/models"
	"customer-ltv/utils"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// DBLoader reads raw transaction rows from a MySQL/MariaDB or PostgreSQL
// table. The driver is chosen from the DSN scheme.
type DBLoader struct {
	dsn    string
	table  string
	logger *utils.Logger
}

// NewDBLoader creates a loader for the given DSN and table name.
func NewDBLoader(dsn, table string, logger *utils.Logger) *DBLoader {
	return &DBLoader{dsn: dsn, table: table, logger: logger}
}

// Load connects, verifies the connection, and reads every row of the
// configured table as a raw transaction.
func (l *DBLoader) Load(ctx context.Context) ([]*models.RawTransaction, error) {
	if !tableNameRe.MatchString(l.table) {
		return nil, &models.InvalidParameterError{Param: "table", Reason: "invalid table name"}
	}

	driver, dsn, err := driverDSN(l.dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	l.logger.Info("[ingest] Connected to %s source, table %s", driver, l.table)

	q := fmt.Sprintf(`
		SELECT CustomerID, InvoiceNo, InvoiceDate, Quantity, UnitPrice
		FROM %s
	`, l.table)

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("db: query %s: %w", l.table, err)
	}
	defer rows.Close()

	var out []*models.RawTransaction
	for rows.Next() {
		var customerID, invoiceNo, invoiceDate, quantity, unitPrice sql.NullString
		if err := rows.Scan(&customerID, &invoiceNo, &invoiceDate, &quantity, &unitPrice); err != nil {
			return nil, &models.ParseError{Source: "db row", Err: err}
		}
		out = append(out, &models.RawTransaction{
			CustomerID:  customerID.String,
			InvoiceNo:   invoiceNo.String,
			InvoiceDate: invoiceDate.String,
			Quantity:    quantity.String,
			UnitPrice:   unitPrice.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &models.ParseError{Source: "db rows", Err: err}
	}

	l.logger.Info("[ingest] Read %d rows from %s", len(out), l.table)
	return out, nil
}

// driverDSN maps a URL-style DSN to a database/sql driver name and the DSN
// format that driver expects. mariadb:// and mysql:// URLs are rewritten to
// the mysql driver's user:pass@tcp(host)/db form; postgres:// URLs are passed
// through to lib/pq unchanged.
func driverDSN(dsn string) (string, string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil

	case strings.HasPrefix(dsn, "mysql://"), strings.HasPrefix(dsn, "mariadb://"):
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("db: parse dsn: %w", err)
		}
		user := ""
		pass := ""
		if u.User != nil {
			user = u.User.Username()
			pass, _ = u.User.Password()
		}
		name := strings.TrimPrefix(u.Path, "/")
		if user == "" || u.Host == "" || name == "" {
			return "", "", fmt.Errorf("db: dsn missing user, host or database")
		}
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC",
			user, pass, u.Host, name), nil

	default:
		return "", "", fmt.Errorf("db: unsupported dsn scheme in %q", dsn)
	}
}
