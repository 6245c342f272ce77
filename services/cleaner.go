package services

import (
	"strconv"
	"strings"
	"time"

	"customer-ltv/models"
	"customer-ltv/utils"
)

// dateLayouts are the accepted InvoiceDate formats, tried in order. The
// fractional-second forms cover timestamps stringified by database/sql,
// which renders time values as RFC 3339 with nanoseconds.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02",
	"1/2/2006 15:04",
	"1/2/2006",
}

// Cleaner transforms raw transaction rows into clean, validated Transactions.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean validates and parses raw rows. Rows with a missing CustomerID, a
// non-positive quantity, or an unparseable date or number are dropped and
// logged; retained rows get TotalAmount = Quantity × UnitPrice. The result
// is deterministic for identical input.
func (c *Cleaner) Clean(raw []*models.RawTransaction) []*models.Transaction {
	result := make([]*models.Transaction, 0, len(raw))

	var dropped struct {
		noCustomer int
		quantity   int
		malformed  int
	}

	for _, r := range raw {
		customerID := strings.TrimSpace(r.CustomerID)
		if customerID == "" {
			dropped.noCustomer++
			continue
		}

		quantity, err := strconv.Atoi(strings.TrimSpace(r.Quantity))
		if err != nil {
			c.logger.Debug("[cleaner] Bad quantity %q for customer %s", r.Quantity, customerID)
			dropped.malformed++
			continue
		}
		if quantity <= 0 {
			dropped.quantity++
			continue
		}

		unitPrice, err := strconv.ParseFloat(strings.TrimSpace(r.UnitPrice), 64)
		if err != nil {
			c.logger.Debug("[cleaner] Bad unit price %q for customer %s", r.UnitPrice, customerID)
			dropped.malformed++
			continue
		}

		invoiceDate, ok := parseDate(r.InvoiceDate)
		if !ok {
			c.logger.Debug("[cleaner] Bad invoice date %q for customer %s", r.InvoiceDate, customerID)
			dropped.malformed++
			continue
		}

		result = append(result, &models.Transaction{
			InvoiceNo:   strings.TrimSpace(r.InvoiceNo),
			CustomerID:  customerID,
			InvoiceDate: invoiceDate,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			TotalAmount: float64(quantity) * unitPrice,
		})
	}

	c.logger.Info("[cleaner] Cleaned %d → %d rows (no customer: %d, quantity ≤ 0: %d, malformed: %d)",
		len(raw), len(result), dropped.noCustomer, dropped.quantity, dropped.malformed)
	return result
}

// parseDate tries each accepted layout against the raw value.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
