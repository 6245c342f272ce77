package services

import (
	"sort"
	"time"

	"customer-ltv/models"
	"customer-ltv/utils"
)

// RFMCalculator derives per-customer Recency/Frequency/Monetary features
// from cleaned transactions.
type RFMCalculator struct {
	logger *utils.Logger
}

// NewRFMCalculator creates an RFMCalculator with the given logger.
func NewRFMCalculator(logger *utils.Logger) *RFMCalculator {
	return &RFMCalculator{logger: logger}
}

// Compute aggregates one CustomerRFM row per distinct CustomerID, sorted by
// CustomerID. The reference instant is one day past the dataset's latest
// invoice date, so Recency is at least 1 for every customer. Frequency is
// the retained-row count, including repeated invoice numbers.
func (r *RFMCalculator) Compute(txns []*models.Transaction) ([]*models.CustomerRFM, error) {
	if len(txns) == 0 {
		return nil, &models.EmptyDatasetError{Stage: "rfm"}
	}

	now := referenceInstant(txns)

	lastPurchase := make(map[string]time.Time)
	byCustomer := make(map[string]*models.CustomerRFM)
	for _, t := range txns {
		row, ok := byCustomer[t.CustomerID]
		if !ok {
			row = &models.CustomerRFM{CustomerID: t.CustomerID}
			byCustomer[t.CustomerID] = row
		}
		row.Frequency++
		row.Monetary += t.TotalAmount
		if t.InvoiceDate.After(lastPurchase[t.CustomerID]) {
			lastPurchase[t.CustomerID] = t.InvoiceDate
		}
	}

	rows := make([]*models.CustomerRFM, 0, len(byCustomer))
	for id, row := range byCustomer {
		row.Recency = int(now.Sub(lastPurchase[id]).Hours() / 24)
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CustomerID < rows[j].CustomerID })

	r.logger.Info("[rfm] Aggregated %d transactions into %d customers (reference instant %s)",
		len(txns), len(rows), now.Format("2006-01-02"))
	return rows, nil
}

// referenceInstant returns the run-wide NOW: the latest invoice date in the
// cleaned dataset plus one day.
func referenceInstant(txns []*models.Transaction) time.Time {
	max := txns[0].InvoiceDate
	for _, t := range txns[1:] {
		if t.InvoiceDate.After(max) {
			max = t.InvoiceDate
		}
	}
	return max.Add(24 * time.Hour)
}
