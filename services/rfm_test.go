package services

import (
	"errors"
	"testing"
	"time"

	"customer-ltv/models"
)

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func txn(id, invoice string, date time.Time, qty int, price float64) *models.Transaction {
	return &models.Transaction{
		CustomerID:  id,
		InvoiceNo:   invoice,
		InvoiceDate: date,
		Quantity:    qty,
		UnitPrice:   price,
		TotalAmount: float64(qty) * price,
	}
}

func TestRFMWorkedExample(t *testing.T) {
	// Three rows for one customer on days 1, 1 and 5; day 5 is the dataset
	// maximum, so the reference instant is day 6 and Recency is exactly 1.
	calc := NewRFMCalculator(newTestLogger())

	rows, err := calc.Compute([]*models.Transaction{
		txn("C1", "INV1", day(1), 2, 10),
		txn("C1", "INV1", day(1), 1, 10),
		txn("C1", "INV2", day(5), 3, 10),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	r := rows[0]
	if r.Recency != 1 {
		t.Errorf("Recency: got %d, want 1", r.Recency)
	}
	if r.Frequency != 3 {
		t.Errorf("Frequency: got %d, want 3", r.Frequency)
	}
	if r.Monetary != 60 {
		t.Errorf("Monetary: got %.2f, want 60", r.Monetary)
	}
}

func TestRFMRecencyAtLeastOne(t *testing.T) {
	calc := NewRFMCalculator(newTestLogger())

	rows, err := calc.Compute([]*models.Transaction{
		txn("C1", "INV1", day(1), 1, 5),
		txn("C2", "INV2", day(8), 1, 5),
		txn("C3", "INV3", day(10), 1, 5),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]int{"C1": 10, "C2": 3, "C3": 1}
	for _, r := range rows {
		if r.Recency < 1 {
			t.Errorf("customer %s: Recency %d < 1", r.CustomerID, r.Recency)
		}
		if r.Recency != want[r.CustomerID] {
			t.Errorf("customer %s: Recency got %d, want %d", r.CustomerID, r.Recency, want[r.CustomerID])
		}
	}
}

func TestRFMFrequencyCountsRows(t *testing.T) {
	// Repeated invoice numbers still count once per row, not once per invoice.
	calc := NewRFMCalculator(newTestLogger())

	rows, err := calc.Compute([]*models.Transaction{
		txn("C1", "INV1", day(1), 1, 5),
		txn("C1", "INV1", day(1), 1, 5),
		txn("C1", "INV1", day(2), 1, 5),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows[0].Frequency != 3 {
		t.Errorf("Frequency: got %d, want 3", rows[0].Frequency)
	}
}

func TestRFMSortedByCustomerID(t *testing.T) {
	calc := NewRFMCalculator(newTestLogger())

	rows, err := calc.Compute([]*models.Transaction{
		txn("C3", "INV3", day(2), 1, 5),
		txn("C1", "INV1", day(1), 1, 5),
		txn("C2", "INV2", day(3), 1, 5),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].CustomerID >= rows[i].CustomerID {
			t.Fatalf("rows not sorted: %q before %q", rows[i-1].CustomerID, rows[i].CustomerID)
		}
	}
}

func TestRFMEmptyDataset(t *testing.T) {
	calc := NewRFMCalculator(newTestLogger())

	_, err := calc.Compute(nil)
	var emptyErr *models.EmptyDatasetError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("got %v, want EmptyDatasetError", err)
	}
}
