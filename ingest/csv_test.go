package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"customer-ltv/models"
	"customer-ltv/utils"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestCSVLoaderLoadsRows(t *testing.T) {
	path := writeTempCSV(t,
		"InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country\n"+
			"536365,85123A,HOLDER,6,2010-12-01 08:26:00,2.55,17850,United Kingdom\n"+
			"536366,71053,LANTERN,2,2010-12-01 08:28:00,3.39,17850,United Kingdom\n")

	rows, err := NewCSVLoader(path, utils.NewLogger()).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	r := rows[0]
	if r.CustomerID != "17850" {
		t.Errorf("CustomerID: got %q, want %q", r.CustomerID, "17850")
	}
	if r.InvoiceNo != "536365" {
		t.Errorf("InvoiceNo: got %q, want %q", r.InvoiceNo, "536365")
	}
	if r.Quantity != "6" {
		t.Errorf("Quantity: got %q, want %q", r.Quantity, "6")
	}
	if r.UnitPrice != "2.55" {
		t.Errorf("UnitPrice: got %q, want %q", r.UnitPrice, "2.55")
	}
	if r.InvoiceDate != "2010-12-01 08:26:00" {
		t.Errorf("InvoiceDate: got %q, want %q", r.InvoiceDate, "2010-12-01 08:26:00")
	}
}

func TestCSVLoaderMissingColumn(t *testing.T) {
	path := writeTempCSV(t,
		"InvoiceNo,Quantity,InvoiceDate,CustomerID\n"+
			"536365,6,2010-12-01 08:26:00,17850\n")

	_, err := NewCSVLoader(path, utils.NewLogger()).Load()
	var schemaErr *models.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("got %v, want SchemaError", err)
	}
	if schemaErr.Column != "UnitPrice" {
		t.Errorf("missing column: got %q, want %q", schemaErr.Column, "UnitPrice")
	}
}

func TestCSVLoaderMalformedBody(t *testing.T) {
	// An unterminated quote makes the file structurally unreadable, which is
	// a ParseError rather than a silently dropped row.
	path := writeTempCSV(t,
		"CustomerID,InvoiceNo,InvoiceDate,Quantity,UnitPrice\n"+
			"17850,536365,2010-12-01,6,\"2.55\n")

	_, err := NewCSVLoader(path, utils.NewLogger()).Load()
	var parseErr *models.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("got %v, want ParseError", err)
	}
}

func TestCSVLoaderMissingFile(t *testing.T) {
	_, err := NewCSVLoader(filepath.Join(t.TempDir(), "nope.csv"), utils.NewLogger()).Load()
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestCSVLoaderBOMHeader(t *testing.T) {
	path := writeTempCSV(t,
		"\ufeffCustomerID,InvoiceNo,InvoiceDate,Quantity,UnitPrice\n"+
			"17850,536365,2010-12-01,6,2.55\n")

	rows, err := NewCSVLoader(path, utils.NewLogger()).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].CustomerID != "17850" {
		t.Fatalf("BOM header not handled, rows: %+v", rows)
	}
}
