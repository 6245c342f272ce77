package models

import "time"

// RawTransaction holds one unprocessed row as read from the input source
// (CSV file or database table). All fields are kept as strings until the
// cleaner validates and parses them.
type RawTransaction struct {
	InvoiceNo   string
	CustomerID  string
	InvoiceDate string
	Quantity    string
	UnitPrice   string
}

// Transaction is a cleaned, validated purchase row. Quantity is always > 0
// and TotalAmount is always Quantity × UnitPrice.
type Transaction struct {
	InvoiceNo   string
	CustomerID  string
	InvoiceDate time.Time
	Quantity    int
	UnitPrice   float64
	TotalAmount float64
}

// CustomerRFM is one customer's Recency/Frequency/Monetary summary plus the
// cluster label assigned by the segmentation engine. Recency is measured in
// whole days against the run's reference instant (dataset max date + 1 day),
// Frequency is the retained-row count and Monetary the sum of TotalAmount.
type CustomerRFM struct {
	CustomerID string
	Recency    int
	Frequency  int
	Monetary   float64
	Segment    int
}

// CustomerLTV is one customer's historical lifetime-value summary and the
// regression model's prediction for it. LTV is always AvgOrderValue ×
// OrderCount; PredictedLTV is the fitted model applied to the same row.
type CustomerLTV struct {
	CustomerID    string
	AvgOrderValue float64
	OrderCount    int
	LTV           float64
	PredictedLTV  float64
}

// PipelineResult pairs the two output tables of a single run. Both are
// derived from the same cleaned snapshot and share an identical customer
// universe, sorted by CustomerID.
type PipelineResult struct {
	RFM []*CustomerRFM
	LTV []*CustomerLTV
}

// SegmentReport holds the derived read-only aggregates computed over a
// PipelineResult for display.
type SegmentReport struct {
	TotalCustomers  int
	Segments        int
	SegmentCounts   map[int]int
	SegmentMonetary map[int]float64
	TopByPredicted  []*CustomerLTV
	AvgPredictedLTV float64
	MaxPredictedLTV float64
}
