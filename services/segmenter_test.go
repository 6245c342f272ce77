package services

import (
	"errors"
	"math"
	"testing"

	"customer-ltv/models"
)

func sampleRFM() []*models.CustomerRFM {
	// Two well-separated behavioural groups: recent big spenders and
	// long-lapsed small spenders.
	return []*models.CustomerRFM{
		{CustomerID: "C1", Recency: 2, Frequency: 50, Monetary: 5000},
		{CustomerID: "C2", Recency: 3, Frequency: 48, Monetary: 4800},
		{CustomerID: "C3", Recency: 1, Frequency: 52, Monetary: 5100},
		{CustomerID: "C4", Recency: 300, Frequency: 2, Monetary: 40},
		{CustomerID: "C5", Recency: 320, Frequency: 1, Monetary: 25},
		{CustomerID: "C6", Recency: 290, Frequency: 3, Monetary: 55},
	}
}

func TestSegmenterKValidation(t *testing.T) {
	s := NewSegmenter(newTestLogger())

	tests := []struct {
		name string
		rows []*models.CustomerRFM
		k    int
	}{
		{"k below minimum", sampleRFM(), 1},
		{"k above maximum", sampleRFM(), 11},
		{"k exceeds customers", sampleRFM()[:1], 2},
	}

	for _, tt := range tests {
		_, err := s.Segment(tt.rows, tt.k)
		var paramErr *models.InvalidParameterError
		if !errors.As(err, &paramErr) {
			t.Errorf("%s: got %v, want InvalidParameterError", tt.name, err)
		}
	}
}

func TestSegmenterLabelsInRange(t *testing.T) {
	s := NewSegmenter(newTestLogger())

	rows, err := s.Segment(sampleRFM(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range rows {
		if r.Segment < 0 || r.Segment >= 3 {
			t.Errorf("customer %s: segment %d outside [0,3)", r.CustomerID, r.Segment)
		}
	}
}

func TestSegmenterSeparatesDistinctGroups(t *testing.T) {
	s := NewSegmenter(newTestLogger())

	rows, err := s.Segment(sampleRFM(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bySeg := map[string]int{}
	for _, r := range rows {
		bySeg[r.CustomerID] = r.Segment
	}
	if bySeg["C1"] != bySeg["C2"] || bySeg["C2"] != bySeg["C3"] {
		t.Errorf("high-value group split across segments: %v", bySeg)
	}
	if bySeg["C4"] != bySeg["C5"] || bySeg["C5"] != bySeg["C6"] {
		t.Errorf("lapsed group split across segments: %v", bySeg)
	}
	if bySeg["C1"] == bySeg["C4"] {
		t.Errorf("distinct groups collapsed into one segment: %v", bySeg)
	}
}

func TestSegmenterReproducible(t *testing.T) {
	s := NewSegmenter(newTestLogger())

	first, err := s.Segment(sampleRFM(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.Segment(sampleRFM(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range first {
		if first[i].Segment != second[i].Segment {
			t.Errorf("customer %s: segment %d != %d across runs",
				first[i].CustomerID, first[i].Segment, second[i].Segment)
		}
	}
}

func TestStandardizeZeroVariance(t *testing.T) {
	features := [][]float64{
		{5, 1, 100},
		{5, 2, 200},
		{5, 3, 300},
	}
	standardize(features)

	for i, row := range features {
		if row[0] != 0 {
			t.Errorf("row %d: constant feature should centre to 0, got %v", i, row[0])
		}
		for d, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("row %d dim %d: got %v", i, d, v)
			}
		}
	}
}

func TestStandardizeMeanAndVariance(t *testing.T) {
	features := [][]float64{{1, 10, 0}, {2, 20, 0}, {3, 30, 0}}
	standardize(features)

	for d := 0; d < 2; d++ {
		var sum, sumSq float64
		for _, row := range features {
			sum += row[d]
			sumSq += row[d] * row[d]
		}
		mean := sum / 3
		variance := sumSq / 3
		if math.Abs(mean) > 1e-9 {
			t.Errorf("dim %d: mean %v, want 0", d, mean)
		}
		if math.Abs(variance-1) > 1e-9 {
			t.Errorf("dim %d: variance %v, want 1", d, variance)
		}
	}
}
