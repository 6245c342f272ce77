package services

import (
	"fmt"
	"sort"
	"strings"

	"customer-ltv/models"
	"customer-ltv/utils"
)

// InsightService computes the derived read-only aggregates over a pipeline
// result: segment populations, per-segment mean Monetary and the top
// customers by predicted LTV. Any caller can re-derive these; nothing here
// is persisted.
type InsightService struct {
	logger *utils.Logger
	topN   int
}

// NewInsightService creates an InsightService reporting the top n customers.
func NewInsightService(logger *utils.Logger, topN int) *InsightService {
	return &InsightService{logger: logger, topN: topN}
}

// Generate builds a SegmentReport from the two result tables.
func (s *InsightService) Generate(result *models.PipelineResult) *models.SegmentReport {
	report := &models.SegmentReport{
		SegmentCounts:   make(map[int]int),
		SegmentMonetary: make(map[int]float64),
	}
	if result == nil || len(result.RFM) == 0 {
		return report
	}

	report.TotalCustomers = len(result.RFM)

	for _, row := range result.RFM {
		report.SegmentCounts[row.Segment]++
		report.SegmentMonetary[row.Segment] += row.Monetary
	}
	report.Segments = len(report.SegmentCounts)
	for seg, total := range report.SegmentMonetary {
		report.SegmentMonetary[seg] = round2(total / float64(report.SegmentCounts[seg]))
	}

	ranked := append([]*models.CustomerLTV(nil), result.LTV...)
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].PredictedLTV > ranked[j].PredictedLTV
	})
	if len(ranked) > s.topN {
		report.TopByPredicted = ranked[:s.topN]
	} else {
		report.TopByPredicted = ranked
	}

	if len(ranked) > 0 {
		var total float64
		for _, row := range ranked {
			total += row.PredictedLTV
		}
		report.AvgPredictedLTV = round2(total / float64(len(ranked)))
		report.MaxPredictedLTV = round2(ranked[0].PredictedLTV)
	}

	return report
}

// Print renders the report to stdout.
func (s *InsightService) Print(r *models.SegmentReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 CUSTOMER SEGMENTATION & LTV\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total customers  : \033[1m%d\033[0m\n", r.TotalCustomers)
	fmt.Printf("  Segments created : \033[1m%d\033[0m\n", r.Segments)
	fmt.Println()

	// Segment populations with average spend
	fmt.Printf("\033[1;33m  Segment Breakdown\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.SegmentCounts) == 0 {
		fmt.Printf("  No segment data\n")
	} else {
		segments := make([]int, 0, len(r.SegmentCounts))
		for seg := range r.SegmentCounts {
			segments = append(segments, seg)
		}
		sort.Ints(segments)
		for _, seg := range segments {
			bar := strings.Repeat("█", barWidth(r.SegmentCounts[seg], r.TotalCustomers))
			fmt.Printf("  Segment %d : %4d customers %s  avg \033[1;32m$%.2f\033[0m\n",
				seg, r.SegmentCounts[seg], bar, r.SegmentMonetary[seg])
		}
	}
	fmt.Println()

	// Top customers by predicted LTV
	fmt.Printf("\033[1;33m  Top %d Customers by Predicted LTV\033[0m\n", len(r.TopByPredicted))
	fmt.Printf("  %s\n", thin)
	if len(r.TopByPredicted) == 0 {
		fmt.Printf("  No LTV data\n")
	} else {
		for i, row := range r.TopByPredicted {
			fmt.Printf("  \033[1m%2d.\033[0m %-20s \033[1;32m$%.2f\033[0m (%d orders)\n",
				i+1, truncate(row.CustomerID, 20), row.PredictedLTV, row.OrderCount)
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Predicted LTV\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Average : \033[1;32m$%.2f\033[0m\n", r.AvgPredictedLTV)
	fmt.Printf("  Maximum : \033[1;32m$%.2f\033[0m\n", r.MaxPredictedLTV)

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

// barWidth scales a population count to at most 40 glyphs.
func barWidth(count, total int) int {
	if total == 0 {
		return 0
	}
	w := count * 40 / total
	if w == 0 && count > 0 {
		w = 1
	}
	return w
}

func round2(f float64) float64 {
	if f < 0 {
		return float64(int(f*100-0.5)) / 100
	}
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
