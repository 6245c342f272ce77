package services

import (
	"golang.org/x/sync/errgroup"

	"customer-ltv/models"
	"customer-ltv/utils"
)

// Pipeline wires cleaning, RFM segmentation and LTV estimation into a single
// batch run. It holds no state across runs: every invocation is a pure
// function of the raw rows and k.
type Pipeline struct {
	cleaner   *Cleaner
	rfm       *RFMCalculator
	segmenter *Segmenter
	ltv       *LTVEstimator
	logger    *utils.Logger
}

// NewPipeline creates a Pipeline and its component services.
func NewPipeline(logger *utils.Logger) *Pipeline {
	return &Pipeline{
		cleaner:   NewCleaner(logger),
		rfm:       NewRFMCalculator(logger),
		segmenter: NewSegmenter(logger),
		ltv:       NewLTVEstimator(logger),
		logger:    logger,
	}
}

// Run cleans the raw rows once, then computes the segmented RFM table and
// the LTV table concurrently over that same cleaned snapshot. The two
// branches only read the shared slice. Any stage error aborts the run; there
// is no partial-result mode.
func (p *Pipeline) Run(raw []*models.RawTransaction, k int) (*models.PipelineResult, error) {
	cleaned := p.cleaner.Clean(raw)
	if len(cleaned) == 0 {
		return nil, &models.EmptyDatasetError{Stage: "pipeline"}
	}

	// Validate k up front so a parameter error wins over whichever branch
	// happens to fail first.
	if err := validateSegments(k, distinctCustomers(cleaned)); err != nil {
		return nil, err
	}

	result := &models.PipelineResult{}

	var g errgroup.Group
	g.Go(func() error {
		rows, err := p.rfm.Compute(cleaned)
		if err != nil {
			return err
		}
		rows, err = p.segmenter.Segment(rows, k)
		if err != nil {
			return err
		}
		result.RFM = rows
		return nil
	})
	g.Go(func() error {
		rows, err := p.ltv.Estimate(cleaned)
		if err != nil {
			return err
		}
		result.LTV = rows
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.Info("[pipeline] Run complete: %d segmented customers, %d LTV rows",
		len(result.RFM), len(result.LTV))
	return result, nil
}

func distinctCustomers(txns []*models.Transaction) int {
	seen := make(map[string]struct{}, len(txns))
	for _, t := range txns {
		seen[t.CustomerID] = struct{}{}
	}
	return len(seen)
}
