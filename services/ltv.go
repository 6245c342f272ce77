package services

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"customer-ltv/models"
	"customer-ltv/utils"
)

// regressionCoeffs is the number of fitted coefficients: intercept,
// AvgOrderValue and OrderCount.
const regressionCoeffs = 3

// LTVEstimator computes the historical lifetime-value proxy per customer and
// fits a least-squares regression from (AvgOrderValue, OrderCount) to that
// proxy. The model is deliberately trained and evaluated on the same rows:
// the prediction acts as a smoothing pass over the historical value, not a
// forecast, and replacing this with a held-out split would change the
// observable output.
type LTVEstimator struct {
	logger *utils.Logger
}

// NewLTVEstimator creates an LTVEstimator with the given logger.
func NewLTVEstimator(logger *utils.Logger) *LTVEstimator {
	return &LTVEstimator{logger: logger}
}

// Estimate aggregates one CustomerLTV row per distinct CustomerID, sorted by
// CustomerID, then fills PredictedLTV from the fitted model.
func (e *LTVEstimator) Estimate(txns []*models.Transaction) ([]*models.CustomerLTV, error) {
	if len(txns) == 0 {
		return nil, &models.EmptyDatasetError{Stage: "ltv"}
	}

	rows := aggregate(txns)
	if err := e.fitAndPredict(rows); err != nil {
		return nil, err
	}

	e.logger.Info("[ltv] Estimated lifetime value for %d customers", len(rows))
	return rows, nil
}

// aggregate derives AvgOrderValue, OrderCount and the historical LTV proxy
// per customer. OrderCount is the retained-row count, matching the Frequency
// semantics of the RFM table.
func aggregate(txns []*models.Transaction) []*models.CustomerLTV {
	totals := make(map[string]float64)
	counts := make(map[string]int)
	for _, t := range txns {
		totals[t.CustomerID] += t.TotalAmount
		counts[t.CustomerID]++
	}

	rows := make([]*models.CustomerLTV, 0, len(totals))
	for id, total := range totals {
		n := counts[id]
		avg := total / float64(n)
		rows = append(rows, &models.CustomerLTV{
			CustomerID:    id,
			AvgOrderValue: avg,
			OrderCount:    n,
			LTV:           avg * float64(n),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CustomerID < rows[j].CustomerID })
	return rows
}

// fitAndPredict solves the least-squares system for the LTV target and
// writes PredictedLTV on every row. An underdetermined or rank-deficient
// system (fewer customers than coefficients, or a collinear feature such as
// every customer sharing one order count) still has least-squares solutions
// that reproduce the proxy on the training rows, so those cases predict the
// proxy directly instead of aborting. Only a single-customer dataset, where
// there is nothing to regress over, is a ModelFitError.
func (e *LTVEstimator) fitAndPredict(rows []*models.CustomerLTV) error {
	n := len(rows)
	if n < 2 {
		return &models.ModelFitError{
			Stage: "ltv",
			Err:   fmt.Errorf("need at least 2 customers to fit a regression, got %d", n),
		}
	}

	if n < regressionCoeffs {
		e.predictProxy(rows)
		return nil
	}

	x := mat.NewDense(n, regressionCoeffs, nil)
	y := mat.NewVecDense(n, nil)
	for i, row := range rows {
		x.Set(i, 0, 1)
		x.Set(i, 1, row.AvgOrderValue)
		x.Set(i, 2, float64(row.OrderCount))
		y.SetVec(i, row.LTV)
	}

	var qr mat.QR
	qr.Factorize(x)

	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		e.predictProxy(rows)
		return nil
	}

	for _, row := range rows {
		row.PredictedLTV = beta.AtVec(0) +
			beta.AtVec(1)*row.AvgOrderValue +
			beta.AtVec(2)*float64(row.OrderCount)
	}
	return nil
}

// predictProxy fills PredictedLTV with the historical proxy itself.
func (e *LTVEstimator) predictProxy(rows []*models.CustomerLTV) {
	e.logger.Warn("[ltv] Degenerate design matrix for %d customers — predicting the historical proxy", len(rows))
	for _, row := range rows {
		row.PredictedLTV = row.LTV
	}
}
