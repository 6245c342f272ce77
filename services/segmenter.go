package services

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"customer-ltv/models"
	"customer-ltv/utils"
)

const (
	// MinSegments and MaxSegments bound the caller-supplied cluster count.
	MinSegments = 2
	MaxSegments = 10

	kmeansSeed    = 42
	kmeansMaxIter = 100
)

// Segmenter scales RFM features and clusters customers into k segments.
// The clustering seed is fixed, so identical input and k always produce
// identical segment assignments.
type Segmenter struct {
	logger *utils.Logger
}

// NewSegmenter creates a Segmenter with the given logger.
func NewSegmenter(logger *utils.Logger) *Segmenter {
	return &Segmenter{logger: logger}
}

// Segment standardises the Recency/Frequency/Monetary features and assigns
// each customer a cluster label in [0, k). The input slice is annotated in
// place and returned. Labels are opaque: no ordering is implied by the value.
func (s *Segmenter) Segment(rfm []*models.CustomerRFM, k int) ([]*models.CustomerRFM, error) {
	if err := validateSegments(k, len(rfm)); err != nil {
		return nil, err
	}

	features := make([][]float64, len(rfm))
	for i, row := range rfm {
		features[i] = []float64{float64(row.Recency), float64(row.Frequency), row.Monetary}
	}
	standardize(features)

	labels := kmeans(features, k)
	for i, row := range rfm {
		row.Segment = labels[i]
	}

	s.logger.Info("[segment] Clustered %d customers into %d segments", len(rfm), k)
	return rfm, nil
}

// validateSegments checks the cluster count against its allowed range and
// the number of distinct customers available for clustering.
func validateSegments(k, customers int) error {
	if k < MinSegments || k > MaxSegments {
		return &models.InvalidParameterError{
			Param:  "k",
			Reason: fmt.Sprintf("must be between %d and %d, got %d", MinSegments, MaxSegments, k),
		}
	}
	if k > customers {
		return &models.InvalidParameterError{
			Param:  "k",
			Reason: fmt.Sprintf("cannot exceed the %d distinct customers", customers),
		}
	}
	return nil
}

// standardize scales each feature column to zero mean and unit variance.
// A column with zero variance is centred but left unscaled.
func standardize(features [][]float64) {
	if len(features) == 0 {
		return
	}
	n := len(features)
	dims := len(features[0])
	col := make([]float64, n)

	for d := 0; d < dims; d++ {
		for i := range features {
			col[i] = features[i][d]
		}
		mean := stat.Mean(col, nil)
		std := stat.PopStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		for i := range features {
			features[i][d] = (features[i][d] - mean) / std
		}
	}
}

// kmeans runs Lloyd's algorithm with a fixed seed and returns one dense
// label in [0, k) per point. Clusters that empty out keep their previous
// centroid rather than being reseeded.
func kmeans(points [][]float64, k int) []int {
	rng := rand.New(rand.NewSource(kmeansSeed))
	dims := len(points[0])

	centroids := make([][]float64, k)
	for i, p := range rng.Perm(len(points))[:k] {
		centroids[i] = append([]float64(nil), points[p]...)
	}

	labels := make([]int, len(points))
	counts := make([]int, k)
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dims)
	}

	for iter := 0; iter < kmeansMaxIter; iter++ {
		changed := false
		for i, p := range points {
			best := 0
			bestDist := floats.Distance(p, centroids[0], 2)
			for c := 1; c < k; c++ {
				if d := floats.Distance(p, centroids[c], 2); d < bestDist {
					best, bestDist = c, d
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		for c := 0; c < k; c++ {
			counts[c] = 0
			for d := range sums[c] {
				sums[c][d] = 0
			}
		}
		for i, p := range points {
			counts[labels[i]]++
			floats.Add(sums[labels[i]], p)
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}

	return labels
}
