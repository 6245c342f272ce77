package storage

import "customer-ltv/models"

// ResultWriter is the interface any result storage backend must satisfy.
// Write persists both tables of a single pipeline run.
type ResultWriter interface {
	Write(result *models.PipelineResult) error
	Close() error
}
