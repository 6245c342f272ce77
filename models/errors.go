package models

import "fmt"

// SchemaError reports a required input column that is absent from the source.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: required column %q is missing", e.Column)
}

// ParseError reports input that could not be read at the ingest boundary.
// Individual malformed rows are filtered during cleaning instead; this error
// is for structurally unreadable input (broken CSV record, failed DB scan).
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EmptyDatasetError reports that zero rows survived cleaning, leaving no
// customers to aggregate.
type EmptyDatasetError struct {
	Stage string
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("%s: no transactions after cleaning", e.Stage)
}

// InvalidParameterError reports a caller-supplied parameter outside its
// allowed range.
type InvalidParameterError struct {
	Param  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

// ModelFitError reports a model that failed to fit on degenerate input.
type ModelFitError struct {
	Stage string
	Err   error
}

func (e *ModelFitError) Error() string {
	return fmt.Sprintf("%s: model fit failed: %v", e.Stage, e.Err)
}

func (e *ModelFitError) Unwrap() error { return e.Err }
