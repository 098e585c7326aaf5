// Package model contains domain models/data structures.
// No business logic here; models carry no database-specific tags.
package model

// AnalysisKind names the routine an analysis ran.
type AnalysisKind string

const (
	KindCorrelation AnalysisKind = "correlation"
	KindCovariates  AnalysisKind = "covariates"
	KindMissing     AnalysisKind = "missing"
)

// AnalysisStatus is the outcome of an analysis run.
type AnalysisStatus string

const (
	StatusSucceeded AnalysisStatus = "succeeded"
	StatusFailed    AnalysisStatus = "failed"
)
