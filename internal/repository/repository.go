// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres) inside this directory.
package repository

import (
	"context"

	"workbench/internal/model"
)

// DatasetRepository defines data access for dataset metadata using SQL queries only.
type DatasetRepository interface {
	// Create inserts a new dataset record and returns the stored row.
	Create(ctx context.Context, ds *model.Dataset) (*model.Dataset, error)

	// FindByID returns a dataset by its ID.
	FindByID(ctx context.Context, id string) (*model.Dataset, error)

	// List returns a page of datasets, newest first, and the total count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Dataset], error)

	// Delete removes a dataset by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// AnalysisRepository defines data access for analysis runs.
type AnalysisRepository interface {
	Create(ctx context.Context, a *model.Analysis) (*model.Analysis, error)
	FindByID(ctx context.Context, id string) (*model.Analysis, error)

	// List returns a page of analyses, optionally restricted to one kind.
	List(ctx context.Context, filter AnalysisFilter) (*PageResult[model.Analysis], error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// AnalysisFilter narrows an analysis listing. An empty Kind matches all.
type AnalysisFilter struct {
	PageQuery
	Kind model.AnalysisKind
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
