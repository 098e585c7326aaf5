package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"workbench/internal/model"
	"workbench/internal/repository"
)

// AnalysisPostgres is a PostgreSQL implementation of repository.AnalysisRepository.
type AnalysisPostgres struct {
	db *sql.DB
}

// NewAnalysisPostgres creates a new AnalysisPostgres repository.
func NewAnalysisPostgres(db *sql.DB) *AnalysisPostgres {
	return &AnalysisPostgres{db: db}
}

var _ repository.AnalysisRepository = (*AnalysisPostgres)(nil)

const analysisColumns = `id, kind, status, dataset_ids, params, summary, report_path, report_content_type, error, created_at, finished_at`

func scanAnalysis(s rowScanner) (*model.Analysis, error) {
	var (
		a        model.Analysis
		ids      []byte
		params   []byte
		summary  []byte
		finished sql.NullTime
	)
	if err := s.Scan(
		&a.ID,
		&a.Kind,
		&a.Status,
		&ids,
		&params,
		&summary,
		&a.ReportPath,
		&a.ReportContentType,
		&a.Error,
		&a.CreatedAt,
		&finished,
	); err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		if err := json.Unmarshal(ids, &a.DatasetIDs); err != nil {
			return nil, fmt.Errorf("decode dataset_ids: %w", err)
		}
	}
	if len(params) > 0 {
		a.Params = json.RawMessage(params)
	}
	if len(summary) > 0 {
		a.Summary = json.RawMessage(summary)
	}
	if finished.Valid {
		t := finished.Time
		a.FinishedAt = &t
	}
	return &a, nil
}

// Create inserts a new analysis row and returns the stored record.
func (r *AnalysisPostgres) Create(ctx context.Context, a *model.Analysis) (*model.Analysis, error) {
	ids, err := jsonArg(a.DatasetIDs)
	if err != nil {
		return nil, err
	}
	var finished sql.NullTime
	if a.FinishedAt != nil {
		finished = sql.NullTime{Time: *a.FinishedAt, Valid: true}
	}
	const q = `
		INSERT INTO analyses (id, kind, status, dataset_ids, params, summary, report_path, report_content_type, error, created_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + analysisColumns
	row := r.db.QueryRowContext(ctx, q,
		a.ID,
		string(a.Kind),
		string(a.Status),
		ids,
		rawArg(a.Params, "{}"),
		rawArg(a.Summary, ""),
		a.ReportPath,
		a.ReportContentType,
		a.Error,
		a.CreatedAt,
		finished,
	)
	return scanAnalysis(row)
}

// FindByID fetches a single analysis by its ID.
func (r *AnalysisPostgres) FindByID(ctx context.Context, id string) (*model.Analysis, error) {
	const q = `SELECT ` + analysisColumns + ` FROM analyses WHERE id = $1`
	return scanAnalysis(r.db.QueryRowContext(ctx, q, id))
}

// List returns analyses newest first. An empty filter kind matches every kind.
func (r *AnalysisPostgres) List(ctx context.Context, filter repository.AnalysisFilter) (*repository.PageResult[model.Analysis], error) {
	kind := string(filter.Kind)

	const qCount = `SELECT COUNT(*) FROM analyses WHERE ($1 = '' OR kind = $1)`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, kind).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `SELECT ` + analysisColumns + ` FROM analyses
		WHERE ($1 = '' OR kind = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, qList, kind, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Analysis, 0)
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Analysis]{
		Items: items,
		Total: total,
	}, nil
}
