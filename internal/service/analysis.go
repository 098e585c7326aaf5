package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"workbench/internal/analysis"
	"workbench/internal/export"
	"workbench/internal/model"
	"workbench/internal/repository"
	"workbench/internal/storage"
)

// CorrelationRequest asks for the correlation between every feature and each clinical scale.
type CorrelationRequest struct {
	FeaturesID string             `json:"features_id"`
	ClinicalID string             `json:"clinical_id"`
	Settings   []analysis.Setting `json:"settings"`
	Digits     int                `json:"digits,omitempty"`
}

// CovariateRequest asks for features residualized against covariates.
// Name names the resulting dataset.
type CovariateRequest struct {
	FeaturesID   string `json:"features_id"`
	CovariatesID string `json:"covariates_id"`
	Name         string `json:"name,omitempty"`
}

// MissingRequest asks for the missing-value report and figure of a dataset.
type MissingRequest struct {
	DatasetID string                  `json:"dataset_id"`
	Format    string                  `json:"format,omitempty"`
	Figure    analysis.FigureSettings `json:"figure"`
}

type CorrelationResult struct {
	Analysis *model.Analysis            `json:"analysis"`
	Tables   []analysis.CorrelationTable `json:"tables"`
}

type CovariateResult struct {
	Analysis *model.Analysis          `json:"analysis"`
	Dataset  *model.Dataset           `json:"dataset"`
	Models   []analysis.CovariateModel `json:"models"`
}

type MissingResult struct {
	Analysis *model.Analysis        `json:"analysis"`
	Report   analysis.MissingReport `json:"report"`
}

// AnalysisListResult is the service-level DTO for paginated analyses.
type AnalysisListResult struct {
	Items []model.Analysis `json:"data"`
	Total int              `json:"total"`
}

// AnalysisService runs the analysis routines over stored datasets and records every run.
type AnalysisService interface {
	Correlate(ctx context.Context, req CorrelationRequest) (*CorrelationResult, error)
	ControlCovariates(ctx context.Context, req CovariateRequest) (*CovariateResult, error)
	ExploreMissing(ctx context.Context, req MissingRequest) (*MissingResult, error)

	// List returns recorded analyses, optionally of one kind.
	List(ctx context.Context, kind string, limit, offset int) (*AnalysisListResult, error)
	Get(ctx context.Context, id string) (*model.Analysis, error)

	// ReportURL returns a pre-signed URL for the report an analysis produced.
	ReportURL(ctx context.Context, id string) (string, error)
}

// AnalysisConfig holds the defaults applied to analysis requests.
// A nil Logger falls back to slog.Default().
type AnalysisConfig struct {
	Digits        int
	PresignExpiry time.Duration
	Logger        *slog.Logger
}

type analysisService struct {
	datasets DatasetService
	store    storage.Storage
	repo     repository.AnalysisRepository
	metrics  *Metrics
	cfg      AnalysisConfig
}

// NewAnalysisService constructs a new AnalysisService. metrics may be nil.
func NewAnalysisService(datasets DatasetService, store storage.Storage, repo repository.AnalysisRepository, metrics *Metrics, cfg AnalysisConfig) AnalysisService {
	if cfg.Digits <= 0 {
		cfg.Digits = analysis.DefaultDigits
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &analysisService{datasets: datasets, store: store, repo: repo, metrics: metrics, cfg: cfg}
}

// run is one analysis in progress.
type run struct {
	id         string
	kind       model.AnalysisKind
	datasetIDs []string
	params     any
	start      time.Time
}

func newRun(kind model.AnalysisKind, params any, datasetIDs ...string) *run {
	return &run{
		id:         uuid.New().String(),
		kind:       kind,
		datasetIDs: datasetIDs,
		params:     params,
		start:      time.Now(),
	}
}

// report is a file produced by a run.
type report struct {
	data        []byte
	ext         string
	contentType string
}

// record stores the run with the given outcome.
func (s *analysisService) record(ctx context.Context, r *run, status model.AnalysisStatus, summary any, reportPath, reportType, errText string) (*model.Analysis, error) {
	params, err := json.Marshal(r.params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	var rawSummary json.RawMessage
	if summary != nil {
		if rawSummary, err = json.Marshal(summary); err != nil {
			return nil, fmt.Errorf("encode summary: %w", err)
		}
	}
	finished := time.Now().UTC()
	return s.repo.Create(ctx, &model.Analysis{
		ID:                r.id,
		Kind:              r.kind,
		Status:            status,
		DatasetIDs:        r.datasetIDs,
		Params:            params,
		Summary:           rawSummary,
		ReportPath:        reportPath,
		ReportContentType: reportType,
		Error:             errText,
		CreatedAt:         r.start.UTC(),
		FinishedAt:        &finished,
	})
}

// recordFailure stores a failed run. A storage error is only logged: the
// caller reports the original cause.
func (s *analysisService) recordFailure(ctx context.Context, r *run, cause error) {
	s.metrics.observe(r.kind, model.StatusFailed, r.start)
	if _, err := s.record(ctx, r, model.StatusFailed, nil, "", "", cause.Error()); err != nil {
		s.cfg.Logger.ErrorContext(ctx, "analysis_record_failed",
			"analysis_id", r.id,
			"kind", string(r.kind),
			"cause", cause.Error(),
			"error", err,
		)
	}
}

// fail records a run whose computation rejected its inputs.
func (s *analysisService) fail(ctx context.Context, r *run, cause error) error {
	s.recordFailure(ctx, r, cause)
	return fmt.Errorf("%w: %w", ErrAnalysisFailed, cause)
}

// abort records a run that could not be completed for infrastructure reasons.
func (s *analysisService) abort(ctx context.Context, r *run, cause error) error {
	s.recordFailure(ctx, r, cause)
	return cause
}

// succeed stores the optional report and records the run.
func (s *analysisService) succeed(ctx context.Context, r *run, summary any, rep *report, reportPath, reportType string) (*model.Analysis, error) {
	if rep != nil {
		key := storage.ReportKey(r.id, rep.ext)
		info, err := s.store.Put(ctx, key, bytes.NewReader(rep.data), storage.PutObjectOptions{
			Size:        int64(len(rep.data)),
			ContentType: rep.contentType,
			Filename:    string(r.kind) + "-" + r.id + "." + rep.ext,
			Metadata:    map[string]string{"analysis-kind": string(r.kind)},
		})
		if err != nil {
			return nil, s.abort(ctx, r, fmt.Errorf("upload report: %w", err))
		}
		reportPath, reportType = info.Key, rep.contentType
	}

	a, err := s.record(ctx, r, model.StatusSucceeded, summary, reportPath, reportType, "")
	if err != nil {
		s.metrics.observe(r.kind, model.StatusFailed, r.start)
		if rep != nil {
			if delErr := s.store.Delete(ctx, reportPath); delErr != nil {
				return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
			}
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	s.metrics.observe(r.kind, model.StatusSucceeded, r.start)
	return a, nil
}

func (s *analysisService) Correlate(ctx context.Context, req CorrelationRequest) (res *CorrelationResult, err error) {
	if req.FeaturesID == "" || req.ClinicalID == "" {
		return nil, fmt.Errorf("%w: features_id and clinical_id are required", ErrInvalidRequest)
	}
	if req.Settings, err = analysis.NormalizeSettings(req.Settings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.Digits <= 0 {
		req.Digits = s.cfg.Digits
	}

	ctx, span := tracer.Start(ctx, "AnalysisService.Correlate")
	defer func() { endSpan(span, err) }()
	r := newRun(model.KindCorrelation, req, req.FeaturesID, req.ClinicalID)
	span.SetAttributes(attribute.String("analysis.id", r.id), attribute.Int("analysis.scales", len(req.Settings)))

	features, err := s.datasets.Load(ctx, req.FeaturesID)
	if err != nil {
		return nil, err
	}
	clinical, err := s.datasets.Load(ctx, req.ClinicalID)
	if err != nil {
		return nil, err
	}

	tables, err := analysis.AssessCorrelation(features, clinical, req.Settings, analysis.CorrelationOptions{Digits: req.Digits})
	if err != nil {
		return nil, s.fail(ctx, r, err)
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, export.CorrelationSheets(tables)...); err != nil {
		return nil, s.fail(ctx, r, err)
	}

	a, err := s.succeed(ctx, r, tables, &report{data: buf.Bytes(), ext: "xlsx", contentType: export.XLSXContentType}, "", "")
	if err != nil {
		return nil, err
	}
	return &CorrelationResult{Analysis: a, Tables: tables}, nil
}

func (s *analysisService) ControlCovariates(ctx context.Context, req CovariateRequest) (res *CovariateResult, err error) {
	if req.FeaturesID == "" || req.CovariatesID == "" {
		return nil, fmt.Errorf("%w: features_id and covariates_id are required", ErrInvalidRequest)
	}

	ctx, span := tracer.Start(ctx, "AnalysisService.ControlCovariates")
	defer func() { endSpan(span, err) }()
	r := newRun(model.KindCovariates, req, req.FeaturesID, req.CovariatesID)
	span.SetAttributes(attribute.String("analysis.id", r.id))

	features, err := s.datasets.Load(ctx, req.FeaturesID)
	if err != nil {
		return nil, err
	}
	covariates, err := s.datasets.Load(ctx, req.CovariatesID)
	if err != nil {
		return nil, err
	}

	var controller analysis.CovariateController
	residuals, err := controller.FitTransform(features, covariates)
	if err != nil {
		return nil, s.fail(ctx, r, err)
	}
	models := controller.Models(features.Columns)

	name := req.Name
	if name == "" {
		name = features.Name + "_residuals"
	}
	ds, err := s.datasets.Save(ctx, residuals, name)
	if err != nil {
		return nil, s.abort(ctx, r, err)
	}

	summary := struct {
		DatasetID string                    `json:"dataset_id"`
		Models    []analysis.CovariateModel `json:"models"`
	}{ds.ID, models}
	a, err := s.succeed(ctx, r, summary, nil, ds.StoragePath, ds.ContentType)
	if err != nil {
		if delErr := s.datasets.Delete(ctx, ds.ID); delErr != nil {
			return nil, fmt.Errorf("%v; rollback dataset delete failed: %v", err, delErr)
		}
		return nil, err
	}
	return &CovariateResult{Analysis: a, Dataset: ds, Models: models}, nil
}

func (s *analysisService) ExploreMissing(ctx context.Context, req MissingRequest) (res *MissingResult, err error) {
	if req.DatasetID == "" {
		return nil, fmt.Errorf("%w: dataset_id is required", ErrInvalidRequest)
	}
	if req.Format, err = analysis.NormalizeFormat(req.Format); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	ctx, span := tracer.Start(ctx, "AnalysisService.ExploreMissing")
	defer func() { endSpan(span, err) }()
	r := newRun(model.KindMissing, req, req.DatasetID)
	span.SetAttributes(attribute.String("analysis.id", r.id), attribute.String("figure.format", req.Format))

	f, err := s.datasets.Load(ctx, req.DatasetID)
	if err != nil {
		return nil, err
	}

	rep := analysis.ExploreMissing(f)
	figure, err := analysis.RenderMissing(f, req.Figure, req.Format)
	if err != nil {
		return nil, s.fail(ctx, r, err)
	}

	summary := rep
	summary.Mask = nil
	a, err := s.succeed(ctx, r, summary, &report{data: figure, ext: req.Format, contentType: analysis.FigureFormats[req.Format]}, "", "")
	if err != nil {
		return nil, err
	}
	return &MissingResult{Analysis: a, Report: rep}, nil
}

func (s *analysisService) List(ctx context.Context, kind string, limit, offset int) (*AnalysisListResult, error) {
	switch model.AnalysisKind(kind) {
	case "", model.KindCorrelation, model.KindCovariates, model.KindMissing:
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, kind)
	}
	limit, offset = normalizePage(limit, offset)
	res, err := s.repo.List(ctx, repository.AnalysisFilter{
		PageQuery: repository.PageQuery{Limit: limit, Offset: offset},
		Kind:      model.AnalysisKind(kind),
	})
	if err != nil {
		return nil, err
	}
	return &AnalysisListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *analysisService) Get(ctx context.Context, id string) (*model.Analysis, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return a, nil
}

func (s *analysisService) ReportURL(ctx context.Context, id string) (string, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if a.ReportPath == "" {
		return "", ErrNoReport
	}
	return s.store.PresignGet(ctx, a.ReportPath, s.cfg.PresignExpiry)
}
