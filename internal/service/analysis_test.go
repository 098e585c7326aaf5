package service_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"workbench/internal/analysis"
	"workbench/internal/frame"
	"workbench/internal/model"
	"workbench/internal/repository"
	repoMocks "workbench/internal/repository/mocks"
	"workbench/internal/service"
	svcMocks "workbench/internal/service/mocks"
	"workbench/internal/stats"
	"workbench/internal/storage"
	storeMocks "workbench/internal/storage/mocks"
)

const (
	featuresCSV = `id,f1,f2
s1,1,1
s2,2,4
s3,3,9
s4,4,16
s5,5,25
`
	clinicalCSV = `id,score
s1,2
s2,4
s3,5
s4,4
s5,5
`
	covariatesCSV = `id,age,sex
s1,50,0
s2,60,1
s3,55,0
s4,70,1
s5,65,0
`
)

func parse(t *testing.T, name, src string) *frame.Frame {
	t.Helper()
	f, err := frame.ParseCSV(strings.NewReader(src), name)
	require.NoError(t, err)
	return f
}

type fixture struct {
	datasets *svcMocks.MockDatasetService
	store    *storeMocks.MockStorage
	repo     *repoMocks.MockAnalysisRepository
	reg      *prometheus.Registry
	svc      service.AnalysisService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		datasets: new(svcMocks.MockDatasetService),
		store:    new(storeMocks.MockStorage),
		repo:     new(repoMocks.MockAnalysisRepository),
		reg:      prometheus.NewRegistry(),
	}
	metrics, err := service.NewMetrics(f.reg)
	require.NoError(t, err)
	f.svc = service.NewAnalysisService(f.datasets, f.store, f.repo, metrics, service.AnalysisConfig{Digits: 4, PresignExpiry: time.Minute})
	return f
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.datasets.AssertExpectations(t)
	f.store.AssertExpectations(t)
	f.repo.AssertExpectations(t)
}

// captureCreate echoes the analysis passed to the repository and stores it in *out.
func (f *fixture) captureCreate(out **model.Analysis) {
	f.repo.On("Create", mock.Anything, mock.Anything).
		Return(func(ctx context.Context, a *model.Analysis) *model.Analysis {
			*out = a
			return a
		}, nil)
}

func echoPut(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
	return storage.ObjectInfo{Key: key, Size: opt.Size, ContentType: opt.ContentType}
}

func TestAnalysisService_Correlate(t *testing.T) {
	settings := []analysis.Setting{{Scale: "score", FieldName: "score", Correlation: []stats.Method{stats.Pearson}}}

	t.Run("happy path", func(t *testing.T) {
		fx := newFixture(t)
		fx.datasets.On("Load", mock.Anything, "feat").Return(parse(t, "features", featuresCSV), nil)
		fx.datasets.On("Load", mock.Anything, "clin").Return(parse(t, "clinical", clinicalCSV), nil)
		fx.store.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "reports/") && strings.HasSuffix(key, ".xlsx")
		}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
			return opt.Size > 0 && opt.ContentType == "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		})).Return(echoPut, nil)

		var recorded *model.Analysis
		fx.captureCreate(&recorded)

		res, err := fx.svc.Correlate(context.Background(), service.CorrelationRequest{
			FeaturesID: "feat",
			ClinicalID: "clin",
			Settings:   settings,
		})

		require.NoError(t, err)
		require.Len(t, res.Tables, 1)
		assert.Equal(t, 0.7746, res.Tables[0].Rows[0].Coefficients[0].R)

		require.NotNil(t, recorded)
		assert.Equal(t, model.KindCorrelation, recorded.Kind)
		assert.Equal(t, model.StatusSucceeded, recorded.Status)
		assert.Equal(t, []string{"feat", "clin"}, recorded.DatasetIDs)
		assert.Equal(t, "reports/"+recorded.ID+".xlsx", recorded.ReportPath)
		assert.NotNil(t, recorded.FinishedAt)

		var params service.CorrelationRequest
		require.NoError(t, json.Unmarshal(recorded.Params, &params))
		assert.Equal(t, 4, params.Digits)

		assert.Contains(t, string(recorded.Summary), `"scale":"score"`)

		err = testutil.GatherAndCompare(fx.reg, strings.NewReader(`
# HELP workbench_analyses_total Total number of analysis runs by kind and outcome.
# TYPE workbench_analyses_total counter
workbench_analyses_total{kind="correlation",status="succeeded"} 1
`), "workbench_analyses_total")
		assert.NoError(t, err)
		fx.assertExpectations(t)
	})

	t.Run("invalid request", func(t *testing.T) {
		fx := newFixture(t)

		_, err := fx.svc.Correlate(context.Background(), service.CorrelationRequest{ClinicalID: "clin", Settings: settings})
		assert.ErrorIs(t, err, service.ErrInvalidRequest)

		_, err = fx.svc.Correlate(context.Background(), service.CorrelationRequest{
			FeaturesID: "feat",
			ClinicalID: "clin",
			Settings:   []analysis.Setting{{Scale: "a", FieldName: "a", Correlation: []stats.Method{"cosine"}}},
		})
		assert.ErrorIs(t, err, service.ErrInvalidRequest)

		_, err = fx.svc.Correlate(context.Background(), service.CorrelationRequest{
			FeaturesID: "feat",
			ClinicalID: "clin",
			Settings:   []analysis.Setting{{Scale: "score [0-10]", FieldName: "score"}},
		})
		assert.ErrorIs(t, err, service.ErrInvalidRequest)
		assert.ErrorContains(t, err, `"score [0-10]"`)
		fx.assertExpectations(t)
	})

	t.Run("dataset not found", func(t *testing.T) {
		fx := newFixture(t)
		fx.datasets.On("Load", mock.Anything, "feat").Return(nil, service.ErrNotFound)

		_, err := fx.svc.Correlate(context.Background(), service.CorrelationRequest{FeaturesID: "feat", ClinicalID: "clin", Settings: settings})
		assert.ErrorIs(t, err, service.ErrNotFound)
		fx.assertExpectations(t)
	})

	t.Run("analysis failure is recorded", func(t *testing.T) {
		fx := newFixture(t)
		fx.datasets.On("Load", mock.Anything, "feat").Return(parse(t, "features", featuresCSV), nil)
		fx.datasets.On("Load", mock.Anything, "clin").Return(parse(t, "clinical", clinicalCSV), nil)

		var recorded *model.Analysis
		fx.captureCreate(&recorded)

		_, err := fx.svc.Correlate(context.Background(), service.CorrelationRequest{
			FeaturesID: "feat",
			ClinicalID: "clin",
			Settings:   []analysis.Setting{{Scale: "x", FieldName: "nope"}},
		})

		assert.ErrorIs(t, err, service.ErrAnalysisFailed)
		assert.ErrorIs(t, err, analysis.ErrUnknownField)
		require.NotNil(t, recorded)
		assert.Equal(t, model.StatusFailed, recorded.Status)
		assert.Contains(t, recorded.Error, "nope")
		assert.Empty(t, recorded.ReportPath)
		fx.assertExpectations(t)
	})

	t.Run("report upload failure", func(t *testing.T) {
		fx := newFixture(t)
		fx.datasets.On("Load", mock.Anything, "feat").Return(parse(t, "features", featuresCSV), nil)
		fx.datasets.On("Load", mock.Anything, "clin").Return(parse(t, "clinical", clinicalCSV), nil)
		fx.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, errors.New("bucket gone"))

		var recorded *model.Analysis
		fx.captureCreate(&recorded)

		_, err := fx.svc.Correlate(context.Background(), service.CorrelationRequest{FeaturesID: "feat", ClinicalID: "clin", Settings: settings})

		assert.ErrorContains(t, err, "upload report: bucket gone")
		assert.NotErrorIs(t, err, service.ErrAnalysisFailed)
		assert.Equal(t, model.StatusFailed, recorded.Status)
		fx.assertExpectations(t)
	})

	t.Run("record failure rolls back the report", func(t *testing.T) {
		fx := newFixture(t)
		fx.datasets.On("Load", mock.Anything, "feat").Return(parse(t, "features", featuresCSV), nil)
		fx.datasets.On("Load", mock.Anything, "clin").Return(parse(t, "clinical", clinicalCSV), nil)
		fx.store.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(echoPut, nil)
		fx.repo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))
		fx.store.On("Delete", mock.Anything, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "reports/")
		})).Return(nil)

		_, err := fx.svc.Correlate(context.Background(), service.CorrelationRequest{FeaturesID: "feat", ClinicalID: "clin", Settings: settings})
		assert.ErrorContains(t, err, "db save failed: db fail")
		fx.assertExpectations(t)
	})
}

func TestAnalysisService_ControlCovariates(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		fx := newFixture(t)
		fx.datasets.On("Load", mock.Anything, "feat").Return(parse(t, "features", featuresCSV), nil)
		fx.datasets.On("Load", mock.Anything, "cov").Return(parse(t, "covariates", covariatesCSV), nil)
		fx.datasets.On("Save", mock.Anything, mock.MatchedBy(func(f *frame.Frame) bool {
			return f.Rows() == 5 && len(f.Columns) == 2
		}), "features_residuals").Return(&model.Dataset{ID: "ds-r", StoragePath: "datasets/ds-r.csv", ContentType: "text/csv"}, nil)

		var recorded *model.Analysis
		fx.captureCreate(&recorded)

		res, err := fx.svc.ControlCovariates(context.Background(), service.CovariateRequest{FeaturesID: "feat", CovariatesID: "cov"})

		require.NoError(t, err)
		assert.Equal(t, "ds-r", res.Dataset.ID)
		require.Len(t, res.Models, 2)
		assert.Equal(t, "f1", res.Models[0].Feature)
		assert.Equal(t, "datasets/ds-r.csv", recorded.ReportPath)
		assert.Equal(t, "text/csv", recorded.ReportContentType)
		assert.Contains(t, string(recorded.Summary), `"dataset_id":"ds-r"`)
		fx.assertExpectations(t)
	})

	t.Run("fit failure is recorded", func(t *testing.T) {
		fx := newFixture(t)
		fx.datasets.On("Load", mock.Anything, "feat").Return(parse(t, "features", "id,f\ns1,1\ns2,\ns3,3\ns4,4\ns5,5\n"), nil)
		fx.datasets.On("Load", mock.Anything, "cov").Return(parse(t, "covariates", covariatesCSV), nil)

		var recorded *model.Analysis
		fx.captureCreate(&recorded)

		_, err := fx.svc.ControlCovariates(context.Background(), service.CovariateRequest{FeaturesID: "feat", CovariatesID: "cov"})
		assert.ErrorIs(t, err, service.ErrAnalysisFailed)
		assert.ErrorIs(t, err, stats.ErrMissingValues)
		assert.Equal(t, model.StatusFailed, recorded.Status)
		fx.assertExpectations(t)
	})

	t.Run("record failure removes the residuals dataset", func(t *testing.T) {
		fx := newFixture(t)
		fx.datasets.On("Load", mock.Anything, "feat").Return(parse(t, "features", featuresCSV), nil)
		fx.datasets.On("Load", mock.Anything, "cov").Return(parse(t, "covariates", covariatesCSV), nil)
		fx.datasets.On("Save", mock.Anything, mock.Anything, "features_residuals").
			Return(&model.Dataset{ID: "ds-r", StoragePath: "datasets/ds-r.csv", ContentType: "text/csv"}, nil)
		fx.repo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
		fx.datasets.On("Delete", mock.Anything, "ds-r").Return(nil).Once()

		_, err := fx.svc.ControlCovariates(context.Background(), service.CovariateRequest{FeaturesID: "feat", CovariatesID: "cov"})
		assert.ErrorContains(t, err, "db save failed: db down")
		fx.assertExpectations(t)
	})

	t.Run("rollback failure is reported", func(t *testing.T) {
		fx := newFixture(t)
		fx.datasets.On("Load", mock.Anything, "feat").Return(parse(t, "features", featuresCSV), nil)
		fx.datasets.On("Load", mock.Anything, "cov").Return(parse(t, "covariates", covariatesCSV), nil)
		fx.datasets.On("Save", mock.Anything, mock.Anything, "features_residuals").
			Return(&model.Dataset{ID: "ds-r", StoragePath: "datasets/ds-r.csv", ContentType: "text/csv"}, nil)
		fx.repo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
		fx.datasets.On("Delete", mock.Anything, "ds-r").Return(errors.New("bucket gone"))

		_, err := fx.svc.ControlCovariates(context.Background(), service.CovariateRequest{FeaturesID: "feat", CovariatesID: "cov"})
		assert.ErrorContains(t, err, "rollback dataset delete failed: bucket gone")
		fx.assertExpectations(t)
	})

	t.Run("invalid request", func(t *testing.T) {
		fx := newFixture(t)
		_, err := fx.svc.ControlCovariates(context.Background(), service.CovariateRequest{FeaturesID: "feat"})
		assert.ErrorIs(t, err, service.ErrInvalidRequest)
	})
}

func TestAnalysisService_FailedRecordIsLogged(t *testing.T) {
	var logs bytes.Buffer
	datasets := new(svcMocks.MockDatasetService)
	repo := new(repoMocks.MockAnalysisRepository)
	svc := service.NewAnalysisService(datasets, new(storeMocks.MockStorage), repo, nil, service.AnalysisConfig{
		Logger: slog.New(slog.NewJSONHandler(&logs, nil)),
	})

	datasets.On("Load", mock.Anything, "feat").Return(parse(t, "features", featuresCSV), nil)
	datasets.On("Load", mock.Anything, "clin").Return(parse(t, "clinical", clinicalCSV), nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New(`pq: relation "analyses" does not exist`))

	_, err := svc.Correlate(context.Background(), service.CorrelationRequest{
		FeaturesID: "feat",
		ClinicalID: "clin",
		Settings:   []analysis.Setting{{Scale: "x", FieldName: "nope"}},
	})

	assert.ErrorIs(t, err, service.ErrAnalysisFailed)
	assert.ErrorIs(t, err, analysis.ErrUnknownField)
	assert.NotContains(t, err.Error(), "relation")
	assert.Contains(t, logs.String(), `"msg":"analysis_record_failed"`)
	assert.Contains(t, logs.String(), `relation \"analyses\" does not exist`)
	repo.AssertExpectations(t)
}

func TestAnalysisService_ExploreMissing(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		fx := newFixture(t)
		fx.datasets.On("Load", mock.Anything, "ds").Return(parse(t, "d", "id,x,y\nr1,1,\nr2,,2\n"), nil)
		fx.store.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
			return strings.HasSuffix(key, ".svg")
		}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
			return opt.ContentType == "image/svg+xml"
		})).Return(echoPut, nil)

		var recorded *model.Analysis
		fx.captureCreate(&recorded)

		res, err := fx.svc.ExploreMissing(context.Background(), service.MissingRequest{
			DatasetID: "ds",
			Format:    "SVG",
			Figure:    analysis.FigureSettings{Width: 4, Height: 4},
		})

		require.NoError(t, err)
		assert.Equal(t, 2, res.Report.MissingCells)
		assert.NotNil(t, res.Report.Mask)
		assert.NotContains(t, string(recorded.Summary), `"mask"`)
		assert.Equal(t, "image/svg+xml", recorded.ReportContentType)
		fx.assertExpectations(t)
	})

	t.Run("unsupported format", func(t *testing.T) {
		fx := newFixture(t)
		_, err := fx.svc.ExploreMissing(context.Background(), service.MissingRequest{DatasetID: "ds", Format: "gif"})
		assert.ErrorIs(t, err, service.ErrInvalidRequest)
		assert.ErrorContains(t, err, "unsupported")
	})

	t.Run("render failure is recorded", func(t *testing.T) {
		fx := newFixture(t)
		fx.datasets.On("Load", mock.Anything, "ds").Return(parse(t, "d", "id,x\nr1,1\n"), nil)

		var recorded *model.Analysis
		fx.captureCreate(&recorded)

		_, err := fx.svc.ExploreMissing(context.Background(), service.MissingRequest{
			DatasetID: "ds",
			Figure:    analysis.FigureSettings{Colormap: "viridis"},
		})
		assert.ErrorIs(t, err, analysis.ErrUnsupportedColormap)
		assert.Equal(t, model.StatusFailed, recorded.Status)
	})
}

func TestAnalysisService_Queries(t *testing.T) {
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		fx := newFixture(t)
		fx.repo.On("List", ctx, repository.AnalysisFilter{
			PageQuery: repository.PageQuery{Limit: 10, Offset: 0},
			Kind:      model.KindMissing,
		}).Return(&repository.PageResult[model.Analysis]{Items: []model.Analysis{{ID: "a"}}, Total: 1}, nil)

		res, err := fx.svc.List(ctx, "missing", 0, -5)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Total)

		_, err = fx.svc.List(ctx, "regression", 10, 0)
		assert.ErrorIs(t, err, service.ErrInvalidRequest)
		fx.assertExpectations(t)
	})

	t.Run("report url", func(t *testing.T) {
		fx := newFixture(t)
		fx.repo.On("FindByID", ctx, "with").Return(&model.Analysis{ID: "with", ReportPath: "reports/with.xlsx"}, nil)
		fx.repo.On("FindByID", ctx, "without").Return(&model.Analysis{ID: "without"}, nil)
		fx.store.On("PresignGet", ctx, "reports/with.xlsx", time.Minute).Return("https://minio/reports/with.xlsx", nil)

		u, err := fx.svc.ReportURL(ctx, "with")
		require.NoError(t, err)
		assert.Equal(t, "https://minio/reports/with.xlsx", u)

		_, err = fx.svc.ReportURL(ctx, "without")
		assert.ErrorIs(t, err, service.ErrNoReport)
		fx.assertExpectations(t)
	})

	t.Run("get", func(t *testing.T) {
		fx := newFixture(t)
		fx.repo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		_, err := fx.svc.Get(ctx, "missing")
		assert.ErrorIs(t, err, service.ErrNotFound)

		_, err = fx.svc.Get(ctx, "")
		assert.ErrorIs(t, err, service.ErrIDRequired)
	})
}
