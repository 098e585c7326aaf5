package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"workbench/internal/frame"
	"workbench/internal/model"
	"workbench/internal/service"
)

type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) Upload(ctx context.Context, r io.Reader, originalFilename, contentType string, size int64, name string) (*model.Dataset, error) {
	args := m.Called(ctx, r, originalFilename, contentType, size, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dataset), args.Error(1)
}

func (m *MockDatasetService) Save(ctx context.Context, f *frame.Frame, name string) (*model.Dataset, error) {
	args := m.Called(ctx, f, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dataset), args.Error(1)
}

func (m *MockDatasetService) List(ctx context.Context, limit, offset int) (*service.DatasetListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DatasetListResult), args.Error(1)
}

func (m *MockDatasetService) Get(ctx context.Context, id string) (*model.Dataset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Dataset), args.Error(1)
}

func (m *MockDatasetService) Load(ctx context.Context, id string) (*frame.Frame, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*frame.Frame), args.Error(1)
}

func (m *MockDatasetService) DownloadURL(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockDatasetService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Correlate(ctx context.Context, req service.CorrelationRequest) (*service.CorrelationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CorrelationResult), args.Error(1)
}

func (m *MockAnalysisService) ControlCovariates(ctx context.Context, req service.CovariateRequest) (*service.CovariateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CovariateResult), args.Error(1)
}

func (m *MockAnalysisService) ExploreMissing(ctx context.Context, req service.MissingRequest) (*service.MissingResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MissingResult), args.Error(1)
}

func (m *MockAnalysisService) List(ctx context.Context, kind string, limit, offset int) (*service.AnalysisListResult, error) {
	args := m.Called(ctx, kind, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalysisListResult), args.Error(1)
}

func (m *MockAnalysisService) Get(ctx context.Context, id string) (*model.Analysis, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Analysis), args.Error(1)
}

func (m *MockAnalysisService) ReportURL(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}
