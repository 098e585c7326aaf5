package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"workbench/internal/frame"
	"workbench/internal/model"
	"workbench/internal/repository"
	"workbench/internal/storage"
)

const csvContentType = "text/csv"

// DatasetListResult is the service-level DTO for paginated datasets.
type DatasetListResult struct {
	Items []model.Dataset `json:"data"`
	Total int             `json:"total"`
}

// DatasetService defines the use cases for handling datasets.
type DatasetService interface {
	// Upload parses the CSV, stores it in object storage and saves its metadata.
	// The stored object is removed again if the metadata cannot be saved.
	// An empty name falls back to the original file name without extension.
	Upload(ctx context.Context, r io.Reader, originalFilename, contentType string, size int64, name string) (*model.Dataset, error)

	// Save stores a frame produced by an analysis as a new dataset.
	Save(ctx context.Context, f *frame.Frame, name string) (*model.Dataset, error)

	// List returns datasets using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*DatasetListResult, error)

	// Get returns a single dataset by its ID.
	Get(ctx context.Context, id string) (*model.Dataset, error)

	// Load fetches and parses the stored CSV of a dataset.
	Load(ctx context.Context, id string) (*frame.Frame, error)

	// DownloadURL returns a pre-signed URL for the stored CSV.
	DownloadURL(ctx context.Context, id string) (string, error)

	// Delete removes a dataset from both storage and repository.
	Delete(ctx context.Context, id string) error
}

type datasetService struct {
	store         storage.Storage
	repo          repository.DatasetRepository
	presignExpiry time.Duration
}

// NewDatasetService constructs a new DatasetService.
func NewDatasetService(store storage.Storage, repo repository.DatasetRepository, presignExpiry time.Duration) DatasetService {
	return &datasetService{store: store, repo: repo, presignExpiry: presignExpiry}
}

func (s *datasetService) Upload(ctx context.Context, r io.Reader, originalFilename, contentType string, size int64, name string) (ds *model.Dataset, err error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	ctx, span := tracer.Start(ctx, "DatasetService.Upload")
	defer func() { endSpan(span, err) }()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if name == "" {
		name = baseName(originalFilename)
	}
	f, err := frame.ParseCSV(bytes.NewReader(data), name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	span.SetAttributes(
		attribute.Int("dataset.rows", f.Rows()),
		attribute.Int("dataset.columns", f.Width()),
		attribute.Int64("dataset.size", int64(len(data))),
	)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = csvContentType
	}
	return s.persist(ctx, f, data, originalFilename, contentType, name)
}

func (s *datasetService) Save(ctx context.Context, f *frame.Frame, name string) (ds *model.Dataset, err error) {
	ctx, span := tracer.Start(ctx, "DatasetService.Save")
	defer func() { endSpan(span, err) }()

	var buf bytes.Buffer
	if err := f.WriteCSV(&buf); err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	if name == "" {
		name = f.Name
	}
	return s.persist(ctx, f, buf.Bytes(), name+".csv", csvContentType, name)
}

// persist uploads data, then records its metadata, rolling back the object on failure.
func (s *datasetService) persist(ctx context.Context, f *frame.Frame, data []byte, filename, contentType, name string) (*model.Dataset, error) {
	id := uuid.New().String()
	key := storage.DatasetKey(id)

	objInfo, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: contentType,
		Filename:    filename,
		Metadata: map[string]string{
			"original-filename": filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	ds := &model.Dataset{
		ID:          id,
		Name:        name,
		Filename:    filename,
		StoragePath: objInfo.Key,
		Rows:        f.Rows(),
		Columns:     f.Width(),
		ColumnNames: append([]string(nil), f.Columns...),
		Size:        int64(len(data)),
		ContentType: contentType,
		CreatedAt:   time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, ds)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// List returns paginated datasets without exposing repository types.
func (s *datasetService) List(ctx context.Context, limit, offset int) (*DatasetListResult, error) {
	limit, offset = normalizePage(limit, offset)
	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DatasetListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *datasetService) Get(ctx context.Context, id string) (*model.Dataset, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	ds, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("dataset %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return ds, nil
}

func (s *datasetService) Load(ctx context.Context, id string) (f *frame.Frame, err error) {
	ctx, span := tracer.Start(ctx, "DatasetService.Load")
	span.SetAttributes(attribute.String("dataset.id", id))
	defer func() { endSpan(span, err) }()

	ds, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rc, _, err := s.store.Get(ctx, ds.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("dataset %s content: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch dataset %s: %w", id, err)
	}
	defer rc.Close()

	f, err = frame.ParseCSV(rc, ds.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: dataset %s: %v", ErrInvalidDataset, id, err)
	}
	return f, nil
}

func (s *datasetService) DownloadURL(ctx context.Context, id string) (string, error) {
	ds, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, ds.StoragePath, s.presignExpiry)
}

// Delete removes the stored object first, then the record. The record is
// kept when the storage delete fails.
func (s *datasetService) Delete(ctx context.Context, id string) error {
	ds, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, ds.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, id)
}
