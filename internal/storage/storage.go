// Package storage contains object storage abstractions for S3-compatible stores.
// Implementations stream data and never touch local disk.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"time"
)

var (
	ErrInvalidConfig  = errors.New("invalid object storage config")
	ErrObjectNotFound = errors.New("object not found")
)

// Key prefixes separate uploaded datasets from generated reports.
const (
	DatasetPrefix = "datasets/"
	ReportPrefix  = "reports/"
)

// DatasetKey returns the object key of an uploaded dataset.
func DatasetKey(id string) string {
	return path.Join(DatasetPrefix, id+".csv")
}

// ReportKey returns the object key of an analysis report with the given extension.
func ReportKey(analysisID, ext string) string {
	return path.Join(ReportPrefix, analysisID+"."+ext)
}

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
// Filename, when set, is offered to browsers as the download name.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Filename    string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable, S3-compatible object storage client interface.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	// A missing key yields ErrObjectNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Ping reports whether the bucket is reachable.
	Ping(ctx context.Context) error
}
