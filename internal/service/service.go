// Package service holds the use cases behind the HTTP API: dataset storage
// and the analysis runs over stored datasets.
package service

import (
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrIDRequired     = errors.New("id is required")
	ErrNotFound       = errors.New("not found")
	ErrReaderNil      = errors.New("reader is nil")
	ErrInvalidDataset = errors.New("invalid dataset")
	ErrInvalidRequest = errors.New("invalid request")
	ErrAnalysisFailed = errors.New("analysis failed")
	ErrNoReport       = errors.New("analysis has no report")
)

var tracer = otel.Tracer("workbench/internal/service")

// endSpan records err on span before ending it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// normalizePage applies the default page size and clamps negative offsets.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func baseName(filename string) string {
	name := filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}
