package model

import (
	"encoding/json"
	"time"
)

// Analysis records one run of an analysis routine over stored datasets.
type Analysis struct {
	ID                string          `json:"id"`
	Kind              AnalysisKind    `json:"kind"`
	Status            AnalysisStatus  `json:"status"`
	DatasetIDs        []string        `json:"dataset_ids"`
	Params            json.RawMessage `json:"params,omitempty"`
	Summary           json.RawMessage `json:"summary,omitempty"`
	ReportPath        string          `json:"report_path,omitempty"`
	ReportContentType string          `json:"report_content_type,omitempty"`
	Error             string          `json:"error,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	FinishedAt        *time.Time      `json:"finished_at,omitempty"`
}
