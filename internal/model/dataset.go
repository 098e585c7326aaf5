package model

import "time"

// Dataset is an uploaded table. The CSV itself lives in object storage at
// StoragePath; this record keeps its shape so callers need not fetch it.
type Dataset struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Filename    string    `json:"filename"`
	StoragePath string    `json:"storage_path"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	ColumnNames []string  `json:"column_names"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}
