// Package postgres implements the repository interfaces on PostgreSQL via database/sql.
package postgres

import (
	"encoding/json"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// jsonArg encodes v for a JSONB parameter.
func jsonArg(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// rawArg passes pre-encoded JSON through, mapping empty to def.
func rawArg(raw json.RawMessage, def string) any {
	if len(raw) == 0 {
		if def == "" {
			return nil
		}
		return def
	}
	return string(raw)
}
