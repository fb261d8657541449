// Package tabular turns CSV and XLSX files into header + rows tables and
// tracks their change signatures. It knows nothing about commissions.
package tabular

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// ErrNoHeader is returned when a source holds no non-empty row.
var ErrNoHeader = errors.New("tabular: no header row")

// Table is a materialized dataset: one header row and the data rows below it.
// Rows may be shorter or longer than the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// Cell returns row[idx] trimmed, or "" when the row is too short.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Stamp is the cheap change indicator of a source.
type Stamp struct {
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
	Version uint64    `json:"version,omitempty"`
}

// Equal compares stamps without monotonic clock readings.
func (s Stamp) Equal(o Stamp) bool {
	return s.ModTime.Equal(o.ModTime) && s.Size == o.Size && s.Version == o.Version
}

// Signature identifies the exact content a table was built from.
type Signature struct {
	Stamp    Stamp  `json:"stamp"`
	Checksum string `json:"checksum"`
}

// Source produces tables. Implementations must fail fast and never retry.
type Source interface {
	// Describe returns a human readable location, e.g. a file path.
	Describe() string
	// Stat returns the current stamp without reading the content.
	Stat(ctx context.Context) (Stamp, error)
	// Read materializes the table and its signature.
	Read(ctx context.Context) (*Table, Signature, error)
}

// Checksum hashes raw content.
func Checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func firstNonEmpty(rows [][]string) int {
	for i, row := range rows {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				return i
			}
		}
	}
	return -1
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

// fromRows splits raw rows into header and data. Leading empty rows are
// skipped.
func fromRows(rows [][]string) (*Table, error) {
	start := firstNonEmpty(rows)
	if start < 0 {
		return nil, ErrNoHeader
	}
	return &Table{
		Header: trimAll(rows[start]),
		Rows:   rows[start+1:],
	}, nil
}
