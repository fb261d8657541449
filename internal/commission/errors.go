package commission

import "errors"

var (
	// ErrSchemaMismatch means a canonical field had no matching header. The
	// marketplace keeps its previous generation.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrEmptyDataset means no row survived parsing.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrUnknownMarketplace is returned for ids missing from the registry.
	ErrUnknownMarketplace = errors.New("unknown marketplace")

	// ErrLoad wraps I/O failures of a source. Never retried here.
	ErrLoad = errors.New("load error")
)

// MalformedRow describes a dropped row. Row is 1-based and counts the header
// line, so it matches what a spreadsheet shows.
type MalformedRow struct {
	Row    int    `json:"row" bson:"row"`
	Reason string `json:"reason" bson:"reason"`
}
