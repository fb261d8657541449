package commission

import (
	"time"

	"github.com/commission-finder/internal/tabular"
)

// Generation is one atomically published build of a marketplace: its records
// and the index derived from them. Readers hold on to the pointer they
// loaded, so they never see two generations mixed.
type Generation struct {
	Number    uint64
	Records   *RecordSet
	Index     *Index
	Signature tabular.Signature
	LoadedAt  time.Time
	Restored  bool
}

// Len returns the record count; nil generations are empty.
func (g *Generation) Len() int {
	if g == nil {
		return 0
	}
	return g.Records.Len()
}

// Snapshot is the persisted form of a generation.
type Snapshot struct {
	Marketplace string            `json:"marketplace"`
	Generation  uint64            `json:"generation"`
	Records     []Record          `json:"records"`
	Signature   tabular.Signature `json:"signature"`
	SavedAt     time.Time         `json:"saved_at"`
}

// Snapshot captures g for marketplace id.
func (g *Generation) Snapshot(id string) Snapshot {
	return Snapshot{
		Marketplace: id,
		Generation:  g.Number,
		Records:     g.Records.Records(),
		Signature:   g.Signature,
		SavedAt:     time.Now(),
	}
}

// ReloadReport describes one reload attempt.
type ReloadReport struct {
	Marketplace   string         `json:"marketplace"`
	Generation    uint64         `json:"generation"`
	Changed       bool           `json:"changed"`
	Forced        bool           `json:"forced"`
	RecordsBefore int            `json:"records_before"`
	RecordsAfter  int            `json:"records_after"`
	DroppedRows   int            `json:"dropped_rows"`
	BlankRows     int            `json:"blank_rows"`
	DuplicateRows int            `json:"duplicate_rows"`
	Scaled        bool           `json:"scaled"`
	Malformed     []MalformedRow `json:"malformed,omitempty"`
	Checksum      string         `json:"checksum,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	Duration      time.Duration  `json:"duration"`
	Error         string         `json:"error,omitempty"`
}

func (r *ReloadReport) applyStats(s LoadStats) {
	r.DroppedRows = s.Dropped
	r.BlankRows = s.Blank
	r.DuplicateRows = s.Duplicates
	r.Scaled = s.Scaled
	r.Malformed = s.Malformed
}
