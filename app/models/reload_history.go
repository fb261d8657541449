package models

import (
	"time"

	"github.com/commission-finder/internal/commission"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reload triggers
const (
	TriggerStartup = "startup"
	TriggerWatcher = "watcher"
	TriggerAPI     = "api"
)

// ReloadHistory is one persisted reload attempt.
type ReloadHistory struct {
	ID            primitive.ObjectID        `bson:"_id,omitempty" json:"id,omitempty"`
	ReloadID      string                    `bson:"reload_id" json:"reload_id"`
	Marketplace   string                    `bson:"marketplace" json:"marketplace"`
	Trigger       string                    `bson:"trigger" json:"trigger"`
	Generation    uint64                    `bson:"generation" json:"generation"`
	Changed       bool                      `bson:"changed" json:"changed"`
	Forced        bool                      `bson:"forced" json:"forced"`
	RecordsBefore int                       `bson:"records_before" json:"records_before"`
	RecordsAfter  int                       `bson:"records_after" json:"records_after"`
	DroppedRows   int                       `bson:"dropped_rows" json:"dropped_rows"`
	BlankRows     int                       `bson:"blank_rows" json:"blank_rows"`
	DuplicateRows int                       `bson:"duplicate_rows" json:"duplicate_rows"`
	Scaled        bool                      `bson:"scaled" json:"scaled"`
	Malformed     []commission.MalformedRow `bson:"malformed,omitempty" json:"malformed,omitempty"`
	Checksum      string                    `bson:"checksum,omitempty" json:"checksum,omitempty"`
	Error         string                    `bson:"error,omitempty" json:"error,omitempty"`
	StartedAt     time.Time                 `bson:"started_at" json:"started_at"`
	DurationMs    int64                     `bson:"duration_ms" json:"duration_ms"`
}

// NewReloadHistory flattens a report for storage.
func NewReloadHistory(reloadID, trigger string, r *commission.ReloadReport) *ReloadHistory {
	return &ReloadHistory{
		ReloadID:      reloadID,
		Marketplace:   r.Marketplace,
		Trigger:       trigger,
		Generation:    r.Generation,
		Changed:       r.Changed,
		Forced:        r.Forced,
		RecordsBefore: r.RecordsBefore,
		RecordsAfter:  r.RecordsAfter,
		DroppedRows:   r.DroppedRows,
		BlankRows:     r.BlankRows,
		DuplicateRows: r.DuplicateRows,
		Scaled:        r.Scaled,
		Malformed:     r.Malformed,
		Checksum:      r.Checksum,
		Error:         r.Error,
		StartedAt:     r.StartedAt,
		DurationMs:    r.Duration.Milliseconds(),
	}
}

// Failed reports whether the attempt kept the previous generation because of
// an error.
func (h *ReloadHistory) Failed() bool {
	return h.Error != ""
}
