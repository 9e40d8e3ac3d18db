package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ProcessingState is the per-fragment state machine. Transitions are
// one-directional except failed->transcribing on an explicit retry.
type ProcessingState string

const (
	StatePending      ProcessingState = "pending"
	StateTranscribing ProcessingState = "transcribing"
	StateTranscribed  ProcessingState = "transcribed"
	StateFailed       ProcessingState = "failed"
)

// TranscriptSegment is a timestamped span of text, local to one fragment.
// Start and End are fragment-local seconds.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Fragment is one ingested audio chunk plus its transcript and state.
// Fragments are deduplicated by SourceFilename.
type Fragment struct {
	ID              uuid.UUID                                 `gorm:"type:uuid;primaryKey" json:"id"`
	DayDate         string                                    `gorm:"column:day_date;size:10;not null;index" json:"day_date"`
	SourceFilename  string                                    `gorm:"column:source_filename;size:255;not null;uniqueIndex" json:"source_filename"`
	FilePath        string                                    `gorm:"column:file_path;size:512;not null" json:"file_path"`
	FileSizeBytes   int64                                     `gorm:"column:file_size_bytes" json:"file_size_bytes"`
	RecordedAt      time.Time                                 `gorm:"column:recorded_at;not null;index" json:"recorded_at"`
	DurationSeconds float64                                   `gorm:"column:duration_seconds" json:"duration_seconds"`
	OffsetSeconds   float64                                   `gorm:"column:offset_seconds" json:"offset_seconds"`
	Segments        datatypes.JSONType[[]TranscriptSegment]   `gorm:"column:segments" json:"segments"`
	State           ProcessingState                           `gorm:"column:state;size:16;not null;index" json:"state"`
	AttemptCount    int                                       `gorm:"column:attempt_count;not null;default:0" json:"attempt_count"`
	LastError       string                                    `gorm:"column:last_error" json:"last_error,omitempty"`
	CreatedAt       time.Time                                 `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time                                 `gorm:"not null" json:"updated_at"`
}

func (Fragment) TableName() string { return "fragments" }

// Day groups all fragments recorded on one calendar date. Aggregate
// fields are recomputed by the aggregator; summaries are written by the
// summary pipeline and persist until explicitly regenerated.
type Day struct {
	Date                 string    `gorm:"column:date;size:10;primaryKey" json:"date"`
	TotalDurationSeconds float64   `gorm:"column:total_duration_seconds;not null;default:0" json:"total_duration_seconds"`
	FullText             string    `gorm:"column:full_text" json:"full_text,omitempty"`
	MediumSummary        string    `gorm:"column:medium_summary" json:"medium_summary,omitempty"`
	ShortSummary         string    `gorm:"column:short_summary" json:"short_summary,omitempty"`
	CreatedAt            time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time `gorm:"not null" json:"updated_at"`
}

func (Day) TableName() string { return "days" }

func (d *Day) HasMediumSummary() bool { return d.MediumSummary != "" }
func (d *Day) HasShortSummary() bool  { return d.ShortSummary != "" }

// Stats is the process-wide ingestion summary exposed on /stats.
type Stats struct {
	TotalDays            int64      `json:"total_days"`
	TotalFragments       int64      `json:"total_fragments"`
	FailedFragments      int64      `json:"failed_fragments"`
	TotalDurationSeconds float64    `json:"total_duration_seconds"`
	LastRecordedAt       *time.Time `json:"last_recorded_at,omitempty"`
}
