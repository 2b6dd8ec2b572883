package run

import "time"

// SampleState is one node of the per-sample state machine:
// Pending -> Reading -> Classifying -> Aggregating -> Filtering ->
// Scoring -> Done, or Pending -> ... -> Failed at any stage.
type SampleState string

const (
	StatePending     SampleState = "pending"
	StateReading     SampleState = "reading"
	StateClassifying SampleState = "classifying"
	StateAggregating SampleState = "aggregating"
	StateFiltering   SampleState = "filtering"
	StateScoring     SampleState = "scoring"
	StateDone        SampleState = "done"
	StateFailed      SampleState = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s SampleState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// SampleSpec names one sample of a batch and where its reads live.
type SampleSpec struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// SourceStats accumulates per-source read accounting from the
// sequence reader.
type SourceStats struct {
	Source         string  `json:"source"`
	TotalReads     int     `json:"total_reads"`
	Passed         int     `json:"passed"`
	DroppedShort   int     `json:"dropped_short"`
	DroppedQuality int     `json:"dropped_quality"`
	Malformed      int     `json:"malformed"`
	MeanLength     float64 `json:"mean_length"`
	MedianLength   float64 `json:"median_length"`
	MeanQuality    float64 `json:"mean_quality"`
	QualityP10     float64 `json:"quality_p10"`
}

// Outcome is the terminal record of one sample within a batch. For
// failures ErrKind carries the machine-readable error taxonomy entry.
type Outcome struct {
	SampleID   string        `json:"sample_id"`
	State      SampleState   `json:"state"`
	Score      float64       `json:"score,omitempty"`
	Category   string        `json:"category,omitempty"`
	ErrKind    string        `json:"error_kind,omitempty"`
	ErrMessage string        `json:"error_message,omitempty"`
	Attempts   int           `json:"attempts"`
	Duration   time.Duration `json:"duration"`
	Stats      *SourceStats  `json:"stats,omitempty"`
}

// Summary is the always-produced batch result: every sample's terminal
// state, never a silent partial batch. Outcomes accumulate in
// completion order; no submission-order guarantee exists.
type Summary struct {
	BatchID    string    `json:"batch_id"`
	Database   string    `json:"database"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Done       int       `json:"done"`
	Failed     int       `json:"failed"`
	Outcomes   []Outcome `json:"outcomes"`
}
