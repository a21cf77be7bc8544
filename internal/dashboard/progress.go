package dashboard

// Stage identifies a step of the report pipeline.
type Stage string

const (
	// StageAuthor covers the author profile lookup.
	StageAuthor Stage = "author"
	// StageWorks covers fetching and indexing the publication corpus.
	StageWorks Stage = "works"
	// StageMetrics covers the works-derived aggregations.
	StageMetrics Stage = "metrics"
	// StageCitations covers the per-work citing-works fetches; events carry
	// Done and Total.
	StageCitations Stage = "citations"
	// StageNetwork covers collaboration network expansion; events carry the
	// Level being populated.
	StageNetwork Stage = "network"
	// StageAssembling covers final report assembly.
	StageAssembling Stage = "assembling"
	// StageCompleted is the terminal success event.
	StageCompleted Stage = "completed"
	// StageFailed is the terminal failure event; Message carries the cause.
	StageFailed Stage = "failed"
)

// Progress is one pipeline progress event.
type Progress struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message,omitempty"`

	// Done and Total count completed citing-works lookups during
	// StageCitations.
	Done  int `json:"done,omitempty"`
	Total int `json:"total,omitempty"`

	// Level is the network expansion level during StageNetwork.
	Level int `json:"level,omitempty"`
}

// ProgressFunc receives pipeline progress events. Callbacks run on the build
// goroutine and must return quickly.
type ProgressFunc func(Progress)
