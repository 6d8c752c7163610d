package config

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is the immutable representation of one loaded configuration
// generation. The file provider hands snapshots to subscribers; nothing
// mutates a snapshot after construction, so it is safe to share.
type Snapshot struct {
	ID         uuid.UUID      `json:"id"`
	Generation int64          `json:"generation"`
	ReceivedAt time.Time      `json:"receivedAt"`
	Steps      []StepSpec     `json:"steps"`
	Pipelines  []PipelineSpec `json:"pipelines"`

	PipelineIndex map[string]PipelineSpec `json:"-"`
}

// NewSnapshot builds a snapshot from a validated config.
func NewSnapshot(cfg *Config, generation int64) Snapshot {
	index := make(map[string]PipelineSpec, len(cfg.Pipelines))
	for _, p := range cfg.Pipelines {
		index[p.Name] = p
	}
	return Snapshot{
		ID:            uuid.New(),
		Generation:    generation,
		ReceivedAt:    time.Now().UTC(),
		Steps:         cfg.Steps,
		Pipelines:     cfg.Pipelines,
		PipelineIndex: index,
	}
}
