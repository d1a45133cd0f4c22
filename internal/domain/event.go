package domain

import "time"

// PipelineStage identifies a step of the notification pipeline.
type PipelineStage string

const (
	StageNormalize PipelineStage = "NORMALIZE"
	StageResolve   PipelineStage = "RESOLVE"
	StageDedup     PipelineStage = "DEDUP"
	StageEnrich    PipelineStage = "ENRICH"
	StageOrder     PipelineStage = "ORDER"
	StagePersist   PipelineStage = "PERSIST"
	StageDeliver   PipelineStage = "DELIVER"
)

// PipelineEvent is one row of the append-only pipeline event log.
// It records the outcome of a stage for one token, for observability only;
// the pipeline never reads these back to make decisions.
type PipelineEvent struct {
	Stage        PipelineStage
	Status       string // "ok", "skipped", "failed"
	TokenAddress string
	Exchange     string
	Detail       string
	OccurredAt   time.Time
}
