// Package eventstore persists build history: one record per build plus an
// append-only event log per build. The history command reads it back.
package eventstore

import (
	"context"
	"time"
)

// BuildRecord summarizes one build run.
type BuildRecord struct {
	BuildID    string
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string // success, fatal or canceled; empty while running
	Modules    int
	Chunks     int
}

// Event is one timestamped occurrence within a build, e.g. a stage start or a
// fatal error.
type Event struct {
	ID        int64
	BuildID   string
	Type      string
	Timestamp time.Time
	Detail    string
}

// Event types recorded by the build service.
const (
	EventStageStarted  = "stage_started"
	EventStageFinished = "stage_finished"
	EventBuildFailed   = "build_failed"
)

// Store records builds and their events.
type Store interface {
	RecordBuildStarted(ctx context.Context, buildID, mode string, startedAt time.Time) error
	RecordBuildFinished(ctx context.Context, buildID, outcome string, finishedAt time.Time, modules, chunks int) error
	AppendEvent(ctx context.Context, buildID, eventType, detail string) error
	RecentBuilds(ctx context.Context, limit int) ([]BuildRecord, error)
	EventsForBuild(ctx context.Context, buildID string) ([]Event, error)
	Close() error
}
