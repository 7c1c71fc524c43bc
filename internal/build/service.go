// Package build orchestrates the bundling pipeline. Every execution path (CLI,
// tests) routes through Service so metrics, history and logging behave the
// same everywhere.
package build

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/bundler/internal/config"
	"git.home.luguber.info/inful/bundler/internal/eventstore"
	"git.home.luguber.info/inful/bundler/internal/graph"
	"git.home.luguber.info/inful/bundler/internal/logfields"
	"git.home.luguber.info/inful/bundler/internal/manifest"
	"git.home.luguber.info/inful/bundler/internal/metrics"
	"git.home.luguber.info/inful/bundler/internal/observability"
)

// Request contains all inputs for one build.
type Request struct {
	Config *config.Config
}

// Status represents the outcome of a build execution.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// IsSuccess returns true if the build produced output.
func (s Status) IsSuccess() bool { return s == StatusSuccess }

// Result contains the outcome of a build execution.
type Result struct {
	BuildID  string
	Status   Status
	Manifest *manifest.Manifest
	Graph    *graph.Graph

	Modules int
	Chunks  int

	Timings   map[string]time.Duration
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Service executes builds.
type Service struct {
	recorder metrics.Recorder
	store    eventstore.Store
}

// NewService creates a build service. Nil collaborators degrade to no-ops.
func NewService(recorder metrics.Recorder, store eventstore.Store) *Service {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if store == nil {
		store = eventstore.NoopStore{}
	}
	return &Service{recorder: recorder, store: store}
}

// ResolveGraph runs only the graph construction stage, for inspection
// commands that never emit output.
func (s *Service) ResolveGraph(ctx context.Context, cfg *config.Config) (*graph.Graph, error) {
	bs := newBuildState(cfg, cfg.Policy(), uuid.NewString())
	if err := stageResolveGraph(ctx, s, bs); err != nil {
		return nil, err
	}
	return bs.graph, nil
}

// Run executes the complete pipeline: resolve graph, plan chunks, emit. All
// output appears atomically on success; any failure leaves prior output
// untouched.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	buildID := uuid.NewString()
	policy := req.Config.Policy()

	ctx = observability.WithBuildID(ctx, buildID)
	ctx = observability.WithMode(ctx, string(policy.Mode))

	start := time.Now()
	if err := s.store.RecordBuildStarted(ctx, buildID, string(policy.Mode), start); err != nil {
		observability.WarnContext(ctx, "build history unavailable", logfields.Error(err))
	}

	observability.InfoContext(ctx, "build started",
		slog.Int("entries", len(req.Config.Entries)))

	bs := newBuildState(req.Config, policy, buildID)
	err := s.runStages(ctx, bs, []namedStage{
		{"resolve_graph", stageResolveGraph},
		{"plan_chunks", stagePlanChunks},
		{"emit", stageEmit},
	})

	end := time.Now()
	result := &Result{
		BuildID:   buildID,
		Manifest:  bs.manifest,
		Graph:     bs.graph,
		Chunks:    len(bs.chunks),
		Timings:   bs.timings,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	}
	if bs.graph != nil {
		result.Modules = bs.graph.Len()
	}

	switch {
	case err == nil:
		result.Status = StatusSuccess
	case isCanceled(err):
		result.Status = StatusCanceled
	default:
		result.Status = StatusFailed
	}

	s.recorder.ObserveBuildDuration(result.Duration)
	s.recorder.IncBuildOutcome(string(result.Status))
	if result.Status == StatusSuccess {
		s.recorder.AddModules(result.Modules)
		s.recorder.AddChunks(result.Chunks)
	}

	if ferr := s.store.RecordBuildFinished(ctx, buildID, string(result.Status), end, result.Modules, result.Chunks); ferr != nil {
		observability.WarnContext(ctx, "build history unavailable", logfields.Error(ferr))
	}

	if err != nil {
		observability.ErrorContext(ctx, "build failed",
			logfields.Error(err),
			logfields.DurationMS(float64(result.Duration.Milliseconds())))
		return result, err
	}

	observability.InfoContext(ctx, "build finished",
		slog.Int("modules", result.Modules),
		slog.Int("chunks", result.Chunks),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
	return result, nil
}
