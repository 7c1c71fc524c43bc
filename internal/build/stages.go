package build

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"git.home.luguber.info/inful/bundler/internal/chunk"
	"git.home.luguber.info/inful/bundler/internal/config"
	"git.home.luguber.info/inful/bundler/internal/emit"
	"git.home.luguber.info/inful/bundler/internal/eventstore"
	"git.home.luguber.info/inful/bundler/internal/graph"
	"git.home.luguber.info/inful/bundler/internal/logfields"
	"git.home.luguber.info/inful/bundler/internal/manifest"
	"git.home.luguber.info/inful/bundler/internal/markup"
	"git.home.luguber.info/inful/bundler/internal/metrics"
	"git.home.luguber.info/inful/bundler/internal/mode"
	"git.home.luguber.info/inful/bundler/internal/observability"
	"git.home.luguber.info/inful/bundler/internal/resolver"
	"git.home.luguber.info/inful/bundler/internal/transform"
)

// Stage is a discrete unit of work in the build pipeline.
type Stage func(ctx context.Context, s *Service, bs *buildState) error

type namedStage struct {
	name string
	fn   Stage
}

// StageErrorKind enumerates stage error categories. Every build error is
// fatal; canceled is distinguished for reporting.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"
	StageErrorCanceled StageErrorKind = "canceled"
)

// StageError carries the failing stage and the underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newCanceledStageError(stage string, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

func isCanceled(err error) bool {
	var se *StageError
	if stderrors.As(err, &se) && se.Kind == StageErrorCanceled {
		return true
	}
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

// buildState carries mutable state across stages of one build.
type buildState struct {
	cfg     *config.Config
	policy  mode.Policy
	buildID string

	graph    *graph.Graph
	chunks   []*chunk.Chunk
	manifest *manifest.Manifest

	timings map[string]time.Duration
}

func newBuildState(cfg *config.Config, policy mode.Policy, buildID string) *buildState {
	return &buildState{
		cfg:     cfg,
		policy:  policy,
		buildID: buildID,
		timings: make(map[string]time.Duration),
	}
}

// runStages executes stages in order, recording timing, metrics and history
// events, and stopping on the first failure.
func (s *Service) runStages(ctx context.Context, bs *buildState, stages []namedStage) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.name, ctx.Err())
			s.recorder.IncStageResult(st.name, metrics.ResultCanceled)
			return se
		default:
		}

		stageCtx := observability.WithStage(ctx, st.name)
		_ = s.store.AppendEvent(ctx, bs.buildID, eventstore.EventStageStarted, st.name)
		observability.DebugContext(stageCtx, "stage started")

		t0 := time.Now()
		err := st.fn(stageCtx, s, bs)
		dur := time.Since(t0)
		bs.timings[st.name] = dur
		s.recorder.ObserveStageDuration(st.name, dur)

		if err != nil {
			var se *StageError
			if !stderrors.As(err, &se) {
				if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
					se = newCanceledStageError(st.name, err)
				} else {
					se = newFatalStageError(st.name, err)
				}
			}
			switch se.Kind {
			case StageErrorCanceled:
				s.recorder.IncStageResult(st.name, metrics.ResultCanceled)
			default:
				s.recorder.IncStageResult(st.name, metrics.ResultFatal)
			}
			_ = s.store.AppendEvent(ctx, bs.buildID, eventstore.EventBuildFailed, se.Error())
			return se
		}

		s.recorder.IncStageResult(st.name, metrics.ResultSuccess)
		_ = s.store.AppendEvent(ctx, bs.buildID, eventstore.EventStageFinished, st.name)
		observability.DebugContext(stageCtx, "stage finished",
			logfields.DurationMS(float64(dur.Milliseconds())))
	}
	return nil
}

// stageResolveGraph resolves entry roots and builds the complete module graph.
func stageResolveGraph(ctx context.Context, s *Service, bs *buildState) error {
	res := resolver.New(bs.cfg.Root, bs.cfg.Resolve.VendorDirs, bs.cfg.Resolve.Exclude)

	chain, err := transform.NewChain(bs.cfg.TransformSpecs(), bs.policy, s.recorder)
	if err != nil {
		return err
	}

	entries := bs.cfg.EntryPoints()
	for i := range entries {
		id, err := res.ResolveEntry(entries[i].Root)
		if err != nil {
			return err
		}
		entries[i].Root = id
	}

	builder := graph.NewBuilder(bs.cfg.Root, res, chain, markup.NewScanner(),
		bs.policy, bs.cfg.LoaderOverrides(), bs.cfg.Build.Concurrency)
	s.recorder.SetTransformConcurrency(builder.Concurrency())

	g, err := builder.Build(ctx, entries)
	if err != nil {
		return err
	}
	bs.graph = g
	return nil
}

// stagePlanChunks partitions the graph into chunks.
func stagePlanChunks(ctx context.Context, s *Service, bs *buildState) error {
	chunks, err := chunk.Plan(bs.graph, bs.cfg.SplitRules())
	if err != nil {
		return err
	}
	bs.chunks = chunks
	return nil
}

// stageEmit serializes chunks and swaps the output directory.
func stageEmit(ctx context.Context, s *Service, bs *buildState) error {
	emitter := emit.New(bs.cfg.Root, bs.cfg.Output, bs.policy)
	m, err := emitter.Emit(ctx, bs.buildID, bs.chunks, bs.cfg.StaticAssets())
	if err != nil {
		return err
	}
	bs.manifest = m
	return nil
}
