package site

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names.
const (
	StagePrepare     StageName = "prepare_output"
	StageDiscover    StageName = "discover"
	StageRenderPages StageName = "render_pages"
	StageCopyAssets  StageName = "copy_assets"
	StagePrune       StageName = "prune_outputs"
	StageFinalize    StageName = "finalize_output"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}
func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline is a fluent builder for ordered stage definitions.
type Pipeline struct{ defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{defs: make([]StageDef, 0, 4)} }

// Add appends a stage unconditionally.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.defs = append(p.defs, StageDef{Name: name, Fn: fn})
	return p
}

// AddIf appends a stage only if cond is true.
func (p *Pipeline) AddIf(cond bool, name StageName, fn Stage) *Pipeline {
	if cond {
		p.Add(name, fn)
	}
	return p
}

// Build returns a defensive copy of the stage definitions slice.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.defs))
	copy(out, p.defs)
	return out
}

// BuildState carries mutable state across stages of one build.
type BuildState struct {
	Builder *Builder
	Report  *BuildReport
	Docs    []*Document         // loaded, publishable pages
	Keep    map[string]struct{} // source paths whose outputs must survive this build
	Full    bool
	Force   bool
}

func newBuildState(b *Builder, report *BuildReport, opts BuildOptions) *BuildState {
	return &BuildState{
		Builder: b,
		Report:  report,
		Keep:    make(map[string]struct{}),
		Full:    opts.Full,
		Force:   opts.Force,
	}
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal or canceled error. Warning-kind errors are recorded and the
// run continues.
func runStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.Name, ctx.Err())
			bs.Report.addError(st.Name, se)
			return se
		default:
		}
		t0 := time.Now()
		err := st.Fn(ctx, bs)
		bs.Report.StageDurations[st.Name] = time.Since(t0)
		if err == nil {
			continue
		}
		var se *StageError
		if !errors.As(err, &se) {
			// Wrap unknown errors as fatal by default.
			se = newFatalStageError(st.Name, err)
		}
		switch se.Kind {
		case StageErrorWarning:
			bs.Report.addWarning(st.Name, se)
		default:
			bs.Report.addError(st.Name, se)
			return se
		}
	}
	return nil
}
