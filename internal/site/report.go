package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// BuildReport captures high-level metrics about one site build.
type BuildReport struct {
	SchemaVersion int
	ID            string // unique build identifier
	Mode          string // full | incremental
	Start         time.Time
	End           time.Time

	Pages          int // publishable pages considered this build
	Rendered       int // pages rendered and written
	Skipped        int // pages skipped via unchanged fingerprint
	Failed         int // pages that failed to load or render
	DraftsExcluded int // draft pages filtered out
	Assets         int // static asset files copied
	Pruned         int // stale outputs removed
	BytesWritten   int64

	TemplateSource  string // "embedded" or the override file path
	StageDurations  map[StageName]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	Errors          []error // fatal errors causing build abortion
	Warnings        []error // non-fatal issues (failed pages, prune problems)
	Outcome         BuildOutcome
}

func newBuildReport(mode string) *BuildReport {
	return &BuildReport{
		SchemaVersion:   1,
		ID:              uuid.NewString(),
		Mode:            mode,
		Start:           time.Now(),
		StageDurations:  make(map[StageName]time.Duration),
		StageErrorKinds: make(map[StageName]StageErrorKind),
	}
}

func (r *BuildReport) addWarning(stage StageName, se *StageError) {
	r.Warnings = append(r.Warnings, se)
	r.StageErrorKinds[stage] = se.Kind
}

func (r *BuildReport) addError(stage StageName, se *StageError) {
	r.Errors = append(r.Errors, se)
	r.StageErrorKinds[stage] = se.Kind
}

func (r *BuildReport) finish() {
	if r.End.IsZero() {
		r.End = time.Now()
	}
}

// Duration returns the wall-clock build duration.
func (r *BuildReport) Duration() time.Duration { return r.End.Sub(r.Start) }

// deriveOutcome sets the Outcome field based on recorded errors and warnings.
func (r *BuildReport) deriveOutcome() {
	for _, e := range r.Errors {
		if se, ok := e.(*StageError); ok && se.Kind == StageErrorCanceled {
			r.Outcome = OutcomeCanceled
			return
		}
	}
	if len(r.Errors) > 0 {
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("build=%s mode=%s pages=%d rendered=%d skipped=%d failed=%d assets=%d pruned=%d size=%s duration=%s outcome=%s",
		r.ID, r.Mode, r.Pages, r.Rendered, r.Skipped, r.Failed, r.Assets, r.Pruned,
		humanize.Bytes(uint64(r.BytesWritten)),
		r.Duration().Truncate(time.Millisecond), r.Outcome)
}

// Persist writes the report into the given root directory (the final output
// dir, not staging). It writes build-report.json for machines and
// build-report.txt for humans, each via temp file and rename. Best effort;
// errors are returned for caller logging but do not change build outcome.
func (r *BuildReport) Persist(root string) error {
	if r.End.IsZero() {
		r.finish()
		r.deriveOutcome()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}
	jb, err := json.MarshalIndent(r.sanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	jsonPath := filepath.Join(root, "build-report.json")
	if err := writeFileAtomic(jsonPath, append(jb, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report json: %w", err)
	}
	txtPath := filepath.Join(root, "build-report.txt")
	if err := writeFileAtomic(txtPath, []byte(r.Summary()+"\n"), 0o644); err != nil {
		return fmt.Errorf("write report summary: %w", err)
	}
	return nil
}

// sanitizedCopy returns a copy with error fields converted to strings and
// typed map keys flattened for JSON stability.
func (r *BuildReport) sanitizedCopy() *buildReportSerializable {
	durations := make(map[string]string, len(r.StageDurations))
	for k, v := range r.StageDurations {
		durations[string(k)] = v.Truncate(time.Microsecond).String()
	}
	kinds := make(map[string]string, len(r.StageErrorKinds))
	for k, v := range r.StageErrorKinds {
		kinds[string(k)] = string(v)
	}
	s := &buildReportSerializable{
		SchemaVersion:   r.SchemaVersion,
		ID:              r.ID,
		Mode:            r.Mode,
		Start:           r.Start,
		End:             r.End,
		Pages:           r.Pages,
		Rendered:        r.Rendered,
		Skipped:         r.Skipped,
		Failed:          r.Failed,
		DraftsExcluded:  r.DraftsExcluded,
		Assets:          r.Assets,
		Pruned:          r.Pruned,
		BytesWritten:    r.BytesWritten,
		TemplateSource:  r.TemplateSource,
		StageDurations:  durations,
		StageErrorKinds: kinds,
		Errors:          make([]string, len(r.Errors)),
		Warnings:        make([]string, len(r.Warnings)),
		Outcome:         string(r.Outcome),
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

// buildReportSerializable mirrors BuildReport with JSON-friendly fields.
type buildReportSerializable struct {
	SchemaVersion   int               `json:"schema_version"`
	ID              string            `json:"id"`
	Mode            string            `json:"mode"`
	Start           time.Time         `json:"start"`
	End             time.Time         `json:"end"`
	Pages           int               `json:"pages"`
	Rendered        int               `json:"rendered"`
	Skipped         int               `json:"skipped"`
	Failed          int               `json:"failed"`
	DraftsExcluded  int               `json:"drafts_excluded"`
	Assets          int               `json:"assets"`
	Pruned          int               `json:"pruned"`
	BytesWritten    int64             `json:"bytes_written"`
	TemplateSource  string            `json:"template_source,omitempty"`
	StageDurations  map[string]string `json:"stage_durations"`
	StageErrorKinds map[string]string `json:"stage_error_kinds,omitempty"`
	Errors          []string          `json:"errors"`
	Warnings        []string          `json:"warnings"`
	Outcome         string            `json:"outcome"`
}
