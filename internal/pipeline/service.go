// Package pipeline runs one reconciliation end to end: read both exports,
// normalize, reconcile, and optionally record the run in history.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/conciliar-dev/conciliar/internal/history"
	"github.com/conciliar-dev/conciliar/internal/id"
	"github.com/conciliar-dev/conciliar/internal/importer"
	"github.com/conciliar-dev/conciliar/internal/logger"
	"github.com/conciliar-dev/conciliar/internal/normalize"
	"github.com/conciliar-dev/conciliar/internal/reconcile"
	"github.com/conciliar-dev/conciliar/internal/report"
)

// Service wires the importer, normalizer, reconciler and history.
type Service struct {
	registry   *importer.Registry
	normalizer *normalize.Normalizer
	recorder   history.Recorder
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder records every successful run.
func WithRecorder(r history.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a pipeline Service.
func NewService(registry *importer.Registry, normalizer *normalize.Normalizer, opts ...Option) *Service {
	s := &Service{
		registry:   registry,
		normalizer: normalizer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Supports reports whether name has an importable extension.
func (s *Service) Supports(name string) bool {
	return s.registry.Supports(name)
}

// Formats lists the importable extensions.
func (s *Service) Formats() []string {
	return s.registry.Formats()
}

// RunParams names the two exports to reconcile.
type RunParams struct {
	BankFile   string
	SystemFile string
	// BankName and SystemName are recorded in history; they default to the
	// base names of the files (uploads pass the client's file names).
	BankName   string
	SystemName string
	Origin     string
}

// Outcome is a finished run.
type Outcome struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Result    reconcile.Result
	Rejected  []*normalize.RowError
}

// Sheets lays out the outcome as report worksheets.
func (o *Outcome) Sheets() []report.Sheet {
	return report.Sheets(o.Result, o.StartedAt)
}

// JSON returns the API representation of the outcome.
func (o *Outcome) JSON() report.JSON {
	doc := report.NewJSON(o.Result)
	doc.RunID = o.RunID
	doc.Rejected = len(o.Rejected)
	return doc
}

// Run reads, normalizes and reconciles both exports. Rows that fail
// normalization are logged and skipped; unreadable files fail the run.
func (s *Service) Run(ctx context.Context, params RunParams) (*Outcome, error) {
	out := &Outcome{
		RunID:     id.NewRunID(),
		StartedAt: s.now(),
	}
	log := logger.FromContext(ctx).With().Str("run_id", id.ShortRunID(out.RunID)).Logger()

	bank, err := s.load(params.BankFile, importer.BankLayout)
	if err != nil {
		return nil, err
	}
	system, err := s.load(params.SystemFile, importer.SystemLayout)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out.Rejected = append(append(out.Rejected, bank.Rejected...), system.Rejected...)
	for _, re := range out.Rejected {
		log.Warn().
			Str("source", string(re.Source)).
			Int("line", re.Line).
			Str("field", re.Field).
			Str("value", re.Value).
			Err(re.Err).
			Msg("skipping row")
	}

	out.Result = reconcile.Run(bank.Records, system.Records)
	out.Duration = s.now().Sub(out.StartedAt)

	st := out.Result.Stats
	log.Info().
		Int("days", st.Days).
		Int("reconciled_days", st.ReconciledDays).
		Str("rate", st.Rate.StringFixed(1)).
		Int("to_add", st.ToAdd).
		Int("to_remove", st.ToRemove).
		Int("rejected", len(out.Rejected)).
		Dur("took", out.Duration).
		Msg("reconciliation complete")

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, s.historyRun(params, out)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// load reads one export with layout and normalizes it as the layout's source.
func (s *Service) load(path string, layout importer.Layout) (normalize.Batch, error) {
	rows, err := s.registry.ReadFile(path, layout)
	if err != nil {
		return normalize.Batch{}, fmt.Errorf("%s file: %w", layout.Name, err)
	}
	return s.normalizer.NormalizeAll(rows, layout.Source), nil
}

func (s *Service) historyRun(params RunParams, out *Outcome) history.Run {
	run := history.Run{
		ID:         out.RunID,
		StartedAt:  out.StartedAt,
		Duration:   out.Duration,
		Origin:     params.Origin,
		BankFile:   nameOr(params.BankName, params.BankFile),
		SystemFile: nameOr(params.SystemName, params.SystemFile),
		Rejected:   len(out.Rejected),
	}
	if run.Origin == "" {
		run.Origin = history.OriginCLI
	}
	run.SetStats(out.Result.Stats)
	return run
}

func nameOr(name, path string) string {
	if name != "" {
		return name
	}
	return filepath.Base(path)
}
