// ABOUTME: Semantic deduplication engine for key-point playbooks.
// ABOUTME: Runs embed, graph, group, and merge stages; any failure returns the playbook untouched.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389-research/curate/internal/embeddings"
	"github.com/2389-research/curate/internal/logging"
	"github.com/2389-research/curate/internal/models"
)

// ErrDependencyUnavailable means no embedding backend could be used. The
// playbook is returned unmodified and a warning is logged.
var ErrDependencyUnavailable = errors.New("semantic deduplication unavailable: no embedding provider")

// State is a stage of a deduplication run.
type State int

const (
	StateStart State = iota
	StateSizeGuard
	StateEmbedding
	StateGraph
	StateGroup
	StateMerge
	StateDone
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateSizeGuard:
		return "size_guard"
	case StateEmbedding:
		return "embedding"
	case StateGraph:
		return "graph"
	case StateGroup:
		return "group"
	case StateMerge:
		return "merge"
	case StateDone:
		return "done"
	case StateDegraded:
		return "degraded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ProcessingError is an unexpected failure inside a stage, including
// recovered panics.
type ProcessingError struct {
	Stage State
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("deduplication failed during %s: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Report describes what a run did. Err is set only when State is StateDegraded.
type Report struct {
	RunID     uuid.UUID
	State     State
	Threshold float64
	Entries   int
	Groups    int
	Removed   int
	Merges    []SurvivorUpdate
	Err       error
	Duration  time.Duration
}

// Engine deduplicates playbooks using an embedding Provider.
type Engine struct {
	provider  embeddings.Provider
	logger    *slog.Logger
	lookupEnv LookupEnvFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for warnings and errors.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithLookupEnv replaces os.LookupEnv for threshold resolution.
func WithLookupEnv(fn LookupEnvFunc) Option {
	return func(e *Engine) {
		e.lookupEnv = fn
	}
}

// New creates an Engine. A nil provider behaves as unavailable.
func New(provider embeddings.Provider, opts ...Option) *Engine {
	if provider == nil {
		provider = embeddings.Unavailable{}
	}
	e := &Engine{provider: provider}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.New("dedup")
	}
	return e
}

// Run deduplicates pb and returns it. It never fails: on any problem the
// same playbook comes back unmodified. threshold may be nil.
func Run(ctx context.Context, provider embeddings.Provider, pb *models.Playbook, threshold *float64) *models.Playbook {
	return New(provider).Run(ctx, pb, threshold)
}

// Run deduplicates pb in place and returns the same pointer.
func (e *Engine) Run(ctx context.Context, pb *models.Playbook, threshold *float64) *models.Playbook {
	out, _ := e.RunWithReport(ctx, pb, threshold)
	return out
}

// RunWithReport is Run plus a description of the outcome.
func (e *Engine) RunWithReport(ctx context.Context, pb *models.Playbook, threshold *float64) (*models.Playbook, *Report) {
	start := time.Now()
	report := &Report{RunID: uuid.New(), State: StateStart}
	log := e.logger.With(slog.String("run_id", report.RunID.String()))

	err := e.run(ctx, pb, threshold, report, log)
	report.Duration = time.Since(start)

	if err == nil {
		report.State = StateDone
		if report.Removed > 0 {
			log.Info("deduplicated playbook",
				"entries", report.Entries,
				"groups", report.Groups,
				"removed", report.Removed,
				"threshold", report.Threshold,
				"duration", report.Duration)
		}
		return pb, report
	}

	report.State = StateDegraded
	report.Err = err
	report.Groups = 0
	report.Removed = 0
	report.Merges = nil

	var perr *ProcessingError
	if errors.As(err, &perr) {
		log.Error("deduplication failed, playbook left unchanged",
			"stage", perr.Stage.String(),
			"error", perr.Err)
	} else {
		log.Warn("skipping semantic deduplication", "error", err)
	}
	return pb, report
}

// run executes the stages. Nothing is written to pb until every group has
// been planned; a panic anywhere is turned into a ProcessingError.
func (e *Engine) run(ctx context.Context, pb *models.Playbook, threshold *float64, r *Report, log *slog.Logger) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &ProcessingError{Stage: r.State, Err: fmt.Errorf("panic: %v", rec)}
			log.Debug("recovered panic", "stack", string(debug.Stack()))
		}
	}()

	r.Threshold = ResolveThreshold(threshold, e.lookupEnv)
	if pb == nil {
		r.State = StateSizeGuard
		return nil
	}
	positions := models.Flatten(pb)
	r.Entries = len(positions)

	r.State = StateSizeGuard
	if len(positions) <= 1 {
		return nil
	}

	r.State = StateEmbedding
	if !e.provider.Available() {
		return ErrDependencyUnavailable
	}
	texts := make([]string, len(positions))
	for i, pos := range positions {
		texts[i] = pb.EntryAt(pos).Text
	}
	vectors, err := e.provider.Embed(ctx, texts)
	if err != nil {
		if errors.Is(err, embeddings.ErrUnavailable) {
			return fmt.Errorf("%w: %v", ErrDependencyUnavailable, err)
		}
		return &ProcessingError{Stage: StateEmbedding, Err: err}
	}
	if len(vectors) != len(texts) {
		return &ProcessingError{Stage: StateEmbedding, Err: fmt.Errorf("got %d embeddings for %d entries", len(vectors), len(texts))}
	}

	r.State = StateGraph
	pairs, err := SimilarPairs(vectors, r.Threshold)
	if err != nil {
		return &ProcessingError{Stage: StateGraph, Err: err}
	}

	r.State = StateGroup
	groups, err := Group(len(positions), pairs)
	if err != nil {
		return &ProcessingError{Stage: StateGroup, Err: err}
	}
	if len(groups) == 0 {
		return nil
	}

	r.State = StateMerge
	plan, err := PlanMerge(pb, positions, groups)
	if err != nil {
		return &ProcessingError{Stage: StateMerge, Err: err}
	}
	for _, s := range plan.Survivors {
		log.Debug("merging duplicates", "survivor", s.Name, "absorbed", s.Absorbed)
	}
	plan.Commit(pb)

	r.Groups = len(groups)
	r.Removed = plan.RemovedCount()
	r.Merges = plan.Survivors
	return nil
}

// Summary describes the outcome in one or more human-readable lines.
func (r *Report) Summary() string {
	switch {
	case r.State == StateDegraded:
		return fmt.Sprintf("Deduplication skipped, playbook unchanged: %v", r.Err)
	case r.Removed == 0:
		return fmt.Sprintf("No duplicates found among %d entries (threshold %.2f).", r.Entries, r.Threshold)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Removed %d duplicate entries in %d groups from %d entries (threshold %.2f).",
		r.Removed, r.Groups, r.Entries, r.Threshold)
	for _, m := range r.Merges {
		fmt.Fprintf(&sb, "\n  %s <- %s (helpful=%d, harmful=%d)",
			m.Name, strings.Join(m.Absorbed, ", "), m.Helpful, m.Harmful)
	}
	return sb.String()
}
