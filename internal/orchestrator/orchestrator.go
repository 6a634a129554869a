// Package orchestrator drives one end-to-end scheduling run: feasibility
// report, payload build, stream exchange, and atomic persistence.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mrodz/fieldz/internal/analyzer"
	"github.com/mrodz/fieldz/internal/models"
	"github.com/mrodz/fieldz/internal/payload"
	"github.com/mrodz/fieldz/internal/schedules"
	schedulerv1 "github.com/mrodz/fieldz/internal/wire/schedulerv1"
)

var (
	// ErrCooldown rejects a run started inside the client-side gap.
	ErrCooldown = errors.New("a schedule was requested too recently")
	// ErrReportBlocked rejects a run whose report carries errors.
	ErrReportBlocked = errors.New("the pre-schedule report has blocking errors")
)

// DefaultCooldown is the contractual client-side gap between runs.
const DefaultCooldown = 30 * time.Second

// ScheduleStream is the bidirectional exchange the orchestrator drives.
// *connect.BidiStreamForClient satisfies it through the connect adapter in
// client.go.
type ScheduleStream interface {
	RequestHeader() http.Header
	Send(*schedulerv1.ScheduledInput) error
	CloseRequest() error
	Receive() (*schedulerv1.ScheduledOutput, error)
	CloseResponse() error
}

// StreamOpener opens a fresh stream per run.
type StreamOpener interface {
	Open(ctx context.Context) ScheduleStream
}

// TokenSource supplies the bearer token attached to each run.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// SnapshotLoader reads the configuration a run schedules against.
type SnapshotLoader interface {
	Snapshot(ctx context.Context) (analyzer.Snapshot, error)
}

// ScheduleSaver persists the collected outputs atomically.
type ScheduleSaver interface {
	Save(ctx context.Context, outputs []*schedulerv1.ScheduledOutput, diagnostics schedules.Diagnostics) (*models.Schedule, error)
}

// EventSink receives progress notifications for the UI bridge. Implementations
// must not block.
type EventSink interface {
	Publish(event Event)
}

// Event is one progress notification.
type Event struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

type nopSink struct{}

func (nopSink) Publish(Event) {}

// Orchestrator wires the run pipeline together.
type Orchestrator struct {
	snapshots SnapshotLoader
	saver     ScheduleSaver
	opener    StreamOpener
	tokens    TokenSource
	clock     clockwork.Clock
	cooldown  time.Duration
	events    EventSink

	mu      sync.Mutex
	lastRun time.Time
}

// Config collects the orchestrator's dependencies.
type Config struct {
	Snapshots SnapshotLoader
	Saver     ScheduleSaver
	Opener    StreamOpener
	Tokens    TokenSource
	Clock     clockwork.Clock
	Cooldown  time.Duration
	Events    EventSink
}

func New(cfg Config) *Orchestrator {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.Events == nil {
		cfg.Events = nopSink{}
	}
	return &Orchestrator{
		snapshots: cfg.Snapshots,
		saver:     cfg.Saver,
		opener:    cfg.Opener,
		tokens:    cfg.Tokens,
		clock:     cfg.Clock,
		cooldown:  cfg.Cooldown,
		events:    cfg.Events,
	}
}

// RunInput is the user's request.
type RunInput struct {
	MatchesToPlay     int  `json:"matches_to_play"`
	Interregional     bool `json:"interregional"`
	IncludePostSeason bool `json:"include_post_season"`
}

// RunResult is what a completed run hands back to the caller.
type RunResult struct {
	Schedule      *models.Schedule            `json:"schedule"`
	Report        *analyzer.PreScheduleReport `json:"report"`
	UnplacedPairs map[uint32]int              `json:"unplaced_pairs,omitempty"`
}

// Preview computes the feasibility report without scheduling.
func (o *Orchestrator) Preview(ctx context.Context, input RunInput) (*analyzer.PreScheduleReport, error) {
	snap, err := o.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return analyzer.Analyze(snap, analyzer.Input{
		MatchesToPlay: input.MatchesToPlay,
		Interregional: input.Interregional,
	})
}

// Run executes the full pipeline. On success a new Schedule exists; on any
// error nothing is persisted.
func (o *Orchestrator) Run(ctx context.Context, input RunInput) (*RunResult, error) {
	if err := o.checkCooldown(); err != nil {
		return nil, err
	}

	o.events.Publish(Event{Stage: "report", Message: "analyzing configuration"})

	snap, err := o.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	report, err := analyzer.Analyze(snap, analyzer.Input{
		MatchesToPlay: input.MatchesToPlay,
		Interregional: input.Interregional,
	})
	if err != nil {
		return nil, err
	}
	if report.HasBlockingErrors() {
		return &RunResult{Report: report}, ErrReportBlocked
	}

	o.events.Publish(Event{Stage: "build", Message: "building payloads"})

	opts := payload.Options{
		MatchesToPlay: input.MatchesToPlay,
		Interregional: input.Interregional,
		Phase:         models.PhaseNormal,
		FirstID:       1,
	}
	inputs := payload.Build(snap, report, opts)

	if input.IncludePostSeason {
		// the post season consumes whatever supply the normal phase
		// left behind
		remaining := uint64(0)
		if report.TotalMatchesSupplied > report.TotalMatchesRequired {
			remaining = report.TotalMatchesSupplied - report.TotalMatchesRequired
		}
		postReport, err := analyzer.Analyze(snap, analyzer.Input{
			MatchesToPlay:        input.MatchesToPlay,
			Interregional:        input.Interregional,
			TotalMatchesSupplied: &remaining,
		})
		if err != nil {
			return nil, err
		}
		postOpts := payload.Options{
			MatchesToPlay: input.MatchesToPlay,
			Interregional: input.Interregional,
			Phase:         models.PhasePost,
			FirstID:       opts.FirstID + uint32(len(inputs)),
		}
		inputs = append(inputs, payload.Build(snap, postReport, postOpts)...)
	}

	if len(inputs) == 0 {
		return &RunResult{Report: report}, errors.New("nothing to schedule")
	}

	outputs, err := o.exchange(ctx, inputs)
	if err != nil {
		return nil, err
	}

	unplaced := diagnoseUnplaced(inputs, outputs)
	o.events.Publish(Event{Stage: "persist", Message: "saving schedule"})

	schedule, err := o.saver.Save(ctx, outputs, schedules.Diagnostics{UnplacedPairs: unplaced})
	if err != nil {
		return nil, fmt.Errorf("failed to save schedule: %w", err)
	}

	o.markRun()
	o.events.Publish(Event{Stage: "done", Message: schedule.Name})

	return &RunResult{
		Schedule:      schedule,
		Report:        report,
		UnplacedPairs: unplaced,
	}, nil
}

// exchange sends every input and collects every output from one stream.
func (o *Orchestrator) exchange(ctx context.Context, inputs []*schedulerv1.ScheduledInput) ([]*schedulerv1.ScheduledOutput, error) {
	token, err := o.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain token: %w", err)
	}

	stream := o.opener.Open(ctx)
	stream.RequestHeader().Set("Authorization", "Bearer "+token)

	o.events.Publish(Event{Stage: "stream", Message: fmt.Sprintf("scheduling %d targets", len(inputs))})

	for _, in := range inputs {
		if err := stream.Send(in); err != nil {
			return nil, fmt.Errorf("failed to send payload %d: %w", in.UniqueID, err)
		}
	}
	if err := stream.CloseRequest(); err != nil {
		return nil, fmt.Errorf("failed to close send side: %w", err)
	}

	var outputs []*schedulerv1.ScheduledOutput
	for {
		out, err := stream.Receive()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stream failed: %w", err)
		}
		outputs = append(outputs, out)
		log.Debug().Uint32("unique_id", out.UniqueID).Int("reservations", len(out.TimeSlots)).Msg("collected output")
	}
	if err := stream.CloseResponse(); err != nil {
		return nil, fmt.Errorf("failed to close receive side: %w", err)
	}

	if len(outputs) != len(inputs) {
		return nil, fmt.Errorf("stream returned %d outputs for %d inputs", len(outputs), len(inputs))
	}
	return outputs, nil
}

// diagnoseUnplaced compares demanded pairs against booked reservations per
// input id.
func diagnoseUnplaced(inputs []*schedulerv1.ScheduledInput, outputs []*schedulerv1.ScheduledOutput) map[uint32]int {
	demand := make(map[uint32]int, len(inputs))
	for _, in := range inputs {
		total := 0
		for _, group := range in.TeamGroups {
			n := len(group.Teams)
			if in.IsPractice {
				total += n
			} else {
				total += n * (n - 1) / 2
			}
		}
		demand[in.UniqueID] = total
	}

	unplaced := make(map[uint32]int)
	for _, out := range outputs {
		if missing := demand[out.UniqueID] - len(out.TimeSlots); missing > 0 {
			unplaced[out.UniqueID] = missing
		}
	}
	return unplaced
}

func (o *Orchestrator) checkCooldown() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.lastRun.IsZero() && o.clock.Since(o.lastRun) < o.cooldown {
		return ErrCooldown
	}
	return nil
}

func (o *Orchestrator) markRun() {
	o.mu.Lock()
	o.lastRun = o.clock.Now()
	o.mu.Unlock()
}
