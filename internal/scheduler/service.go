// Package scheduler is the streaming service: it authenticates each call,
// feeds ScheduledInputs through the engine, and emits ScheduledOutputs in
// input order.
package scheduler

import (
	"context"
	"errors"
	"io"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"

	"github.com/mrodz/fieldz/internal/engine"
	schedulerv1 "github.com/mrodz/fieldz/internal/wire/schedulerv1"
	"github.com/mrodz/fieldz/internal/wire/schedulerv1/schedulerv1connect"
)

// Stream timeouts from the service contract.
const (
	HealthProbeTimeout = 2 * time.Second
	StreamIdleTimeout  = 120 * time.Second
	StreamDeadline     = 15 * time.Minute
)

// Service implements the SchedulerService streaming contract.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Verify that Service implements the SchedulerService handler interface
var _ schedulerv1connect.SchedulerServiceHandler = (*Service)(nil)

// Schedule consumes inputs until the client closes its side, answering each
// with exactly one output. A malformed input aborts only itself; the stream
// stays open for the rest.
func (s *Service) Schedule(ctx context.Context, stream *connect.BidiStream[schedulerv1.ScheduledInput, schedulerv1.ScheduledOutput]) error {
	subject, _ := SubjectFromContext(ctx)
	logger := log.With().Str("subject", subject).Logger()

	idle := time.NewTimer(StreamIdleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return connect.NewError(connect.CodeDeadlineExceeded, ctx.Err())
		case <-idle.C:
			return connect.NewError(connect.CodeDeadlineExceeded,
				errors.New("stream idle timeout elapsed"))
		default:
		}

		input, err := stream.Receive()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		idle.Reset(StreamIdleTimeout)

		teamCount := 0
		for _, group := range input.TeamGroups {
			teamCount += len(group.Teams)
		}
		logger.Info().
			Uint32("unique_id", input.UniqueID).
			Int("fields", len(input.Fields)).
			Int("teams", teamCount).
			Msg("received payload")

		started := time.Now()
		output, err := engine.Schedule(input)
		elapsed := time.Since(started)

		var malformed *engine.MalformedInputError
		if errors.As(err, &malformed) {
			// one bad input must not kill the stream; answer with an
			// empty output so ordering by unique_id is preserved
			logger.Error().Err(malformed).Uint32("unique_id", input.UniqueID).Msg("rejected malformed input")
			if sendErr := stream.Send(&schedulerv1.ScheduledOutput{UniqueID: input.UniqueID}); sendErr != nil {
				return sendErr
			}
			continue
		}
		if err != nil {
			logger.Error().Err(err).Uint32("unique_id", input.UniqueID).Msg("engine failure")
			return connect.NewError(connect.CodeInternal, err)
		}

		logger.Info().
			Uint32("unique_id", input.UniqueID).
			Int("reservations", len(output.Reservations)).
			Dur("took", elapsed).
			Msg("scheduled")

		if output.Unplaced > 0 {
			logger.Warn().
				Uint32("unique_id", input.UniqueID).
				Int("unplaced_pairs", output.Unplaced).
				Msg("lanes exhausted before every pair was placed")
		}

		if err := stream.Send(output.Wire()); err != nil {
			return err
		}
	}
}
