package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// UsageSubjectPrefix is the NATS subject usage events publish under.
const UsageSubjectPrefix = "fieldz.usage"

// UsageEvent is the metering payload: one scheduler run for one subject.
type UsageEvent struct {
	Subject string `json:"subject"`
	Runs    uint32 `json:"runs"`
}

// NATSUsageHook publishes usage increments to the metering stream.
type NATSUsageHook struct {
	nc *nats.Conn
}

// ConnectUsageHook dials NATS with infinite reconnects so a metering outage
// never takes the scheduler down.
func ConnectUsageHook(url string) (*NATSUsageHook, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSUsageHook{nc: nc}, nil
}

func NewNATSUsageHook(nc *nats.Conn) *NATSUsageHook {
	return &NATSUsageHook{nc: nc}
}

var _ UsageHook = (*NATSUsageHook)(nil)

// Signal publishes one increment for the subject.
func (h *NATSUsageHook) Signal(ctx context.Context, subject string) error {
	payload, err := json.Marshal(UsageEvent{Subject: subject, Runs: 1})
	if err != nil {
		return fmt.Errorf("encode usage event: %w", err)
	}
	if err := h.nc.Publish(fmt.Sprintf("%s.%s", UsageSubjectPrefix, subject), payload); err != nil {
		return fmt.Errorf("publish usage event: %w", err)
	}
	return nil
}

// Close drains the connection.
func (h *NATSUsageHook) Close() {
	h.nc.Close()
}

// NopUsageHook discards usage events; used when metering is not configured.
type NopUsageHook struct{}

func (NopUsageHook) Signal(context.Context, string) error { return nil }
