package hub

import (
	"context"
	"time"

	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/chatroom-hub/domain/chatroom"
)

// SweeperConfig controls eviction of inactive connections.
type SweeperConfig struct {
	Interval    time.Duration
	IdleTimeout time.Duration
}

// DefaultSweeperConfig returns the default sweep cadence.
func DefaultSweeperConfig() SweeperConfig {
	return SweeperConfig{
		Interval:    5 * time.Minute,
		IdleTimeout: 30 * time.Minute,
	}
}

// Sweeper periodically evicts connections whose last activity is older
// than the idle timeout. Eviction goes through the same Disconnect
// path as an explicit disconnect, so leave notifications and
// active-user snapshots behave identically for both.
type Sweeper struct {
	service *Service
	config  SweeperConfig
	logger  types.Logger
}

// NewSweeper creates a sweeper over the hub service.
func NewSweeper(service *Service, config SweeperConfig, logger types.Logger) *Sweeper {
	if config.Interval <= 0 {
		config.Interval = DefaultSweeperConfig().Interval
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = DefaultSweeperConfig().IdleTimeout
	}
	return &Sweeper{
		service: service,
		config:  config,
		logger:  logger,
	}
}

// Run sweeps on a fixed period until the context is cancelled. Each
// run is independent and idempotent.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep evicts every connection inactive beyond the idle timeout. The
// targeted connection may already be gone between scan and eviction;
// send failures are swallowed.
func (s *Sweeper) Sweep() {
	cutoff := time.Now().UTC().Add(-s.config.IdleTimeout)
	idle := s.service.Registry().IdleConnections(cutoff)

	for _, conn := range idle {
		s.logger.Info("Evicting idle connection",
			"connID", conn.ID, "username", conn.Username, "lastActivity", conn.LastActivityAt)

		if conn.Sender != nil {
			notice := Event{Type: EventDisconnected, Payload: chatroom.Disconnected{Reason: chatroom.DisconnectReasonTimeout}}
			if err := conn.Sender.Send(notice); err != nil {
				s.logger.Debug("Timeout notice undeliverable", "connID", conn.ID, "error", err)
			}
		}

		s.service.Disconnect(conn.ID)

		if conn.Sender != nil {
			_ = conn.Sender.Close()
		}
	}
}
