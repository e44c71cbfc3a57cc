package hub

import (
	"context"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/chatroom-hub/events"
	"github.com/example/chatroom-hub/modules/store"
)

// reactionSource supplies persisted reactions for startup rehydration.
type reactionSource interface {
	AllReactions(ctx context.Context) ([]store.ReactionRecord, error)
}

// Module hosts the chatroom hub: connection registry, presence,
// broadcast engine, reaction aggregator and the expiry sweeper.
type Module struct {
	service   *Service
	sweeper   *Sweeper
	logger    types.Logger
	reactions reactionSource
	cancel    context.CancelFunc
	done      chan struct{}
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.DependentModule       = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates the hub module.
func NewModule(sweeperConfig SweeperConfig, logger types.Logger) *Module {
	service := NewService(logger)
	return &Module{
		service: service,
		sweeper: NewSweeper(service, sweeperConfig, logger),
		logger:  logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "hub"
}

// Service returns the hub service for the transport layer.
func (m *Module) Service() *Service {
	return m.service
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.service.SetEventBus(bus)
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageSentV1.ToBase(),
		events.MessageEditedV1.ToBase(),
		events.MessageDeletedV1.ToBase(),
		events.ReactionAddedV1.ToBase(),
		events.ReactionRemovedV1.ToBase(),
	}
}

// Dependencies returns the list of module dependencies.
func (m *Module) Dependencies() []string {
	return []string{"store"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "store":
		m.reactions = store.NewStoreAdapter(container)
	}
}

// Start rehydrates the reaction table and launches the expiry sweeper.
func (m *Module) Start(ctx context.Context) error {
	if m.reactions != nil {
		if err := m.rehydrateReactions(ctx); err != nil {
			// Live reactions still work; snapshots just start empty.
			m.logger.Warn("Failed to rehydrate reactions", "error", err)
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		m.sweeper.Run(runCtx)
	}()

	m.logger.Info("Hub module started",
		"sweepInterval", m.sweeper.config.Interval,
		"idleTimeout", m.sweeper.config.IdleTimeout)
	return nil
}

// rehydrateReactions reloads persisted reactions into the live table so
// reaction snapshots stay complete across restarts.
func (m *Module) rehydrateReactions(ctx context.Context) error {
	records, err := m.reactions.AllReactions(ctx)
	if err != nil {
		return err
	}

	for _, record := range records {
		m.service.SeedReaction(record.MessageID, record.Emoji, record.Username)
	}

	m.logger.Info("Rehydrated reactions", "count", len(records))
	return nil
}

// Stop cancels the sweeper and waits for it to finish.
func (m *Module) Stop(_ context.Context) error {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
	m.logger.Info("Hub module stopped", "connections", m.service.Registry().Len())
	return nil
}

// Health reports live connection and active user counts.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connections":  m.service.Registry().Len(),
			"active_users": len(m.service.ActiveUsers()),
		},
	}
}
