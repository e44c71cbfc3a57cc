package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/example/chatroom-hub/modules/api"
	"github.com/example/chatroom-hub/modules/hub"
	"github.com/example/chatroom-hub/modules/store"
	"github.com/example/chatroom-hub/pkg/config"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Chatroom Hub - Fiber + EventBus Pubsub ===")

	cfg := config.Load()

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	hubModule := hub.NewModule(hub.SweeperConfig{
		Interval:    cfg.SweepInterval,
		IdleTimeout: cfg.IdleTimeout,
	}, app.Logger())
	storeModule := store.NewModule(cfg.DBPath)
	apiModule := api.NewModule(cfg.Port, cfg.CORSAllowedOrigins)

	// Inject the hub service into the API module.
	// (Done manually because the hub is not exposed via ServiceContainer)
	apiModule.SetHub(hubModule.Service())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - store: Durable messages/reactions (EventConsumerModule + ServiceProviderModule)
	// - hub: Presence registry + broadcast engine (depends on store for rehydration)
	// - api: Driving adapter (Fiber HTTP/WebSocket server, depends on store)
	app.Register(storeModule)
	app.Register(hubModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg *config.Config) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Event Bus: NATS JetStream (internal pubsub)")
	log.Printf("  - NATS URL: %s", natsURL)
	log.Printf("  - Database: SQLite (%s)", cfg.DBPath)
	log.Println("")
	log.Println("Event-Driven Persistence:")
	log.Println("  - MessageSent/Edited/Deleted events -> store module -> SQLite")
	log.Println("  - ReactionAdded/Removed events -> store module -> SQLite")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", cfg.Port)
	log.Println("  GET    /health                          - Health check")
	log.Println("  GET    /api/v1/messages                 - Message history")
	log.Println("  GET    /api/v1/messages/:id             - Message details")
	log.Println("  GET    /api/v1/messages/:id/reactions   - Message reactions")
	log.Println("  GET    /api/v1/users/active             - Active users")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", cfg.Port)
	log.Println("  Calls: joinRoom, sendMessage, sendTypingStatus, editMessage,")
	log.Println("         deleteMessage, addReaction, removeReaction, getReactions")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
