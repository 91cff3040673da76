package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/beatvote/beatvote/internal/domain"
	"github.com/beatvote/beatvote/internal/infrastructure/catalog"
	"github.com/beatvote/beatvote/internal/infrastructure/configs"
	"github.com/beatvote/beatvote/internal/infrastructure/events"
	"github.com/beatvote/beatvote/internal/infrastructure/logging"
	"github.com/beatvote/beatvote/internal/infrastructure/messaging"
	"github.com/beatvote/beatvote/internal/infrastructure/ratelimiter"
	"github.com/beatvote/beatvote/internal/infrastructure/tracing"
	"github.com/beatvote/beatvote/internal/infrastructure/ws"
	"github.com/beatvote/beatvote/internal/persistence/db"
	"github.com/beatvote/beatvote/internal/persistence/memory"
	"github.com/beatvote/beatvote/internal/persistence/repository"
	"github.com/beatvote/beatvote/internal/presentation/api"
	"github.com/beatvote/beatvote/internal/presentation/handler/health"
	"github.com/beatvote/beatvote/internal/presentation/handler/rooms"
	"github.com/beatvote/beatvote/internal/presentation/handler/search"
	"github.com/beatvote/beatvote/internal/presentation/handler/songs"
	"github.com/beatvote/beatvote/internal/voting"
)

const (
	serviceName = "beatvote-api"
)

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	logger := logging.NewLogger(logging.NewDefaultConfig())

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	var (
		roomRepository domain.RoomRepository
		songRepository domain.SongRepository
	)

	switch cfg.Store.Driver {
	case "memory":
		roomRepository = memory.NewRoomRepository()
		songRepository = memory.NewSongRepository()
	default:
		client, err := db.NewMongoClient(ctx, cfg.Mongo)
		if err != nil {
			log.Fatal(err)
		}
		defer db.DisconnectMongo(context.Background(), client)

		database := db.GetDatabase(client, cfg.Mongo)
		roomRepository = repository.NewRoomRepository(database)
		songRepository = repository.NewSongRepository(database)

		if err := roomRepository.EnsureIndexes(ctx); err != nil {
			log.Fatal(err)
		}
		if err := songRepository.EnsureIndexes(ctx); err != nil {
			log.Fatal(err)
		}
	}

	hub := ws.NewHub()

	var roomPublisher *events.RoomPublisher
	if cfg.AMQP.Enabled {
		rabbitmq, err := messaging.NewRabbitMQ(cfg.AMQP.URI)
		if err != nil {
			log.Fatal(err)
		}
		defer rabbitmq.Close()

		logger.Info(logging.RabbitMQ, logging.Startup, "rabbitmq connected", nil)
		roomPublisher = events.NewRoomPublisher(rabbitmq)
	}

	engine := voting.NewEngine(roomRepository, songRepository, hub, logger)
	catalogClient := catalog.NewClient(cfg.Catalog, logger)

	roomHandler := rooms.NewHandler(engine, hub, roomPublisher, logger)
	songHandler := songs.NewHandler(engine, roomPublisher, logger)
	searchHandler := search.NewHandler(catalogClient, logger)
	healthHandler := health.NewHandler()

	rl := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		CacheTTL:         cfg.RateLimiter.CacheTTL,
		SourceHeaderKey:  cfg.RateLimiter.SourceHeaderKey,
	})
	app := api.NewApplication(*cfg, roomHandler, songHandler, searchHandler, healthHandler, logger, rl)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatal(logging.General, logging.Shutdown, "server exited with error", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
}
