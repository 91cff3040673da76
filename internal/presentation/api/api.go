package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/beatvote/beatvote/internal/infrastructure/configs"
	"github.com/beatvote/beatvote/internal/infrastructure/logging"
	"github.com/beatvote/beatvote/internal/infrastructure/metrics"
	"github.com/beatvote/beatvote/internal/infrastructure/ratelimiter"
	healthHandler "github.com/beatvote/beatvote/internal/presentation/handler/health"
	roomHandler "github.com/beatvote/beatvote/internal/presentation/handler/rooms"
	searchHandler "github.com/beatvote/beatvote/internal/presentation/handler/search"
	songHandler "github.com/beatvote/beatvote/internal/presentation/handler/songs"
)

type Application struct {
	config        configs.Config
	roomHandler   *roomHandler.Handler
	songHandler   *songHandler.Handler
	searchHandler *searchHandler.Handler
	healthHandler *healthHandler.Handler
	logger        logging.Logger
	ratelimiter   ratelimiter.Limiter
}

func NewApplication(
	config configs.Config,
	roomHandler *roomHandler.Handler,
	songHandler *songHandler.Handler,
	searchHandler *searchHandler.Handler,
	healthHandler *healthHandler.Handler,
	logger logging.Logger,
	ratelimiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:        config,
		roomHandler:   roomHandler,
		songHandler:   songHandler,
		searchHandler: searchHandler,
		healthHandler: healthHandler,
		logger:        logger,
		ratelimiter:   ratelimiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(app.loggerMiddleware)
	r.Use(app.rateLimiterMiddleware)
	r.Use(app.enableCors)

	r.Route("/api", func(r chi.Router) {
		r.Route("/rooms", func(r chi.Router) {
			r.Post("/create", app.roomHandler.CreateRoomHandler)
			r.Post("/join", app.roomHandler.JoinRoomHandler)
			r.Post("/new-round", app.roomHandler.NewRoundHandler)
			r.Get("/events", app.roomHandler.EventsHandler)
		})

		r.Route("/songs", func(r chi.Router) {
			r.Post("/submit", app.songHandler.SubmitSongHandler)
			r.Post("/vote", app.songHandler.VoteHandler)
			r.Post("/finalize", app.songHandler.FinalizeHandler)
			r.Get("/{roomCode}", app.songHandler.ListSongsHandler)
		})

		r.Get("/search/spotify", app.searchHandler.SpotifySearchHandler)

		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
		r.Get("/ready", app.healthHandler.GetHealth)
		r.Get("/live", app.healthHandler.GetHealth)
	})

	r.Handle("/metrics", metrics.Handler())

	return otelhttp.NewHandler(r, "beatvote-api")
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Info(logging.General, logging.Shutdown, "signal caught", map[logging.ExtraKey]any{
			"signal": s.String(),
		})

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		"addr": srv.Addr,
	})

	return nil
}
