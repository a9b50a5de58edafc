// Package server initializes and runs the PlaceKeeper application server.
// It opens the database, applies migrations, wires the services and their
// collaborators, and starts the HTTP endpoint with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/placekeeper/placekeeper/internal/logging"
	"github.com/placekeeper/placekeeper/internal/server/config"
	"github.com/placekeeper/placekeeper/internal/server/geo"
	"github.com/placekeeper/placekeeper/internal/server/mail"
	"github.com/placekeeper/placekeeper/internal/server/repositories/repomanager"
	"github.com/placekeeper/placekeeper/internal/server/rest"
	"github.com/placekeeper/placekeeper/internal/server/services"
	"github.com/placekeeper/placekeeper/internal/server/storage"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	userService  *services.UserService
	placeService *services.PlaceService
	imageStore   *storage.S3Store
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store := storage.NewS3Store(cfg)
	mailer := mail.NewSMTPMailer(cfg)
	geocoder := geo.NewClient(cfg)

	us := services.NewUserService(db, rm, mailer, logger, cfg)
	ps := services.NewPlaceService(db, rm, geocoder, store, logger)

	return &App{
		config:       cfg,
		logger:       logger,
		db:           db,
		userService:  us,
		placeService: ps,
		imageStore:   store,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := rest.NewServer(app.config.EndpointAddrHTTP, app.userService, app.placeService, app.imageStore, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
