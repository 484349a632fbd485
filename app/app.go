package messageboard

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/cors"

	"github.com/nytour/messageboard/core"
	"github.com/nytour/messageboard/pkg/router"
)

type App struct {
	config  *Config
	db      *core.SQLiteDB
	context context.Context
	server  *http.Server
	logger  *slog.Logger
	router  *router.Router

	exit chan int

	messageStore   core.MessageStore
	messageService *core.MessageService
	statsReporter  *core.StatsReporter

	messageHandler *MessageHandler

	cleanupFuncs []func(context.Context)
}

func New(ctx context.Context, config *Config) *App {
	var err error
	app := &App{
		exit: make(chan int),
	}
	if ctx == nil {
		ctx, _ = signal.NotifyContext(
			context.Background(),
			syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	}
	app.context = ctx

	if config == nil {
		var err error
		config, err = LoadConfig()
		if err != nil {
			failed(1, "failed to load config: %v\n", err)
		}
	}
	if err := config.Validate(); err != nil {
		failed(1, FormatValidationErrors(err))
	}
	app.config = config

	app.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				source, _ := a.Value.Any().(*slog.Source)
				if source != nil {
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	}))

	sqliteOptions := &core.SQLiteOptions{
		Mode:        "rwc",
		Cache:       "shared",
		JournalMode: "WAL",
	}
	app.db, err = core.NewSQLiteDB(app.config.SQLite.File, app.config.SQLite.Migrations, sqliteOptions)
	if err != nil {
		failed(1, "failed to open database: %v\n", err)
	}
	app.AddCleanupFunc(func(ctx context.Context) {
		app.db.Close()
	})
	if err := app.db.Migrate(); err != nil {
		failed(1, "failed to migrate database: %v\n", err)
	}

	app.messageStore = core.NewSQLiteMessageStore(app.db.DB)
	app.messageService = core.NewMessageService(app.messageStore)
	app.statsReporter = core.NewStatsReporter(app.messageService, app.config.Stats.Interval, app.logger)

	app.messageHandler = NewMessageHandler(app.messageService)

	app.router = router.New(router.WithLogger(app.logger))

	app.router.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	api := router.New(router.WithLogger(app.logger))
	mapServiceErrors(api)

	api.Route("/messages", func(r *router.Router) {
		r.Post("/", app.messageHandler.CreateMessageHandler)
		r.Get("/", app.messageHandler.GetAllMessagesHandler)
		r.Get("/search", app.messageHandler.SearchMessagesHandler)
		r.Get("/stats", app.messageHandler.GetStatsHandler)
		r.Get("/author/{author}", app.messageHandler.GetMessagesByAuthorHandler)
		r.Get("/{id}", app.messageHandler.GetMessageByIDHandler)
		r.Put("/{id}", app.messageHandler.UpdateMessageHandler)
		r.Delete("/{id}", app.messageHandler.DeleteMessageHandler)
	})

	app.router.Mount("/api", api)

	app.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", app.config.Hostname, app.config.Port),
		Handler: app.router.Router,
		BaseContext: func(listener net.Listener) context.Context {
			return app.context
		},
	}

	return app
}

// mapServiceErrors wires the service error taxonomy to response codes:
// invalid input is a client error, a missing message is a 404, anything
// else falls through to the router's default 500.
func mapServiceErrors(r *router.Router) {
	r.MapError(core.ErrInvalidMessage, func(err error) router.Error {
		return router.NewJSONError(http.StatusBadRequest, err.Error())
	})
	r.MapError(core.ErrMessageNotFound, func(err error) router.Error {
		return router.NewJSONError(http.StatusNotFound, err.Error())
	})
}

func (app *App) Start() {
	if err := app.statsReporter.Start(app.context); err != nil {
		failed(1, "failed to start stats reporter: %v\n", err)
	}
	app.AddCleanupFunc(func(ctx context.Context) {
		app.statsReporter.Stop()
	})

	// listen for shutdown signal
	go func() {
		<-app.context.Done()
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		var wg sync.WaitGroup

		for _, f := range app.cleanupFuncs {
			wg.Add(1)
			func(wg *sync.WaitGroup) {
				defer wg.Done()
				f(closeCtx)
			}(&wg)
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			app.logger.Info("app shutdown gracefully")
			app.exit <- 0
		case <-closeCtx.Done():
			app.logger.Info("app shutdown timed out")
			app.exit <- 1
		}
	}()

	app.AddCleanupFunc(func(ctx context.Context) {
		app.server.Shutdown(ctx)
	})
	app.logger.Info(fmt.Sprintf("app running on: %s:%d", app.config.Hostname, app.config.Port))

	err := app.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		failed(1, "server error: %v\n", err)
	}

	code := <-app.exit
	if code != 0 {
		failed(code, "app exit with code: %d\n", code)
	} else {
		os.Exit(code)
	}
}

func (app *App) AddCleanupFunc(f func(context.Context)) {
	app.cleanupFuncs = append(app.cleanupFuncs, f)
}

func failed(code int, s string, args ...interface{}) {
	fmt.Printf(s, args...)
	os.Exit(code)
}
