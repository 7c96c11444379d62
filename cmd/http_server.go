package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/agenda-management/internal"
	"github.com/frahmantamala/agenda-management/internal/activity"
	activityPostgres "github.com/frahmantamala/agenda-management/internal/activity/postgres"
	"github.com/frahmantamala/agenda-management/internal/agenda"
	agendaPostgres "github.com/frahmantamala/agenda-management/internal/agenda/postgres"
	"github.com/frahmantamala/agenda-management/internal/auth"
	authPostgres "github.com/frahmantamala/agenda-management/internal/auth/postgres"
	"github.com/frahmantamala/agenda-management/internal/core/events"
	"github.com/frahmantamala/agenda-management/internal/transport/rest"
	"github.com/frahmantamala/agenda-management/internal/user"
	userPostgres "github.com/frahmantamala/agenda-management/internal/user/postgres"
	"github.com/frahmantamala/agenda-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	GormDB *gorm.DB
	SQLXDB *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.SQLXDB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Logging.Level, config.Logging.Format)
	lg := logger.LoggerWrapper()

	gormDB, sqlxDB, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus := events.NewEventBus(lg)

	activityWrites := activityPostgres.NewRepository(gormDB)
	analytics := activityPostgres.NewAnalyticsRepository(sqlxDB)
	activityService := activity.NewService(activityWrites, analytics, lg)
	activityService.RegisterSubscriptions(bus)

	tokens := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(
		authPostgres.NewRepository(gormDB),
		tokens,
		activityService,
		bus,
		&config.School,
		&config.Security,
		lg,
	)

	userService := user.NewService(userPostgres.NewRepository(gormDB), bus, &config.School, &config.Security, lg)
	agendaService := agenda.NewService(agendaPostgres.NewRepository(gormDB), bus, lg)

	router := chi.NewRouter()
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap sql.DB: %w", err)
	}

	rest.RegisterAllRoutes(router, rest.RouterDeps{
		DB:              sqlDB,
		AuthHandler:     auth.NewHandler(authService),
		UserHandler:     user.NewHandler(userService),
		AgendaHandler:   agenda.NewHandler(agendaService),
		ActivityHandler: activity.NewHandler(activityService),
		StatsHandler:    rest.NewStatsHandler(agendaService, userService, lg),
		RBAC:            auth.NewRBACAuthorization(auth.NewPermissionChecker(), lg),
		AllowedOrigins:  config.Server.Origins(),
		Logger:          lg,
	})

	return &Dependencies{
		Config: config,
		GormDB: gormDB,
		SQLXDB: sqlxDB,
		Router: router,
		Logger: lg,
	}, nil
}

// initDB opens one pgx-backed pool and exposes it through both gorm (domain
// repositories) and sqlx (analytics reads). Startup retries with backoff so
// the service survives the database coming up after it.
func initDB(cfg internal.DatabaseConfig) (*gorm.DB, *sqlx.DB, error) {
	var gormDB *gorm.DB

	backoff := retry.WithMaxRetries(5, retry.NewExponential(time.Second))
	err := retry.Do(context.Background(), backoff, func(ctx context.Context) error {
		db, openErr := gorm.Open(gormpostgres.Open(cfg.Source), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		if openErr != nil {
			return retry.RetryableError(openErr)
		}
		gormDB = db
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to unwrap sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return gormDB, sqlx.NewDb(sqlDB, "pgx"), nil
}
