package bootstrap

import (
	"context"
	"fmt"

	"github.com/ZertGraf/observ/internal/api"
	"github.com/ZertGraf/observ/internal/api/handler"
	"github.com/ZertGraf/observ/internal/api/middleware"
	"github.com/ZertGraf/observ/internal/auth"
	"github.com/ZertGraf/observ/internal/commits"
	"github.com/ZertGraf/observ/internal/domain"
	"github.com/ZertGraf/observ/internal/pkg/config"
	"github.com/ZertGraf/observ/internal/pkg/logger"
	"github.com/ZertGraf/observ/internal/pkg/metrics"
	"github.com/ZertGraf/observ/internal/pkg/postgres"
	"github.com/ZertGraf/observ/internal/repository"
	"github.com/ZertGraf/observ/internal/repository/memory"
	"github.com/ZertGraf/observ/internal/service"
	"github.com/prometheus/client_golang/prometheus"
)

const Version = "0.1.0"

type Application struct {
	Config   *config.Config
	Logger   *logger.Logger
	Postgres *postgres.Connection
	Migrator *postgres.Migrator
	Memory   *memory.Store

	ProjectRepo    repository.ProjectRepository
	UserRepo       repository.UserRepository
	MembershipRepo repository.MembershipRepository

	Tokens     *auth.Tokens
	GitHub     *commits.GitHubClient
	Aggregator *commits.Aggregator

	ProjectService *service.ProjectService
	UserService    *service.UserService
	ProjectHandler *handler.ProjectHandler
	UserHandler    *handler.UserHandler

	HTTPServer *api.HTTPServer
}

func New() (*Application, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: cfg.LogAddSource,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	app := &Application{
		Config: cfg,
		Logger: log,
	}

	if cfg.StorageDriver == config.StorageDriverPostgres {
		app.Postgres, err = postgres.New(log, &postgres.Config{
			Host:              cfg.DatabaseHost,
			Port:              cfg.DatabasePort,
			Username:          cfg.DatabaseUser,
			Password:          cfg.DatabasePassword,
			Database:          cfg.DatabaseName,
			Schema:            cfg.DatabaseSchema,
			SSLMode:           cfg.DatabaseSSLMode,
			MaxConns:          cfg.DatabaseMaxConns,
			MinConns:          cfg.DatabaseMinConns,
			MaxConnLifetime:   cfg.DatabaseMaxConnLifetime,
			MaxConnIdleTime:   cfg.DatabaseMaxConnIdleTime,
			HealthCheckPeriod: cfg.DatabaseHealthCheckPeriod,
			ConnectTimeout:    cfg.DatabaseConnectTimeout,
			AcquireTimeout:    cfg.DatabaseAcquireTimeout,
			ApplicationName:   cfg.ServiceName,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres connection: %w", err)
		}
	}

	app.Tokens, err = auth.NewTokens(&auth.Config{
		Secret: cfg.AuthJWTSecret,
		Issuer: cfg.AuthTokenIssuer,
		TTL:    cfg.AuthTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	return app, nil
}

// InitStorage connects the configured store. With postgres it also
// prepares the migrator; runMigrations controls whether they are applied.
func (app *Application) InitStorage(ctx context.Context, runMigrations bool) error {
	if app.Postgres == nil {
		return app.initMemory()
	}

	if err := app.Postgres.Connect(ctx); err != nil {
		return fmt.Errorf("postgres connection failed: %w", err)
	}

	app.Migrator = postgres.NewMigrator(app.Postgres.Pool(), &postgres.MigrationConfig{
		Timeout:   app.Config.DatabaseMigrationTimeout,
		TableName: app.Config.DatabaseMigrationTable,
		Enabled:   app.Config.DatabaseMigrationEnabled,
	}, app.Logger)

	if runMigrations {
		if err := app.Migrator.RunMigrations(ctx); err != nil {
			return fmt.Errorf("database migrations failed: %w", err)
		}
	}

	app.ProjectRepo = repository.NewProjectRepo(app.Postgres.Pool(), app.Logger)
	app.UserRepo = repository.NewUserRepo(app.Postgres.Pool(), app.Logger)
	app.MembershipRepo = repository.NewMembershipRepo(app.Postgres.Pool(), app.Logger)
	return nil
}

func (app *Application) initMemory() error {
	seeds, err := app.Config.UserSeeds()
	if err != nil {
		return fmt.Errorf("memory user seeds: %w", err)
	}

	app.Memory = memory.New()
	for _, seed := range seeds {
		app.Memory.PutUser(domain.User{ID: seed.ID, Username: seed.Username, Tier: seed.Tier})
	}

	app.ProjectRepo = app.Memory.Projects()
	app.UserRepo = app.Memory.Users()
	app.MembershipRepo = app.Memory.Memberships()

	app.Logger.Warn("using in-memory storage, data is lost on restart", "seeded_users", len(seeds))
	return nil
}

func (app *Application) Init(ctx context.Context) error {
	app.Logger.Info("initializing application", "storage", app.Config.StorageDriver)

	if err := app.InitStorage(ctx, true); err != nil {
		return err
	}

	var err error
	app.GitHub, err = commits.NewGitHubClient(&commits.GitHubConfig{
		Token:     app.Config.GitHubAPIToken,
		Timeout:   app.Config.GitHubTimeout,
		RateLimit: app.Config.GitHubRateLimit,
		RateBurst: app.Config.GitHubRateBurst,
		UserAgent: app.Config.ServiceName + "/" + Version,
	}, app.Logger)
	if err != nil {
		return fmt.Errorf("failed to create github client: %w", err)
	}
	app.Aggregator = commits.NewAggregator(app.GitHub, app.Config.GitHubMaxConcurrency, app.Logger)

	app.ProjectService = service.NewProjectService(
		app.ProjectRepo,
		app.UserRepo,
		app.MembershipRepo,
		app.Aggregator,
		app.Logger,
	)
	app.UserService = service.NewUserService(app.UserRepo, app.Logger)
	app.ProjectHandler = handler.NewProjectHandler(app.ProjectService, app.Logger)
	app.UserHandler = handler.NewUserHandler(app.UserService, app.Logger)

	if app.Config.MetricsEnabled {
		if err = metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	serverConfig := &api.ServerConfig{
		Host:           app.Config.ServerHost,
		Port:           app.Config.ServerPort,
		ReadTimeout:    app.Config.ServerReadTimeout,
		WriteTimeout:   app.Config.ServerWriteTimeout,
		IdleTimeout:    app.Config.ServerIdleTimeout,
		RequestTimeout: app.Config.ServerRequestTimeout,
		MetricsEnabled: app.Config.MetricsEnabled,
		CORSOrigins:    app.Config.ServerCORSOrigins,
	}

	app.HTTPServer = api.NewHTTPServer(
		serverConfig,
		app.ProjectHandler,
		app.UserHandler,
		middleware.Authenticate(app.Tokens, app.UserRepo, app.Logger),
		app.Health,
		app.Logger,
	)

	if err = app.HTTPServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start http server: %w", err)
	}

	app.Logger.Info("application initialized successfully")
	return nil
}

func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("shutting down application")

	if app.HTTPServer != nil {
		if err := app.HTTPServer.Stop(ctx); err != nil {
			app.Logger.Error("error stopping http server", "error", err)
		}
	}

	if app.Postgres != nil {
		app.Postgres.Close()
	}

	app.Logger.Info("application shutdown completed")
	return nil
}

// Health checks the store and the migration table; the memory store is
// always ready. It backs the /ready endpoint.
func (app *Application) Health(ctx context.Context) error {
	if app.Postgres == nil {
		return nil
	}
	if err := app.Postgres.Health(ctx); err != nil {
		return fmt.Errorf("postgres health check failed: %w", err)
	}
	if err := app.Migrator.Health(ctx); err != nil {
		return fmt.Errorf("migrator health check failed: %w", err)
	}
	return nil
}
