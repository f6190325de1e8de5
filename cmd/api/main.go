package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/dashboard"
	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/internal/locations"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/returns"
	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.ApplyOnBoot(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps, err := buildDeps(cfg, logg, dbClient, reg)
	if err != nil {
		return err
	}
	deps.DB = dbClient
	deps.Redis = redisClient
	deps.Sessions = sessionManager
	deps.HTTPMetrics = metrics.NewHTTPMetrics(reg)
	deps.Gatherer = reg

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return err
	}
	deps.Auth = authService

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildDeps wires repositories and domain services over one database client.
func buildDeps(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, reg prometheus.Registerer) (routes.Deps, error) {
	conn := dbClient.DB()
	emitter := outbox.NewWriter(outbox.NewStore(conn), logg)

	policy, err := inventory.ParsePolicy(cfg.Inventory.LocationPolicy)
	if err != nil {
		return routes.Deps{}, err
	}
	ledger, err := inventory.NewLedger(inventory.LedgerParams{
		Repo:              inventory.NewRepository(conn),
		Tx:                dbClient,
		Policy:            policy,
		Outbox:            emitter,
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
		Logger:            logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	userService, err := users.NewService(users.NewRepository(conn), cfg.Password, logg)
	if err != nil {
		return routes.Deps{}, err
	}
	locationService, err := locations.NewService(locations.NewRepository(conn))
	if err != nil {
		return routes.Deps{}, err
	}
	productService, err := products.NewService(products.NewRepository(conn), dbClient, ledger, logg)
	if err != nil {
		return routes.Deps{}, err
	}

	orderRepo := orders.NewRepository(conn)
	orderService, err := orders.NewService(dbClient, orderRepo, emitter, logg)
	if err != nil {
		return routes.Deps{}, err
	}
	placement, err := orders.NewPlacementService(orders.PlacementParams{
		Tx:       dbClient,
		Repo:     orderRepo,
		Ledger:   ledger,
		Identity: pkgAuth.ContextResolver{},
		Outbox:   emitter,
		Metrics:  metrics.NewPlacementMetrics(reg),
		Logger:   logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	returnService, err := returns.NewService(dbClient, returns.NewRepository(conn), emitter, logg)
	if err != nil {
		return routes.Deps{}, err
	}
	dashboardService, err := dashboard.NewService(orderService, ledger)
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Users:     userService,
		Products:  productService,
		Locations: locationService,
		Orders:    orderService,
		Placement: placement,
		Returns:   returnService,
		Inventory: ledger,
		Dashboard: dashboardService,
	}, nil
}
