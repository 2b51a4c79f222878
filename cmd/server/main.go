package main

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/migrations"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules"
	coreservices "github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/modules/core/services"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/application"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/configuration"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/eventbus"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/metrics"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/middleware"
	"github.com/Shkelqim-Durmishi/Sistemi-Menaxhimit-Personelit-Ushtarak-sub000/pkg/server"
)

func main() {
	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, conf.Database.ConnectionString())
	if err != nil {
		logger.WithError(err).Error("failed to create database pool")
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.WithError(err).Error("database is unreachable")
		os.Exit(1)
	}

	if err := migrate(pool); err != nil {
		logger.WithError(err).Error("migrations failed")
		os.Exit(1)
	}

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app); err != nil {
		logger.WithError(err).Error("module registration failed")
		os.Exit(1)
	}

	authService := app.Service(coreservices.AuthService{}).(*coreservices.AuthService)
	app.RegisterMiddleware(
		middleware.WithPool(pool),
		middleware.RequestID(conf.RequestIDHeader),
		middleware.LogRequests(logger),
		middleware.Authenticate(authService),
	)
	if conf.MetricsEnabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.MetricsPath))
	}

	srv := server.NewHTTPServer(app)
	logger.WithField("address", conf.SocketAddress).Info("server listening")
	if err := srv.Start(conf.SocketAddress); err != nil {
		logger.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}

func migrate(pool *pgxpool.Pool) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return goose.Up(db, ".")
}
