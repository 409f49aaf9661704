package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"

	"github.com/go-chi/httplog/v2"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	myhttp "github.com/formlink/formlink/internal/api/http"
	"github.com/formlink/formlink/internal/config"
	dbpostgres "github.com/formlink/formlink/internal/database/postgres"
	"github.com/formlink/formlink/internal/service"
	"github.com/formlink/formlink/pkg/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		panic(err)
	}
}

func run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	logger := httplog.NewLogger("formlink", httplog.Options{
		JSON:  cfg.Env == config.EnvProd,
		LogLevel: logLevel(cfg.Env),
	})

	db, err := postgres.New(
		ctx,
		cfg.Postgres.DSN(),
		postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return err
	}

	if err := postgres.RunMigrations("file://migrations", cfg.Postgres.DSN()); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return db.Close()
	})

	linkRepo := dbpostgres.NewLinkRepository(db)
	clickRepo := dbpostgres.NewClickRepository(db)
	quotaRepo := dbpostgres.NewQuotaRepository(db)

	codes := service.NewShortCodeGenerator(linkRepo, cfg.ShortCodeLength)
	quotas := service.NewQuotaLedger(quotaRepo)
	urls := service.NewURLValidator()
	linkSvc := service.NewLinkService(linkRepo, clickRepo, codes, quotas, urls, logger.Logger)
	clicks := service.NewClickRecorder(clickRepo, nil, logger.Logger, cfg.ClickRecordTimeout)
	resolver := service.NewResolver(linkRepo, clicks, logger.Logger)

	r := myhttp.NewRouter(logger, linkSvc, resolver, myhttp.HeaderSession{})

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        r,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	return g.Wait()
}

func logLevel(env string) slog.Level {
	if env == config.EnvProd {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}
