package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dmitrymomot/quotekit/pkg/config"
	"github.com/dmitrymomot/quotekit/pkg/gate"
	"github.com/dmitrymomot/quotekit/pkg/logger"
	"github.com/dmitrymomot/quotekit/pkg/requestid"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("quotekit stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load[appConfig]()
	if err != nil {
		return err
	}

	logOpts := []logger.Option{
		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
		logger.WithContextExtractors(requestid.LoggerExtractor(), gate.LoggerExtractor()),
	}
	if cfg.LogLevel != "" {
		logOpts = append(logOpts, logger.WithLevelName(cfg.LogLevel))
	}
	log := logger.New(logOpts...)
	slog.SetDefault(log)

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	return app.serve(ctx)
}
