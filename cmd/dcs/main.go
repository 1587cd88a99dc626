package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	"contrib.go.opencensus.io/exporter/prometheus"
	"github.com/go-dcs/dcs/internal/buildinfo"
	"github.com/go-dcs/dcs/internal/collect"
	"github.com/go-dcs/dcs/internal/dcs"
	"github.com/go-dcs/dcs/internal/logging"
	"github.com/go-dcs/dcs/internal/predict"
	"github.com/go-dcs/dcs/internal/server"
	"github.com/go-dcs/dcs/internal/setup"
	"github.com/go-dcs/dcs/internal/shutdown"
	"github.com/go-dcs/dcs/internal/stats"
	"go.opencensus.io/stats/view"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		"%s: %s, %s\n",
		buildinfo.Info.Name(),
		buildinfo.Info.Time(),
		buildinfo.Info.Tag(),
	)

	ctx, done := shutdown.New()
	logger := logging.FromContext(ctx)
	if err := run(ctx, done); err != nil {
		logger.Fatal(err)
	}

	defer done()
}

func run(ctx context.Context, cancel func()) error {
	var (
		shutdownCh    chan error
		shutdownCount = 2
	)
	config := dcs.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}

	if config.SvcModeType == dcs.SvcModeTypeScrape {
		shutdownCount++
	}

	shutdownCh = make(chan error, shutdownCount)
	notifier, err := env.ProvideNotifier()(shutdownCh)
	if err != nil {
		return fmt.Errorf("notifier provider function error: %w", err)
	}
	manager, err := env.ProvideDispatcher()(notifier, shutdownCh)
	if err != nil {
		return fmt.Errorf("dispatcher provider function error: %w", err)
	}

	if config.SvcModeType == dcs.SvcModeTypeScrape {
		scrapper, err := env.ProvideScrapper()(manager, shutdownCh)
		if err != nil {
			return fmt.Errorf("scrapperCaller: %w", err)
		}
		if err := scrapper.Run(ctx); err != nil {
			return fmt.Errorf("scrapperRun: %w", err)
		}
	} else if err := manager.Run(ctx); err != nil {
		return fmt.Errorf("dispatcher.Run: %w", err)
	}

	if err := stats.Register(); err != nil {
		return fmt.Errorf("stats.Register: %w", err)
	}
	exporter, err := prometheus.NewExporter(prometheus.Options{Namespace: "dcs"})
	if err != nil {
		return fmt.Errorf("prometheus.NewExporter: %w", err)
	}
	view.RegisterExporter(exporter)

	srv, err := server.New(config.SrvAddr)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	mux := http.NewServeMux()

	predictHandler, err := predict.NewHandler(&config.Predict, manager)
	if err != nil {
		return fmt.Errorf("predict.NewHandler: %w", err)
	}

	mux.Handle("/predict", predictHandler)
	mux.Handle("/health", server.HandleHealth(ctx))
	mux.Handle("/metrics", exporter)

	if config.SvcModeType == dcs.SvcModeTypeCollect {
		collectHandler, err := collect.NewHandler(&config.Collect, manager)
		if err != nil {
			return fmt.Errorf("collect.NewHandler: %w", err)
		}
		mux.Handle("/collect", collectHandler)
	}

	go func() {
		if err := srv.ServeHTTPHandler(ctx, mux); err != nil {
			cancel()
		}
	}()

	go func() {
		if err := http.ListenAndServe("0.0.0.0:8080", nil); err != nil {
			cancel()
		}
	}()

	return <-shutdownCh
}
