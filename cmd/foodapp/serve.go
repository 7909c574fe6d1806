package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"foodapp/internal/config"
	"foodapp/internal/infra/db"
	"foodapp/internal/logger"
	"foodapp/internal/notify"
	"foodapp/internal/server"
	"foodapp/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE:  runServe,
	}
	cmd.Flags().Bool("migrate", true, "apply pending migrations before serving")
	return cmd
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFiles, err := cmd.Flags().GetStringSlice("env-file")
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(envFiles...)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.LogLevel, cfg.GoEnv)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracing, err := telemetry.InitTracing(cfg.JaegerEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(sctx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	//DB接続
	gormDB, err := db.Connect(cfg.DSN(), !cfg.IsProd())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gormDB) }()

	if runMigrate, _ := cmd.Flags().GetBool("migrate"); runMigrate {
		if err := db.MigrateUp(ctx, gormDB); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	//通知: このプロセスの接続に届ける。AMQPがあれば全インスタンスに配る
	registry := notify.NewRegistry()
	local := notify.NewLocalDispatcher(registry, metrics, log)
	var (
		notifier notify.Notifier = local
		bus      *notify.Bus
	)
	if cfg.AMQPURL != "" {
		bus, err = notify.DialBus(cfg.AMQPURL, cfg.NotifyExchange, local, log)
		if err != nil {
			return err
		}
		defer func() { _ = bus.Close() }()
		notifier = bus
	}

	srv := server.New(server.Deps{
		Config:   cfg,
		DB:       gormDB,
		Log:      log,
		Metrics:  metrics,
		Registry: registry,
		Notifier: notifier,
		Clock:    &realClock{},
		IDGen:    &uuidGenerator{},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	if bus != nil {
		//ブローカーが落ちても再接続し続ける。止まるのはgctxが終わったときだけ
		g.Go(func() error {
			return bus.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		return srv.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server stopped", "error", err)
		return err
	}
	return nil
}
