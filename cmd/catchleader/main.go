package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openuas/catchleader/internal/api"
	"github.com/openuas/catchleader/internal/command"
	"github.com/openuas/catchleader/internal/config"
	"github.com/openuas/catchleader/internal/console"
	"github.com/openuas/catchleader/internal/guidance"
	"github.com/openuas/catchleader/internal/history"
	"github.com/openuas/catchleader/internal/metrics"
	"github.com/openuas/catchleader/internal/transport"
)

var (
	envFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "catchleader",
	Short: "Predictive intercept guidance for a follower UAV",
	Long: `catchleader consumes vehicle telemetry from the broker, predicts where a
leader vehicle will be, and steers a follower onto the intercept point. It
exposes an HTTP API, a websocket operator console, Prometheus metrics, and
records tracks and targets to QuestDB.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVarP(&envFile, "env-file", "e", "", "path to a .env file with configuration overrides")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return err
		}
	} else {
		// Best effort: a local .env is a convenience, not a requirement.
		_ = godotenv.Load()
	}

	level, err := zap.ParseAtomicLevel(logLevel)
	if err != nil {
		return err
	}
	loggerCfg := zap.NewProductionConfig()
	loggerCfg.Level = level
	logger, err := loggerCfg.Build()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg := config.NewConfig()
	settings := guidance.Settings{
		LeaderSysID:       cfg.LeaderSysID,
		LeaderCompID:      cfg.LeaderCompID,
		FollowerSysID:     cfg.FollowerSysID,
		FollowerCompID:    cfg.FollowerCompID,
		FollowerSpeed:     cfg.FollowerSpeed,
		SpeedProfile:      guidance.ParseProfile(cfg.SpeedProfile),
		MaxLookahead:      cfg.MaxLookahead,
		MinClosing:        cfg.MinClosing,
		UpdatePeriod:      cfg.UpdatePeriod,
		TargetAltOffset:   cfg.TargetAltOffset,
		MinDistance:       cfg.MinDistance,
		PositionTimeout:   cfg.PositionTimeout,
		HeartbeatTimeout:  cfg.HeartbeatTimeout,
		UseRelativeAlt:    cfg.UseRelativeAlt,
		TargetFilterAlpha: cfg.TargetFilterAlpha,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sink guidance.CommandSink = guidance.NopSink{}
	var publisher *transport.Publisher
	if !cfg.DisableAMQP {
		publisher, err = transport.NewPublisher(cfg.AMQPURL, cfg.Exchange, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()
		sink = publisher
	} else {
		logger.Warn("amqp disabled, guidance commands will be discarded")
	}

	var recorder *history.Recorder
	if !cfg.DisableHistory {
		pool, err := history.NewSenderPool(cfg.QuestPoolSize, cfg.QuestDBHost, cfg.QuestDBPort)
		if err != nil {
			return err
		}
		defer pool.Close()
		recorder = history.NewRecorder(pool, logger)
	} else {
		logger.Warn("history disabled, tracks and targets will not be recorded")
	}

	// The hub needs the engine for command handling and the engine needs the
	// hub as its console; the closure breaks the cycle.
	var engine *guidance.Engine
	hub := console.NewHub(func(text string) error {
		cmd, err := command.Parse(text)
		if err != nil {
			return err
		}
		engine.SubmitCommand(cmd)
		return nil
	}, logger)

	var engineRecorder guidance.Recorder
	if recorder != nil {
		engineRecorder = recorder
	}
	engine = guidance.New(settings, sink, hub, engineRecorder, logger)

	apiServer := api.NewServer(cfg.APIAddr, engine, hub.ServeWS, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return engine.Run(ctx) })

	if !cfg.DisableAMQP {
		subscriber := transport.NewSubscriber(
			cfg.AMQPURL, cfg.Exchange, cfg.TelemetryQueue, cfg.TelemetryBinding, engine, logger)
		g.Go(func() error { return subscriber.Run(ctx) })
	}
	if recorder != nil {
		g.Go(func() error { return recorder.Run(ctx) })
	}

	g.Go(apiServer.Start)
	g.Go(func() error {
		<-ctx.Done()
		return apiServer.Shutdown(context.Background())
	})

	go metrics.Serve(cfg.MetricsAddr, logger)

	logger.Info("catchleader started",
		zap.Int("leader_sysid", cfg.LeaderSysID),
		zap.Int("follower_sysid", cfg.FollowerSysID),
		zap.String("api_addr", cfg.APIAddr))

	return g.Wait()
}
