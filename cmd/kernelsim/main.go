package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/TeachOS/kernel/internal/api/http"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/api/ws"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/config"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/kernel"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/logging"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/manifest"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/monitoring"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/report"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/server"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/shared/id"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/telemetry"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/trace"
	"github.com/GriffinCanCode/TeachOS/kernel/internal/workload"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.LoadOrDefault()
	flag.StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "API port")
	flag.StringVar(&cfg.Sim.ManifestDir, "manifests", cfg.Sim.ManifestDir, "workload manifest directory")
	flag.StringVar(&cfg.Sim.Scenario, "scenario", cfg.Sim.Scenario, "run only the named scenario")
	flag.StringVar(&cfg.Trace.Path, "trace", cfg.Trace.Path, "trace output path (empty disables)")
	flag.BoolVar(&cfg.Logging.Development, "dev", cfg.Logging.Development, "console logging, debug level")
	serve := flag.Bool("serve", false, "keep the API up after the run until interrupted")
	flag.Parse()

	logCfg := logging.Config{Level: cfg.Logging.Level, Development: cfg.Logging.Development}
	if cfg.Logging.Development {
		logCfg = logging.DevelopmentConfig()
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	metrics := monitoring.NewMetrics()
	collector := report.NewCollector()
	hub := ws.NewHub(logger, metrics)
	sinks := []kernel.EventSink{collector, hub}

	var recorder *trace.Recorder
	if cfg.Trace.Path != "" {
		recorder, err = trace.Open(cfg.Trace.Path, cfg.Trace.Codec, logger)
		if err != nil {
			logger.Fatal("Trace setup failed", zap.Error(err))
		}
		sinks = append(sinks, recorder)
	}

	manifests, err := manifest.LoadAll(cfg.Sim.ManifestDir, cfg.Sim.ManifestGlob)
	if err != nil {
		logger.Fatal("Manifest discovery failed", zap.Error(err))
	}
	if cfg.Sim.Scenario != "" {
		kept := manifests[:0]
		for _, m := range manifests {
			if m.Scenario == cfg.Sim.Scenario {
				kept = append(kept, m)
			}
		}
		manifests = kept
	}
	logger.Info("Scenarios loaded",
		zap.Int("count", len(manifests)),
		zap.String("dir", cfg.Sim.ManifestDir))

	k := kernel.New(kernel.Config{Logger: logger, Metrics: metrics, Sinks: sinks})

	srv := server.New(cfg, logger, server.Deps{
		Kernel:    k,
		Hub:       hub,
		Scenarios: apihttp.Scenarios(manifests),
		Metrics:   metrics,
	})
	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Run() }()

	runner := workload.NewRunner(logger, cfg.Sim.ScriptTimeout)
	status := k.Run(func(env *kernel.Env, _ []byte) int {
		failed := 0
		for _, m := range manifests {
			if runScenario(env, runner, collector, logger, m) != 0 {
				failed++
			}
		}
		return failed
	}, nil)

	runID := id.NewRunID()
	var traceSum *trace.Summary
	if recorder != nil {
		runID = recorder.RunID()
		sum, err := recorder.Close()
		if err != nil {
			logger.Warn("Trace finished with errors", zap.Error(err))
		}
		traceSum = &sum
	}

	rep := collector.Build(runID, k.Counts(), traceSum)
	if data, err := rep.Encode(); err != nil {
		logger.Error("Report encode failed", zap.Error(err))
	} else {
		fmt.Println(string(data))
	}

	pusher := telemetry.NewPusher(cfg.Telemetry, logger)
	if pusher.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.Timeout)
		if err := pusher.Push(ctx, rep); err != nil {
			logger.Warn("Report delivery failed", zap.Error(err))
		}
		cancel()
	}

	if *serve {
		logger.Info("Run complete, API remains up", zap.String("addr", srv.Addr()))
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sig:
		case err := <-srvErr:
			logger.Error("Server failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Shutdown incomplete", zap.Error(err))
	}

	logger.Info("Run finished", zap.Int("failed_scenarios", status))
	return status
}

// runScenario executes one manifest's workloads and records the result.
func runScenario(env *kernel.Env, runner *workload.Runner, collector *report.Collector, logger *logging.Logger, m *manifest.Manifest) int {
	start := time.Now()
	results, err := runner.RunAll(env, m)

	res := report.ScenarioResult{
		Scenario:  m.Scenario,
		Workloads: len(results),
		Elapsed:   time.Since(start),
	}
	for _, r := range results {
		if r.Status != 0 {
			res.Status++
		}
	}
	if err != nil {
		res.Error = err.Error()
		res.Status++
	}
	collector.AddScenario(res)

	logger.Info("Scenario finished",
		zap.String("scenario", m.Scenario),
		zap.Int("workloads", res.Workloads),
		zap.Int("failed", res.Status),
		zap.Duration("elapsed", res.Elapsed))
	return res.Status
}
