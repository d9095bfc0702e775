package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"parliament-monitor/internal/config"
	"parliament-monitor/internal/domain/entity"
	workerPkg "parliament-monitor/internal/infra/worker"
	"parliament-monitor/internal/mcp"
	"parliament-monitor/internal/observability/logging"
	"parliament-monitor/internal/observability/tracing"
	"parliament-monitor/internal/resilience/circuitbreaker"
	"parliament-monitor/internal/resilience/retry"
	fetchUC "parliament-monitor/internal/usecase/fetch"
	"parliament-monitor/internal/usecase/generate"
)

const (
	clientName    = "parliament-monitor"
	clientVersion = "1.0.0"

	// shutdownTimeout bounds the drain of in-flight runs and servers.
	shutdownTimeout = 30 * time.Second
)

func main() {
	var (
		date    string
		outputs string
		once    bool
	)
	flag.StringVar(&date, "date", "", "Base date (YYYY-MM-DD); empty means today")
	flag.StringVar(&outputs, "outputs", "", "Comma-separated output kinds; empty means all")
	flag.BoolVar(&once, "once", false, "Run one generation and exit even when a schedule is configured")
	flag.Parse()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	kinds, err := parseKinds(outputs)
	if err != nil {
		logger.Error("invalid -outputs flag", slog.Any("error", err))
		os.Exit(2)
	}

	if err := run(logger, kinds, date, once); err != nil {
		logger.Error("monitor exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, kinds []entity.OutputKind, date string, once bool) error {
	runMetrics := workerPkg.NewRunMetrics(nil)
	cfg, err := config.Load(logger, runMetrics.ConfigMetrics)
	if err != nil {
		return err
	}
	logger.Info("monitor configuration loaded", slog.Any("config", cfg))

	shutdownTracing := tracing.Setup()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := mcp.NewClient(newTransport(cfg, logger), mcp.ClientConfig{
		Name:           clientName,
		Version:        clientVersion,
		RequestTimeout: cfg.Transport.RequestTimeout,
		Logger:         logger,
	})
	defer func() {
		if err := client.Disconnect(); err != nil {
			logger.Warn("failed to disconnect tool server", slog.Any("error", err))
		}
	}()

	controller := retry.NewController(client, retry.ControllerConfig{
		MaxRetries:        cfg.Resilience.MaxRetries,
		ReconnectAttempts: cfg.Resilience.ReconnectAttempts,
		ReconnectDelay:    cfg.Resilience.ReconnectDelay,
		MaxRateLimitWait:  cfg.Resilience.MaxRateLimitWait,
		Logger:            logger,
	})
	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:             "mcp-fetch",
		FailureThreshold: cfg.Resilience.BreakerThreshold,
		CoolDown:         cfg.Resilience.BreakerCoolDown,
	})

	fetcher := fetchUC.NewService(controller, breaker, fetchUC.Config{
		Committees: cfg.Fetch.Committees,
		Keyword:    cfg.Fetch.Keyword,
		Limit:      cfg.Fetch.Limit,
	}, logger)
	generator := generate.NewService(fetcher, newPublisher(cfg, logger), logger)

	if cfg.HealthPort != 0 {
		startHealthServer(ctx, cfg.HealthPort, controller, breaker, logger)
	}

	// A failed first connect is not fatal: the controller reconnects on
	// the first call and the orchestrator degrades to fallback data.
	if err := client.Connect(ctx); err != nil {
		logger.Warn("initial tool server connect failed", slog.Any("error", err))
	} else {
		verifyToolServer(ctx, client, logger)
	}

	genJob := newJob(generator, runMetrics, kinds, logger)

	if cfg.Schedule.Cron == "" || once {
		stats := genJob.run(ctx, baseDate(date, cfg.Location()))
		if stats.Succeeded == 0 && stats.Failed > 0 {
			return fmt.Errorf("all %d outputs failed", stats.Failed)
		}
		return nil
	}

	loc := cfg.Location()
	sched, err := workerPkg.NewScheduler(cfg.Schedule.Cron, loc, runTimeout(cfg), func(ctx context.Context) {
		genJob.run(ctx, baseDate("", loc))
	}, logger)
	if err != nil {
		return err
	}
	sched.Start()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	sched.Stop(shutdownCtx)
	return nil
}

// newTransport builds the transport named by cfg.Transport.Mode.
func newTransport(cfg *config.MonitorConfig, logger *slog.Logger) mcp.Transport {
	if cfg.Transport.Mode == config.ModeGateway {
		return mcp.NewGatewayTransport(mcp.GatewayConfig{
			URL:               cfg.Transport.GatewayURL,
			Credential:        cfg.Transport.Credential,
			RequestsPerSecond: cfg.Transport.RequestsPerSecond,
			Burst:             cfg.Transport.Burst,
			Breaker:           circuitbreaker.NewTransportBreaker(circuitbreaker.GatewayTransportConfig()),
			Logger:            logger,
		})
	}
	return mcp.NewStdioTransport(mcp.StdioConfig{
		Command: cfg.Transport.BinaryPath,
		Args:    cfg.Transport.Args,
		Logger:  logger,
	})
}

// newPublisher always logs a summary and also writes JSON files when an
// output directory is configured.
func newPublisher(cfg *config.MonitorConfig, logger *slog.Logger) generate.Publisher {
	publishers := generate.MultiPublisher{generate.LogPublisher{Logger: logger}}
	if cfg.OutputDir != "" {
		publishers = append(publishers, generate.FilePublisher{Dir: cfg.OutputDir})
		logger.Info("file publisher enabled", slog.String("dir", cfg.OutputDir))
	}
	return publishers
}

// clientStatus is served on /health/client.
type clientStatus struct {
	Client  retry.Health `json:"client"`
	Breaker breakerState `json:"breaker"`
}

type breakerState struct {
	State               string     `json:"state"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	NextRetry           *time.Time `json:"next_retry,omitempty"`
	ProbeInFlight       bool       `json:"probe_in_flight"`
}

func startHealthServer(ctx context.Context, port int, controller *retry.Controller, breaker *circuitbreaker.Breaker, logger *slog.Logger) {
	addr := fmt.Sprintf(":%d", port)
	status := func() any {
		st := breaker.Stats()
		bs := breakerState{
			State:               st.State.String(),
			ConsecutiveFailures: st.ConsecutiveFailures,
			ProbeInFlight:       st.ProbeInFlight,
		}
		if !st.NextRetry.IsZero() {
			next := st.NextRetry
			bs.NextRetry = &next
		}
		return clientStatus{Client: controller.Health(), Breaker: bs}
	}
	server := workerPkg.NewHealthServer(addr, controller.Connected, status, logger)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", addr))
}

// verifyToolServer issues one cheap tool call so a misconfigured server
// shows up in the startup logs instead of on the first scheduled run.
func verifyToolServer(ctx context.Context, client *mcp.Client, logger *slog.Logger) {
	name, version := client.ServerInfo()
	tools := mcp.NewTools(client, logger)
	result := tools.GetMEPs(ctx, mcp.MEPsRequest{Limit: 1})
	canned := result.FirstText() == mcp.EmptyResult(mcp.ToolMEPs).FirstText()
	logger.Info("tool server ready",
		slog.String("server", name),
		slog.String("server_version", version),
		slog.Bool("probe_returned_data", !canned))
}

// runTimeout bounds a scheduled run: every request may retry and every
// retry may reconnect, so leave room for the worst case.
func runTimeout(cfg *config.MonitorConfig) time.Duration {
	perCall := cfg.Transport.RequestTimeout * time.Duration(cfg.Resilience.MaxRetries+1)
	reconnect := cfg.Resilience.ReconnectDelay * time.Duration(cfg.Resilience.ReconnectAttempts)
	return 2*(perCall+reconnect) + time.Minute
}

func baseDate(flagValue string, loc *time.Location) string {
	if flagValue != "" {
		return flagValue
	}
	return time.Now().In(loc).Format(time.DateOnly)
}

func parseKinds(value string) ([]entity.OutputKind, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	var kinds []entity.OutputKind
	for _, part := range strings.Split(value, ",") {
		kind, err := entity.ParseOutputKind(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
