// cmd/activities-api/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mergington-activities/internal/api"
	"mergington-activities/internal/common/config"
	apperrors "mergington-activities/internal/common/errors"
	apihttp "mergington-activities/internal/common/http"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/observability"
	"mergington-activities/internal/enrollment"
	"mergington-activities/internal/notify"
	"mergington-activities/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	configPath := flag.String("config", "", "path to a config file (default: configs/config.yaml)")
	healthcheck := flag.Bool("healthcheck", false, "check /health of a running instance and exit")
	flag.Parse()

	bootLog := logger.New("info", "console")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"env":     cfg.App.Environment,
	})

	if *healthcheck {
		os.Exit(checkHealth(cfg.Server.Address, log))
	}

	if err := run(cfg, log); err != nil {
		log.Error("service stopped with error", map[string]interface{}{"error": err})
		zapLog.Sync()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.EnvFile != "" {
		log.Info("loaded environment file", map[string]interface{}{"path": cfg.EnvFile})
	}

	obs, err := observability.New(observability.Settings{
		ServiceName:    cfg.Tracing.ServiceName,
		TracingEnabled: cfg.Tracing.Enabled,
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(sctx); err != nil {
			log.Warn("observability shutdown failed", map[string]interface{}{"error": err})
		}
	}()

	seed, err := loadSeed(cfg.Enrollment.SeedPath)
	if err != nil {
		return apperrors.NewSeedInvalidError(err)
	}

	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	dispatcher, closer, err := notify.FromConfig(setupCtx, cfg.Notifications, log)
	cancel()
	if err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			log.Warn("closing notification sinks failed", map[string]interface{}{"error": err})
		}
	}()

	// sinks are best-effort, so an unreachable one only earns a warning
	for _, sink := range dispatcher.Sinks() {
		pinger, ok := sink.(notify.Pinger)
		if !ok {
			continue
		}
		err := retryWithBackoff(func() error {
			pctx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.Notifications.Timeout))
			defer cancel()
			return pinger.Ping(pctx)
		}, 3, time.Second, log, sink.Name()+" connection")
		if err != nil {
			log.Warn("notification sink unreachable", map[string]interface{}{"sink": sink.Name(), "error": err})
		}
	}

	reg, err := enrollment.FromSeed(seed,
		enrollment.WithCapacityEnforcement(cfg.Enrollment.EnforceCapacity),
		enrollment.WithTracer(obs.Tracer()),
		enrollment.WithObserver(api.ParticipantGauge()),
		enrollment.WithObserver(dispatcher),
	)
	if err != nil {
		return apperrors.NewSeedInvalidError(err)
	}
	api.PublishRoster(reg.List(ctx))
	log.Info("registry ready", map[string]interface{}{
		"activities":      len(reg.Names()),
		"enforceCapacity": cfg.Enrollment.EnforceCapacity,
	})

	routerCfg := api.RouterConfig{}
	if cfg.Server.StaticDir != "" {
		routerCfg.StaticFS = os.DirFS(cfg.Server.StaticDir)
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsPath = cfg.Metrics.Path
	}

	handler := api.NewHandler(reg, log,
		api.WithHealthChecker(dispatcher),
		api.WithRecorder(obs),
	)
	srv := api.NewServer(api.ServerConfig{
		Address:         cfg.Server.Address,
		ReadTimeout:     config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:    config.GetDuration(cfg.Server.WriteTimeout),
		ShutdownTimeout: config.GetDuration(cfg.Server.ShutdownTimeout),
	}, api.NewRouter(handler, routerCfg), log)

	return srv.Run(ctx)
}

func loadSeed(path string) (*registry.Seed, error) {
	if path == "" {
		return registry.DefaultSeed(), nil
	}
	return registry.LoadSeed(path)
}

func checkHealth(address string, log logger.Logger) int {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		log.Error("bad server address", map[string]interface{}{"address": address, "error": err})
		return 1
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var health struct {
		Status string `json:"status"`
	}
	url := "http://" + net.JoinHostPort(host, port) + "/health"
	if err := apihttp.NewClient(5*time.Second).GetJSON(ctx, url, &health); err != nil {
		log.Error("health check failed", map[string]interface{}{"url": url, "error": err})
		return 1
	}
	log.Info("health check passed", map[string]interface{}{"status": health.Status})
	return 0
}
