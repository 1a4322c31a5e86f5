package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"github.com/irfndi/tokenscope/internal/analysis"
	"github.com/irfndi/tokenscope/internal/api"
	"github.com/irfndi/tokenscope/internal/api/handlers"
	"github.com/irfndi/tokenscope/internal/config"
	"github.com/irfndi/tokenscope/internal/llm"
	"github.com/irfndi/tokenscope/internal/logging"
	"github.com/irfndi/tokenscope/internal/marketdata"
	"github.com/irfndi/tokenscope/internal/middleware"
	"github.com/irfndi/tokenscope/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.LogsEnabled {
		hook, err := logging.NewOTLPHook(logging.OTLPConfig{
			Endpoint:       cfg.Telemetry.OTLPEndpoint,
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Environment,
		})
		if err != nil {
			logger.WithError(err).Warn("OTLP log export disabled")
		} else {
			logger.AddHook(hook)
			defer func() {
				if err := hook.Shutdown(context.Background()); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to shutdown log exporter: %v\n", err)
				}
			}()
		}
	}

	// Initialize telemetry first
	provider, err := telemetry.InitTelemetry(ctx, telemetry.TelemetryConfig{
		Enabled:        cfg.Telemetry.Enabled,
		Exporter:       cfg.Telemetry.Exporter,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Environment,
		SampleRate:     1.0,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shutdown telemetry: %v\n", err)
		}
	}()

	service, err := newAnalysisService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if !service.ModelConfigured() {
		logger.Warn("OPENAI_API_KEY is not set; analysis requests will fail until it is configured")
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(cfg, service, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       config.Duration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout:      config.Duration(cfg.Server.WriteTimeout, 90*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logging.LogStartup(logger, cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion, cfg.Server.Port)
	if err := serve(ctx, srv, logger); err != nil {
		return err
	}
	logging.LogShutdown(logger, cfg.Telemetry.ServiceName, "signal received")
	return nil
}

// newAnalysisService wires the market-data and model clients. Without a model
// credential the service still starts and reports the misconfiguration per request.
func newAnalysisService(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*analysis.Service, error) {
	market := marketdata.NewClient(
		cfg.MarketData.BaseURL,
		config.Duration(cfg.MarketData.Timeout, marketdata.DefaultTimeout),
		logger,
	)

	model := llm.NewClientWithGenerator(nil, cfg.Model.Name, logger)
	if cfg.ModelConfigured() {
		var err error
		model, err = llm.NewClient(ctx, llm.Config{
			APIKey:  cfg.Model.APIKey,
			BaseURL: cfg.Model.BaseURL,
			Model:   cfg.Model.Name,
			Timeout: config.Duration(cfg.Model.Timeout, 60*time.Second),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create model client: %w", err)
		}
	}

	return analysis.NewService(market, model, cfg.ModelConfigured(), logger), nil
}

func newRouter(cfg *config.Config, analyzer analysis.Analyzer, logger logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	router.Use(middleware.RequestID())
	router.Use(middleware.TagRequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	health := handlers.NewHealthHandler(cfg.Telemetry.ServiceVersion, cfg.ModelConfigured())
	api.SetupRoutes(router, analyzer, health, logger)
	return router
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, logger logrus.FieldLogger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
