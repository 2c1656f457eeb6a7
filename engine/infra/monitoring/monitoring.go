package monitoring

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/verdicthq/verdict/engine/infra/monitoring/middleware"
	"github.com/verdicthq/verdict/pkg/logger"
)

// Service bridges the otel metrics SDK to a dedicated Prometheus
// registry and serves the /metrics endpoint.
type Service struct {
	meter             metric.Meter
	exporter          *prometheus.Exporter
	provider          *sdkmetric.MeterProvider
	registry          *prom.Registry
	config            *Config
	initialized       bool
	initializationErr error
}

// newDisabledService creates a service instance with no-op implementations.
func newDisabledService(cfg *Config, initErr error) *Service {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Service{
		config:            cfg,
		meter:             noop.NewMeterProvider().Meter("verdict"),
		initialized:       false,
		initializationErr: initErr,
	}
}

// NewService creates a monitoring service with a Prometheus exporter.
// A disabled config yields a no-op meter so callers can instrument
// unconditionally.
func NewService(ctx context.Context, cfg *Config) (*Service, error) {
	log := logger.FromContext(ctx)
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		log.Debug("Monitoring disabled, using no-op meter")
		return newDisabledService(cfg, nil), nil
	}
	registry := prom.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	service := &Service{
		meter:       provider.Meter("verdict"),
		exporter:    exporter,
		provider:    provider,
		registry:    registry,
		config:      cfg,
		initialized: true,
	}
	log.Info("Monitoring service initialized", "path", cfg.Path)
	return service, nil
}

// NewServiceWithFallback creates a monitoring service that degrades to
// a no-op meter instead of failing startup on initialization errors.
func NewServiceWithFallback(ctx context.Context, cfg *Config) *Service {
	service, err := NewService(ctx, cfg)
	if err != nil {
		logger.FromContext(ctx).Error(
			"Failed to initialize monitoring, using no-op implementation", "error", err)
		return newDisabledService(cfg, err)
	}
	return service
}

// Meter returns the otel meter for custom instrumentation.
func (s *Service) Meter() metric.Meter {
	return s.meter
}

// Path returns the configured metrics route.
func (s *Service) Path() string {
	return s.config.Path
}

// Enabled reports whether metrics collection is active.
func (s *Service) Enabled() bool {
	return s.config.Enabled
}

// GinMiddleware returns gin middleware recording HTTP request metrics.
func (s *Service) GinMiddleware() gin.HandlerFunc {
	if !s.initialized {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return middleware.HTTPMetrics(s.meter)
}

// ExporterHandler returns the HTTP handler serving the metrics endpoint.
func (s *Service) ExporterHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.initialized {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, err := w.Write([]byte("Monitoring service not initialized")); err != nil {
				logger.FromContext(r.Context()).Error("Failed to write response", "error", err)
			}
			return
		}
		promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

// SetAsGlobal installs this service's provider as the global otel meter
// provider so package-level instruments report through it.
func (s *Service) SetAsGlobal() {
	if s.provider != nil {
		otel.SetMeterProvider(s.provider)
	}
}

// IsInitialized reports whether the exporter pipeline came up.
func (s *Service) IsInitialized() bool {
	return s.initialized
}

// InitializationError returns any error captured during initialization.
func (s *Service) InitializationError() error {
	return s.initializationErr
}

// Shutdown flushes and stops the meter provider.
func (s *Service) Shutdown(ctx context.Context) error {
	if s.provider != nil {
		return s.provider.Shutdown(ctx)
	}
	return nil
}
