package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Layr-Labs/calldecoder/internal/config"
	"github.com/Layr-Labs/calldecoder/pkg/metrics/dogstatsd"
	"github.com/Layr-Labs/calldecoder/pkg/metrics/metricsTypes"
	"github.com/Layr-Labs/calldecoder/pkg/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type MetricsSinkConfig struct {
	DefaultLabels []metricsTypes.MetricsLabel
}

// MetricsSink fans every measurement out to all configured clients.
type MetricsSink struct {
	config  *MetricsSinkConfig
	clients []metricsTypes.IMetricsClient
}

func NewMetricsSink(cfg *MetricsSinkConfig, clients []metricsTypes.IMetricsClient) (*MetricsSink, error) {
	return &MetricsSink{
		config:  cfg,
		clients: clients,
	}, nil
}

// NewNoopMetricsSink returns a sink without clients.
func NewNoopMetricsSink() *MetricsSink {
	return &MetricsSink{config: &MetricsSinkConfig{}}
}

func (ms *MetricsSink) withDefaults(labels []metricsTypes.MetricsLabel) []metricsTypes.MetricsLabel {
	if ms.config == nil || len(ms.config.DefaultLabels) == 0 {
		return labels
	}
	return append(append([]metricsTypes.MetricsLabel{}, ms.config.DefaultLabels...), labels...)
}

func (ms *MetricsSink) Incr(name string, labels []metricsTypes.MetricsLabel, value float64) {
	for _, client := range ms.clients {
		_ = client.Incr(name, ms.withDefaults(labels), value)
	}
}

func (ms *MetricsSink) Gauge(name string, value float64, labels []metricsTypes.MetricsLabel) {
	for _, client := range ms.clients {
		_ = client.Gauge(name, value, ms.withDefaults(labels))
	}
}

func (ms *MetricsSink) Timing(name string, value time.Duration, labels []metricsTypes.MetricsLabel) {
	for _, client := range ms.clients {
		_ = client.Timing(name, value, ms.withDefaults(labels))
	}
}

func (ms *MetricsSink) Flush() {
	for _, client := range ms.clients {
		client.Flush()
	}
}

// InitMetricsSinksFromConfig builds the clients enabled in cfg.
func InitMetricsSinksFromConfig(cfg *config.Config, l *zap.Logger) ([]metricsTypes.IMetricsClient, error) {
	clients := make([]metricsTypes.IMetricsClient, 0)

	if cfg.DataDogConfig.StatsdConfig.Enabled {
		s, err := dogstatsd.NewDogStatsdMetricsClient(cfg.DataDogConfig.StatsdConfig.Url, l)
		if err != nil {
			return nil, fmt.Errorf("failed to setup statsd client: %w", err)
		}
		clients = append(clients, s)
		l.Sugar().Infow("Datadog statsd metrics enabled", zap.String("url", cfg.DataDogConfig.StatsdConfig.Url))
	}

	if cfg.PrometheusConfig.Enabled {
		pc, err := prometheus.NewPrometheusMetricsClient(&prometheus.PrometheusMetricsConfig{
			Metrics: metricsTypes.MetricTypes,
		}, l)
		if err != nil {
			return nil, fmt.Errorf("failed to setup prometheus client: %w", err)
		}
		clients = append(clients, pc)
		l.Sugar().Infow("Prometheus metrics enabled", zap.Int("port", cfg.PrometheusConfig.Port))
	}

	return clients, nil
}

// StartPrometheusServer serves /metrics on the configured port in the background.
func StartPrometheusServer(cfg *config.Config, l *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.PrometheusConfig.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Sugar().Errorw("Prometheus server stopped", zap.Error(err))
		}
	}()
	return server
}
