package dogstatsd

import (
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/Layr-Labs/calldecoder/pkg/metrics/metricsTypes"
	"go.uber.org/zap"
)

type DogStatsdMetricsClient struct {
	client *statsd.Client
	logger *zap.Logger
}

// NewDogStatsdMetricsClient connects to the agent at addr ("host:port") and
// prefixes every metric with "calldecoder.".
func NewDogStatsdMetricsClient(addr string, l *zap.Logger) (*DogStatsdMetricsClient, error) {
	s, err := statsd.New(addr, statsd.WithNamespace("calldecoder."))
	if err != nil {
		l.Sugar().Errorw("Failed to create statsd client", zap.Error(err))
		return nil, err
	}
	return &DogStatsdMetricsClient{
		client: s,
		logger: l,
	}, nil
}

func formatTags(labels []metricsTypes.MetricsLabel) []string {
	tags := make([]string, 0, len(labels))
	for _, l := range labels {
		tags = append(tags, fmt.Sprintf("%s:%s", l.Name, l.Value))
	}
	return tags
}

func (dsc *DogStatsdMetricsClient) Incr(name string, labels []metricsTypes.MetricsLabel, value float64) error {
	return dsc.client.Count(name, int64(value), formatTags(labels), 1)
}

func (dsc *DogStatsdMetricsClient) Gauge(name string, value float64, labels []metricsTypes.MetricsLabel) error {
	return dsc.client.Gauge(name, value, formatTags(labels), 1)
}

func (dsc *DogStatsdMetricsClient) Timing(name string, value time.Duration, labels []metricsTypes.MetricsLabel) error {
	return dsc.client.Timing(name, value, formatTags(labels), 1)
}

func (dsc *DogStatsdMetricsClient) Flush() {
	if err := dsc.client.Flush(); err != nil {
		dsc.logger.Sugar().Warnw("Failed to flush statsd client", zap.Error(err))
	}
}
