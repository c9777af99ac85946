package prometheus

import (
	"testing"
	"time"

	"github.com/Layr-Labs/calldecoder/internal/logger"
	"github.com/Layr-Labs/calldecoder/pkg/metrics/metricsTypes"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func Test_UnexpectedLabelsParsing(t *testing.T) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	assert.Nil(t, err)

	pmc, err := NewPrometheusMetricsClient(&PrometheusMetricsConfig{
		Metrics:    metricsTypes.MetricTypes,
		Registerer: prometheus.NewRegistry(),
	}, l)
	assert.Nil(t, err)

	t.Run("Should return no error for all labels", func(t *testing.T) {
		err := pmc.hasUnexpectedLabels(metricsTypes.MetricsType_Timing, metricsTypes.Metric_Timing_StrategyDuration, []metricsTypes.MetricsLabel{
			{Name: "strategy", Value: "etherscan"},
			{Name: "status", Value: "success"},
		})
		assert.Nil(t, err)
	})
	t.Run("Should return no error for a subset labels", func(t *testing.T) {
		err := pmc.hasUnexpectedLabels(metricsTypes.MetricsType_Timing, metricsTypes.Metric_Timing_StrategyDuration, []metricsTypes.MetricsLabel{
			{Name: "strategy", Value: "etherscan"},
		})
		assert.Nil(t, err)
	})
	t.Run("Should return an error for unexpected labels", func(t *testing.T) {
		err := pmc.hasUnexpectedLabels(metricsTypes.MetricsType_Timing, metricsTypes.Metric_Timing_StrategyDuration, []metricsTypes.MetricsLabel{
			{Name: "strategy", Value: "etherscan"},
			{Name: "status", Value: "success"},
			{Name: "unexpectedLabel", Value: "unexpectedValue"},
		})
		assert.NotNil(t, err)
	})
	t.Run("Should return an error for unexpected labels when expecting 0 labels", func(t *testing.T) {
		err := pmc.hasUnexpectedLabels(metricsTypes.MetricsType_Gauge, metricsTypes.Metric_Gauge_AbiFetcherCacheSize, []metricsTypes.MetricsLabel{
			{Name: "strategy", Value: "etherscan"},
		})
		assert.NotNil(t, err)
	})
}

func Test_PrometheusRecording(t *testing.T) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	assert.Nil(t, err)

	pmc, err := NewPrometheusMetricsClient(&PrometheusMetricsConfig{
		Metrics:    metricsTypes.MetricTypes,
		Registerer: prometheus.NewRegistry(),
	}, l)
	assert.Nil(t, err)

	t.Run("Should count with partial labels", func(t *testing.T) {
		err := pmc.Incr(metricsTypes.Metric_Incr_AbiFetcherCacheHit, []metricsTypes.MetricsLabel{{Name: "result", Value: "positive"}}, 1)
		assert.Nil(t, err)
		err = pmc.Incr(metricsTypes.Metric_Incr_Decode, []metricsTypes.MetricsLabel{{Name: "status", Value: "success"}}, 2)
		assert.Nil(t, err)

		assert.Equal(t, float64(1), testutil.ToFloat64(pmc.counters[metricsTypes.Metric_Incr_AbiFetcherCacheHit].WithLabelValues("positive")))
		assert.Equal(t, float64(2), testutil.ToFloat64(pmc.counters[metricsTypes.Metric_Incr_Decode].WithLabelValues("success", "", "")))
	})
	t.Run("Should set gauges and observe timings", func(t *testing.T) {
		assert.Nil(t, pmc.Gauge(metricsTypes.Metric_Gauge_AbiFetcherCacheSize, 12, nil))
		assert.Equal(t, float64(12), testutil.ToFloat64(pmc.gauges[metricsTypes.Metric_Gauge_AbiFetcherCacheSize].WithLabelValues()))

		assert.Nil(t, pmc.Timing(metricsTypes.Metric_Timing_DecodeDuration, 15*time.Millisecond, []metricsTypes.MetricsLabel{{Name: "status", Value: "success"}}))
	})
	t.Run("Should ignore unknown metrics", func(t *testing.T) {
		assert.Nil(t, pmc.Incr("not.registered", nil, 1))
	})
	t.Run("Should format dotted names", func(t *testing.T) {
		assert.Equal(t, "abiFetcher_cache_hit", formatName(metricsTypes.Metric_Incr_AbiFetcherCacheHit))
	})
}
