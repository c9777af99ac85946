package metricsTypes

import "time"

type IMetricsClient interface {
	Incr(name string, labels []MetricsLabel, value float64) error
	Gauge(name string, value float64, labels []MetricsLabel) error
	Timing(name string, value time.Duration, labels []MetricsLabel) error
	Flush()
}

type MetricsLabel struct {
	Name  string
	Value string
}

type MetricsType string

var (
	MetricsType_Incr   MetricsType = "incr"
	MetricsType_Gauge  MetricsType = "gauge"
	MetricsType_Timing MetricsType = "timing"
)

type MetricsTypeConfig struct {
	Name   string
	Labels []string
}

var (
	Metric_Incr_Decode              = "decoder.decode"
	Metric_Incr_NestedDecode        = "decoder.nested"
	Metric_Incr_AbiFetcherCacheHit  = "abiFetcher.cache.hit"
	Metric_Incr_AbiFetcherCacheMiss = "abiFetcher.cache.miss"
	Metric_Incr_AbiFetcherStrategy  = "abiFetcher.strategy"

	Metric_Gauge_AbiFetcherCacheSize = "abiFetcher.cache.size"

	Metric_Timing_DecodeDuration   = "decoder.decode.duration"
	Metric_Timing_StrategyDuration = "abiFetcher.strategy.duration"
)

var MetricTypes = map[MetricsType][]MetricsTypeConfig{
	MetricsType_Incr: {
		MetricsTypeConfig{
			Name: Metric_Incr_Decode,
			Labels: []string{
				"status",
				"kind",
				"chain_id",
			},
		},
		MetricsTypeConfig{
			Name: Metric_Incr_NestedDecode,
			Labels: []string{
				"status",
				"kind",
			},
		},
		MetricsTypeConfig{
			Name: Metric_Incr_AbiFetcherCacheHit,
			Labels: []string{
				"result",
			},
		},
		MetricsTypeConfig{
			Name: Metric_Incr_AbiFetcherCacheMiss,
			Labels: []string{
				"result",
			},
		},
		MetricsTypeConfig{
			Name: Metric_Incr_AbiFetcherStrategy,
			Labels: []string{
				"strategy",
				"status",
			},
		},
	},
	MetricsType_Gauge: {
		MetricsTypeConfig{
			Name:   Metric_Gauge_AbiFetcherCacheSize,
			Labels: []string{},
		},
	},
	MetricsType_Timing: {
		MetricsTypeConfig{
			Name: Metric_Timing_DecodeDuration,
			Labels: []string{
				"status",
			},
		},
		MetricsTypeConfig{
			Name: Metric_Timing_StrategyDuration,
			Labels: []string{
				"strategy",
				"status",
			},
		},
	},
}
