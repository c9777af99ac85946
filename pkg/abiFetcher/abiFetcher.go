// Package abiFetcher resolves the interface of a contract through an ordered
// list of sources and memoizes the outcome, positive or negative, for the
// lifetime of the process.
package abiFetcher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Layr-Labs/calldecoder/pkg/abiSource"
	"github.com/Layr-Labs/calldecoder/pkg/contractAbi"
	"github.com/Layr-Labs/calldecoder/pkg/metrics"
	"github.com/Layr-Labs/calldecoder/pkg/metrics/metricsTypes"
	"github.com/Layr-Labs/calldecoder/pkg/parser"
	"github.com/Layr-Labs/calldecoder/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	ddTracer "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

const DefaultResolveTimeout = 30 * time.Second

type cacheKey struct {
	chainId uint64
	address string
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%d:%s", k.chainId, k.address)
}

// cacheEntry holds either a resolved set or the failure that was remembered.
type cacheEntry struct {
	set contractAbi.InterfaceSet
	err error
}

// flight is one outstanding resolution. It is cancelled once every caller
// waiting on it has given up.
type flight struct {
	// id keys the flight in the singleflight group. It is unique per flight so
	// a caller never joins a call that was already abandoned.
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

type AbiFetcherConfig struct {
	// ResolveTimeout bounds one resolution across all sources.
	ResolveTimeout time.Duration
}

type AbiFetcher struct {
	logger      *zap.Logger
	sources     []abiSource.AbiSource
	metricsSink *metrics.MetricsSink
	config      *AbiFetcherConfig

	mu      sync.Mutex
	cache   map[cacheKey]*cacheEntry
	flights map[cacheKey]*flight
	flightN uint64
	group   singleflight.Group
}

func NewAbiFetcher(
	sources []abiSource.AbiSource,
	ms *metrics.MetricsSink,
	cfg *AbiFetcherConfig,
	l *zap.Logger,
) *AbiFetcher {
	if cfg == nil {
		cfg = &AbiFetcherConfig{}
	}
	if cfg.ResolveTimeout == 0 {
		cfg.ResolveTimeout = DefaultResolveTimeout
	}
	if ms == nil {
		ms = metrics.NewNoopMetricsSink()
	}
	return &AbiFetcher{
		logger:      l,
		sources:     sources,
		metricsSink: ms,
		config:      cfg,
		cache:       make(map[cacheKey]*cacheEntry),
		flights:     make(map[cacheKey]*flight),
	}
}

// SourceNames returns the configured source order.
func (af *AbiFetcher) SourceNames() []string {
	return utils.Map(af.sources, func(s abiSource.AbiSource, i uint64) string {
		return s.Name()
	})
}

// CacheSize returns the number of remembered (chain id, address) outcomes.
func (af *AbiFetcher) CacheSize() int {
	af.mu.Lock()
	defer af.mu.Unlock()
	return len(af.cache)
}

func (af *AbiFetcher) lookup(key cacheKey) (*cacheEntry, bool) {
	af.mu.Lock()
	defer af.mu.Unlock()
	e, ok := af.cache[key]
	return e, ok
}

func (af *AbiFetcher) store(key cacheKey, e *cacheEntry) {
	af.mu.Lock()
	af.cache[key] = e
	size := len(af.cache)
	af.mu.Unlock()

	af.metricsSink.Gauge(metricsTypes.Metric_Gauge_AbiFetcherCacheSize, float64(size), nil)
}

func (af *AbiFetcher) join(ctx context.Context, key cacheKey) *flight {
	af.mu.Lock()
	defer af.mu.Unlock()

	f, ok := af.flights[key]
	if !ok {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), af.config.ResolveTimeout)
		af.flightN++
		f = &flight{id: fmt.Sprintf("%s#%d", key, af.flightN), ctx: fctx, cancel: cancel}
		af.flights[key] = f
	}
	f.waiters++
	return f
}

func (af *AbiFetcher) leave(key cacheKey, f *flight) {
	af.mu.Lock()
	defer af.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	af.group.Forget(f.id)
	if af.flights[key] == f {
		delete(af.flights, key)
	}
}

func resultLabel(e *cacheEntry) string {
	if e.err != nil {
		return "negative"
	}
	return "positive"
}

// FetchInterface returns the interface of address on chainId. Concurrent
// callers for the same key share one resolution. A caller whose context ends
// first gets an ABIResolutionFailure; the resolution is abandoned once no
// caller waits for it, and abandoned resolutions are not cached.
func (af *AbiFetcher) FetchInterface(ctx context.Context, chainId uint64, address string) (contractAbi.InterfaceSet, error) {
	key := cacheKey{chainId: chainId, address: utils.NormalizeAddress(address)}

	if e, ok := af.lookup(key); ok {
		af.metricsSink.Incr(metricsTypes.Metric_Incr_AbiFetcherCacheHit, []metricsTypes.MetricsLabel{
			{Name: "result", Value: resultLabel(e)},
		}, 1)
		return e.set, e.err
	}

	span, ctx := ddTracer.StartSpanFromContext(ctx, "abiFetcher.fetch")
	span.SetTag("chain_id", chainId)
	span.SetTag("address", key.address)
	defer span.Finish()

	f := af.join(ctx, key)
	defer af.leave(key, f)

	ch := af.group.DoChan(f.id, func() (interface{}, error) {
		// another flight may have finished between the cache check and joining
		if e, ok := af.lookup(key); ok {
			return e, nil
		}
		e := af.resolve(f.ctx, key)
		if f.ctx.Err() == nil {
			af.store(key, e)
		}
		return e, nil
	})

	select {
	case res := <-ch:
		e := res.Val.(*cacheEntry)
		af.metricsSink.Incr(metricsTypes.Metric_Incr_AbiFetcherCacheMiss, []metricsTypes.MetricsLabel{
			{Name: "result", Value: resultLabel(e)},
		}, 1)
		if e.err != nil {
			span.SetTag("error", e.err)
		}
		return e.set, e.err
	case <-ctx.Done():
		err := parser.WrapDecodeError(parser.ErrorKind_ABIResolutionFailure, ctx.Err(),
			"resolution of %s on chain %d did not finish in time", key.address, chainId)
		span.SetTag("error", err)
		return nil, err
	}
}

// resolve tries each source in order; the first to succeed wins.
func (af *AbiFetcher) resolve(ctx context.Context, key cacheKey) *cacheEntry {
	failures := make([]string, 0, len(af.sources))

	for _, source := range af.sources {
		start := time.Now()
		set, err := source.FetchAbi(ctx, key.chainId, key.address)

		status := "found"
		switch {
		case err == nil && len(set) == 0:
			err = abiSource.ErrNotFound
			status = "not_found"
		case errors.Is(err, abiSource.ErrNotFound):
			status = "not_found"
		case err != nil:
			status = "error"
		}
		labels := []metricsTypes.MetricsLabel{
			{Name: "strategy", Value: source.Name()},
			{Name: "status", Value: status},
		}
		af.metricsSink.Incr(metricsTypes.Metric_Incr_AbiFetcherStrategy, labels, 1)
		af.metricsSink.Timing(metricsTypes.Metric_Timing_StrategyDuration, time.Since(start), labels)

		if err == nil {
			af.logger.Sugar().Debugw("Resolved contract interface",
				zap.String("strategy", source.Name()),
				zap.Uint64("chainId", key.chainId),
				zap.String("address", key.address),
				zap.Int("functions", len(set)),
			)
			return &cacheEntry{set: set}
		}

		af.logger.Sugar().Debugw("Strategy could not resolve contract",
			zap.String("strategy", source.Name()),
			zap.Uint64("chainId", key.chainId),
			zap.String("address", key.address),
			zap.Error(err),
		)
		failures = append(failures, fmt.Sprintf("%s: %v", source.Name(), err))

		if ctx.Err() != nil {
			break
		}
	}

	if len(failures) == 0 {
		failures = append(failures, "no strategies configured")
	}
	return &cacheEntry{
		err: &parser.DecodeError{
			Kind:    parser.ErrorKind_ABIResolutionFailure,
			Message: "could not resolve interface for " + key.address + " on chain " + strconv.FormatUint(key.chainId, 10),
			Details: strings.Join(failures, "; "),
		},
	}
}
