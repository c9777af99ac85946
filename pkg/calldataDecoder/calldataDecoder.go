// Package calldataDecoder turns (chain id, contract address, calldata) into a
// decoded call tree. It picks the interface of the called function, decodes
// the arguments and then decodes any calls embedded in batch envelopes.
package calldataDecoder

import (
	"context"
	"strconv"
	"time"

	"github.com/Layr-Labs/calldecoder/pkg/abiCodec"
	"github.com/Layr-Labs/calldecoder/pkg/contractAbi"
	"github.com/Layr-Labs/calldecoder/pkg/fastPath"
	"github.com/Layr-Labs/calldecoder/pkg/knownContracts"
	"github.com/Layr-Labs/calldecoder/pkg/metrics"
	"github.com/Layr-Labs/calldecoder/pkg/metrics/metricsTypes"
	"github.com/Layr-Labs/calldecoder/pkg/parser"
	"github.com/Layr-Labs/calldecoder/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	ddTracer "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

const (
	DefaultMaxDepth       = 5
	DefaultMaxConcurrency = 4
	DefaultTimeout        = 30 * time.Second
)

// InterfaceResolver looks up the interface of a contract. Implementations
// return a DecodeError of kind ABIResolutionFailure when they can't.
type InterfaceResolver interface {
	FetchInterface(ctx context.Context, chainId uint64, address string) (contractAbi.InterfaceSet, error)
}

type DecoderConfig struct {
	// MaxDepth is the deepest nesting level that is still decoded. The
	// top-level call is depth 0.
	MaxDepth int
	// MaxConcurrency bounds how many siblings of one envelope decode at once
	// and how many resolver lookups the decoder has outstanding in total,
	// across nested envelopes and batches.
	MaxConcurrency int
	// Timeout bounds a whole top-level Decode. Zero disables it.
	Timeout time.Duration
}

func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		MaxDepth:       DefaultMaxDepth,
		MaxConcurrency: DefaultMaxConcurrency,
		Timeout:        DefaultTimeout,
	}
}

// Decoder holds everything a decode needs. It has no per-call state and is
// safe for concurrent use.
type Decoder struct {
	registry    *knownContracts.Registry
	resolver    InterfaceResolver
	metricsSink *metrics.MetricsSink
	config      *DecoderConfig
	lookups     *semaphore.Weighted
	logger      *zap.Logger
}

// NewDecoder builds a decoder. registry and resolver may be nil, in which case
// that stage is skipped.
func NewDecoder(
	registry *knownContracts.Registry,
	resolver InterfaceResolver,
	ms *metrics.MetricsSink,
	cfg *DecoderConfig,
	l *zap.Logger,
) *Decoder {
	if cfg == nil {
		cfg = DefaultDecoderConfig()
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}
	if registry == nil {
		registry = knownContracts.NewRegistry()
	}
	if ms == nil {
		ms = metrics.NewNoopMetricsSink()
	}
	return &Decoder{
		registry:    registry,
		resolver:    resolver,
		metricsSink: ms,
		config:      cfg,
		lookups:     semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		logger:      l,
	}
}

// decodeRequest carries the identity of one top-level Decode through the
// recursion.
type decodeRequest struct {
	id      string
	chainId uint64
}

// ParseCalldata decodes hex calldata. The 0x prefix is optional.
func ParseCalldata(s string) ([]byte, error) {
	b, err := utils.DecodeHexString(s)
	if err != nil {
		return nil, parser.WrapDecodeError(parser.ErrorKind_MalformedCalldata, err, "calldata is not valid hex")
	}
	return b, nil
}

// DecodeHex is Decode for hex encoded calldata.
func (d *Decoder) DecodeHex(ctx context.Context, chainId uint64, address string, calldata string) (*parser.DecodedCall, error) {
	b, err := ParseCalldata(calldata)
	if err != nil {
		return nil, err
	}
	return d.Decode(ctx, chainId, address, b)
}

// Decode decodes one call to address on chainId. Failures of the call itself
// are returned as a *parser.DecodeError. Failures of embedded calls only leave
// the corresponding ValueDecoded unset.
func (d *Decoder) Decode(ctx context.Context, chainId uint64, address string, calldata []byte) (*parser.DecodedCall, error) {
	req := &decodeRequest{id: uuid.New().String(), chainId: chainId}
	start := time.Now()

	span, ctx := ddTracer.StartSpanFromContext(ctx, "calldecoder.decode")
	span.SetTag("request_id", req.id)
	span.SetTag("chain_id", chainId)
	span.SetTag("address", address)
	defer span.Finish()

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	var call *parser.DecodedCall
	var err error
	if !utils.IsValidAddress(address) {
		err = parser.NewDecodeError(parser.ErrorKind_MalformedCalldata, "invalid contract address '%s'", address)
	} else {
		call, err = d.decodeCall(ctx, req, utils.NormalizeAddress(address), calldata, 0)
	}

	status := "success"
	kind := ""
	if err != nil {
		status = "error"
		kind = string(parser.KindOf(err))
		span.SetTag("error", err)
		d.logger.Sugar().Debugw("Failed to decode calldata",
			zap.String("requestId", req.id),
			zap.Uint64("chainId", chainId),
			zap.String("address", address),
			zap.Error(err),
		)
	} else {
		d.logger.Sugar().Debugw("Decoded calldata",
			zap.String("requestId", req.id),
			zap.Uint64("chainId", chainId),
			zap.String("address", address),
			zap.String("signature", call.Signature),
			zap.Duration("duration", time.Since(start)),
		)
	}
	d.metricsSink.Incr(metricsTypes.Metric_Incr_Decode, []metricsTypes.MetricsLabel{
		{Name: "status", Value: status},
		{Name: "kind", Value: kind},
		{Name: "chain_id", Value: strconv.FormatUint(chainId, 10)},
	}, 1)
	d.metricsSink.Timing(metricsTypes.Metric_Timing_DecodeDuration, time.Since(start), []metricsTypes.MetricsLabel{
		{Name: "status", Value: status},
	})

	return call, err
}

func (d *Decoder) decodeCall(ctx context.Context, req *decodeRequest, address string, calldata []byte, depth int) (*parser.DecodedCall, error) {
	if depth > d.config.MaxDepth {
		return nil, parser.NewDecodeError(parser.ErrorKind_RecursionDepthExceeded,
			"call to %s is nested %d levels deep, limit is %d", address, depth, d.config.MaxDepth)
	}

	selector, ok := contractAbi.SelectorFromCalldata(calldata)
	if !ok {
		return nil, parser.NewDecodeError(parser.ErrorKind_MalformedCalldata,
			"calldata has %d bytes, a selector needs %d", len(calldata), contractAbi.SelectorLength)
	}

	if call, ok, err := fastPath.Decode(calldata); ok {
		return call, err
	}

	entry, err := d.selectFunction(ctx, req.chainId, address, selector)
	if err != nil {
		return nil, err
	}

	params, err := abiCodec.DecodeArguments(entry.Inputs, calldata[contractAbi.SelectorLength:])
	if err != nil {
		return nil, err
	}
	call := &parser.DecodedCall{
		Name:      entry.Name,
		Signature: entry.Signature,
		Kind:      parser.CallKind_Function,
		Params:    params,
	}

	d.expand(ctx, req, call, depth)
	return call, nil
}

// selectFunction finds the function for selector: the known contracts first,
// then the resolver.
func (d *Decoder) selectFunction(ctx context.Context, chainId uint64, address string, selector contractAbi.Selector) (*contractAbi.InterfaceEntry, error) {
	if entry, ok := d.registry.LookupFunction(chainId, address, selector); ok {
		return entry, nil
	}
	if d.resolver == nil {
		return nil, parser.NewDecodeError(parser.ErrorKind_UnrecognizedSelector,
			"no function matches selector %s on %s", selector, address)
	}

	set, err := d.fetchInterface(ctx, chainId, address)
	if err != nil {
		return nil, err
	}
	entry, ok := set.Lookup(selector)
	if !ok {
		return nil, parser.NewDecodeError(parser.ErrorKind_UnrecognizedSelector,
			"interface of %s has no function with selector %s", address, selector)
	}
	return entry, nil
}

// fetchInterface calls the resolver once a lookup slot is free. Slots are only
// held for the lookup itself, never while embedded calls are decoded.
func (d *Decoder) fetchInterface(ctx context.Context, chainId uint64, address string) (contractAbi.InterfaceSet, error) {
	if err := d.lookups.Acquire(ctx, 1); err != nil {
		return nil, parser.WrapDecodeError(parser.ErrorKind_ABIResolutionFailure, err,
			"gave up waiting to resolve interface for %s", address)
	}
	defer d.lookups.Release(1)
	return d.resolver.FetchInterface(ctx, chainId, address)
}
