package calldataDecoder

import (
	"context"
	"math/big"
	"strings"

	"github.com/Layr-Labs/calldecoder/pkg/abiCodec"
	"github.com/Layr-Labs/calldecoder/pkg/metrics/metricsTypes"
	"github.com/Layr-Labs/calldecoder/pkg/parser"
	"github.com/Layr-Labs/calldecoder/pkg/utils"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchEnvelopeType is the ABI type of a list of (target, value, data) calls.
const BatchEnvelopeType = "(address,uint256,bytes)[]"

// BatchMode is the execution mode word that marks the payload of a
// mode-tagged execute as a batch.
var BatchMode = common.BigToHash(big.NewInt(4))

// batchTransactions describes the payload of a batch mode execute. It is
// attached as a synthetic call.
var batchTransactions = struct {
	name string
	args []abiCodec.Argument
}{
	name: "batchTransactions",
	args: []abiCodec.Argument{
		{Name: "executions", Type: abiCodec.MustParseType("(address target,uint256 value,bytes callData)[]")},
	},
}

// embeddedCall is one (target, data) pair found inside a decoded call. The
// decoded result is written to param.
type embeddedCall struct {
	index  int
	target string
	data   []byte
	param  *parser.DecodedParam
}

// expand decodes the calls embedded in call and attaches them as
// ValueDecoded. Failures stay local to the embedded call.
func (d *Decoder) expand(ctx context.Context, req *decodeRequest, call *parser.DecodedCall, depth int) {
	embedded := make([]*embeddedCall, 0)

	for i, param := range call.Params {
		if param.Type == BatchEnvelopeType {
			embedded = append(embedded, envelopeCalls(param)...)
			continue
		}
		if isModeTaggedExecute(call, i) {
			d.expandExecutionPayload(ctx, req, call, depth)
		}
	}

	if len(embedded) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(d.config.MaxConcurrency)
	for _, e := range embedded {
		g.Go(func() error {
			d.decodeEmbedded(ctx, req, e, depth+1)
			return nil
		})
	}
	_ = g.Wait()
}

// envelopeCalls lists the elements of a batch envelope that carry calldata.
// Elements with empty data are plain value transfers and stay as they are.
func envelopeCalls(param *parser.DecodedParam) []*embeddedCall {
	elements, ok := param.Value.(parser.Array)
	if !ok {
		return nil
	}

	calls := make([]*embeddedCall, 0, len(elements))
	for i, element := range elements {
		fields, ok := element.(parser.Tuple)
		if !ok || len(fields) != 3 {
			continue
		}
		target, ok := fields[0].Value.(parser.Address)
		if !ok {
			continue
		}
		raw, ok := fields[2].Value.(parser.Bytes)
		if !ok {
			continue
		}
		data, err := utils.DecodeHexString(string(raw))
		if err != nil || len(data) == 0 {
			continue
		}
		calls = append(calls, &embeddedCall{
			index:  i,
			target: string(target),
			data:   data,
			param:  fields[2],
		})
	}
	return calls
}

func (d *Decoder) decodeEmbedded(ctx context.Context, req *decodeRequest, e *embeddedCall, depth int) {
	nested, err := d.decodeCall(ctx, req, e.target, e.data, depth)
	if err != nil {
		d.logger.Sugar().Debugw("Embedded call could not be decoded",
			zap.String("requestId", req.id),
			zap.Int("index", e.index),
			zap.Int("depth", depth),
			zap.String("target", e.target),
			zap.String("kind", string(parser.KindOf(err))),
			zap.Error(err),
		)
		d.metricsSink.Incr(metricsTypes.Metric_Incr_NestedDecode, []metricsTypes.MetricsLabel{
			{Name: "status", Value: "error"},
			{Name: "kind", Value: string(parser.KindOf(err))},
		}, 1)
		return
	}
	d.metricsSink.Incr(metricsTypes.Metric_Incr_NestedDecode, []metricsTypes.MetricsLabel{
		{Name: "status", Value: "success"},
		{Name: "kind", Value: ""},
	}, 1)
	e.param.ValueDecoded = nested
}

// isModeTaggedExecute reports whether param i of call is the payload of an
// execute(bytes32 mode, bytes payload) style call.
func isModeTaggedExecute(call *parser.DecodedCall, i int) bool {
	return i == 1 &&
		len(call.Params) == 2 &&
		call.Params[0].Type == "bytes32" &&
		call.Params[1].Type == "bytes"
}

// expandExecutionPayload decodes the payload of a mode-tagged execute as a
// batch when the mode word says so. The batch becomes a synthetic
// batchTransactions call whose elements are expanded in turn.
func (d *Decoder) expandExecutionPayload(ctx context.Context, req *decodeRequest, call *parser.DecodedCall, depth int) {
	mode, ok := call.Params[0].Value.(parser.Bytes)
	if !ok || common.HexToHash(string(mode)) != BatchMode {
		d.logger.Sugar().Debugw("Execution mode is not batch, leaving payload undecoded",
			zap.String("requestId", req.id),
			zap.String("mode", string(mode)),
		)
		return
	}

	raw, ok := call.Params[1].Value.(parser.Bytes)
	if !ok {
		return
	}
	payload, err := utils.DecodeHexString(string(raw))
	if err != nil {
		return
	}

	params, err := abiCodec.DecodeArguments(batchTransactions.args, payload)
	if err != nil {
		d.logger.Sugar().Debugw("Batch execution payload could not be decoded",
			zap.String("requestId", req.id),
			zap.Error(err),
		)
		return
	}
	types := make([]string, len(batchTransactions.args))
	for i, a := range batchTransactions.args {
		types[i] = a.Type.String()
	}
	batch := &parser.DecodedCall{
		Name:      batchTransactions.name,
		Signature: batchTransactions.name + "(" + strings.Join(types, ",") + ")",
		Kind:      parser.CallKind_Function,
		Params:    params,
	}

	// the synthetic call is a container, its elements sit one level below
	// the execute call
	d.expand(ctx, req, batch, depth)
	call.Params[1].ValueDecoded = batch
}
