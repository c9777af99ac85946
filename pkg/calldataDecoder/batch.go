package calldataDecoder

import (
	"context"
	"errors"

	"github.com/Layr-Labs/calldecoder/pkg/parser"
	"golang.org/x/sync/errgroup"
)

// DecodeRequest is one row of a batch decode.
type DecodeRequest struct {
	ChainId  uint64 `csv:"chain_id" json:"chainId"`
	Address  string `csv:"address" json:"address"`
	Calldata string `csv:"calldata" json:"calldata"`
}

// DecodeResult holds either the decoded call or the error for one request.
type DecodeResult struct {
	DecodeRequest
	Result *parser.DecodedCall `json:"result,omitempty"`
	Error  *parser.DecodeError `json:"error,omitempty"`
}

func toDecodeError(err error) *parser.DecodeError {
	var de *parser.DecodeError
	if errors.As(err, &de) {
		return de
	}
	return &parser.DecodeError{Message: err.Error()}
}

// DecodeBatch decodes every request, at most MaxConcurrency at a time.
// Results are in request order. onDone, when set, is called once per finished
// request and may be called concurrently.
func (d *Decoder) DecodeBatch(ctx context.Context, requests []*DecodeRequest, onDone func()) []*DecodeResult {
	results := make([]*DecodeResult, len(requests))

	var g errgroup.Group
	g.SetLimit(d.config.MaxConcurrency)
	for i, req := range requests {
		g.Go(func() error {
			res := &DecodeResult{DecodeRequest: *req}
			call, err := d.DecodeHex(ctx, req.ChainId, req.Address, req.Calldata)
			if err != nil {
				res.Error = toDecodeError(err)
			} else {
				res.Result = call
			}
			results[i] = res
			if onDone != nil {
				onDone()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
