package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Layr-Labs/calldecoder/pkg/contractCaller"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/jarcoal/httpmock"
)

// JsonRpcHandler produces the result for one json-rpc method call.
type JsonRpcHandler func(params []json.RawMessage) (interface{}, error)

type jsonRpcRequest struct {
	Id     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// NewJsonRpcResponder answers single json-rpc requests from handlers keyed by
// method name. Unknown methods and handler errors become json-rpc errors.
func NewJsonRpcResponder(handlers map[string]JsonRpcHandler) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		var body jsonRpcRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			return httpmock.NewStringResponse(http.StatusBadRequest, err.Error()), nil
		}
		handler, ok := handlers[body.Method]
		if !ok {
			return jsonRpcError(body.Id, -32601, "method not found")
		}
		result, err := handler(body.Params)
		if err != nil {
			return jsonRpcError(body.Id, 3, err.Error())
		}
		return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      body.Id,
			"result":  result,
		})
	}
}

func jsonRpcError(id json.RawMessage, code int, message string) (*http.Response, error) {
	return httpmock.NewJsonResponse(http.StatusOK, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}

// StaticResult returns a handler that always answers with result.
func StaticResult(result interface{}) JsonRpcHandler {
	return func(params []json.RawMessage) (interface{}, error) {
		return result, nil
	}
}

// EthCallRequest is the call object of an eth_call.
type EthCallRequest struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Data  string `json:"data"`
	Input string `json:"input"`
}

// CallData returns the input of the call regardless of which field carried it.
func (r EthCallRequest) CallData() string {
	if r.Input != "" {
		return r.Input
	}
	return r.Data
}

// NewErc20CallHandler answers eth_call for the given tokens, packing the
// outputs configured per method name. Unknown contracts return empty data and
// unconfigured methods revert.
func NewErc20CallHandler(tokens map[string]map[string]interface{}) JsonRpcHandler {
	parsed, err := abi.JSON(strings.NewReader(contractCaller.Erc20Abi))
	if err != nil {
		panic(err)
	}

	return func(params []json.RawMessage) (interface{}, error) {
		var req EthCallRequest
		if err := json.Unmarshal(params[0], &req); err != nil {
			return nil, err
		}
		outputs, ok := tokens[strings.ToLower(req.To)]
		if !ok {
			return "0x", nil
		}
		data, err := hexutil.Decode(req.CallData())
		if err != nil || len(data) < 4 {
			return nil, fmt.Errorf("bad call data")
		}
		method, err := parsed.MethodById(data[:4])
		if err != nil {
			return nil, fmt.Errorf("execution reverted")
		}
		value, ok := outputs[method.Name]
		if !ok {
			return nil, fmt.Errorf("execution reverted")
		}
		packed, err := method.Outputs.Pack(value)
		if err != nil {
			return nil, err
		}
		return hexutil.Encode(packed), nil
	}
}

// NewTransactionHandler answers eth_getTransactionByHash from txs. Mined
// transactions carry a block number; unknown hashes return null.
func NewTransactionHandler(txs map[common.Hash]*types.Transaction, mined bool) JsonRpcHandler {
	return func(params []json.RawMessage) (interface{}, error) {
		var hash common.Hash
		if err := json.Unmarshal(params[0], &hash); err != nil {
			return nil, err
		}
		tx, ok := txs[hash]
		if !ok {
			return nil, nil
		}
		raw, err := tx.MarshalJSON()
		if err != nil {
			return nil, err
		}
		fields := make(map[string]interface{})
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		if mined {
			fields["blockNumber"] = "0x10"
		}
		return fields, nil
	}
}
