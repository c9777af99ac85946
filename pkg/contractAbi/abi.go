package contractAbi

import (
	"encoding/json"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrEmptyAbi is returned for blank ABI documents.
var ErrEmptyAbi = errors.New("abi json is empty")

// ParseAbiJson parses an ABI JSON document with go-ethereum. go-ethereum
// rejects a whole document over a single entry it cannot parse (fixed point
// types, duplicate receive functions), so on failure every entry is parsed on
// its own and the unparseable ones are skipped.
func ParseAbiJson(abiJson string, l *zap.Logger) (*abi.ABI, error) {
	abiJson = strings.TrimSpace(abiJson)
	if abiJson == "" {
		return nil, ErrEmptyAbi
	}
	if !strings.HasPrefix(abiJson, "[") {
		// explorers answer unverified contracts with a plain message
		return nil, errors.Errorf("abi json must be an array, got %q", truncate(abiJson, 64))
	}

	parsed := &abi.ABI{}
	err := parsed.UnmarshalJSON([]byte(abiJson))
	if err == nil {
		return parsed, nil
	}
	l.Sugar().Debugw("Failed to parse abi json as a whole, parsing entries one by one", zap.Error(err))

	var entries []json.RawMessage
	if jsonErr := json.Unmarshal([]byte(abiJson), &entries); jsonErr != nil {
		l.Sugar().Warnw("Failed to parse abi json", zap.Error(jsonErr))
		return nil, errors.Wrap(jsonErr, "failed to parse abi json")
	}
	return parseAbiEntries(entries, err, l)
}

func parseAbiEntries(entries []json.RawMessage, wholeErr error, l *zap.Logger) (*abi.ABI, error) {
	merged := &abi.ABI{
		Methods: make(map[string]abi.Method),
		Events:  make(map[string]abi.Event),
		Errors:  make(map[string]abi.Error),
	}
	skipped := 0
	for i, entry := range entries {
		single := &abi.ABI{}
		if err := single.UnmarshalJSON([]byte("[" + string(entry) + "]")); err != nil {
			skipped++
			l.Sugar().Debugw("Skipping abi entry",
				zap.Int("index", i),
				zap.String("entry", truncate(string(entry), 256)),
				zap.Error(err),
			)
			continue
		}
		for _, method := range single.Methods {
			// overloads keep distinct keys the same way go-ethereum names them
			name := abi.ResolveNameConflict(method.RawName, func(s string) bool {
				_, ok := merged.Methods[s]
				return ok
			})
			method.Name = name
			merged.Methods[name] = method
		}
		for name, event := range single.Events {
			merged.Events[name] = event
		}
		for name, abiErr := range single.Errors {
			merged.Errors[name] = abiErr
		}
		if single.HasFallback() {
			merged.Fallback = single.Fallback
		}
		if single.HasReceive() {
			merged.Receive = single.Receive
		}
	}
	if len(entries) > 0 && skipped == len(entries) {
		return nil, errors.Wrap(wholeErr, "failed to parse abi json")
	}
	if skipped > 0 {
		l.Sugar().Infow("Parsed abi json without unsupported entries",
			zap.Int("entries", len(entries)),
			zap.Int("skipped", skipped),
		)
	}
	return merged, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
