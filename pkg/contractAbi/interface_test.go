package contractAbi

import (
	"testing"

	"github.com/Layr-Labs/calldecoder/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAbi = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"executeBatch","stateMutability":"payable","inputs":[{"name":"operations","type":"tuple[]","components":[{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}]}],"outputs":[]},
	{"type":"function","name":"fixedPrice","stateMutability":"view","inputs":[{"name":"amount","type":"fixed128x18"}],"outputs":[]},
	{"type":"event","name":"Transfer","inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}],"anonymous":false}
]`

func Test_InterfaceSetFromJson(t *testing.T) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.Nil(t, err)

	t.Run("Should index methods by selector", func(t *testing.T) {
		set, err := InterfaceSetFromJson(testAbi, l)
		require.Nil(t, err)

		transferSel, _ := ParseSelector("0xa9059cbb")
		transfer, ok := set.Lookup(transferSel)
		require.True(t, ok)
		assert.Equal(t, "transfer", transfer.Name)
		assert.Equal(t, "transfer(address,uint256)", transfer.Signature)
		assert.Equal(t, "_to", transfer.Inputs[0].Name)

		batchSel, _ := ParseSelector("34fcd5be")
		batch, ok := set.Lookup(batchSel)
		require.True(t, ok)
		assert.Equal(t, "executeBatch((address,uint256,bytes)[])", batch.Signature)
		assert.Equal(t, []string{"to", "value", "data"}, batch.Inputs[0].Type.Elem.ComponentNames)
	})
	t.Run("Should match go-ethereum method ids", func(t *testing.T) {
		a, err := ParseAbiJson(testAbi, l)
		require.Nil(t, err)
		set := InterfaceSetFromAbi(a, l)

		for _, method := range a.Methods {
			var sel Selector
			copy(sel[:], method.ID)
			entry, ok := set.Lookup(sel)
			if method.Name == "fixedPrice" {
				assert.False(t, ok)
				continue
			}
			require.True(t, ok, method.Sig)
			assert.Equal(t, method.Sig, entry.Signature)
		}
	})
	t.Run("Should keep the parseable functions of an abi with unsupported entries", func(t *testing.T) {
		a, err := ParseAbiJson(testAbi, l)
		require.Nil(t, err)
		assert.Len(t, a.Methods, 2)
		assert.Contains(t, a.Events, "Transfer")
		_, ok := a.Methods["fixedPrice"]
		assert.False(t, ok)
	})
	t.Run("Should keep overloaded functions apart", func(t *testing.T) {
		overloaded := `[
			{"type":"function","name":"safeTransferFrom","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"id","type":"uint256"}],"outputs":[]},
			{"type":"function","name":"safeTransferFrom","inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"id","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[]},
			{"type":"function","name":"price","inputs":[{"name":"p","type":"ufixed128x18"}],"outputs":[]}
		]`
		set, err := InterfaceSetFromJson(overloaded, l)
		require.Nil(t, err)
		assert.Len(t, set, 2)

		withoutData, _ := ParseSelector("0x42842e0e")
		withData, _ := ParseSelector("0xb88d4fde")
		e, ok := set.Lookup(withoutData)
		require.True(t, ok)
		assert.Equal(t, "safeTransferFrom(address,address,uint256)", e.Signature)
		e, ok = set.Lookup(withData)
		require.True(t, ok)
		assert.Equal(t, "safeTransferFrom(address,address,uint256,bytes)", e.Signature)
	})
	t.Run("Should fail when no entry can be parsed", func(t *testing.T) {
		_, err := ParseAbiJson(`[{"type":"function","name":"price","inputs":[{"name":"p","type":"fixed128x18"}],"outputs":[]}]`, l)
		assert.NotNil(t, err)
	})
	t.Run("Should skip functions taking empty tuples", func(t *testing.T) {
		emptyTuple := `[
			{"type":"function","name":"f","inputs":[{"name":"xs","type":"tuple[]","components":[]}],"outputs":[]},
			{"type":"function","name":"g","inputs":[{"name":"x","type":"uint256"}],"outputs":[]}
		]`
		set, err := InterfaceSetFromJson(emptyTuple, l)
		require.Nil(t, err)
		require.Len(t, set, 1)
		for _, e := range set {
			assert.Equal(t, "g(uint256)", e.Signature)
		}
	})
	t.Run("Should tolerate duplicate receive functions", func(t *testing.T) {
		dup := `[{"type":"receive","stateMutability":"payable"},{"type":"receive","stateMutability":"payable"}]`
		_, err := ParseAbiJson(dup, l)
		assert.Nil(t, err)
	})
	t.Run("Should reject invalid json", func(t *testing.T) {
		_, err := InterfaceSetFromJson(`{"not":"an abi"`, l)
		assert.NotNil(t, err)

		_, err = InterfaceSetFromJson(`[{"type":"function","name":`, l)
		assert.NotNil(t, err)
	})
	t.Run("Should reject empty and unverified abis", func(t *testing.T) {
		_, err := ParseAbiJson("  ", l)
		assert.ErrorIs(t, err, ErrEmptyAbi)

		_, err = ParseAbiJson("Contract source code not verified", l)
		assert.NotNil(t, err)
	})
}

func Test_ParseFunctionSignature(t *testing.T) {
	t.Run("Should derive canonical signature and selector", func(t *testing.T) {
		tests := []struct {
			declaration string
			signature   string
			selector    string
		}{
			{"transfer(address _to, uint256 _value)", "transfer(address,uint256)", "0xa9059cbb"},
			{"function approve(address _spender,uint256 _value)", "approve(address,uint256)", "0x095ea7b3"},
			{"execute(bytes32 _mode, bytes calldata _executionCalldata)", "execute(bytes32,bytes)", "0xe9ae5c53"},
			{"executeBatch((address to,uint256 value,bytes data)[] operations)", "executeBatch((address,uint256,bytes)[])", "0x34fcd5be"},
			{"decimals()", "decimals()", "0x313ce567"},
		}
		for _, tc := range tests {
			entry, err := ParseFunctionSignature(tc.declaration)
			require.Nil(t, err, tc.declaration)
			assert.Equal(t, tc.signature, entry.Signature)
			assert.Equal(t, tc.selector, entry.Selector.String())
		}
	})
	t.Run("Should reject malformed declarations", func(t *testing.T) {
		for _, d := range []string{"", "transfer", "(address)", "transfer(address", "transfer(fixed)"} {
			_, err := ParseFunctionSignature(d)
			assert.NotNil(t, err, d)
		}
	})
}

func Test_Selector(t *testing.T) {
	sel, err := ParseSelector("0xA9059CBB")
	require.Nil(t, err)
	assert.Equal(t, "0xa9059cbb", sel.String())

	_, err = ParseSelector("0xa9059c")
	assert.NotNil(t, err)
	_, err = ParseSelector("zzzzzzzz")
	assert.NotNil(t, err)

	got, ok := SelectorFromCalldata([]byte{0xa9, 0x05, 0x9c, 0xbb, 0x00})
	assert.True(t, ok)
	assert.Equal(t, sel, got)

	_, ok = SelectorFromCalldata([]byte{0xa9, 0x05})
	assert.False(t, ok)
}
