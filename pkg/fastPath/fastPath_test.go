package fastPath

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/Layr-Labs/calldecoder/pkg/contractCaller"
	"github.com/Layr-Labs/calldecoder/pkg/parser"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FastPath(t *testing.T) {
	erc20, err := abi.JSON(strings.NewReader(contractCaller.Erc20Abi))
	require.Nil(t, err)

	recipient := common.HexToAddress("0xBB6E6D6dabD150c4a000d1FD8A7De46a750477f4")

	t.Run("Should use the standard selectors", func(t *testing.T) {
		assert.Equal(t, "0xa9059cbb", Transfer.Selector.String())
		assert.Equal(t, "0x095ea7b3", Approve.Selector.String())
		_, ok := lookup(Transfer.Selector)
		assert.True(t, ok)
		_, ok = lookup(Approve.Selector)
		assert.True(t, ok)
	})
	t.Run("Should decode transfer", func(t *testing.T) {
		amount, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
		data, err := erc20.Pack("transfer", recipient, amount)
		require.Nil(t, err)

		call, matched, err := Decode(data)
		require.True(t, matched)
		require.Nil(t, err)
		assert.Equal(t, "transfer", call.Name)
		assert.Equal(t, "transfer(address,uint256)", call.Signature)
		assert.Equal(t, parser.CallKind_Function, call.Kind)
		assert.Equal(t, parser.Address("0xbb6e6d6dabd150c4a000d1fd8a7de46a750477f4"), call.Param("_to").Value)
		assert.Equal(t, parser.Scalar(amount.String()), call.Param("_value").Value)
	})
	t.Run("Should decode approve", func(t *testing.T) {
		data, err := erc20.Pack("approve", recipient, big.NewInt(0))
		require.Nil(t, err)

		call, matched, err := Decode(data)
		require.True(t, matched)
		require.Nil(t, err)
		assert.Equal(t, "approve", call.Name)
		assert.Equal(t, parser.Address("0xbb6e6d6dabd150c4a000d1fd8a7de46a750477f4"), call.Param("_spender").Value)
		assert.Equal(t, parser.Scalar("0"), call.Param("_value").Value)
	})
	t.Run("Should not match other selectors", func(t *testing.T) {
		data, err := erc20.Pack("transferFrom", recipient, recipient, big.NewInt(1))
		require.Nil(t, err)

		call, matched, err := Decode(data)
		assert.False(t, matched)
		assert.Nil(t, err)
		assert.Nil(t, call)

		_, matched, _ = Decode([]byte{0xa9, 0x05})
		assert.False(t, matched)
	})
	t.Run("Should report truncated arguments as malformed", func(t *testing.T) {
		data, err := erc20.Pack("transfer", recipient, big.NewInt(1))
		require.Nil(t, err)

		_, matched, err := Decode(data[:4+32])
		assert.True(t, matched)
		assert.True(t, errors.Is(err, parser.ErrMalformedCalldata))

		_, _, err = Decode(data[:4])
		assert.True(t, errors.Is(err, parser.ErrMalformedCalldata))
	})
}
