package abiCodec

import (
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/Layr-Labs/calldecoder/pkg/parser"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pack(t *testing.T, types []string, values ...interface{}) []byte {
	args := make(abi.Arguments, len(types))
	for i, typ := range types {
		at, err := abi.NewType(typ, "", nil)
		require.Nil(t, err)
		args[i] = abi.Argument{Type: at}
	}
	b, err := args.Pack(values...)
	require.Nil(t, err)
	return b
}

type operation struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

func packOperations(t *testing.T, ops []operation) []byte {
	at, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "to", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "data", Type: "bytes"},
	})
	require.Nil(t, err)
	b, err := abi.Arguments{{Type: at}}.Pack(ops)
	require.Nil(t, err)
	return b
}

func mustDecode(t *testing.T, sigs []string, data []byte) []parser.DecodedValue {
	types := make([]*Type, len(sigs))
	for i, s := range sigs {
		types[i] = MustParseType(s)
	}
	values, err := Decode(types, data)
	require.Nil(t, err)
	return values
}

func decodeErr(sigs []string, data []byte) error {
	types := make([]*Type, len(sigs))
	for i, s := range sigs {
		types[i] = MustParseType(s)
	}
	_, err := Decode(types, data)
	return err
}

func word(hexStr string) string {
	return strings.Repeat("0", 64-len(hexStr)) + hexStr
}

func fromHex(t *testing.T, s string) []byte {
	b, err := hex.DecodeString(s)
	require.Nil(t, err)
	return b
}

func Test_DecodeStatic(t *testing.T) {
	t.Run("Should round trip address and uint256 across the full range", func(t *testing.T) {
		maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
		amounts := []*big.Int{
			big.NewInt(0),
			big.NewInt(1),
			new(big.Int).Lsh(big.NewInt(1), 53),
			new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 53), big.NewInt(1)),
			maxUint256,
		}
		recipient := common.HexToAddress("0xBB6E6D6dabD150c4a000d1FD8A7De46a750477f4")

		for _, amount := range amounts {
			data := pack(t, []string{"address", "uint256"}, recipient, amount)
			values := mustDecode(t, []string{"address", "uint256"}, data)

			assert.Equal(t, parser.Address("0xbb6e6d6dabd150c4a000d1fd8a7de46a750477f4"), values[0])
			assert.Equal(t, parser.Scalar(amount.String()), values[1])
		}
	})
	t.Run("Should decode signed integers", func(t *testing.T) {
		data := pack(t, []string{"int8", "int256", "int64"}, int8(-1), new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255)), int64(42))
		values := mustDecode(t, []string{"int8", "int256", "int64"}, data)
		assert.Equal(t, parser.Scalar("-1"), values[0])
		assert.Equal(t, parser.Scalar("-57896044618658097711785492504343953926634992332820282019728792003956564819968"), values[1])
		assert.Equal(t, parser.Scalar("42"), values[2])
	})
	t.Run("Should decode signed integers at the edges of their range", func(t *testing.T) {
		minInt256 := new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))
		maxInt256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
		data := pack(t, []string{"int256", "int256", "int16", "int16"}, maxInt256, minInt256, int16(-32768), int16(32767))
		values := mustDecode(t, []string{"int256", "int256", "int16", "int16"}, data)
		assert.Equal(t, parser.Scalar(maxInt256.String()), values[0])
		assert.Equal(t, parser.Scalar(minInt256.String()), values[1])
		assert.Equal(t, parser.Scalar("-32768"), values[2])
		assert.Equal(t, parser.Scalar("32767"), values[3])
	})
	t.Run("Should decode bool and fixed bytes", func(t *testing.T) {
		var mode [32]byte
		mode[31] = 4
		data := pack(t, []string{"bool", "bool", "bytes4", "bytes32"}, true, false, [4]byte{0xa9, 0x05, 0x9c, 0xbb}, mode)
		values := mustDecode(t, []string{"bool", "bool", "bytes4", "bytes32"}, data)
		assert.Equal(t, parser.Scalar("true"), values[0])
		assert.Equal(t, parser.Scalar("false"), values[1])
		assert.Equal(t, parser.Bytes("0xa9059cbb"), values[2])
		assert.Equal(t, parser.Bytes("0x"+word("4")), values[3])
	})
	t.Run("Should decode static composites inline", func(t *testing.T) {
		data := pack(t, []string{"uint256[2]", "uint8"}, [2]*big.Int{big.NewInt(7), big.NewInt(8)}, uint8(9))
		values := mustDecode(t, []string{"uint256[2]", "uint8"}, data)
		assert.Equal(t, parser.Array{parser.Scalar("7"), parser.Scalar("8")}, values[0])
		assert.Equal(t, parser.Scalar("9"), values[1])
	})
}

func Test_DecodeDynamic(t *testing.T) {
	t.Run("Should decode bytes and string", func(t *testing.T) {
		payload := []byte(strings.Repeat("ab", 40))
		data := pack(t, []string{"bytes", "string", "uint256"}, payload, "hello world", big.NewInt(3))
		values := mustDecode(t, []string{"bytes", "string", "uint256"}, data)
		assert.Equal(t, parser.Bytes("0x"+hex.EncodeToString(payload)), values[0])
		assert.Equal(t, parser.Scalar("hello world"), values[1])
		assert.Equal(t, parser.Scalar("3"), values[2])
	})
	t.Run("Should keep strings that are not valid utf-8 as bytes", func(t *testing.T) {
		data := pack(t, []string{"string", "string"}, string([]byte{0xff, 0xfe, 0x41}), "plain")
		values := mustDecode(t, []string{"string", "string"}, data)
		assert.Equal(t, parser.Bytes("0xfffe41"), values[0])
		assert.Equal(t, parser.Scalar("plain"), values[1])
	})
	t.Run("Should preserve array length including zero", func(t *testing.T) {
		for _, n := range []int{0, 1, 2, 17} {
			elems := make([]*big.Int, n)
			for i := range elems {
				elems[i] = big.NewInt(int64(i))
			}
			data := pack(t, []string{"uint256[]"}, elems)
			values := mustDecode(t, []string{"uint256[]"}, data)
			arr, ok := values[0].(parser.Array)
			require.True(t, ok)
			assert.Len(t, arr, n)
			for i, v := range arr {
				assert.Equal(t, parser.Scalar(big.NewInt(int64(i)).String()), v)
			}
		}
	})
	t.Run("Should decode arrays of dynamic elements", func(t *testing.T) {
		data := pack(t, []string{"string[]", "string[2]"}, []string{"a", "bc", ""}, [2]string{"x", "yz"})
		values := mustDecode(t, []string{"string[]", "string[2]"}, data)
		assert.Equal(t, parser.Array{parser.Scalar("a"), parser.Scalar("bc"), parser.Scalar("")}, values[0])
		assert.Equal(t, parser.Array{parser.Scalar("x"), parser.Scalar("yz")}, values[1])
	})
	t.Run("Should decode an array of (address,uint256,bytes) tuples", func(t *testing.T) {
		token := common.HexToAddress("0x1c7d4b196cb0c7b01d743fbc6116a902379c7238")
		ops := []operation{
			{To: token, Value: big.NewInt(0), Data: fromHex(t, "a9059cbb")},
			{To: token, Value: big.NewInt(1000), Data: []byte{}},
		}
		data := packOperations(t, ops)
		values := mustDecode(t, []string{"(address to,uint256 value,bytes data)[]"}, data)

		arr, ok := values[0].(parser.Array)
		require.True(t, ok)
		require.Len(t, arr, 2)

		first, ok := arr[0].(parser.Tuple)
		require.True(t, ok)
		assert.Equal(t, "to", first[0].Name)
		assert.Equal(t, "address", first[0].Type)
		assert.Equal(t, parser.Address("0x1c7d4b196cb0c7b01d743fbc6116a902379c7238"), first.Field("to").Value)
		assert.Equal(t, parser.Scalar("0"), first.Field("value").Value)
		assert.Equal(t, parser.Bytes("0xa9059cbb"), first.Field("data").Value)

		second := arr[1].(parser.Tuple)
		assert.Equal(t, parser.Scalar("1000"), second.Field("value").Value)
		assert.Equal(t, parser.Bytes("0x"), second.Field("data").Value)
	})
	t.Run("Should decode nested tuples with their own head and tail", func(t *testing.T) {
		at, err := abi.NewType("tuple", "", []abi.ArgumentMarshaling{
			{Name: "id", Type: "uint256"},
			{Name: "inner", Type: "tuple", Components: []abi.ArgumentMarshaling{
				{Name: "label", Type: "string"},
				{Name: "flags", Type: "bool[]"},
			}},
		})
		require.Nil(t, err)
		type inner struct {
			Label string
			Flags []bool
		}
		type outer struct {
			Id    *big.Int
			Inner inner
		}
		data, err := abi.Arguments{{Type: at}}.Pack(outer{Id: big.NewInt(5), Inner: inner{Label: "nested", Flags: []bool{true, false}}})
		require.Nil(t, err)

		values := mustDecode(t, []string{"(uint256 id,(string label,bool[] flags) inner)"}, data)
		tuple := values[0].(parser.Tuple)
		assert.Equal(t, parser.Scalar("5"), tuple.Field("id").Value)
		in := tuple.Field("inner").Value.(parser.Tuple)
		assert.Equal(t, "(string,bool[])", tuple.Field("inner").Type)
		assert.Equal(t, parser.Scalar("nested"), in.Field("label").Value)
		assert.Equal(t, parser.Array{parser.Scalar("true"), parser.Scalar("false")}, in.Field("flags").Value)
	})
}

func Test_DecodeMalformed(t *testing.T) {
	isMalformed := func(t *testing.T, err error) {
		require.NotNil(t, err)
		assert.True(t, errors.Is(err, parser.ErrMalformedCalldata), err.Error())
	}

	t.Run("Should reject slices of elements without an encoded size", func(t *testing.T) {
		empty := &Type{Kind: TupleKind, signature: "()"}
		slice := NewSliceType(empty)
		data := fromHex(t, word("20")+word("ff"))
		var err error
		assert.NotPanics(t, func() {
			_, err = Decode([]*Type{slice}, data)
		})
		require.NotNil(t, err)
		assert.True(t, errors.Is(err, parser.ErrUnsupportedType))
	})
	t.Run("Should fail on an empty buffer", func(t *testing.T) {
		isMalformed(t, decodeErr([]string{"uint256"}, []byte{}))
	})
	t.Run("Should fail on a short word", func(t *testing.T) {
		isMalformed(t, decodeErr([]string{"address", "uint256"}, make([]byte, 63)))
	})
	t.Run("Should fail on an offset past the end", func(t *testing.T) {
		isMalformed(t, decodeErr([]string{"bytes"}, fromHex(t, word("40"))))
	})
	t.Run("Should fail on an offset that does not fit in an int", func(t *testing.T) {
		isMalformed(t, decodeErr([]string{"bytes"}, fromHex(t, strings.Repeat("ff", 32))))
	})
	t.Run("Should fail on a misaligned offset", func(t *testing.T) {
		isMalformed(t, decodeErr([]string{"bytes"}, fromHex(t, word("21")+word("0")+word("0"))))
	})
	t.Run("Should fail on a length longer than the buffer", func(t *testing.T) {
		isMalformed(t, decodeErr([]string{"bytes"}, fromHex(t, word("20")+word("41")+word("0"))))
	})
	t.Run("Should fail on an array count larger than the buffer can hold", func(t *testing.T) {
		isMalformed(t, decodeErr([]string{"uint256[]"}, fromHex(t, word("20")+word("ffffffff")+word("1"))))
	})
	t.Run("Should fail on an element offset past the end", func(t *testing.T) {
		data := word("20") + word("1") + word("400")
		isMalformed(t, decodeErr([]string{"string[]"}, fromHex(t, data)))
	})
	t.Run("Should fail on dirty address padding", func(t *testing.T) {
		isMalformed(t, decodeErr([]string{"address"}, fromHex(t, "01"+strings.Repeat("00", 31))))
	})
	t.Run("Should fail on a bool that is neither 0 nor 1", func(t *testing.T) {
		isMalformed(t, decodeErr([]string{"bool"}, fromHex(t, word("2"))))
	})
	t.Run("Should fail on integer overflow of narrow types", func(t *testing.T) {
		isMalformed(t, decodeErr([]string{"uint8"}, fromHex(t, word("100"))))
		isMalformed(t, decodeErr([]string{"int8"}, fromHex(t, word("80"))))
	})
	t.Run("Should fail on dirty fixed bytes padding", func(t *testing.T) {
		isMalformed(t, decodeErr([]string{"bytes4"}, fromHex(t, "a9059cbb"+strings.Repeat("00", 27)+"01")))
	})
}

func Test_DecodeArguments(t *testing.T) {
	args, err := ParseArguments("address _to, uint256 _value")
	require.Nil(t, err)

	data := pack(t, []string{"address", "uint256"}, common.HexToAddress("0x01"), big.NewInt(10))
	params, err := DecodeArguments(args, data)
	require.Nil(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, "_to", params[0].Name)
	assert.Equal(t, "address", params[0].Type)
	assert.Equal(t, parser.Address("0x0000000000000000000000000000000000000001"), params[0].Value)
	assert.Equal(t, parser.Scalar("10"), params[1].Value)
	assert.Nil(t, params[1].ValueDecoded)

	_, err = DecodeArguments(args, data[:40])
	assert.True(t, errors.Is(err, parser.ErrMalformedCalldata))
}
