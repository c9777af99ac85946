package utils

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Helpers(t *testing.T) {
	t.Run("Should normalize addresses", func(t *testing.T) {
		assert.Equal(t, "0x5dd9fdf2310b5dac8dced8a100fb4952546ae7bd", NormalizeAddress("0x5DD9FDF2310b5dac8dced8a100fb4952546ae7bd"))
		assert.Equal(t, "0xabc", NormalizeAddress(" ABC "))
		assert.True(t, AreAddressesEqual("0xAbC", "0xaBc"))
	})
	t.Run("Should validate and checksum addresses", func(t *testing.T) {
		assert.True(t, IsValidAddress("0xbb6e6d6dabd150c4a000d1fd8a7de46a750477f4"))
		assert.False(t, IsValidAddress("0x123"))
		assert.Equal(t, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", ChecksumAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"))
	})
	t.Run("Should decode hex with or without prefix", func(t *testing.T) {
		b, err := DecodeHexString("0xa9059cbb")
		assert.Nil(t, err)
		assert.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, b)

		b, err = DecodeHexString("a905")
		assert.Nil(t, err)
		assert.Equal(t, "0xa905", ConvertBytesToString(b))

		_, err = DecodeHexString("0xabc")
		assert.NotNil(t, err)
		_, err = DecodeHexString("0xzz")
		assert.NotNil(t, err)
	})
	t.Run("Should map with indexes", func(t *testing.T) {
		out := Map([]string{"a", "b"}, func(s string, i uint64) string {
			return s + strconv.FormatUint(i, 10)
		})
		assert.Equal(t, []string{"a0", "b1"}, out)
	})
}
