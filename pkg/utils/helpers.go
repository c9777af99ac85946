// Package utils provides utility functions and constants for common operations
// throughout the application.
package utils

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Ethereum address constants
var (
	// NullEthereumAddress is the null Ethereum address without the 0x prefix
	NullEthereumAddress = "0000000000000000000000000000000000000000"

	// NullEthereumAddressHex is the null Ethereum address with the 0x prefix
	NullEthereumAddressHex = fmt.Sprintf("0x%s", NullEthereumAddress)
)

// AreAddressesEqual compares two Ethereum addresses for equality, ignoring case.
//
// Parameters:
//   - a: First Ethereum address
//   - b: Second Ethereum address
//
// Returns:
//   - bool: True if the addresses are equal (case-insensitive), false otherwise
func AreAddressesEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

// NormalizeAddress lowercases an address and ensures the 0x prefix.
//
// Parameters:
//   - address: Ethereum address in any casing, with or without 0x
//
// Returns:
//   - string: Lowercase, 0x-prefixed address
func NormalizeAddress(address string) string {
	a := strings.ToLower(strings.TrimSpace(address))
	if !strings.HasPrefix(a, "0x") {
		a = "0x" + a
	}
	return a
}

// IsValidAddress reports whether s is a 20-byte hex address.
func IsValidAddress(s string) bool {
	return common.IsHexAddress(strings.TrimSpace(s))
}

// ChecksumAddress returns the EIP-55 checksummed form of an address.
func ChecksumAddress(address string) string {
	return common.HexToAddress(address).Hex()
}

// ConvertBytesToString converts a byte array to a hexadecimal string with 0x prefix.
//
// Parameters:
//   - b: Byte array to convert
//
// Returns:
//   - string: Hexadecimal string representation with 0x prefix
func ConvertBytesToString(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// DecodeHexString decodes an optionally 0x-prefixed hex string.
//
// Parameters:
//   - s: Hex string, with or without 0x
//
// Returns:
//   - []byte: Decoded bytes
//   - error: If s has odd length or non-hex characters
func DecodeHexString(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	return hex.DecodeString(s)
}

// Map applies f to every element of l.
func Map[A any, B any](l []A, f func(A, uint64) B) []B {
	out := make([]B, len(l))
	for i, v := range l {
		out[i] = f(v, uint64(i))
	}
	return out
}
