package abiCodec

import (
	"math/big"

	"github.com/Layr-Labs/calldecoder/pkg/parser"
)

// WordSize is the ABI alignment unit.
const WordSize = 32

// region is one head/tail encoding area. Every position and offset handed
// to it is relative to its first byte, and every read is bounds checked
// here so callers never index the buffer directly.
type region []byte

func malformed(format string, args ...interface{}) error {
	return parser.NewDecodeError(parser.ErrorKind_MalformedCalldata, format, args...)
}

// word returns the 32 bytes starting at pos.
func (r region) word(pos int) ([]byte, error) {
	if pos < 0 || pos > len(r)-WordSize {
		return nil, malformed("word at byte %d exceeds buffer of %d bytes", pos, len(r))
	}
	return r[pos : pos+WordSize], nil
}

// uint reads the word at pos as an unsigned integer that must not exceed max.
func (r region) uint(pos int, max int) (int, error) {
	w, err := r.word(pos)
	if err != nil {
		return 0, err
	}
	v := new(big.Int).SetBytes(w)
	if !v.IsInt64() || v.Int64() > int64(max) {
		return 0, malformed("value %s at byte %d exceeds limit of %d", v.String(), pos, max)
	}
	return int(v.Int64()), nil
}

// follow reads the offset word at pos and returns the sub-region it points to.
func (r region) follow(pos int) (region, error) {
	off, err := r.uint(pos, len(r))
	if err != nil {
		return nil, err
	}
	if off%WordSize != 0 {
		return nil, malformed("offset %d at byte %d is not word aligned", off, pos)
	}
	return r[off:], nil
}

// lengthPrefixed reads a length word at pos followed by that many bytes.
func (r region) lengthPrefixed(pos int) ([]byte, error) {
	start := pos + WordSize
	n, err := r.uint(pos, len(r)-start)
	if err != nil {
		return nil, err
	}
	return r[start : start+n], nil
}

// from returns the region starting at pos.
func (r region) from(pos int) (region, error) {
	if pos < 0 || pos > len(r) {
		return nil, malformed("position %d exceeds buffer of %d bytes", pos, len(r))
	}
	return r[pos:], nil
}
