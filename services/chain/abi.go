// Copyright (C) 2019-2024 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package chain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

const wordSize = 32

// ErrMalformedReturn is returned when contract return data cannot be decoded.
var ErrMalformedReturn = errors.New("malformed contract return data")

// Address is a 20-byte account or contract address.
type Address [20]byte

// ZeroAddress is the all-zero address.
var ZeroAddress Address

// ParseAddress parses a 0x-prefixed hex address.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != 2*len(a) {
		return a, fmt.Errorf("address %q: want %d hex digits", s, 2*len(a))
	}
	if _, err := hex.Decode(a[:], []byte(raw)); err != nil {
		return a, fmt.Errorf("address %q: %w", s, err)
	}
	return a, nil
}

// MustParseAddress is like ParseAddress but panics on malformed input.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the lowercase 0x-prefixed hex form of a.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Keccak256 hashes the concatenation of data.
func Keccak256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Selector returns the 4-byte function selector of a canonical signature
// such as "transfer(address,uint256)".
func Selector(signature string) [4]byte {
	var sel [4]byte
	sum := Keccak256([]byte(signature))
	copy(sel[:], sum[:4])
	return sel
}

// Value is an ABI-encodable argument.
type Value interface {
	dynamic() bool
	encode() []byte
}

// AddressValue encodes an address.
type AddressValue Address

// Uint encodes an unsigned integer of any width up to 256 bits.
type Uint struct{ *big.Int }

// Bytes32 encodes a fixed 32-byte value.
type Bytes32 [32]byte

// Bytes encodes a dynamic byte string.
type Bytes []byte

// String encodes a dynamic UTF-8 string.
type String string

// Tuple encodes a struct.
type Tuple []Value

// Array encodes a dynamic array.
type Array []Value

// NewUint wraps v.
func NewUint(v uint64) Uint {
	return Uint{new(big.Int).SetUint64(v)}
}

func (AddressValue) dynamic() bool { return false }
func (a AddressValue) encode() []byte {
	w := make([]byte, wordSize)
	copy(w[wordSize-len(a):], a[:])
	return w
}

func (Uint) dynamic() bool { return false }
func (u Uint) encode() []byte {
	w := make([]byte, wordSize)
	if u.Int != nil {
		u.Int.FillBytes(w)
	}
	return w
}

func (Bytes32) dynamic() bool { return false }
func (b Bytes32) encode() []byte {
	return append([]byte(nil), b[:]...)
}

func (Bytes) dynamic() bool { return true }
func (b Bytes) encode() []byte {
	out := uintWord(uint64(len(b)))
	return append(out, padRight(b)...)
}

func (String) dynamic() bool { return true }
func (s String) encode() []byte {
	return Bytes(s).encode()
}

func (t Tuple) dynamic() bool {
	for _, v := range t {
		if v.dynamic() {
			return true
		}
	}
	return false
}
func (t Tuple) encode() []byte {
	return encodeArgs(t)
}

func (Array) dynamic() bool { return true }
func (a Array) encode() []byte {
	return append(uintWord(uint64(len(a))), encodeArgs(a)...)
}

func uintWord(v uint64) []byte {
	return NewUint(v).encode()
}

func padRight(b []byte) []byte {
	n := (len(b) + wordSize - 1) / wordSize * wordSize
	out := make([]byte, n)
	copy(out, b)
	return out
}

// encodeArgs lays out values as heads followed by the tails of dynamic values.
// EncodeArgs returns the ABI encoding of args without a selector, the layout
// of contract return data.
func EncodeArgs(args ...Value) []byte {
	return encodeArgs(args)
}

func encodeArgs(values []Value) []byte {
	headSize := 0
	for _, v := range values {
		if v.dynamic() {
			headSize += wordSize
		} else {
			headSize += len(v.encode())
		}
	}
	var head, tail []byte
	for _, v := range values {
		if v.dynamic() {
			head = append(head, uintWord(uint64(headSize+len(tail)))...)
			tail = append(tail, v.encode()...)
			continue
		}
		head = append(head, v.encode()...)
	}
	return append(head, tail...)
}

// EncodeCall returns the calldata invoking signature with args.
func EncodeCall(signature string, args ...Value) []byte {
	sel := Selector(signature)
	return append(sel[:], encodeArgs(args)...)
}

// Word returns the i-th 32-byte word of data.
func Word(data []byte, i int) ([]byte, error) {
	start := i * wordSize
	if i < 0 || start+wordSize > len(data) {
		return nil, fmt.Errorf("%w: word %d out of %d bytes", ErrMalformedReturn, i, len(data))
	}
	return data[start : start+wordSize], nil
}

// DecodeUint decodes the i-th word of data as an unsigned integer.
func DecodeUint(data []byte, i int) (*big.Int, error) {
	w, err := Word(data, i)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(w), nil
}

// DecodeAddress decodes the i-th word of data as an address.
func DecodeAddress(data []byte, i int) (Address, error) {
	var a Address
	w, err := Word(data, i)
	if err != nil {
		return a, err
	}
	copy(a[:], w[wordSize-len(a):])
	return a, nil
}

// DecodeBytes32 decodes the i-th word of data.
func DecodeBytes32(data []byte, i int) ([32]byte, error) {
	var out [32]byte
	w, err := Word(data, i)
	if err != nil {
		return out, err
	}
	copy(out[:], w)
	return out, nil
}

func decodeOffset(data []byte, i int) (int, error) {
	v, err := DecodeUint(data, i)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() || v.Int64()%wordSize != 0 || v.Int64() >= int64(len(data)) {
		return 0, fmt.Errorf("%w: bad offset %v", ErrMalformedReturn, v)
	}
	return int(v.Int64()), nil
}

// DecodeUintArray decodes a uint256[] whose offset is stored in the i-th word.
func DecodeUintArray(data []byte, i int) ([]*big.Int, error) {
	off, err := decodeOffset(data, i)
	if err != nil {
		return nil, err
	}
	body := data[off:]
	n, err := DecodeUint(body, 0)
	if err != nil {
		return nil, err
	}
	if !n.IsInt64() || n.Int64() > int64(len(body)/wordSize) {
		return nil, fmt.Errorf("%w: array length %v", ErrMalformedReturn, n)
	}
	out := make([]*big.Int, n.Int64())
	for k := range out {
		if out[k], err = DecodeUint(body, k+1); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DecodeAddressArray decodes an address[] whose offset is stored in the i-th word.
func DecodeAddressArray(data []byte, i int) ([]Address, error) {
	ints, err := DecodeUintArray(data, i)
	if err != nil {
		return nil, err
	}
	out := make([]Address, len(ints))
	for k, v := range ints {
		if v.BitLen() > 160 {
			return nil, fmt.Errorf("%w: address out of range", ErrMalformedReturn)
		}
		v.FillBytes(out[k][:])
	}
	return out, nil
}

// DecodeBytes decodes a dynamic bytes value whose offset is stored in the i-th word.
func DecodeBytes(data []byte, i int) ([]byte, error) {
	off, err := decodeOffset(data, i)
	if err != nil {
		return nil, err
	}
	body := data[off:]
	n, err := DecodeUint(body, 0)
	if err != nil {
		return nil, err
	}
	if !n.IsInt64() || wordSize+n.Int64() > int64(len(body)) {
		return nil, fmt.Errorf("%w: bytes length %v", ErrMalformedReturn, n)
	}
	return append([]byte(nil), body[wordSize:wordSize+int(n.Int64())]...), nil
}

// HexData returns the 0x-prefixed hex form of data.
func HexData(data []byte) string {
	return "0x" + hex.EncodeToString(data)
}

// ParseHexData parses 0x-prefixed hex.
func ParseHexData(s string) ([]byte, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReturn, err)
	}
	return b, nil
}
