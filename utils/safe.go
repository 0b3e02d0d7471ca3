// Package utils provides randomness, hashing, size checks and fan-out
// helpers shared by the key and cipher packages.
// This file contains safe arithmetic helpers that prevent integer overflow
// and denial-of-service via large allocations.

package utils

import (
	"errors"
	"math"
)

// Maximum allowed lengths for decoded data.
const (
	// MaxMatrixElements is the maximum number of int32 entries in a public key.
	MaxMatrixElements = 1 << 26

	// MaxMessageRunes is the maximum number of characters per encryption call.
	MaxMessageRunes = 1 << 22

	// MaxPayloadLength is the maximum allowed serialized length in bytes.
	MaxPayloadLength = 1 << 28
)

var (
	// ErrOverflow indicates an integer overflow occurred.
	ErrOverflow = errors.New("integer overflow")

	// ErrExceedsLimit indicates a value exceeds the allowed limit.
	ErrExceedsLimit = errors.New("value exceeds allowed limit")

	// ErrInvalidLength indicates an invalid length value.
	ErrInvalidLength = errors.New("invalid length")
)

// SafeMultiply multiplies two non-negative integers and returns an error if overflow occurs.
func SafeMultiply(a, b int) (int, error) {
	if a < 0 || b < 0 {
		return 0, ErrInvalidLength
	}
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > math.MaxInt/b {
		return 0, ErrOverflow
	}
	return a * b, nil
}

// SafeMakeInt32Slice creates an int32 slice with bounds checking.
func SafeMakeInt32Slice(count, maxAllowed int) ([]int32, error) {
	if err := CheckLength(count, maxAllowed); err != nil {
		return nil, err
	}
	return make([]int32, count), nil
}

// CheckLength validates that length is within [0, maxAllowed].
func CheckLength(length, maxAllowed int) error {
	if length < 0 {
		return ErrInvalidLength
	}
	if length > maxAllowed {
		return ErrExceedsLimit
	}
	return nil
}
