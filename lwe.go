// Package lwe implements a small error-tolerant text cipher built on noisy
// linear equations.
//
// A secret integer vector derives a larger set of noisy equations (the public
// key). The public key encrypts Unicode text into fixed-width integer records;
// the secret key recovers the text by cancelling the linear mask and rounding
// away the noise.
//
// WARNING: This construction makes no security claim. Its parameters are
// tunable and validated only by the round-trip property. DO NOT use it to
// protect sensitive data.
package lwe

import "errors"

// Version of the lwe-text-go implementation.
const Version = "0.4.0"

// API summary:
//
//   - keys.GenerateSecret(n) - Generate a secret key of dimension n
//   - keys.DerivePublic(sk) - Derive the public equations for a secret key
//   - cipher.Encrypt(pk, text) - Encrypt text into little-endian int32 records
//   - cipher.Decrypt(sk, data) - Recover text from ciphertext bytes
//   - analysis.AnalyzeNoise(sk, pk) - Summarize the noise hidden in a public key
//   - core.GetParams(level) - Get the parameter preset for a level

const (
	// MaxCodepoint is the largest Unicode scalar value.
	MaxCodepoint = 0x10FFFF

	// MaxDimension bounds the secret vector length. With the default key
	// bound the int64 dot products stay below 2^42.
	MaxDimension = 1 << 16

	// Placeholder replaces any record that does not decode to a valid
	// Unicode scalar value.
	Placeholder = '\U0001F4A9'
)

var (
	// ErrInvalidDimension is returned when a dimension is not in [1, MaxDimension].
	ErrInvalidDimension = errors.New("invalid dimension")

	// ErrMalformedCiphertext is returned when ciphertext bytes or records do
	// not match the record width of the key.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")

	// ErrInvalidKey is returned for structurally inconsistent key material.
	ErrInvalidKey = errors.New("invalid key")

	// ErrInvalidMessage is returned when a message is not valid UTF-8.
	ErrInvalidMessage = errors.New("message is not valid UTF-8")

	// ErrInvalidParams is returned by parameter validation.
	ErrInvalidParams = errors.New("invalid parameters")
)
