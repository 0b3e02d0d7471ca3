// Package cipher encrypts text under a public key and recovers it with the
// matching secret key.
package cipher

import (
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	lwe "github.com/BackendStack21/lwe-text-go"
	"github.com/BackendStack21/lwe-text-go/core"
	"github.com/BackendStack21/lwe-text-go/modular"
	"github.com/BackendStack21/lwe-text-go/utils"
)

// charsPerStream is how many characters share one derived random stream.
const charsPerStream = 256

// Encrypt encrypts message under pk with the system CSPRNG and returns the
// serialized records.
func Encrypt(pk *lwe.PublicKey, message string) ([]byte, error) {
	ct, err := EncryptRecords(pk, message, core.DefaultRowsPerChar, utils.RandReader)
	if err != nil {
		return nil, err
	}
	return SerializeCiphertext(ct), nil
}

// EncryptRecords encrypts message one character at a time.
//
// Each record is the sum of rowsPerChar public equations picked uniformly
// with replacement, with codepoint*scale added to the target column mod M.
// rowsPerChar is rejected when the summed coefficients could overflow an
// int32 entry or the summed noise could round onto a neighbouring character.
// Only a 32-byte master seed is read from rng; characters are processed in
// parallel chunks, each drawing from its own keyed stream.
func EncryptRecords(pk *lwe.PublicKey, message string, rowsPerChar int, rng io.Reader) (*lwe.Ciphertext, error) {
	if err := core.ValidatePublicKey(pk); err != nil {
		return nil, err
	}
	if rowsPerChar <= 0 {
		return nil, fmt.Errorf("%w: rows per char must be positive", lwe.ErrInvalidParams)
	}
	if int64(rowsPerChar)*pk.KeyBound > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d rows of key bound %d overflow a record entry", lwe.ErrInvalidParams, rowsPerChar, pk.KeyBound)
	}
	if err := core.CheckMargin(rowsPerChar, pk.NoiseBound, pk.Scale); err != nil {
		return nil, err
	}
	if !utf8.ValidString(message) {
		return nil, lwe.ErrInvalidMessage
	}

	chars := []rune(message)
	if err := utils.CheckLength(len(chars), utils.MaxMessageRunes); err != nil {
		return nil, fmt.Errorf("%w: %d characters", lwe.ErrInvalidMessage, len(chars))
	}
	w := pk.Width()
	data := make([]int32, len(chars)*w)
	ct := &lwe.Ciphertext{Dimension: pk.Dimension, Data: data}
	if len(chars) == 0 {
		return ct, nil
	}

	seed, err := utils.ReadBytes(rng, utils.SeedSize)
	if err != nil {
		return nil, fmt.Errorf("reading seed: %w", err)
	}
	defer utils.Zeroize(seed)

	rows := int64(pk.Rows())
	n := pk.Dimension

	err = utils.ParallelChunks(len(chars), charsPerStream, func(chunk, start, end int) error {
		key := utils.StreamKey(utils.DomainEncrypt, seed, chunk)
		s, err := utils.NewStreamSampler(key)
		utils.Zeroize(key)
		if err != nil {
			return err
		}
		acc := make([]int64, w)
		for i := start; i < end; i++ {
			for j := range acc {
				acc[j] = 0
			}
			for k := 0; k < rowsPerChar; k++ {
				idx, err := s.Int63n(rows)
				if err != nil {
					return err
				}
				for j, v := range pk.Row(int(idx)) {
					acc[j] += int64(v)
				}
			}
			acc[n] = modular.Reduce(acc[n]+int64(chars[i])*pk.Scale, pk.Modulus)

			record := data[i*w : (i+1)*w]
			for j, v := range acc {
				record[j] = int32(v)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("encrypting: %w", err)
	}
	return ct, nil
}
