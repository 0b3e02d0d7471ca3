package cipher

import (
	"fmt"
	"strings"
	"unicode/utf8"

	lwe "github.com/BackendStack21/lwe-text-go"
	"github.com/BackendStack21/lwe-text-go/core"
	"github.com/BackendStack21/lwe-text-go/modular"
	"github.com/BackendStack21/lwe-text-go/utils"
)

// minParallelRecords is the record count below which decryption stays on
// the calling goroutine.
const minParallelRecords = 64

// Decrypt recovers text from serialized records.
func Decrypt(sk *lwe.SecretKey, data []byte) (string, error) {
	if err := core.ValidateSecretKey(sk); err != nil {
		return "", err
	}
	ct, err := DeserializeCiphertext(data, sk.Dimension())
	if err != nil {
		return "", err
	}
	return DecryptRecords(sk, ct)
}

// DecryptRecords recovers one character per record.
//
// For a record r the residual (r[n] - r[:n]·s) mod M is the character value
// times scale plus accumulated noise. Residuals within half a scale step of
// M are read as small negative values, then divided by scale rounding halves
// away from zero. Values that are not Unicode scalar values decode to
// lwe.Placeholder.
func DecryptRecords(sk *lwe.SecretKey, ct *lwe.Ciphertext) (string, error) {
	if err := core.ValidateSecretKey(sk); err != nil {
		return "", err
	}
	if ct == nil || ct.Dimension != sk.Dimension() {
		return "", fmt.Errorf("%w: record width does not match key dimension %d", lwe.ErrMalformedCiphertext, sk.Dimension())
	}
	w := ct.Width()
	if len(ct.Data)%w != 0 {
		return "", fmt.Errorf("%w: %d entries is not a multiple of %d", lwe.ErrMalformedCiphertext, len(ct.Data), w)
	}

	count := ct.Records()
	out := make([]rune, count)
	utils.ParallelRange(count, minParallelRecords, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = decryptRecord(sk, ct.Record(i))
		}
	})
	return string(out), nil
}

func decryptRecord(sk *lwe.SecretKey, record []int32) rune {
	n := len(sk.Vector)
	residual := modular.Reduce(int64(record[n])-modular.Dot(sk.Vector, record), sk.Modulus)
	if residual > sk.Modulus-sk.Scale/2 {
		residual -= sk.Modulus
	}
	value := modular.RoundDiv(residual, sk.Scale)
	if value < 0 || value > lwe.MaxCodepoint || !utf8.ValidRune(rune(value)) {
		return lwe.Placeholder
	}
	return rune(value)
}

// CountPlaceholders returns how many placeholder characters text contains.
// Callers that need strict decoding treat a non-zero count as corruption.
func CountPlaceholders(text string) int {
	return strings.Count(text, string(lwe.Placeholder))
}
