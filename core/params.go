// Package core provides parameter sets and validation for the text cipher.
package core

import (
	"fmt"
	"math"

	lwe "github.com/BackendStack21/lwe-text-go"
	"github.com/BackendStack21/lwe-text-go/utils"
)

// Base values shared by every preset. The modulus range keeps the scale
// between 9 and 99 so one character occupies a wide band of the field.
const (
	DefaultKeyBound     = 4096
	DefaultModulusMin   = 11120640
	DefaultModulusMax   = 111206400
	DefaultRowFactor    = 10
	DefaultRowsPerChar  = 2
	DefaultNoiseDivisor = 10
)

// LWE16Params is the preset with a sixteen-entry secret.
var LWE16Params = preset(lwe.LWE16, 16)

// LWE64Params is the preset used by the CLI when no dimension is given.
var LWE64Params = preset(lwe.LWE64, 64)

// LWE256Params is the widest preset.
var LWE256Params = preset(lwe.LWE256, 256)

func preset(level lwe.Level, dimension int) lwe.Params {
	p := DefaultParams(dimension)
	p.Level = level
	return p
}

// DefaultParams returns the default parameters for an arbitrary dimension.
func DefaultParams(dimension int) lwe.Params {
	return lwe.Params{
		Dimension:    dimension,
		KeyBound:     DefaultKeyBound,
		ModulusMin:   DefaultModulusMin,
		ModulusMax:   DefaultModulusMax,
		RowFactor:    DefaultRowFactor,
		RowsPerChar:  DefaultRowsPerChar,
		NoiseDivisor: DefaultNoiseDivisor,
	}
}

// GetParams returns the parameter set for the given level.
func GetParams(level lwe.Level) (lwe.Params, error) {
	switch level {
	case lwe.LWE16:
		return LWE16Params, nil
	case lwe.LWE64:
		return LWE64Params, nil
	case lwe.LWE256:
		return LWE256Params, nil
	default:
		return lwe.Params{}, fmt.Errorf("unknown level: %s", level)
	}
}

// ValidateDimension checks that n is in [1, lwe.MaxDimension].
func ValidateDimension(n int) error {
	if n <= 0 || n > lwe.MaxDimension {
		return fmt.Errorf("%w: %d not in [1, %d]", lwe.ErrInvalidDimension, n, lwe.MaxDimension)
	}
	return nil
}

// ValidateParams checks consistency, overflow headroom and rounding margin.
func ValidateParams(p lwe.Params) error {
	if err := ValidateDimension(p.Dimension); err != nil {
		return err
	}
	if p.KeyBound <= 0 {
		return fmt.Errorf("%w: key bound must be positive", lwe.ErrInvalidParams)
	}
	if p.RowFactor <= 0 || p.RowsPerChar <= 0 || p.NoiseDivisor <= 0 {
		return fmt.Errorf("%w: row factor, rows per char and noise divisor must be positive", lwe.ErrInvalidParams)
	}
	if p.ModulusMin < lwe.MaxCodepoint {
		return fmt.Errorf("%w: modulus minimum %d leaves scale below 1", lwe.ErrInvalidParams, p.ModulusMin)
	}
	if p.ModulusMax <= p.ModulusMin {
		return fmt.Errorf("%w: empty modulus range [%d, %d)", lwe.ErrInvalidParams, p.ModulusMin, p.ModulusMax)
	}
	if p.ModulusMax-1 > math.MaxInt32 {
		return fmt.Errorf("%w: modulus must fit in 32 bits", lwe.ErrInvalidParams)
	}

	// A summed coefficient is stored in an int32 record entry.
	if int64(p.RowsPerChar)*int64(p.KeyBound) > math.MaxInt32 {
		return fmt.Errorf("%w: rows per char times key bound overflows int32", lwe.ErrInvalidParams)
	}
	// Decryption accumulates n products of a summed coefficient and a secret entry.
	kb := float64(p.KeyBound)
	if float64(p.Dimension)*float64(p.RowsPerChar)*kb*kb >= 1<<62 {
		return fmt.Errorf("%w: dimension %d overflows int64 accumulation", lwe.ErrInvalidParams, p.Dimension)
	}
	size, err := utils.SafeMultiply(p.Rows(), p.Dimension+1)
	if err != nil || size > utils.MaxMatrixElements {
		return fmt.Errorf("%w: %d public rows of width %d exceeds limit", lwe.ErrInvalidParams, p.Rows(), p.Dimension+1)
	}

	if len(HeadroomRanges(p.ModulusMin, p.ModulusMax)) == 0 {
		return fmt.Errorf("%w: no modulus in [%d, %d) has headroom above the top code point", lwe.ErrInvalidParams, p.ModulusMin, p.ModulusMax)
	}
	// Rounding margin is not monotonic in the scale, so every scale is checked.
	for scale := p.ModulusMin / lwe.MaxCodepoint; scale <= (p.ModulusMax-1)/lwe.MaxCodepoint; scale++ {
		if err := CheckMargin(p.RowsPerChar, p.NoiseBound(scale), scale); err != nil {
			return err
		}
	}
	return nil
}

// CheckMargin verifies that rowsPerChar noise terms, each below bound in
// magnitude, always round back to the right multiple of scale.
func CheckMargin(rowsPerChar int, bound, scale int64) error {
	worst := int64(rowsPerChar) * (bound - 1)
	if 2*worst >= scale {
		return fmt.Errorf("%w: accumulated noise %d breaks rounding at scale %d", lwe.ErrInvalidParams, worst, scale)
	}
	return nil
}

// HasHeadroom reports whether modulus m leaves at least one scale step above
// MaxCodepoint*scale, so the top code point plus noise never wraps.
func HasHeadroom(m int64) bool {
	scale := m / lwe.MaxCodepoint
	return m-lwe.MaxCodepoint*scale >= scale
}

// HeadroomRanges returns the half-open runs of moduli in [lo, hi) for which
// HasHeadroom holds, in increasing order.
func HeadroomRanges(lo, hi int64) [][2]int64 {
	var out [][2]int64
	if lo < lwe.MaxCodepoint {
		lo = lwe.MaxCodepoint
	}
	for scale := lo / lwe.MaxCodepoint; scale <= (hi-1)/lwe.MaxCodepoint; scale++ {
		// Moduli with this scale and headroom: [scale*(Max+1), (scale+1)*Max).
		start := scale * (lwe.MaxCodepoint + 1)
		end := (scale + 1) * lwe.MaxCodepoint
		if start < lo {
			start = lo
		}
		if end > hi {
			end = hi
		}
		if start < end {
			out = append(out, [2]int64{start, end})
		}
	}
	return out
}

// ValidateSecretKey checks a secret key's internal consistency.
func ValidateSecretKey(sk *lwe.SecretKey) error {
	if sk == nil {
		return fmt.Errorf("%w: nil secret key", lwe.ErrInvalidKey)
	}
	if err := ValidateDimension(sk.Dimension()); err != nil {
		return err
	}
	return validateField(sk.Modulus, sk.Scale)
}

// ValidatePublicKey checks a public key's shape and target range.
func ValidatePublicKey(pk *lwe.PublicKey) error {
	if pk == nil {
		return fmt.Errorf("%w: nil public key", lwe.ErrInvalidKey)
	}
	if err := ValidateDimension(pk.Dimension); err != nil {
		return err
	}
	if err := validateField(pk.Modulus, pk.Scale); err != nil {
		return err
	}
	w := pk.Width()
	if len(pk.Equations) == 0 || len(pk.Equations)%w != 0 {
		return fmt.Errorf("%w: %d equation entries is not a positive multiple of %d", lwe.ErrInvalidKey, len(pk.Equations), w)
	}
	if pk.Rows()%pk.Dimension != 0 {
		return fmt.Errorf("%w: %d rows is not a multiple of dimension %d", lwe.ErrInvalidKey, pk.Rows(), pk.Dimension)
	}
	if pk.KeyBound <= 0 || pk.KeyBound > math.MaxInt32 {
		return fmt.Errorf("%w: key bound %d out of range", lwe.ErrInvalidKey, pk.KeyBound)
	}
	if pk.NoiseBound < 1 || pk.NoiseBound > pk.Scale {
		return fmt.Errorf("%w: noise bound %d out of range for scale %d", lwe.ErrInvalidKey, pk.NoiseBound, pk.Scale)
	}
	for i := 0; i < pk.Rows(); i++ {
		row := pk.Row(i)
		for j, c := range row[:pk.Dimension] {
			if v := int64(c); v < -pk.KeyBound || v >= pk.KeyBound {
				return fmt.Errorf("%w: row %d coefficient %d is %d, outside [-%d, %d)", lwe.ErrInvalidKey, i, j, v, pk.KeyBound, pk.KeyBound)
			}
		}
		if t := int64(row[pk.Dimension]); t < 0 || t >= pk.Modulus {
			return fmt.Errorf("%w: row %d target %d outside [0, %d)", lwe.ErrInvalidKey, i, t, pk.Modulus)
		}
	}
	return nil
}

func validateField(modulus, scale int64) error {
	if modulus < lwe.MaxCodepoint || modulus > math.MaxInt32 {
		return fmt.Errorf("%w: modulus %d out of range", lwe.ErrInvalidKey, modulus)
	}
	if scale != modulus/lwe.MaxCodepoint {
		return fmt.Errorf("%w: scale %d does not match modulus %d", lwe.ErrInvalidKey, scale, modulus)
	}
	return nil
}
