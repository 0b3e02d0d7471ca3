// Package keys generates secret keys, derives public keys and encodes both.
package keys

import (
	"fmt"
	"io"

	lwe "github.com/BackendStack21/lwe-text-go"
	"github.com/BackendStack21/lwe-text-go/core"
	"github.com/BackendStack21/lwe-text-go/utils"
)

// GenerateSecret generates a secret key of dimension n with the default
// parameters and the system CSPRNG.
func GenerateSecret(n int) (*lwe.SecretKey, error) {
	if err := core.ValidateDimension(n); err != nil {
		return nil, err
	}
	return GenerateSecretWithParams(core.DefaultParams(n), utils.RandReader)
}

// GenerateSecretWithParams generates a secret key drawing every value from rng.
//
// The modulus is uniform over the moduli in [ModulusMin, ModulusMax) that
// leave at least one scale step above the top code point, so that U+10FFFF
// plus noise never wraps past the modulus.
func GenerateSecretWithParams(params lwe.Params, rng io.Reader) (*lwe.SecretKey, error) {
	if err := core.ValidateParams(params); err != nil {
		return nil, err
	}
	s := utils.NewSampler(rng)

	modulus, err := sampleModulus(s, core.HeadroomRanges(params.ModulusMin, params.ModulusMax))
	if err != nil {
		return nil, fmt.Errorf("sampling modulus: %w", err)
	}

	vector := make([]int32, params.Dimension)
	if err := s.FillRange(vector, -params.KeyBound, params.KeyBound); err != nil {
		return nil, fmt.Errorf("sampling secret vector: %w", err)
	}

	return &lwe.SecretKey{
		Vector:  vector,
		Modulus: modulus,
		Scale:   modulus / lwe.MaxCodepoint,
	}, nil
}

// sampleModulus draws uniformly from the union of the half-open ranges.
func sampleModulus(s *utils.Sampler, ranges [][2]int64) (int64, error) {
	var total int64
	for _, r := range ranges {
		total += r[1] - r[0]
	}
	if total == 0 {
		return 0, fmt.Errorf("%w: no modulus with headroom", lwe.ErrInvalidParams)
	}
	v, err := s.Int63n(total)
	if err != nil {
		return 0, err
	}
	for _, r := range ranges {
		if width := r[1] - r[0]; v >= width {
			v -= width
			continue
		}
		return r[0] + v, nil
	}
	return 0, fmt.Errorf("%w: no modulus with headroom", lwe.ErrInvalidParams)
}

// Zeroize clears the secret vector.
func Zeroize(sk *lwe.SecretKey) {
	if sk != nil {
		utils.ZeroizeInt32(sk.Vector)
	}
}
