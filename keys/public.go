package keys

import (
	"fmt"
	"io"

	lwe "github.com/BackendStack21/lwe-text-go"
	"github.com/BackendStack21/lwe-text-go/core"
	"github.com/BackendStack21/lwe-text-go/modular"
	"github.com/BackendStack21/lwe-text-go/utils"
)

// rowsPerStream is how many equations share one derived random stream.
const rowsPerStream = 32

// DerivePublic derives the public equations for sk with the default
// parameters and the system CSPRNG.
func DerivePublic(sk *lwe.SecretKey) (*lwe.PublicKey, error) {
	if err := core.ValidateSecretKey(sk); err != nil {
		return nil, err
	}
	return DerivePublicWithParams(sk, core.DefaultParams(sk.Dimension()), utils.RandReader)
}

// DerivePublicWithParams derives RowFactor*n noisy equations for sk.
//
// Each equation holds n coefficients c drawn from [-KeyBound, KeyBound) and
// the target (c·s + e) mod M, with e uniform over (-b, b) for the noise bound
// b of the key's scale. The rounding margin must hold at the key's own scale,
// not only over the modulus range of params. Only a 32-byte master seed is
// read from rng; rows are generated in parallel from independent keyed
// streams derived from it.
func DerivePublicWithParams(sk *lwe.SecretKey, params lwe.Params, rng io.Reader) (*lwe.PublicKey, error) {
	if err := core.ValidateSecretKey(sk); err != nil {
		return nil, err
	}
	params.Dimension = sk.Dimension()
	if err := core.ValidateParams(params); err != nil {
		return nil, err
	}
	bound := params.NoiseBound(sk.Scale)
	if err := core.CheckMargin(params.RowsPerChar, bound, sk.Scale); err != nil {
		return nil, err
	}

	n := sk.Dimension()
	w := n + 1
	rows := params.Rows()
	size, err := utils.SafeMultiply(rows, w)
	if err != nil {
		return nil, err
	}
	equations, err := utils.SafeMakeInt32Slice(size, utils.MaxMatrixElements)
	if err != nil {
		return nil, fmt.Errorf("%w: %d equation entries", lwe.ErrInvalidParams, size)
	}

	seed, err := utils.ReadBytes(rng, utils.SeedSize)
	if err != nil {
		return nil, fmt.Errorf("reading seed: %w", err)
	}
	defer utils.Zeroize(seed)

	err = utils.ParallelChunks(rows, rowsPerStream, func(chunk, start, end int) error {
		key := utils.StreamKey(utils.DomainPublicRow, seed, chunk)
		s, err := utils.NewStreamSampler(key)
		utils.Zeroize(key)
		if err != nil {
			return err
		}
		for i := start; i < end; i++ {
			row := equations[i*w : (i+1)*w]
			if err := s.FillRange(row[:n], -params.KeyBound, params.KeyBound); err != nil {
				return err
			}
			noise, err := s.Open(bound)
			if err != nil {
				return err
			}
			row[n] = int32(modular.Reduce(modular.Dot(row[:n], sk.Vector)+noise, sk.Modulus))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("deriving equations: %w", err)
	}

	return &lwe.PublicKey{
		Modulus:    sk.Modulus,
		Scale:      sk.Scale,
		Dimension:  n,
		KeyBound:   int64(params.KeyBound),
		NoiseBound: bound,
		Equations:  equations,
	}, nil
}

// Noise returns the centered noise hidden in equation i of pk with respect
// to sk: (target - c·s) centered mod M.
func Noise(sk *lwe.SecretKey, pk *lwe.PublicKey, i int) int64 {
	row := pk.Row(i)
	n := pk.Dimension
	return modular.Center(int64(row[n])-modular.Dot(row[:n], sk.Vector), sk.Modulus)
}

// GenerateKeyPair generates a secret key and its public key for params.
func GenerateKeyPair(params lwe.Params, rng io.Reader) (*lwe.SecretKey, *lwe.PublicKey, error) {
	sk, err := GenerateSecretWithParams(params, rng)
	if err != nil {
		return nil, nil, err
	}
	pk, err := DerivePublicWithParams(sk, params, rng)
	if err != nil {
		return nil, nil, err
	}
	return sk, pk, nil
}
