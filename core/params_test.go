package core

import (
	"errors"
	"testing"

	lwe "github.com/BackendStack21/lwe-text-go"
	"github.com/stretchr/testify/require"
)

func TestGetParams(t *testing.T) {
	for _, tc := range []struct {
		level lwe.Level
		dim   int
	}{
		{lwe.LWE16, 16},
		{lwe.LWE64, 64},
		{lwe.LWE256, 256},
	} {
		params, err := GetParams(tc.level)
		if err != nil {
			t.Fatalf("GetParams(%s) failed: %v", tc.level, err)
		}
		if params.Level != tc.level {
			t.Errorf("Expected %s, got %s", tc.level, params.Level)
		}
		if params.Dimension != tc.dim {
			t.Errorf("Expected dimension %d, got %d", tc.dim, params.Dimension)
		}
		if params.Rows() != 10*tc.dim {
			t.Errorf("Expected %d rows, got %d", 10*tc.dim, params.Rows())
		}
	}

	_, err := GetParams("INVALID")
	if err == nil {
		t.Error("GetParams(INVALID) should fail")
	}
}

func TestValidateParams(t *testing.T) {
	for _, level := range []lwe.Level{lwe.LWE16, lwe.LWE64, lwe.LWE256} {
		params, _ := GetParams(level)
		require.NoError(t, ValidateParams(params), level)
	}
	require.NoError(t, ValidateParams(DefaultParams(1)))
	require.NoError(t, ValidateParams(DefaultParams(2048)))

	base := DefaultParams(8)
	cases := map[string]func(p *lwe.Params){
		"zero dimension":       func(p *lwe.Params) { p.Dimension = 0 },
		"negative dimension":   func(p *lwe.Params) { p.Dimension = -3 },
		"huge dimension":       func(p *lwe.Params) { p.Dimension = lwe.MaxDimension + 1 },
		"zero key bound":       func(p *lwe.Params) { p.KeyBound = 0 },
		"zero row factor":      func(p *lwe.Params) { p.RowFactor = 0 },
		"zero rows per char":   func(p *lwe.Params) { p.RowsPerChar = 0 },
		"zero noise divisor":   func(p *lwe.Params) { p.NoiseDivisor = 0 },
		"scale below one":      func(p *lwe.Params) { p.ModulusMin = lwe.MaxCodepoint - 1 },
		"empty modulus range":  func(p *lwe.Params) { p.ModulusMax = p.ModulusMin },
		"modulus over 32 bits": func(p *lwe.Params) { p.ModulusMax = 1 << 32 },
		"noise too wide":       func(p *lwe.Params) { p.NoiseDivisor = 2 },
		"too many rows summed": func(p *lwe.Params) { p.RowsPerChar = 8 },
		"record overflow":      func(p *lwe.Params) { p.KeyBound = 1 << 30 },
		"matrix over limit":    func(p *lwe.Params) { p.Dimension = 4096 },
		"no modulus headroom": func(p *lwe.Params) {
			p.ModulusMin, p.ModulusMax = 2*lwe.MaxCodepoint, 2*lwe.MaxCodepoint+2
		},
		"margin fails inside range": func(p *lwe.Params) {
			// Scales 9 and 14 round correctly, 12 does not.
			p.ModulusMin, p.ModulusMax = 9*lwe.MaxCodepoint, 15*lwe.MaxCodepoint
			p.NoiseDivisor = 3
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := base
			mutate(&p)
			err := ValidateParams(p)
			require.Error(t, err)
			require.True(t, errors.Is(err, lwe.ErrInvalidParams) || errors.Is(err, lwe.ErrInvalidDimension), err)
		})
	}
}

func TestValidateDimension(t *testing.T) {
	require.NoError(t, ValidateDimension(1))
	require.ErrorIs(t, ValidateDimension(0), lwe.ErrInvalidDimension)
	require.ErrorIs(t, ValidateDimension(-1), lwe.ErrInvalidDimension)
}

func TestValidateKeys(t *testing.T) {
	sk := &lwe.SecretKey{Vector: []int32{1, -2}, Modulus: 22282220, Scale: 20}
	require.NoError(t, ValidateSecretKey(sk))

	bad := *sk
	bad.Scale = 19
	require.ErrorIs(t, ValidateSecretKey(&bad), lwe.ErrInvalidKey)
	require.ErrorIs(t, ValidateSecretKey(nil), lwe.ErrInvalidKey)
	require.ErrorIs(t, ValidateSecretKey(&lwe.SecretKey{Modulus: 22282220, Scale: 20}), lwe.ErrInvalidDimension)

	pk := &lwe.PublicKey{
		Modulus:    22282220,
		Scale:      20,
		Dimension:  2,
		KeyBound:   DefaultKeyBound,
		NoiseBound: 2,
		Equations:  []int32{1, 2, 3, 4, 5, 6},
	}
	require.NoError(t, ValidatePublicKey(pk))

	for name, mutate := range map[string]func(k *lwe.PublicKey){
		"zero key bound":         func(k *lwe.PublicKey) { k.KeyBound = 0 },
		"key bound over 32 bit":  func(k *lwe.PublicKey) { k.KeyBound = 1 << 31 },
		"zero noise bound":       func(k *lwe.PublicKey) { k.NoiseBound = 0 },
		"noise bound over scale": func(k *lwe.PublicKey) { k.NoiseBound = 21 },
		"coefficient at bound": func(k *lwe.PublicKey) {
			k.Equations = []int32{DefaultKeyBound, 2, 3, 4, 5, 6}
		},
		"coefficient below bound": func(k *lwe.PublicKey) {
			k.Equations = []int32{1, 2, 3, -DefaultKeyBound - 1, 5, 6}
		},
		"huge coefficient": func(k *lwe.PublicKey) {
			k.Equations = []int32{1 << 30, 2, 3, 4, 5, 6}
		},
	} {
		k := *pk
		mutate(&k)
		require.ErrorIs(t, ValidatePublicKey(&k), lwe.ErrInvalidKey, name)
	}
	edge := *pk
	edge.Equations = []int32{-DefaultKeyBound, DefaultKeyBound - 1, 3, 4, 5, 6}
	require.NoError(t, ValidatePublicKey(&edge))

	bad2 := *pk
	bad2.Equations = []int32{1, 2, 3, 4}
	require.ErrorIs(t, ValidatePublicKey(&bad2), lwe.ErrInvalidKey)

	bad2.Equations = []int32{1, 2, 3}
	require.ErrorIs(t, ValidatePublicKey(&bad2), lwe.ErrInvalidKey, "one row is not a multiple of dimension 2")

	bad2.Equations = []int32{1, 2, -3, 4, 5, 6}
	require.ErrorIs(t, ValidatePublicKey(&bad2), lwe.ErrInvalidKey)

	bad2.Equations = nil
	require.ErrorIs(t, ValidatePublicKey(&bad2), lwe.ErrInvalidKey)
}

func TestHeadroomRanges(t *testing.T) {
	const mc = lwe.MaxCodepoint
	require.Empty(t, HeadroomRanges(2*mc, 2*mc+2))
	require.Equal(t, [][2]int64{{2*mc + 2, 2*mc + 5}}, HeadroomRanges(2*mc, 2*mc+5))
	require.Equal(t, [][2]int64{{9*mc + 9, 10 * mc}, {10*mc + 10, 10*mc + 20}}, HeadroomRanges(9*mc, 10*mc+20))

	// Every reported modulus has headroom and every other one in range does not.
	lo, hi := int64(3*mc-50), int64(3*mc+50)
	inRange := map[int64]bool{}
	for _, r := range HeadroomRanges(lo, hi) {
		for m := r[0]; m < r[1]; m++ {
			inRange[m] = true
		}
	}
	for m := lo; m < hi; m++ {
		require.Equal(t, HasHeadroom(m), inRange[m], "modulus %d", m)
	}

	ranges := HeadroomRanges(DefaultModulusMin, DefaultModulusMax)
	require.Len(t, ranges, 91)
	for _, r := range ranges {
		require.True(t, HasHeadroom(r[0]) && HasHeadroom(r[1]-1))
	}
}

func TestCheckMargin(t *testing.T) {
	require.NoError(t, CheckMargin(2, 9, 99))
	require.NoError(t, CheckMargin(100, 1, 9))
	require.ErrorIs(t, CheckMargin(2, 4, 12), lwe.ErrInvalidParams)
	require.ErrorIs(t, CheckMargin(8, 9, 99), lwe.ErrInvalidParams)
}
