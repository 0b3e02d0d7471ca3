// Package analysis measures the noise of derived keys and the empirical
// round-trip reliability of a parameter set.
package analysis

import (
	"fmt"
	"io"

	lwe "github.com/BackendStack21/lwe-text-go"
	"github.com/BackendStack21/lwe-text-go/cipher"
	"github.com/BackendStack21/lwe-text-go/core"
	"github.com/BackendStack21/lwe-text-go/keys"
	"github.com/montanaflynn/stats"
)

// AnalyzeNoise recovers the noise of every equation of pk and summarizes it
// against the key's noise bound and the default rows per character.
func AnalyzeNoise(sk *lwe.SecretKey, pk *lwe.PublicKey) (*lwe.NoiseReport, error) {
	return AnalyzeNoiseWithParams(sk, pk, core.DefaultParams(pk.Dimension))
}

// AnalyzeNoiseWithParams is AnalyzeNoise with the rows per character taken
// from params.
func AnalyzeNoiseWithParams(sk *lwe.SecretKey, pk *lwe.PublicKey, params lwe.Params) (*lwe.NoiseReport, error) {
	if err := core.ValidateSecretKey(sk); err != nil {
		return nil, err
	}
	if err := core.ValidatePublicKey(pk); err != nil {
		return nil, err
	}
	if pk.Dimension != sk.Dimension() || pk.Modulus != sk.Modulus {
		return nil, fmt.Errorf("%w: public key was not derived from this secret key", lwe.ErrInvalidKey)
	}

	report := &lwe.NoiseReport{
		Dimension: pk.Dimension,
		Rows:      pk.Rows(),
		Modulus:   pk.Modulus,
		Scale:     pk.Scale,
		Bound:     pk.NoiseBound,
	}

	samples := make(stats.Float64Data, report.Rows)
	var maxAbs int64
	for i := range samples {
		e := keys.Noise(sk, pk, i)
		samples[i] = float64(e)
		if e < report.Min || i == 0 {
			report.Min = e
		}
		if e > report.Max || i == 0 {
			report.Max = e
		}
		if a := abs(e); a > maxAbs {
			maxAbs = a
		}
		if abs(e) >= report.Bound {
			report.OutOfBound++
		}
	}

	var err error
	if report.Mean, err = samples.Mean(); err != nil {
		return nil, err
	}
	if report.StdDev, err = samples.StandardDeviation(); err != nil {
		return nil, err
	}
	if report.Median, err = samples.Median(); err != nil {
		return nil, err
	}

	report.WorstCase = int64(params.RowsPerChar) * maxAbs
	report.Margin = pk.Scale/2 - report.WorstCase
	return report, nil
}

// TrialResult counts the outcomes of RoundTripTrials.
type TrialResult struct {
	Trials       int `json:"trials"`
	Failures     int `json:"failures"`     // Decryptions that differ from the message
	Placeholders int `json:"placeholders"` // Placeholder characters across failed trials
	Unsound      int `json:"unsound_keys"` // Keys whose noise report is not sound
}

// RoundTripTrials generates a fresh key pair per trial, encrypts message and
// decrypts it again. It validates tunable parameters empirically.
func RoundTripTrials(params lwe.Params, message string, trials int, rng io.Reader) (*TrialResult, error) {
	if trials <= 0 {
		return nil, fmt.Errorf("%w: trials must be positive", lwe.ErrInvalidParams)
	}
	result := &TrialResult{Trials: trials}
	for i := 0; i < trials; i++ {
		sk, pk, err := keys.GenerateKeyPair(params, rng)
		if err != nil {
			return nil, err
		}
		report, err := AnalyzeNoiseWithParams(sk, pk, params)
		if err != nil {
			return nil, err
		}
		if !report.Sound() {
			result.Unsound++
		}

		ct, err := cipher.EncryptRecords(pk, message, params.RowsPerChar, rng)
		if err != nil {
			return nil, err
		}
		text, err := cipher.DecryptRecords(sk, ct)
		if err != nil {
			return nil, err
		}
		if text != message {
			result.Failures++
			result.Placeholders += cipher.CountPlaceholders(text)
		}
		keys.Zeroize(sk)
	}
	return result, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
