package lwe

import "fmt"

// Level names a parameter preset.
type Level string

const (
	// LWE16 matches the fixed sixteen-entry secret of the first release.
	LWE16 Level = "LWE-16"
	// LWE64 is the default dimension used by the CLI and benchmarks.
	LWE64 Level = "LWE-64"
	// LWE256 trades larger keys and records for a wider secret.
	LWE256 Level = "LWE-256"
)

// =============================================================================
// Parameter Types
// =============================================================================

// Params holds every tunable number of the scheme.
type Params struct {
	Level        Level `json:"level,omitempty"`
	Dimension    int   `json:"dimension"`     // Secret vector length n
	KeyBound     int32 `json:"key_bound"`     // Entries drawn from [-KeyBound, KeyBound)
	ModulusMin   int64 `json:"modulus_min"`   // Inclusive
	ModulusMax   int64 `json:"modulus_max"`   // Exclusive
	RowFactor    int   `json:"row_factor"`    // Public rows per secret entry
	RowsPerChar  int   `json:"rows_per_char"` // Public rows summed per character
	NoiseDivisor int64 `json:"noise_divisor"` // Noise bound is scale / NoiseDivisor
}

// Rows returns the number of public equations for these parameters.
func (p Params) Rows() int {
	return p.RowFactor * p.Dimension
}

// NoiseBound returns the exclusive noise bound b for a scale: noise is drawn
// from the open interval (-b, b). It is never below 1.
func (p Params) NoiseBound(scale int64) int64 {
	b := scale / p.NoiseDivisor
	if b < 1 {
		b = 1
	}
	return b
}

// =============================================================================
// Key Types
// =============================================================================

// SecretKey is the secret vector with its modulus and scale.
type SecretKey struct {
	Vector  []int32
	Modulus int64
	Scale   int64 // Modulus / MaxCodepoint
}

// Dimension returns the secret vector length.
func (sk SecretKey) Dimension() int {
	return len(sk.Vector)
}

// String summarizes the key without its vector.
func (sk SecretKey) String() string {
	return fmt.Sprintf("SecretKey{dimension: %d, modulus: %d, scale: %d}", len(sk.Vector), sk.Modulus, sk.Scale)
}

// GoString keeps %#v from printing the vector.
func (sk SecretKey) GoString() string {
	return sk.String()
}

// PublicKey is a set of noisy equations over the secret vector.
type PublicKey struct {
	Modulus    int64
	Scale      int64
	Dimension  int
	KeyBound   int64   // Coefficients lie in [-KeyBound, KeyBound)
	NoiseBound int64   // Exclusive bound on the noise of each equation
	Equations  []int32 // rows x (Dimension+1), row-major; last column is the noisy target
}

// Width returns the length of one equation (and of one ciphertext record).
func (pk *PublicKey) Width() int {
	return pk.Dimension + 1
}

// Rows returns the number of equations.
func (pk *PublicKey) Rows() int {
	if pk.Dimension <= 0 {
		return 0
	}
	return len(pk.Equations) / pk.Width()
}

// Row returns equation i. The slice aliases the key and must not be modified.
func (pk *PublicKey) Row(i int) []int32 {
	w := pk.Width()
	return pk.Equations[i*w : (i+1)*w]
}

// =============================================================================
// Ciphertext
// =============================================================================

// Ciphertext is a flat sequence of records, one per encrypted character.
type Ciphertext struct {
	Dimension int
	Data      []int32
}

// Width returns the record length.
func (ct *Ciphertext) Width() int {
	return ct.Dimension + 1
}

// Records returns the number of whole records.
func (ct *Ciphertext) Records() int {
	return len(ct.Data) / ct.Width()
}

// Record returns record i. The slice aliases the ciphertext.
func (ct *Ciphertext) Record(i int) []int32 {
	w := ct.Width()
	return ct.Data[i*w : (i+1)*w]
}

// =============================================================================
// Analysis Types
// =============================================================================

// NoiseReport summarizes the noise recovered from every public equation.
type NoiseReport struct {
	Dimension  int     `json:"dimension"`
	Rows       int     `json:"rows"`
	Modulus    int64   `json:"modulus"`
	Scale      int64   `json:"scale"`
	Bound      int64   `json:"bound"` // Exclusive per-row bound
	Min        int64   `json:"min"`
	Max        int64   `json:"max"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Median     float64 `json:"median"`
	OutOfBound int     `json:"out_of_bound"` // Rows whose noise is not below Bound
	WorstCase  int64   `json:"worst_case"`   // RowsPerChar * max |noise|
	Margin     int64   `json:"margin"`       // Half scale minus WorstCase; must stay positive
}

// Sound reports whether every row is in bound and rounding still has margin.
func (r *NoiseReport) Sound() bool {
	return r.OutOfBound == 0 && r.Margin > 0
}
