package utils

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/tuneinsight/lattigo/v5/utils/sampling"
)

// RandReader is the default randomness source. Tests may swap it.
var RandReader io.Reader = rand.Reader

// SeedSize is the byte length of master seeds and stream keys.
const SeedSize = 32

// ReadBytes reads exactly n bytes from r.
func ReadBytes(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Sampler draws uniform integers from an arbitrary byte source.
// It is not safe for concurrent use; give each goroutine its own.
type Sampler struct {
	r   io.Reader
	buf [8]byte
}

// NewSampler wraps r.
func NewSampler(r io.Reader) *Sampler {
	return &Sampler{r: r}
}

// NewStreamSampler returns a sampler over a keyed PRNG. Equal keys yield
// equal streams.
func NewStreamSampler(key []byte) (*Sampler, error) {
	prng, err := sampling.NewKeyedPRNG(key)
	if err != nil {
		return nil, err
	}
	return NewSampler(prng), nil
}

// Uint64 returns 64 uniform bits.
func (s *Sampler) Uint64() (uint64, error) {
	if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
		return 0, fmt.Errorf("reading randomness: %w", err)
	}
	return binary.LittleEndian.Uint64(s.buf[:]), nil
}

// Int63n returns a uniform integer in [0, n) using rejection sampling.
func (s *Sampler) Int63n(n int64) (int64, error) {
	if n <= 0 {
		return 0, errors.New("n must be positive")
	}
	if n == 1 {
		return 0, nil
	}
	// Largest multiple of n that fits in 63 bits.
	limit := (1<<63 - 1) - (1<<63-1)%uint64(n)
	for {
		v, err := s.Uint64()
		if err != nil {
			return 0, err
		}
		v >>= 1
		if v < limit {
			return int64(v % uint64(n)), nil
		}
	}
}

// Range returns a uniform integer in [lo, hi). hi must exceed lo.
func (s *Sampler) Range(lo, hi int64) (int64, error) {
	if hi <= lo {
		return 0, fmt.Errorf("empty range [%d, %d)", lo, hi)
	}
	v, err := s.Int63n(hi - lo)
	if err != nil {
		return 0, err
	}
	return lo + v, nil
}

// Open returns a uniform integer in the open interval (-b, b).
// b must be at least 1; b == 1 always yields 0.
func (s *Sampler) Open(b int64) (int64, error) {
	return s.Range(-b+1, b)
}

// FillRange fills dst with uniform int32 values in [lo, hi).
func (s *Sampler) FillRange(dst []int32, lo, hi int32) error {
	for i := range dst {
		v, err := s.Range(int64(lo), int64(hi))
		if err != nil {
			return err
		}
		dst[i] = int32(v)
	}
	return nil
}

// ZeroizeInt32 overwrites an int32 slice with zeros.
// Uses runtime.KeepAlive to prevent compiler optimization from eliminating the stores.
func ZeroizeInt32(s []int32) {
	for i := range s {
		s[i] = 0
	}
	runtime.KeepAlive(s)
}

// Zeroize overwrites a byte slice with zeros.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
