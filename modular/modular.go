// Package modular provides the residue arithmetic shared by key derivation,
// encryption and decryption.
package modular

import "golang.org/x/exp/constraints"

// Reduce returns v mod m in [0, m) for any signed v and positive m.
// Go's % truncates toward zero, so negative remainders are shifted up by m.
func Reduce[T constraints.Signed](v, m T) T {
	r := v % m
	if r < 0 {
		r += m
	}
	return r
}

// Center returns v mod m in (-m/2, m/2].
// It reads a small signed quantity (noise) back out of a residue.
func Center[T constraints.Signed](v, m T) T {
	r := Reduce(v, m)
	if r > m/2 {
		return r - m
	}
	return r
}

// RoundDiv returns a/d rounded to the nearest integer, halves away from zero.
// d must be positive.
func RoundDiv(a, d int64) int64 {
	if a < 0 {
		return -((-a + d/2) / d)
	}
	return (a + d/2) / d
}

// Dot returns the int64 inner product of the first len(a) entries of a and b.
func Dot(a, b []int32) int64 {
	var sum int64
	for i := range a {
		sum += int64(a[i]) * int64(b[i])
	}
	return sum
}
