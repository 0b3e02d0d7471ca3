package utils

import (
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/sha3"
)

// Domain separation tags for derived randomness streams.
const (
	DomainPublicRow = "lwe-text-public-row-v1"
	DomainEncrypt   = "lwe-text-encrypt-v1"
)

var shake256Pool = sync.Pool{
	New: func() interface{} {
		return sha3.NewShake256()
	},
}

// Shake256WithDomain computes SHAKE256 over a length-prefixed domain tag
// followed by data.
// Panics if domain is longer than 255 bytes.
func Shake256WithDomain(domain string, data []byte, outputLen int) []byte {
	domainBytes := []byte(domain)
	if len(domainBytes) > 255 {
		panic("domain string must be at most 255 bytes")
	}

	h := shake256Pool.Get().(sha3.ShakeHash)
	defer func() {
		h.Reset()
		shake256Pool.Put(h)
	}()

	h.Write([]byte{byte(len(domainBytes))})
	h.Write(domainBytes)
	h.Write(data)
	output := make([]byte, outputLen)
	_, _ = h.Read(output)
	return output
}

// StreamKey derives the key of the index-th independent stream under a
// master seed. Distinct (domain, index) pairs give unrelated keys.
func StreamKey(domain string, seed []byte, index int) []byte {
	data := make([]byte, len(seed)+8)
	copy(data, seed)
	binary.LittleEndian.PutUint64(data[len(seed):], uint64(index))
	key := Shake256WithDomain(domain, data, SeedSize)
	Zeroize(data)
	return key
}
