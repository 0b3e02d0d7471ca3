package cipher

import (
	"encoding/binary"
	"fmt"

	lwe "github.com/BackendStack21/lwe-text-go"
	"github.com/BackendStack21/lwe-text-go/utils"
)

// SerializeCiphertext encodes records as little-endian int32 words with no
// header: records * (n+1) * 4 bytes.
func SerializeCiphertext(ct *lwe.Ciphertext) []byte {
	result := make([]byte, len(ct.Data)*4)
	for i, v := range ct.Data {
		binary.LittleEndian.PutUint32(result[i*4:], uint32(v))
	}
	return result
}

// DeserializeCiphertext decodes records of width dimension+1. The length
// must be an exact multiple of the record size.
func DeserializeCiphertext(data []byte, dimension int) (*lwe.Ciphertext, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", lwe.ErrInvalidDimension, dimension)
	}
	if len(data) > utils.MaxPayloadLength {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit", lwe.ErrMalformedCiphertext, len(data))
	}
	recordSize := (dimension + 1) * 4
	if len(data)%recordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of record size %d", lwe.ErrMalformedCiphertext, len(data), recordSize)
	}

	words := make([]int32, len(data)/4)
	for i := range words {
		words[i] = int32(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return &lwe.Ciphertext{Dimension: dimension, Data: words}, nil
}
