package keys

import (
	"encoding/binary"
	"fmt"

	lwe "github.com/BackendStack21/lwe-text-go"
	"github.com/BackendStack21/lwe-text-go/core"
	"github.com/BackendStack21/lwe-text-go/utils"
	"github.com/zeebo/blake3"
)

// Header sizes, in 32-bit words.
const (
	secretHeaderWords = 3 // n, modulus, scale
	publicHeaderWords = 6 // n, modulus, scale, rows, key bound, noise bound
)

// SerializeSecretKey encodes sk as little-endian int32 words:
// n, modulus, scale, then the n vector entries.
func SerializeSecretKey(sk *lwe.SecretKey) []byte {
	result := make([]byte, (secretHeaderWords+len(sk.Vector))*4)
	putWords(result, int32(len(sk.Vector)), int32(sk.Modulus), int32(sk.Scale))
	putWords(result[secretHeaderWords*4:], sk.Vector...)
	return result
}

// DeserializeSecretKey decodes a secret key and validates its consistency.
func DeserializeSecretKey(data []byte) (*lwe.SecretKey, error) {
	if len(data) < secretHeaderWords*4 || len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: secret key length %d", lwe.ErrInvalidKey, len(data))
	}
	n := int(readWord(data, 0))
	if err := core.ValidateDimension(n); err != nil {
		return nil, fmt.Errorf("%w: %v", lwe.ErrInvalidKey, err)
	}
	if len(data) != (secretHeaderWords+n)*4 {
		return nil, fmt.Errorf("%w: secret key of dimension %d has %d bytes", lwe.ErrInvalidKey, n, len(data))
	}

	sk := &lwe.SecretKey{
		Modulus: int64(readWord(data, 1)),
		Scale:   int64(readWord(data, 2)),
		Vector:  readWords(data[secretHeaderWords*4:], n),
	}
	if err := core.ValidateSecretKey(sk); err != nil {
		return nil, err
	}
	return sk, nil
}

// SerializePublicKey encodes pk as little-endian int32 words:
// n, modulus, scale, rows, key bound, noise bound, then the row-major
// equations.
func SerializePublicKey(pk *lwe.PublicKey) []byte {
	result := make([]byte, (publicHeaderWords+len(pk.Equations))*4)
	putWords(result, int32(pk.Dimension), int32(pk.Modulus), int32(pk.Scale), int32(pk.Rows()),
		int32(pk.KeyBound), int32(pk.NoiseBound))
	putWords(result[publicHeaderWords*4:], pk.Equations...)
	return result
}

// DeserializePublicKey decodes a public key and validates its shape, bounds
// and entries.
func DeserializePublicKey(data []byte) (*lwe.PublicKey, error) {
	if len(data) < publicHeaderWords*4 || len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: public key length %d", lwe.ErrInvalidKey, len(data))
	}
	if len(data) > utils.MaxPayloadLength {
		return nil, fmt.Errorf("%w: public key of %d bytes exceeds limit", lwe.ErrInvalidKey, len(data))
	}
	n := int(readWord(data, 0))
	if err := core.ValidateDimension(n); err != nil {
		return nil, fmt.Errorf("%w: %v", lwe.ErrInvalidKey, err)
	}
	rows := int(readWord(data, 3))
	if rows <= 0 {
		return nil, fmt.Errorf("%w: %d rows", lwe.ErrInvalidKey, rows)
	}
	size, err := utils.SafeMultiply(rows, n+1)
	if err != nil || size > utils.MaxMatrixElements {
		return nil, fmt.Errorf("%w: %d rows of width %d exceeds limit", lwe.ErrInvalidKey, rows, n+1)
	}
	if len(data) != (publicHeaderWords+size)*4 {
		return nil, fmt.Errorf("%w: public key with %d rows has %d bytes", lwe.ErrInvalidKey, rows, len(data))
	}

	pk := &lwe.PublicKey{
		Dimension:  n,
		Modulus:    int64(readWord(data, 1)),
		Scale:      int64(readWord(data, 2)),
		KeyBound:   int64(readWord(data, 4)),
		NoiseBound: int64(readWord(data, 5)),
		Equations:  readWords(data[publicHeaderWords*4:], size),
	}
	if err := core.ValidatePublicKey(pk); err != nil {
		return nil, err
	}
	return pk, nil
}

// Fingerprint returns the BLAKE3-256 digest of the serialized public key.
func Fingerprint(pk *lwe.PublicKey) [32]byte {
	return blake3.Sum256(SerializePublicKey(pk))
}

func putWords(dst []byte, words ...int32) {
	for i, v := range words {
		binary.LittleEndian.PutUint32(dst[i*4:], uint32(v))
	}
}

func readWord(data []byte, i int) int32 {
	return int32(binary.LittleEndian.Uint32(data[i*4:]))
}

func readWords(data []byte, count int) []int32 {
	out := make([]int32, count)
	for i := range out {
		out[i] = readWord(data, i)
	}
	return out
}
