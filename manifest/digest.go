package manifest

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Supported digest algorithms.
const (
	AlgorithmSHA256 = "sha256"
	AlgorithmSHA512 = "sha512"
)

// Digest is a content hash with its algorithm.
type Digest struct {
	algorithm string
	value     string // hex-encoded
}

// NewDigest creates a digest from algorithm and hex value.
func NewDigest(algorithm, hexValue string) (Digest, error) {
	var size int
	switch algorithm {
	case AlgorithmSHA256:
		size = sha256.Size
	case AlgorithmSHA512:
		size = sha512.Size
	default:
		return Digest{}, fmt.Errorf("unsupported digest algorithm: %s", algorithm)
	}

	hexValue = strings.ToLower(hexValue)
	raw, err := hex.DecodeString(hexValue)
	if err != nil {
		return Digest{}, fmt.Errorf("invalid %s digest value: %w", algorithm, err)
	}
	if len(raw) != size {
		return Digest{}, fmt.Errorf("invalid %s digest length: got %d bytes, want %d", algorithm, len(raw), size)
	}

	return Digest{algorithm: algorithm, value: hexValue}, nil
}

// ParseDigest parses a digest string such as "sha256:abc123...".
func ParseDigest(s string) (Digest, error) {
	algorithm, value, ok := strings.Cut(s, ":")
	if !ok {
		return Digest{}, fmt.Errorf("invalid digest format: %s", s)
	}
	return NewDigest(algorithm, value)
}

// String returns the canonical digest string.
func (d Digest) String() string {
	if d.IsZero() {
		return ""
	}
	return d.algorithm + ":" + d.value
}

// Algorithm returns the hash algorithm.
func (d Digest) Algorithm() string {
	return d.algorithm
}

// Value returns the hex-encoded hash value.
func (d Digest) Value() string {
	return d.value
}

// IsZero reports whether d is the zero Digest.
func (d Digest) IsZero() bool {
	return d.algorithm == "" && d.value == ""
}

// Equals checks equality with another digest.
func (d Digest) Equals(other Digest) bool {
	return d.algorithm == other.algorithm && d.value == other.value
}

// Verify checks that data hashes to d.
func (d Digest) Verify(data []byte) error {
	computed, err := d.computeHash(data)
	if err != nil {
		return err
	}
	if !d.Equals(computed) {
		return &DigestMismatchError{Expected: d, Actual: computed}
	}
	return nil
}

func (d Digest) computeHash(data []byte) (Digest, error) {
	switch d.algorithm {
	case AlgorithmSHA256:
		hash := sha256.Sum256(data)
		return Digest{algorithm: AlgorithmSHA256, value: hex.EncodeToString(hash[:])}, nil
	case AlgorithmSHA512:
		hash := sha512.Sum512(data)
		return Digest{algorithm: AlgorithmSHA512, value: hex.EncodeToString(hash[:])}, nil
	default:
		return Digest{}, fmt.Errorf("unsupported algorithm: %s", d.algorithm)
	}
}

// SumSHA256 returns the SHA-256 digest of data.
func SumSHA256(data []byte) Digest {
	hash := sha256.Sum256(data)
	return Digest{algorithm: AlgorithmSHA256, value: hex.EncodeToString(hash[:])}
}

// ComputeDigestSHA256 computes the SHA-256 digest of reader contents.
func ComputeDigestSHA256(r io.Reader) (Digest, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, err
	}
	return Digest{
		algorithm: AlgorithmSHA256,
		value:     hex.EncodeToString(h.Sum(nil)),
	}, nil
}
