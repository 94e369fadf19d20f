// Package digest computes content hashes of files.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// Size is the length of a Hash in bytes.
const Size = 32

// Hash is a content digest. Two files with equal hashes are treated as
// byte-identical.
type Hash [Size]byte

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether h is the zero value.
func (h Hash) IsZero() bool { return h == Hash{} }

// Parse decodes the hex form produced by Hash.String.
func Parse(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("parse digest %q: %w", s, err)
	}
	if len(b) != Size {
		return h, fmt.Errorf("parse digest %q: got %d bytes, want %d", s, len(b), Size)
	}
	copy(h[:], b)
	return h, nil
}

// Algorithm names.
const (
	SHA256     = "sha256"
	BLAKE2b256 = "blake2b256"
)

var constructors = map[string]func() hash.Hash{
	SHA256: sha256.New,
	BLAKE2b256: func() hash.Hash {
		h, _ := blake2b.New256(nil)
		return h
	},
}

// Hasher hashes content with a fixed algorithm.
type Hasher struct {
	name string
	new  func() hash.Hash
}

// New returns a Hasher for the named algorithm.
func New(algorithm string) (Hasher, error) {
	fn, ok := constructors[algorithm]
	if !ok {
		return Hasher{}, fmt.Errorf("unsupported hash algorithm: %q", algorithm)
	}
	return Hasher{name: algorithm, new: fn}, nil
}

// Default returns the SHA-256 Hasher.
func Default() Hasher {
	return Hasher{name: SHA256, new: sha256.New}
}

// Algorithm returns the algorithm name.
func (h Hasher) Algorithm() string { return h.name }

// Reader hashes everything read from r.
func (h Hasher) Reader(r io.Reader) (Hash, error) {
	var out Hash
	d := h.new()
	if _, err := io.Copy(d, r); err != nil {
		return out, err
	}
	copy(out[:], d.Sum(nil))
	return out, nil
}

// Bytes hashes b.
func (h Hasher) Bytes(b []byte) Hash {
	var out Hash
	d := h.new()
	d.Write(b)
	copy(out[:], d.Sum(nil))
	return out
}

// File hashes the content of the file at path.
func (h Hasher) File(path string) (Hash, error) {
	f, err := os.Open(path)
	if err != nil {
		return Hash{}, err
	}
	defer f.Close()
	sum, err := h.Reader(f)
	if err != nil {
		return Hash{}, fmt.Errorf("hash %s: %w", path, err)
	}
	return sum, nil
}
