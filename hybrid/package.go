// package.go - Encrypted message packages.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package hybrid

import (
	"encoding/binary"
	"fmt"
	"time"

	"gitlab.com/yawning/kyber.git"
	"gitlab.com/yawning/kyber.git/chacha20"
)

// Algorithm is the tag identifying the scheme of a key or package.
type Algorithm byte

const (
	// AlgKyber1024ChaCha20Poly1305 is a per message Kyber1024
	// encapsulation with a ChaCha20-Poly1305 payload.  Keys carry the same
	// tag.
	AlgKyber1024ChaCha20Poly1305 Algorithm = 0x01

	// AlgGroupXChaCha20Poly1305 is an XChaCha20-Poly1305 payload keyed by
	// a cached group secret.
	AlgGroupXChaCha20Poly1305 Algorithm = 0x02
)

// String returns the name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case AlgKyber1024ChaCha20Poly1305:
		return "kyber1024-chacha20poly1305"
	case AlgGroupXChaCha20Poly1305:
		return "group-xchacha20poly1305"
	default:
		return fmt.Sprintf("unknown(%d)", byte(a))
	}
}

const timestampSize = 8

// headerSize returns the length of everything preceding the ciphertext.
func (a Algorithm) headerSize() (int, error) {
	switch a {
	case AlgKyber1024ChaCha20Poly1305:
		return 1 + timestampSize + kyber.CiphertextSize + chacha20.NonceSize, nil
	case AlgGroupXChaCha20Poly1305:
		return 1 + timestampSize + ChatIDSize + chacha20.XNonceSize, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, a)
	}
}

// Package is an encrypted message.  The serialized form is
//
//	tag || unix milliseconds (8, big endian) || kem ciphertext || nonce || ciphertext || mac
//
// for AlgKyber1024ChaCha20Poly1305, and
//
//	tag || unix milliseconds (8, big endian) || chat id || nonce || ciphertext || mac
//
// for AlgGroupXChaCha20Poly1305.  Everything before the ciphertext is
// authenticated as associated data.
type Package struct {
	Algorithm Algorithm
	Timestamp time.Time

	// KEMCiphertext is set for AlgKyber1024ChaCha20Poly1305.
	KEMCiphertext []byte

	// ChatID is set for AlgGroupXChaCha20Poly1305.
	ChatID ChatID

	Nonce []byte

	// Ciphertext includes the trailing Poly1305 tag.
	Ciphertext []byte
}

func (p *Package) validate() error {
	switch p.Algorithm {
	case AlgKyber1024ChaCha20Poly1305:
		if len(p.KEMCiphertext) != kyber.CiphertextSize || len(p.Nonce) != chacha20.NonceSize {
			return ErrInvalidCiphertextLength
		}
	case AlgGroupXChaCha20Poly1305:
		if len(p.Nonce) != chacha20.XNonceSize {
			return ErrInvalidCiphertextLength
		}
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedAlgorithm, p.Algorithm)
	}
	if len(p.Ciphertext) < tagSize {
		return ErrInvalidCiphertextLength
	}
	return nil
}

// header returns the associated data of the package.
func (p *Package) header() []byte {
	n, _ := p.Algorithm.headerSize()
	b := make([]byte, 0, n+len(p.Ciphertext))
	b = append(b, byte(p.Algorithm))
	b = binary.BigEndian.AppendUint64(b, uint64(p.Timestamp.UnixMilli()))
	if p.Algorithm == AlgKyber1024ChaCha20Poly1305 {
		b = append(b, p.KEMCiphertext...)
	} else {
		b = append(b, p.ChatID[:]...)
	}
	return append(b, p.Nonce...)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p *Package) MarshalBinary() ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return append(p.header(), p.Ciphertext...), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.  The package does
// not alias b.
func (p *Package) UnmarshalBinary(b []byte) error {
	if len(b) == 0 {
		return ErrInvalidCiphertextLength
	}
	alg := Algorithm(b[0])
	n, err := alg.headerSize()
	if err != nil {
		return err
	}
	if len(b) < n+tagSize {
		return ErrInvalidCiphertextLength
	}

	var pkg Package
	pkg.Algorithm = alg
	pkg.Timestamp = time.UnixMilli(int64(binary.BigEndian.Uint64(b[1:]))).UTC()
	rest := b[1+timestampSize:]
	switch alg {
	case AlgKyber1024ChaCha20Poly1305:
		pkg.KEMCiphertext = append([]byte{}, rest[:kyber.CiphertextSize]...)
		rest = rest[kyber.CiphertextSize:]
		pkg.Nonce = append([]byte{}, rest[:chacha20.NonceSize]...)
		rest = rest[chacha20.NonceSize:]
	case AlgGroupXChaCha20Poly1305:
		rest = rest[copy(pkg.ChatID[:], rest):]
		pkg.Nonce = append([]byte{}, rest[:chacha20.XNonceSize]...)
		rest = rest[chacha20.XNonceSize:]
	}
	pkg.Ciphertext = append([]byte{}, rest...)

	*p = pkg
	return nil
}

// ParsePackage deserializes a package.
func ParsePackage(b []byte) (*Package, error) {
	p := new(Package)
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return p, nil
}
