// kyber.go - Kyber key encapsulation.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

// Package kyber implements the Kyber IND-CCA2 secure key encapsulation
// mechanism, with the Kyber1024 parameter set as standardized in FIPS 203
// (ML-KEM-1024).  Keys, ciphertexts and shared secrets are byte for byte
// compatible with other ML-KEM-1024 implementations.
//
// For more information see: https://doi.org/10.6028/NIST.FIPS.203
package kyber

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"runtime"

	"golang.org/x/crypto/sha3"
)

var (
	// ErrInvalidKeyLength is the error returned when a serialized key or
	// seed has the wrong length.
	ErrInvalidKeyLength = errors.New("kyber: invalid key length")

	// ErrInvalidKey is the error returned when a serialized key of the
	// right length fails validation.
	ErrInvalidKey = errors.New("kyber: invalid key")

	// ErrInvalidCiphertextLength is the error returned when a ciphertext
	// has the wrong length.
	ErrInvalidCiphertextLength = errors.New("kyber: invalid ciphertext length")

	// ErrRandomnessExhausted is the error returned when the entropy source
	// fails to provide enough bytes.  It wraps the reader's error.
	ErrRandomnessExhausted = errors.New("kyber: entropy source exhausted")

	// ErrSamplingBound is the error returned in the astronomically unlikely
	// event that expanding the public matrix exceeds its iteration bound.
	ErrSamplingBound = errors.New("kyber: matrix sampling exceeded bound")
)

func memwipe(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}

func readEntropy(rand io.Reader, b []byte) error {
	if _, err := io.ReadFull(rand, b); err != nil {
		return fmt.Errorf("%w: %w", ErrRandomnessExhausted, err)
	}
	return nil
}

// PublicKey is a Kyber public key.
type PublicKey struct {
	packed [PublicKeySize]byte
	hash   [symSize]byte

	rho [symSize]byte
	t   vector
	a   matrix
}

// Bytes returns the FIPS 203 encoding of the public key.
func (pk *PublicKey) Bytes() []byte {
	b := make([]byte, PublicKeySize)
	copy(b, pk.packed[:])
	return b
}

// Equal returns true iff pk and x are the same public key.
func (pk *PublicKey) Equal(x *PublicKey) bool {
	return subtle.ConstantTimeCompare(pk.packed[:], x.packed[:]) == 1
}

// setup derives everything that is computed from the packed encoding.
func (pk *PublicKey) setup() error {
	rest, ok := pk.t.fromBytes(pk.packed[:])
	if !ok {
		return ErrInvalidKey
	}
	copy(pk.rho[:], rest)
	if !pk.a.expand(&pk.rho) {
		return ErrSamplingBound
	}
	pk.hash = sha3.Sum256(pk.packed[:])
	return nil
}

// ParsePublicKey deserializes and validates a public key.
func ParsePublicKey(b []byte) (*PublicKey, error) {
	if len(b) != PublicKeySize {
		return nil, ErrInvalidKeyLength
	}

	pk := new(PublicKey)
	copy(pk.packed[:], b)
	if err := pk.setup(); err != nil {
		return nil, err
	}
	return pk, nil
}

// PrivateKey is a Kyber private key.
type PrivateKey struct {
	PublicKey

	s vector
	z [symSize]byte
}

// Public returns the public half of the key pair.
func (sk *PrivateKey) Public() *PublicKey {
	pk := sk.PublicKey
	return &pk
}

// Bytes returns the FIPS 203 encoding of the private key.  The returned
// slice holds secret material and should be wiped after use.
func (sk *PrivateKey) Bytes() []byte {
	b := make([]byte, 0, PrivateKeySize)
	b = b[:vectorSize]
	sk.s.toBytes(b)
	b = append(b, sk.packed[:]...)
	b = append(b, sk.hash[:]...)
	b = append(b, sk.z[:]...)
	return b
}

// Reset clears the secret portion of the private key.
func (sk *PrivateKey) Reset() {
	sk.s.reset()
	memwipe(sk.z[:])
}

// ParsePrivateKey deserializes and validates a private key.  The embedded
// public key hash must match the embedded public key.
func ParsePrivateKey(b []byte) (*PrivateKey, error) {
	if len(b) != PrivateKeySize {
		return nil, ErrInvalidKeyLength
	}

	sk := new(PrivateKey)
	rest, ok := sk.s.fromBytes(b)
	if !ok {
		return nil, ErrInvalidKey
	}
	rest = rest[copy(sk.packed[:], rest):]
	if err := sk.PublicKey.setup(); err != nil {
		sk.Reset()
		return nil, err
	}
	if subtle.ConstantTimeCompare(sk.hash[:], rest[:symSize]) != 1 {
		sk.Reset()
		return nil, ErrInvalidKey
	}
	copy(sk.z[:], rest[symSize:])
	return sk, nil
}

// GenerateKeyPair returns a private/public key pair.  The private key is
// generated using the given reader, which must return random data.
func GenerateKeyPair(rand io.Reader) (*PrivateKey, *PublicKey, error) {
	var seed [SeedSize]byte
	defer memwipe(seed[:])

	if err := readEntropy(rand, seed[:]); err != nil {
		return nil, nil, err
	}
	return NewKeyFromSeed(seed[:])
}

// NewKeyFromSeed deterministically derives a key pair from the SeedSize
// byte seed d || z.
func NewKeyFromSeed(seed []byte) (*PrivateKey, *PublicKey, error) {
	if len(seed) != SeedSize {
		return nil, nil, ErrInvalidKeyLength
	}

	var buf [symSize + 1]byte
	copy(buf[:], seed[:symSize])
	buf[symSize] = paramK

	// (rho, sigma) <- G(d || k)
	g := sha3.Sum512(buf[:])
	defer memwipe(g[:])
	sigma := g[symSize:]

	sk := new(PrivateKey)
	copy(sk.rho[:], g[:symSize])
	copy(sk.z[:], seed[symSize:])

	// A <- Parse(SHAKE-128(rho || j || i))
	if !sk.a.expand(&sk.rho) {
		return nil, nil, ErrSamplingBound
	}

	// s, e <- CBD(PRF(sigma, N))
	var e vector
	sk.s.deriveNoise(sigma, 0, paramEta1)
	sk.s.ntt()
	e.deriveNoise(sigma, paramK, paramEta1)
	e.ntt()

	// t <- A * s + e
	sk.a.mul(&sk.t, &sk.s, false)
	sk.t.add(&sk.t, &e)
	e.reset()

	sk.t.toBytes(sk.packed[:vectorSize])
	copy(sk.packed[vectorSize:], sk.rho[:])
	sk.hash = sha3.Sum256(sk.packed[:])

	return sk, sk.Public(), nil
}

// Encapsulate generates a shared secret and the ciphertext carrying it to
// the holder of the private key.  Each call reads EncapsulationSeedSize bytes
// from rand, which must return random data.
func (pk *PublicKey) Encapsulate(rand io.Reader) (ciphertext, sharedSecret []byte, err error) {
	var m [symSize]byte
	defer memwipe(m[:])

	if err = readEntropy(rand, m[:]); err != nil {
		return nil, nil, err
	}

	ciphertext = make([]byte, CiphertextSize)
	sharedSecret = make([]byte, SharedSecretSize)
	pk.encapsulate(ciphertext, sharedSecret, &m)
	return ciphertext, sharedSecret, nil
}

func (pk *PublicKey) encapsulate(ct, ss []byte, m *[symSize]byte) {
	var buf [2 * symSize]byte
	copy(buf[:], m[:])
	copy(buf[symSize:], pk.hash[:])

	// (K, r) <- G(m || H(pk))
	kr := sha3.Sum512(buf[:])
	var r [symSize]byte
	copy(r[:], kr[symSize:])

	pk.encrypt(ct, m, &r)
	copy(ss, kr[:symSize])

	memwipe(kr[:])
	memwipe(r[:])
}

// Decapsulate recovers the shared secret carried by ciphertext.  The only
// error is a malformed ciphertext length: a ciphertext that was tampered
// with, or created for a different key, yields a pseudorandom shared secret
// that will not match the sender's.
func (sk *PrivateKey) Decapsulate(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) != CiphertextSize {
		return nil, ErrInvalidCiphertextLength
	}

	var m, r [symSize]byte
	var buf [2 * symSize]byte
	var cmp [CiphertextSize]byte

	// m' <- Decrypt(s, c)
	sk.decrypt(&m, ciphertext)

	// (K', r') <- G(m' || H(pk))
	copy(buf[:], m[:])
	copy(buf[symSize:], sk.hash[:])
	kr := sha3.Sum512(buf[:])
	copy(r[:], kr[symSize:])

	// c' <- Encrypt(pk, m', r')
	sk.encrypt(cmp[:], &m, &r)

	// K-bar <- J(z || c)
	ss := make([]byte, SharedSecretSize)
	h := sha3.NewShake256()
	_, _ = h.Write(sk.z[:])
	_, _ = h.Write(ciphertext)
	_, _ = h.Read(ss)

	// Keep K' iff c == c', without branching on the outcome.
	ok := subtle.ConstantTimeCompare(ciphertext, cmp[:])
	subtle.ConstantTimeCopy(ok, ss, kr[:symSize])

	// Scrub the sensitive stuff...
	memwipe(m[:])
	memwipe(r[:])
	memwipe(buf[:])
	memwipe(kr[:])

	return ss, nil
}
