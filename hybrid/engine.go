// engine.go - Hybrid encryption engine.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

// Package hybrid implements public key encryption of arbitrary length
// messages by pairing Kyber1024 with ChaCha20-Poly1305, and group messaging
// under cached per-chat secrets with XChaCha20-Poly1305.
//
// Every per-message package carries a fresh encapsulation and nonce, and its
// symmetric key is derived with HKDF-SHA3-256 from the shared secret, salted
// with the KEM ciphertext.  Group secrets are random, distributed to each
// member by an ordinary per-message package, and cached by chat id.
package hybrid

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/singleflight"

	"gitlab.com/yawning/kyber.git"
	"gitlab.com/yawning/kyber.git/chacha20"
)

const (
	messageKDFLabel = "kyber-hybrid v1 message key"
	groupKDFLabel   = "kyber-hybrid v1 group key"
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the source of package timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLogger sets the logger.  Only non-secret metadata is logged, at debug
// level.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.log = logger
	}
}

// Engine encrypts and decrypts packages.  It is safe for concurrent use.
type Engine struct {
	randMu sync.Mutex
	rand   io.Reader

	cache  SecretCache
	flight singleflight.Group

	now func() time.Time
	log *slog.Logger
}

// New returns an Engine drawing all randomness from rand, which must return
// cryptographically secure random data, and caching group secrets in cache.
// A nil cache selects a new MemoryCache.
func New(rand io.Reader, cache SecretCache, opts ...Option) (*Engine, error) {
	if rand == nil {
		return nil, ErrNilEntropySource
	}
	if cache == nil {
		cache = NewMemoryCache()
	}

	e := &Engine{
		rand:  rand,
		cache: cache,
		now:   time.Now,
		log:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) readRandom(b []byte) error {
	e.randMu.Lock()
	defer e.randMu.Unlock()

	if _, err := io.ReadFull(e.rand, b); err != nil {
		return fmt.Errorf("%w: %w", ErrRandomnessExhausted, err)
	}
	return nil
}

// lockedReader hands the engine's entropy source to the KEM.
type lockedReader struct {
	e *Engine
}

func (r lockedReader) Read(p []byte) (int, error) {
	e := r.e
	e.randMu.Lock()
	defer e.randMu.Unlock()

	return io.ReadFull(e.rand, p)
}

func (e *Engine) timestamp() time.Time {
	return time.UnixMilli(e.now().UnixMilli()).UTC()
}

func deriveKey(secret, salt []byte, label string, alg Algorithm) ([]byte, error) {
	info := append([]byte(label), byte(alg))
	r := hkdf.New(sha3.New256, secret, salt, info)

	key := make([]byte, chacha20.KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hybrid: failed to derive key: %w", err)
	}
	return key, nil
}

// GenerateKeyPair returns a new serialized key pair.
func (e *Engine) GenerateKeyPair() (*KeyPair, error) {
	sk, pk, err := kyber.GenerateKeyPair(lockedReader{e})
	if err != nil {
		return nil, err
	}
	defer sk.Reset()

	return &KeyPair{
		PublicKey: marshalPublicKey(pk),
		SecretKey: marshalPrivateKey(sk),
	}, nil
}

// EncryptMessage encrypts plaintext to the holder of the secret key matching
// recipientPublicKey.
func (e *Engine) EncryptMessage(plaintext, recipientPublicKey []byte) (*Package, error) {
	pk, err := parsePublicKey(recipientPublicKey)
	if err != nil {
		return nil, err
	}
	return e.encryptMessage(plaintext, pk)
}

func (e *Engine) encryptMessage(plaintext []byte, pk *kyber.PublicKey) (*Package, error) {
	if uint64(len(plaintext)) > maxPlaintextSize {
		return nil, ErrMessageTooLarge
	}

	ct, ss, err := pk.Encapsulate(lockedReader{e})
	if err != nil {
		return nil, err
	}
	defer clear(ss)

	pkg := &Package{
		Algorithm:     AlgKyber1024ChaCha20Poly1305,
		Timestamp:     e.timestamp(),
		KEMCiphertext: ct,
		Nonce:         make([]byte, chacha20.NonceSize),
	}
	if err = e.readRandom(pkg.Nonce); err != nil {
		return nil, err
	}

	key, err := deriveKey(ss, ct, messageKDFLabel, pkg.Algorithm)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	if pkg.Ciphertext, err = seal(key, pkg.Nonce, plaintext, pkg.header()); err != nil {
		return nil, err
	}
	return pkg, nil
}

// DecryptMessage decrypts a package produced by EncryptMessage.  Malformed
// packages and keys are rejected with a specific error; a package that was
// modified or encrypted to a different key fails with ErrDecryptionFailure.
func (e *Engine) DecryptMessage(pkg *Package, secretKey []byte) ([]byte, error) {
	if err := pkg.validate(); err != nil {
		return nil, err
	}
	sk, err := parsePrivateKey(secretKey)
	if err != nil {
		return nil, err
	}
	defer sk.Reset()

	return decryptMessage(pkg, sk)
}

func decryptMessage(pkg *Package, sk *kyber.PrivateKey) ([]byte, error) {
	if pkg.Algorithm != AlgKyber1024ChaCha20Poly1305 {
		return nil, fmt.Errorf("%w: %v is not a per-message algorithm", ErrUnsupportedAlgorithm, pkg.Algorithm)
	}

	ss, err := sk.Decapsulate(pkg.KEMCiphertext)
	if err != nil {
		return nil, err
	}
	defer clear(ss)

	key, err := deriveKey(ss, pkg.KEMCiphertext, messageKDFLabel, pkg.Algorithm)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	return open(key, pkg.Nonce, pkg.Ciphertext, pkg.header())
}
