// engine_test.go - Hybrid engine tests.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package hybrid

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/sha3"
)

func newTestReader(label string) io.Reader {
	h := sha3.NewShake256()
	_, _ = h.Write([]byte(label))
	return h
}

func newTestEngine(t testing.TB, opts ...Option) *Engine {
	e, err := New(rand.Reader, nil, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func newTestKeyPair(t testing.TB, e *Engine) *KeyPair {
	kp, err := e.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	return kp
}

func TestKeyPair(t *testing.T) {
	e := newTestEngine(t)
	kp := newTestKeyPair(t, e)

	if len(kp.PublicKey) != PublicKeySize || len(kp.SecretKey) != SecretKeySize {
		t.Fatalf("key sizes %d/%d", len(kp.PublicKey), len(kp.SecretKey))
	}
	if Algorithm(kp.PublicKey[0]) != AlgKyber1024ChaCha20Poly1305 || Algorithm(kp.SecretKey[0]) != AlgKyber1024ChaCha20Poly1305 {
		t.Fatalf("keys are not tagged")
	}

	kp.Reset()
	if !bytes.Equal(kp.SecretKey, make([]byte, SecretKeySize)) {
		t.Fatalf("Reset left secret material behind")
	}
}

func TestRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	kp := newTestKeyPair(t, e)

	for _, n := range []int{0, 1, 31, 32, 1024, 1000000} {
		pt := make([]byte, n)
		_, _ = rand.Read(pt)

		pkg, err := e.EncryptMessage(pt, kp.PublicKey)
		if err != nil {
			t.Fatalf("EncryptMessage(%d bytes) failed: %v", n, err)
		}
		if len(pkg.Ciphertext) != n+tagSize {
			t.Fatalf("ciphertext is %d bytes for a %d byte message", len(pkg.Ciphertext), n)
		}

		// Through the wire format and back.
		b, err := pkg.MarshalBinary()
		if err != nil {
			t.Fatalf("MarshalBinary failed: %v", err)
		}
		pkg2, err := ParsePackage(b)
		if err != nil {
			t.Fatalf("ParsePackage failed: %v", err)
		}

		got, err := e.DecryptMessage(pkg2, kp.SecretKey)
		if err != nil {
			t.Fatalf("DecryptMessage(%d bytes) failed: %v", n, err)
		}
		if !bytes.Equal(got, pt) {
			t.Fatalf("DecryptMessage(EncryptMessage(p)) != p for %d bytes", n)
		}
	}
}

func TestFreshness(t *testing.T) {
	e := newTestEngine(t)
	kp := newTestKeyPair(t, e)
	pt := []byte("the same message twice")

	a, err := e.EncryptMessage(pt, kp.PublicKey)
	if err != nil {
		t.Fatalf("EncryptMessage failed: %v", err)
	}
	b, err := e.EncryptMessage(pt, kp.PublicKey)
	if err != nil {
		t.Fatalf("EncryptMessage failed: %v", err)
	}
	if bytes.Equal(a.KEMCiphertext, b.KEMCiphertext) || bytes.Equal(a.Nonce, b.Nonce) || bytes.Equal(a.Ciphertext, b.Ciphertext) {
		t.Fatalf("ephemeral material was reused")
	}
}

func TestTamper(t *testing.T) {
	e := newTestEngine(t)
	kp := newTestKeyPair(t, e)
	pt := []byte("attack at dawn, bring the good biscuits")

	pkg, err := e.EncryptMessage(pt, kp.PublicKey)
	if err != nil {
		t.Fatalf("EncryptMessage failed: %v", err)
	}
	wire, err := pkg.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	tampered := make([]byte, len(wire))
	for i := range wire {
		copy(tampered, wire)
		tampered[i] ^= 0x04

		p, err := ParsePackage(tampered)
		if err != nil {
			// Only the tag byte changes the structure.
			if i != 0 || !errors.Is(err, ErrUnsupportedAlgorithm) {
				t.Fatalf("byte %d: ParsePackage failed: %v", i, err)
			}
			continue
		}
		got, err := e.DecryptMessage(p, kp.SecretKey)
		if !errors.Is(err, ErrDecryptionFailure) {
			t.Fatalf("byte %d: DecryptMessage returned %v", i, err)
		}
		if got != nil {
			t.Fatalf("byte %d: DecryptMessage returned data", i)
		}
	}
}

func TestWrongKey(t *testing.T) {
	e := newTestEngine(t)
	alice, bob := newTestKeyPair(t, e), newTestKeyPair(t, e)

	pkg, err := e.EncryptMessage([]byte("for alice only"), alice.PublicKey)
	if err != nil {
		t.Fatalf("EncryptMessage failed: %v", err)
	}
	if _, err = e.DecryptMessage(pkg, bob.SecretKey); !errors.Is(err, ErrDecryptionFailure) {
		t.Fatalf("DecryptMessage with the wrong key: %v", err)
	}
}

func TestInvalidInputs(t *testing.T) {
	e := newTestEngine(t)
	kp := newTestKeyPair(t, e)

	if _, err := New(nil, nil); !errors.Is(err, ErrNilEntropySource) {
		t.Fatalf("New(nil): %v", err)
	}

	for _, tc := range []struct {
		key  []byte
		want error
	}{
		{nil, ErrInvalidKeyLength},
		{kp.PublicKey[:PublicKeySize-1], ErrInvalidKeyLength},
		{append([]byte{0x7f}, kp.PublicKey[1:]...), ErrUnsupportedAlgorithm},
		{kp.SecretKey, ErrInvalidKeyLength},
	} {
		if _, err := e.EncryptMessage([]byte("x"), tc.key); !errors.Is(err, tc.want) {
			t.Fatalf("EncryptMessage(%d byte key) = %v, want %v", len(tc.key), err, tc.want)
		}
	}

	pkg, err := e.EncryptMessage([]byte("x"), kp.PublicKey)
	if err != nil {
		t.Fatalf("EncryptMessage failed: %v", err)
	}
	if _, err = e.DecryptMessage(pkg, kp.PublicKey); !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("DecryptMessage with a public key: %v", err)
	}

	short := *pkg
	short.KEMCiphertext = short.KEMCiphertext[1:]
	if _, err = e.DecryptMessage(&short, kp.SecretKey); !errors.Is(err, ErrInvalidCiphertextLength) {
		t.Fatalf("DecryptMessage with a short KEM ciphertext: %v", err)
	}
	short = *pkg
	short.Ciphertext = short.Ciphertext[:tagSize-1]
	if _, err = e.DecryptMessage(&short, kp.SecretKey); !errors.Is(err, ErrInvalidCiphertextLength) {
		t.Fatalf("DecryptMessage with a truncated tag: %v", err)
	}

	wire, _ := pkg.MarshalBinary()
	for _, n := range []int{0, 1, 9, len(wire) - len(pkg.Ciphertext), len(wire) - 1 - len(pkg.Ciphertext) + tagSize} {
		if _, err = ParsePackage(wire[:n]); !errors.Is(err, ErrInvalidCiphertextLength) {
			t.Fatalf("ParsePackage(%d bytes): %v", n, err)
		}
	}
	wire[0] = 0xee
	if _, err = ParsePackage(wire); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("ParsePackage with an unknown tag: %v", err)
	}
}

func TestRandomnessExhausted(t *testing.T) {
	e, err := New(bytes.NewReader(make([]byte, 10)), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err = e.GenerateKeyPair(); !errors.Is(err, ErrRandomnessExhausted) {
		t.Fatalf("GenerateKeyPair on a short reader: %v", err)
	}

	// Enough for a key pair and an encapsulation, but not the nonce.
	seed := make([]byte, 64+32+4)
	e, _ = New(bytes.NewReader(seed), nil)
	kp, err := e.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	if _, err = e.EncryptMessage([]byte("x"), kp.PublicKey); !errors.Is(err, ErrRandomnessExhausted) {
		t.Fatalf("EncryptMessage on an exhausted reader: %v", err)
	}
	if _, err = e.DeriveGroupSecret([][]byte{kp.PublicKey}); !errors.Is(err, ErrRandomnessExhausted) {
		t.Fatalf("DeriveGroupSecret on an exhausted reader: %v", err)
	}
}

func TestDeterministicEngine(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.UTC)
	clock := func() time.Time { return now }

	var wires [2][]byte
	for i := range wires {
		e, err := New(newTestReader("deterministic engine"), nil, WithClock(clock))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		kp := newTestKeyPair(t, e)
		pkg, err := e.EncryptMessage([]byte("reproducible"), kp.PublicKey)
		if err != nil {
			t.Fatalf("EncryptMessage failed: %v", err)
		}
		if !pkg.Timestamp.Equal(now.Truncate(time.Millisecond)) {
			t.Fatalf("timestamp %v, want %v", pkg.Timestamp, now)
		}
		wires[i], _ = pkg.MarshalBinary()
	}
	if !bytes.Equal(wires[0], wires[1]) {
		t.Fatalf("the same entropy produced different packages")
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := newTestEngine(t, WithLogger(logger))
	kp := newTestKeyPair(t, e)

	cs, err := e.DeriveGroupSecret([][]byte{kp.PublicKey})
	if err != nil {
		t.Fatalf("DeriveGroupSecret failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "group secret derived") || !strings.Contains(out, cs.ChatID.short()) {
		t.Fatalf("missing log line: %q", out)
	}
	if strings.Contains(out, hex.EncodeToString(cs.SharedSecret)) {
		t.Fatalf("log leaked the group secret")
	}
}
