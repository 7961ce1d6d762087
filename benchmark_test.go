// benchmark_test.go - Kyber benchmarks.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package kyber

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func benchGenerateKeyPair(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, _, err := GenerateKeyPair(rand.Reader); err != nil {
			b.Fatalf("GenerateKeyPair failed: %v", err)
		}
	}
}

func benchEncapsulate(b *testing.B) {
	b.StopTimer()
	for i := 0; i < b.N; i++ {
		sk, pk, err := GenerateKeyPair(rand.Reader)
		if err != nil {
			b.Fatalf("GenerateKeyPair failed: %v", err)
		}

		b.StartTimer()
		ct, ssSender, err := pk.Encapsulate(rand.Reader)
		if err != nil {
			b.Fatalf("Encapsulate failed: %v", err)
		}
		b.StopTimer()

		ssRecipient, err := sk.Decapsulate(ct)
		if err != nil {
			b.Fatalf("Decapsulate failed: %v", err)
		}
		if !bytes.Equal(ssRecipient, ssSender) {
			b.Fatalf("shared secret mismatch")
		}
	}
}

func benchDecapsulate(b *testing.B) {
	b.StopTimer()
	for i := 0; i < b.N; i++ {
		sk, pk, err := GenerateKeyPair(rand.Reader)
		if err != nil {
			b.Fatalf("GenerateKeyPair failed: %v", err)
		}

		ct, ssSender, err := pk.Encapsulate(rand.Reader)
		if err != nil {
			b.Fatalf("Encapsulate failed: %v", err)
		}

		b.StartTimer()
		ssRecipient, err := sk.Decapsulate(ct)
		if err != nil {
			b.Fatalf("Decapsulate failed: %v", err)
		}
		b.StopTimer()

		if !bytes.Equal(ssRecipient, ssSender) {
			b.Fatalf("shared secret mismatch")
		}
	}
}

func BenchmarkKyber1024(b *testing.B) {
	b.Run("GenerateKeyPair", benchGenerateKeyPair)
	b.Run("Encapsulate", benchEncapsulate)
	b.Run("Decapsulate", benchDecapsulate)
}
