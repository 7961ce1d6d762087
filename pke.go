// pke.go - The underlying IND-CPA public key encryption scheme.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package kyber

import (
	"gitlab.com/yawning/kyber.git/internal/ring"
)

// encrypt writes the encryption of m under pk with coins r to ct.
func (pk *PublicKey) encrypt(ct []byte, m, r *[symSize]byte) {
	var y, e1, u vector
	var e2, v, mu ring.Poly

	// y, e1, e2 <- CBD(PRF(r, N)), N = 0 .. 2k
	y.deriveNoise(r[:], 0, paramEta1)
	y.ntt()
	e1.deriveNoise(r[:], paramK, paramEta2)
	e2.DeriveNoise(r[:], 2*paramK, paramEta2)

	// u <- InvNTT(A^T * y) + e1
	pk.a.mul(&u, &y, true)
	u.invNTT()
	u.add(&u, &e1)

	// v <- InvNTT(t * y) + e2 + Decompress(m, 1)
	innerProduct(&v, &pk.t, &y)
	v.InvNTT()
	v.Add(&v, &e2)
	mu.EncodeMessage(m)
	v.Add(&v, &mu)

	for i := range u {
		u[i].Compress(paramDu)
		ct = u[i].Encode(ct, paramDu)
	}
	v.Compress(paramDv)
	v.Encode(ct, paramDv)

	// Scrub the sensitive stuff...
	y.reset()
	e1.reset()
	e2.Reset()
	v.Reset()
	mu.Reset()
}

// decrypt recovers the message encrypted in ct, which must be exactly
// CiphertextSize bytes.
func (sk *PrivateKey) decrypt(m *[symSize]byte, ct []byte) {
	var u vector
	var v, w ring.Poly

	// Neither width can produce values >= q, so decoding cannot fail.
	for i := range u {
		ct, _ = u[i].Decode(ct, paramDu)
		u[i].Decompress(paramDu)
	}
	_, _ = v.Decode(ct, paramDv)
	v.Decompress(paramDv)

	// w <- v - InvNTT(s * NTT(u))
	u.ntt()
	innerProduct(&w, &sk.s, &u)
	w.InvNTT()
	w.Sub(&v, &w)
	w.DecodeMessage(m)

	w.Reset()
}
