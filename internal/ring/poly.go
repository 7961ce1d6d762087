// poly.go - Polynomials over Z_q[X]/(X^256 + 1).
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

// Package ring implements the polynomial ring, noise sampler and message
// codec underlying the Kyber KEM.
//
// A Poly is a plain value; every operation writes its result into the
// receiver and never retains references to its arguments.  Coefficients are
// always fully reduced into [0, q).
package ring

// Poly is an element of Z_q[X]/(X^N + 1), either in the normal or the NTT
// domain.
type Poly [N]uint16

// Reset zeros p.
func (p *Poly) Reset() {
	clear(p[:])
}

// Add sets p to a + b.
func (p *Poly) Add(a, b *Poly) {
	for i := range p {
		p[i] = reduceOnce(a[i] + b[i])
	}
}

// Sub sets p to a - b.
func (p *Poly) Sub(a, b *Poly) {
	for i := range p {
		p[i] = reduceOnce(a[i] - b[i] + Q)
	}
}

// Mul sets p to a * b modulo X^N + 1.  a and b are in the normal domain and
// are left untouched.
func (p *Poly) Mul(a, b *Poly) {
	ah, bh := *a, *b
	ah.NTT()
	bh.NTT()
	p.MulNTT(&ah, &bh)
	p.InvNTT()
}
