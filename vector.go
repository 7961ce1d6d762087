// vector.go - Vectors and matrices over the ring.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package kyber

import "gitlab.com/yawning/kyber.git/internal/ring"

type vector [paramK]ring.Poly

// matrix holds A-hat in row major order.
type matrix [paramK * paramK]ring.Poly

func (v *vector) reset() {
	for i := range v {
		v[i].Reset()
	}
}

func (v *vector) ntt() {
	for i := range v {
		v[i].NTT()
	}
}

func (v *vector) invNTT() {
	for i := range v {
		v[i].InvNTT()
	}
}

func (v *vector) add(a, b *vector) {
	for i := range v {
		v[i].Add(&a[i], &b[i])
	}
}

func (v *vector) deriveNoise(seed []byte, nonce byte, eta int) {
	for i := range v {
		v[i].DeriveNoise(seed, nonce+byte(i), eta)
	}
}

func (v *vector) toBytes(r []byte) []byte {
	for i := range v {
		r = v[i].Encode(r, 12)
	}
	return r
}

func (v *vector) fromBytes(r []byte) ([]byte, bool) {
	var ok bool
	for i := range v {
		if r, ok = v[i].Decode(r, 12); !ok {
			return nil, false
		}
	}
	return r, true
}

// innerProduct sets p to sum(a[i] * b[i]), everything in the NTT domain.
func innerProduct(p *ring.Poly, a, b *vector) {
	var tmp ring.Poly

	p.Reset()
	for i := range a {
		tmp.MulNTT(&a[i], &b[i])
		p.Add(p, &tmp)
	}
}

// expand samples A-hat from rho.  A[i][j] is SHAKE-128(rho || j || i).
func (m *matrix) expand(rho *[symSize]byte) bool {
	for i := 0; i < paramK; i++ {
		for j := 0; j < paramK; j++ {
			if !m[i*paramK+j].DeriveUniform(rho, byte(j), byte(i)) {
				return false
			}
		}
	}
	return true
}

// mul sets r to A * v, or to A^T * v if transpose is set.
func (m *matrix) mul(r, v *vector, transpose bool) {
	var tmp ring.Poly

	for i := 0; i < paramK; i++ {
		r[i].Reset()
		for j := 0; j < paramK; j++ {
			a := &m[i*paramK+j]
			if transpose {
				a = &m[j*paramK+i]
			}
			tmp.MulNTT(a, &v[j])
			r[i].Add(&r[i], &tmp)
		}
	}
}
