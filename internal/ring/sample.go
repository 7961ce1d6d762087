// sample.go - Noise and uniform sampling.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package ring

import (
	"io"

	"golang.org/x/crypto/sha3"
)

const (
	shake128Rate = 168

	// MaxUniformBlocks bounds the number of SHAKE-128 blocks consumed by
	// SampleUniform.  Each block yields 112 candidates of which ~81% are
	// accepted, so 256 coefficients take 3 blocks on average; exhausting
	// 16 is not a practical concern.
	MaxUniformBlocks = 16
)

// SampleCBD sets p to a sample of the centered binomial distribution with
// parameter eta, using 64*eta bytes of uniform input from buf.
func (p *Poly) SampleCBD(buf []byte, eta int) {
	if eta < 1 || eta > MaxEta || len(buf) < 64*eta {
		panic("ring: invalid CBD parameters")
	}

	bit := func(i int) uint16 {
		return uint16(buf[i>>3]>>(i&7)) & 1
	}
	for i := range p {
		var x, y uint16
		base := 2 * i * eta
		for j := 0; j < eta; j++ {
			x += bit(base + j)
			y += bit(base + eta + j)
		}
		p[i] = reduceOnce(Q + x - y)
	}
}

// DeriveNoise sets p to SampleCBD(SHAKE-256(seed || nonce), eta).
func (p *Poly) DeriveNoise(seed []byte, nonce byte, eta int) {
	var buf [64 * MaxEta]byte

	h := sha3.NewShake256()
	_, _ = h.Write(seed)
	_, _ = h.Write([]byte{nonce})
	_, _ = h.Read(buf[:64*eta])

	p.SampleCBD(buf[:64*eta], eta)

	// Scrub the random bits...
	clear(buf[:])
}

// SampleUniform sets p to a uniformly random polynomial by rejection
// sampling 12-bit values from xof.  It reads at most MaxUniformBlocks blocks
// and reports false if xof fails or the bound is hit before p is full.
func (p *Poly) SampleUniform(xof io.Reader) bool {
	var buf [shake128Rate]byte

	ctr := 0
	for blocks := 0; blocks < MaxUniformBlocks; blocks++ {
		if _, err := io.ReadFull(xof, buf[:]); err != nil {
			return false
		}
		for pos := 0; pos < len(buf) && ctr < N; pos += 3 {
			d1 := uint16(buf[pos]) | uint16(buf[pos+1]&0x0f)<<8
			d2 := uint16(buf[pos+1]>>4) | uint16(buf[pos+2])<<4
			if d1 < Q {
				p[ctr] = d1
				ctr++
			}
			if d2 < Q && ctr < N {
				p[ctr] = d2
				ctr++
			}
		}
		if ctr == N {
			return true
		}
	}
	return false
}

// DeriveUniform sets p to SampleUniform(SHAKE-128(rho || x || y)).
func (p *Poly) DeriveUniform(rho *[32]byte, x, y byte) bool {
	var input [34]byte
	copy(input[:], rho[:])
	input[32] = x
	input[33] = y

	// h and buf are left unscrubbed because the output is public.
	h := sha3.NewShake128()
	_, _ = h.Write(input[:])
	return p.SampleUniform(h)
}
