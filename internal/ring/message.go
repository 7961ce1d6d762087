// message.go - Message encoding.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package ring

// messageOne is Decompress(1, 1), the coefficient carrying a set bit.
const messageOne = (Q + 1) / 2

// EncodeMessage sets each coefficient of p to 0 or (q+1)/2 according to the
// corresponding bit of m, least significant bit first.
func (p *Poly) EncodeMessage(m *[MessageSize]byte) {
	for i, b := range m {
		for j := 0; j < 8; j++ {
			bit := uint16(b>>j) & 1
			p[8*i+j] = -bit & messageOne
		}
	}
}

// DecodeMessage writes to m the bit each coefficient of p is closest to:
// 1 iff the coefficient lies in [833, 2496], i.e. closer to q/2 than to 0.
// This is Compress(x, 1) computed without branches.
func (p *Poly) DecodeMessage(m *[MessageSize]byte) {
	for i := range m {
		var b byte
		for j := 0; j < 8; j++ {
			x := int16(halfQ) - int16(p[8*i+j])
			// x now measures the distance from q/2; fold negative
			// values onto -x-1 so that x >= 0.
			x ^= x >> 15
			x -= (Q - 1) / 4
			b |= byte(uint16(x)>>15) << j
		}
		m[i] = b
	}
}
