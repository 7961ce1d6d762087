// compress.go - Coefficient compression and bit packing.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package ring

// Compress maps x in [0, q) to round(2^d * x / q) mod 2^d.
//
// Both the quotient and the remainder are needed for rounding, so the
// Barrett reduction is done inline rather than through reduce().
func Compress(x uint16, d int) uint16 {
	product := uint32(x) << d
	quotient := uint32((uint64(product) * barrettMultiplier) >> barrettShift)
	remainder := product - quotient*Q

	// remainder is in [0, 2q): round up past q/2, and once more past 3q/2
	// to correct the Barrett underestimate.
	quotient += lt(halfQ, remainder)
	quotient += lt(Q+halfQ, remainder)
	return uint16(quotient) & ((1 << d) - 1)
}

// Decompress maps y in [0, 2^d) to round(q * y / 2^d).
func Decompress(y uint16, d int) uint16 {
	product := uint32(y) * Q
	remainder := product & ((1 << d) - 1)
	return uint16((product >> d) + (remainder >> (d - 1)))
}

// Compress replaces every coefficient of p with Compress(p[i], d).
func (p *Poly) Compress(d int) {
	for i := range p {
		p[i] = Compress(p[i], d)
	}
}

// Decompress replaces every coefficient of p with Decompress(p[i], d).
func (p *Poly) Decompress(d int) {
	for i := range p {
		p[i] = Decompress(p[i], d)
	}
}

var masks = [8]uint16{0x01, 0x03, 0x07, 0x0f, 0x1f, 0x3f, 0x7f, 0xff}

// Encode packs the low bits of every coefficient little endian into out and
// returns the unused remainder of out.  out must hold at least
// CompressedSize(bits) bytes.
func (p *Poly) Encode(out []byte, bits int) []byte {
	var outByte byte
	outBits := 0

	for _, element := range p {
		done := 0
		for done < bits {
			chunk := bits - done
			free := 8 - outBits
			if chunk >= free {
				chunk = free
				outByte |= byte(element&masks[chunk-1]) << outBits
				out[0] = outByte
				out = out[1:]
				outBits = 0
				outByte = 0
			} else {
				outByte |= byte(element&masks[chunk-1]) << outBits
				outBits += chunk
			}
			done += chunk
			element >>= chunk
		}
	}

	if outBits > 0 {
		out[0] = outByte
		out = out[1:]
	}
	return out
}

// Decode unpacks CompressedSize(bits) bytes from in into p and returns the
// unconsumed remainder of in.  It fails if any unpacked value is not below
// q, which can only happen for bits = 12.
func (p *Poly) Decode(in []byte, bits int) ([]byte, bool) {
	var inByte byte
	inBits := 0

	for i := range p {
		var element uint16
		done := 0
		for done < bits {
			if inBits == 0 {
				inByte = in[0]
				in = in[1:]
				inBits = 8
			}
			chunk := min(bits-done, inBits)
			element |= (uint16(inByte) & masks[chunk-1]) << done
			inBits -= chunk
			inByte >>= chunk
			done += chunk
		}
		if element >= Q {
			return nil, false
		}
		p[i] = element
	}
	return in, true
}
