// reduce.go - Constant time modular reduction.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package ring

// reduceOnce maps x in [0, 2q) to [0, q).
func reduceOnce(x uint16) uint16 {
	subtracted := x - Q
	mask := 0 - (subtracted >> 15)
	return (mask & x) | (^mask & subtracted)
}

// reduce maps x in [0, q + 2q^2) to [0, q) via Barrett reduction.
func reduce(x uint32) uint16 {
	quotient := uint32((uint64(x) * barrettMultiplier) >> barrettShift)
	return reduceOnce(uint16(x - quotient*Q))
}

// lt returns 1 if a < b and 0 otherwise.
func lt(a, b uint32) uint32 {
	return (a ^ ((a ^ b) | ((a - b) ^ a))) >> 31
}
