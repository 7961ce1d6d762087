// params.go - Ring parameters.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package ring

const (
	// N is the polynomial degree.
	N = 256

	// Q is the coefficient modulus, q = 3329 = 13*256 + 1.
	Q = 3329

	// PolySize is the length of a polynomial packed at 12 bits per
	// coefficient.
	PolySize = 12 * N / 8

	// MessageSize is the length of a message carried by one polynomial.
	MessageSize = N / 8

	// MaxEta is the largest supported centered binomial parameter.
	MaxEta = 3

	halfQ             = (Q - 1) / 2
	barrettMultiplier = 5039 // floor(2^24 / q)
	barrettShift      = 24
	inverseDegree     = 3303 // 128^-1 mod q
)

// CompressedSize returns the length of a polynomial compressed to d bits per
// coefficient.
func CompressedSize(d int) int {
	return d * N / 8
}
