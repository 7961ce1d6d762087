// params.go - Kyber parameters.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package kyber

import "gitlab.com/yawning/kyber.git/internal/ring"

const (
	paramK    = 4
	paramEta1 = 2
	paramEta2 = 2
	paramDu   = 11
	paramDv   = 5
	symSize   = 32

	vectorSize = paramK * ring.PolySize
	uSize      = paramK * paramDu * ring.N / 8
	vSize      = paramDv * ring.N / 8
)

const (
	// SeedSize is the length of the seed consumed by NewKeyFromSeed.
	SeedSize = 2 * symSize

	// EncapsulationSeedSize is the amount of entropy read by Encapsulate.
	EncapsulationSeedSize = symSize

	// PublicKeySize is the length of a serialized public key in bytes.
	PublicKeySize = vectorSize + symSize

	// PrivateKeySize is the length of a serialized private key in bytes.
	PrivateKeySize = vectorSize + PublicKeySize + 2*symSize

	// CiphertextSize is the length of a ciphertext in bytes.
	CiphertextSize = uSize + vSize

	// SharedSecretSize is the length of a shared secret in bytes.
	SharedSecretSize = symSize
)
