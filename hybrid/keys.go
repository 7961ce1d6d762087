// keys.go - Tagged key serialization.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package hybrid

import (
	"fmt"

	"gitlab.com/yawning/kyber.git"
)

const (
	// PublicKeySize is the length of a serialized public key, tag included.
	PublicKeySize = 1 + kyber.PublicKeySize

	// SecretKeySize is the length of a serialized secret key, tag included.
	SecretKeySize = 1 + kyber.PrivateKeySize
)

// KeyPair is a serialized key pair.  Both halves are prefixed with the
// algorithm tag.  SecretKey must never leave its owner.
type KeyPair struct {
	PublicKey []byte
	SecretKey []byte
}

// Reset zeros the secret key.
func (kp *KeyPair) Reset() {
	clear(kp.SecretKey)
}

func marshalPublicKey(pk *kyber.PublicKey) []byte {
	return append([]byte{byte(AlgKyber1024ChaCha20Poly1305)}, pk.Bytes()...)
}

func marshalPrivateKey(sk *kyber.PrivateKey) []byte {
	b := sk.Bytes()
	defer clear(b)
	return append([]byte{byte(AlgKyber1024ChaCha20Poly1305)}, b...)
}

func checkKeyTag(b []byte, size int) error {
	if len(b) == 0 {
		return ErrInvalidKeyLength
	}
	if Algorithm(b[0]) != AlgKyber1024ChaCha20Poly1305 {
		return fmt.Errorf("%w: key tag %d", ErrUnsupportedAlgorithm, b[0])
	}
	if len(b) != size {
		return ErrInvalidKeyLength
	}
	return nil
}

func parsePublicKey(b []byte) (*kyber.PublicKey, error) {
	if err := checkKeyTag(b, PublicKeySize); err != nil {
		return nil, err
	}
	return kyber.ParsePublicKey(b[1:])
}

func parsePrivateKey(b []byte) (*kyber.PrivateKey, error) {
	if err := checkKeyTag(b, SecretKeySize); err != nil {
		return nil, err
	}
	return kyber.ParsePrivateKey(b[1:])
}
