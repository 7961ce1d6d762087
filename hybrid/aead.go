// aead.go - ChaCha20-Poly1305 and XChaCha20-Poly1305.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package hybrid

import (
	"encoding/binary"

	"golang.org/x/crypto/poly1305"

	"gitlab.com/yawning/kyber.git/chacha20"
)

const (
	tagSize = poly1305.TagSize

	// The payload keystream starts at block 1, so 2^32 - 1 blocks remain.
	maxPlaintextSize = (1<<32 - 1) * chacha20.BlockSize
)

// The RFC 8439 AEAD construction, keyed with the first 32 bytes of block 0
// of the keystream.  A 24 byte nonce selects the XChaCha20 variant.
func newAEAD(key, nonce []byte) (*chacha20.Cipher, *poly1305.MAC, error) {
	c, err := chacha20.NewCipher(key, nonce)
	if err != nil {
		return nil, nil, err
	}

	var polyKey [32]byte
	c.KeyStream(polyKey[:])
	c.SetCounter(1)
	mac := poly1305.New(&polyKey)
	clear(polyKey[:])

	return c, mac, nil
}

func authenticate(mac *poly1305.MAC, aad, ciphertext []byte) {
	var pad [16]byte

	_, _ = mac.Write(aad)
	if r := len(aad) % 16; r != 0 {
		_, _ = mac.Write(pad[:16-r])
	}
	_, _ = mac.Write(ciphertext)
	if r := len(ciphertext) % 16; r != 0 {
		_, _ = mac.Write(pad[:16-r])
	}

	var lengths [16]byte
	binary.LittleEndian.PutUint64(lengths[0:], uint64(len(aad)))
	binary.LittleEndian.PutUint64(lengths[8:], uint64(len(ciphertext)))
	_, _ = mac.Write(lengths[:])
}

// seal returns the encryption of plaintext followed by the tag over aad and
// the ciphertext.
func seal(key, nonce, plaintext, aad []byte) ([]byte, error) {
	if uint64(len(plaintext)) > maxPlaintextSize {
		return nil, ErrMessageTooLarge
	}

	c, mac, err := newAEAD(key, nonce)
	if err != nil {
		return nil, err
	}
	defer c.Reset()

	out := make([]byte, len(plaintext), len(plaintext)+tagSize)
	c.XORKeyStream(out, plaintext)
	authenticate(mac, aad, out)
	return mac.Sum(out), nil
}

// open authenticates and decrypts the output of seal.
func open(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	if len(ciphertext) < tagSize {
		return nil, ErrInvalidCiphertextLength
	}
	if uint64(len(ciphertext)-tagSize) > maxPlaintextSize {
		return nil, ErrDecryptionFailure
	}

	c, mac, err := newAEAD(key, nonce)
	if err != nil {
		return nil, err
	}
	defer c.Reset()

	body, tag := ciphertext[:len(ciphertext)-tagSize], ciphertext[len(ciphertext)-tagSize:]
	authenticate(mac, aad, body)
	if !mac.Verify(tag) {
		return nil, ErrDecryptionFailure
	}

	out := make([]byte, len(body))
	c.XORKeyStream(out, body)
	return out, nil
}
