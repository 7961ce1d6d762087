// chacha20.go - A ChaCha stream cipher implementation.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

// Package chacha20 implements the ChaCha20 stream cipher with the RFC 8439
// 96 bit nonce and 32 bit block counter, and the XChaCha20 variant with a
// 192 bit nonce.
//
// A (key, nonce) pair MUST NOT be used to encrypt more than one message.
// Doing so reveals the XOR of the plaintexts.  The cipher does not and
// cannot detect reuse; callers that cannot guarantee unique nonces should
// use XNonceSize nonces drawn from a cryptographic random source.
package chacha20

import (
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"math/bits"
)

const (
	// KeySize is the ChaCha20 key size in bytes.
	KeySize = 32

	// NonceSize is the ChaCha20 nonce size in bytes.
	NonceSize = 12

	// XNonceSize is the XChaCha20 nonce size in bytes.
	XNonceSize = 24

	// HNonceSize is the HChaCha20 nonce size in bytes.
	HNonceSize = 16

	// BlockSize is the ChaCha20 block size in bytes.
	BlockSize = 64

	stateSize    = 16 - 4
	chachaRounds = 20

	// The constant "expand 32-byte k" as little endian uint32s.
	sigma0 = uint32(0x61707865)
	sigma1 = uint32(0x3320646e)
	sigma2 = uint32(0x79622d32)
	sigma3 = uint32(0x6b206574)
)

var (
	// ErrInvalidKey is the error returned when the key is invalid.
	ErrInvalidKey = errors.New("chacha20: key length must be KeySize bytes")

	// ErrInvalidNonce is the error returned when the nonce is invalid.
	ErrInvalidNonce = errors.New("chacha20: nonce length must be NonceSize/XNonceSize bytes")
)

// A Cipher is an instance of ChaCha20/XChaCha20 using a particular key and
// nonce.
type Cipher struct {
	// key (8 words), block counter, nonce (3 words)
	state [stateSize]uint32

	buf [BlockSize]byte
	off int

	// wrapped is set once the block for counter 2^32 - 1 was generated.
	wrapped bool
}

// Reset zeros the key data so that it will no longer appear in the process's
// memory.
func (c *Cipher) Reset() {
	clear(c.state[:])
	clear(c.buf[:])
	c.off = BlockSize
	c.wrapped = false
}

// SetCounter sets the block counter, discarding any buffered keystream.
func (c *Cipher) SetCounter(counter uint32) {
	c.state[8] = counter
	c.off = BlockSize
	c.wrapped = false
}

// XORKeyStream sets dst to the result of XORing src with the key stream.  Dst
// and src may be the same slice but otherwise should not overlap.  It panics
// if the block counter would wrap.
func (c *Cipher) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("chacha20: output smaller than input")
	}

	for len(src) > 0 {
		if c.off < BlockSize {
			n := min(BlockSize-c.off, len(src))
			for i, v := range src[:n] {
				dst[i] = v ^ c.buf[c.off+i]
			}
			c.off += n
			dst, src = dst[n:], src[n:]
			continue
		}

		// Whole blocks bypass the buffer.
		if n := len(src) / BlockSize; n > 0 {
			c.blocks(src, dst, n)
			n *= BlockSize
			dst, src = dst[n:], src[n:]
			continue
		}

		c.blocks(nil, c.buf[:], 1)
		c.off = 0
	}
}

// KeyStream sets dst to the raw keystream.
func (c *Cipher) KeyStream(dst []byte) {
	clear(dst)
	c.XORKeyStream(dst, dst)
}

// ReKey reinitializes the ChaCha20/XChaCha20 instance with the provided key
// and nonce, and a block counter of 0.
func (c *Cipher) ReKey(key, nonce []byte) error {
	if len(key) != KeySize {
		return ErrInvalidKey
	}

	var subNonce [NonceSize]byte
	switch len(nonce) {
	case NonceSize:
		copy(subNonce[:], nonce)
	case XNonceSize:
		var subKey [KeySize]byte
		var hNonce [HNonceSize]byte
		copy(hNonce[:], nonce[0:16])
		HChaCha(key, &hNonce, &subKey)
		defer clear(subKey[:])
		key = subKey[:]
		copy(subNonce[4:], nonce[16:24])
	default:
		return ErrInvalidNonce
	}

	c.Reset()
	for i := 0; i < 8; i++ {
		c.state[i] = binary.LittleEndian.Uint32(key[4*i:])
	}
	c.state[8] = 0
	c.state[9] = binary.LittleEndian.Uint32(subNonce[0:4])
	c.state[10] = binary.LittleEndian.Uint32(subNonce[4:8])
	c.state[11] = binary.LittleEndian.Uint32(subNonce[8:12])
	return nil
}

// NewCipher returns a new ChaCha20/XChaCha20 instance.  The nonce length
// selects the variant.
func NewCipher(key, nonce []byte) (*Cipher, error) {
	c := new(Cipher)
	if err := c.ReKey(key, nonce); err != nil {
		return nil, err
	}
	return c, nil
}

// Encrypt returns plaintext XORed with the keystream for key and nonce,
// starting at block 0.
func Encrypt(plaintext, key, nonce []byte) ([]byte, error) {
	c, err := NewCipher(key, nonce)
	if err != nil {
		return nil, err
	}
	defer c.Reset()

	out := make([]byte, len(plaintext))
	c.XORKeyStream(out, plaintext)
	return out, nil
}

// Decrypt is Encrypt.  The cipher is an involution.
func Decrypt(ciphertext, key, nonce []byte) ([]byte, error) {
	return Encrypt(ciphertext, key, nonce)
}

// QuarterRound is the ChaCha quarter round function.
func QuarterRound(a, b, c, d uint32) (uint32, uint32, uint32, uint32) {
	a += b
	d = bits.RotateLeft32(d^a, 16)
	c += d
	b = bits.RotateLeft32(b^c, 12)
	a += b
	d = bits.RotateLeft32(d^a, 8)
	c += d
	b = bits.RotateLeft32(b^c, 7)
	return a, b, c, d
}

// permute applies the 20 round ChaCha permutation to x in place.
func permute(x *[16]uint32) {
	for i := chachaRounds; i > 0; i -= 2 {
		x[0], x[4], x[8], x[12] = QuarterRound(x[0], x[4], x[8], x[12])
		x[1], x[5], x[9], x[13] = QuarterRound(x[1], x[5], x[9], x[13])
		x[2], x[6], x[10], x[14] = QuarterRound(x[2], x[6], x[10], x[14])
		x[3], x[7], x[11], x[15] = QuarterRound(x[3], x[7], x[11], x[15])

		x[0], x[5], x[10], x[15] = QuarterRound(x[0], x[5], x[10], x[15])
		x[1], x[6], x[11], x[12] = QuarterRound(x[1], x[6], x[11], x[12])
		x[2], x[7], x[8], x[13] = QuarterRound(x[2], x[7], x[8], x[13])
		x[3], x[4], x[9], x[14] = QuarterRound(x[3], x[4], x[9], x[14])
	}
}

// blocks XORs nrBlocks blocks of keystream with in into out, or writes the
// raw keystream if in is nil, advancing the block counter.
func (c *Cipher) blocks(in, out []byte, nrBlocks int) {
	var init, x [16]uint32
	init[0], init[1], init[2], init[3] = sigma0, sigma1, sigma2, sigma3
	defer clear(x[:])

	for n := 0; n < nrBlocks; n++ {
		if c.wrapped {
			panic("chacha20: block counter overflow")
		}
		copy(init[4:], c.state[:])
		x = init
		permute(&x)

		for i := range x {
			v := x[i] + init[i]
			if in != nil {
				v ^= binary.LittleEndian.Uint32(in[4*i:])
			}
			binary.LittleEndian.PutUint32(out[4*i:], v)
		}
		if in != nil {
			in = in[BlockSize:]
		}
		out = out[BlockSize:]

		c.state[8]++
		c.wrapped = c.state[8] == 0
	}
	clear(init[4:])
}

// HChaCha is the HChaCha20 hash function used to make XChaCha.
func HChaCha(key []byte, nonce *[HNonceSize]byte, out *[32]byte) {
	var x [16]uint32
	x[0], x[1], x[2], x[3] = sigma0, sigma1, sigma2, sigma3
	for i := 0; i < 8; i++ {
		x[4+i] = binary.LittleEndian.Uint32(key[4*i:])
	}
	for i := 0; i < 4; i++ {
		x[12+i] = binary.LittleEndian.Uint32(nonce[4*i:])
	}
	permute(&x)

	// HChaCha returns x0...x3 | x12...x15, which corresponds to the
	// indexes of the ChaCha constant and the indexes of the IV.
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(out[4*i:], x[i])
		binary.LittleEndian.PutUint32(out[16+4*i:], x[12+i])
	}
	clear(x[:])
}

var _ cipher.Stream = (*Cipher)(nil)
