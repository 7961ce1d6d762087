// errors.go - Hybrid engine errors.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package hybrid

import (
	"errors"

	"gitlab.com/yawning/kyber.git"
)

var (
	// ErrInvalidKeyLength is returned when a serialized key has the wrong
	// length.
	ErrInvalidKeyLength = kyber.ErrInvalidKeyLength

	// ErrInvalidCiphertextLength is returned when a package or one of its
	// fields has the wrong length.
	ErrInvalidCiphertextLength = kyber.ErrInvalidCiphertextLength

	// ErrRandomnessExhausted is returned when the entropy source fails.  It
	// wraps the reader's error.
	ErrRandomnessExhausted = kyber.ErrRandomnessExhausted

	// ErrDecryptionFailure is returned when a well formed package fails to
	// authenticate.  A wrong key and a modified package are deliberately
	// indistinguishable.
	ErrDecryptionFailure = errors.New("hybrid: decryption failure")

	// ErrUnsupportedAlgorithm is returned for an unknown or unexpected
	// algorithm tag.
	ErrUnsupportedAlgorithm = errors.New("hybrid: unsupported algorithm tag")

	// ErrUnknownChat is returned when no group secret is cached for a chat.
	ErrUnknownChat = errors.New("hybrid: unknown chat")

	// ErrChatMismatch is returned when an imported group secret was sealed
	// for a different membership, or to a key outside the membership.
	ErrChatMismatch = errors.New("hybrid: chat membership mismatch")

	// ErrChatSecretConflict is returned when an imported group secret
	// differs from the one already cached for the chat.
	ErrChatSecretConflict = errors.New("hybrid: conflicting chat secret")

	// ErrNoParticipants is returned when deriving a group secret for an
	// empty membership.
	ErrNoParticipants = errors.New("hybrid: no participants")

	// ErrMessageTooLarge is returned when a plaintext exceeds the cipher's
	// keystream.
	ErrMessageTooLarge = errors.New("hybrid: message too large")

	// ErrNilEntropySource is returned by New when no entropy source is
	// provided.
	ErrNilEntropySource = errors.New("hybrid: nil entropy source")
)
