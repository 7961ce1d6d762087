// group.go - Group secrets and group messaging.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package hybrid

import (
	"bytes"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/crypto/sha3"

	"gitlab.com/yawning/kyber.git/chacha20"
)

const (
	// ChatIDSize is the length of a chat id.
	ChatIDSize = 32

	// GroupSecretSize is the length of a group secret.
	GroupSecretSize = 32

	chatIDDomain = "kyber-hybrid v1 chat id"
)

// ChatID identifies a chat by the set of its members' public keys.
type ChatID [ChatIDSize]byte

// String returns the hexadecimal chat id.
func (id ChatID) String() string {
	return hex.EncodeToString(id[:])
}

// short is a log friendly prefix of the chat id.
func (id ChatID) short() string {
	return hex.EncodeToString(id[:4])
}

// ChatSecret is the secret of a chat.  The engine hands out copies of its
// cached entries, which the caller owns and should Reset when done.
type ChatSecret struct {
	ChatID       ChatID
	SharedSecret []byte

	// Participants are the members' serialized public keys in canonical
	// order.
	Participants [][]byte

	Timestamp time.Time
}

// Reset zeros the shared secret.
func (cs *ChatSecret) Reset() {
	clear(cs.SharedSecret)
}

func (cs *ChatSecret) clone() *ChatSecret {
	members := make([][]byte, len(cs.Participants))
	for i, m := range cs.Participants {
		members[i] = bytes.Clone(m)
	}
	return &ChatSecret{
		ChatID:       cs.ChatID,
		SharedSecret: bytes.Clone(cs.SharedSecret),
		Participants: members,
		Timestamp:    cs.Timestamp,
	}
}

// canonicalize validates, sorts and de-duplicates the participant keys and
// computes the chat id.
func canonicalize(participants [][]byte) ([][]byte, ChatID, error) {
	var id ChatID
	if len(participants) == 0 {
		return nil, id, ErrNoParticipants
	}

	members := make([][]byte, 0, len(participants))
	for i, p := range participants {
		if _, err := parsePublicKey(p); err != nil {
			return nil, id, fmt.Errorf("hybrid: participant %d: %w", i, err)
		}
		members = append(members, bytes.Clone(p))
	}
	slices.SortFunc(members, bytes.Compare)
	members = slices.CompactFunc(members, bytes.Equal)

	// Keys have a fixed size, so the concatenation is unambiguous.
	h := sha3.New256()
	_, _ = h.Write([]byte(chatIDDomain))
	_ = binary.Write(h, binary.BigEndian, uint32(len(members)))
	for _, m := range members {
		_, _ = h.Write(m)
	}
	h.Sum(id[:0])

	return members, id, nil
}

// ComputeChatID returns the chat id of the membership.  The order of
// participants and any duplicates do not matter.
func ComputeChatID(participants [][]byte) (ChatID, error) {
	_, id, err := canonicalize(participants)
	return id, err
}

// DeriveGroupSecret returns the secret of the chat formed by participants,
// creating and caching a fresh random secret on first use.  Repeated and
// concurrent calls for the same membership, in any order, return the same
// secret.
//
// The secret is random, so only this engine knows it until it is sent with
// SealGroupSecret.  Every other member must ImportGroupSecret instead of
// deriving: a member that derives first caches a secret of its own, and a
// later import then fails with ErrChatSecretConflict.
func (e *Engine) DeriveGroupSecret(participants [][]byte) (*ChatSecret, error) {
	members, id, err := canonicalize(participants)
	if err != nil {
		return nil, err
	}
	if cs, ok := e.cache.Get(id); ok {
		return cs.clone(), nil
	}

	v, err, _ := e.flight.Do(id.String(), func() (any, error) {
		if cs, ok := e.cache.Get(id); ok {
			return cs, nil
		}

		secret := make([]byte, GroupSecretSize)
		if err := e.readRandom(secret); err != nil {
			return nil, err
		}
		cs, stored := e.cache.SetIfAbsent(id, &ChatSecret{
			ChatID:       id,
			SharedSecret: secret,
			Participants: members,
			Timestamp:    e.timestamp(),
		})
		if !stored {
			clear(secret)
		}
		e.log.Debug("group secret derived",
			slog.String("chat_id", id.short()),
			slog.Int("participants", len(members)),
			slog.Bool("created", stored),
		)
		return cs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ChatSecret).clone(), nil
}

// SealGroupSecret encrypts the chat secret to every participant, returning
// one package per entry of cs.Participants.
func (e *Engine) SealGroupSecret(cs *ChatSecret) ([]*Package, error) {
	if len(cs.SharedSecret) != GroupSecretSize {
		return nil, ErrInvalidKeyLength
	}

	payload := make([]byte, 0, ChatIDSize+GroupSecretSize)
	payload = append(payload, cs.ChatID[:]...)
	payload = append(payload, cs.SharedSecret...)
	defer clear(payload)

	pkgs := make([]*Package, 0, len(cs.Participants))
	for i, p := range cs.Participants {
		pk, err := parsePublicKey(p)
		if err != nil {
			return nil, fmt.Errorf("hybrid: participant %d: %w", i, err)
		}
		pkg, err := e.encryptMessage(payload, pk)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}

	e.log.Debug("group secret sealed",
		slog.String("chat_id", cs.ChatID.short()),
		slog.Int("participants", len(pkgs)),
	)
	return pkgs, nil
}

// ImportGroupSecret decrypts a package from SealGroupSecret and caches the
// chat secret.  The package must have been sealed for exactly the given
// membership, which must include the holder of secretKey.
func (e *Engine) ImportGroupSecret(pkg *Package, secretKey []byte, participants [][]byte) (*ChatSecret, error) {
	members, id, err := canonicalize(participants)
	if err != nil {
		return nil, err
	}
	if err = pkg.validate(); err != nil {
		return nil, err
	}
	sk, err := parsePrivateKey(secretKey)
	if err != nil {
		return nil, err
	}
	defer sk.Reset()

	self := marshalPublicKey(sk.Public())
	if !slices.ContainsFunc(members, func(m []byte) bool {
		return subtle.ConstantTimeCompare(m, self) == 1
	}) {
		return nil, ErrChatMismatch
	}

	payload, err := decryptMessage(pkg, sk)
	if err != nil {
		return nil, err
	}
	defer clear(payload)
	if len(payload) != ChatIDSize+GroupSecretSize {
		return nil, ErrDecryptionFailure
	}
	if subtle.ConstantTimeCompare(payload[:ChatIDSize], id[:]) != 1 {
		return nil, ErrChatMismatch
	}

	cs := &ChatSecret{
		ChatID:       id,
		SharedSecret: bytes.Clone(payload[ChatIDSize:]),
		Participants: members,
		Timestamp:    pkg.Timestamp,
	}
	actual, stored := e.cache.SetIfAbsent(id, cs)
	if !stored {
		same := subtle.ConstantTimeCompare(actual.SharedSecret, cs.SharedSecret) == 1
		cs.Reset()
		if !same {
			return nil, ErrChatSecretConflict
		}
	}

	e.log.Debug("group secret imported",
		slog.String("chat_id", id.short()),
		slog.Int("participants", len(members)),
		slog.Bool("created", stored),
	)
	return actual.clone(), nil
}

// EncryptGroupMessage encrypts plaintext under the cached secret of a chat.
func (e *Engine) EncryptGroupMessage(chatID ChatID, plaintext []byte) (*Package, error) {
	cs, ok := e.cache.Get(chatID)
	if !ok {
		return nil, ErrUnknownChat
	}
	if uint64(len(plaintext)) > maxPlaintextSize {
		return nil, ErrMessageTooLarge
	}

	pkg := &Package{
		Algorithm: AlgGroupXChaCha20Poly1305,
		Timestamp: e.timestamp(),
		ChatID:    chatID,
		Nonce:     make([]byte, chacha20.XNonceSize),
	}
	if err := e.readRandom(pkg.Nonce); err != nil {
		return nil, err
	}

	key, err := deriveKey(cs.SharedSecret, chatID[:], groupKDFLabel, pkg.Algorithm)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	if pkg.Ciphertext, err = seal(key, pkg.Nonce, plaintext, pkg.header()); err != nil {
		return nil, err
	}
	return pkg, nil
}

// DecryptGroupMessage decrypts a package produced by EncryptGroupMessage.
func (e *Engine) DecryptGroupMessage(pkg *Package) ([]byte, error) {
	if err := pkg.validate(); err != nil {
		return nil, err
	}
	if pkg.Algorithm != AlgGroupXChaCha20Poly1305 {
		return nil, fmt.Errorf("%w: %v is not a group algorithm", ErrUnsupportedAlgorithm, pkg.Algorithm)
	}
	cs, ok := e.cache.Get(pkg.ChatID)
	if !ok {
		return nil, ErrUnknownChat
	}

	key, err := deriveKey(cs.SharedSecret, pkg.ChatID[:], groupKDFLabel, pkg.Algorithm)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	return open(key, pkg.Nonce, pkg.Ciphertext, pkg.header())
}
