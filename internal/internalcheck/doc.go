// doc.go - Static policy checks.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

// Package internalcheck holds tests that load the library packages with
// go/packages and reject constructs that are easy to get wrong in
// cryptographic code: variable time comparison of byte strings, hex
// formatting that tends to end up printing secrets, and ambient randomness.
package internalcheck

// Packages are the library packages subject to the checks.
var Packages = []string{
	"gitlab.com/yawning/kyber.git",
	"gitlab.com/yawning/kyber.git/chacha20",
	"gitlab.com/yawning/kyber.git/hybrid",
	"gitlab.com/yawning/kyber.git/internal/ring",
}
