// main.go - kyberhybrid command.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

// Command kyberhybrid generates Kyber1024 key pairs and encrypts and
// decrypts hybrid packages.  Keys and packages are exchanged as unpadded
// base64url text.
//
// Usage:
//
//	kyberhybrid [-env file] [-log-level level] [-log-format text|json] <command> ...
//
// Defaults for the flags are read from KYBERHYBRID_LOG_LEVEL and
// KYBERHYBRID_LOG_FORMAT, optionally set in a dotenv file.
package main

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gitlab.com/yawning/kyber.git"
	"gitlab.com/yawning/kyber.git/hybrid"
)

var encoding = base64.RawURLEncoding

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is the actual entry point, returning an exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, rest, err := parseGlobalFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if len(rest) == 0 {
		fmt.Fprintln(stderr, "Error: missing command")
		return 2
	}

	logger, err := cfg.newLogger(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	engine, err := hybrid.New(rand.Reader, nil, hybrid.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	c := &command{
		engine: engine,
		log:    logger,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	var fn func([]string) error
	switch rest[0] {
	case "keygen":
		fn = c.keygen
	case "encrypt":
		fn = c.encrypt
	case "decrypt":
		fn = c.decrypt
	case "chatid":
		fn = c.chatID
	case "params":
		fn = c.params
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n", rest[0])
		return 2
	}

	if err = fn(rest[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %s: %v\n", rest[0], err)
		return 1
	}
	return 0
}

type command struct {
	engine *hybrid.Engine
	log    *slog.Logger

	stdin          io.Reader
	stdout, stderr io.Writer
}

func (c *command) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *command) keygen(args []string) error {
	fs := c.flagSet("keygen")
	out := fs.String("out", "", "output path prefix")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("-out is required")
	}

	kp, err := c.engine.GenerateKeyPair()
	if err != nil {
		return err
	}
	defer kp.Reset()

	if err = writeEncoded(*out+".pub", kp.PublicKey, 0o644); err != nil {
		return err
	}
	if err = writeEncoded(*out+".key", kp.SecretKey, 0o600); err != nil {
		return err
	}
	c.log.Info("key pair written", slog.String("public", *out+".pub"), slog.String("secret", *out+".key"))
	return nil
}

func (c *command) encrypt(args []string) error {
	fs := c.flagSet("encrypt")
	pubFile := fs.String("pub", "", "recipient public key file")
	in := fs.String("in", "", "plaintext file (default stdin)")
	out := fs.String("out", "", "package file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pubFile == "" {
		return errors.New("-pub is required")
	}

	pub, err := readEncoded(*pubFile)
	if err != nil {
		return err
	}
	plaintext, err := c.readInput(*in)
	if err != nil {
		return err
	}

	pkg, err := c.engine.EncryptMessage(plaintext, pub)
	if err != nil {
		return err
	}
	b, err := pkg.MarshalBinary()
	if err != nil {
		return err
	}
	return c.writeOutput(*out, []byte(encoding.EncodeToString(b)+"\n"))
}

func (c *command) decrypt(args []string) error {
	fs := c.flagSet("decrypt")
	keyFile := fs.String("key", "", "secret key file")
	in := fs.String("in", "", "package file (default stdin)")
	out := fs.String("out", "", "plaintext file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *keyFile == "" {
		return errors.New("-key is required")
	}

	sk, err := readEncoded(*keyFile)
	if err != nil {
		return err
	}
	defer clear(sk)

	text, err := c.readInput(*in)
	if err != nil {
		return err
	}
	b, err := encoding.DecodeString(string(bytes.TrimSpace(text)))
	if err != nil {
		return fmt.Errorf("decode package: %w", err)
	}
	pkg, err := hybrid.ParsePackage(b)
	if err != nil {
		return err
	}

	plaintext, err := c.engine.DecryptMessage(pkg, sk)
	if err != nil {
		return err
	}
	return c.writeOutput(*out, plaintext)
}

func (c *command) chatID(args []string) error {
	fs := c.flagSet("chatid")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var participants [][]byte
	for _, f := range fs.Args() {
		pub, err := readEncoded(f)
		if err != nil {
			return err
		}
		participants = append(participants, pub)
	}
	id, err := hybrid.ComputeChatID(participants)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.stdout, id.String())
	return err
}

func (c *command) params(args []string) error {
	fs := c.flagSet("params")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, err := fmt.Fprintf(c.stdout, `algorithm        %v (tag %d)
group algorithm  %v (tag %d)
public key       %d bytes
secret key       %d bytes
kem ciphertext   %d bytes
shared secret    %d bytes
`,
		hybrid.AlgKyber1024ChaCha20Poly1305, byte(hybrid.AlgKyber1024ChaCha20Poly1305),
		hybrid.AlgGroupXChaCha20Poly1305, byte(hybrid.AlgGroupXChaCha20Poly1305),
		hybrid.PublicKeySize, hybrid.SecretKeySize, kyber.CiphertextSize, kyber.SharedSecretSize)
	return err
}

func (c *command) readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(c.stdin)
	}
	return os.ReadFile(path)
}

func (c *command) writeOutput(path string, b []byte) error {
	if path == "" {
		_, err := c.stdout.Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func readEncoded(path string) ([]byte, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b, err := encoding.DecodeString(string(bytes.TrimSpace(text)))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return b, nil
}

func writeEncoded(path string, b []byte, perm os.FileMode) error {
	return os.WriteFile(path, []byte(encoding.EncodeToString(b)+"\n"), perm)
}
