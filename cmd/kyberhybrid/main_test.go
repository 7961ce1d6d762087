// main_test.go - kyberhybrid command tests.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCmd(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	alice := filepath.Join(dir, "alice")

	if code, _, stderr := runCmd(t, "", "keygen", "-out", alice); code != 0 {
		t.Fatalf("keygen failed (%d): %s", code, stderr)
	}
	if fi, err := os.Stat(alice + ".key"); err != nil || fi.Mode().Perm() != 0o600 {
		t.Fatalf("secret key file: %v", err)
	}

	msg := "a message for alice\n"
	code, pkg, stderr := runCmd(t, msg, "encrypt", "-pub", alice+".pub")
	if code != 0 {
		t.Fatalf("encrypt failed (%d): %s", code, stderr)
	}

	code, got, stderr := runCmd(t, pkg, "decrypt", "-key", alice+".key")
	if code != 0 {
		t.Fatalf("decrypt failed (%d): %s", code, stderr)
	}
	if got != msg {
		t.Fatalf("decrypt = %q, want %q", got, msg)
	}

	// Through files.
	in, out, back := filepath.Join(dir, "in"), filepath.Join(dir, "pkg"), filepath.Join(dir, "out")
	if err := os.WriteFile(in, []byte(msg), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if code, _, stderr = runCmd(t, "", "encrypt", "-pub", alice+".pub", "-in", in, "-out", out); code != 0 {
		t.Fatalf("encrypt failed (%d): %s", code, stderr)
	}
	if code, _, stderr = runCmd(t, "", "decrypt", "-key", alice+".key", "-in", out, "-out", back); code != 0 {
		t.Fatalf("decrypt failed (%d): %s", code, stderr)
	}
	if b, _ := os.ReadFile(back); string(b) != msg {
		t.Fatalf("decrypted file = %q", b)
	}

	// Someone else's key.
	bob := filepath.Join(dir, "bob")
	if code, _, stderr = runCmd(t, "", "keygen", "-out", bob); code != 0 {
		t.Fatalf("keygen failed (%d): %s", code, stderr)
	}
	if code, _, stderr = runCmd(t, pkg, "decrypt", "-key", bob+".key"); code != 1 || !strings.Contains(stderr, "decryption failure") {
		t.Fatalf("decrypt with the wrong key (%d): %s", code, stderr)
	}
}

func TestChatID(t *testing.T) {
	dir := t.TempDir()
	var keys []string
	for _, name := range []string{"a", "b", "c"} {
		prefix := filepath.Join(dir, name)
		if code, _, stderr := runCmd(t, "", "keygen", "-out", prefix); code != 0 {
			t.Fatalf("keygen failed (%d): %s", code, stderr)
		}
		keys = append(keys, prefix+".pub")
	}

	code, id1, stderr := runCmd(t, "", "chatid", keys[0], keys[1], keys[2])
	if code != 0 {
		t.Fatalf("chatid failed (%d): %s", code, stderr)
	}
	_, id2, _ := runCmd(t, "", "chatid", keys[2], keys[0], keys[1])
	if id1 != id2 || len(strings.TrimSpace(id1)) != 64 {
		t.Fatalf("chat ids %q and %q", id1, id2)
	}

	if code, _, _ = runCmd(t, "", "chatid"); code != 1 {
		t.Fatalf("chatid without members exited %d", code)
	}
}

func TestUsageErrors(t *testing.T) {
	for _, args := range [][]string{
		nil,
		{"frobnicate"},
		{"-log-format", "xml", "params"},
		{"-log-level", "loud", "params"},
		{"-no-such-flag"},
	} {
		if code, _, _ := runCmd(t, "", args...); code != 2 {
			t.Fatalf("run(%q) exited %d, want 2", args, code)
		}
	}
	for _, args := range [][]string{
		{"keygen"},
		{"encrypt"},
		{"decrypt"},
		{"encrypt", "-pub", filepath.Join(t.TempDir(), "missing.pub")},
	} {
		if code, _, _ := runCmd(t, "", args...); code != 1 {
			t.Fatalf("run(%q) exited %d, want 1", args, code)
		}
	}
}

func TestParams(t *testing.T) {
	code, out, _ := runCmd(t, "", "params")
	if code != 0 || !strings.Contains(out, "1569 bytes") || !strings.Contains(out, "kyber1024-chacha20poly1305") {
		t.Fatalf("params (%d): %s", code, out)
	}
}

func TestEnvConfig(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, "test.env")
	if err := os.WriteFile(env, []byte(envLogLevel+"=debug\n"+envLogFormat+"=json\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Setenv(envLogLevel, "")
	t.Setenv(envLogFormat, "")

	for _, flags := range [][]string{
		{"-env", env},
		{"--env", env},
		{"-env=" + env},
		{"--env=" + env},
	} {
		// godotenv does not override variables that are already set.
		os.Unsetenv(envLogLevel)
		os.Unsetenv(envLogFormat)

		args := append(flags, "keygen", "-out", filepath.Join(dir, "k"))
		code, _, stderr := runCmd(t, "", args...)
		if code != 0 {
			t.Fatalf("%v: keygen failed (%d): %s", flags, code, stderr)
		}
		if !strings.Contains(stderr, `"msg":"key pair written"`) {
			t.Fatalf("%v: dotenv settings were not applied: %q", flags, stderr)
		}
	}
}

func TestEnvFileArg(t *testing.T) {
	for _, v := range []struct {
		args  []string
		path  string
		found bool
	}{
		{[]string{"params"}, "", false},
		{[]string{"-env", "a"}, "a", true},
		{[]string{"--env", "a", "params"}, "a", true},
		{[]string{"--env=a", "-env=b", "params"}, "b", true},
		{[]string{"-log-level", "debug", "-env", "a", "params"}, "a", true},
		{[]string{"--log-level=debug", "--env=a"}, "a", true},
		{[]string{"params", "-env", "a"}, "", false},
		{[]string{"-log-level", "debug", "keygen", "-env=a"}, "", false},
		{[]string{"--", "-env", "a"}, "", false},
		{[]string{"-env"}, "", false},
	} {
		path, found := envFileArg(v.args)
		if path != v.path || found != v.found {
			t.Fatalf("envFileArg(%q) = %q, %v, want %q, %v", v.args, path, found, v.path, v.found)
		}
	}
}
