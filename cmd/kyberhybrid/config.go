// config.go - Command line configuration.
//
// To the extent possible under law, Yawning Angel has waived all copyright
// and related or neighboring rights to kyber, using the Creative
// Commons "CC0" public domain dedication. See LICENSE or
// <http://creativecommons.org/publicdomain/zero/1.0/> for full details.

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	envLogLevel  = "KYBERHYBRID_LOG_LEVEL"
	envLogFormat = "KYBERHYBRID_LOG_FORMAT"
)

type config struct {
	envFile   string
	logLevel  string
	logFormat string
}

// loadEnv loads variables from an optional dotenv file.  Variables already
// set in the environment win.
func loadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// parseGlobalFlags parses the flags preceding the subcommand, with defaults
// taken from the environment after loading the dotenv file.
func parseGlobalFlags(args []string, stderr io.Writer) (*config, []string, error) {
	cfg := &config{envFile: ".env"}

	// The dotenv path is needed before the other defaults are known.
	if path, ok := envFileArg(args); ok {
		cfg.envFile = path
	}
	if err := loadEnv(cfg.envFile); err != nil {
		return nil, nil, err
	}

	fs := flag.NewFlagSet("kyberhybrid", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr, fs) }
	fs.StringVar(&cfg.envFile, "env", cfg.envFile, "dotenv file with default settings")
	fs.StringVar(&cfg.logLevel, "log-level", envOr(envLogLevel, "warn"), "log level: debug, info, warn, error")
	fs.StringVar(&cfg.logFormat, "log-format", envOr(envLogFormat, "text"), "log format: text, json")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

// envFileArg returns the value of the last -env flag among the global flags.
// Every global flag takes a value, and scanning stops at the subcommand.
func envFileArg(args []string) (string, bool) {
	var (
		path  string
		found bool
	)
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" || len(a) < 2 || a[0] != '-' {
			break
		}
		name, value, ok := strings.Cut(strings.TrimPrefix(a[1:], "-"), "=")
		if !ok {
			if i+1 == len(args) {
				break
			}
			i++
			value = args[i]
		}
		if name == "env" {
			path, found = value, true
		}
	}
	return path, found
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// newLogger builds the logger described by cfg, writing to w.
func (cfg *config) newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", cfg.logLevel)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.logFormat) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.logFormat)
	}
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `Usage: kyberhybrid [flags] <command> [command flags]

Commands:
  keygen   -out <prefix>                   write <prefix>.pub and <prefix>.key
  encrypt  -pub <file> [-in f] [-out f]    encrypt a message to a public key
  decrypt  -key <file> [-in f] [-out f]    decrypt a package with a secret key
  chatid   <public key file>...            print the chat id of a membership
  params   print algorithm parameters

Flags:
`)
	fs.PrintDefaults()
}
