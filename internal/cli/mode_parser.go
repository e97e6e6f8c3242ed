package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

const (
	ModeMatcher = "rides-matcher"
	ModeDBCheck = "db-check"
)

// isKnownMode checks if the provided mode name is known.
func isKnownMode(s string) (string, bool) {
	switch s {
	case ModeMatcher, "matcher", "m":
		return ModeMatcher, true
	case ModeDBCheck, "check":
		return ModeDBCheck, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `rides-matcher --config=config/config.yaml`
//
// With no mode at all the worker mode is assumed.
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var out []string

	for _, arg := range args {
		if after, ok := strings.CutPrefix(arg, "--mode="); ok {
			mode = after
			continue
		}

		if mode == "" {
			if m, ok := isKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return ModeMatcher, out, nil
	}

	m, ok := isKnownMode(mode)
	if !ok {
		return "", out, fmt.Errorf("unknown mode %q", mode)
	}
	return m, out, nil
}

// ErrHelp is returned by ParseFlags when -h/--help was requested.
var ErrHelp = pflag.ErrHelp

// Options are the flags shared by every mode.
type Options struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
}

// ParseFlags parses args for mode.
func ParseFlags(mode string, args []string, output io.Writer) (Options, error) {
	var opts Options

	fs := pflag.NewFlagSet(mode, pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVarP(&opts.ConfigPath, "config", "c", "config/config.yaml", "Path to the YAML config file (optional)")
	fs.StringVar(&opts.EnvFile, "env-file", ".env", "Path to a .env file loaded before the environment (optional)")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
	AttachUsage(fs, mode)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return opts, ErrHelp
		}
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	return opts, nil
}

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, "\033[36m") // cyan

	fmt.Fprintln(w, `Usage:
  ./rides-matcher [--mode=<mode>] [flags]

Modes:
  rides-matcher     Consume ride requests, look up candidate rides and publish matches (default)
  db-check          Verify database connectivity and exit

Flags:
  -c, --config      Path to the YAML config file (default config/config.yaml)
      --env-file    Path to a .env file (default .env)
      --log-level   Override the configured log level

Examples:
  ./rides-matcher --config=config/config.yaml
  ./rides-matcher --mode=db-check --env-file=.env.local
  QUEUE_REQUEST=rides.request QUEUE_NOTIFICATIONS=notifications ./rides-matcher --log-level=debug`)

	fmt.Fprint(w, "\033[0m") // reset
}

// AttachUsage wires a concise per-mode usage to a FlagSet.
func AttachUsage(fs *pflag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ./rides-matcher --mode=%s [flags]\n", mode)
		fs.PrintDefaults()
	}
}
