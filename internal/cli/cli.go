// Package cli dispatches the brandsite subcommands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"brandsite/internal/adapter/postgres"
)

// Env is the process surroundings a command runs in.
type Env struct {
	Getenv func(string) string
	Stdin  *os.File
	Stdout io.Writer
	Stderr io.Writer
}

// OSEnv returns an Env bound to the real process.
func OSEnv() Env {
	return Env{Getenv: os.Getenv, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

var openDB = postgres.Open

// Run parses argv (without the program name) and invokes the matching
// subcommand. No subcommand, or a leading flag, means serve.
func Run(ctx context.Context, args []string, env Env) error {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return serve(ctx, args, env)
	}

	switch args[0] {
	case "serve":
		return serve(ctx, args[1:], env)
	case "set-password":
		return setPassword(ctx, args[1:], env)
	case "help", "-h", "--help":
		usage(env.Stderr)
		return nil
	default:
		usage(env.Stderr)
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "brandsite [serve|set-password] [flags]")
}
