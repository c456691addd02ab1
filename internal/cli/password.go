package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	"brandsite/internal/app"
	"brandsite/internal/config"
)

// setPassword overwrites the stored admin credential. It is the operator
// recovery path when the reset email cannot be delivered.
func setPassword(ctx context.Context, args []string, env Env) error {
	fs := flag.NewFlagSet("set-password", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	passwordEnv := fs.String("password-env", "", "read the new password from this environment variable")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(nil, env.Getenv)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	var password string
	if *passwordEnv != "" {
		password = env.Getenv(*passwordEnv)
		if password == "" {
			return fmt.Errorf("%s is empty", *passwordEnv)
		}
	} else {
		password, err = promptPassword(env, "New admin password")
		if err != nil {
			return err
		}
	}

	db, err := openDB(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() { _ = db.Close() }()

	auth := app.NewAuthService(db, app.NewSessions("", 0), app.AuthConfig{})
	if err := auth.SetPassword(ctx, password); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(env.Stdout, "admin password updated")
	return nil
}

// promptPassword reads a password twice without echo when stdin is a
// terminal, otherwise a single line.
func promptPassword(env Env, label string) (string, error) {
	fd := int(env.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(env.Stdin)
	}
	for {
		_, _ = fmt.Fprintf(env.Stderr, "%s: ", label)
		p1, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(env.Stderr)
		if err != nil {
			return "", err
		}
		_, _ = fmt.Fprint(env.Stderr, "Confirm password: ")
		p2, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(env.Stderr)
		if err != nil {
			return "", err
		}
		if len(p1) == 0 {
			_, _ = fmt.Fprintln(env.Stderr, "password cannot be empty")
			continue
		}
		if string(p1) != string(p2) {
			_, _ = fmt.Fprintln(env.Stderr, "passwords do not match")
			continue
		}
		return string(p1), nil
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("no password provided on stdin")
	}
	return line, nil
}
