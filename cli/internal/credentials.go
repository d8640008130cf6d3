package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/brightsun/solarsite/internal/fortlev"
)

// resolveCredentials layers the partner credentials: current context first,
// then FORTLEV_* environment values, then an interactive password prompt when asked for.
func resolveCredentials(ctx *Context, promptPassword bool, stdin *os.File, out io.Writer) (fortlev.Credentials, error) {
	creds := fortlev.Credentials{}
	if ctx != nil {
		creds.BaseURL = ctx.Fortlev.BaseURL
		creds.Username = ctx.Fortlev.Username
	}

	env := fortlev.CredentialsFromEnv()
	if env.BaseURL != "" {
		creds.BaseURL = env.BaseURL
	}
	if env.Username != "" {
		creds.Username = env.Username
	}
	creds.Password = env.Password

	if creds.Password == "" && promptPassword {
		password, err := promptSecret(stdin, out, fmt.Sprintf("Password for %s: ", orDash(creds.Username)))
		if err != nil {
			return creds, err
		}
		creds.Password = password
	}

	return creds, nil
}

// promptSecret reads a line without echo when stdin is a terminal
func promptSecret(stdin *os.File, out io.Writer, prompt string) (string, error) {
	fd := int(stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("cannot prompt for password: stdin is not a terminal (set %s instead)", fortlev.EnvPassword)
	}

	fmt.Fprint(out, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(out) // newline after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(secret)), nil
}
