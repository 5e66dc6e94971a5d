package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal access, replaced in tests.
var (
	stdinFd      = func() int { return int(os.Stdin.Fd()) }
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

// ReadLine shows prompt on w and returns the next trimmed line from reader.
// Text before a final EOF still counts as a line.
func ReadLine(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintf(w, "%s\n> ", prompt); err != nil {
		return "", err
	}

	line, err := reader.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && line != "":
	default:
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadSecret asks for a password. On a terminal the input is not echoed;
// otherwise (piped stdin) a plain line is read from reader.
func ReadSecret(reader *bufio.Reader, w io.Writer) (string, error) {
	fd := stdinFd()
	if !isTerminal(fd) {
		return ReadLine(reader, "Password", w)
	}

	if _, err := io.WriteString(w, "Password: "); err != nil {
		return "", err
	}
	raw, err := readPassword(fd)
	_, _ = io.WriteString(w, "\n")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}
