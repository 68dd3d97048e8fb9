// ABOUTME: Interactive prompts for CLI commands
// ABOUTME: Hidden password input with a plain-stdin fallback for pipes
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// stdin is shared across prompts so piped input is not lost between reads.
var stdin = bufio.NewReader(os.Stdin)

// promptLine reads one trimmed line from stdin.
func promptLine(label string) (string, error) {
	fmt.Print(label)
	line, err := stdin.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo. When stdin is not a
// terminal (tests, pipes) it falls back to a plain line read.
func promptPassword(label string) (string, error) {
	if !term.IsTerminal(syscall.Stdin) {
		return promptLine(label)
	}

	fmt.Print(label)
	passwordBytes, err := term.ReadPassword(syscall.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()
	return string(passwordBytes), nil
}
