package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// readInput reads path, or stdin when path is empty or "-". Reading from an
// interactive terminal is refused so the command does not hang.
func readInput(path string) (string, error) {
	if path != "" && path != "-" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", path, err)
		}
		return string(data), nil
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("no input: pass a file or pipe source on stdin")
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

// writeOutput writes s to path, or stdout when path is empty.
func writeOutput(path, s string) error {
	if path == "" {
		_, err := io.WriteString(os.Stdout, s)
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

func themePtr(theme int) *int {
	if theme < 0 {
		return nil
	}
	return &theme
}
