// Package tui has the interactive terminal helpers: styled output, prompts,
// and spinners. Everything degrades to plain text when stdout is not a TTY so
// the commands stay scriptable.
package tui

import (
	"os"

	"github.com/mattn/go-isatty"
)

var (
	HasTTY = isatty.IsTerminal(os.Stdout.Fd())
)
