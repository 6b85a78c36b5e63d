package tui

import (
	"context"

	"github.com/charmbracelet/huh/spinner"
)

// ShowSpinner displays a spinner while the action runs. Without a TTY the
// action just runs directly.
func ShowSpinner(title string, action func()) {
	if !HasTTY {
		action()
		return
	}
	ctx, done := context.WithCancel(context.Background())
	defer done()
	s := spinner.New().Context(ctx)
	s.Title(title).Action(func() {
		defer done()
		action()
	}).Run()
}
