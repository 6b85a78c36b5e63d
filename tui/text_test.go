package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandPrefixesBinaryName(t *testing.T) {
	out := Command("search", "golang generics")
	assert.Contains(t, out, "lumen search golang generics")
}

func TestMaxWidthTruncates(t *testing.T) {
	long := strings.Repeat("x", 50)
	out := MaxWidth(long, 20)
	assert.Len(t, out, 20)
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestMaxWidthKeepsShortText(t *testing.T) {
	assert.Equal(t, "short", MaxWidth("short", 20))
}
