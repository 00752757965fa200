package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBrowse(t *testing.T) {
	cfg := writeNav(t)
	cfg.Router.Aliases = map[string]string{"guide": "@nav/guide"}

	in := strings.NewReader(strings.Join([]string{
		"/guide/install",
		"",
		"@nav[guide]/usage",
		"show",
		"tree",
		"expand /nowhere",
		"/missing",
		"forward",
		"q",
		"/faq",
	}, "\n"))
	var out bytes.Buffer

	err := RunBrowse(context.Background(), cfg, NewLogger(false), in, &out, BrowseOptions{})
	require.NoError(t, err)

	s := out.String()
	assert.Contains(t, s, "/guide/install Installation")
	assert.Contains(t, s, "/guide/usage Usage")
	assert.Contains(t, s, "# Usage")
	assert.Contains(t, s, "Guide /guide")
	assert.NotContains(t, s, "\x1b[", "plain output carries no escape codes")
	assert.Contains(t, s, ">>> expand /nowhere:")
	assert.Contains(t, s, "NotFound")
	assert.Contains(t, s, ">>> no next entry")
	assert.NotContains(t, s, "/faq FAQ", "commands after quit are not run")
}

func TestRunBrowse_EOF(t *testing.T) {
	cfg := writeNav(t)
	var out bytes.Buffer

	err := RunBrowse(context.Background(), cfg, NewLogger(false), strings.NewReader("/faq\n"), &out, BrowseOptions{Prompt: true, Banner: true})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "> ")
	assert.Contains(t, out.String(), "/faq FAQ")
}
