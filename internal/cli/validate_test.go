package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brokenNavYAML = `
name: Home
layout: See @nav/guide/install and @nav/ghost.
children:
  - segment: /guide
    name: Guide
    header:
      order: 1
    children:
      - segment: /install
        name: Installation
        header:
          order: first
`

func TestRunValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid", func(t *testing.T) {
		var out bytes.Buffer
		cfg := writeNav(t)
		require.NoError(t, RunValidate(ctx, cfg, NewLogger(false), &out))
		assert.Contains(t, out.String(), "is valid")
	})

	t.Run("Broken", func(t *testing.T) {
		cfg := writeNav(t)
		cfg.Source = filepath.Join(t.TempDir(), "broken.yaml")
		require.NoError(t, os.WriteFile(cfg.Source, []byte(brokenNavYAML), 0o644))
		cfg.Validate.HeaderSchema = map[string]string{"order": "int"}

		err := RunValidate(ctx, cfg, NewLogger(false), &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "found 2 errors")
		assert.Contains(t, err.Error(), "broken link '@nav/ghost'")
		assert.Contains(t, err.Error(), `Page '/guide/install': header "order": expected int, got string`)
	})

	t.Run("InvalidSchema", func(t *testing.T) {
		cfg := writeNav(t)
		cfg.Validate.HeaderSchema = map[string]string{"order": "integer"}
		err := RunValidate(ctx, cfg, NewLogger(false), &bytes.Buffer{})
		assert.ErrorContains(t, err, "invalid header schema")
	})
}
