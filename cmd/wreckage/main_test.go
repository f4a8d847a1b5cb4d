package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"WRECKAGE_SERVICE_URL", "GEMINI_API_KEY", "GOOGLE_API_KEY", "GOOGLE_GENAI_API_KEY", "GENAI_API_KEY"} {
		t.Setenv(k, "")
	}
	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

func TestPersonasCommand(t *testing.T) {
	out, err := run(t, "", "personas")
	require.NoError(t, err)
	assert.Contains(t, out, "Corporate Robot (")
	assert.Contains(t, out, "Conrad (6 rules)")
}

func TestRewriteCommand(t *testing.T) {
	out, err := run(t, "", "rewrite", "-p", "Corporate Robot", "problem")
	require.NoError(t, err)
	assert.Equal(t, "opportunity\n", out)

	out, err = run(t, "hi, good work\n", "rewrite", "--persona", "Belly")
	require.NoError(t, err)
	assert.Equal(t, "yo, fire grind\n", out)
}

func TestComposeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	out, err := run(t, "", "compose", "--out", path, "hello", "world")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
}

func TestWreckDeclined(t *testing.T) {
	out, err := run(t, "n\n", "wreck", "we", "need", "to", "talk")
	require.NoError(t, err)
	assert.Contains(t, out, "Coward.")
	assert.NotContains(t, out, "artifact")
}

func TestWreckRequiresText(t *testing.T) {
	_, err := run(t, "", "wreck")
	assert.Error(t, err)
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wreckage.ini")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	_, err := run(t, "", "--config", path, "personas")
	assert.ErrorContains(t, err, "failed to load config")
}
