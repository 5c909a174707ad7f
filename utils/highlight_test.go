package utils

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceLanguage(t *testing.T) {
	assert.Equal(t, "Go", SourceLanguage("main.go"))
	assert.Equal(t, "Python", SourceLanguage("app.py"))
	assert.Equal(t, "", SourceLanguage("data.no-such-extension"))
}

func TestRenderSource(t *testing.T) {
	var buf bytes.Buffer
	src := "package main\n\nfunc main() {}\n"

	require.NoError(t, RenderSource(context.Background(), &buf, "main.go", src, ""))

	out := buf.String()
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "package")
	assert.Contains(t, out, "main")
}

func TestRenderSource_UnknownLanguageStillPrints(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSource(context.Background(), &buf, "notes.no-such-extension", "plain text\n", "monokai"))
	assert.Contains(t, buf.String(), "plain text")
}

func TestRenderSource_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := RenderSource(ctx, &buf, "main.py", strings.Repeat("import os\n", 20), "")
	assert.ErrorIs(t, err, context.Canceled)
}
