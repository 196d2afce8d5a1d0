package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestThemePtr(t *testing.T) {
	assert.Nil(t, themePtr(-1))

	p := themePtr(0)
	require.NotNil(t, p)
	assert.Equal(t, 0, *p)
}

func TestReadWriteFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.js")

	require.NoError(t, writeOutput(out, "export default 1;\n"))

	got, err := readInput(out)
	require.NoError(t, err)
	assert.Equal(t, "export default 1;\n", got)

	_, err = readInput(filepath.Join(dir, "missing.js"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSetupTracing_NoEndpoint(t *testing.T) {
	tp, shutdown, err := setupTracing(context.Background(), "")
	require.NoError(t, err)

	assert.IsType(t, noop.TracerProvider{}, tp)
	assert.NoError(t, shutdown(context.Background()))
}
