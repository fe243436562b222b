package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModelYAML = `version: "2026.02"
trained_at: "2026-02-14T09:30:00Z"
intercept: -0.25
coefficients: [-0.4, -0.3, -0.5, -0.2, 2.1, -0.01, 0.02, 0.0001, 0.8, 0.05]
`

func TestInspectModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testModelYAML), 0o600))

	var buf bytes.Buffer
	require.NoError(t, inspectModel(&buf, path))

	out := buf.String()
	assert.Contains(t, out, "version:    2026.02")
	assert.Contains(t, out, "intercept:  -0.250000")
	assert.Contains(t, out, "flood_zone")
	assert.Contains(t, out, "epc_score")
	assert.Contains(t, out, "2.100000")
}

func TestInspectModel_Missing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, inspectModel(&buf, filepath.Join(t.TempDir(), "absent.json")))
	assert.Contains(t, buf.String(), "fallback mode")
}

func TestInspectModel_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("coefficients: [1, 2]\n"), 0o600))

	var buf bytes.Buffer
	assert.Error(t, inspectModel(&buf, path))
}
