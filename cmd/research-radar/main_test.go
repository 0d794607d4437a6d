// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-radar/internal/assess"
	"github.com/pdiddy/research-radar/pkg/types"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "research-radar dev\n", out)
}

func TestSignalsCommandJSON(t *testing.T) {
	out, err := execute(t, "signals",
		"--title", "A synthetic dataset for rare disease imaging",
		"--abstract", "Patient data is scarce and costly annotation limits progress; we release a large-scale benchmark.",
		"--json",
	)
	require.NoError(t, err)

	var got map[types.Category]types.SignalResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got, len(types.Categories))
	for c, r := range got {
		assert.GreaterOrEqual(t, r.Score, 0.0, c)
		assert.LessOrEqual(t, r.Score, types.MaxSignalScore, c)
	}
}

func TestSignalsCommandNeedsText(t *testing.T) {
	_, err := execute(t, "signals", "--title", "", "--abstract", "", "--json=false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--title")
}

func TestBatchRequiresAnthropicKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("RESEARCH_RADAR_EVALUATOR_API_KEY", "")
	t.Chdir(t.TempDir())

	_, err := execute(t, "batch", "--lookback-days", "7")
	require.Error(t, err)
	assert.ErrorIs(t, err, assess.ErrMissingAPIKey)
}
