package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graduation-scanner/internal/domain"
)

func testCandidates() []domain.Candidate {
	return []domain.Candidate{
		{
			Score:  7.5,
			Passes: true,
			Metrics: domain.TokenMetrics{
				Mint:                   "7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr",
				Symbol:                 "ALP",
				Liquidity:              52000,
				Volume24h:              180000,
				Holders:                domain.Known(412),
				TopHolderConcentration: domain.Known(23.4),
				TokenAgeHours:          0.5,
			},
		},
		{
			Score:    4.0,
			Passes:   false,
			Failures: []string{"Liquidity $5000 < $12000", "Token age 30.0h > 24h"},
			Metrics: domain.TokenMetrics{
				Mint:      "short",
				Symbol:    "BET",
				Liquidity: 5000,
			},
		},
	}
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatTable, testCandidates()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "SCORE"))

	assert.Contains(t, lines[1], "7GCi..W2hr")
	assert.Contains(t, lines[1], "412")
	assert.Contains(t, lines[1], "23.4")
	assert.Contains(t, lines[1], "PASS")

	assert.Contains(t, lines[2], "short")
	assert.Contains(t, lines[2], "?")
	assert.Contains(t, lines[2], "FAIL: Liquidity $5000 < $12000; Token age 30.0h > 24h")
}

func TestRender_TableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatTable, nil))
	assert.Equal(t, "no new candidates\n", buf.String())
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatJSON, testCandidates()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)

	metrics := got[1]["metrics"].(map[string]any)
	assert.Nil(t, metrics["holders"], "unknown holders render as null")
	assert.Equal(t, false, got[1]["passes_filter"])
}

func TestRender_UnknownFormat(t *testing.T) {
	assert.Error(t, render(&bytes.Buffer{}, "xml", nil))
}

func TestRenderPresets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderPresets(&buf, formatTable))
	assert.Equal(t, strings.Join(domain.PresetNames(), "\n")+"\n", buf.String())

	buf.Reset()
	require.NoError(t, renderPresets(&buf, formatJSON))
	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Len(t, got, len(domain.PresetNames()))
}

func TestPassingOnly(t *testing.T) {
	got := passingOnly(testCandidates())
	require.Len(t, got, 1)
	assert.Equal(t, "ALP", got[0].Metrics.Symbol)
}

func TestOutputFormat_Explicit(t *testing.T) {
	assert.Equal(t, formatJSON, outputFormat(formatJSON))
	assert.Equal(t, formatTable, outputFormat(formatTable))
}
