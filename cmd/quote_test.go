package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	return out.String(), err
}

func TestQuotePayment(t *testing.T) {
	out, err := runCLI(t, "quote", "payment", "--principal", "800000", "--rate", "0.12", "--term", "20", "--currency", "USD")
	require.NoError(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "PAYMENT", result["calculation_type"])
	assert.Equal(t, "USD", result["currency"])
	assert.InDelta(t, 8808.69, result["monthly_payment"], 0.02)
}

func TestQuoteAffordability_Rejected(t *testing.T) {
	out, err := runCLI(t, "quote", "affordability",
		"--income", "10000", "--dsr", "0.3", "--obligations", "4000", "--rate", "0.12", "--term", "20")
	require.Error(t, err)

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "negative_affordability", result["error"])
	assert.Equal(t, -1000.0, result["affordable_payment"])
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "prequal version dev\n", out)
}
