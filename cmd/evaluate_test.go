package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateCommand(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "snapshot.json")
	require.NoError(t, os.WriteFile(snapshot, []byte(`{"block_number":7,"pools":[
		{"venue":"uniswap","reserve_quote":1000000000,"reserve_other":1000000000},
		{"venue":"sushiswap","reserve_quote":1000000000,"reserve_other":2000000000}]}`), 0o644))
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_level: error\nquote_decimals: 0\nother_decimals: 0\n"), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"evaluate", "--config", cfgPath, "--snapshot", snapshot, "--amount-in", "1000000"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "block 7  quote->other round trip")
	assert.Contains(t, out.String(), "in:    1000000 DAI")
	assert.Contains(t, out.String(), "(opportunity)")
}
