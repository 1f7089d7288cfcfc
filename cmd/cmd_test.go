package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/woescope-cli/internal/export"
)

const ordersCSV = `region,year,returned,label
A,2020,1,x
A,2020,1,x
A,2020,0,y
B,2020,0,y
B,2020,0,x
C,2020,1,y
A,2019,0,x
C,2018,0,x
`

// resetFlags restores every flag to its default so values and Changed state
// do not leak between invocations.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeDataset(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(ordersCSV), 0o644))
	return path
}

func TestInspect(t *testing.T) {
	path := writeDataset(t)
	out, err := runCmd(t, "inspect", path, "--year-col", "year", "--rows", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Loaded orders.csv: 8 rows, 4 columns")
	assert.Contains(t, out, "filtered to 6 rows where year == 2020")
	assert.Contains(t, out, "[SCHEMA]")
	assert.Contains(t, out, "- region: string")
}

func TestInspectFallsBackOnTextYearColumn(t *testing.T) {
	path := writeDataset(t)
	out, err := runCmd(t, "inspect", path, "--year-col", "label")
	require.NoError(t, err)
	assert.Contains(t, out, "⚠ year filter not applied, using all 8 rows")
}

func TestProbability(t *testing.T) {
	path := writeDataset(t)
	chartPath := filepath.Join(filepath.Dir(path), "charts", "rate.png")
	out, err := runCmd(t, "probability", path, "--target", "returned", "--var", "region", "--year-col", "year", "--chart", chartPath)
	require.NoError(t, err)
	assert.Contains(t, out, "return rate over a sample of 6 rows")

	png, err := os.ReadFile(chartPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestProbabilityRequiresSelection(t *testing.T) {
	path := writeDataset(t)
	out, err := runCmd(t, "probability", path, "--target", "returned")
	require.Error(t, err)
	assert.Contains(t, out, "select a variable column")
}

func TestWOEExport(t *testing.T) {
	path := writeDataset(t)
	dest := filepath.Join(filepath.Dir(path), export.FileName)
	out, err := runCmd(t, "woe", path, "--target", "returned", "--var", "region", "--year-col", "year", "-o", dest, "--data-uri")
	require.NoError(t, err)
	assert.Contains(t, out, "data:text/csv")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "var,WOE,n,event_rate", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "A,0.69314718"))
}

func TestWOEFormatFromExtension(t *testing.T) {
	path := writeDataset(t)
	dest := filepath.Join(filepath.Dir(path), "woe.xlsx")
	_, err := runCmd(t, "woe", path, "--target", "returned", "--var", "region", "-o", dest)
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")), "xlsx is a zip archive")
}

func TestWOENoVariationStillExports(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "ones.csv")
	require.NoError(t, os.WriteFile(path, []byte("g,y\na,1\nb,1\n"), 0o644))
	dest := filepath.Join(home, export.FileName)

	out, err := runCmd(t, "woe", path, "--target", "y", "--var", "g", "-o", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "WOE is undefined for every category")
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "a,,1,1")
}

func TestWOERejectsUnknownFormat(t *testing.T) {
	path := writeDataset(t)
	_, err := runCmd(t, "woe", path, "--target", "returned", "--var", "region", "--format", "json")
	assert.Error(t, err)
}

func TestConfigSetAndShow(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfgPath := filepath.Join(home, "woescope.yaml")

	out, err := runCmd(t, "--config", cfgPath, "config", "set", "year_column", "year")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved config")

	_, err = runCmd(t, "--config", cfgPath, "config", "set", "log_format", "xml")
	assert.Error(t, err)

	_, err = runCmd(t, "--config", cfgPath, "config", "set", "nope", "1")
	assert.Error(t, err)

	loadConfigFor(t, cfgPath)
	out, err = runCmdKeepConfig(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "year_column: year")
	assert.Contains(t, out, "target_year: 2020")
}

func loadConfigFor(t *testing.T, path string) {
	t.Helper()
	cfgFile = path
	loadConfig()
	require.NotNil(t, cfg)
}

func runCmdKeepConfig(t *testing.T, args ...string) (string, error) {
	t.Helper()
	loaded := cfg
	resetFlags(rootCmd)
	cfg = loaded
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}
