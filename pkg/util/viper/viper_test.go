package viper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "conf.yaml", "decode:\n  max-depth: 64\nexport:\n  format: cbor\n")
	c := New("")
	require.NoError(t, c.LoadFile(path))
	assert.Equal(t, 64, c.GetInt("decode.max-depth"))
	assert.Equal(t, "cbor", c.GetString("export.format"))
	assert.Equal(t, path, c.ConfigFileUsed())
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "conf.toml", "[log]\nlevel = \"debug\"\nstderr = true\n")
	c := New("")
	require.NoError(t, c.LoadFile(path))

	var lc struct {
		Level  string `mapstructure:"level"`
		Stderr bool   `mapstructure:"stderr"`
	}
	require.NoError(t, c.UnmarshalKey("log", &lc))
	assert.Equal(t, "debug", lc.Level)
	assert.True(t, lc.Stderr)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "conf.json", `{"load": {"workers": 2}}`)
	t.Setenv("SCRATCHTEST_LOAD_WORKERS", "9")
	c := New("SCRATCHTEST")
	require.NoError(t, c.LoadFile(path))
	assert.Equal(t, 9, c.GetInt("load.workers"))
}

func TestFlagsOverrideFileOnlyWhenSet(t *testing.T) {
	path := writeFile(t, "conf.yaml", "format: cbor\ndepth: 3\n")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("format", "json", "")
	fs.Int("depth", 0, "")
	require.NoError(t, fs.Parse([]string{"--depth=7"}))

	c := New("")
	require.NoError(t, c.LoadFile(path))
	require.NoError(t, c.BindFlags(fs))
	assert.Equal(t, "cbor", c.GetString("format"))
	assert.Equal(t, 7, c.GetInt("depth"))
}

func TestMissingFile(t *testing.T) {
	c := New("")
	assert.Error(t, c.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")))
	c.SetDefault("format", "json")
	assert.Equal(t, "json", c.GetString("format"))
	assert.False(t, c.IsSet("depth"))
}
