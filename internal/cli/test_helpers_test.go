package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/runnerr0/rankscope/internal/config"
)

const rankingCSV = "Keyword,Ranking URL,Traffic Index,Translation\n" +
	"k1,https://ex.com/compressors/small,1200,air compressor\n" +
	"k2,https://ex.com/compressors/large,4,big unit\n" +
	"k3,https://ex.com/blog,3,compressor tips\n" +
	"k4,https://ex.com/fans,50,ceiling fan\n" +
	"k5,http://[::1/compressors/zz,1,compressor\n"

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// writeFixture writes content to name inside a fresh temp dir and returns
// the full path.
func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// writeConfig writes a config file with the given YAML and returns its path.
func writeConfig(t *testing.T, yamlContent string) string {
	t.Helper()
	return writeFixture(t, "config.yaml", yamlContent)
}

func testConfig() *config.Config {
	return config.DefaultConfig()
}
