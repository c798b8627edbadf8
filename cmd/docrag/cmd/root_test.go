package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docrag/internal/config"
)

// runCLI executes the root command with the given args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	root := NewRootCmd()

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"index", "search", "ask", "watch", "stats", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestVersionCmd(t *testing.T) {
	t.Setenv("DOCRAG_DATA_DIR", t.TempDir())
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "docrag")
}

func TestVersionCmd_JSON(t *testing.T) {
	t.Setenv("DOCRAG_DATA_DIR", t.TempDir())
	out, err := runCLI(t, "version", "--json")
	require.NoError(t, err)

	var info struct {
		Version string `json:"version"`
		OS      string `json:"os"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.OS)
}

func TestBuildQuery(t *testing.T) {
	a := &app{cfg: config.Default()}

	q, err := buildQuery(a, "hello world", searchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hello world", q.Text)
	assert.Equal(t, 5, q.TopK)
	assert.Equal(t, 0.7, q.SemanticWeight)
	assert.Nil(t, q.Filters)

	q, err = buildQuery(a, "x", searchOptions{
		limit:   3,
		weight:  0.2,
		filters: []string{"source=readme.md", "lang=en"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, q.TopK)
	assert.Equal(t, 0.2, q.SemanticWeight)
	assert.Equal(t, map[string]string{"source": "readme.md", "lang": "en"}, q.Filters)

	_, err = buildQuery(a, "x", searchOptions{filters: []string{"no-equals"}})
	assert.Error(t, err)
}

func TestIndexSearchStats_EndToEnd(t *testing.T) {
	dataDir := t.TempDir()
	docsDir := t.TempDir()
	t.Setenv("DOCRAG_EMBED_BACKEND", "static")

	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "k8s.md"),
		[]byte("kubernetes handles deployment and scaling of containers"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "cooking.md"),
		[]byte("the pancake recipe needs flour eggs and sugar"), 0o644))

	out, err := runCLI(t, "index", docsDir, "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed")

	out, err = runCLI(t, "search", "kubernetes deployment", "-n", "2", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "k8s.md")

	out, err = runCLI(t, "stats", "--json", "--data-dir", dataDir)
	require.NoError(t, err)

	var stats statsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 2, stats.Vectors)
	assert.Equal(t, dataDir, stats.DataDir)
}

func TestSearchCmd_InvalidFilter(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DOCRAG_EMBED_BACKEND", "static")

	_, err := runCLI(t, "search", "anything", "--filter", "bad", "--data-dir", dataDir)
	assert.Error(t, err)
}
