package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mur-run/flowspec/internal/document"
	"github.com/mur-run/flowspec/internal/journal"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func TestCommands_EditDocument(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := t.TempDir()
	file := "ops.release.v1.flow.yaml"

	require.NoError(t, run(t, "--dir", dir, "new", "ops.release.v1", "--title", "Release", "--owner", "ops@example.com", "--template", "human_review"))
	require.FileExists(t, filepath.Join(dir, file))

	require.NoError(t, run(t, "--dir", dir, "step", "add", file, "publish", "--template", "system_check"))
	require.NoError(t, run(t, "--dir", dir, "edge", "add", file, "human_review_1", "publish", "approved"))

	err := run(t, "--dir", dir, "edge", "add", file, "publish", "human_review_1", "retry")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")

	assert.NoError(t, run(t, "--dir", dir, "validate"))

	data, err := os.ReadFile(filepath.Join(dir, file))
	require.NoError(t, err)
	flow, _, err := document.Load(string(data), document.Options{})
	require.NoError(t, err, "saved document does not load")
	assert.Equal(t, []string{"human_review_1", "publish"}, flow.StepIDs())

	step, _ := flow.Step("human_review_1")
	require.Len(t, step.Next, 1)
	assert.Equal(t, "publish", step.Next[0].To)
	assert.Equal(t, "approved", step.Next[0].When)

	j, err := journal.NewStore(filepath.Join(home, ".flowspec"))
	require.NoError(t, err)
	defer j.Close()
	entries, err := j.List(context.Background(), "ops.release.v1", 0)
	require.NoError(t, err)
	// Three loads (one per edge/step command) and two accepted edits.
	assert.Len(t, entries, 5)
}

func TestCommands_EditKeepsKeyOrder(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.flow.yaml")
	text := `id: ops.notes.v1
schema: flowspec.v1
title: Notes
owner: ops@example.com
x-team: platform
policy:
  enforcement: none
steps:
  - role: human
    id: write
    zeta: 1
    alpha: 2
    instructions:
      - Write
    acceptance:
      checks:
        - description: Written
`
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))

	require.NoError(t, run(t, "--dir", dir, "step", "add", "notes", "review", "--template", "blank"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.HasPrefix(out, text[:strings.Index(text, "  - role: human")]), out)
	assert.Contains(t, out, "  - role: human\n    id: write\n    zeta: 1\n    alpha: 2\n")
	assert.Contains(t, out, "  - id: review\n")
}

func TestCommands_ValidateReportsInvalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.flow.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("schema: flowspec.v1\nid: a.b.v1\ntitle: T\nsteps: []\n"), 0644))

	err := run(t, "validate", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 documents failed")
}

func TestResolveDoc(t *testing.T) {
	flagDir = t.TempDir()
	t.Cleanup(func() { flagDir = "" })

	st, name, err := resolveDoc("release")
	require.NoError(t, err)
	assert.Equal(t, "release.flow.yaml", name)
	assert.Equal(t, flagDir, st.Dir())

	other := t.TempDir()
	st, name, err = resolveDoc(filepath.Join(other, "x.flow.yaml"))
	require.NoError(t, err)
	assert.Equal(t, other, st.Dir())
	assert.Equal(t, "x.flow.yaml", name)
}
