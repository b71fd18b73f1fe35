package vcs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) *Git {
	t.Helper()
	g := NewGit()
	if !g.IsInstalled(context.Background()) {
		t.Skip("git not installed")
	}
	return g
}

func gitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	require.NoError(t, err)
	return strings.TrimSpace(string(out))
}

func TestGit_InitAndSnapshot(t *testing.T) {
	g := requireGit(t)
	ctx := context.Background()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(t.TempDir()))
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.py"), []byte("print('hi')"), 0644))

	assert.False(t, g.IsRepository(ctx, root))
	require.NoError(t, g.Init(ctx, root))
	assert.True(t, g.IsRepository(ctx, root))

	ignore, err := os.ReadFile(filepath.Join(root, GitignoreFile))
	require.NoError(t, err)
	assert.Equal(t, DefaultGitignore, string(ignore))
	assert.Equal(t, InitialCommitMessage, gitOutput(t, root, "log", "-1", "--format=%s"))
	assert.Contains(t, gitOutput(t, root, "ls-files"), "app.py")

	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "util.py"), []byte("X = 1"), 0644))
	require.NoError(t, g.Snapshot(ctx, root, "src/util.py"))
	assert.Equal(t, "Update src/util.py", gitOutput(t, root, "log", "-1", "--format=%s"))
}

func TestGit_InitKeepsExistingGitignore(t *testing.T) {
	g := requireGit(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, GitignoreFile), []byte("custom/\n"), 0644))

	require.NoError(t, g.Init(context.Background(), root))

	data, err := os.ReadFile(filepath.Join(root, GitignoreFile))
	require.NoError(t, err)
	assert.Equal(t, "custom/\n", string(data))
}

func TestGit_SnapshotOutsideRepoFails(t *testing.T) {
	g := requireGit(t)
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(t.TempDir()))
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0644))

	err := g.Snapshot(context.Background(), root, "a.txt")
	assert.ErrorContains(t, err, "git add failed")
}

func TestGit_MissingBinary(t *testing.T) {
	g := &Git{Binary: filepath.Join(t.TempDir(), "no-such-git")}
	assert.False(t, g.IsInstalled(context.Background()))
	assert.Error(t, g.Init(context.Background(), t.TempDir()))
}

func TestSubcommand(t *testing.T) {
	assert.Equal(t, "commit", subcommand([]string{"-c", "user.name=x", "-c", "user.email=y", "commit", "-m", "msg"}))
	assert.Equal(t, "add", subcommand([]string{"add", "."}))
}

func TestIgnore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, GitignoreFile), []byte("secrets/\n*.log\n"), 0644))

	ig := LoadIgnore(root)
	for _, p := range []string{".git/HEAD", "node_modules/x/index.js", "venv/bin/python", "src/__pycache__/a.pyc", ".projectgen/rules", ".projectgen/config.json", "secrets/key.pem", "debug.log"} {
		assert.True(t, ig.Match(p), p)
	}
	for _, p := range []string{"app.py", "src/main.js", "README.md"} {
		assert.False(t, ig.Match(p), p)
	}

	assert.Equal(t, []string{"app.py", "README.md"}, ig.Filter([]string{"app.py", "node_modules/a.js", "README.md"}))
}

func TestIgnore_NoProjectGitignore(t *testing.T) {
	ig := LoadIgnore(t.TempDir())
	assert.True(t, ig.Match("node_modules/left-pad/index.js"))
	for _, p := range []string{"main.go", "lib/util.js", "build/gen.go", "env/settings.py", "dist/bundle.js"} {
		assert.False(t, ig.Match(p), p)
	}
}
