package workspace

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func TestInspect_RequirementsStripsVersions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "requirements.txt", "flask==2.0.1\nrequests>=2.0\n")

	pc, err := Inspect(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"python", "flask", "requests"}, pc.Technologies())
	assert.Equal(t, filepath.Base(root), pc.Name)
	assert.True(t, filepath.IsAbs(pc.Root))
}

func TestInspect_RequirementsDedupAndBlankLines(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "requirements.txt", "\nflask\n# pinned below\nflask==2.0\n  gunicorn >= 20 \nnumpy>=1.0==2\n")

	pc, err := Inspect(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "flask", "gunicorn", "numpy"}, pc.Technologies())
}

func TestInspect_PackageJSONPreservesOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{
  "name": "web",
  "dependencies": {"zod": "^3", "express": "^4", "axios": "^1"},
  "devDependencies": {"jest": "^29"}
}`)

	pc, err := Inspect(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"javascript", "node", "zod", "express", "axios"}, pc.Technologies())
}

func TestInspect_MalformedPackageJSONStillMarksNode(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{not json`)

	pc, err := Inspect(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"javascript", "node"}, pc.Technologies())
}

func TestInspect_UnreadableManifestsStillMark(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, NodeManifest), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(root, PythonManifest), 0755))

	pc, err := Inspect(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"javascript", "node", "python"}, pc.Technologies())
}

func TestInspect_BothManifestsCombine(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"dependencies": {"react": "18"}}`)
	writeFile(t, root, "requirements.txt", "django\n")

	pc, err := Inspect(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"javascript", "node", "react", "python", "django"}, pc.Technologies())
}

func TestInspect_ExtensionFallback(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "deep/nested/tool.py", "print(1)")
	writeFile(t, root, "web/app.js", "console.log(1)")

	pc, err := Inspect(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "javascript"}, pc.Technologies())
}

func TestInspect_FallbackSkippedWhenManifestFound(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "requirements.txt", "")
	writeFile(t, root, "app.js", "")

	pc, err := Inspect(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"python"}, pc.Technologies())
}

func TestInspect_Unknown(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes.txt", "hello")

	pc, err := Inspect(root)
	require.NoError(t, err)
	assert.Equal(t, []string{TechUnknown}, pc.Technologies())
}

func TestInspect_NotADirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "file.txt", "x")

	_, err := Inspect(filepath.Join(root, "file.txt"))
	assert.ErrorIs(t, err, ErrNotADirectory)

	_, err = Inspect(filepath.Join(root, "missing"))
	assert.ErrorIs(t, err, ErrNotADirectory)
}

func TestListFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "")
	writeFile(t, root, ".env", "SECRET=1")
	writeFile(t, root, "src/main.py", "")
	writeFile(t, root, "src/.hidden.py", "")
	writeFile(t, root, ".config/settings.toml", "")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))

	files := Files(root)
	slices.Sort(files)
	assert.Equal(t, []string{".config/settings.toml", "README.md", "src/main.py"}, files)
}

func TestListFiles_Restartable(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "")
	writeFile(t, root, "b/c.txt", "")

	seq := ListFiles(root)
	first := slices.Sorted(seq)
	second := slices.Sorted(seq)
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
}

func TestListFiles_EarlyStop(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		writeFile(t, root, name, "")
	}

	count := 0
	for range ListFiles(root) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestProjectContext_AddTechnology(t *testing.T) {
	pc := NewProjectContext("/p", "p", "python", "flask", "python", "")
	assert.Equal(t, []string{"python", "flask"}, pc.Technologies())
	assert.False(t, pc.AddTechnology("flask"))
	assert.True(t, pc.AddTechnology("redis"))
	assert.True(t, pc.HasTechnology("redis"))

	techs := pc.Technologies()
	techs[0] = "mutated"
	assert.Equal(t, "python", pc.Technologies()[0])
}

func TestOSFileSystem_WriteFileReplacesAtomically(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "app.py")
	fsys := NewOSFileSystem()

	require.NoError(t, fsys.WriteFile(target, []byte("v1"), 0644))
	require.NoError(t, fsys.WriteFile(target, []byte("v2"), 0644))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestOSFileSystem_WriteFileOntoDirectoryFails(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "src"), 0755))

	err := NewOSFileSystem().WriteFile(filepath.Join(root, "src"), []byte("x"), 0644)
	assert.Error(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
