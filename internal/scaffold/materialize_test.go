package scaffold

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abdul-mstfa/projectgen/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func demoPlan() *Plan {
	return &Plan{
		Name:         "demo",
		Description:  "d",
		Technologies: []string{"python"},
		Dependencies: []string{"flask"},
		Entries:      []Entry{{Path: "app.py", Kind: KindFile, Content: "print('hi')"}},
	}
}

func TestMaterialize_DemoScenario(t *testing.T) {
	projects := t.TempDir()

	root, err := NewMaterializer(nil, nil).Materialize(demoPlan(), projects)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(projects, "demo"), root)

	assert.Equal(t, "print('hi')", readFile(t, filepath.Join(root, "app.py")))
	readme := readFile(t, filepath.Join(root, ReadmeFile))
	assert.Contains(t, readme, "demo")
	assert.Contains(t, readme, "python")
	assert.Equal(t, "flask\n", readFile(t, filepath.Join(root, RequirementsFile)))
}

func TestMaterialize_RequirementsOnlyForPython(t *testing.T) {
	projects := t.TempDir()

	plan := demoPlan()
	plan.Name = "shouty"
	plan.Technologies = []string{"Python"}
	root, err := NewMaterializer(nil, nil).Materialize(plan, projects)
	require.NoError(t, err)
	assert.Equal(t, "flask\n", readFile(t, filepath.Join(root, RequirementsFile)))

	plan = demoPlan()
	plan.Name = "web"
	plan.Technologies = []string{"node"}
	root, err = NewMaterializer(nil, nil).Materialize(plan, projects)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(root, RequirementsFile))
}

func TestMaterialize_FileAndDirectoryCounts(t *testing.T) {
	projects := t.TempDir()
	plan := &Plan{
		Name: "tree",
		Entries: []Entry{
			{Path: "src/pkg/a.go", Kind: KindFile, Content: "package pkg\n"},
			{Path: "src/b.txt", Kind: KindFile, Content: ""},
			{Path: "docs", Kind: KindDirectory},
			{Path: "assets/img", Kind: KindDirectory},
			{Path: "bin/run.sh", Kind: KindFile, Content: "#!/bin/sh\necho ok\n"},
		},
	}

	root, err := NewMaterializer(nil, nil).Materialize(plan, projects)
	require.NoError(t, err)

	var files []string
	require.NoError(t, filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		if d.Type().IsRegular() {
			rel, _ := filepath.Rel(root, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	}))
	assert.ElementsMatch(t, []string{ReadmeFile, "src/pkg/a.go", "src/b.txt", "bin/run.sh"}, files)

	assert.Equal(t, "package pkg\n", readFile(t, filepath.Join(root, "src", "pkg", "a.go")))
	assert.Equal(t, "", readFile(t, filepath.Join(root, "src", "b.txt")))
	for _, dir := range []string{"docs", "assets/img", "src/pkg", "bin"} {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(dir)))
		require.NoError(t, err)
		assert.True(t, info.IsDir(), dir)
	}
	_, err = os.Stat(filepath.Join(root, RequirementsFile))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMaterialize_EntriesOverrideGeneratedFiles(t *testing.T) {
	plan := demoPlan()
	plan.Entries = append(plan.Entries,
		Entry{Path: ReadmeFile, Kind: KindFile, Content: "custom readme"},
		Entry{Path: RequirementsFile, Kind: KindFile, Content: "flask==3.0\n"},
	)

	root, err := NewMaterializer(nil, nil).Materialize(plan, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "custom readme", readFile(t, filepath.Join(root, ReadmeFile)))
	assert.Equal(t, "flask==3.0\n", readFile(t, filepath.Join(root, RequirementsFile)))
}

func TestMaterialize_ExistingDirectory(t *testing.T) {
	projects := t.TempDir()
	existing := filepath.Join(projects, "demo")
	require.NoError(t, os.MkdirAll(existing, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(existing, "keep.txt"), []byte("old"), 0644))

	var asked string
	declined := NewMaterializer(nil, func(root string) bool {
		asked = root
		return false
	})
	_, err := declined.Materialize(demoPlan(), projects)
	assert.ErrorIs(t, err, ErrDeclined)
	assert.Equal(t, existing, asked)
	_, err = os.Stat(filepath.Join(existing, "app.py"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = os.Stat(filepath.Join(existing, ReadmeFile))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	accepted := NewMaterializer(nil, func(string) bool { return true })
	root, err := accepted.Materialize(demoPlan(), projects)
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", readFile(t, filepath.Join(root, "app.py")))
	assert.Equal(t, "old", readFile(t, filepath.Join(root, "keep.txt")))
}

func TestMaterialize_EscapingEntryIsRejected(t *testing.T) {
	projects := t.TempDir()
	plan := &Plan{
		Name: "evil",
		Entries: []Entry{
			{Path: "ok.txt", Kind: KindFile, Content: "fine"},
			{Path: "../../escaped.txt", Kind: KindFile, Content: "pwned"},
			{Path: "after.txt", Kind: KindFile, Content: "never"},
		},
	}

	_, err := NewMaterializer(nil, nil).Materialize(plan, projects)
	require.ErrorIs(t, err, workspace.ErrPathEscape)

	_, err = os.Stat(filepath.Join(filepath.Dir(projects), "escaped.txt"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = os.Stat(filepath.Join(projects, "escaped.txt"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = os.Stat(filepath.Join(projects, "evil", "after.txt"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMaterialize_InvalidPlan(t *testing.T) {
	_, err := NewMaterializer(nil, nil).Materialize(&Plan{Name: ".."}, t.TempDir())
	assert.ErrorIs(t, err, ErrMalformedPlan)
}

// failingFS fails WriteFile for paths ending in failSuffix.
type failingFS struct {
	workspace.OSFileSystem
	failSuffix string
}

func (f failingFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	if strings.HasSuffix(filepath.ToSlash(name), f.failSuffix) {
		return errors.New("disk full")
	}
	return f.OSFileSystem.WriteFile(name, data, perm)
}

func TestMaterialize_WriteFailureAborts(t *testing.T) {
	projects := t.TempDir()
	plan := &Plan{
		Name: "partial",
		Entries: []Entry{
			{Path: "first.txt", Kind: KindFile, Content: "1"},
			{Path: "dir/broken.txt", Kind: KindFile, Content: "2"},
			{Path: "third.txt", Kind: KindFile, Content: "3"},
		},
	}

	_, err := NewMaterializer(failingFS{failSuffix: "dir/broken.txt"}, nil).Materialize(plan, projects)
	require.ErrorIs(t, err, ErrIO)

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, filepath.Join(projects, "partial", "dir", "broken.txt"), ioErr.Path)
	assert.Equal(t, "write", ioErr.Op)

	// Best-effort: earlier writes remain, later ones never happen.
	assert.Equal(t, "1", readFile(t, filepath.Join(projects, "partial", "first.txt")))
	_, err = os.Stat(filepath.Join(projects, "partial", "third.txt"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
