package scaffold

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/abdul-mstfa/projectgen/internal/workspace"
)

var (
	// ErrDeclined is returned when the target directory exists and the
	// caller did not confirm overwriting it. Nothing is written.
	ErrDeclined = errors.New("overwrite of existing project declined")
	// ErrIO matches every filesystem failure during materialization.
	ErrIO = errors.New("filesystem operation failed")
)

// IOError records the path a filesystem operation failed on.
type IOError struct {
	Op   string // "mkdir" or "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrIO) hold for any *IOError.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// ConfirmFunc is asked before an existing project directory is reused.
type ConfirmFunc func(root string) bool

// Materializer writes plans to disk.
type Materializer struct {
	fs      workspace.FileSystem
	confirm ConfirmFunc
}

// NewMaterializer creates a materializer. A nil confirm declines every
// overwrite.
func NewMaterializer(fsys workspace.FileSystem, confirm ConfirmFunc) *Materializer {
	if fsys == nil {
		fsys = workspace.NewOSFileSystem()
	}
	if confirm == nil {
		confirm = func(string) bool { return false }
	}
	return &Materializer{fs: fsys, confirm: confirm}
}

// Materialize writes plan under projectsDir/plan.Name and returns that root.
//
// README.md and (for Python projects) requirements.txt are written first so
// that plan entries with the same names replace them. Writes are sequential
// and not transactional: on failure the tree written so far stays on disk.
func (m *Materializer) Materialize(plan *Plan, projectsDir string) (string, error) {
	if err := plan.Validate(); err != nil {
		return "", err
	}

	root, err := workspace.Resolve(projectsDir, plan.Name)
	if err != nil {
		return "", fmt.Errorf("project name %q: %w", plan.Name, err)
	}

	if _, err := m.fs.Stat(root); err == nil {
		if !m.confirm(root) {
			return "", fmt.Errorf("%w: %s", ErrDeclined, root)
		}
		log.Printf("♻️  Overwriting files in existing project %s", root)
	}

	if err := m.mkdir(root); err != nil {
		return "", err
	}

	if err := m.write(root, filepath.Join(root, ReadmeFile), RenderReadme(plan)); err != nil {
		return "", err
	}
	if plan.HasTechnology("python") {
		if err := m.write(root, filepath.Join(root, RequirementsFile), RenderRequirements(plan.Dependencies)); err != nil {
			return "", err
		}
	}

	for _, entry := range plan.Entries {
		target, err := workspace.Resolve(root, entry.Path)
		if err != nil {
			return "", fmt.Errorf("plan entry %q: %w", entry.Path, err)
		}

		switch entry.Kind {
		case KindDirectory:
			err = m.mkdir(target)
		default:
			err = m.write(root, target, entry.Content)
		}
		if err != nil {
			return "", err
		}
	}

	return root, nil
}

func (m *Materializer) mkdir(path string) error {
	if err := m.fs.MkdirAll(path, 0755); err != nil {
		return &IOError{Op: "mkdir", Path: path, Err: err}
	}
	return nil
}

// write creates the parents of target inside root and writes content verbatim.
func (m *Materializer) write(root, target, content string) error {
	if dir := filepath.Dir(target); dir != root {
		if err := m.mkdir(dir); err != nil {
			return err
		}
	}
	if err := m.fs.WriteFile(target, []byte(content), 0644); err != nil {
		return &IOError{Op: "write", Path: target, Err: err}
	}
	return nil
}
