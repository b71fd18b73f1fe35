package workspace

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// NodeManifest is the Node.js package manifest.
	NodeManifest = "package.json"
	// PythonManifest is the pip requirements file.
	PythonManifest = "requirements.txt"

	// TechUnknown is reported when nothing could be inferred.
	TechUnknown = "unknown"
)

// ErrNotADirectory is returned when a project root is missing or is a file.
var ErrNotADirectory = errors.New("not a directory")

// Inspect loads an existing project directory and infers its technologies.
//
// Manifest-first: package.json marks javascript+node and contributes its
// runtime dependency names, requirements.txt marks python and contributes
// its package names. Only if neither produced anything does it fall back to
// sampling file extensions anywhere under the root.
func Inspect(root string) (*ProjectContext, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, abs)
	}

	pc := NewProjectContext(abs, filepath.Base(abs))

	// A manifest that exists marks its ecosystem even when it cannot be read
	// or parsed; only its dependency list is skipped.
	if path := filepath.Join(abs, NodeManifest); exists(path) {
		pc.AddTechnology("javascript")
		pc.AddTechnology("node")
		if data, err := os.ReadFile(path); err == nil {
			if deps, err := packageDependencies(data); err == nil {
				for _, dep := range deps {
					pc.AddTechnology(dep)
				}
			}
		}
	}

	if path := filepath.Join(abs, PythonManifest); exists(path) {
		pc.AddTechnology("python")
		if data, err := os.ReadFile(path); err == nil {
			for _, dep := range requirementNames(data) {
				pc.AddTechnology(dep)
			}
		}
	}

	if len(pc.technologies) == 0 {
		fsys := os.DirFS(abs)
		if hasMatch(fsys, "**/*.py") {
			pc.AddTechnology("python")
		}
		if hasMatch(fsys, "**/*.js") {
			pc.AddTechnology("javascript")
		}
	}

	if len(pc.technologies) == 0 {
		pc.AddTechnology(TechUnknown)
	}

	return pc, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// packageDependencies returns the keys of the "dependencies" object in the
// order they appear in the file.
func packageDependencies(data []byte) ([]string, error) {
	var pkg struct {
		Dependencies json.RawMessage `json:"dependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}
	if len(pkg.Dependencies) == 0 || string(pkg.Dependencies) == "null" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(pkg.Dependencies))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("dependencies is not an object")
	}

	var names []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var version json.RawMessage
		if err := dec.Decode(&version); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// requirementNames extracts package names from a requirements file, cutting
// each line at the first "==" or ">=".
func requirementNames(data []byte) []string {
	var names []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cut := len(line)
		for _, sep := range []string{"==", ">="} {
			if i := strings.Index(line, sep); i >= 0 && i < cut {
				cut = i
			}
		}
		if name := strings.TrimSpace(line[:cut]); name != "" && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

var errFound = errors.New("found")

// hasMatch reports whether any file in fsys matches the doublestar pattern.
func hasMatch(fsys fs.FS, pattern string) bool {
	err := doublestar.GlobWalk(fsys, pattern, func(string, fs.DirEntry) error {
		return errFound
	}, doublestar.WithFilesOnly())
	return errors.Is(err, errFound)
}

// ListFiles yields the root-relative, slash-separated path of every regular
// file under root whose name does not start with a dot. Hidden directories
// are still descended into. Each call to the returned sequence walks the
// tree again, and unreadable directories are skipped.
func ListFiles(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() && path != root {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			if !yield(filepath.ToSlash(rel)) {
				return fs.SkipAll
			}
			return nil
		})
	}
}

// Files collects ListFiles into a slice.
func Files(root string) []string {
	return slices.Collect(ListFiles(root))
}
