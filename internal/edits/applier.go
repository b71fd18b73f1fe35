package edits

import (
	"bytes"
	"context"
	"errors"
	"log"
	"path/filepath"

	"github.com/abdul-mstfa/projectgen/internal/workspace"
)

// Snapshotter records an applied edit, e.g. by staging and committing it.
// Its failures never change an Outcome.
type Snapshotter interface {
	Snapshot(ctx context.Context, root, relPath string) error
}

// Outcome is the result of applying one Instruction: either applied, or
// failed with a human-readable reason.
type Outcome struct {
	Path    string
	Applied bool
	Reason  string // set when !Applied
	// Created is true when the file did not exist before.
	Created bool
	// Unchanged is true when the file already held exactly this content.
	Unchanged bool
	Err       error
}

// Applied builds a successful Outcome.
func Applied(path string) Outcome {
	return Outcome{Path: path, Applied: true}
}

// Failed builds a failed Outcome.
func Failed(path, reason string) Outcome {
	return Outcome{Path: path, Reason: reason}
}

// Applier writes instructions into a project root.
type Applier struct {
	fs   workspace.FileSystem
	snap Snapshotter
}

// NewApplier creates an applier. fsys defaults to the OS filesystem and
// snap may be nil.
func NewApplier(fsys workspace.FileSystem, snap Snapshotter) *Applier {
	if fsys == nil {
		fsys = workspace.NewOSFileSystem()
	}
	return &Applier{fs: fsys, snap: snap}
}

// Apply replaces the instruction's target file with its content. The path is
// resolved against root first; anything escaping root is refused without
// touching the filesystem.
func (a *Applier) Apply(ctx context.Context, root string, in Instruction) Outcome {
	target, err := workspace.Resolve(root, in.Path)
	if err != nil {
		reason := err.Error()
		switch {
		case errors.Is(err, workspace.ErrPathEscape):
			reason = workspace.ErrPathEscape.Error()
		case errors.Is(err, workspace.ErrInvalidPath):
			reason = workspace.ErrInvalidPath.Error()
		}
		out := Failed(in.Path, reason)
		out.Err = err
		return out
	}

	out := Applied(in.Path)
	existing, readErr := a.fs.ReadFile(target)
	switch {
	case readErr == nil && bytes.Equal(existing, []byte(in.Content)):
		out.Unchanged = true
		return out
	case readErr != nil:
		out.Created = true
	}

	if err := a.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return a.failure(in.Path, err)
	}
	if err := a.fs.WriteFile(target, []byte(in.Content), 0644); err != nil {
		return a.failure(in.Path, err)
	}

	if a.snap != nil {
		rel, err := workspace.Relative(root, target)
		if err == nil {
			err = a.snap.Snapshot(ctx, root, rel)
		}
		if err != nil {
			log.Printf("⚠️  snapshot of %s failed: %v", in.Path, err)
		}
	}
	return out
}

func (a *Applier) failure(path string, err error) Outcome {
	out := Failed(path, err.Error())
	out.Err = err
	return out
}

// ApplyAll applies instructions one at a time in order, so a later
// instruction for the same path wins. A failure never stops the batch.
func (a *Applier) ApplyAll(ctx context.Context, root string, ins []Instruction) []Outcome {
	outcomes := make([]Outcome, 0, len(ins))
	for _, in := range ins {
		outcomes = append(outcomes, a.Apply(ctx, root, in))
	}
	return outcomes
}
