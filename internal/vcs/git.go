// Package vcs is the best-effort version-control collaborator: it puts new
// projects under git and commits each applied edit.
package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	// InitialCommitMessage is used for the scaffolding commit.
	InitialCommitMessage = "Initial commit: Project scaffolding"

	fallbackName  = "projectgen"
	fallbackEmail = "projectgen@localhost"
)

// Git shells out to the git binary.
type Git struct {
	// Binary is the git executable; defaults to "git" on PATH.
	Binary string
}

// NewGit creates a Git collaborator using git from PATH.
func NewGit() *Git {
	return &Git{Binary: "git"}
}

// IsInstalled checks if git is available on the system.
func (g *Git) IsInstalled(ctx context.Context) bool {
	_, err := g.run(ctx, "", "--version")
	return err == nil
}

// IsRepository reports whether root lies inside a git work tree.
func (g *Git) IsRepository(ctx context.Context, root string) bool {
	out, err := g.run(ctx, root, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// Init creates a repository in root, writes the default .gitignore unless
// the project already has one, stages everything and commits it.
func (g *Git) Init(ctx context.Context, root string) error {
	if _, err := g.run(ctx, root, "init"); err != nil {
		return err
	}

	ignorePath := filepath.Join(root, GitignoreFile)
	if _, err := os.Stat(ignorePath); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(ignorePath, []byte(DefaultGitignore), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", GitignoreFile, err)
		}
	}

	if _, err := g.run(ctx, root, "add", "."); err != nil {
		return err
	}
	return g.commit(ctx, root, InitialCommitMessage)
}

// Snapshot stages relPath and commits it as "Update <relPath>".
func (g *Git) Snapshot(ctx context.Context, root, relPath string) error {
	if _, err := g.run(ctx, root, "add", "--", relPath); err != nil {
		return err
	}
	return g.commit(ctx, root, "Update "+relPath)
}

// commit falls back to a local identity when the user has none configured,
// so fresh machines and CI can still record snapshots.
func (g *Git) commit(ctx context.Context, root, message string) error {
	var args []string
	if out, err := g.run(ctx, root, "config", "user.email"); err != nil || strings.TrimSpace(out) == "" {
		args = append(args, "-c", "user.name="+fallbackName, "-c", "user.email="+fallbackEmail)
	}
	args = append(args, "commit", "-m", message)
	_, err := g.run(ctx, root, args...)
	return err
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	bin := g.Binary
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return "", fmt.Errorf("git %s failed: %w: %s", subcommand(args), err, msg)
	}
	return stdout.String(), nil
}

// subcommand skips leading "-c key=value" pairs.
func subcommand(args []string) string {
	for i := 0; i < len(args); i++ {
		if args[i] == "-c" {
			i++
			continue
		}
		return args[i]
	}
	return ""
}
