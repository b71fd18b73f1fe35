package vcs

import (
	"bufio"
	"os"
	"path/filepath"
	"slices"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/abdul-mstfa/projectgen/internal/project"
)

// GitignoreFile is the ignore file written into new projects.
const GitignoreFile = ".gitignore"

// DefaultGitignore covers Python and Node build output, editor files and
// OS clutter.
const DefaultGitignore = `
# Python
__pycache__/
*.py[cod]
*$py.class
*.so
.Python
venv/
ENV/
env/
.env
.venv
build/
develop-eggs/
dist/
downloads/
eggs/
.eggs/
lib/
lib64/
parts/
sdist/
var/
wheels/
*.egg-info/

# Node.js
node_modules/
npm-debug.log
yarn-error.log
yarn-debug.log
package-lock.json

# IDE
.idea/
.vscode/
*.swp
*.swo

# OS
.DS_Store
.DS_Store?
._*
.Spotlight-V100
.Trashes
ehthumbs.db
Thumbs.db
`

// noiseRules are always hidden from prompts and search: repository and
// settings metadata plus installed dependencies. Build-output names such as
// lib/ or dist/ are left to the project's own .gitignore since they are often
// real sources.
var noiseRules = []string{
	".git/",
	project.SettingsDir + "/",
	"node_modules/",
	"venv/",
	".venv/",
	"__pycache__/",
}

// Ignore decides which project files are noise for prompts and search.
type Ignore struct {
	matcher *gitignore.GitIgnore
}

// LoadIgnore combines the fixed noise rules with root/.gitignore if present.
func LoadIgnore(root string) *Ignore {
	lines := slices.Clone(noiseRules)
	lines = append(lines, readLines(filepath.Join(root, GitignoreFile))...)
	return &Ignore{matcher: gitignore.CompileIgnoreLines(lines...)}
}

// Match reports whether the slash-separated, root-relative path is ignored.
func (ig *Ignore) Match(rel string) bool {
	return ig.matcher.MatchesPath(rel)
}

// Filter returns the paths that are not ignored, preserving order.
func (ig *Ignore) Filter(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !ig.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
