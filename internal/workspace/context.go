package workspace

import "slices"

// ProjectContext is the project a session is working on. It is built once,
// on build or load, and replaced wholesale rather than edited in place; the
// technology list only grows while it is being inferred.
type ProjectContext struct {
	Root         string
	Name         string
	technologies []string
}

// NewProjectContext creates a context for an absolute project root.
func NewProjectContext(root, name string, technologies ...string) *ProjectContext {
	pc := &ProjectContext{Root: root, Name: name}
	for _, t := range technologies {
		pc.AddTechnology(t)
	}
	return pc
}

// AddTechnology appends t unless it is empty or already present.
// Returns true if the list changed.
func (pc *ProjectContext) AddTechnology(t string) bool {
	if t == "" || slices.Contains(pc.technologies, t) {
		return false
	}
	pc.technologies = append(pc.technologies, t)
	return true
}

// HasTechnology reports whether t was declared or inferred.
func (pc *ProjectContext) HasTechnology(t string) bool {
	return slices.Contains(pc.technologies, t)
}

// Technologies returns a copy of the technology list in insertion order.
func (pc *ProjectContext) Technologies() []string {
	return slices.Clone(pc.technologies)
}
