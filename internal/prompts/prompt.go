// Package prompts holds the versioned system prompts sent to the collaborator
// and a small builder for filling in their variables.
package prompts

import "golang.org/x/mod/semver"

// PromptVersion represents a version identifier for prompts, in semantic
// version form without the leading "v".
type PromptVersion string

// Compare orders versions numerically, so "10.0.0" sorts after "2.0.0".
// Malformed versions sort before well-formed ones.
func (v PromptVersion) Compare(other PromptVersion) int {
	return semver.Compare("v"+string(v), "v"+string(other))
}

const (
	// PromptV1 is the first version of prompts.
	PromptV1 PromptVersion = "1.0.0"
)

// Prompt IDs.
const (
	PlanPromptID = "project_plan"
	ChatPromptID = "project_chat"
)

// Prompt represents a versioned prompt with metadata.
type Prompt struct {
	ID          string
	Version     PromptVersion
	Content     string
	Description string
	Tags        []string
	Deprecated  bool
}
