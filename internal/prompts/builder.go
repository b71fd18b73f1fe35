package prompts

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{[a-z_]+\}\}`)

// PromptBuilder fills a registered prompt's {{variables}} and appends
// literal fragments after it.
type PromptBuilder struct {
	base      string
	fragments []string
	variables map[string]string
}

// NewPromptBuilder starts from the latest version of a registered prompt.
func NewPromptBuilder(registry *PromptRegistry, id string) (*PromptBuilder, error) {
	base, err := registry.GetLatest(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get base prompt: %w", err)
	}

	return &PromptBuilder{
		base:      base.Content,
		variables: make(map[string]string),
	}, nil
}

// AddFragment appends text verbatim; it is not scanned for variables.
// Blank fragments are ignored.
func (b *PromptBuilder) AddFragment(text string) *PromptBuilder {
	if strings.TrimSpace(text) != "" {
		b.fragments = append(b.fragments, text)
	}
	return b
}

// SetVariable sets a variable for {{key}} substitution.
func (b *PromptBuilder) SetVariable(key, value string) *PromptBuilder {
	b.variables[key] = value
	return b
}

// Build substitutes variables in one pass, so values that contain "{{...}}"
// are not expanded again. A placeholder with no value is an error.
func (b *PromptBuilder) Build() (string, error) {
	var missing []string
	result := placeholderRe.ReplaceAllStringFunc(b.base, func(ph string) string {
		key := ph[2 : len(ph)-2]
		if v, ok := b.variables[key]; ok {
			return v
		}
		missing = append(missing, key)
		return ph
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unresolved prompt variables: %s", strings.Join(missing, ", "))
	}

	return strings.Join(append([]string{result}, b.fragments...), "\n\n"), nil
}
