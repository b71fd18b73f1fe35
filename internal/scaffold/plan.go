// Package scaffold turns a collaborator's project plan into a directory tree.
package scaffold

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ErrMalformedPlan is returned when the collaborator's response cannot be
// read as a project plan.
var ErrMalformedPlan = errors.New("malformed project plan")

// EntryKind distinguishes files from directories in a plan.
type EntryKind string

const (
	KindFile      EntryKind = "file"
	KindDirectory EntryKind = "directory"
)

// Entry is one file or directory to create, relative to the project root.
type Entry struct {
	Path    string
	Kind    EntryKind
	Content string // File only; empty is valid
}

// Plan describes a project to scaffold.
type Plan struct {
	Name         string
	Description  string
	Technologies []string
	Dependencies []string
	Entries      []Entry
}

// HasTechnology reports whether the plan lists t, ignoring case.
func (p *Plan) HasTechnology(t string) bool {
	return containsFold(p.Technologies, t)
}

// Counts returns the number of file and directory entries.
func (p *Plan) Counts() (files, dirs int) {
	for _, e := range p.Entries {
		if e.Kind == KindDirectory {
			dirs++
		} else {
			files++
		}
	}
	return files, dirs
}

// Validate checks the invariants a plan built in code must hold. Path
// containment is checked later, against the real root, by the materializer.
func (p *Plan) Validate() error {
	var problems []string
	if !validName(p.Name) {
		problems = append(problems, fmt.Sprintf("project_name %q is not a single safe path segment", p.Name))
	}
	for i, e := range p.Entries {
		if strings.TrimSpace(e.Path) == "" {
			problems = append(problems, fmt.Sprintf("structure[%d]: empty path", i))
		}
		if e.Kind != KindFile && e.Kind != KindDirectory {
			problems = append(problems, fmt.Sprintf("structure[%d]: unknown type %q", i, e.Kind))
		}
	}
	if len(problems) > 0 {
		return &PlanValidationError{Errors: problems}
	}
	return nil
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`+"\x00")
}

// PlanValidationError lists every problem found in a plan.
// It matches ErrMalformedPlan with errors.Is.
type PlanValidationError struct {
	Errors []string
}

func (e *PlanValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedPlan, strings.Join(e.Errors, "; "))
}

func (e *PlanValidationError) Unwrap() error {
	return ErrMalformedPlan
}

// planSchema is the wire shape requested in the plan prompt.
const planSchema = `{
  "type": "object",
  "required": ["project_name", "structure"],
  "properties": {
    "project_name": {"type": "string", "minLength": 1, "pattern": "^[A-Za-z0-9][A-Za-z0-9._-]*$"},
    "description": {"type": "string"},
    "technologies": {"type": "array", "items": {"type": "string"}},
    "dependencies": {"type": "array", "items": {"type": "string"}},
    "structure": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["path", "type"],
        "properties": {
          "path": {"type": "string", "minLength": 1},
          "type": {"enum": ["file", "directory"]},
          "content": {"type": ["string", "null"]}
        }
      }
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(planSchema))
})

type wirePlan struct {
	ProjectName  string      `json:"project_name"`
	Description  string      `json:"description"`
	Technologies []string    `json:"technologies"`
	Dependencies []string    `json:"dependencies"`
	Structure    []wireEntry `json:"structure"`
}

type wireEntry struct {
	Path    string  `json:"path"`
	Type    string  `json:"type"`
	Content *string `json:"content"`
}

// ParsePlan decodes and validates a plan from the collaborator's response.
// A surrounding markdown code fence is tolerated. Every failure matches
// ErrMalformedPlan.
func ParsePlan(raw string) (*Plan, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedPlan)
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile plan schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		// Not JSON at all.
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, &PlanValidationError{Errors: problems}
	}

	var wire wirePlan
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}

	plan := &Plan{
		Name:         wire.ProjectName,
		Description:  wire.Description,
		Technologies: wire.Technologies,
		Dependencies: wire.Dependencies,
		Entries:      make([]Entry, 0, len(wire.Structure)),
	}
	for _, we := range wire.Structure {
		e := Entry{Path: we.Path, Kind: EntryKind(we.Type)}
		if e.Kind == KindFile && we.Content != nil {
			e.Content = *we.Content
		}
		plan.Entries = append(plan.Entries, e)
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models add even in JSON mode.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
