package prompts

import "fmt"

var planPrompt = &Prompt{
	ID:      PlanPromptID,
	Version: PromptV1,
	Content: `You are a software architect tasked with creating a detailed project structure.
Based on the user's project idea, generate a JSON structure that includes:
1. A project name (short, descriptive, kebab-case)
2. A brief project description
3. A complete file structure with directories and files
4. Technologies and dependencies to use
5. For each file, provide the full file content with complete implementation code

Implement fully working code, not placeholders.
The code should be complete, functional, and follow common conventions for the chosen stack.
All paths must be relative to the project root and must not contain "..".

Return ONLY valid JSON with this structure:
{
  "project_name": "example-project",
  "description": "Brief description of the project",
  "technologies": ["python", "flask"],
  "dependencies": ["requests", "flask"],
  "structure": [
    {
      "path": "src/main.py",
      "type": "file",
      "content": "# Full implementation code here\n..."
    },
    {
      "path": "src/utils",
      "type": "directory"
    }
  ]
}`,
	Description: "Turns a project idea into a JSON project plan",
	Tags:        []string{"build", "json"},
}

// PlanSystemPrompt returns the system prompt for plan generation.
func PlanSystemPrompt() (string, error) {
	b, err := NewPromptBuilder(DefaultRegistry(), PlanPromptID)
	if err != nil {
		return "", err
	}
	return b.Build()
}

// PlanUserMessage wraps the user's idea in the plan request.
func PlanUserMessage(idea string) string {
	return fmt.Sprintf("Create a project structure for: %s", idea)
}
