package prompts

import (
	"fmt"
	"strings"
)

var chatPrompt = &Prompt{
	ID:      ChatPromptID,
	Version: PromptV1,
	Content: `You are a helpful AI coding assistant for a project called '{{project_name}}' using {{technologies}}.
The project is located at {{root}}.

Project files:
{{file_listing}}

The user may report issues or request changes to the code. You can suggest solutions and DIRECTLY MODIFY FILES
when instructed to do so.

When modifying files:
1. Be precise about which file you're editing
2. If creating a new file, mention that explicitly
3. Make only the necessary changes to fix the issue
4. Explain what changes you made and why

When the user asks you to edit a file, respond in this format:
1. Brief explanation of what changes you're making
2. Start the file edit with "FILE_EDIT: [filepath]" on its own line, using a path relative to the project root
3. Include the COMPLETE new file content, not just the changes
4. End with "END_FILE_EDIT" on its own line
5. Explain the changes and what they'll fix

Keep your answers concise but complete.`,
	Description: "Conversational assistant that may rewrite project files with FILE_EDIT directives",
	Tags:        []string{"chat", "edit-protocol"},
}

// ChatContext is what the chat prompt needs to know about the project.
type ChatContext struct {
	ProjectName  string
	Technologies []string
	Root         string
	Files        []string
	// Rules is appended verbatim when the project carries its own instructions.
	Rules string
}

// ChatSystemPrompt renders the system prompt that opens a chat session.
func ChatSystemPrompt(cc ChatContext) (string, error) {
	b, err := NewPromptBuilder(DefaultRegistry(), ChatPromptID)
	if err != nil {
		return "", err
	}

	b.SetVariable("project_name", cc.ProjectName).
		SetVariable("technologies", strings.Join(cc.Technologies, ", ")).
		SetVariable("root", cc.Root).
		SetVariable("file_listing", FileListing(cc.Files))
	if cc.Rules != "" {
		b.AddFragment("Project rules:\n" + strings.TrimSpace(cc.Rules))
	}
	return b.Build()
}

// FileListing renders one path per line, or a marker for an empty project.
func FileListing(files []string) string {
	if len(files) == 0 {
		return "(no files yet)"
	}
	return strings.Join(files, "\n")
}

// RefreshedListing is sent as a system message when files changed outside the chat.
func RefreshedListing(files []string) string {
	return "The project files changed on disk. Current project files:\n" + FileListing(files)
}

// Greeting is the assistant turn that follows the system prompt.
func Greeting(projectName, root string) string {
	return fmt.Sprintf("I'm your coding assistant for the %s project at %s. I can help you with code issues and make direct changes to your files. What would you like to discuss or modify?", projectName, root)
}
