package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-mstfa/projectgen/internal/engine"
	"github.com/abdul-mstfa/projectgen/internal/scaffold"
	"github.com/abdul-mstfa/projectgen/internal/session"
)

const demoPlan = `{
  "project_name": "demo",
  "description": "A tiny flask app",
  "technologies": ["python"],
  "dependencies": ["flask"],
  "structure": [{"path": "app.py", "type": "file", "content": "print('hi')"}]
}`

type scriptedLLM struct {
	replies []string
}

func (s *scriptedLLM) Chat(context.Context, string, []engine.ChatMessage, engine.ChatOptions) (engine.LLMResponse, error) {
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return engine.LLMResponse{Assistant: engine.AssistantMessage(reply)}, nil
}

func testAssistant(t *testing.T, input string, llm engine.LLMClient, deps assistantDeps) (*assistant, *bytes.Buffer) {
	t.Helper()
	deps.LLM = llm
	deps.Model = "test-model"
	if deps.ProjectsDir == "" {
		deps.ProjectsDir = t.TempDir()
	}
	deps.Retry = &engine.RetryConfig{LLMPolicy: engine.RetryPolicy{InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}}

	var out bytes.Buffer
	return newAssistant(deps, strings.NewReader(input), &out), &out
}

func TestREPL_BuildThenChat(t *testing.T) {
	ctx := context.Background()
	projectsDir := t.TempDir()
	journal, err := session.OpenJournal(ctx, filepath.Join(t.TempDir(), session.JournalFile))
	require.NoError(t, err)
	defer journal.Close()

	llm := &scriptedLLM{replies: []string{
		demoPlan,
		"Sure.\nFILE_EDIT: app.py\nprint('bye')\nEND_FILE_EDIT",
	}}
	input := strings.Join([]string{
		"@build a flask demo",
		"@chat",
		"@files",
		"@read app.py",
		"@read ../secret.txt",
		"make it say bye",
		"@history",
		"@exit",
		"@exit",
	}, "\n") + "\n"

	a, out := testAssistant(t, input, llm, assistantDeps{ProjectsDir: projectsDir, Journal: journal})
	require.NoError(t, a.repl(ctx))

	root := filepath.Join(projectsDir, "demo")
	text := out.String()
	for _, want := range []string{
		"===== AI Project Assistant =====",
		"Generating project plan...",
		"Project: demo",
		"Description: A tiny flask app",
		"Technologies: python",
		"Project created at: " + root,
		"Next steps:",
		"1. cd " + root,
		"Interactive chat for demo at " + root,
		"I'm your coding assistant for the demo project",
		"===== Project Files =====",
		"README.md",
		"===== File: app.py =====\nprint('hi')",
		"Error reading file: path escapes project root",
		"Thinking...",
		"Sure.\n🔄 APPLIED CHANGES TO: app.py 🔄",
		"===== Edit History =====",
		"applied",
		"Exiting chat...",
		"Exiting...",
	} {
		assert.Contains(t, text, want)
	}
	assert.NotContains(t, text, "Git repository initialized")

	data, err := os.ReadFile(filepath.Join(root, "app.py"))
	require.NoError(t, err)
	assert.Equal(t, "print('bye')", string(data))
}

func TestREPL_UnknownCommandsAndHelp(t *testing.T) {
	a, out := testAssistant(t, "hello\n@build\n@help\n", &scriptedLLM{}, assistantDeps{})
	require.NoError(t, a.repl(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Unknown command. Type '@help' for a list of commands.")
	assert.Contains(t, text, "Please provide a project idea")
	assert.Contains(t, text, "===== Chat Mode Commands =====")
	assert.Contains(t, text, "@find [query]")
	assert.True(t, strings.HasSuffix(text, "Exiting...\n"))
}

func TestREPL_MalformedPlanIsFatal(t *testing.T) {
	a, _ := testAssistant(t, "@build something\n@exit\n", &scriptedLLM{replies: []string{"I can't do JSON today."}}, assistantDeps{})

	err := a.repl(context.Background())
	assert.ErrorIs(t, err, scaffold.ErrMalformedPlan)
}

func TestBuild_ExistingProjectDeclinedWithoutTerminal(t *testing.T) {
	projectsDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(projectsDir, "demo"), 0755))

	a, out := testAssistant(t, "", &scriptedLLM{replies: []string{demoPlan}}, assistantDeps{ProjectsDir: projectsDir})
	require.NoError(t, a.build(context.Background(), "demo"))

	assert.Contains(t, out.String(), "not overwriting")
	assert.Contains(t, out.String(), "Aborted.")
	assert.NoFileExists(t, filepath.Join(projectsDir, "demo", "app.py"))
	assert.Nil(t, a.current)
}

func TestChat_ProjectSelection(t *testing.T) {
	a, out := testAssistant(t, "", &scriptedLLM{}, assistantDeps{})
	ctx := context.Background()

	require.NoError(t, a.chat(ctx, ""))
	assert.Contains(t, out.String(), "No project selected. Please use @build first or specify a project path.")

	missing := filepath.Join(t.TempDir(), "missing")
	require.NoError(t, a.chat(ctx, missing))
	assert.Contains(t, out.String(), "Could not load project information from "+missing)
}

func TestChat_FindAndHistoryWithoutJournal(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.py"), []byte("from flask import Flask"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("nothing here"), 0644))

	a, out := testAssistant(t, "@find flask\n@find zebra\n@history\n\n@bye\n", &scriptedLLM{}, assistantDeps{})
	require.NoError(t, a.chat(context.Background(), root))

	text := out.String()
	assert.Contains(t, text, "===== Search: flask =====\napp.py\n")
	assert.Contains(t, text, "===== Search: zebra =====\nNo matches in 2 files.")
	assert.Contains(t, text, "Edit history is unavailable.")
	assert.Contains(t, text, "Exiting chat...")
	assert.NotContains(t, text, "Thinking...")
}

type unavailableLLM struct{}

func (unavailableLLM) Chat(context.Context, string, []engine.ChatMessage, engine.ChatOptions) (engine.LLMResponse, error) {
	return engine.LLMResponse{}, errors.New("503 service unavailable")
}

func TestChat_CollaboratorUnavailable(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.py"), nil, 0644))

	a, out := testAssistant(t, "hello\n@bye\n", unavailableLLM{}, assistantDeps{})
	require.NoError(t, a.chat(context.Background(), root))

	text := out.String()
	assert.Contains(t, text, "Error getting response: collaborator request failed")
	assert.Contains(t, text, "The assistant is unavailable right now.")
	assert.Contains(t, text, "Exiting chat...")
}

func TestChat_EndOfInput(t *testing.T) {
	root := t.TempDir()
	a, out := testAssistant(t, "", &scriptedLLM{}, assistantDeps{})

	require.NoError(t, a.chat(context.Background(), root))
	assert.True(t, strings.HasSuffix(out.String(), "\nExiting chat...\n"))
}

func TestDirective(t *testing.T) {
	tests := []struct {
		line, cmd, arg string
	}{
		{"@build a todo app", "@build", "a todo app"},
		{"  @READ   src/App.js ", "@read", "src/App.js"},
		{"@exit", "@exit", ""},
		{"fix the bug please", "fix", "the bug please"},
	}
	for _, tt := range tests {
		cmd, arg := directive(tt.line)
		assert.Equal(t, tt.cmd, cmd, tt.line)
		assert.Equal(t, tt.arg, arg, tt.line)
	}
}

func TestRootCommand_Flags(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"api-key", "provider", "model", "projects-dir", "verbose"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"build", "chat"})
}

func TestLineReader_CloseReleasesReader(t *testing.T) {
	lr := newLineReader(strings.NewReader("first\nsecond\nthird\n"))

	line, ok := lr.ReadLine(context.Background())
	require.True(t, ok)
	assert.Equal(t, "first", line)

	lr.Close()
	lr.Close()
	select {
	case <-lr.done:
	case <-time.After(2 * time.Second):
		t.Fatal("reader goroutine still running after Close")
	}
}

func TestLineReader_CancelledContext(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	lr := newLineReader(r)
	defer lr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok := lr.ReadLine(ctx)
	assert.False(t, ok)
}
