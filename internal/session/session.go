// Package session runs a conversation about one project: each round sends
// the history to the collaborator, applies the file edits embedded in the
// reply and renders the reply for the terminal.
package session

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/abdul-mstfa/projectgen/internal/edits"
	"github.com/abdul-mstfa/projectgen/internal/engine"
	"github.com/abdul-mstfa/projectgen/internal/prompts"
	"github.com/abdul-mstfa/projectgen/internal/render"
	"github.com/abdul-mstfa/projectgen/internal/vcs"
	"github.com/abdul-mstfa/projectgen/internal/workspace"
)

const chatTemperature = 0.7

// Recorder persists edit outcomes.
type Recorder interface {
	Record(ctx context.Context, e JournalEntry) (JournalEntry, error)
}

// ChangeSource reports whether the project tree changed out of band since
// the last call, clearing the flag.
type ChangeSource interface {
	TakeChanged() bool
}

// Reply is the result of one round.
type Reply struct {
	// Text is the rendered reply: directives replaced by status lines,
	// prose wrapped and code fences bannered.
	Text     string
	Raw      string
	Outcomes []edits.Outcome
}

// Session is one conversation about one project. It is not safe for
// concurrent use; rounds run one at a time.
type Session struct {
	ID string

	project  *workspace.ProjectContext
	llm      engine.LLMClient
	model    string
	applier  *edits.Applier
	renderer *render.Renderer
	journal  Recorder
	changes  ChangeSource
	listFile func(root string) []string
	rules    string
	retry    *engine.RetryConfig

	history []engine.ChatMessage
	// dirty is set when an applied edit created a file, so the next round
	// sends a refreshed listing.
	dirty bool
}

// Option configures a Session.
type Option func(*Session)

// WithJournal records every edit outcome.
func WithJournal(r Recorder) Option {
	return func(s *Session) { s.journal = r }
}

// WithChangeSource consults src at the start of every round.
func WithChangeSource(src ChangeSource) Option {
	return func(s *Session) { s.changes = src }
}

// WithRenderer replaces the default styled renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(s *Session) { s.renderer = r }
}

// WithRules appends project rules to the system prompt.
func WithRules(rules string) Option {
	return func(s *Session) { s.rules = rules }
}

// WithFileLister replaces how project files are listed for the prompt.
func WithFileLister(fn func(root string) []string) Option {
	return func(s *Session) { s.listFile = fn }
}

// WithRetryConfig overrides the collaborator retry policy.
func WithRetryConfig(cfg engine.RetryConfig) Option {
	return func(s *Session) { s.retry = &cfg }
}

// Open starts a session on pc. The history is seeded with the system prompt
// describing the project and the assistant's greeting.
func Open(pc *workspace.ProjectContext, llm engine.LLMClient, model string, applier *edits.Applier, opts ...Option) (*Session, error) {
	s := &Session{
		ID:       uuid.NewString(),
		project:  pc,
		llm:      llm,
		model:    model,
		applier:  applier,
		renderer: render.NewRenderer(render.NewStyles()),
		listFile: VisibleFiles,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.applier == nil {
		s.applier = edits.NewApplier(nil, nil)
	}

	system, err := prompts.ChatSystemPrompt(prompts.ChatContext{
		ProjectName:  pc.Name,
		Technologies: pc.Technologies(),
		Root:         pc.Root,
		Files:        s.listFile(pc.Root),
		Rules:        s.rules,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build chat prompt: %w", err)
	}

	s.history = []engine.ChatMessage{
		engine.SystemMessage(system),
		engine.AssistantMessage(prompts.Greeting(pc.Name, pc.Root)),
	}
	return s, nil
}

// VisibleFiles lists the project's files minus everything its ignore rules
// exclude.
func VisibleFiles(root string) []string {
	return vcs.LoadIgnore(root).Filter(workspace.Files(root))
}

// Project returns the project this session talks about.
func (s *Session) Project() *workspace.ProjectContext {
	return s.project
}

// Greeting returns the assistant's opening message.
func (s *Session) Greeting() string {
	return s.history[1].Content
}

// History returns a copy of the conversation so far.
func (s *Session) History() []engine.ChatMessage {
	return slices.Clone(s.history)
}

// Round sends input to the collaborator and applies the edits in its reply.
//
// A collaborator failure returns an error wrapping engine.ErrCollaborator;
// the user message stays in the history and the session remains usable.
func (s *Session) Round(ctx context.Context, input string) (*Reply, error) {
	changed := s.changes != nil && s.changes.TakeChanged()
	if changed || s.dirty {
		s.history = append(s.history, engine.SystemMessage(prompts.RefreshedListing(s.listFile(s.project.Root))))
		s.dirty = false
	}
	s.history = append(s.history, engine.UserMessage(input))

	opts := engine.ChatOptions{
		Temperature:     chatTemperature,
		MaxOutputTokens: engine.DefaultMaxOutputTokens,
		RetryConfig:     s.retry,
	}
	resp, err := engine.ChatWithRetry(ctx, s.llm, s.model, s.History(), opts, logRetry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrCollaborator, err)
	}
	raw := resp.Assistant.Content

	parsed := edits.ParseDetailed(raw)
	if err := parsed.Err(); err != nil {
		log.Printf("⚠️  Ignoring reply tail: %v", err)
	}

	outcomes := s.applier.ApplyAll(ctx, s.project.Root, parsed.Instructions)
	for _, o := range outcomes {
		if o.Created {
			s.dirty = true
		}
		s.record(ctx, o)
	}

	text := render.Substitute(raw, parsed.Instructions, outcomes)
	s.history = append(s.history, engine.AssistantMessage(raw))

	return &Reply{
		Text:     s.renderer.Reflow(text),
		Raw:      raw,
		Outcomes: outcomes,
	}, nil
}

func (s *Session) record(ctx context.Context, o edits.Outcome) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.Record(ctx, entryFromOutcome(s.ID, s.project.Root, o)); err != nil {
		log.Printf("⚠️  journal write failed: %v", err)
	}
}

func logRetry(attempt int, delay time.Duration, err error) {
	log.Printf("🔁 Collaborator call failed (attempt %d), retrying in %s: %v", attempt, delay.Round(time.Millisecond), err)
}
