// Package builder turns a project idea into a materialized project: it asks
// the collaborator for a plan, writes the plan to disk and puts the result
// under version control.
package builder

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/abdul-mstfa/projectgen/internal/engine"
	"github.com/abdul-mstfa/projectgen/internal/prompts"
	"github.com/abdul-mstfa/projectgen/internal/scaffold"
)

// planTemperature matches the creativity used for project plans.
const planTemperature = 0.7

// Initializer puts a freshly written project under version control.
type Initializer interface {
	Init(ctx context.Context, root string) error
}

// Result describes a materialized project.
type Result struct {
	Plan  *scaffold.Plan
	Root  string
	Files int
	Dirs  int
	// Versioned is true when the project was committed to a new repository.
	Versioned bool
}

// Builder runs the plan-then-materialize pipeline.
type Builder struct {
	llm          engine.LLMClient
	model        string
	materializer *scaffold.Materializer
	vcs          Initializer
	retry        *engine.RetryConfig
	onPlan       func(*scaffold.Plan)
}

// Option configures a Builder.
type Option func(*Builder)

// WithVCS sets the version-control initializer run after materialization.
func WithVCS(vcs Initializer) Option {
	return func(b *Builder) {
		b.vcs = vcs
	}
}

// WithRetryConfig overrides the collaborator retry policy.
func WithRetryConfig(cfg engine.RetryConfig) Option {
	return func(b *Builder) {
		b.retry = &cfg
	}
}

// WithOnPlan calls fn with the parsed plan before anything is written.
func WithOnPlan(fn func(*scaffold.Plan)) Option {
	return func(b *Builder) {
		b.onPlan = fn
	}
}

// New creates a Builder. A nil materializer writes to the OS filesystem and
// declines every overwrite.
func New(llm engine.LLMClient, model string, m *scaffold.Materializer, opts ...Option) *Builder {
	if m == nil {
		m = scaffold.NewMaterializer(nil, nil)
	}
	b := &Builder{llm: llm, model: model, materializer: m}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Plan asks the collaborator for a project plan for idea.
func (b *Builder) Plan(ctx context.Context, idea string) (*scaffold.Plan, error) {
	system, err := prompts.PlanSystemPrompt()
	if err != nil {
		return nil, fmt.Errorf("failed to build plan prompt: %w", err)
	}

	messages := []engine.ChatMessage{
		engine.SystemMessage(system),
		engine.UserMessage(prompts.PlanUserMessage(idea)),
	}
	opts := engine.ChatOptions{
		Temperature:     planTemperature,
		MaxOutputTokens: engine.DefaultMaxOutputTokens,
		JSONMode:        true,
		RetryConfig:     b.retry,
	}

	resp, err := engine.ChatWithRetry(ctx, b.llm, b.model, messages, opts, logRetry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrCollaborator, err)
	}
	if resp.FinishReason == "length" {
		log.Printf("⚠️  Plan response was truncated at %d tokens", engine.DefaultMaxOutputTokens)
	}

	return scaffold.ParsePlan(resp.Assistant.Content)
}

// Build plans and materializes idea under projectsDir. Version control is
// best-effort: its failure is logged and the project is still returned.
func (b *Builder) Build(ctx context.Context, idea, projectsDir string) (*Result, error) {
	plan, err := b.Plan(ctx, idea)
	if err != nil {
		return nil, err
	}

	if b.onPlan != nil {
		b.onPlan(plan)
	}

	root, err := b.materializer.Materialize(plan, projectsDir)
	if err != nil {
		return nil, err
	}

	files, dirs := plan.Counts()
	log.Printf("📦 Materialized %s: %d files, %d directories", root, files, dirs)

	res := &Result{Plan: plan, Root: root, Files: files, Dirs: dirs}
	if b.vcs != nil {
		if err := b.vcs.Init(ctx, root); err != nil {
			log.Printf("⚠️  git initialization failed: %v", err)
		} else {
			res.Versioned = true
		}
	}
	return res, nil
}

func logRetry(attempt int, delay time.Duration, err error) {
	log.Printf("🔁 Collaborator call failed (attempt %d), retrying in %s: %v", attempt, delay.Round(time.Millisecond), err)
}
