package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/abdul-mstfa/projectgen/internal/builder"
	"github.com/abdul-mstfa/projectgen/internal/config"
	"github.com/abdul-mstfa/projectgen/internal/edits"
	"github.com/abdul-mstfa/projectgen/internal/engine"
	"github.com/abdul-mstfa/projectgen/internal/project"
	"github.com/abdul-mstfa/projectgen/internal/render"
	"github.com/abdul-mstfa/projectgen/internal/scaffold"
	"github.com/abdul-mstfa/projectgen/internal/search"
	"github.com/abdul-mstfa/projectgen/internal/session"
	"github.com/abdul-mstfa/projectgen/internal/vcs"
	"github.com/abdul-mstfa/projectgen/internal/watch"
	"github.com/abdul-mstfa/projectgen/internal/workspace"
)

const (
	rule   = "=================================================="
	footer = "======================="

	historyLimit = 20
)

// versionControl initializes new projects and snapshots applied edits.
type versionControl interface {
	builder.Initializer
	edits.Snapshotter
	IsRepository(ctx context.Context, root string) bool
}

// editJournal records edit outcomes and lists them per project.
type editJournal interface {
	session.Recorder
	History(ctx context.Context, root string, limit int) ([]session.JournalEntry, error)
}

type assistantDeps struct {
	LLM         engine.LLMClient
	Model       string
	ProjectsDir string
	VCS         versionControl // optional
	Journal     editJournal    // optional
	Retry       *engine.RetryConfig
}

// assistant is the interactive front end: it owns the terminal and the
// current project.
type assistant struct {
	deps        assistantDeps
	lines       *lineReader
	out         io.Writer
	styles      render.Styles
	interactive bool

	current *workspace.ProjectContext
}

func newAssistant(deps assistantDeps, in io.Reader, out io.Writer) *assistant {
	styles := render.PlainStyles()
	if isTerminal(out) {
		styles = render.NewStyles()
	}
	return &assistant{
		deps:        deps,
		lines:       newLineReader(in),
		out:         out,
		styles:      styles,
		interactive: isTerminal(in),
	}
}

// Close releases the input reader.
func (a *assistant) Close() {
	a.lines.Close()
}

func (a *assistant) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *assistant) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func isExit(cmd string) bool {
	switch cmd {
	case "@exit", "@quit", "@bye":
		return true
	}
	return false
}

// directive splits "@cmd rest" into a lowercase command and its argument.
func directive(line string) (string, string) {
	line = strings.TrimSpace(line)
	cmd, arg, _ := strings.Cut(line, " ")
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}

// repl is the top-level loop: build projects and enter chat mode.
func (a *assistant) repl(ctx context.Context) error {
	a.println()
	a.println(a.styles.Header.Render("===== AI Project Assistant ====="))
	a.println("Type '@build [prompt]' to create a new project")
	a.println("Type '@chat [project_path]' to chat about an existing project")
	a.println("Type '@exit' to quit")
	a.println("==============================")
	a.println()

	for {
		a.printf("> ")
		line, ok := a.lines.ReadLine(ctx)
		if !ok {
			a.println()
			a.println("Exiting...")
			return nil
		}

		cmd, arg := directive(line)
		switch {
		case isExit(cmd):
			a.println("Exiting...")
			return nil

		case cmd == "@build":
			if arg == "" {
				a.println("Please provide a project idea")
				continue
			}
			if err := a.build(ctx, arg); err != nil {
				if errors.Is(err, scaffold.ErrMalformedPlan) || ctx.Err() != nil {
					return err
				}
				a.println(a.styles.Error.Render("Error: " + err.Error()))
			}

		case cmd == "@chat":
			if err := a.chat(ctx, arg); err != nil {
				return err
			}

		case cmd == "@help":
			a.help()

		default:
			a.println("Unknown command. Type '@help' for a list of commands.")
		}
	}
}

// build generates a project from idea and makes it the current project.
// A declined overwrite is not an error.
func (a *assistant) build(ctx context.Context, idea string) error {
	a.println("Generating project plan...")

	materializer := scaffold.NewMaterializer(nil, func(root string) bool {
		return a.confirmOverwrite(ctx, root)
	})
	opts := []builder.Option{builder.WithOnPlan(a.printPlan)}
	if a.deps.VCS != nil {
		opts = append(opts, builder.WithVCS(a.deps.VCS))
	}
	if a.deps.Retry != nil {
		opts = append(opts, builder.WithRetryConfig(*a.deps.Retry))
	}

	res, err := builder.New(a.deps.LLM, a.deps.Model, materializer, opts...).Build(ctx, idea, a.deps.ProjectsDir)
	switch {
	case errors.Is(err, scaffold.ErrDeclined):
		a.println("Aborted.")
		return nil
	case errors.Is(err, scaffold.ErrMalformedPlan):
		return fmt.Errorf("error parsing project plan: %w", err)
	case err != nil:
		return err
	}

	a.current = workspace.NewProjectContext(res.Root, res.Plan.Name, res.Plan.Technologies...)

	a.println()
	a.println(a.styles.Success.Render("Project created at: " + res.Root))
	if res.Versioned {
		a.println("Git repository initialized")
	}
	a.println()
	a.println("Next steps:")
	for i, step := range scaffold.NextSteps(res.Root, res.Plan.Technologies) {
		a.printf("%d. %s\n", i+1, step)
	}
	return nil
}

func (a *assistant) printPlan(p *scaffold.Plan) {
	a.println()
	a.println(rule)
	a.printf("Project: %s\n", p.Name)
	a.printf("Description: %s\n", p.Description)
	a.printf("Technologies: %s\n", strings.Join(p.Technologies, ", "))
	a.println(rule)
	a.println()
}

// confirmOverwrite asks before reusing an existing project directory.
// Without a terminal to ask on, it declines.
func (a *assistant) confirmOverwrite(ctx context.Context, root string) bool {
	if !a.interactive {
		a.printf("Project directory %s already exists and input is not a terminal; not overwriting.\n", root)
		return false
	}
	a.printf("Project directory %s already exists. Overwrite? (y/n): ", root)
	line, ok := a.lines.ReadLine(ctx)
	return ok && strings.EqualFold(strings.TrimSpace(line), "y")
}

// chat runs chat mode on path, or on the current project when path is empty.
func (a *assistant) chat(ctx context.Context, path string) error {
	pc, ok := a.selectProject(path)
	if !ok {
		return nil
	}

	cfg, err := project.LoadConfig(pc.Root)
	if err != nil {
		log.Printf("⚠️  %v (using defaults)", err)
	}
	rules, err := project.LoadRules(pc.Root)
	if err != nil {
		log.Printf("⚠️  %v", err)
	}

	var snap edits.Snapshotter
	if a.deps.VCS != nil && cfg.Snapshotting() {
		if a.deps.VCS.IsRepository(ctx, pc.Root) {
			snap = a.deps.VCS
		} else {
			log.Printf("⚠️  %s is not a git repository; edits will not be committed", pc.Root)
		}
	}

	opts := []session.Option{
		session.WithRenderer(render.NewRenderer(a.styles)),
		session.WithRules(rules),
	}
	if a.deps.Journal != nil {
		opts = append(opts, session.WithJournal(a.deps.Journal))
	}
	if a.deps.Retry != nil {
		opts = append(opts, session.WithRetryConfig(*a.deps.Retry))
	}
	if cfg.Watching() {
		w, err := watch.Start(pc.Root, vcs.LoadIgnore(pc.Root))
		if err != nil {
			log.Printf("⚠️  Failed to watch %s: %v", pc.Root, err)
		} else {
			defer w.Close()
			opts = append(opts, session.WithChangeSource(w))
		}
	}

	s, err := session.Open(pc, a.deps.LLM, a.deps.Model, edits.NewApplier(nil, snap), opts...)
	if err != nil {
		return err
	}
	a.current = pc
	log.Printf("💬 Chat session %s for %s", s.ID, pc.Root)
	if pc.HasTechnology(workspace.TechUnknown) {
		log.Printf("⚠️  Could not infer technologies for %s", pc.Root)
	}

	a.println()
	a.println(rule)
	a.printf("Interactive chat for %s at %s\n", pc.Name, pc.Root)
	a.println("Type '@exit' to quit, '@files' to list files, '@read [filepath]' to read a file")
	a.println(rule)
	a.println()
	a.println(s.Greeting())

	for {
		a.printf("\n> ")
		line, ok := a.lines.ReadLine(ctx)
		if !ok {
			a.println()
			a.println("Exiting chat...")
			return nil
		}

		cmd, arg := directive(line)
		switch {
		case isExit(cmd):
			a.println("Exiting chat...")
			return nil
		case cmd == "@files" && arg == "":
			a.listFiles(pc.Root)
		case cmd == "@read" && arg != "":
			a.readFile(pc.Root, arg)
		case cmd == "@find" && arg != "":
			a.find(pc.Root, arg)
		case cmd == "@history" && arg == "":
			a.history(ctx, pc.Root)
		case cmd == "@help" && arg == "":
			a.help()
		case strings.TrimSpace(line) == "":
			continue
		default:
			a.round(ctx, s, line)
		}
	}
}

func (a *assistant) selectProject(path string) (*workspace.ProjectContext, bool) {
	if path == "" {
		if a.current == nil {
			a.println("No project selected. Please use @build first or specify a project path.")
			return nil, false
		}
		return a.current, true
	}

	expanded, err := config.ExpandHome(path)
	if err != nil {
		expanded = path
	}
	pc, err := workspace.Inspect(expanded)
	if err != nil {
		log.Printf("⚠️  %v", err)
		a.printf("Could not load project information from %s\n", path)
		return nil, false
	}
	return pc, true
}

func (a *assistant) round(ctx context.Context, s *session.Session, input string) {
	a.println()
	a.println(a.styles.Subtle.Render("Thinking..."))

	reply, err := s.Round(ctx, input)
	if err != nil {
		a.println(a.styles.Error.Render("Error getting response: " + err.Error()))
		if engine.IsRetryExhausted(err) {
			a.println("The assistant is unavailable right now. Your message is kept; try again in a moment.")
		}
		return
	}
	a.println()
	a.println(reply.Text)
}

func (a *assistant) listFiles(root string) {
	a.println()
	a.println(a.styles.Header.Render("===== Project Files ====="))
	for f := range workspace.ListFiles(root) {
		a.println(f)
	}
	a.println(footer)
	a.println()
}

// readFile prints a project file. The path goes through the same checks as
// edits, so nothing outside the project can be read.
func (a *assistant) readFile(root, rel string) {
	target, err := workspace.Resolve(root, rel)
	if err != nil {
		a.printf("Error reading file: %v\n", err)
		return
	}
	data, err := os.ReadFile(target)
	if err != nil {
		a.printf("Error reading file: %v\n", err)
		return
	}

	a.println()
	a.println(a.styles.Header.Render(fmt.Sprintf("===== File: %s =====", rel)))
	a.println(string(data))
	a.println(footer)
	a.println()
}

func (a *assistant) find(root, q string) {
	ix, err := search.Build(root, session.VisibleFiles(root))
	if err != nil {
		a.printf("Search failed: %v\n", err)
		return
	}
	defer ix.Close()

	hits, err := ix.Search(q, search.DefaultLimit)
	if err != nil {
		a.printf("Search failed: %v\n", err)
		return
	}

	a.println()
	a.println(a.styles.Header.Render(fmt.Sprintf("===== Search: %s =====", q)))
	if len(hits) == 0 {
		a.printf("No matches in %d files.\n", ix.Len())
	}
	for _, h := range hits {
		a.println(h.Path)
	}
	a.println(footer)
	a.println()
}

func (a *assistant) history(ctx context.Context, root string) {
	if a.deps.Journal == nil {
		a.println("Edit history is unavailable.")
		return
	}
	entries, err := a.deps.Journal.History(ctx, root, historyLimit)
	if err != nil {
		a.printf("Failed to read edit history: %v\n", err)
		return
	}

	a.println()
	a.println(a.styles.Header.Render("===== Edit History ====="))
	if len(entries) == 0 {
		a.println("No edits yet.")
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-7s  %s", e.CreatedAt.Format("2006-01-02 15:04"), e.Status, e.Path)
		if e.Reason != "" {
			line += ": " + e.Reason
		}
		a.println(line)
	}
	a.println(footer)
	a.println()
}

func (a *assistant) help() {
	a.println()
	a.println(a.styles.Header.Render("===== Chat Mode Commands ====="))
	a.println("@build [prompt] - Build a new project")
	a.println("@chat [project_path] - Start chat mode for a project")
	a.println("@exit - Exit the current mode")
	a.println("@files - List files in the current project")
	a.println("@read [filepath] - Read the contents of a file")
	a.println("@find [query] - Search the current project's files")
	a.println("@history - Show recent edits to the current project")
	a.println("@help - Show this help message")
	a.println("============================")
	a.println()
}
