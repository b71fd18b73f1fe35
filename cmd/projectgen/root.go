package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-mstfa/projectgen/internal/config"
)

type rootOptions struct {
	apiKey      string
	provider    string
	model       string
	projectsDir string
	verbose     bool
}

func (o *rootOptions) overrides() config.Overrides {
	return config.Overrides{
		Provider:    o.provider,
		APIKey:      o.apiKey,
		Model:       o.model,
		ProjectsDir: o.projectsDir,
	}
}

// newRootCommand creates the root command. Without a subcommand it starts
// the interactive assistant.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "projectgen",
		Short: "AI project assistant",
		Long: `projectgen turns a project idea into a generated file tree and lets you
chat about an existing project while the assistant edits its files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configureLogging(opts.verbose, cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAssistant(cmd, opts, func(ctx context.Context, a *assistant) error {
				return a.repl(ctx)
			})
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.apiKey, "api-key", "", "API key for the model provider")
	flags.StringVar(&opts.provider, "provider", "", "Model provider (openai, anthropic, ollama, ...)")
	flags.StringVar(&opts.model, "model", "", "Model to use (default: gpt-4o for openai)")
	flags.StringVar(&opts.projectsDir, "projects-dir", "", "Directory to create projects in (default: ~/projects)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Print diagnostic logs to stderr")

	rootCmd.AddCommand(newBuildCommand(opts))
	rootCmd.AddCommand(newChatCommand(opts))
	return rootCmd
}

func newBuildCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "build [idea]",
		Short: "Generate a new project from an idea",
		Long: `Generate a new project from a natural-language idea. Without an idea
argument you are asked to describe one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssistant(cmd, opts, func(ctx context.Context, a *assistant) error {
				idea := strings.TrimSpace(strings.Join(args, " "))
				if idea == "" {
					a.printf("Describe your project idea: ")
					line, ok := a.lines.ReadLine(ctx)
					if !ok {
						return nil
					}
					idea = strings.TrimSpace(line)
				}
				if idea == "" {
					a.println("Please provide a project idea")
					return nil
				}
				return a.build(ctx, idea)
			})
		},
	}
}

func newChatCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [project_path]",
		Short: "Chat about an existing project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAssistant(cmd, opts, func(ctx context.Context, a *assistant) error {
				path := ""
				if len(args) == 1 {
					path = args[0]
				}
				return a.chat(ctx, path)
			})
		},
	}
}

// withAssistant prepares the runtime and runs fn until it returns or the
// user interrupts.
func withAssistant(cmd *cobra.Command, opts *rootOptions, fn func(context.Context, *assistant) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	env, err := prepareRuntimeEnv(ctx, opts.overrides())
	if err != nil {
		return err
	}
	defer env.Close()

	a := newAssistant(env.deps(), cmd.InOrStdin(), cmd.OutOrStdout())
	defer a.Close()
	err = fn(ctx, a)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// configureLogging keeps diagnostics off the terminal unless asked for, so
// they don't interleave with chat output.
func configureLogging(verbose bool, stderr io.Writer) {
	if !verbose {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(stderr)
}
