package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/abdul-mstfa/projectgen/internal/config"
	"github.com/abdul-mstfa/projectgen/internal/engine"
	"github.com/abdul-mstfa/projectgen/internal/providers"
	"github.com/abdul-mstfa/projectgen/internal/session"
	"github.com/abdul-mstfa/projectgen/internal/vcs"
)

type runtimeEnv struct {
	Settings config.Settings
	LLM      engine.LLMClient
	Model    string
	Git      *vcs.Git
	Journal  *session.Journal
}

func (r *runtimeEnv) Close() {
	if r.Journal != nil {
		if err := r.Journal.Close(); err != nil {
			log.Printf("⚠️  Failed to close journal: %v", err)
		}
	}
}

// deps hands the collaborators to the assistant, leaving optional ones unset
// when they are unavailable.
func (r *runtimeEnv) deps() assistantDeps {
	d := assistantDeps{
		LLM:         r.LLM,
		Model:       r.Model,
		ProjectsDir: r.Settings.ProjectsDir,
	}
	if r.Git != nil {
		d.VCS = r.Git
	}
	if r.Journal != nil {
		d.Journal = r.Journal
	}
	return d
}

func prepareRuntimeEnv(ctx context.Context, flags config.Overrides) (*runtimeEnv, error) {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("⚠️  %v", err)
	}

	// Load User Configuration
	var userConfig *config.Config
	cfgManager, err := config.NewManager()
	if err != nil {
		log.Printf("⚠️  Failed to initialize config manager: %v", err)
	} else if userConfig, err = cfgManager.Load(); err != nil {
		log.Printf("⚠️  Failed to load user config: %v", err)
		userConfig = nil
	} else if cfgManager.Exists() {
		log.Printf("User config loaded from: %s", cfgManager.GetConfigPath())
	}

	settings, err := config.Resolve(flags, userConfig)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyToEnv(settings); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(settings.ProjectsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create projects directory: %w", err)
	}
	log.Printf("Projects directory: %s", settings.ProjectsDir)

	llm, model, err := providers.NewLLMClientFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	log.Printf("🧠 Using %s model %s", settings.Provider, model)

	env := &runtimeEnv{Settings: settings, LLM: llm, Model: model}

	git := vcs.NewGit()
	if git.IsInstalled(ctx) {
		env.Git = git
	} else {
		log.Printf("⚠️  git not found; projects will not be version controlled")
	}

	if cfgManager != nil {
		env.Journal = openJournal(ctx, cfgManager.Dir())
	}

	return env, nil
}

func openJournal(ctx context.Context, dir string) *session.Journal {
	if err := os.MkdirAll(dir, 0700); err != nil {
		log.Printf("⚠️  Failed to create config directory: %v (edit history disabled)", err)
		return nil
	}
	journal, err := session.OpenJournal(ctx, filepath.Join(dir, session.JournalFile))
	if err != nil {
		log.Printf("⚠️  Failed to open journal: %v (edit history disabled)", err)
		return nil
	}
	return journal
}
