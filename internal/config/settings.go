package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-mstfa/projectgen/internal/providers"
	"github.com/joho/godotenv"
)

const (
	// ProjectsDirEnv overrides where new projects are created.
	ProjectsDirEnv = "PROJECT_GEN_DIR"
	// DefaultProjectsDir is used when nothing else is configured.
	DefaultProjectsDir = "~/projects"
)

// Overrides carries values given explicitly on the command line.
type Overrides struct {
	Provider    string
	APIKey      string
	Model       string
	ProjectsDir string
}

// Settings is the effective configuration after layering.
type Settings struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	ProjectsDir string
}

// LoadDotEnv loads .env from the working directory if one exists.
// Variables already set in the environment are left alone.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Resolve layers flags over environment over the config file over defaults.
// cfg may be nil.
func Resolve(flags Overrides, cfg *Config) (Settings, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	provider := strings.ToLower(firstNonEmpty(flags.Provider, os.Getenv("LLM_PROVIDER"), cfg.LLMProvider, providers.DefaultProvider))
	prefix, ok := providers.EnvPrefix(provider)
	if !ok {
		return Settings{}, fmt.Errorf("unknown provider %q (supported: %s)", provider, strings.Join(providers.SupportedProviders(), ", "))
	}

	// File values only apply to the provider they were saved for.
	fileCfg := *cfg
	if cfg.LLMProvider != "" && !strings.EqualFold(cfg.LLMProvider, provider) {
		fileCfg = Config{ProjectsDir: cfg.ProjectsDir}
	}

	projectsDir, err := ExpandHome(firstNonEmpty(flags.ProjectsDir, os.Getenv(ProjectsDirEnv), cfg.ProjectsDir, DefaultProjectsDir))
	if err != nil {
		return Settings{}, err
	}
	if projectsDir, err = filepath.Abs(projectsDir); err != nil {
		return Settings{}, fmt.Errorf("failed to resolve projects dir: %w", err)
	}

	return Settings{
		Provider:    provider,
		APIKey:      firstNonEmpty(flags.APIKey, os.Getenv(prefix+"_API_KEY"), fileCfg.APIKey),
		Model:       firstNonEmpty(flags.Model, os.Getenv(prefix+"_MODEL"), fileCfg.Model),
		BaseURL:     firstNonEmpty(os.Getenv(prefix+"_BASE_URL"), fileCfg.BaseURL),
		ProjectsDir: projectsDir,
	}, nil
}

// ApplyToEnv exports s into the variables providers.NewLLMClientFromEnv reads.
// Empty fields leave the environment untouched.
func ApplyToEnv(s Settings) error {
	prefix, ok := providers.EnvPrefix(s.Provider)
	if !ok {
		return fmt.Errorf("unknown provider %q", s.Provider)
	}

	vars := [][2]string{
		{"LLM_PROVIDER", s.Provider},
		{prefix + "_API_KEY", s.APIKey},
		{prefix + "_MODEL", s.Model},
		{prefix + "_BASE_URL", s.BaseURL},
		{ProjectsDirEnv, s.ProjectsDir},
	}
	for _, kv := range vars {
		if kv[1] == "" {
			continue
		}
		if err := os.Setenv(kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to set %s: %w", kv[0], err)
		}
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
