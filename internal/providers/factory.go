// Package providers implements engine.LLMClient for the supported collaborator backends.
package providers

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/abdul-mstfa/projectgen/internal/engine"
)

// DefaultProvider is used when LLM_PROVIDER is unset.
const DefaultProvider = "openai"

// compatibleEndpoint describes an OpenAI-compatible backend. Env var names
// are derived from Prefix: <PREFIX>_API_KEY, <PREFIX>_MODEL, <PREFIX>_BASE_URL.
type compatibleEndpoint struct {
	Prefix       string
	DefaultModel string
	DefaultURL   string
	// Local servers accept any key.
	DefaultKey string
}

var compatibleEndpoints = map[string]compatibleEndpoint{
	"openai":   {Prefix: "OPENAI", DefaultModel: "gpt-4o"},
	"ollama":   {Prefix: "OLLAMA", DefaultModel: "llama3.1", DefaultURL: "http://localhost:11434/v1", DefaultKey: "ollama"},
	"lmstudio": {Prefix: "LMSTUDIO", DefaultModel: "local-model", DefaultURL: "http://localhost:1234/v1", DefaultKey: "lm-studio"},
	"deepseek": {Prefix: "DEEPSEEK", DefaultModel: "deepseek-chat", DefaultURL: "https://api.deepseek.com/v1"},
	"groq":     {Prefix: "GROQ", DefaultModel: "llama-3.1-70b-versatile", DefaultURL: "https://api.groq.com/openai/v1"},
	"gemini":   {Prefix: "GEMINI", DefaultModel: "gemini-1.5-flash", DefaultURL: "https://generativelanguage.googleapis.com/v1beta/openai"},
}

// SupportedProviders lists every accepted LLM_PROVIDER value, sorted.
func SupportedProviders() []string {
	names := []string{"anthropic"}
	for name := range compatibleEndpoints {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// EnvPrefix returns the environment variable prefix a provider reads its
// key, model and base URL from.
func EnvPrefix(provider string) (string, bool) {
	if provider == "anthropic" {
		return "ANTHROPIC", true
	}
	ep, ok := compatibleEndpoints[provider]
	return ep.Prefix, ok
}

// NewLLMClientFromEnv creates an engine.LLMClient based on environment
// variables and returns it with the resolved model name.
func NewLLMClientFromEnv() (engine.LLMClient, string, error) {
	provider := strings.ToLower(os.Getenv("LLM_PROVIDER"))
	if provider == "" {
		provider = DefaultProvider
	}

	if provider == "anthropic" {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, "", fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		modelName := envOr("ANTHROPIC_MODEL", "claude-3-5-sonnet-latest")
		client, err := NewAnthropicClient(apiKey, modelName)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Anthropic client: %w", err)
		}
		return client, modelName, nil
	}

	ep, ok := compatibleEndpoints[provider]
	if !ok {
		return nil, "", fmt.Errorf("unknown LLM_PROVIDER: %s (supported: %s)", provider, strings.Join(SupportedProviders(), ", "))
	}

	apiKey := envOr(ep.Prefix+"_API_KEY", ep.DefaultKey)
	if apiKey == "" {
		return nil, "", fmt.Errorf("%s_API_KEY not set", ep.Prefix)
	}
	modelName := envOr(ep.Prefix+"_MODEL", ep.DefaultModel)
	baseURL := envOr(ep.Prefix+"_BASE_URL", ep.DefaultURL)

	client, err := NewOpenAIClient(apiKey, modelName, baseURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create %s client: %w", provider, err)
	}
	return client, modelName, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
