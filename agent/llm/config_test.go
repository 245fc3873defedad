package llm

import (
	"errors"
	"testing"

	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
)

func baseConfig() Config {
	return Config{
		BaseURL:               "https://openrouter.ai/api/v1",
		APIKey:                " key ",
		Model:                 "openai/gpt-4o-mini",
		MaxCompletionToken:    1500,
		Temperature:           0.1,
		DispatcherTemperature: -1,
		DecomposerTemperature: 0,
		AggregatorTemperature: -1,
		KnowledgeTemperature:  -1,
	}
}

func TestOpenRouterForRoleOverrides(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.DecomposerModel = "x-ai/grok-4.1-fast"

	dec := cfg.OpenRouterFor(RoleDecomposer)
	if dec.Model != "x-ai/grok-4.1-fast" || dec.Temperature != 0 {
		t.Fatalf("unexpected decomposer config: %+v", dec)
	}
	if dec.APIKey != "key" {
		t.Fatalf("api key must be trimmed, got %q", dec.APIKey)
	}

	disp := cfg.OpenRouterFor(RoleDispatcher)
	if disp.Model != "openai/gpt-4o-mini" || disp.Temperature != 0.1 {
		t.Fatalf("unexpected dispatcher config: %+v", disp)
	}
	if disp.MaxCompletionToken == nil || *disp.MaxCompletionToken != 1500 {
		t.Fatal("max completion token must be carried over")
	}
}

func TestEmbeddingConfigUsesOwnBaseURL(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	if got := cfg.EmbeddingConfig().BaseURL; got != cfg.BaseURL {
		t.Fatalf("expected default base url, got %s", got)
	}
	cfg.EmbeddingBaseURL = "https://api.openai.com/v1"
	if got := cfg.EmbeddingConfig().BaseURL; got != "https://api.openai.com/v1" {
		t.Fatalf("unexpected embedding base url: %s", got)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.APIKey = " "
	if err := cfg.Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
