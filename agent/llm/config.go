package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
	openrouterx "github.com/tanpawarit/Chative-Shop-Assistant/pkg/openrouter"
)

// Role names a model-backed component. Each role may override the default model and temperature.
type Role string

const (
	RoleDispatcher Role = "dispatcher"
	RoleDecomposer Role = "decomposer"
	RoleAggregator Role = "aggregator"
	RoleKnowledge  Role = "knowledge"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"openai/gpt-4o-mini"`
	EmbeddingBaseURL   string        `envconfig:"EMBEDDING_BASE_URL" split_words:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1500"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.1"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	DispatcherModel       string  `envconfig:"DISPATCHER_MODEL" split_words:"true"`
	DecomposerModel       string  `envconfig:"DECOMPOSER_MODEL" split_words:"true"`
	AggregatorModel       string  `envconfig:"AGGREGATOR_MODEL" split_words:"true"`
	KnowledgeModel        string  `envconfig:"KNOWLEDGE_MODEL" split_words:"true"`
	DispatcherTemperature float32 `envconfig:"DISPATCHER_TEMPERATURE" split_words:"true" default:"-1"`
	DecomposerTemperature float32 `envconfig:"DECOMPOSER_TEMPERATURE" split_words:"true" default:"-1"`
	AggregatorTemperature float32 `envconfig:"AGGREGATOR_TEMPERATURE" split_words:"true" default:"-1"`
	KnowledgeTemperature  float32 `envconfig:"KNOWLEDGE_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	if c.MaxCompletionToken <= 0 {
		return fmt.Errorf("%w: max completion token must be > 0", contractx.ErrValidation)
	}
	return nil
}

func (c Config) OpenRouterFor(role Role) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	override := func(m string, t float32) {
		if v := strings.TrimSpace(m); v != "" {
			modelName = v
		}
		if t >= 0 {
			temp = t
		}
	}
	switch role {
	case RoleDispatcher:
		override(c.DispatcherModel, c.DispatcherTemperature)
	case RoleDecomposer:
		override(c.DecomposerModel, c.DecomposerTemperature)
	case RoleAggregator:
		override(c.AggregatorModel, c.AggregatorTemperature)
	case RoleKnowledge:
		override(c.KnowledgeModel, c.KnowledgeTemperature)
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

// EmbeddingConfig returns the client config used for embeddings. Embeddings go to
// EmbeddingBaseURL when set, since not every chat gateway serves the embeddings endpoint.
func (c Config) EmbeddingConfig() openrouterx.Config {
	conf := c.OpenRouterFor(RoleKnowledge)
	if v := strings.TrimSpace(c.EmbeddingBaseURL); v != "" {
		conf.BaseURL = v
	}
	return conf
}
