package specialist

import (
	"context"
	"fmt"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
	llmx "github.com/tanpawarit/Chative-Shop-Assistant/agent/llm"
	promptx "github.com/tanpawarit/Chative-Shop-Assistant/agent/prompt"
)

// Registry bundles the model-backed components of the orchestrator.
type Registry struct {
	dispatcher contractx.Dispatcher
	decomposer contractx.Decomposer
	aggregator contractx.Aggregator
}

func (r *Registry) Dispatcher() contractx.Dispatcher {
	return r.dispatcher
}

func (r *Registry) Decomposer() contractx.Decomposer {
	return r.decomposer
}

func (r *Registry) Aggregator() contractx.Aggregator {
	return r.aggregator
}

func NewRegistry(ctx context.Context, cfg llmx.Config, capabilityTimeout time.Duration) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dispatcherModelCfg := cfg.OpenRouterFor(llmx.RoleDispatcher)
	dispatcherModel, err := dispatcherModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create dispatcher model: %v", contractx.ErrModelInvoke, err)
	}
	decomposerModelCfg := cfg.OpenRouterFor(llmx.RoleDecomposer)
	decomposerModel, err := decomposerModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create decomposer model: %v", contractx.ErrModelInvoke, err)
	}
	aggregatorModelCfg := cfg.OpenRouterFor(llmx.RoleAggregator)
	aggregatorModel, err := aggregatorModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create aggregator model: %v", contractx.ErrModelInvoke, err)
	}

	return NewRegistryWithModels(ctx, dispatcherModel, decomposerModel, aggregatorModel, capabilityTimeout)
}

// NewRegistryWithModels builds the components from already constructed chat models.
func NewRegistryWithModels(
	ctx context.Context,
	dispatcherModel einomodel.ToolCallingChatModel,
	decomposerModel einomodel.BaseChatModel,
	aggregatorModel einomodel.BaseChatModel,
	capabilityTimeout time.Duration,
) (*Registry, error) {
	prompts := promptx.LoadPromptSet()

	dispatcher, err := newDispatcher(dispatcherModel, prompts.Dispatcher, capabilityTimeout)
	if err != nil {
		return nil, err
	}
	decomposer, err := newDecomposer(ctx, decomposerModel, prompts.Decomposer)
	if err != nil {
		return nil, err
	}
	aggregator, err := newAggregator(ctx, aggregatorModel, prompts.Aggregator)
	if err != nil {
		return nil, err
	}

	return &Registry{
		dispatcher: dispatcher,
		decomposer: decomposer,
		aggregator: aggregator,
	}, nil
}
