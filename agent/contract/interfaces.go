package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Capability is a named unit of work the model can call. Invoke receives the JSON arguments the
// model produced and returns user-presentable prose.
type Capability interface {
	Info() *schema.ToolInfo
	Invoke(ctx context.Context, argsJSON string) (string, error)
}

// CapabilitySet is the per-user catalog of capabilities, looked up by name.
type CapabilitySet interface {
	Infos() []*schema.ToolInfo
	Lookup(name string) (Capability, bool)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, caps CapabilitySet, req DispatchRequest) (DispatchOutput, error)
}

type Decomposer interface {
	Decompose(ctx context.Context, query string) (Decomposition, error)
}

type Aggregator interface {
	Aggregate(ctx context.Context, req AggregateRequest) (string, error)
}

// Registry exposes the model-backed components the orchestrator composes.
type Registry interface {
	Dispatcher() Dispatcher
	Decomposer() Decomposer
	Aggregator() Aggregator
}
