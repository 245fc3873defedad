package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/Chative-Shop-Assistant/agent/nodes"
)

func (o *Orchestrator) compileBatchGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("decompose",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Decompose(ctx, in, o.models.Decomposer())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node decompose: %w", err)
	}

	if err := graph.AddLambdaNode("passthrough",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.Passthrough(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node passthrough: %w", err)
	}

	if err := graph.AddLambdaNode("execute_tasks",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ExecuteTasks(ctx, in, o.cfg.TaskWorkers, o.cfg.CapabilityTimeout)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node execute_tasks: %w", err)
	}

	if err := graph.AddLambdaNode("aggregate",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Aggregate(ctx, in, o.models.Aggregator())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node aggregate: %w", err)
	}

	if err := graph.AddLambdaNode("finalize",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeBatch(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in.HasTasks() {
				return "execute_tasks", nil
			}
			return "passthrough", nil
		},
		map[string]bool{
			"execute_tasks": true,
			"passthrough":   true,
		},
	)
	if err := graph.AddBranch("decompose", branch); err != nil {
		return nil, fmt.Errorf("add decompose branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "decompose"},
		{"execute_tasks", "aggregate"},
		{"aggregate", "finalize"},
		{"finalize", compose.END},
		{"passthrough", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.batch"))
	if err != nil {
		return nil, fmt.Errorf("compile batch graph: %w", err)
	}
	return runner, nil
}
