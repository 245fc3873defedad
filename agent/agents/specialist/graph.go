package specialist

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// compileMessageGraph wires prompt -> model. The prompt node builds the message list from I, so
// templates with literal JSON need no escaping.
func compileMessageGraph[I any](
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	graphName string,
	build func(context.Context, I) ([]*schema.Message, error),
) (compose.Runnable[I, *schema.Message], error) {
	graph := compose.NewGraph[I, *schema.Message]()
	if err := graph.AddLambdaNode("prompt", compose.InvokableLambda(build)); err != nil {
		return nil, fmt.Errorf("add %s prompt node: %w", graphName, err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add %s model node: %w", graphName, err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add %s edge start->prompt: %w", graphName, err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add %s edge prompt->model: %w", graphName, err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add %s edge model->end: %w", graphName, err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", graphName, err)
	}
	return runner, nil
}
