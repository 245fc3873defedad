package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
	promptx "github.com/tanpawarit/Chative-Shop-Assistant/agent/prompt"
	"github.com/tanpawarit/Chative-Shop-Assistant/pkg/vectorstore"
)

// NoContextReply is returned when retrieval finds nothing for the question.
const NoContextReply = "Sorry, I could not find any related information. For more detailed help, please contact the support center (1588-1234)."

type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]vectorstore.Document, error)
}

// Answerer answers FAQ and policy questions from retrieved knowledge-base passages.
type Answerer struct {
	runner compose.Runnable[string, string]
}

type retrieval struct {
	Query string
	Docs  []vectorstore.Document
}

func NewAnswerer(ctx context.Context, retriever Retriever, chatModel einomodel.BaseChatModel, systemPrompt string) (*Answerer, error) {
	if retriever == nil {
		return nil, fmt.Errorf("%w: retriever is required", contractx.ErrValidation)
	}
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: knowledge prompt", contractx.ErrPromptMissing)
	}

	runner, err := compileAnswerGraph(ctx, retriever, chatModel, systemPrompt)
	if err != nil {
		return nil, err
	}
	return &Answerer{runner: runner}, nil
}

func (a *Answerer) Answer(ctx context.Context, query string) (string, error) {
	return a.runner.Invoke(ctx, query)
}

func compileAnswerGraph(
	ctx context.Context,
	retriever Retriever,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[string, string], error) {
	graph := compose.NewGraph[string, string]()

	if err := graph.AddLambdaNode("retrieve",
		compose.InvokableLambda(func(ctx context.Context, query string) (*retrieval, error) {
			docs, err := retriever.Retrieve(ctx, query)
			if errors.Is(err, vectorstore.ErrEmptyQuery) {
				return &retrieval{Query: query}, nil
			}
			if err != nil {
				return nil, fmt.Errorf("retrieve documents: %w", err)
			}
			log.Debug().Str("query", query).Int("docs", len(docs)).Msg("knowledge base retrieval")
			return &retrieval{Query: query, Docs: docs}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add answer retrieve node: %w", err)
	}

	if err := graph.AddLambdaNode("no_context",
		compose.InvokableLambda(func(ctx context.Context, _ *retrieval) (string, error) {
			return NoContextReply, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add answer no_context node: %w", err)
	}

	if err := graph.AddLambdaNode("prompt",
		compose.InvokableLambda(func(ctx context.Context, in *retrieval) ([]*schema.Message, error) {
			parts := make([]string, 0, len(in.Docs))
			for _, d := range in.Docs {
				parts = append(parts, d.Content)
			}
			system := promptx.Render(systemPrompt, map[string]string{"context": strings.Join(parts, "\n\n")})
			return []*schema.Message{
				schema.SystemMessage(system),
				schema.UserMessage(in.Query),
			}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add answer prompt node: %w", err)
	}

	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add answer model node: %w", err)
	}

	if err := graph.AddLambdaNode("answer",
		compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (string, error) {
			if msg == nil || strings.TrimSpace(msg.Content) == "" {
				return "", fmt.Errorf("%w: empty knowledge answer", contractx.ErrSchemaViolation)
			}
			return strings.TrimSpace(msg.Content), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add answer output node: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *retrieval) (string, error) {
			if in == nil || len(in.Docs) == 0 {
				return "no_context", nil
			}
			return "prompt", nil
		},
		map[string]bool{
			"no_context": true,
			"prompt":     true,
		},
	)

	if err := graph.AddEdge(compose.START, "retrieve"); err != nil {
		return nil, fmt.Errorf("add answer edge start->retrieve: %w", err)
	}
	if err := graph.AddBranch("retrieve", branch); err != nil {
		return nil, fmt.Errorf("add answer branch: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add answer edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", "answer"); err != nil {
		return nil, fmt.Errorf("add answer edge model->answer: %w", err)
	}
	if err := graph.AddEdge("answer", compose.END); err != nil {
		return nil, fmt.Errorf("add answer edge answer->end: %w", err)
	}
	if err := graph.AddEdge("no_context", compose.END); err != nil {
		return nil, fmt.Errorf("add answer edge no_context->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("rag.answer_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile answer graph: %w", err)
	}
	return runner, nil
}
