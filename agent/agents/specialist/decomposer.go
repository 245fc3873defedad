package specialist

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
	promptx "github.com/tanpawarit/Chative-Shop-Assistant/agent/prompt"
)

type decomposerImpl struct {
	runner compose.Runnable[string, *schema.Message]
}

var _ contractx.Decomposer = (*decomposerImpl)(nil)

func newDecomposer(ctx context.Context, chatModel einomodel.BaseChatModel, promptTemplate string) (*decomposerImpl, error) {
	if strings.TrimSpace(promptTemplate) == "" {
		return nil, fmt.Errorf("%w: decomposer prompt", contractx.ErrPromptMissing)
	}
	runner, err := compileMessageGraph(ctx, chatModel, "decomposer.model_graph",
		func(ctx context.Context, query string) ([]*schema.Message, error) {
			return []*schema.Message{
				schema.UserMessage(promptx.Render(promptTemplate, map[string]string{"query": query})),
			}, nil
		})
	if err != nil {
		return nil, fmt.Errorf("%w: compile decomposer graph: %v", contractx.ErrModelInvoke, err)
	}
	return &decomposerImpl{runner: runner}, nil
}

// Decompose asks the model to split query into sub-tasks. Output that cannot be parsed yields the
// non-complex default rather than an error; only a failed model call is reported.
func (d *decomposerImpl) Decompose(ctx context.Context, query string) (contractx.Decomposition, error) {
	msg, err := d.runner.Invoke(ctx, query)
	if err != nil {
		return contractx.Decomposition{}, fmt.Errorf("%w: decomposer invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return defaultDecomposition(), nil
	}
	return parseDecomposition(msg.Content), nil
}

func defaultDecomposition() contractx.Decomposition {
	return contractx.Decomposition{IsComplex: false, Tasks: []contractx.SubTask{}, RequiresUserContext: false}
}

func parseDecomposition(text string) contractx.Decomposition {
	raw, ok := extractJSONObject(text)
	if !ok {
		log.Warn().Str("output", truncate(text, 200)).Msg("decomposer output has no JSON object")
		return defaultDecomposition()
	}

	doc := gjson.Parse(raw)
	out := contractx.Decomposition{
		IsComplex:           doc.Get("is_complex").Bool(),
		RequiresUserContext: doc.Get("requires_user_context").Bool(),
		Tasks:               []contractx.SubTask{},
	}

	doc.Get("tasks").ForEach(func(_, t gjson.Result) bool {
		taskType := contractx.TaskType(strings.ToLower(strings.TrimSpace(t.Get("type").String())))
		if !taskType.Valid() {
			log.Debug().Str("type", string(taskType)).Msg("decomposer task type dropped")
			return true
		}
		out.Tasks = append(out.Tasks, contractx.SubTask{
			Type:        taskType,
			Description: strings.TrimSpace(t.Get("description").String()),
			Priority:    normalizePriority(t.Get("priority").Int()),
			Keyword:     strings.TrimSpace(t.Get("keyword").String()),
		})
		return true
	})
	return out
}

func normalizePriority(p int64) int {
	switch {
	case p == 0:
		return contractx.DefaultPriority
	case p < contractx.MinPriority:
		return contractx.MinPriority
	case p > contractx.MaxPriority:
		return contractx.MaxPriority
	default:
		return int(p)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
