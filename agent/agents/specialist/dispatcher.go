package specialist

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
	promptx "github.com/tanpawarit/Chative-Shop-Assistant/agent/prompt"
	toolx "github.com/tanpawarit/Chative-Shop-Assistant/agent/tool"
)

// MaxRounds bounds the model calls of one single-pass dispatch.
const MaxRounds = 3

const exhaustedReply = "Sorry, I could not finish handling your request. Could you rephrase it or ask one thing at a time?"

var invokingPattern = regexp.MustCompile("Invoking: `([^`]+)`")

type dispatcherImpl struct {
	chatModel         einomodel.ToolCallingChatModel
	systemPrompt      string
	capabilityTimeout time.Duration
}

var _ contractx.Dispatcher = (*dispatcherImpl)(nil)

func newDispatcher(chatModel einomodel.ToolCallingChatModel, systemPrompt string, capabilityTimeout time.Duration) (*dispatcherImpl, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: dispatcher chat model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: dispatcher prompt", contractx.ErrPromptMissing)
	}
	return &dispatcherImpl{
		chatModel:         chatModel,
		systemPrompt:      systemPrompt,
		capabilityTimeout: capabilityTimeout,
	}, nil
}

// Dispatch runs the tool-calling loop: each round the model either answers or requests
// capabilities whose observations feed the next round. After MaxRounds the best text seen so far
// is returned.
func (d *dispatcherImpl) Dispatch(ctx context.Context, caps contractx.CapabilitySet, req contractx.DispatchRequest) (contractx.DispatchOutput, error) {
	if caps == nil {
		return contractx.DispatchOutput{}, fmt.Errorf("%w: capability set is required", contractx.ErrValidation)
	}

	infos := caps.Infos()
	toolModel, err := d.chatModel.WithTools(infos)
	if err != nil {
		return contractx.DispatchOutput{}, fmt.Errorf("%w: bind capabilities: %v", contractx.ErrModelInvoke, err)
	}

	messages := d.buildMessages(infos, req)
	toolsUsed := make([]string, 0, MaxRounds)
	var lastText string
	var observations []string

	for round := 1; round <= MaxRounds; round++ {
		msg, err := toolModel.Generate(ctx, messages)
		if err != nil {
			return contractx.DispatchOutput{}, fmt.Errorf("%w: dispatcher round %d: %v", contractx.ErrModelInvoke, round, err)
		}
		if msg == nil {
			return contractx.DispatchOutput{}, fmt.Errorf("%w: dispatcher round %d returned no message", contractx.ErrModelInvoke, round)
		}

		content := strings.TrimSpace(msg.Content)
		if content != "" {
			lastText = content
		}
		if len(msg.ToolCalls) == 0 {
			// Models without native tool calls announce them in text.
			for _, m := range invokingPattern.FindAllStringSubmatch(msg.Content, -1) {
				toolsUsed = appendToolName(toolsUsed, m[1])
			}
			return contractx.DispatchOutput{
				Response:  bestText(lastText, observations),
				ToolsUsed: toolsUsed,
				Rounds:    round,
			}, nil
		}

		messages = append(messages, msg)
		observations = observations[:0]
		for _, call := range msg.ToolCalls {
			name := strings.TrimSpace(call.Function.Name)
			toolsUsed = appendToolName(toolsUsed, name)

			obs, err := d.invoke(ctx, caps, name, call.Function.Arguments)
			if err != nil {
				return contractx.DispatchOutput{}, err
			}
			observations = append(observations, obs)
			messages = append(messages, schema.ToolMessage(obs, call.ID))
		}
		log.Debug().Int("round", round).Strs("tools", toolsUsed).Msg("dispatcher round completed")
	}

	log.Warn().Int("rounds", MaxRounds).Msg("dispatcher round cap reached")
	return contractx.DispatchOutput{
		Response:  bestText(lastText, observations),
		ToolsUsed: toolsUsed,
		Rounds:    MaxRounds,
		Exhausted: true,
	}, nil
}

func (d *dispatcherImpl) invoke(ctx context.Context, caps contractx.CapabilitySet, name, args string) (string, error) {
	capability, ok := caps.Lookup(name)
	if !ok {
		log.Warn().Str("capability", name).Msg("model requested unknown capability")
		return fmt.Sprintf("Capability %q does not exist. Use one of the listed capabilities.", name), nil
	}
	out, err := toolx.Invoke(ctx, capability, args, d.capabilityTimeout)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (d *dispatcherImpl) buildMessages(infos []*schema.ToolInfo, req contractx.DispatchRequest) []*schema.Message {
	var list strings.Builder
	for i, info := range infos {
		if info == nil {
			continue
		}
		fmt.Fprintf(&list, "%d. %s: %s\n", i+1, info.Name, info.Desc)
	}
	system := promptx.Render(d.systemPrompt, map[string]string{"capabilities": strings.TrimSpace(list.String())})

	messages := make([]*schema.Message, 0, 2+2*len(req.History))
	messages = append(messages, schema.SystemMessage(system))
	for _, turn := range req.History {
		messages = append(messages,
			schema.UserMessage(turn.Human),
			schema.AssistantMessage(turn.Assistant, nil),
		)
	}

	query := req.Query
	if userID := strings.TrimSpace(req.UserID); userID != "" {
		query = fmt.Sprintf("[current user id: %s]\n%s", userID, req.Query)
	}
	return append(messages, schema.UserMessage(query))
}

func bestText(lastText string, observations []string) string {
	if lastText != "" {
		return lastText
	}
	if joined := strings.TrimSpace(strings.Join(observations, "\n\n")); joined != "" {
		return joined
	}
	return exhaustedReply
}

// appendToolName records every invocation in call order, repeats included.
func appendToolName(names []string, name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return names
	}
	return append(names, name)
}
