package tool

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/schema"
)

type ragSearchArgs struct {
	Query string `json:"query"`
}

type ragSearch struct {
	kb KnowledgeBase
}

func (c *ragSearch) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: NameRAGSearch,
		Desc: "Answer questions about FAQs, product details and store policies (shipping fees, returns, exchanges, service guides) from the knowledge base.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {Type: schema.String, Desc: "The question or keywords to look up", Required: true},
		}),
	}
}

func (c *ragSearch) Invoke(ctx context.Context, argsJSON string) (string, error) {
	args, err := decodeArgs[ragSearchArgs](argsJSON)
	if err != nil {
		return "", err
	}
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return "Please tell me what you would like to know.", nil
	}
	if c.kb == nil {
		return "", capabilityError(NameRAGSearch, errors.New("knowledge base is not configured"))
	}

	answer, err := c.kb.Answer(ctx, query)
	if err != nil {
		return "", capabilityError(NameRAGSearch, err)
	}
	return answer, nil
}
