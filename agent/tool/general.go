package tool

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/cloudwego/eino/schema"
)

type generalResponseArgs struct {
	Message string `json:"message"`
	Tone    string `json:"tone"`
}

type generalResponse struct{}

func (c *generalResponse) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: NameGeneralResponse,
		Desc: "Reply to greetings, thanks, goodbyes, questions about who the assistant is or what it can do, and other small talk that needs no data lookup.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"message": {Type: schema.String, Desc: "The customer's message", Required: true},
			"tone":    {Type: schema.String, Desc: "friendly, helpful, informative, formal or apologetic"},
		}),
	}
}

type cannedReply struct {
	keywords []string
	reply    string
}

// cannedReplies are matched in order; the first hit wins. English keywords match whole words,
// Korean keywords match anywhere since particles attach to them.
var cannedReplies = compileReplies([]cannedReply{
	{
		keywords: []string{"안녕", "hello", "hi", "hey"},
		reply:    "Hello! I am the store's customer service assistant. How can I help you?",
	},
	{
		keywords: []string{"감사", "thank", "thanks"},
		reply:    "You're welcome! Let me know any time you have another question.",
	},
	{
		keywords: []string{"잘가", "bye", "goodbye"},
		reply:    "Thank you. Have a great day!",
	},
	{
		keywords: []string{"이름", "누구", "뭐야", "your name", "who are you"},
		reply:    "I am the store's customer service assistant. I can help with orders, deliveries, products and more.",
	},
	{
		keywords: []string{"뭐할수있어", "뭐 할 수 있어", "할수있", "기능", "도움", "what can you do", "what can you help"},
		reply: "Here is what I can help with:\n" +
			"- Product search and details\n" +
			"- Order status\n" +
			"- Delivery tracking\n" +
			"- FAQ and store policies\n" +
			"- General store questions\n\n" +
			"What would you like to do?",
	},
	{
		keywords: []string{"어떻게", "사용법", "how to"},
		reply: "Just ask naturally! For example:\n" +
			"- 'I'm looking for wireless earbuds'\n" +
			"- 'Check the status of order ORD123'\n" +
			"- 'How much is shipping?'\n" +
			"- 'Track parcel 123456'",
	},
})

type compiledReply struct {
	words     []*regexp.Regexp
	fragments []string
	reply     string
}

func compileReplies(replies []cannedReply) []compiledReply {
	out := make([]compiledReply, 0, len(replies))
	for _, r := range replies {
		c := compiledReply{reply: r.reply}
		for _, k := range r.keywords {
			if isASCII(k) {
				c.words = append(c.words, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(k)+`\b`))
				continue
			}
			c.fragments = append(c.fragments, k)
		}
		out = append(out, c)
	}
	return out
}

func (c compiledReply) matches(msg string) bool {
	for _, re := range c.words {
		if re.MatchString(msg) {
			return true
		}
	}
	for _, f := range c.fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}

const defaultGeneralReply = "Sure, how can I help? Ask me about orders, deliveries or products any time."

func (c *generalResponse) Invoke(_ context.Context, argsJSON string) (string, error) {
	args, err := decodeArgs[generalResponseArgs](argsJSON)
	if err != nil {
		return "", err
	}

	reply := defaultGeneralReply
	for _, cr := range cannedReplies {
		if cr.matches(args.Message) {
			reply = cr.reply
			break
		}
	}

	switch strings.ToLower(strings.TrimSpace(args.Tone)) {
	case "apologetic":
		return "Sorry for the inconvenience. " + reply, nil
	case "formal":
		return "Thank you for contacting us. " + reply, nil
	default:
		return reply, nil
	}
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
