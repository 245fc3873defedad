package specialist

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
	promptx "github.com/tanpawarit/Chative-Shop-Assistant/agent/prompt"
	toolx "github.com/tanpawarit/Chative-Shop-Assistant/agent/tool"
)

type fakeToolCallingModel struct {
	responses []*schema.Message
	err       error
	idx       int
	inputs    [][]*schema.Message
	tools     []*schema.ToolInfo
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, append([]*schema.Message(nil), input...))
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	f.tools = tools
	return f, nil
}

type fakeCapability struct {
	name  string
	out   string
	err   error
	calls []string
}

func (f *fakeCapability) Info() *schema.ToolInfo {
	return &schema.ToolInfo{Name: f.name, Desc: f.name + " capability"}
}

func (f *fakeCapability) Invoke(_ context.Context, args string) (string, error) {
	f.calls = append(f.calls, args)
	return f.out, f.err
}

func toolCall(id, name, args string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{ID: id, Type: "function", Function: schema.FunctionCall{Name: name, Arguments: args}},
		},
	}
}

func newTestDispatcher(t *testing.T, fake *fakeToolCallingModel) *dispatcherImpl {
	t.Helper()
	d, err := newDispatcher(fake, promptx.LoadPromptSet().Dispatcher, 0)
	if err != nil {
		t.Fatalf("newDispatcher() error = %v", err)
	}
	return d
}

func TestDispatchToolThenAnswer(t *testing.T) {
	t.Parallel()

	orders := &fakeCapability{name: toolx.NameOrderLookup, out: "Order ORD001 is shipping."}
	caps := toolx.NewCatalog("7", orders)
	fake := &fakeToolCallingModel{responses: []*schema.Message{
		toolCall("call_1", toolx.NameOrderLookup, `{}`),
		schema.AssistantMessage("Your order ORD001 is on its way.", nil),
	}}

	out, err := newTestDispatcher(t, fake).Dispatch(context.Background(), caps, contractx.DispatchRequest{
		Query:   "where is my order?",
		UserID:  "7",
		History: []contractx.Turn{{Human: "hi", Assistant: "hello"}},
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if out.Response != "Your order ORD001 is on its way." || out.Rounds != 2 || out.Exhausted {
		t.Fatalf("unexpected output: %+v", out)
	}
	if len(out.ToolsUsed) != 1 || out.ToolsUsed[0] != toolx.NameOrderLookup {
		t.Fatalf("unexpected tools used: %v", out.ToolsUsed)
	}
	if len(fake.tools) != 1 {
		t.Fatalf("expected catalog tools to be bound, got %d", len(fake.tools))
	}

	first := fake.inputs[0]
	if len(first) != 4 {
		t.Fatalf("expected system, history pair and user turn, got %d messages", len(first))
	}
	if !strings.Contains(first[0].Content, toolx.NameOrderLookup) {
		t.Fatal("system prompt must list the capabilities")
	}
	if !strings.HasPrefix(first[3].Content, "[current user id: 7]") {
		t.Fatalf("user turn must carry the user id, got %q", first[3].Content)
	}

	second := fake.inputs[1]
	last := second[len(second)-1]
	if last.Role != schema.Tool || last.ToolCallID != "call_1" || last.Content != orders.out {
		t.Fatalf("unexpected observation message: %+v", last)
	}
}

func TestDispatchStopsAfterMaxRounds(t *testing.T) {
	t.Parallel()

	general := &fakeCapability{name: toolx.NameGeneralResponse, out: "Hello there."}
	fake := &fakeToolCallingModel{responses: []*schema.Message{
		toolCall("c1", toolx.NameGeneralResponse, `{"message":"hi"}`),
		toolCall("c2", toolx.NameGeneralResponse, `{"message":"hi"}`),
		toolCall("c3", toolx.NameGeneralResponse, `{"message":"hi"}`),
		schema.AssistantMessage("never reached", nil),
	}}

	out, err := newTestDispatcher(t, fake).Dispatch(context.Background(), toolx.NewCatalog("", general), contractx.DispatchRequest{Query: "hi"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !out.Exhausted || out.Rounds != MaxRounds {
		t.Fatalf("expected exhausted after %d rounds, got %+v", MaxRounds, out)
	}
	if fake.idx != MaxRounds {
		t.Fatalf("expected %d model calls, got %d", MaxRounds, fake.idx)
	}
	if out.Response != "Hello there." {
		t.Fatalf("expected last observations as best text, got %q", out.Response)
	}
}

func TestDispatchUnknownCapabilityIsObservation(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{responses: []*schema.Message{
		toolCall("c1", "weather_lookup", `{}`),
		schema.AssistantMessage("I can't check the weather.", nil),
	}}

	out, err := newTestDispatcher(t, fake).Dispatch(context.Background(), toolx.NewCatalog(""), contractx.DispatchRequest{Query: "weather?"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if out.Response != "I can't check the weather." {
		t.Fatalf("unexpected response: %q", out.Response)
	}
	obs := fake.inputs[1][len(fake.inputs[1])-1]
	if !strings.Contains(obs.Content, "weather_lookup") {
		t.Fatalf("unexpected observation: %q", obs.Content)
	}
}

func TestDispatchCapabilityError(t *testing.T) {
	t.Parallel()

	broken := &fakeCapability{name: toolx.NameOrderLookup, err: errors.New("db down")}
	fake := &fakeToolCallingModel{responses: []*schema.Message{toolCall("c1", toolx.NameOrderLookup, `{}`)}}

	_, err := newTestDispatcher(t, fake).Dispatch(context.Background(), toolx.NewCatalog("", broken), contractx.DispatchRequest{Query: "orders"})
	if err == nil {
		t.Fatal("expected capability error")
	}
}

func TestDispatchModelError(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{err: errors.New("503")}
	_, err := newTestDispatcher(t, fake).Dispatch(context.Background(), toolx.NewCatalog(""), contractx.DispatchRequest{Query: "hi"})
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestDispatchToolsUsedFromInvokingText(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{responses: []*schema.Message{
		schema.AssistantMessage("Invoking: `rag_search` with shipping\nShipping is free.", nil),
	}}
	out, err := newTestDispatcher(t, fake).Dispatch(context.Background(), toolx.NewCatalog(""), contractx.DispatchRequest{Query: "shipping?"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(out.ToolsUsed) != 1 || out.ToolsUsed[0] != "rag_search" {
		t.Fatalf("unexpected tools used: %v", out.ToolsUsed)
	}
}

func TestDispatchToolsUsedKeepsRepeatsAndIgnoresMentions(t *testing.T) {
	t.Parallel()

	orders := &fakeCapability{name: toolx.NameOrderLookup, out: "Order ORD001 is shipping."}
	caps := toolx.NewCatalog("7", orders)
	first := toolCall("call_1", toolx.NameOrderLookup, `{"order_id":"ORD001"}`)
	first.Content = "Invoking: `rag_search` maybe later"
	fake := &fakeToolCallingModel{responses: []*schema.Message{
		first,
		toolCall("call_2", toolx.NameOrderLookup, `{"order_id":"ORD002"}`),
		schema.AssistantMessage("Both orders are on their way.", nil),
	}}

	out, err := newTestDispatcher(t, fake).Dispatch(context.Background(), caps, contractx.DispatchRequest{Query: "where are ORD001 and ORD002?"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	want := []string{toolx.NameOrderLookup, toolx.NameOrderLookup}
	if len(out.ToolsUsed) != len(want) {
		t.Fatalf("expected tools used %v, got %v", want, out.ToolsUsed)
	}
	for i := range want {
		if out.ToolsUsed[i] != want[i] {
			t.Fatalf("expected tools used %v, got %v", want, out.ToolsUsed)
		}
	}
	if len(orders.calls) != 2 {
		t.Fatalf("expected two capability calls, got %d", len(orders.calls))
	}
}

func TestDecomposeParsesProseWrappedJSON(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{responses: []*schema.Message{
		schema.AssistantMessage("Sure! Here is the analysis:\n```json\n"+
			`{"is_complex": true, "tasks": [`+
			`{"type": "delivery_tracking", "description": "when does my order {arrive}", "priority": 2},`+
			`{"type": "weather", "description": "forecast", "priority": 1},`+
			`{"type": "user_info", "description": "who am I", "priority": 0},`+
			`{"type": "rag_search", "description": "return policy", "priority": 9}`+
			`], "requires_user_context": true}`+"\n```", nil),
	}}

	dec, err := newDecomposer(context.Background(), fake, promptx.LoadPromptSet().Decomposer)
	if err != nil {
		t.Fatalf("newDecomposer() error = %v", err)
	}
	out, err := dec.Decompose(context.Background(), "who am I and when does my order arrive?")
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if !out.IsComplex || !out.RequiresUserContext {
		t.Fatalf("unexpected flags: %+v", out)
	}
	if len(out.Tasks) != 3 {
		t.Fatalf("expected unknown type dropped, got %d tasks", len(out.Tasks))
	}
	if out.Tasks[1].Type != contractx.TaskUserInfo || out.Tasks[1].Priority != contractx.DefaultPriority {
		t.Fatalf("priority 0 must default, got %+v", out.Tasks[1])
	}
	if out.Tasks[2].Priority != contractx.MaxPriority {
		t.Fatalf("priority must be clamped, got %d", out.Tasks[2].Priority)
	}
	if !strings.Contains(fake.inputs[0][0].Content, "who am I and when does my order arrive?") {
		t.Fatal("query must be rendered into the prompt")
	}
}

func TestDecomposeMalformedOutputFallsBackToDefault(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{responses: []*schema.Message{
		schema.AssistantMessage(`I think this is {"is_complex": true, "tasks": [ broken`, nil),
	}}
	dec, err := newDecomposer(context.Background(), fake, promptx.LoadPromptSet().Decomposer)
	if err != nil {
		t.Fatalf("newDecomposer() error = %v", err)
	}
	out, err := dec.Decompose(context.Background(), "x")
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if out.IsComplex || len(out.Tasks) != 0 || out.RequiresUserContext {
		t.Fatalf("expected default decomposition, got %+v", out)
	}
}

func TestDecomposeTruncatedWrapperIsNotSalvaged(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{responses: []*schema.Message{
		schema.AssistantMessage(`{"analysis": {"is_complex": true, "tasks": [`+
			`{"type": "user_info", "description": "name", "priority": 1},`+
			`{"type": "delivery_tracking", "description": "arrival", "priority": 2}`+
			`]}, "note": "tru`, nil),
	}}
	dec, err := newDecomposer(context.Background(), fake, promptx.LoadPromptSet().Decomposer)
	if err != nil {
		t.Fatalf("newDecomposer() error = %v", err)
	}
	out, err := dec.Decompose(context.Background(), "what's my name and when will my order arrive?")
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if out.IsComplex || len(out.Tasks) != 0 {
		t.Fatalf("truncated output must yield the default decomposition, got %+v", out)
	}
}

func TestDecomposeModelError(t *testing.T) {
	t.Parallel()

	dec, err := newDecomposer(context.Background(), &fakeToolCallingModel{err: errors.New("timeout")}, promptx.LoadPromptSet().Decomposer)
	if err != nil {
		t.Fatalf("newDecomposer() error = %v", err)
	}
	if _, err := dec.Decompose(context.Background(), "x"); !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestExtractJSONObject(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{`{"a":1}`, `{"a":1}`, true},
		{`text {"a":"}"} tail`, `{"a":"}"}`, true},
		{`{not json} then {"b":2}`, "", false},
		{`{"analysis": {"is_complex": true, "tasks": []}, "note": "tru`, "", false},
		{`no braces`, "", false},
		{`{"open": 1`, "", false},
	}
	for _, tc := range cases {
		got, ok := extractJSONObject(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("extractJSONObject(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestAggregateRendersOutcomes(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{responses: []*schema.Message{schema.AssistantMessage(" Combined reply ", nil)}}
	agg, err := newAggregator(context.Background(), fake, promptx.LoadPromptSet().Aggregator)
	if err != nil {
		t.Fatalf("newAggregator() error = %v", err)
	}

	out, err := agg.Aggregate(context.Background(), contractx.AggregateRequest{
		Query: "who am I and where is my parcel?",
		Outcomes: []contractx.TaskOutcome{
			{Key: "user_info#0", Description: "who am I", Success: true, Data: "Name: minji"},
			{Key: "delivery_tracking#1", Description: "parcel", Error: "carrier down"},
		},
	})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if out != "Combined reply" {
		t.Fatalf("unexpected reply: %q", out)
	}
	prompt := fake.inputs[0][0].Content
	if !strings.Contains(prompt, "Name: minji") || !strings.Contains(prompt, "unavailable: carrier down") {
		t.Fatalf("outcomes not rendered: %s", prompt)
	}
}

func TestAggregateEmptyReplyIsSchemaViolation(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{responses: []*schema.Message{schema.AssistantMessage("  ", nil)}}
	agg, err := newAggregator(context.Background(), fake, promptx.LoadPromptSet().Aggregator)
	if err != nil {
		t.Fatalf("newAggregator() error = %v", err)
	}
	if _, err := agg.Aggregate(context.Background(), contractx.AggregateRequest{Query: "x"}); !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}
