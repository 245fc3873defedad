package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tanpawarit/Chative-Shop-Assistant/pkg/vectorstore"
)

type fakeRetriever struct {
	docs []vectorstore.Document
	err  error
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string) ([]vectorstore.Document, error) {
	return f.docs, f.err
}

type fakeChatModel struct {
	reply    string
	err      error
	calls    int
	received []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.calls++
	f.received = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

const testPrompt = "Answer from these documents:\n{{context}}"

func TestAnswerUsesRetrievedContext(t *testing.T) {
	t.Parallel()

	retriever := &fakeRetriever{docs: []vectorstore.Document{
		{Content: "Shipping is free over 50,000 won."},
		{Content: "Returns are accepted within 7 days."},
	}}
	model := &fakeChatModel{reply: " Shipping is free over 50,000 won. "}

	a, err := NewAnswerer(context.Background(), retriever, model, testPrompt)
	if err != nil {
		t.Fatalf("NewAnswerer() error = %v", err)
	}
	out, err := a.Answer(context.Background(), "how much is shipping?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if out != "Shipping is free over 50,000 won." {
		t.Fatalf("unexpected answer: %q", out)
	}
	if len(model.received) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(model.received))
	}
	system := model.received[0].Content
	if !strings.Contains(system, "Returns are accepted") || strings.Contains(system, "{{context}}") {
		t.Fatalf("context not rendered into prompt: %s", system)
	}
	if model.received[1].Content != "how much is shipping?" {
		t.Fatalf("unexpected user message: %s", model.received[1].Content)
	}
}

func TestAnswerWithoutDocumentsSkipsModel(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{reply: "unused"}
	a, err := NewAnswerer(context.Background(), &fakeRetriever{}, model, testPrompt)
	if err != nil {
		t.Fatalf("NewAnswerer() error = %v", err)
	}
	out, err := a.Answer(context.Background(), "do you sell boats?")
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if out != NoContextReply {
		t.Fatalf("unexpected answer: %q", out)
	}
	if model.calls != 0 {
		t.Fatalf("model must not be called, got %d calls", model.calls)
	}
}

func TestAnswerPropagatesRetrievalError(t *testing.T) {
	t.Parallel()

	a, err := NewAnswerer(context.Background(), &fakeRetriever{err: errors.New("qdrant down")}, &fakeChatModel{}, testPrompt)
	if err != nil {
		t.Fatalf("NewAnswerer() error = %v", err)
	}
	if _, err := a.Answer(context.Background(), "returns?"); err == nil {
		t.Fatal("expected retrieval error")
	}
}

func TestNewAnswererValidatesInputs(t *testing.T) {
	t.Parallel()

	if _, err := NewAnswerer(context.Background(), nil, &fakeChatModel{}, testPrompt); err == nil {
		t.Fatal("expected error for nil retriever")
	}
	if _, err := NewAnswerer(context.Background(), &fakeRetriever{}, &fakeChatModel{}, " "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}
