package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
)

var ErrEmptyQuery = errors.New("query is empty")

type Config struct {
	URL            string        `split_words:"true" default:"http://localhost:6333"`
	APIKey         string        `split_words:"true"`
	Collection     string        `split_words:"true" default:"ecommerce_docs"`
	TopK           int           `split_words:"true" default:"3"`
	EmbeddingModel string        `split_words:"true" default:"text-embedding-3-small"`
	Timeout        time.Duration `split_words:"true" default:"10s"`
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder embeds text with the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

func NewOpenAIEmbedder(client *openai.Client, model string) (*OpenAIEmbedder, error) {
	if client == nil {
		return nil, errors.New("openai client is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = string(openai.EmbeddingModelTextEmbedding3Small)
	}
	return &OpenAIEmbedder{client: client, model: model}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response is empty")
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

type Document struct {
	ID      string
	Score   float64
	Content string
	Source  string
}

// Retriever returns the top-k knowledge-base passages for a query.
type Retriever struct {
	embedder   Embedder
	client     *QdrantClient
	collection string
	topK       int
}

func NewRetriever(cfg Config, embedder Embedder) (*Retriever, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	client, err := NewQdrantClient(cfg.URL, cfg.APIKey, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	collection := strings.TrimSpace(cfg.Collection)
	if collection == "" {
		collection = "ecommerce_docs"
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{embedder: embedder, client: client, collection: collection, topK: topK}, nil
}

func (r *Retriever) Retrieve(ctx context.Context, query string) ([]Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.SearchPoints(ctx, r.collection, SearchRequest{
		Vector:      vec,
		Limit:       r.topK,
		WithPayload: true,
	})
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(resp.Result))
	for _, p := range resp.Result {
		content := payloadString(p.Payload, "content", "page_content", "text")
		if content == "" {
			continue
		}
		docs = append(docs, Document{
			ID:      fmt.Sprint(p.ID),
			Score:   p.Score,
			Content: content,
			Source:  payloadString(p.Payload, "source", "title"),
		})
	}
	return docs, nil
}

func payloadString(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := payload[k].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
