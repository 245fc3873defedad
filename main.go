package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	orchestratorx "github.com/tanpawarit/Chative-Shop-Assistant/agent/agents/orchestrator"
	specialistx "github.com/tanpawarit/Chative-Shop-Assistant/agent/agents/specialist"
	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
	llmx "github.com/tanpawarit/Chative-Shop-Assistant/agent/llm"
	promptx "github.com/tanpawarit/Chative-Shop-Assistant/agent/prompt"
	ragx "github.com/tanpawarit/Chative-Shop-Assistant/agent/rag"
	statex "github.com/tanpawarit/Chative-Shop-Assistant/agent/state"
	toolx "github.com/tanpawarit/Chative-Shop-Assistant/agent/tool"
	"github.com/tanpawarit/Chative-Shop-Assistant/pkg/carrier"
	configx "github.com/tanpawarit/Chative-Shop-Assistant/pkg/config"
	_ "github.com/tanpawarit/Chative-Shop-Assistant/pkg/logger/autoload"
	openrouterx "github.com/tanpawarit/Chative-Shop-Assistant/pkg/openrouter"
	"github.com/tanpawarit/Chative-Shop-Assistant/pkg/shopdb"
	"github.com/tanpawarit/Chative-Shop-Assistant/pkg/vectorstore"
)

type AppConfig struct {
	UserID         string `envconfig:"SHOP_USER_ID"`
	HistoryBackend string `envconfig:"HISTORY_BACKEND" default:"memory"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("")
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	orchCfg := configx.MustNew[orchestratorx.Config]("ORCHESTRATOR")

	shop := shopdb.MustOpen(*configx.MustNew[shopdb.Config]("SHOPDB"))
	defer shop.Close()

	tracker := carrier.MustNew(*configx.MustNew[carrier.Config]("CARRIER"))

	kb, err := newKnowledgeBase(ctx, *llmCfg, *configx.MustNew[vectorstore.Config]("QDRANT"))
	if err != nil {
		log.Fatal().Err(err).Msg("init knowledge base")
	}

	models, err := specialistx.NewRegistry(ctx, *llmCfg, orchCfg.CapabilityTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("init model registry")
	}

	var store statex.Store
	if strings.EqualFold(strings.TrimSpace(appCfg.HistoryBackend), "upstash") {
		store, err = statex.NewUpstashRedisStore(*configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS"))
		if err != nil {
			log.Fatal().Err(err).Msg("init history store")
		}
	}

	orch, err := orchestratorx.New(toolx.NewRegistry(shop, tracker, kb), models, store, *orchCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init orchestrator")
	}

	runREPL(ctx, orch, uuid.NewString(), strings.TrimSpace(appCfg.UserID))
}

func newKnowledgeBase(ctx context.Context, llmCfg llmx.Config, vsCfg vectorstore.Config) (*ragx.Answerer, error) {
	client := openrouterx.NewClient(llmCfg.EmbeddingConfig())
	if client == nil {
		return nil, openrouterx.ErrMissingAPIKey
	}
	embedder, err := vectorstore.NewOpenAIEmbedder(client, vsCfg.EmbeddingModel)
	if err != nil {
		return nil, err
	}
	retriever, err := vectorstore.NewRetriever(vsCfg, embedder)
	if err != nil {
		return nil, err
	}

	knowledgeCfg := llmCfg.OpenRouterFor(llmx.RoleKnowledge)
	chatModel, err := knowledgeCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create knowledge model: %v", contractx.ErrModelInvoke, err)
	}
	return ragx.NewAnswerer(ctx, retriever, chatModel, promptx.LoadPromptSet().Knowledge)
}

const replHelp = `Commands:
  /user <id>     act as customer <id> (empty to sign out)
  /batch on|off  toggle batch handling of compound questions
  /history       show a summary of this conversation
  /tools         list available capabilities
  /clear         clear the conversation history
  /quit          exit`

func runREPL(ctx context.Context, orch *orchestratorx.Orchestrator, sessionID, userID string) {
	useBatch := true
	fmt.Printf("Shop assistant ready (session %s). Type /help for commands.\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			cmd, arg, _ := strings.Cut(line, " ")
			arg = strings.TrimSpace(arg)
			switch cmd {
			case "/quit", "/exit":
				return
			case "/help":
				fmt.Println(replHelp)
			case "/user":
				userID = arg
				fmt.Printf("user set to %q\n", userID)
			case "/batch":
				useBatch = arg != "off"
				fmt.Printf("batch handling: %v\n", useBatch)
			case "/history":
				fmt.Println(orch.HistorySummary(sessionID))
			case "/tools":
				for _, d := range orch.Capabilities(sessionID) {
					fmt.Printf("- %s: %s\n", d.Name, d.Description)
				}
			case "/clear":
				orch.ClearHistory(ctx, sessionID)
				fmt.Println("history cleared")
			default:
				fmt.Println(replHelp)
			}
			continue
		}

		res := orch.Process(ctx, contractx.Request{
			Query:        line,
			UserID:       userID,
			SessionID:    sessionID,
			DisableBatch: !useBatch,
		})
		fmt.Println(res.Response)
		log.Debug().
			Str("method", string(res.Method)).
			Strs("tools", res.ToolsUsed).
			Int("tasks", res.TasksExecuted).
			Bool("success", res.Success).
			Dur("response_time", res.ResponseTime).
			Msg("reply")

		if ctx.Err() != nil {
			return
		}
	}
}
