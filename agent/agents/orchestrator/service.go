package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Shop-Assistant/agent/contract"
	nodex "github.com/tanpawarit/Chative-Shop-Assistant/agent/nodes"
	statex "github.com/tanpawarit/Chative-Shop-Assistant/agent/state"
	toolx "github.com/tanpawarit/Chative-Shop-Assistant/agent/tool"
)

const (
	// ApologyReply is returned when neither the batch nor the single-pass path produced an answer.
	ApologyReply = "Sorry, something went wrong while handling your request. Please try again in a moment."

	defaultSessionID = "default"
)

var ErrInvalidMessage = nodex.ErrInvalidMessage

type Config struct {
	BatchEnabled      bool          `split_words:"true" default:"true"`
	CompoundMarkers   []string      `split_words:"true"`
	CompoundMinTokens int           `split_words:"true" default:"5"`
	TaskWorkers       int           `split_words:"true" default:"1"`
	CapabilityTimeout time.Duration `split_words:"true" default:"20s"`
	MaxSessions       int           `split_words:"true" default:"1000"`
	SessionIdleTTL    time.Duration `split_words:"true" default:"30m"`
}

func (c *Config) Validate() error {
	if c.CompoundMinTokens < 0 {
		return fmt.Errorf("%w: compound min tokens must be >= 0", contractx.ErrValidation)
	}
	if c.TaskWorkers <= 0 {
		return fmt.Errorf("%w: task workers must be > 0", contractx.ErrValidation)
	}
	if c.CapabilityTimeout <= 0 {
		return fmt.Errorf("%w: capability timeout must be > 0", contractx.ErrValidation)
	}
	if c.MaxSessions <= 0 {
		return fmt.Errorf("%w: max sessions must be > 0", contractx.ErrValidation)
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("%w: session idle ttl must be > 0", contractx.ErrValidation)
	}
	return nil
}

// CatalogBuilder builds the capability catalog bound to one user.
type CatalogBuilder interface {
	Build(userID string) *toolx.Catalog
}

type session struct {
	history *statex.History
	userID  string
	catalog *toolx.Catalog
}

type Orchestrator struct {
	catalogs   CatalogBuilder
	models     contractx.Registry
	store      statex.Store
	classifier *Classifier
	cfg        Config

	batchRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	// sessions evicts the least recently used session past MaxSessions and any session idle for
	// SessionIdleTTL. Persisted history is reloaded from the store on the next request.
	mu       sync.Mutex
	sessions *expirable.LRU[string, *session]

	now func() time.Time
}

// New wires the orchestrator. store may be nil, in which case history lives only in memory.
func New(catalogs CatalogBuilder, models contractx.Registry, store statex.Store, cfg Config) (*Orchestrator, error) {
	if catalogs == nil {
		return nil, errors.New("capability registry is required")
	}
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if cfg.TaskWorkers <= 0 {
		cfg.TaskWorkers = 1
	}
	if cfg.CapabilityTimeout <= 0 {
		cfg.CapabilityTimeout = 20 * time.Second
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	if cfg.SessionIdleTTL <= 0 {
		cfg.SessionIdleTTL = 30 * time.Minute
	}

	o := &Orchestrator{
		catalogs:   catalogs,
		models:     models,
		store:      store,
		classifier: NewClassifier(cfg.CompoundMarkers, cfg.CompoundMinTokens),
		cfg:        cfg,
		now:        time.Now,
	}
	o.sessions = expirable.NewLRU[string, *session](cfg.MaxSessions, func(id string, _ *session) {
		log.Debug().Str("session", id).Msg("session evicted")
	}, cfg.SessionIdleTTL)

	batchRunner, err := o.compileBatchGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.batchRunner = batchRunner

	return o, nil
}

// Process answers one request. It never returns an error: every failure ends in a result with
// Success=false and an apology as the response.
func (o *Orchestrator) Process(ctx context.Context, req contractx.Request) (result contractx.DispatchResult) {
	start := o.now()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("session", req.SessionID).Msg("orchestrator panicked")
			result = apology(contractx.MethodError, fmt.Errorf("internal error: %v", r))
		}
		result.ResponseTime = o.now().Sub(start)
	}()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return apology(contractx.MethodError, ErrInvalidMessage)
	}

	sessionID := sessionKey(req.SessionID)
	sess, catalog := o.session(ctx, sessionID, req.UserID)

	if !req.DisableBatch && o.cfg.BatchEnabled && o.classifier.IsLikelyCompound(query) {
		out, err := o.runBatch(ctx, query, catalog)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("session", sessionID).Msg("batch path failed, falling back to single pass")
		case !out.Batch:
			log.Debug().Str("session", sessionID).Msg("query not decomposed, using single pass")
		default:
			o.commit(ctx, sessionID, sess, query, out.Response)
			log.Info().
				Str("session", sessionID).
				Str("method", string(contractx.MethodBatch)).
				Int("tasks", out.TasksExecuted).
				Strs("tools", out.ToolsUsed).
				Bool("success", out.Success).
				Msg("request handled")
			return contractx.DispatchResult{
				Response:      out.Response,
				Method:        contractx.MethodBatch,
				ToolsUsed:     out.ToolsUsed,
				TasksExecuted: out.TasksExecuted,
				Success:       out.Success,
				Outcomes:      out.Outcomes,
			}
		}
	}

	out, err := o.dispatch(ctx, catalog, contractx.DispatchRequest{
		Query:   query,
		UserID:  strings.TrimSpace(req.UserID),
		History: sess.history.Snapshot(),
	})
	if err != nil {
		method := contractx.MethodError
		if errors.Is(err, contractx.ErrCapability) || errors.Is(err, contractx.ErrSchemaViolation) {
			method = contractx.MethodFallback
		}
		log.Error().Err(err).Str("session", sessionID).Str("method", string(method)).Msg("single pass failed")
		return apology(method, err)
	}

	o.commit(ctx, sessionID, sess, query, out.Response)
	log.Info().
		Str("session", sessionID).
		Str("method", string(contractx.MethodSinglePass)).
		Int("rounds", out.Rounds).
		Bool("exhausted", out.Exhausted).
		Strs("tools", out.ToolsUsed).
		Msg("request handled")
	return contractx.DispatchResult{
		Response:  out.Response,
		Method:    contractx.MethodSinglePass,
		ToolsUsed: out.ToolsUsed,
		Success:   true,
	}
}

func (o *Orchestrator) runBatch(ctx context.Context, query string, catalog *toolx.Catalog) (out nodex.GraphOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nodex.GraphOutput{}, fmt.Errorf("batch panicked: %v", r)
		}
	}()
	return o.batchRunner.Invoke(ctx, nodex.GraphInput{Query: query, Catalog: catalog})
}

func (o *Orchestrator) dispatch(ctx context.Context, catalog *toolx.Catalog, req contractx.DispatchRequest) (out contractx.DispatchOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = contractx.DispatchOutput{}, fmt.Errorf("single pass panicked: %v", r)
		}
	}()
	return o.models.Dispatcher().Dispatch(ctx, catalog, req)
}

// session returns the context for sessionID, creating it (and loading persisted history) on first
// use. The catalog is rebuilt whenever the bound user changes.
func (o *Orchestrator) session(ctx context.Context, sessionID, userID string) (*session, *toolx.Catalog) {
	userID = strings.TrimSpace(userID)

	o.mu.Lock()
	sess, ok := o.sessions.Get(sessionID)
	o.mu.Unlock()

	var fresh *session
	if !ok {
		fresh = &session{history: statex.NewHistory()}
		if turns := o.loadHistory(ctx, sessionID); len(turns) > 0 {
			fresh.history.Restore(turns)
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if fresh != nil {
		sess = fresh
		if existing, found := o.sessions.Get(sessionID); found {
			sess = existing
		}
	}
	// Add also restarts the idle timer.
	o.sessions.Add(sessionID, sess)
	if sess.catalog == nil || sess.userID != userID {
		sess.catalog = o.catalogs.Build(userID)
		sess.userID = userID
	}
	return sess, sess.catalog
}

func (o *Orchestrator) loadHistory(ctx context.Context, sessionID string) []statex.Turn {
	if o.store == nil {
		return nil
	}
	turns, err := o.store.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, statex.ErrHistoryNotFound) {
			log.Warn().Err(err).Str("session", sessionID).Msg("load history failed")
		}
		return nil
	}
	return turns
}

func (o *Orchestrator) commit(ctx context.Context, sessionID string, sess *session, human, assistant string) {
	sess.history.Append(human, assistant)
	o.persist(ctx, sessionID, sess.history)
}

func (o *Orchestrator) persist(ctx context.Context, sessionID string, history *statex.History) {
	if o.store == nil {
		return
	}
	if err := o.store.Save(ctx, sessionID, history.Snapshot()); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("save history failed")
	}
}

// AppendTurn commits one exchange produced outside Process.
func (o *Orchestrator) AppendTurn(ctx context.Context, sessionID, human, assistant string) {
	sessionID = sessionKey(sessionID)
	sess := o.existingOrNew(ctx, sessionID)
	o.commit(ctx, sessionID, sess, human, assistant)
}

// ClearHistory empties the session's history. Clearing an empty history is a no-op.
func (o *Orchestrator) ClearHistory(ctx context.Context, sessionID string) {
	sessionID = sessionKey(sessionID)

	o.mu.Lock()
	sess, ok := o.sessions.Get(sessionID)
	o.mu.Unlock()
	if ok {
		sess.history.Clear()
	}

	if o.store == nil {
		return
	}
	if err := o.store.Delete(ctx, sessionID); err != nil && !errors.Is(err, statex.ErrHistoryNotFound) {
		log.Warn().Err(err).Str("session", sessionID).Msg("delete history failed")
	}
}

// History returns a copy of the session's committed turns, oldest first.
func (o *Orchestrator) History(sessionID string) []statex.Turn {
	o.mu.Lock()
	sess, ok := o.sessions.Get(sessionKey(sessionID))
	o.mu.Unlock()
	if !ok {
		return nil
	}
	return sess.history.Snapshot()
}

// Capabilities lists the capabilities available to the session's current user.
func (o *Orchestrator) Capabilities(sessionID string) []toolx.Descriptor {
	o.mu.Lock()
	sess, ok := o.sessions.Get(sessionKey(sessionID))
	var catalog *toolx.Catalog
	if ok {
		catalog = sess.catalog
	}
	o.mu.Unlock()

	if catalog == nil {
		catalog = o.catalogs.Build("")
	}
	return catalog.Describe()
}

const summaryTurns = 3

// HistorySummary renders the turn count and the last few exchanges, each side cut to 50 runes.
func (o *Orchestrator) HistorySummary(sessionID string) string {
	turns := o.History(sessionID)
	if len(turns) == 0 {
		return "There is no conversation history."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d exchanges in total.\n", len(turns))
	recent := turns[max(0, len(turns)-summaryTurns):]
	for _, t := range recent {
		fmt.Fprintf(&b, "\nUser: %s\nAssistant: %s\n", clip(t.Human, 50), clip(t.Assistant, 50))
	}
	return b.String()
}

func (o *Orchestrator) existingOrNew(ctx context.Context, sessionID string) *session {
	o.mu.Lock()
	sess, ok := o.sessions.Get(sessionID)
	var userID string
	if ok {
		userID = sess.userID
	}
	o.mu.Unlock()
	if ok {
		return sess
	}
	sess, _ = o.session(ctx, sessionID, userID)
	return sess
}

func apology(method contractx.Method, err error) contractx.DispatchResult {
	res := contractx.DispatchResult{
		Response: ApologyReply,
		Method:   method,
		Success:  false,
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

func sessionKey(sessionID string) string {
	if id := strings.TrimSpace(sessionID); id != "" {
		return id
	}
	return defaultSessionID
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
