// Command adventure-engine is the main entry point for the adventure engine server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mrwong99/adventure-engine/internal/config"
	"github.com/mrwong99/adventure-engine/internal/coordinator"
	"github.com/mrwong99/adventure-engine/internal/dice"
	"github.com/mrwong99/adventure-engine/internal/health"
	"github.com/mrwong99/adventure-engine/internal/lore"
	"github.com/mrwong99/adventure-engine/internal/mcp"
	"github.com/mrwong99/adventure-engine/internal/mcp/mcphost"
	"github.com/mrwong99/adventure-engine/internal/mcp/tools/diceroller"
	"github.com/mrwong99/adventure-engine/internal/mcp/tools/loresearch"
	"github.com/mrwong99/adventure-engine/internal/npcagent"
	"github.com/mrwong99/adventure-engine/internal/observe"
	"github.com/mrwong99/adventure-engine/internal/resilience"
	"github.com/mrwong99/adventure-engine/internal/rule"
	"github.com/mrwong99/adventure-engine/internal/scene"
	"github.com/mrwong99/adventure-engine/internal/session"
	"github.com/mrwong99/adventure-engine/internal/transport"
	"github.com/mrwong99/adventure-engine/internal/worldpack"
	"github.com/mrwong99/adventure-engine/pkg/llm"
	"github.com/mrwong99/adventure-engine/pkg/llm/anyllm"
	"github.com/mrwong99/adventure-engine/pkg/llm/openai"
	"github.com/mrwong99/adventure-engine/pkg/provider/embeddings"
	embollama "github.com/mrwong99/adventure-engine/pkg/provider/embeddings/ollama"
	embopenai "github.com/mrwong99/adventure-engine/pkg/provider/embeddings/openai"
	"github.com/mrwong99/adventure-engine/pkg/vectorstore"
	"github.com/mrwong99/adventure-engine/pkg/vectorstore/mock"
	"github.com/mrwong99/adventure-engine/pkg/vectorstore/pgvector"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "adventure-engine: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "adventure-engine: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("adventure-engine starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "adventure-engine"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown error", "err", err)
		}
	}()

	pack, err := worldpack.Load(cfg.WorldPack.Path)
	if err != nil {
		slog.Error("failed to load world pack", "err", err)
		return 1
	}
	worldPackID := cfg.WorldPack.Path

	reg := config.NewRegistry()
	registerProviderFactories(reg)

	llmProvider, err := buildLLMProvider(cfg, reg)
	if err != nil {
		slog.Error("failed to build llm provider", "err", err)
		return 1
	}

	embedFunc, embedDims, err := buildEmbedFunc(cfg, reg)
	if err != nil {
		slog.Error("failed to build embeddings provider", "err", err)
		return 1
	}

	vecStore, err := buildVectorStore(ctx, cfg, embedDims)
	if err != nil {
		slog.Error("failed to build vector store", "err", err)
		return 1
	}

	loreCollection, err := vecStore.GetOrCreateCollection(ctx, "lore", map[string]string{"world_pack": worldPackID}, embedFunc)
	if err != nil {
		slog.Error("failed to create lore collection", "err", err)
		return 1
	}

	diceEngine := dice.New(rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
	retriever := lore.New(pack, loreCollection, lore.DefaultConfig(), logger)
	adjudicator := rule.New(llmProvider)
	assembler := scene.New(pack)
	roleplayer := npcagent.New(llmProvider, vecStore, embedFunc, logger)

	agentRegistry := coordinator.BuildRegistry(pack, adjudicator, retriever, roleplayer)

	mcpHost := mcphost.New()
	defer mcpHost.Close()
	if err := registerBuiltinTools(mcpHost, diceEngine, retriever); err != nil {
		slog.Error("failed to register built-in tools", "err", err)
		return 1
	}
	for _, srv := range cfg.MCP.Servers {
		if err := mcpHost.RegisterServer(ctx, mcp.ServerConfig{
			Name:      srv.Name,
			Transport: string(srv.Transport),
			Command:   srv.Command,
			URL:       srv.URL,
			Env:       srv.Env,
		}); err != nil {
			slog.Error("failed to register mcp server", "name", srv.Name, "err", err)
			return 1
		}
	}
	if err := mcpHost.Calibrate(ctx); err != nil {
		slog.Warn("mcp tool calibration failed", "err", err)
	}

	snapshotStore := buildSessionStore(cfg)

	sessionRegistry := session.NewRegistry()
	hub := transport.NewHub(sessionRegistry, cfg.Auth.JWTSecret, logger)

	srv := &server{
		cfg:             cfg,
		pack:            pack,
		worldPackID:     worldPackID,
		log:             logger,
		llm:             llmProvider,
		agentRegistry:   agentRegistry,
		assembler:       assembler,
		sessionRegistry: sessionRegistry,
		snapshotStore:   snapshotStore,
		hub:             hub,
		vecStore:        vecStore,
		embedFunc:       embedFunc,
	}

	mux := http.NewServeMux()
	health.New(health.Checker{
		Name: "vectorstore",
		Check: func(ctx context.Context) error {
			_, err := vecStore.GetOrCreateCollection(ctx, "healthcheck", nil, nil)
			return err
		},
	}).Register(mux)
	mux.HandleFunc("POST /sessions", srv.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}/channel", srv.handleChannel)
	mux.Handle("GET /metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: observe.Middleware(observe.DefaultMetrics())(mux),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server ready", "listen_addr", cfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping…")
	case err := <-errCh:
		slog.Error("server error", "err", err)
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Logger ───────────────────────────────────────────────────────────────────

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// ── Provider wiring ──────────────────────────────────────────────────────────

// registerProviderFactories wires every LLM and embeddings backend this
// build knows how to construct into reg, keyed by the name used in
// providers.llm.name / providers.embeddings.name.
func registerProviderFactories(reg *config.Registry) {
	reg.RegisterLLM("openai", func(e config.ProviderEntry) (llm.Provider, error) {
		var opts []openai.Option
		if e.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(e.BaseURL))
		}
		opts = append(opts, openai.WithHTTPClient(&http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   60 * time.Second,
		}))
		return openai.New(e.APIKey, e.Model, opts...)
	})

	for _, name := range []string{"anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"} {
		reg.RegisterLLM(name, func(e config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if e.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(e.APIKey))
			}
			if e.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(e.BaseURL))
			}
			return anyllm.New(name, e.Model, opts...)
		})
	}

	reg.RegisterEmbeddings("openai", func(e config.ProviderEntry) (embeddings.Provider, error) {
		var opts []embopenai.Option
		if e.BaseURL != "" {
			opts = append(opts, embopenai.WithBaseURL(e.BaseURL))
		}
		return embopenai.New(e.APIKey, e.Model, opts...)
	})
	reg.RegisterEmbeddings("ollama", func(e config.ProviderEntry) (embeddings.Provider, error) {
		return embollama.New(e.BaseURL, e.Model)
	})
}

// buildLLMProvider instantiates the configured primary LLM backend and wraps
// it in a circuit-breaker-backed fallback chain. An empty providers.llm.name
// is an error, and startup aborts.
func buildLLMProvider(cfg *config.Config, reg *config.Registry) (llm.Provider, error) {
	if cfg.Providers.LLM.Name == "" {
		return nil, fmt.Errorf("providers.llm.name is required")
	}
	primary, err := reg.CreateLLM(cfg.Providers.LLM)
	if err != nil {
		return nil, fmt.Errorf("create llm provider %q: %w", cfg.Providers.LLM.Name, err)
	}
	fb := resilience.NewLLMFallback(primary, cfg.Providers.LLM.Name, resilience.FallbackConfig{})
	return fb, nil
}

// buildEmbedFunc instantiates the configured embeddings backend, if any, and
// adapts it to vectorstore.EmbedFunc. An empty provider name disables vector
// search entirely: the returned EmbedFunc always fails, so lore retrieval
// falls back to keyword-only matching and NPC memory retrieval to the NPC's
// raw seeded memories.
func buildEmbedFunc(cfg *config.Config, reg *config.Registry) (vectorstore.EmbedFunc, int, error) {
	if cfg.Providers.Embeddings.Name == "" {
		return func(context.Context, string) ([]float32, error) {
			return nil, errors.New("no embeddings provider configured")
		}, 0, nil
	}
	provider, err := reg.CreateEmbeddings(cfg.Providers.Embeddings)
	if err != nil {
		return nil, 0, fmt.Errorf("create embeddings provider %q: %w", cfg.Providers.Embeddings.Name, err)
	}
	return provider.Embed, provider.Dimensions(), nil
}

// buildVectorStore returns a pgvector-backed store when memory.postgres_dsn
// is set, otherwise the in-memory brute-force store.
func buildVectorStore(ctx context.Context, cfg *config.Config, embedDims int) (vectorstore.Store, error) {
	if cfg.Memory.PostgresDSN == "" {
		return mock.New(), nil
	}
	pool, err := pgxpool.New(ctx, cfg.Memory.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	dims := cfg.Memory.EmbeddingDimensions
	if dims <= 0 {
		dims = embedDims
	}
	return pgvector.New(pool, dims), nil
}

// buildSessionStore returns a Redis-backed session snapshot store wrapped in
// a StoreGuard when memory.redis_addr is set, otherwise an in-memory store —
// adequate for single-process development but lost on restart.
func buildSessionStore(cfg *config.Config) *session.StoreGuard {
	if cfg.Memory.RedisAddr == "" {
		return session.NewStoreGuard(session.NewMemStore())
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Memory.RedisAddr})
	ttl := time.Duration(cfg.Memory.SnapshotTTLSec) * time.Second
	return session.NewStoreGuard(session.NewRedisStore(client, ttl))
}

// registerBuiltinTools exposes the Dice Engine's roll and the Lore
// Retriever's search as in-process MCP tools.
func registerBuiltinTools(host *mcphost.Host, engine *dice.Engine, retriever *lore.Retriever) error {
	for _, t := range diceroller.ToolsWithEngine(engine) {
		if err := host.RegisterBuiltin(mcphost.BuiltinTool{
			Definition:  t.Definition,
			Handler:     t.Handler,
			DeclaredP50: t.DeclaredP50,
			DeclaredMax: t.DeclaredMax,
		}); err != nil {
			return err
		}
	}
	for _, t := range loresearch.Tools(retriever) {
		if err := host.RegisterBuiltin(mcphost.BuiltinTool{
			Definition:  t.Definition,
			Handler:     t.Handler,
			DeclaredP50: t.DeclaredP50,
			DeclaredMax: t.DeclaredMax,
		}); err != nil {
			return err
		}
	}
	return nil
}

// ── HTTP server ──────────────────────────────────────────────────────────────

// server holds every shared dependency a session needs to bind a new Loop.
type server struct {
	cfg             *config.Config
	pack            *worldpack.Pack
	worldPackID     string
	log             *slog.Logger
	llm             llm.Provider
	agentRegistry   *coordinator.Registry
	assembler       *scene.Assembler
	sessionRegistry *session.Registry
	snapshotStore   *session.StoreGuard
	hub             *transport.Hub
	vecStore        vectorstore.Store
	embedFunc       vectorstore.EmbedFunc
}

type createSessionRequest struct {
	Lang string `json:"lang"`
}

type createSessionResponse struct {
	SessionID  string `json:"session_id"`
	LocationID string `json:"location_id"`
	Token      string `json:"token,omitempty"`
}

// handleCreateSession starts a new session at the first location in the
// world pack's catalog load order — the world pack carries no explicit
// "start location" flag, so the catalog's declared order stands in for one.
func (s *server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	lang := req.Lang
	if lang == "" {
		lang = "en"
	}

	locations := s.pack.Locations.All()
	if len(locations) == 0 {
		http.Error(w, "world pack has no locations", http.StatusInternalServerError)
		return
	}
	startLocation := locations[0].ID

	sessionID := uuid.NewString()
	state := session.New(sessionID, s.worldPackID, startLocation, lang, s.pack.PlayerCharacter)

	loop := coordinator.NewLoop(sessionID, s.pack, s.llm, s.agentRegistry, s.assembler, coordinator.DefaultConfig(), s.hub, s.log, state, s.vecStore, s.embedFunc)
	driver := &persistingDriver{inner: loop, state: state, store: s.snapshotStore}

	s.sessionRegistry.Bind(sessionID, &session.Binding{State: state, Driver: driver})

	if snap, err := session.Marshal(state); err == nil {
		_ = s.snapshotStore.SaveState(r.Context(), sessionID, snap)
	}

	resp := createSessionResponse{SessionID: sessionID, LocationID: startLocation}
	if s.cfg.Auth.JWTSecret != "" {
		token, err := transport.IssueSessionToken(s.cfg.Auth.JWTSecret, sessionID, 24*time.Hour)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		resp.Token = token
	}

	writeJSON(w, http.StatusCreated, resp)
}

// handleChannel upgrades the request to the Session Channel WebSocket for an
// already-bound session.
func (s *server) handleChannel(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if err := s.hub.Accept(w, r, sessionID); err != nil {
		s.log.Warn("session channel accept failed", "session_id", sessionID, "err", err)
	}
}

// persistingDriver wraps a session.Driver, saving a GameState snapshot after
// every turn so a session survives a process restart when the snapshot
// store is Redis-backed.
type persistingDriver struct {
	inner session.Driver
	state *session.GameState
	store *session.StoreGuard
}

func (p *persistingDriver) HandlePlayerInput(ctx context.Context, content, lang string) error {
	err := p.inner.HandlePlayerInput(ctx, content, lang)
	p.save(ctx)
	return err
}

func (p *persistingDriver) HandleDiceResult(ctx context.Context, result session.DiceResultMsg) error {
	err := p.inner.HandleDiceResult(ctx, result)
	p.save(ctx)
	return err
}

func (p *persistingDriver) save(ctx context.Context) {
	snap, err := session.Marshal(p.state)
	if err != nil {
		return
	}
	_ = p.store.SaveState(ctx, p.state.SessionID, snap)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
