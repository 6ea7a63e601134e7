package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mrwong99/adventure-engine/internal/apperr"
	"github.com/mrwong99/adventure-engine/internal/dice"
	"github.com/mrwong99/adventure-engine/internal/npcagent"
	"github.com/mrwong99/adventure-engine/internal/scene"
	"github.com/mrwong99/adventure-engine/internal/session"
	"github.com/mrwong99/adventure-engine/internal/worldpack"
	"github.com/mrwong99/adventure-engine/pkg/llm"
	"github.com/mrwong99/adventure-engine/pkg/types"
	"github.com/mrwong99/adventure-engine/pkg/vectorstore"
)

// Emitter delivers outbound Session Channel messages for a session. Satisfied
// by *transport.Hub; kept as a narrow interface here so the Loop can be
// tested without a real WebSocket hub.
type Emitter interface {
	Emit(ctx context.Context, sessionID, msgType string, data any)
}

// Loop is the ReAct Loop: one per session, driving sub-agent dispatch and
// narrative generation until it produces a RESPOND action or suspends for a
// dice check. Loop implements session.Driver.
type Loop struct {
	sessionID string
	pack      *worldpack.Pack
	planner   llm.Provider
	registry  *Registry
	assembler *scene.Assembler
	cfg       Config
	emit      Emitter
	log       *slog.Logger
	state     *session.GameState

	// memStore/embed back NPC memory persistence after a roleplay turn;
	// memStore may be nil, in which case new memories are dropped (logged,
	// never an error — the same degrade-gracefully posture as RetrieveMemories).
	memStore vectorstore.Store
	embed    vectorstore.EmbedFunc

	mu sync.Mutex // serializes turns within this session
}

// NewLoop constructs a Loop bound to one session's GameState.
func NewLoop(sessionID string, pack *worldpack.Pack, planner llm.Provider, registry *Registry, assembler *scene.Assembler, cfg Config, emit Emitter, log *slog.Logger, state *session.GameState, memStore vectorstore.Store, embed vectorstore.EmbedFunc) *Loop {
	if log == nil {
		log = slog.Default()
	}
	return &Loop{
		sessionID: sessionID, pack: pack, planner: planner, registry: registry,
		assembler: assembler, cfg: cfg, emit: emit, log: log, state: state,
		memStore: memStore, embed: embed,
	}
}

var _ session.Driver = (*Loop)(nil)

// HandlePlayerInput implements session.Driver for a fresh player turn.
func (l *Loop) HandlePlayerInput(ctx context.Context, content, lang string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state.CurrentPhase() != session.PhaseWaitingInput {
		return fmt.Errorf("coordinator: %w", apperr.ErrProtocolBusy)
	}

	l.state.AddMessage("player", "", content)
	l.state.SetPhase(session.PhaseGM)
	l.emit.Emit(ctx, l.sessionID, "status", statusPayload("gm", ""))

	return l.run(ctx, content, lang, 0, nil, nil)
}

// HandleDiceResult implements session.Driver, resuming a suspended turn.
func (l *Loop) HandleDiceResult(ctx context.Context, result session.DiceResultMsg) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	resume := l.state.TakeReactState()
	if resume == nil {
		err := fmt.Errorf("coordinator: %w", apperr.ErrResumeInvalid)
		l.emit.Emit(ctx, l.sessionID, "error", errorPayload(err))
		return err
	}
	l.state.ClearReactState()

	diceRes := dice.Result{
		AllRolls:  result.AllRolls,
		KeptRolls: result.KeptRolls,
		Total:     result.Total,
		Outcome:   dice.Outcome(result.Outcome),
	}
	l.state.SetLastCheckResult(result.Outcome, result.Total)

	l.state.SetPhase(session.PhaseGM)
	l.emit.Emit(ctx, l.sessionID, "status", statusPayload("gm", ""))

	return l.run(ctx, resume.PlayerInput, l.state.Lang, resume.Iteration, toSessionAgentResults(resume.AgentResults), &diceRes)
}

func toSessionAgentResults(in []session.AgentResult) []session.AgentResult {
	out := make([]session.AgentResult, len(in))
	copy(out, in)
	return out
}

// run executes steps (a)-(g) of the per-turn algorithm starting at
// iteration startIteration, carrying forward agentResults accumulated
// before a prior suspension (if any) and diceResult when resuming after one.
func (l *Loop) run(ctx context.Context, playerInput, lang string, startIteration int, agentResults []session.AgentResult, diceResult *dice.Result) error {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.TurnBudget)
	defer cancel()

	for i := startIteration; i < l.cfg.MaxIterations; i++ {
		forceOutput := i >= l.cfg.MaxIterations-1

		sceneCtx, err := l.assembler.Assemble(ctx, l.state.Location(), discoveredSet(l.state.DiscoveredItemIDs()), lang)
		if err != nil {
			return fmt.Errorf("coordinator: assembling scene: %w", err)
		}

		prompt := l.buildReactPrompt(sceneCtx, playerInput, agentResults, forceOutput, lang)

		action, err := l.callPlanner(ctx, prompt)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return l.surfaceTimeout(ctx)
			}
			return fmt.Errorf("coordinator: planner call: %w", err)
		}

		switch action.Action {
		case actionRespond:
			return l.handleRespond(ctx, action)

		case actionCallAgent:
			next, done, err := l.handleCallAgent(ctx, action, agentResults, lang, diceResult, i+1, playerInput)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			agentResults = next

		default:
			// Unrecognized action value: treat as a narrative RESPOND so a
			// stray field never silently drops the turn.
			return l.handleRespond(ctx, reactAction{Action: actionRespond, Narrative: action.Narrative})
		}
	}

	return l.surfaceLoopExceeded(ctx)
}

func (l *Loop) callPlanner(ctx context.Context, prompt string) (reactAction, error) {
	callCtx, cancel := context.WithTimeout(ctx, l.cfg.LLMTimeout)
	defer cancel()

	resp, err := l.planner.Complete(callCtx, llm.CompletionRequest{
		SystemPrompt: reactSystemPrompt,
		Messages:     []types.Message{{Role: "user", Content: prompt}},
		Temperature:  0.7,
	})
	if err != nil {
		return reactAction{}, err
	}
	return decodeReactAction(resp.Content), nil
}

func (l *Loop) handleRespond(ctx context.Context, action reactAction) error {
	if action.TargetLocation != "" {
		loc, ok := l.pack.Locations.Get(l.state.Location())
		if ok && contains(loc.ConnectedLocations, action.TargetLocation) {
			npcIDs := npcIDsOf(l.pack.NPCsAt(action.TargetLocation))
			l.state.UpdateLocation(action.TargetLocation, npcIDs)
		} else {
			l.log.WarnContext(ctx, "coordinator: scene transition refused", "session_id", l.sessionID,
				"target", action.TargetLocation, "error", apperr.ErrTransitionRefused)
		}
	}

	l.state.AddMessage("assistant", "", action.Narrative)
	l.state.SetPhase(session.PhaseWaitingInput)
	l.state.IncrementTurn()

	l.emit.Emit(ctx, l.sessionID, "phase", phasePayload(string(session.PhaseWaitingInput)))
	l.emit.Emit(ctx, l.sessionID, "complete", completePayload(action.Narrative, completeMetadata(l.state), true))
	return nil
}

// completeMetadata builds the "complete" message's metadata, currently just
// the last resolved dice check (§3's optional last_check_result), nil when
// none has resolved this session.
func completeMetadata(state *session.GameState) map[string]any {
	check := state.LastCheck()
	if check == nil {
		return nil
	}
	return map[string]any{"last_check_result": check}
}

// handleCallAgent dispatches one CALL_AGENT action. It returns the updated
// agentResults list and done=true when the turn has suspended for a dice
// check (the caller must stop iterating in that case).
func (l *Loop) handleCallAgent(ctx context.Context, action reactAction, agentResults []session.AgentResult, lang string, diceResult *dice.Result, resumeIteration int, turnPlayerInput string) ([]session.AgentResult, bool, error) {
	l.emit.Emit(ctx, l.sessionID, "status", statusPayload(action.AgentName, ""))

	sliceCtx, err := l.sliceContextFor(action.AgentName, action.AgentContext, lang, diceResult)
	if err != nil {
		// Agent not found among the recognizable shapes (e.g. an npc_<id>
		// for an id not in this world pack): recovered, skip iteration.
		l.log.WarnContext(ctx, "coordinator: unresolved agent context", "agent", action.AgentName, "error", err)
		return agentResults, false, nil
	}

	resp, err := l.registry.invokeNamed(ctx, action.AgentName, sliceCtx)
	if err != nil {
		if errors.Is(err, apperr.ErrAgentNotFound) {
			l.log.WarnContext(ctx, "coordinator: agent not found, skipping", "agent", action.AgentName)
			return agentResults, false, nil
		}
		// ErrAgentFailure or any other sub-agent error: recovered, append
		// an empty-content entry and continue the loop.
		agentResults = append(agentResults, session.AgentResult{Agent: action.AgentName, Content: "", Success: false})
		return agentResults, false, nil
	}

	if action.AgentName == "rule" {
		if checkReq, needsCheck := CheckRequestFromMetadata(resp); needsCheck {
			agentResults = append(agentResults, session.AgentResult{Agent: action.AgentName, Content: resp.Content, Success: true})
			l.state.SaveReactState(turnPlayerInput, resumeIteration, agentResults)

			preCheckNarrative := checkReq.Instructions.Resolve(lang)
			if preCheckNarrative != "" {
				l.state.AddMessage("assistant", "", preCheckNarrative)
			}
			l.state.SetPhase(session.PhaseDiceCheck)
			l.emit.Emit(ctx, l.sessionID, "dice_check", diceCheckPayload(checkReq))
			return agentResults, true, nil
		}
	}

	if strings.HasPrefix(action.AgentName, npcAgentPrefix) {
		l.applyNPCMetadata(ctx, strings.TrimPrefix(action.AgentName, npcAgentPrefix), resp)
	}

	agentResults = append(agentResults, session.AgentResult{Agent: action.AgentName, Content: resp.Content, Success: resp.Success})
	return agentResults, false, nil
}

// applyNPCMetadata folds an NPC Roleplayer's relation_change into the
// session's NPC relation tracking and persists a reported new_memory, per
// §4.5. Both are best-effort: a failed persist is logged, never fails the turn.
func (l *Loop) applyNPCMetadata(ctx context.Context, npcID string, resp AgentResponse) {
	if delta, ok := resp.Metadata["relation_change"].(int); ok && delta != 0 {
		l.state.AdjustNPCRelation(npcID, delta)
	}

	mem, ok := resp.Metadata["new_memory"].(*npcagent.NewMemory)
	if !ok || mem == nil {
		return
	}
	if l.memStore == nil {
		l.log.WarnContext(ctx, "coordinator: dropping new npc memory, no vector store configured", "npc_id", npcID)
		return
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if err := npcagent.PersistMemory(ctx, l.memStore, l.embed, npcID, mem.Event, mem.Keywords, timestamp); err != nil {
		l.log.WarnContext(ctx, "coordinator: persisting npc memory failed", "npc_id", npcID, "error", err)
	}
}

func (l *Loop) surfaceLoopExceeded(ctx context.Context) error {
	err := fmt.Errorf("coordinator: %w", apperr.ErrLoopExceeded)
	l.state.SetPhase(session.PhaseWaitingInput)
	l.emit.Emit(ctx, l.sessionID, "complete", completePayload("", nil, false))
	return err
}

func (l *Loop) surfaceTimeout(ctx context.Context) error {
	err := fmt.Errorf("coordinator: %w", apperr.ErrTimeout)
	l.state.ClearReactState()
	l.state.SetPhase(session.PhaseWaitingInput)
	l.emit.Emit(ctx, l.sessionID, "error", errorPayload(err))
	l.emit.Emit(ctx, l.sessionID, "complete", completePayload("", nil, false))
	return err
}

// sliceContextFor builds the forbidden-key-isolated context for agentName,
// dispatching on whether it is "rule", "lore", or an npc_<id> name.
func (l *Loop) sliceContextFor(agentName string, raw map[string]any, lang string, diceResult *dice.Result) (map[string]any, error) {
	switch {
	case agentName == "rule":
		action, _ := raw["action"].(string)
		return RuleContext(action, l.state.PlayerSheet(), l.state.PlayerTags(), lang), nil

	case agentName == "lore":
		query, _ := raw["query"].(string)
		region, _ := l.pack.RegionOf(l.state.Location())
		return LoreContext(query, l.state.Location(), region.ID, l.state.DiscoveredItemIDs(), l.state.WorldPackID, lang), nil

	case strings.HasPrefix(agentName, npcAgentPrefix):
		id := strings.TrimPrefix(agentName, npcAgentPrefix)
		npc, ok := l.pack.NPCs.Get(id)
		if !ok {
			return nil, fmt.Errorf("coordinator: unknown npc %q", id)
		}
		playerInput, _ := raw["player_input"].(string)
		style := npcagent.Brief
		if s, ok := raw["narrative_style"].(string); ok && s == string(npcagent.Detailed) {
			style = npcagent.Detailed
		}
		recent := recentMessagesForNPC(l.state, id, l.cfg.HistoryLength)

		var direction string
		if diceResult != nil {
			direction = npcagent.RoleplayDirection(*diceResult, lang)
		}
		return NPCContext(id, npc, playerInput, recent, style, direction, l.state.Location(), l.state.WorldPackID, lang), nil

	default:
		return nil, fmt.Errorf("coordinator: %w: %q", apperr.ErrAgentNotFound, agentName)
	}
}

func recentMessagesForNPC(state *session.GameState, npcID string, k int) []npcagent.RecentMessage {
	msgs := state.RecentMessagesForNPC(npcID, k)
	out := make([]npcagent.RecentMessage, len(msgs))
	for i, m := range msgs {
		role := "assistant"
		if m.Role == "player" {
			role = "user"
		}
		out[i] = npcagent.RecentMessage{Role: role, Content: m.Content}
	}
	return out
}

func discoveredSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func npcIDsOf(npcs []worldpack.NPC) []string {
	out := make([]string, len(npcs))
	for i, n := range npcs {
		out[i] = n.ID
	}
	return out
}

func contains(ss []string, target string) bool {
	for _, s := range ss {
		if s == target {
			return true
		}
	}
	return false
}

// buildReactPrompt composes the per-iteration ReAct prompt: location
// context, active NPCs, recent history, and the instruction to emit a
// RESPOND or CALL_AGENT action (or only RESPOND when forceOutput is set).
func (l *Loop) buildReactPrompt(sceneCtx scene.Context, playerInput string, agentResults []session.AgentResult, forceOutput bool, lang string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Location: %s (%s)\n", sceneCtx.Location.Name, sceneCtx.Region.Name)
	fmt.Fprintf(&b, "Atmosphere: %s\n", sceneCtx.AtmosphereGuidance)
	if len(sceneCtx.BasicLore) > 0 {
		fmt.Fprintf(&b, "Background:\n- %s\n", strings.Join(sceneCtx.BasicLore, "\n- "))
	}

	activeIDs := l.state.ActiveNPCs()
	if len(activeIDs) > 0 {
		b.WriteString("NPCs present:\n")
		for _, id := range activeIDs {
			if npc, ok := l.pack.NPCs.Get(id); ok {
				fmt.Fprintf(&b, "- %s (%s): %s\n", npc.ID, npc.Soul.Name, npc.Soul.Description.Resolve(lang))
			}
		}
	}

	for _, m := range l.state.RecentMessages(l.cfg.HistoryLength) {
		fmt.Fprintf(&b, "[%s] %s\n", m.Role, m.Content)
	}

	if tags := l.state.PlayerTags(); len(tags) > 0 {
		fmt.Fprintf(&b, "Player tags: %s\n", strings.Join(tags, ", "))
	}

	fmt.Fprintf(&b, "Player: %s\n", playerInput)

	if len(agentResults) > 0 {
		b.WriteString("Sub-agent results so far this turn:\n")
		for _, r := range agentResults {
			fmt.Fprintf(&b, "- %s: %s\n", r.Agent, r.Content)
		}
	}

	if forceOutput {
		b.WriteString("You must emit a RESPOND action now.\n")
	}
	return b.String()
}

const reactSystemPrompt = `You are the game master coordinator for a text adventure. Each turn, decide ` +
	`whether to respond directly to the player or delegate to a sub-agent first. Respond with a single JSON ` +
	`object, one of: ` +
	`{"action": "RESPOND", "narrative": string, "target_location": string, "reasoning": string} or ` +
	`{"action": "CALL_AGENT", "agent_name": string, "agent_context": object, "reasoning": string}. ` +
	`agent_name is "rule" for rule adjudication, "lore" for background lookup, or "npc_<id>" to speak as a ` +
	`specific NPC.`

func statusPayload(phase, message string) any {
	return struct {
		Phase   string `json:"phase"`
		Message string `json:"message,omitempty"`
	}{Phase: phase, Message: message}
}

func errorPayload(err error) any {
	return struct {
		Error string `json:"error"`
	}{Error: err.Error()}
}

func completePayload(content string, metadata map[string]any, success bool) any {
	return struct {
		Content  string         `json:"content"`
		Metadata map[string]any `json:"metadata,omitempty"`
		Success  bool           `json:"success"`
	}{Content: content, Metadata: metadata, Success: success}
}

func diceCheckPayload(req *dice.CheckRequest) any {
	return struct {
		CheckRequest *dice.CheckRequest `json:"check_request"`
	}{CheckRequest: req}
}

func phasePayload(phase string) any {
	return struct {
		Phase string `json:"phase"`
	}{Phase: phase}
}

