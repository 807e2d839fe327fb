package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/zeroshot/zeroshot/internal/bus"
	"github.com/zeroshot/zeroshot/internal/client"
	"github.com/zeroshot/zeroshot/internal/log"
	"github.com/zeroshot/zeroshot/internal/metrics"
	"github.com/zeroshot/zeroshot/internal/tracing"
)

// ErrNotExecuting is returned by SampleMetrics when the runtime has no
// provider subprocess currently running.
var ErrNotExecuting = errors.New("agent: not executing")

// Runtime drives a single agent's state machine off a cluster's bus. The
// zero value is not usable; construct with New.
type Runtime struct {
	clusterID string
	cfg       Config
	bus       *bus.Bus
	provider  client.AgentProvider
	workDir   string
	lookupEnv func(string) (string, bool)

	mu        sync.Mutex
	state     State
	cursor    uint64
	evaluated bool // whether cursor holds a sequence number already considered
	iteration int
	childPID  int
	lastErr   error
	updatedAt time.Time
	unsub     bus.Unsubscribe
	cancelRun context.CancelFunc
}

// New constructs a Runtime for cfg, wired to b and workDir, invoking
// provider for execute_task actions.
func New(clusterID string, cfg Config, b *bus.Bus, provider client.AgentProvider, workDir string) *Runtime {
	return &Runtime{
		clusterID: clusterID,
		cfg:       cfg,
		bus:       b,
		provider:  provider,
		workDir:   workDir,
		lookupEnv: os.LookupEnv,
		state:     StateIdle,
		updatedAt: time.Now(),
	}
}

// SampleMetrics takes one CPU%/RSS/net-bytes reading of the agent's
// currently running provider subprocess via probe, blocking for window (or
// until ctx is canceled). Returns ErrNotExecuting if no subprocess is
// currently recorded.
func (r *Runtime) SampleMetrics(ctx context.Context, probe *metrics.Probe, window time.Duration) (metrics.Sample, error) {
	r.mu.Lock()
	pid := r.childPID
	r.mu.Unlock()
	if pid == 0 {
		return metrics.Sample{}, ErrNotExecuting
	}
	return probe.Sample(ctx, pid, window)
}

// Status returns a snapshot of the runtime's current state.
func (r *Runtime) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		AgentID:   r.cfg.ID,
		Role:      r.cfg.Role,
		State:     r.state,
		Cursor:    r.cursor,
		Iteration: r.iteration,
		ChildPID:  r.childPID,
		LastErr:   r.lastErr,
		UpdatedAt: r.updatedAt,
	}
}

// Start subscribes the runtime to future bus events and evaluates the
// backlog already on the bus (so a seed event published before Start is
// not missed). Subscribing before draining the backlog means an event
// published in between is safely double-considered: the cursor check in
// evaluateLocked makes that idempotent.
func (r *Runtime) Start(ctx context.Context) {
	r.unsub = r.bus.Subscribe("", func(e bus.Event) { r.onEvent(ctx) })

	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluateLocked(ctx)
}

// Stop terminates the runtime: unsubscribes from the bus, cancels any
// in-flight execution, and transitions to stopped. Idempotent.
func (r *Runtime) Stop() {
	if r.unsub != nil {
		r.unsub()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelRun != nil {
		r.cancelRun()
	}
	r.state = StateStopped
	r.updatedAt = time.Now()
}

func (r *Runtime) onEvent(ctx context.Context) {
	if !r.mu.TryLock() {
		// The lock is held, possibly further up this goroutine's own stack
		// by an action or hook that is publishing; evaluate once it is
		// released instead of deadlocking on the non-reentrant mutex.
		go func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.state == StateIdle {
				r.evaluateLocked(ctx)
			}
		}()
		return
	}
	defer r.mu.Unlock()
	if r.state != StateIdle {
		return
	}
	r.evaluateLocked(ctx)
}

// evaluateLocked runs a single trigger-evaluation pass over every bus
// event newer than the cursor, in order. Per spec.md §4.3, the first
// matching trigger for the first matching event wins and the cursor
// still advances to the highest sequence number seen, whether or not a
// trigger fired. Must be called with r.mu held.
func (r *Runtime) evaluateLocked(ctx context.Context) {
	var events []bus.Event
	if r.evaluated {
		events = r.bus.Since(r.cursor)
	} else {
		events = r.bus.Query(bus.Query{})
	}
	if len(events) == 0 {
		return
	}

	ctx, span := tracing.StartTriggerSpan(ctx, r.clusterID, r.cfg.ID, string(r.cfg.Role))
	defer func() { tracing.End(span, nil) }()

	r.state = StateEvaluating
	r.updatedAt = time.Now()

	var matchedEvt *bus.Event
	var action Action
eventLoop:
	for i := range events {
		for _, trig := range r.cfg.Triggers {
			if trig.matches(events[i].Topic, events[i].Payload) {
				matchedEvt = &events[i]
				action = trig.Action
				break eventLoop
			}
		}
	}

	r.cursor = events[len(events)-1].Seq
	r.evaluated = true

	if matchedEvt == nil {
		r.state = StateIdle
		r.updatedAt = time.Now()
		return
	}

	tracing.RecordTriggerMatch(span, matchedEvt.Topic, string(action.Kind))
	r.dispatchLocked(ctx, *matchedEvt, action)
}

// dispatchLocked carries out action in reaction to evt. Must be called
// with r.mu held. execute_task is the only branch that leaves the lock
// held across a goroutine hand-off; every other action completes
// synchronously and returns the runtime to idle.
func (r *Runtime) dispatchLocked(ctx context.Context, evt bus.Event, action Action) {
	switch action.Kind {
	case ActionNoop, "":
		r.state = StateIdle

	case ActionPublishMessage:
		r.publishLocked(action, evt.Payload)
		r.state = StateIdle

	case ActionStopCluster:
		r.bus.Publish(bus.Publication{
			Topic:     bus.TopicClusterStop,
			Publisher: r.cfg.ID,
			Payload:   map[string]any{"reason": "stop_cluster", "agent": r.cfg.ID},
		})
		r.state = StateIdle

	case ActionExecuteTask:
		r.state = StateBuildingContext
		promptCtx, err := buildContext(r.cfg, evt.Payload)
		if err != nil {
			log.Warn(log.CatAgent, "context assembly failed", "agent", r.cfg.ID, "err", err)
			r.lastErr = err
			r.state = StateError
			return
		}
		r.state = StateExecuting
		r.iteration++
		runCtx, cancel := context.WithCancel(ctx)
		r.cancelRun = cancel
		go r.runTask(runCtx, evt, promptCtx)

	default:
		log.Warn(log.CatAgent, "unknown action kind", "agent", r.cfg.ID, "kind", action.Kind)
		r.state = StateIdle
	}

	r.updatedAt = time.Now()
}

// publishLocked renders action's payload template against source and
// publishes it. Must be called with r.mu held (only used for synchronous,
// non-execute_task actions).
func (r *Runtime) publishLocked(action Action, source map[string]any) {
	payload, err := renderPayloadTemplate(action.PayloadTemplate, source)
	if err != nil {
		log.Warn(log.CatAgent, "payload template render failed", "agent", r.cfg.ID, "err", err)
		return
	}
	r.bus.Publish(bus.Publication{Topic: action.Topic, Publisher: r.cfg.ID, Payload: payload})
}

// taskResult carries a successful execute_task outcome to its hook.
type taskResult struct {
	Text string `json:"text"`
}

// runTask performs the actual provider invocation outside the runtime
// lock (subprocess spawn/wait/parse suspend only this agent, per
// spec.md §5), then reacquires the lock to run the matching hook and
// transition state.
func (r *Runtime) runTask(ctx context.Context, evt bus.Event, promptCtx string) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	result, err := r.execute(ctx, promptCtx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelRun = nil
	r.childPID = 0

	switch {
	case errors.Is(err, ErrCancelled):
		r.state = StateStopped
		r.updatedAt = time.Now()
		return

	case errors.Is(err, ErrAgentTimeout):
		r.lastErr = err
		r.runHookLocked(r.cfg.OnError, evt, nil)
		r.finishErrorLocked()

	case err != nil:
		r.lastErr = err
		r.runHookLocked(r.cfg.OnError, evt, nil)
		r.finishErrorLocked()

	default:
		r.lastErr = nil
		payload := map[string]any{"text": result.Text, "agent": r.cfg.ID}
		r.runHookLocked(r.cfg.OnComplete, evt, payload)
		r.state = StateIdle
	}

	r.updatedAt = time.Now()
}

// finishErrorLocked applies the error -> idle retry transition when the
// agent's config allows it, else leaves the runtime in error. Must be
// called with r.mu held.
func (r *Runtime) finishErrorLocked() {
	if r.cfg.RetryOnError {
		r.state = StateIdle
		return
	}
	r.state = StateError
}

// runHookLocked runs an onComplete/onError hook, merging the triggering
// event's payload with any result payload so hook templates can reference
// both. Must be called with r.mu held.
func (r *Runtime) runHookLocked(hook *Action, evt bus.Event, result map[string]any) {
	if hook == nil {
		return
	}

	merged := make(map[string]any, len(evt.Payload)+len(result))
	for k, v := range evt.Payload {
		merged[k] = v
	}
	for k, v := range result {
		merged[k] = v
	}

	switch hook.Kind {
	case ActionPublishMessage:
		r.publishLocked(*hook, merged)
	case ActionStopCluster:
		r.bus.Publish(bus.Publication{
			Topic:     bus.TopicClusterStop,
			Publisher: r.cfg.ID,
			Payload:   map[string]any{"reason": "hook", "agent": r.cfg.ID},
		})
	case ActionNoop, "":
	default:
		log.Warn(log.CatAgent, "unsupported hook action kind", "agent", r.cfg.ID, "kind", hook.Kind)
	}
}

// execute dispatches to the direct-API fast path or the subprocess path
// depending on the agent's configuration and credential availability.
func (r *Runtime) execute(ctx context.Context, promptCtx string) (taskResult, error) {
	if r.cfg.WantsDirectAPI() {
		if apiKey, ok := r.lookupEnv(client.DirectAPICredentialEnv); ok {
			return r.executeDirectAPI(ctx, apiKey, promptCtx)
		}
		log.Debug(log.CatAgent, "direct api requested but credential absent, falling back to subprocess", "agent", r.cfg.ID)
	}
	return r.executeSubprocess(ctx, promptCtx)
}

func (r *Runtime) executeDirectAPI(ctx context.Context, apiKey, promptCtx string) (taskResult, error) {
	ctx, span := tracing.StartProviderSpan(ctx, r.cfg.ID, string(r.provider.Type()))
	var spanErr error
	defer func() { tracing.End(span, spanErr) }()

	c := client.NewDirectAPIClient(apiKey)

	modelID, _, err := r.resolveModel()
	if err != nil {
		spanErr = err
		return taskResult{}, err
	}

	raw, err := c.Call(ctx, client.DirectAPIRequest{Model: modelID, Prompt: promptCtx})
	if err != nil {
		if client.IsRateLimited(err) {
			spanErr = fmt.Errorf("%w", err)
			return taskResult{}, spanErr
		}
		spanErr = err
		return taskResult{}, err
	}

	if r.cfg.JSONSchema == "" {
		return taskResult{Text: raw}, nil
	}

	var out map[string]any
	if err := client.ExtractJSON(raw, &out); err != nil {
		spanErr = err
		return taskResult{}, err
	}
	return taskResult{Text: raw}, nil
}

func (r *Runtime) executeSubprocess(ctx context.Context, promptCtx string) (taskResult, error) {
	ctx, span := tracing.StartProviderSpan(ctx, r.cfg.ID, string(r.provider.Type()))
	var spanErr error
	defer func() { tracing.End(span, spanErr) }()

	headless, err := r.provider.Client()
	if err != nil {
		spanErr = fmt.Errorf("%w: %w", client.ErrProviderUnavailable, err)
		return taskResult{}, spanErr
	}

	modelID, _, err := r.resolveModel()
	if err != nil {
		spanErr = err
		return taskResult{}, err
	}

	cfg := client.Config{
		WorkDir:         r.workDir,
		Prompt:          promptCtx,
		Timeout:         r.cfg.Timeout,
		SkipPermissions: r.cfg.AutoApprove,
	}
	cfg.SetExtension(providerModelExtKey(headless.Type()), modelID)

	proc, err := headless.Spawn(ctx, cfg)
	if err != nil {
		spanErr = err
		return taskResult{}, err
	}

	r.mu.Lock()
	r.childPID = proc.PID()
	r.mu.Unlock()
	tracing.RecordProcessSpawned(span, proc.PID())

	var text string
	var resultErr error

	for done := false; !done; {
		select {
		case <-ctx.Done():
			_ = proc.Cancel()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				spanErr = ErrAgentTimeout
				return taskResult{}, ErrAgentTimeout
			}
			spanErr = ErrCancelled
			return taskResult{}, ErrCancelled

		case ev, ok := <-proc.Events():
			if !ok {
				done = true
				break
			}
			if ev.IsAssistant() {
				text += ev.Message.GetText()
			}
			if ev.IsResult() {
				if ev.IsErrorResult {
					resultErr = fmt.Errorf("provider result error: %s", ev.GetErrorMessage())
				}
				if ev.Result != "" {
					text = ev.Result
				}
			}

		case procErr, ok := <-proc.Errors():
			if ok && procErr != nil {
				resultErr = procErr
			}
		}
	}

	if waitErr := proc.Wait(); waitErr != nil && resultErr == nil {
		resultErr = waitErr
	}
	if resultErr != nil {
		spanErr = resultErr
		return taskResult{}, resultErr
	}
	return taskResult{Text: text}, nil
}

// resolveModel resolves r.cfg's Level against its provider's LevelTable.
func (r *Runtime) resolveModel() (string, string, error) {
	table, ok := client.LevelTableFor(client.ClientType(r.cfg.Provider))
	if !ok {
		return "", "", fmt.Errorf("no level table registered for provider %q", r.cfg.Provider)
	}
	return table.Resolve(client.Level(r.cfg.Level), r.cfg.ReasoningEffort)
}

func providerModelExtKey(t client.ClientType) string {
	switch t {
	case client.ClientClaude:
		return client.ExtClaudeModel
	case client.ClientCodex:
		return client.ExtCodexModel
	case client.ClientAmp:
		return client.ExtAmpModel
	case client.ClientGemini:
		return client.ExtGeminiModel
	case client.ClientOpenCode:
		return client.ExtOpenCodeModel
	default:
		return "model"
	}
}
