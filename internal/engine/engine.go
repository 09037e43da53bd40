// Package engine serializes action execution against the single shared
// browser session. The browser UI is not reentrant, so the engine feeds a
// strict FIFO queue into one runner goroutine: at most one action is ever
// mid-flight, accepted actions complete in submission order, and one
// action's failure never touches the next.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/techpathai/learnyst-automator/api/schemas"
	"github.com/techpathai/learnyst-automator/internal/automation"
	"github.com/techpathai/learnyst-automator/internal/browser"
	"github.com/techpathai/learnyst-automator/internal/config"
	"github.com/techpathai/learnyst-automator/internal/observability"
)

// SessionProvider hands out the Ready browser session and accepts expiry
// signals. Implemented by the browser manager; mocked in tests.
type SessionProvider interface {
	AcquireReady(ctx context.Context, creds schemas.Credentials) (schemas.Driver, error)
	MarkExpired()
}

// Executor runs one action against a Ready session. Implemented by the
// automation executor; mocked in tests.
type Executor interface {
	Execute(ctx context.Context, drv schemas.Driver, action schemas.Action) (schemas.ExecutionResult, error)
}

// ErrShuttingDown is returned by Submit once the engine has stopped.
var ErrShuttingDown = errors.New("engine is shutting down")

type submission struct {
	action schemas.Action
	// result is buffered so the runner never blocks on an abandoned caller.
	result chan schemas.ExecutionResult
}

// Engine is the execution serializer.
type Engine struct {
	cfg      *config.Config
	logger   *zap.Logger
	sessions SessionProvider
	executor Executor

	queue chan *submission
	// pending counts queued plus in-flight actions against queue.max_depth.
	pending atomic.Int64

	wg      sync.WaitGroup
	stopped chan struct{}

	stateLock sync.Mutex
	isRunning bool
}

// New creates the engine. Dependencies are validated up front so a wiring
// mistake fails at startup, not mid-request.
func New(cfg *config.Config, logger *zap.Logger, sessions SessionProvider, executor Executor) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if sessions == nil {
		return nil, errors.New("session provider cannot be nil")
	}
	if executor == nil {
		return nil, errors.New("executor cannot be nil")
	}

	return &Engine{
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "engine")),
		sessions: sessions,
		executor: executor,
		queue:    make(chan *submission, cfg.Queue.MaxDepth),
		stopped:  make(chan struct{}),
	}, nil
}

// Start launches the single runner goroutine. The engine runs until ctx is
// canceled or Stop is called.
func (e *Engine) Start(ctx context.Context) {
	e.stateLock.Lock()
	if e.isRunning {
		e.stateLock.Unlock()
		e.logger.Warn("Engine.Start called, but engine is already running.")
		return
	}
	e.isRunning = true
	e.stateLock.Unlock()

	e.logger.Info("Starting execution engine.", zap.Int("max_queue_depth", e.cfg.Queue.MaxDepth))

	e.wg.Add(1)
	go e.run(ctx)
}

// Stop signals shutdown and waits for the in-flight action to finish.
func (e *Engine) Stop() {
	e.stateLock.Lock()
	if !e.isRunning {
		e.stateLock.Unlock()
		return
	}
	e.isRunning = false
	e.stateLock.Unlock()

	close(e.stopped)
	e.wg.Wait()
	e.logger.Info("Execution engine stopped.")
}

// Submit validates and enqueues the action, then blocks until its result is
// available or ctx is done. Safe for concurrent use. An abandoned wait
// (ctx canceled) returns an error but does not cancel the action: partial
// UI mutations cannot be safely unwound, so a dequeued action always runs
// to completion.
func (e *Engine) Submit(ctx context.Context, action schemas.Action) (schemas.ExecutionResult, error) {
	if err := action.Validate(); err != nil {
		return schemas.ExecutionResult{
			Success:   false,
			Message:   err.Error(),
			ErrorKind: schemas.ErrKindValidation,
		}, nil
	}

	select {
	case <-e.stopped:
		return schemas.ExecutionResult{}, ErrShuttingDown
	default:
	}

	if n := e.pending.Add(1); n > int64(e.cfg.Queue.MaxDepth) {
		e.pending.Add(-1)
		e.logger.Warn("Rejecting submission, queue is full.", zap.Int("max_depth", e.cfg.Queue.MaxDepth))
		return schemas.ExecutionResult{
			Success:   false,
			Message:   "Service is overloaded, please retry later",
			ErrorKind: schemas.ErrKindOverloaded,
		}, nil
	}
	observability.MetricQueueDepth.Inc()

	sub := &submission{action: action, result: make(chan schemas.ExecutionResult, 1)}

	select {
	case e.queue <- sub:
	case <-e.stopped:
		e.pending.Add(-1)
		observability.MetricQueueDepth.Dec()
		return schemas.ExecutionResult{}, ErrShuttingDown
	}

	select {
	case res := <-sub.result:
		return res, nil
	case <-ctx.Done():
		e.logger.Info("Caller abandoned a pending action; it will still run.",
			zap.String("kind", string(action.Kind)))
		return schemas.ExecutionResult{}, fmt.Errorf("abandoned waiting for result: %w", ctx.Err())
	case <-e.stopped:
		return schemas.ExecutionResult{}, ErrShuttingDown
	}
}

// run is the single consumer: strict FIFO, one action in flight.
func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()
	e.logger.Debug("Runner goroutine started.")

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Context canceled, runner shutting down.", zap.Error(ctx.Err()))
			return
		case <-e.stopped:
			e.logger.Info("Stop requested, runner shutting down.")
			return
		case sub := <-e.queue:
			observability.MetricQueueDepth.Dec()
			res := e.process(ctx, sub.action)
			e.pending.Add(-1)
			sub.result <- res

			outcome := "success"
			if !res.Success {
				outcome = outcomeLabel(res.ErrorKind)
			}
			observability.MetricActionsTotal.WithLabelValues(string(sub.action.Kind), outcome).Inc()
		}
	}
}

// process runs one action end to end: acquire a Ready session, execute,
// and on an expiry signal re-authenticate and retry exactly once. Every
// failure collapses into an ExecutionResult here; nothing propagates past
// the engine.
func (e *Engine) process(ctx context.Context, action schemas.Action) (result schemas.ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Recovered panic during action execution.", zap.Any("panic", r))
			result = schemas.ExecutionResult{
				Success:   false,
				Message:   "Internal automation fault",
				ErrorKind: schemas.ErrKindSessionUnavailable,
			}
		}
	}()

	drv, err := e.sessions.AcquireReady(ctx, action.Credentials)
	if err != nil {
		return e.acquireFailure(err, false)
	}

	res, err := e.executor.Execute(ctx, drv, action)
	if err == nil {
		return res
	}
	if !errors.Is(err, automation.ErrSessionExpired) {
		// The executor contract reserves its error return for the expiry
		// signal; anything else is a wiring fault.
		e.logger.Error("Executor returned an unexpected error.", zap.Error(err))
		return schemas.ExecutionResult{
			Success:   false,
			Message:   fmt.Sprintf("Automation failed: %v", err),
			ErrorKind: schemas.ErrKindSessionUnavailable,
		}
	}

	// One automatic re-login, then one retry of the whole action.
	e.logger.Warn("Session expired mid-action, re-authenticating for a single retry.",
		zap.String("kind", string(action.Kind)))
	e.sessions.MarkExpired()

	drv, err = e.sessions.AcquireReady(ctx, action.Credentials)
	if err != nil {
		return e.acquireFailure(err, true)
	}

	res, err = e.executor.Execute(ctx, drv, action)
	if err == nil {
		return res
	}
	if errors.Is(err, automation.ErrSessionExpired) {
		// Two consecutive expiries: the target site is not holding a
		// session; give up rather than loop logins against it.
		e.sessions.MarkExpired()
		return schemas.ExecutionResult{
			Success:   false,
			Message:   "Session unavailable: the target site expired the login twice in a row",
			ErrorKind: schemas.ErrKindSessionUnavailable,
		}
	}
	e.logger.Error("Executor returned an unexpected error on retry.", zap.Error(err))
	return schemas.ExecutionResult{
		Success:   false,
		Message:   fmt.Sprintf("Automation failed: %v", err),
		ErrorKind: schemas.ErrKindSessionUnavailable,
	}
}

// acquireFailure maps a session-acquisition error. During the retry phase
// every failure is fatal for the request (SessionUnavailable); on first
// acquire a login rejection surfaces as AuthenticationFailed.
func (e *Engine) acquireFailure(err error, retrying bool) schemas.ExecutionResult {
	if !retrying && errors.Is(err, browser.ErrAuthenticationFailed) {
		return schemas.ExecutionResult{
			Success:   false,
			Message:   fmt.Sprintf("Authentication failed: %v", err),
			ErrorKind: schemas.ErrKindAuthenticationFailed,
		}
	}
	return schemas.ExecutionResult{
		Success:   false,
		Message:   fmt.Sprintf("Session unavailable: %v", err),
		ErrorKind: schemas.ErrKindSessionUnavailable,
	}
}

func outcomeLabel(kind schemas.ErrorKind) string {
	if kind == "" {
		return "failure"
	}
	return string(kind)
}
