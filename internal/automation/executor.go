// Package automation drives the Learnyst admin console UI for the four
// supported account-management actions. Each action is an explicit sequence
// of named steps with individual timeouts, so a failure is always classified
// (timeout on a named step, unmet precondition, login redirect) rather than
// surfacing as a bare chromedp error or a hang.
package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/techpathai/learnyst-automator/api/schemas"
	"github.com/techpathai/learnyst-automator/internal/config"
	"github.com/techpathai/learnyst-automator/internal/observability"
)

// Executor runs one action at a time against a Ready session. It holds no
// mutable state of its own; serialization is the engine's job.
type Executor struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewExecutor creates the action executor.
func NewExecutor(cfg *config.Config, logger *zap.Logger) *Executor {
	return &Executor{
		cfg:    cfg,
		logger: logger.Named("executor"),
	}
}

// Execute dispatches the action to its UI sequence and classifies the
// outcome. The error return is non-nil only for the ErrSessionExpired
// signal; every other outcome, success or failure, is an ExecutionResult.
func (e *Executor) Execute(ctx context.Context, drv schemas.Driver, action schemas.Action) (schemas.ExecutionResult, error) {
	timer := prometheus.NewTimer(observability.MetricActionDuration.WithLabelValues(string(action.Kind)))
	defer timer.ObserveDuration()

	logger := e.logger.With(zap.String("kind", string(action.Kind)), zap.String("target", action.Target()))
	logger.Info("Executing action.")

	var (
		message string
		err     error
	)
	switch action.Kind {
	case schemas.ActionGiveAccess:
		message, err = e.giveAccess(ctx, drv, action)
	case schemas.ActionEnrollUser:
		message, err = e.enrollUser(ctx, drv, action)
	case schemas.ActionSuspendUser:
		message, err = e.suspendUser(ctx, drv, action)
	case schemas.ActionDeleteUser:
		message, err = e.deleteUser(ctx, drv, action)
	default:
		return schemas.ExecutionResult{
			Success:   false,
			Message:   fmt.Sprintf("Unknown action: %s", action.Kind),
			ErrorKind: schemas.ErrKindValidation,
		}, nil
	}

	if err != nil {
		return e.classify(logger, err)
	}

	logger.Info("Action succeeded.", zap.String("message", message))
	return schemas.ExecutionResult{Success: true, Message: message}, nil
}

// classify collapses sequence errors into the result taxonomy. Nothing
// escapes this boundary except the expiry signal.
func (e *Executor) classify(logger *zap.Logger, err error) (schemas.ExecutionResult, error) {
	if errors.Is(err, ErrSessionExpired) {
		logger.Warn("Login redirect detected mid-action.")
		return schemas.ExecutionResult{}, ErrSessionExpired
	}

	var pre *PreconditionError
	if errors.As(err, &pre) {
		logger.Info("Precondition not met.", zap.String("message", pre.Message))
		return schemas.ExecutionResult{
			Success:   false,
			Message:   pre.Message,
			ErrorKind: schemas.ErrKindPreconditionNotMet,
		}, nil
	}

	var st *StepError
	if errors.As(err, &st) {
		logger.Warn("Step failed.", zap.String("step", st.Step), zap.Error(st.Err))
		return schemas.ExecutionResult{
			Success:   false,
			Message:   fmt.Sprintf("Automation step %q did not complete: %v", st.Step, st.Err),
			ErrorKind: schemas.ErrKindAutomationTimeout,
		}, nil
	}

	logger.Error("Unclassified automation failure.", zap.Error(err))
	return schemas.ExecutionResult{
		Success:   false,
		Message:   fmt.Sprintf("Automation failed: %v", err),
		ErrorKind: schemas.ErrKindAutomationTimeout,
	}, nil
}

// step is one named UI interaction with its own wait bound.
type step struct {
	name string
	// timeout overrides the configured step timeout when non-zero.
	timeout time.Duration
	run     func(ctx context.Context) error
}

// runSteps executes the steps in order. On any failure it first checks for
// a login redirect (which outranks every other classification), then wraps
// the failure with the step name.
func (e *Executor) runSteps(ctx context.Context, drv schemas.Driver, steps []step) error {
	for _, st := range steps {
		timeout := st.timeout
		if timeout <= 0 {
			timeout = e.cfg.Target.StepTimeout
		}

		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		err := st.run(stepCtx)
		cancel()
		if err == nil {
			continue
		}

		// Preconditions and explicit expiry pass through untouched.
		var pre *PreconditionError
		if errors.As(err, &pre) || errors.Is(err, ErrSessionExpired) {
			return err
		}

		// A step that fails because the console bounced us to the login
		// form is an expiry, not a step fault.
		if ok, probeErr := drv.AtLoginPage(ctx); probeErr == nil && ok {
			return ErrSessionExpired
		}

		return &StepError{Step: st.name, Err: err}
	}
	return nil
}

// openLearners is the shared preamble: load the console, verify we are on
// an authenticated page, then navigate to the learners tab.
func (e *Executor) openLearners(drv schemas.Driver) []step {
	return []step{
		{
			name:    "open admin console",
			timeout: e.cfg.Target.NavigationTimeout,
			run: func(ctx context.Context) error {
				if err := drv.Navigate(ctx, e.cfg.Target.BaseURL); err != nil {
					return err
				}
				if ok, err := drv.AtLoginPage(ctx); err == nil && ok {
					return ErrSessionExpired
				}
				return nil
			},
		},
		{
			name: "open users tab",
			run:  func(ctx context.Context) error { return drv.Click(ctx, selUsersTab) },
		},
		{
			name: "open learners tab",
			run:  func(ctx context.Context) error { return drv.Click(ctx, selLearnersTab) },
		},
	}
}

// searchLearner fills the search box and submits it.
func (e *Executor) searchLearner(drv schemas.Driver, identifier string) []step {
	return []step{
		{
			name: "search learner",
			run: func(ctx context.Context) error {
				if err := drv.Fill(ctx, selSearchInput, identifier); err != nil {
					return err
				}
				return drv.Press(ctx, selSearchInput, "\r")
			},
		},
	}
}

// awaitModalClosed is the post-action landmark for destructive flows: the
// confirmation dialog must go away within the step bound.
func (e *Executor) awaitModalClosed(drv schemas.Driver) step {
	return step{
		name: "await confirmation",
		run: func(ctx context.Context) error {
			deadline := time.Now().Add(e.cfg.Target.StepTimeout)
			for {
				visible, err := drv.IsVisible(ctx, selModalDialog, time.Second)
				if err != nil {
					return err
				}
				if !visible {
					return nil
				}
				if time.Now().After(deadline) {
					return fmt.Errorf("confirmation dialog did not close")
				}
			}
		},
	}
}
