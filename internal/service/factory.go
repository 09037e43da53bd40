package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/techpathai/learnyst-automator/api/schemas"
	"github.com/techpathai/learnyst-automator/internal/automation"
	"github.com/techpathai/learnyst-automator/internal/browser"
	"github.com/techpathai/learnyst-automator/internal/config"
	"github.com/techpathai/learnyst-automator/internal/engine"
	"github.com/techpathai/learnyst-automator/internal/report"
	"github.com/techpathai/learnyst-automator/internal/server"
)

// sessionProvider adapts the concrete browser manager to the engine's
// provider interface, narrowing *browser.Session down to schemas.Driver.
type sessionProvider struct {
	manager *browser.Manager
}

func (p sessionProvider) AcquireReady(ctx context.Context, creds schemas.Credentials) (schemas.Driver, error) {
	return p.manager.AcquireReady(ctx, creds)
}

func (p sessionProvider) MarkExpired() {
	p.manager.MarkExpired()
}

// Build constructs and starts the full component graph from a validated
// config. On any failure the partially built graph is torn down before the
// error is returned.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...browser.Option) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	components := &Components{logger: logger}

	var initErr error
	defer func() {
		if initErr != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(initErr))
			components.Shutdown()
		}
	}()

	// 1. Browser manager. Lazy: no Chrome process is spawned until the
	// first action needs a session.
	components.BrowserManager = browser.NewManager(cfg, logger, opts...)

	// 2. Automation executor, stateless over the driver it is handed.
	executor := automation.NewExecutor(cfg, logger)

	// 3. Execution engine on top of both.
	eng, err := engine.New(cfg, logger, sessionProvider{manager: components.BrowserManager}, executor)
	if err != nil {
		initErr = fmt.Errorf("failed to create execution engine: %w", err)
		return nil, initErr
	}
	components.Engine = eng
	components.Engine.Start(ctx)

	// 4. Reporter and HTTP boundary.
	components.Reporter = report.New(logger)
	srv, err := server.New(cfg, logger, components.Engine, components.Reporter)
	if err != nil {
		initErr = fmt.Errorf("failed to create HTTP server: %w", err)
		return nil, initErr
	}
	components.Server = srv

	logger.Info("Component graph assembled.",
		zap.String("target", cfg.Target.BaseURL),
		zap.String("addr", cfg.Server.Addr),
		zap.Int("max_queue_depth", cfg.Queue.MaxDepth))
	return components, nil
}
