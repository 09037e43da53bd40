// Package service assembles the application: configuration in, a running
// set of components out. The factory owns construction order and the
// Components struct owns teardown order; nothing else in the codebase wires
// dependencies together.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/techpathai/learnyst-automator/internal/browser"
	"github.com/techpathai/learnyst-automator/internal/engine"
	"github.com/techpathai/learnyst-automator/internal/report"
	"github.com/techpathai/learnyst-automator/internal/server"
)

const browserShutdownGrace = 30 * time.Second

// Components holds every initialized service. Lifecycle is centralized here:
// whoever calls the factory calls Shutdown exactly once when done.
type Components struct {
	BrowserManager *browser.Manager
	Engine         *engine.Engine
	Reporter       *report.Reporter
	Server         *server.Server

	logger *zap.Logger
}

// Shutdown releases everything in reverse dependency order: first stop
// accepting work, then drain the queue, then kill the browser. Safe to call
// on a partially initialized struct.
func (c *Components) Shutdown() {
	logger := c.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Beginning component shutdown sequence.")

	// 1. Stop the engine. Stop blocks until the in-flight action finishes,
	// so the browser below is not yanked out from under it.
	if c.Engine != nil {
		c.Engine.Stop()
		logger.Debug("Execution engine stopped.")
	}

	// 2. Tear down the browser. A fresh context so shutdown still completes
	// after the main context is canceled.
	if c.BrowserManager != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), browserShutdownGrace)
		defer cancel()
		if err := c.BrowserManager.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Error during browser manager shutdown.", zap.Error(err))
		} else {
			logger.Debug("Browser manager shut down.")
		}
	}

	logger.Info("All components shut down.")
}
