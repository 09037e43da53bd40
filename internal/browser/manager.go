package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/techpathai/learnyst-automator/api/schemas"
	"github.com/techpathai/learnyst-automator/internal/config"
	"github.com/techpathai/learnyst-automator/internal/observability"
)

const shutdownGracePeriod = 15 * time.Second

// Manager owns the headless browser process and the single shared Session.
// Browser launch is deferred until the first acquire. The Manager itself is
// not a serialization point; the execution engine guarantees one caller at
// a time, the internal mutex only protects against shutdown races.
type Manager struct {
	cfg    *config.Config
	logger *zap.Logger

	// limiter spaces out login attempts against the target site.
	limiter *rate.Limiter

	allocCtx    context.Context
	allocCancel context.CancelFunc
	initOnce    sync.Once

	mu      sync.Mutex
	session *Session

	// spawn and authenticate are swappable for tests; production wiring
	// uses chromedp.
	spawn        func(ctx context.Context) (*Session, error)
	authenticate func(ctx context.Context, s *Session, creds schemas.Credentials) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithSessionFactory replaces the chromedp tab factory. Tests only.
func WithSessionFactory(fn func(ctx context.Context) (*Session, error)) Option {
	return func(m *Manager) { m.spawn = fn }
}

// WithAuthenticator replaces the login sequence. Tests only.
func WithAuthenticator(fn func(ctx context.Context, s *Session, creds schemas.Credentials) error) Option {
	return func(m *Manager) { m.authenticate = fn }
}

// NewManager creates the browser manager. The browser process is launched
// lazily on the first AcquireReady call.
func NewManager(cfg *config.Config, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		cfg:     cfg,
		logger:  logger.Named("browser_manager"),
		limiter: rate.NewLimiter(rate.Every(cfg.Target.LoginInterval), 1),
	}
	m.spawn = m.spawnTab
	m.authenticate = func(ctx context.Context, s *Session, creds schemas.Credentials) error {
		return s.login(ctx, creds)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewTestSession builds a Session without a browser behind it, for use with
// WithSessionFactory in tests.
func NewTestSession(ctx context.Context, cfg *config.Config, logger *zap.Logger) *Session {
	sctx, cancel := context.WithCancel(ctx)
	return newSession(sctx, cancel, cfg, logger)
}

// AcquireReady returns the Ready session for the given credentials,
// establishing or re-establishing it as needed. Cost model: a fresh login is
// paid at most once per credential set, then amortized across actions.
//
// A session previously marked Failed for the same credentials short-circuits
// to an authentication error without touching the browser; changing the
// credentials (or Reset) clears that state.
func (m *Manager) AcquireReady(ctx context.Context, creds schemas.Credentials) (*Session, error) {
	if creds.Empty() {
		return nil, fmt.Errorf("%w: missing credentials", ErrAuthenticationFailed)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fingerprint := creds.Fingerprint()

	if s := m.session; s != nil {
		switch {
		case s.State() == StateReady && s.Fingerprint() == fingerprint && !s.idleExpired(m.cfg.Target.SessionIdleTTL):
			s.touch()
			return s, nil

		case s.State() == StateFailed && s.Fingerprint() == fingerprint:
			// Terminal for this credential set; do not retry the login.
			return nil, fmt.Errorf("%w: previous login for this credential set failed", ErrAuthenticationFailed)

		default:
			m.discardLocked("replacing session",
				zap.String("state", string(s.State())),
				zap.Bool("credentials_changed", s.Fingerprint() != fingerprint))
		}
	}

	return m.establishLocked(ctx, creds, fingerprint)
}

// establishLocked creates a fresh session and runs the login sequence.
// Callers hold m.mu.
func (m *Manager) establishLocked(ctx context.Context, creds schemas.Credentials, fingerprint string) (*Session, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for login slot: %w", err)
	}

	s, err := m.spawn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}

	s.markAuthenticating(fingerprint)
	if err := m.authenticate(ctx, s, creds); err != nil {
		s.markFailed()
		observability.MetricLoginsTotal.WithLabelValues("failure").Inc()
		// Keep the failed session so repeat submissions with the same
		// credentials fail fast instead of re-driving the login UI.
		m.session = s
		return nil, err
	}

	s.markReady()
	observability.MetricLoginsTotal.WithLabelValues("success").Inc()
	m.session = s
	m.logger.Info("Session ready.", zap.String("session_id", s.ID()))
	return s, nil
}

// MarkExpired flags the current session as expired; the next acquire
// re-runs the login sequence.
func (m *Manager) MarkExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.logger.Warn("Session marked expired.", zap.String("session_id", m.session.ID()))
		m.session.MarkExpired()
	}
}

// Reset discards the current session regardless of state. The next acquire
// starts from scratch. This is the manual-intervention escape hatch for a
// session stuck in Failed.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.discardLocked("explicit reset")
	}
}

// Current returns the session's observable state for health reporting, or
// empty values when no session exists.
func (m *Manager) Current() (State, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return StateUnauthenticated, time.Time{}
	}
	return m.session.State(), m.session.EstablishedAt()
}

func (m *Manager) discardLocked(reason string, fields ...zap.Field) {
	fields = append(fields, zap.String("session_id", m.session.ID()), zap.String("reason", reason))
	m.logger.Info("Discarding session.", fields...)
	m.session.Close()
	m.session = nil
}

// initAllocator launches the shared Chrome process allocator once. Allocator
// construction itself cannot fail; a missing or broken Chrome binary only
// surfaces on the first Run against a tab.
func (m *Manager) initAllocator() {
	m.initOnce.Do(func() {
		opts := m.execAllocatorOptions()
		m.allocCtx, m.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
		m.logger.Info("Browser allocator initialized.",
			zap.Bool("headless", m.cfg.Browser.Headless),
			zap.Int("extra_args", len(m.cfg.Browser.Args)))
	})
}

// execAllocatorOptions translates browser config into chromedp allocator
// options.
func (m *Manager) execAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)

	if m.cfg.Browser.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if m.cfg.Browser.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if m.cfg.Browser.DisableGPU {
		opts = append(opts, chromedp.DisableGPU)
	}

	for _, arg := range m.cfg.Browser.Args {
		arg = strings.TrimPrefix(arg, "--")
		if key, value, found := strings.Cut(arg, "="); found {
			opts = append(opts, chromedp.Flag(key, value))
		} else {
			opts = append(opts, chromedp.Flag(arg, true))
		}
	}
	return opts
}

// spawnTab creates a fresh browser tab context and primes the CDP
// connection.
func (m *Manager) spawnTab(ctx context.Context) (*Session, error) {
	m.initAllocator()

	tabCtx, tabCancel := chromedp.NewContext(m.allocCtx)

	// Native JS dialogs (the console throws confirm() prompts on destructive
	// operations) would otherwise deadlock the CDP connection; accept them.
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if _, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			go func() {
				if err := chromedp.Run(tabCtx, page.HandleJavaScriptDialog(true)); err != nil {
					m.logger.Warn("Failed to dismiss browser dialog.", zap.Error(err))
				}
			}()
		}
	})

	// An empty Run establishes the target and verifies the browser came up.
	primeCtx, primeCancel := context.WithTimeout(ctx, m.cfg.Target.NavigationTimeout)
	defer primeCancel()
	runCtx, runCancel := combineContext(tabCtx, primeCtx)
	defer runCancel()
	if err := chromedp.Run(runCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("starting browser tab: %w", err)
	}

	return newSession(tabCtx, tabCancel, m.cfg, m.logger), nil
}

// Shutdown closes the session and the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down browser manager.")

	m.mu.Lock()
	if m.session != nil {
		m.discardLocked("shutdown")
	}
	m.mu.Unlock()

	if m.allocCancel != nil {
		done := make(chan struct{})
		go func() {
			m.allocCancel()
			close(done)
		}()

		grace := shutdownGracePeriod
		if deadline, ok := ctx.Deadline(); ok {
			if until := time.Until(deadline); until < grace {
				grace = until
			}
		}
		select {
		case <-done:
		case <-time.After(grace):
			m.logger.Warn("Timed out waiting for browser process to exit.")
		}
	}

	m.logger.Info("Browser manager shutdown complete.")
	return nil
}
