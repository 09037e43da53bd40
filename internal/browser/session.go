package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/techpathai/learnyst-automator/api/schemas"
	"github.com/techpathai/learnyst-automator/internal/config"
)

// State is the session lifecycle state. Exactly one Session exists at a
// time; it is owned by the Manager and handed to the executor only as a
// schemas.Driver.
type State string

const (
	StateUnauthenticated State = "UNAUTHENTICATED"
	StateAuthenticating  State = "AUTHENTICATING"
	StateReady           State = "READY"
	StateExpired         State = "EXPIRED"
	StateFailed          State = "FAILED"
)

// Session is one authenticated browser tab against the admin console. It
// implements schemas.Driver on top of CDP.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    *config.Config

	mu            sync.Mutex
	state         State
	fingerprint   string
	establishedAt time.Time
	lastUsedAt    time.Time

	closeOnce sync.Once
}

var _ schemas.Driver = (*Session)(nil)

func newSession(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, logger *zap.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		id:     id,
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		logger: logger.With(zap.String("session_id", id)),
		state:  StateUnauthenticated,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Fingerprint returns the credential fingerprint the session was (or is
// being) authenticated with.
func (s *Session) Fingerprint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fingerprint
}

// EstablishedAt reports when the session reached Ready.
func (s *Session) EstablishedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.establishedAt
}

// MarkExpired records that the executor hit a login redirect mid-action.
// The next acquire pays for a fresh login.
func (s *Session) MarkExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateReady {
		s.state = StateExpired
	}
}

func (s *Session) markAuthenticating(fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticating
	s.fingerprint = fingerprint
}

func (s *Session) markReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateReady
	now := time.Now()
	s.establishedAt = now
	s.lastUsedAt = now
}

func (s *Session) markFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateFailed
}

func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsedAt = time.Now()
}

// idleExpired reports whether the session has sat unused longer than ttl.
// A ttl of zero disables idle expiry.
func (s *Session) idleExpired(ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.lastUsedAt.IsZero() && time.Since(s.lastUsedAt) > ttl
}

// Close tears down the browser tab. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing browser session.", zap.String("state", string(s.State())))
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// queryOption maps a selector string to the chromedp query strategy:
// "//" prefixed selectors are XPath, everything else is CSS.
func queryOption(selector string) chromedp.QueryOption {
	if isXPath(selector) {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func isXPath(selector string) bool {
	return strings.HasPrefix(selector, "//") || strings.HasPrefix(selector, "(//")
}

// runActions executes chromedp actions under both the session lifetime and
// the caller's deadline.
func (s *Session) runActions(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := combineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// -- schemas.Driver implementation --

// Navigate loads the URL and waits for the document body to be ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.touch()
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.Target.NavigationTimeout)
	defer cancel()

	err := s.runActions(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation to %s timed out after %v: %w", url, s.cfg.Target.NavigationTimeout, navCtx.Err())
		}
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Click waits for the element and dispatches a click on it.
func (s *Session) Click(ctx context.Context, selector string) error {
	s.touch()
	opt := queryOption(selector)
	return s.runActions(ctx,
		chromedp.WaitVisible(selector, opt),
		chromedp.Click(selector, opt),
	)
}

// Fill clears the matched input and types the value into it.
func (s *Session) Fill(ctx context.Context, selector, value string) error {
	s.touch()
	opt := queryOption(selector)
	return s.runActions(ctx,
		chromedp.WaitVisible(selector, opt),
		chromedp.Clear(selector, opt),
		chromedp.SendKeys(selector, value, opt),
	)
}

// Press sends a raw key (e.g. "\r") to the matched element.
func (s *Session) Press(ctx context.Context, selector, key string) error {
	s.touch()
	opt := queryOption(selector)
	return s.runActions(ctx, chromedp.SendKeys(selector, key, opt))
}

// SelectByLabel picks the option whose label or text matches on a <select>
// element. CDP has no native select-by-label, so this goes through the DOM.
func (s *Session) SelectByLabel(ctx context.Context, selector, label string) error {
	s.touch()
	script := fmt.Sprintf(`(() => {
		const q = %q;
		let sel;
		if (q.startsWith("//") || q.startsWith("(//")) {
			sel = document.evaluate(q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		} else {
			sel = document.querySelector(q);
		}
		if (!sel) { return "no element matches selector"; }
		for (const opt of sel.options) {
			if (opt.label.trim() === %q || opt.text.trim() === %q) {
				sel.value = opt.value;
				sel.dispatchEvent(new Event('input', { bubbles: true }));
				sel.dispatchEvent(new Event('change', { bubbles: true }));
				return "";
			}
		}
		return "no option with that label";
	})()`, selector, label, label)

	var failure string
	if err := s.runActions(ctx,
		chromedp.WaitVisible(selector, queryOption(selector)),
		chromedp.Evaluate(script, &failure),
	); err != nil {
		return err
	}
	if failure != "" {
		return fmt.Errorf("select %q option %q: %s", selector, label, failure)
	}
	return nil
}

// WaitVisible blocks until the selector is visible or the context expires.
func (s *Session) WaitVisible(ctx context.Context, selector string) error {
	s.touch()
	return s.runActions(ctx, chromedp.WaitVisible(selector, queryOption(selector)))
}

// IsVisible is a bounded, non-fatal presence probe: a miss is (false, nil),
// not an error, unless the caller's context itself is done.
func (s *Session) IsVisible(ctx context.Context, selector string, within time.Duration) (bool, error) {
	s.touch()
	probeCtx, cancel := context.WithTimeout(ctx, within)
	defer cancel()

	err := s.runActions(probeCtx, chromedp.WaitVisible(selector, queryOption(selector)))
	if err == nil {
		return true, nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || probeCtx.Err() == context.DeadlineExceeded {
		return false, nil
	}
	return false, err
}

// AtLoginPage reports whether the login form is currently showing, i.e. the
// console has bounced us to re-authenticate.
func (s *Session) AtLoginPage(ctx context.Context) (bool, error) {
	return s.IsVisible(ctx, selLoginEmail, s.cfg.Target.ProbeTimeout)
}

// login drives the admin console login UI: navigate, fill the form, submit,
// then poll until either the dashboard landmark or an error indicator
// appears. The whole sequence is bounded by target.login_timeout.
func (s *Session) login(ctx context.Context, creds schemas.Credentials) error {
	loginCtx, cancel := context.WithTimeout(ctx, s.cfg.Target.LoginTimeout)
	defer cancel()

	s.logger.Info("Authenticating against admin console.", zap.String("base_url", s.cfg.Target.BaseURL))

	if err := s.Navigate(loginCtx, loginURL(s.cfg.Target.BaseURL)); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	// A still-warm cookie can land us straight on the dashboard.
	if ok, _ := s.IsVisible(loginCtx, selDashboardLandmark, s.cfg.Target.ProbeTimeout); ok {
		s.logger.Debug("Already authenticated, skipping login form.")
		return nil
	}

	if err := s.runActions(loginCtx,
		chromedp.WaitVisible(selLoginEmail, chromedp.ByQuery),
		chromedp.Clear(selLoginEmail, chromedp.ByQuery),
		chromedp.SendKeys(selLoginEmail, creds.Username, chromedp.ByQuery),
		chromedp.Clear(selLoginPassword, chromedp.ByQuery),
		chromedp.SendKeys(selLoginPassword, creds.Password, chromedp.ByQuery),
		chromedp.Click(selLoginSubmit, chromedp.ByQuery),
	); err != nil {
		if loginCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: login form did not appear within %v", ErrAuthenticationFailed, s.cfg.Target.LoginTimeout)
		}
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	return s.awaitLoginOutcome(loginCtx)
}

// awaitLoginOutcome polls for the dashboard landmark or an explicit
// rejection until the login deadline.
func (s *Session) awaitLoginOutcome(ctx context.Context) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	probe := time.Second
	for {
		if ok, err := s.IsVisible(ctx, selDashboardLandmark, probe); err == nil && ok {
			return nil
		}
		if ok, err := s.IsVisible(ctx, selLoginError, probe); err == nil && ok {
			return ErrInvalidCredentials
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: no post-login landmark within %v", ErrAuthenticationFailed, s.cfg.Target.LoginTimeout)
		case <-ticker.C:
		}
	}
}
