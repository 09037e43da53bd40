package browser

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/techpathai/learnyst-automator/api/schemas"
	"github.com/techpathai/learnyst-automator/internal/config"
)

var (
	adminCreds = schemas.Credentials{Username: "admin@techpath.ai", Password: "correct"}
	otherCreds = schemas.Credentials{Username: "admin@techpath.ai", Password: "rotated"}
)

func testConfig() *config.Config {
	cfg := config.NewDefault()
	cfg.Target.LoginInterval = 0 // no throttling inside tests
	return cfg
}

// fakeBackend wires a Manager to in-memory sessions and a scripted
// authenticator.
type fakeBackend struct {
	cfg        *config.Config
	spawned    atomic.Int32
	logins     atomic.Int32
	authErr    error
	lastLogged schemas.Credentials
}

func (f *fakeBackend) options() []Option {
	return []Option{
		WithSessionFactory(func(ctx context.Context) (*Session, error) {
			f.spawned.Add(1)
			return NewTestSession(ctx, f.cfg, zap.NewNop()), nil
		}),
		WithAuthenticator(func(ctx context.Context, s *Session, creds schemas.Credentials) error {
			f.logins.Add(1)
			f.lastLogged = creds
			return f.authErr
		}),
	}
}

func newTestManager(t *testing.T, f *fakeBackend) *Manager {
	t.Helper()
	m := NewManager(f.cfg, zap.NewNop(), f.options()...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = m.Shutdown(ctx)
	})
	return m
}

func TestAcquireReady_LoginOncePerCredentialSet(t *testing.T) {
	f := &fakeBackend{cfg: testConfig()}
	m := newTestManager(t, f)

	first, err := m.AcquireReady(context.Background(), adminCreds)
	require.NoError(t, err)
	assert.Equal(t, StateReady, first.State())
	assert.False(t, first.EstablishedAt().IsZero())

	// A Ready session is reused without a new login sequence.
	second, err := m.AcquireReady(context.Background(), adminCreds)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), f.logins.Load())
}

func TestAcquireReady_CredentialChangeForcesRelogin(t *testing.T) {
	f := &fakeBackend{cfg: testConfig()}
	m := newTestManager(t, f)

	first, err := m.AcquireReady(context.Background(), adminCreds)
	require.NoError(t, err)

	second, err := m.AcquireReady(context.Background(), otherCreds)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), f.logins.Load())
	assert.Equal(t, otherCreds, f.lastLogged)
	assert.Equal(t, otherCreds.Fingerprint(), second.Fingerprint())
}

func TestAcquireReady_ExpiredSessionIsReestablished(t *testing.T) {
	f := &fakeBackend{cfg: testConfig()}
	m := newTestManager(t, f)

	first, err := m.AcquireReady(context.Background(), adminCreds)
	require.NoError(t, err)

	m.MarkExpired()
	assert.Equal(t, StateExpired, first.State())

	second, err := m.AcquireReady(context.Background(), adminCreds)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, StateReady, second.State())
	assert.Equal(t, int32(2), f.logins.Load())
}

func TestAcquireReady_AuthFailureIsTerminalForCredentialSet(t *testing.T) {
	f := &fakeBackend{cfg: testConfig(), authErr: ErrInvalidCredentials}
	m := newTestManager(t, f)

	_, err := m.AcquireReady(context.Background(), adminCreds)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.Equal(t, int32(1), f.logins.Load())

	// The same credentials fail fast without re-driving the login UI.
	_, err = m.AcquireReady(context.Background(), adminCreds)
	require.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.Equal(t, int32(1), f.logins.Load())

	// New credentials get a fresh attempt.
	f.authErr = nil
	s, err := m.AcquireReady(context.Background(), otherCreds)
	require.NoError(t, err)
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, int32(2), f.logins.Load())
}

func TestAcquireReady_ResetClearsFailedState(t *testing.T) {
	f := &fakeBackend{cfg: testConfig(), authErr: errors.New("boom")}
	m := newTestManager(t, f)

	_, err := m.AcquireReady(context.Background(), adminCreds)
	require.Error(t, err)

	f.authErr = nil
	m.Reset()

	s, err := m.AcquireReady(context.Background(), adminCreds)
	require.NoError(t, err)
	assert.Equal(t, StateReady, s.State())
}

func TestAcquireReady_IdleSessionIsReplaced(t *testing.T) {
	cfg := testConfig()
	cfg.Target.SessionIdleTTL = time.Minute
	f := &fakeBackend{cfg: cfg}
	m := newTestManager(t, f)

	first, err := m.AcquireReady(context.Background(), adminCreds)
	require.NoError(t, err)

	// Age the session past the TTL.
	first.mu.Lock()
	first.lastUsedAt = time.Now().Add(-2 * time.Minute)
	first.mu.Unlock()

	second, err := m.AcquireReady(context.Background(), adminCreds)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), f.logins.Load())
}

func TestAcquireReady_MissingCredentials(t *testing.T) {
	f := &fakeBackend{cfg: testConfig()}
	m := newTestManager(t, f)

	_, err := m.AcquireReady(context.Background(), schemas.Credentials{})
	require.ErrorIs(t, err, ErrAuthenticationFailed)
	assert.Zero(t, f.spawned.Load())
}

func TestSessionStateTransitions(t *testing.T) {
	s := NewTestSession(context.Background(), testConfig(), zap.NewNop())
	defer s.Close()

	assert.Equal(t, StateUnauthenticated, s.State())

	s.markAuthenticating("fp")
	assert.Equal(t, StateAuthenticating, s.State())
	assert.Equal(t, "fp", s.Fingerprint())

	s.markReady()
	assert.Equal(t, StateReady, s.State())

	s.MarkExpired()
	assert.Equal(t, StateExpired, s.State())

	// Expired never transitions back without a fresh login; a second mark
	// is a no-op, and MarkExpired on a non-Ready session does nothing.
	s.markFailed()
	s.MarkExpired()
	assert.Equal(t, StateFailed, s.State())
}

func TestCurrentReportsState(t *testing.T) {
	f := &fakeBackend{cfg: testConfig()}
	m := newTestManager(t, f)

	state, established := m.Current()
	assert.Equal(t, StateUnauthenticated, state)
	assert.True(t, established.IsZero())

	_, err := m.AcquireReady(context.Background(), adminCreds)
	require.NoError(t, err)

	state, established = m.Current()
	assert.Equal(t, StateReady, state)
	assert.False(t, established.IsZero())
}
