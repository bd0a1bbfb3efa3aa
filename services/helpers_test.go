package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/princinho/natours/database"
	"github.com/princinho/natours/mailer"
	"github.com/princinho/natours/models"
	"github.com/princinho/natours/utils"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("services-test-secret-0123456789ab")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) last(t *testing.T) mailer.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no mail sent")
	return m.sent[len(m.sent)-1]
}

var resetTokenRe = regexp.MustCompile(`resetPassword/([0-9a-f]{64})`)

func tokenFromMail(t *testing.T, msg mailer.Message) string {
	t.Helper()
	m := resetTokenRe.FindStringSubmatch(msg.Body)
	require.Len(t, m, 2, "no reset token in %q", msg.Body)
	return m[1]
}

type testDeps struct {
	clock  *fakeClock
	store  *database.MemoryUserStore
	mail   *recordingMailer
	auth   *AuthService
	users  *UserService
	signer *utils.TokenSigner
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	clock := newFakeClock()
	store := database.NewMemoryUserStore().WithClock(clock.Now)
	mail := &recordingMailer{}
	signer := utils.NewTokenSigner(testSecret, 24*time.Hour).WithClock(clock.Now)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	auth := NewAuthService(store, utils.NewBcryptHasher(bcrypt.MinCost), signer, mail, logger).WithClock(clock.Now)
	return &testDeps{
		clock:  clock,
		store:  store,
		mail:   mail,
		auth:   auth,
		users:  NewUserService(store),
		signer: signer,
	}
}

func (d *testDeps) signupAnn(t *testing.T) *Session {
	t.Helper()
	sess, err := d.auth.Signup(context.Background(), "Ann", "ann@x.com", "Secret123!", "Secret123!")
	require.NoError(t, err)
	return sess
}

type failingStore struct {
	UserRepository
	err error
}

func (f failingStore) FindByEmail(context.Context, string) (*models.User, error) { return nil, f.err }
func (f failingStore) FindByID(context.Context, string) (*models.User, error)    { return nil, f.err }

var errBoom = errors.New("boom")
