package auth_test

import (
	"bitwise74/auth-api/db"
	"bitwise74/auth-api/internal/auth"
	"bitwise74/auth-api/internal/store"
	"bitwise74/auth-api/pkg/security"
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMessenger) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: body})
	return f.err
}

func (f *fakeMessenger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.sent)
}

func (f *fakeMessenger) last(t *testing.T) sentMail {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	require.NotEmpty(t, f.sent, "no mail sent")
	return f.sent[len(f.sent)-1]
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
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

// countingHasher counts how many hashes were computed
type countingHasher struct {
	*security.ArgonHash
	hashes atomic.Int32
}

func (h *countingHasher) GenerateFromPassword(ctx context.Context, p string) (string, error) {
	h.hashes.Add(1)
	return h.ArgonHash.GenerateFromPassword(ctx, p)
}

type env struct {
	svc    *auth.Service
	repo   *store.Store
	mail   *fakeMessenger
	clock  *fakeClock
	hasher *countingHasher

	mu   sync.Mutex
	code string
}

// nextCode sets the code the next issuance will use
func (e *env) nextCode(c string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.code = c
}

func (e *env) generate() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.code, nil
}

func newEnv(t *testing.T, mods ...func(*auth.Config)) *env {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.Open("sqlite", fmt.Sprintf("file:auth_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := gdb.DB()
		sqlDB.Close()
	})

	e := &env{
		mail:  &fakeMessenger{},
		clock: &fakeClock{t: time.Now().UTC().Truncate(time.Second)},
		code:  "123456",
	}
	e.repo = store.New(gdb).WithClock(e.clock.Now)

	argon := security.New(4)
	argon.Memory = 1024
	argon.Iterations = 1
	e.hasher = &countingHasher{ArgonHash: argon}

	tokens, err := security.NewTokenIssuer("test-secret", "auth-api")
	require.NoError(t, err)
	tokens.Now = e.clock.Now

	cfg := auth.DefaultConfig()
	for _, m := range mods {
		m(&cfg)
	}

	e.svc, err = auth.NewService(e.repo, e.hasher, tokens, e.mail, cfg,
		auth.WithClock(e.clock.Now),
		auth.WithCodeGenerator(e.generate))
	require.NoError(t, err)

	return e
}

// registerVerified creates a confirmed account
func (e *env) registerVerified(t *testing.T, email, password string) string {
	t.Helper()
	ctx := context.Background()

	e.nextCode("654321")
	reg, err := e.svc.Register(ctx, auth.RegisterInput{Email: email, Password: password})
	require.NoError(t, err)
	require.NoError(t, e.svc.ConfirmRegistration(ctx, email, "654321"))

	return reg.UserID
}
