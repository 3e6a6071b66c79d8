package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"board-service/internal/audit"
	"board-service/internal/domain/user"
	"board-service/internal/rbac"
	"board-service/internal/rbac/presets"
	"board-service/internal/token"
	apperrors "board-service/pkg/errors"
	"board-service/pkg/password"
)

const testSecret = "auth-test-secret-0123456789abcdefghij"

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

type fakeUserStore struct {
	mu      sync.Mutex
	byEmail map[string]*user.User

	lookups        int
	lookupErr      error
	lookupPanic    bool
	lastLoginErr   error
	lastLoginCalls int
	passwordHashes map[uuid.UUID]string
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail:        map[string]*user.User{},
		passwordHashes: map[uuid.UUID]string{},
	}
}

func (s *fakeUserStore) add(u *user.User) *user.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.byEmail[u.Email] = u
	return u
}

func (s *fakeUserStore) FindActiveByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.lookupPanic {
		panic("lookup exploded")
	}
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	u, ok := s.byEmail[email]
	if !ok || u.IsDeleted() {
		return nil, apperrors.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) FindActiveByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	for _, u := range s.byEmail {
		if u.ID == id && !u.IsDeleted() {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (s *fakeUserStore) Create(_ context.Context, in user.CreateUserInput) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byEmail[in.Email]; ok && !existing.IsDeleted() {
		return nil, apperrors.Conflict("duplicate email")
	}
	u := &user.User{
		ID:           uuid.New(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		CreatedAt:    time.Now(),
	}
	s.byEmail[in.Email] = u
	return u, nil
}

func (s *fakeUserStore) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLoginCalls++
	if s.lastLoginErr != nil {
		return s.lastLoginErr
	}
	for _, u := range s.byEmail {
		if u.ID == id {
			u.LastLoginAt = &at
		}
	}
	return nil
}

func (s *fakeUserStore) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwordHashes[id] = hash
	for _, u := range s.byEmail {
		if u.ID == id {
			u.PasswordHash = hash
		}
	}
	return nil
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{counts: map[string]int{}}
}

func (r *countingRecorder) AuthOutcome(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[outcome]++
}

func (r *countingRecorder) count(outcome string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[outcome]
}

type captureAuditor struct {
	mu     sync.Mutex
	events []*audit.Event
}

func (a *captureAuditor) Record(_ context.Context, e *audit.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *captureAuditor) last() *audit.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.events) == 0 {
		return nil
	}
	return a.events[len(a.events)-1]
}

type fixture struct {
	clock    *fakeClock
	codec    *token.Codec
	store    *fakeUserStore
	hasher   *password.Hasher
	recorder *countingRecorder
	auditor  *captureAuditor
	service  *Service
	mw       *Middleware
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec, err := token.NewCodec(testSecret, 24*time.Hour, 7*24*time.Hour, token.WithClock(clock.Now))
	require.NoError(t, err)

	hasher, err := password.NewHasher(password.MinCost)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newFakeUserStore()
	recorder := newCountingRecorder()
	auditor := &captureAuditor{}
	checker := rbac.MustNew(presets.Board())

	return &fixture{
		clock:    clock,
		codec:    codec,
		store:    store,
		hasher:   hasher,
		recorder: recorder,
		auditor:  auditor,
		service:  NewService(store, codec, hasher, auditor, recorder, logger),
		mw:       NewMiddleware(token.NewValidator(codec), NewResolver(store), checker, recorder, logger),
	}
}

func (f *fixture) addUser(t *testing.T, email, plain string, role user.Role) *user.User {
	t.Helper()
	hash, err := f.hasher.Hash(plain)
	require.NoError(t, err)
	return f.store.add(&user.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    f.clock.Now(),
	})
}

func (f *fixture) accessToken(t *testing.T, email string, role user.Role) string {
	t.Helper()
	tok, err := f.codec.IssueAccessToken(email, role)
	require.NoError(t, err)
	return tok
}
