package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/online-booking/booking-service/internal/auth"
	"github.com/online-booking/booking-service/internal/config"
	"github.com/online-booking/booking-service/internal/domain"
	"github.com/online-booking/booking-service/internal/events"
	"github.com/online-booking/booking-service/internal/repository"
)

var testAuthConfig = config.AuthConfig{
	JWTSecret:               "test-secret",
	CredentialTTLMinutes:    60,
	PasswordResetTTLMinutes: 30,
	BcryptCost:              4,
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) handle(_ context.Context, e events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) types() []events.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]events.EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func (l *eventLog) last() events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[len(l.events)-1]
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) RecordAuthEvent(event, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[event+"/"+outcome]++
}

func (r *countingRecorder) get(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[key]
}

type fixture struct {
	accounts    *repository.MemoryAccountRepository
	resets      *repository.MemoryPasswordResetRepository
	credentials auth.CredentialProvider
	authSvc     *AuthService
	adminSvc    *AdminService
	events      *eventLog
	recorder    *countingRecorder
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// credentialModes returns both credential backends so flows can be checked
// against each.
func credentialModes(t *testing.T) map[string]auth.CredentialProvider {
	t.Helper()
	client := newRedisClient(t)
	return map[string]auth.CredentialProvider{
		config.CredentialModeJWT: auth.NewTokenManager("test-secret", time.Hour,
			auth.WithRevocationList(auth.NewRedisRevocationList(client))),
		config.CredentialModeSession: auth.NewSessionStore(client, time.Hour),
	}
}

func newFixture(t *testing.T, credentials auth.CredentialProvider) *fixture {
	t.Helper()
	if credentials == nil {
		credentials = credentialModes(t)[config.CredentialModeJWT]
	}

	f := &fixture{
		accounts:    repository.NewMemoryAccountRepository(),
		resets:      repository.NewMemoryPasswordResetRepository(),
		credentials: credentials,
		events:      &eventLog{},
		recorder:    &countingRecorder{counts: map[string]int{}},
	}

	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	for _, et := range []events.EventType{
		events.EventAccountRegistered,
		events.EventAccountLoggedIn,
		events.EventAccountRoleChanged,
		events.EventAccountUpdated,
		events.EventAccountDeleted,
		events.EventPasswordChanged,
	} {
		dispatcher.Subscribe(et, f.events.handle)
	}

	f.authSvc = NewAuthService(testAuthConfig, AuthDependencies{
		Accounts:          f.accounts,
		PasswordResetRepo: f.resets,
		Credentials:       credentials,
		Dispatcher:        dispatcher,
		Recorder:          f.recorder,
		Logger:            zap.NewNop(),
	})
	f.adminSvc = NewAdminService(f.accounts, f.authSvc.Hasher(), dispatcher, zap.NewNop())
	return f
}

func validRegistration(id, email string) RegisterInput {
	return RegisterInput{
		IDNumber:    id,
		FullName:    "Test Person " + id,
		Email:       email,
		Password:    "secret1!",
		Parish:      "Kingston",
		PhoneNumber: "876-555-0100",
	}
}

func (f *fixture) register(t *testing.T, id, email string) *domain.Account {
	t.Helper()
	acc, err := f.authSvc.Register(context.Background(), validRegistration(id, email))
	require.NoError(t, err)
	return acc
}

func (f *fixture) admin(t *testing.T) Caller {
	t.Helper()
	acc := f.register(t, "root", "root@example.com")
	require.NoError(t, f.accounts.UpdateRole(context.Background(), acc.ID, domain.RoleAdmin))
	return Caller{ID: acc.ID, Role: domain.RoleAdmin}
}
