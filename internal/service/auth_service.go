package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/online-booking/booking-service/internal/auth"
	"github.com/online-booking/booking-service/internal/config"
	"github.com/online-booking/booking-service/internal/domain"
	"github.com/online-booking/booking-service/internal/events"
	"github.com/online-booking/booking-service/internal/repository"
)

// dummyPassword is hashed once and verified against when a login names an
// unknown account, so both paths spend the same bcrypt time.
const dummyPassword = "not-a-real-password-1!"

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Credential *domain.Credential
	Account    *domain.Account
}

// AuthService coordinates registration, login and credential lifecycle flows.
type AuthService struct {
	accounts    repository.AccountRepository
	resets      repository.PasswordResetRepository
	hasher      *auth.PasswordHasher
	credentials auth.CredentialProvider
	dispatcher  events.Dispatcher
	recorder    auth.EventRecorder
	logger      *zap.Logger
	resetTTL    time.Duration
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	Accounts          repository.AccountRepository
	PasswordResetRepo repository.PasswordResetRepository
	Credentials       auth.CredentialProvider
	Dispatcher        events.Dispatcher
	Recorder          auth.EventRecorder
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		accounts:    deps.Accounts,
		resets:      deps.PasswordResetRepo,
		hasher:      auth.NewPasswordHasher(cfg.BcryptCost),
		credentials: deps.Credentials,
		dispatcher:  deps.Dispatcher,
		recorder:    deps.Recorder,
		logger:      logger,
		resetTTL:    cfg.PasswordResetTTL(),
		now:         time.Now,
	}
}

// Hasher exposes the password hasher shared with the admin service.
func (s *AuthService) Hasher() *auth.PasswordHasher {
	return s.hasher
}

// Register creates a User account. Uniqueness of identifier and email is left
// to the store so concurrent registrations cannot both succeed.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.Account, error) {
	account, err := buildAccount(s.hasher, in, domain.RoleUser)
	if err != nil {
		s.record("register", "invalid")
		return nil, err
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			s.record("register", "duplicate")
		} else {
			s.record("register", "error")
		}
		return nil, err
	}

	s.record("register", "ok")
	s.publish(ctx, events.NewEvent(events.EventAccountRegistered, account.ID, events.Actor{}, nil))
	return account, nil
}

// Login verifies the password and mints a bearer credential. Unknown
// identifiers and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := fieldErrors(in.Validate()); err != nil {
		s.record("login", "invalid")
		return nil, err
	}

	account, err := s.accounts.GetByIdentifier(ctx, in.IDNumber)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.record("login", "error")
			return nil, err
		}
		_, _ = s.hasher.Verify(in.Password, s.dummy())
		s.record("login", "failed")
		return nil, domain.ErrAuthentication
	}

	ok, err := s.hasher.Verify(in.Password, account.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unreadable", zap.String("account_id", account.ID), zap.Error(err))
		s.record("login", "failed")
		return nil, domain.ErrAuthentication
	}
	if !ok {
		s.record("login", "failed")
		return nil, domain.ErrAuthentication
	}

	cred, err := s.credentials.Issue(ctx, account.ID, account.Role)
	if err != nil {
		s.record("login", "error")
		return nil, err
	}

	s.record("login", "ok")
	s.publish(ctx, events.NewEvent(events.EventAccountLoggedIn, account.ID,
		events.Actor{ID: account.ID, Role: account.Role}, nil))
	return &LoginResult{Credential: cred, Account: account}, nil
}

// Profile returns the stored account of the authenticated caller.
func (s *AuthService) Profile(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.accounts.GetByIdentifier(ctx, accountID)
}

// Logout revokes the presented credential. Missing, unknown and malformed
// credentials are acknowledged without error.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		s.record("logout", "anonymous")
		return nil
	}
	if err := s.credentials.Revoke(ctx, raw); err != nil {
		s.record("logout", "error")
		return err
	}
	s.record("logout", "ok")
	return nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, accountID string, in ChangePasswordInput) error {
	if err := fieldErrors(in.Validate()); err != nil {
		return err
	}

	account, err := s.accounts.GetByIdentifier(ctx, accountID)
	if err != nil {
		return err
	}
	ok, err := s.hasher.Verify(in.CurrentPassword, account.PasswordHash)
	if err != nil || !ok {
		return domain.ErrAuthentication
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, account.ID, hash); err != nil {
		return err
	}

	s.publish(ctx, events.NewEvent(events.EventPasswordChanged, account.ID,
		events.Actor{ID: account.ID, Role: account.Role}, events.PasswordChangedPayload{Reset: false}))
	return nil
}

// RequestPasswordReset persists a one-time reset token for the account owning
// email. An unknown email yields a nil token and no error.
func (s *AuthService) RequestPasswordReset(ctx context.Context, in ResetRequestInput) (*repository.PasswordResetToken, error) {
	in.Email = domain.NormalizeEmail(in.Email)
	if err := fieldErrors(in.Validate()); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	token := &repository.PasswordResetToken{
		AccountID: account.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.resetTTL).UTC(),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}
	s.logger.Info("password reset requested", zap.String("account_id", account.ID))
	s.publish(ctx, events.NewEvent(events.EventPasswordResetRequested, account.ID, events.Actor{},
		events.PasswordResetRequestedPayload{Token: token.Token, ExpiresAt: token.ExpiresAt}))
	return token, nil
}

// ConfirmPasswordReset redeems a reset token and updates the password. The
// token is claimed before the password changes so it cannot be used twice.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, in ResetConfirmInput) error {
	if err := fieldErrors(in.Validate()); err != nil {
		return err
	}

	invalid := domain.FieldErrors{"token": "invalid or expired reset token"}

	token, err := s.resets.GetByToken(ctx, in.Token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return invalid
		}
		return err
	}
	if !token.Usable(s.now()) {
		return invalid
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return invalid
		}
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, token.AccountID, hash); err != nil {
		return err
	}

	s.publish(ctx, events.NewEvent(events.EventPasswordChanged, token.AccountID, events.Actor{},
		events.PasswordChangedPayload{Reset: true}))
	return nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err != nil {
			s.logger.Error("hash dummy password", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) record(event, outcome string) {
	if s.recorder != nil {
		s.recorder.RecordAuthEvent(event, outcome)
	}
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// buildAccount validates registration input and hashes the password. The
// plaintext never leaves this function.
func buildAccount(hasher *auth.PasswordHasher, in RegisterInput, role domain.Role) (*domain.Account, error) {
	in.normalize()
	if err := fieldErrors(in.Validate()); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	hash, err := hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	return &domain.Account{
		ID:       in.IDNumber,
		FullName: in.FullName,
		Email:    in.Email,
		Profile: domain.Profile{
			Parish:      in.Parish,
			PhoneNumber: in.PhoneNumber,
		},
		PasswordHash: hash,
		Role:         role,
	}, nil
}
