package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/online-booking/booking-service/internal/auth"
	"github.com/online-booking/booking-service/internal/config"
	"github.com/online-booking/booking-service/internal/domain"
	"github.com/online-booking/booking-service/internal/repository"
)

const bootstrapPasswordLength = 24

// BootstrapAdmin creates an initial admin account when none exists.
// It is idempotent: if an admin already exists, it does nothing.
func BootstrapAdmin(ctx context.Context, accounts repository.AccountRepository, hasher *auth.PasswordHasher, cfg config.BootstrapConfig, logger *zap.Logger) error {
	if !cfg.AdminEnabled {
		return nil
	}

	has, err := accounts.HasAdmin(ctx)
	if err != nil {
		return err
	}
	if has {
		return nil
	}

	password, err := generatePassword(bootstrapPasswordLength)
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	account := &domain.Account{
		ID:           cfg.AdminID,
		FullName:     "Administrator",
		Email:        domain.NormalizeEmail(cfg.AdminEmail),
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := accounts.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			return fmt.Errorf("bootstrap admin %q: identifier or email taken by a non-admin account: %w", cfg.AdminID, err)
		}
		return err
	}

	if cfg.AdminPasswordPath != "" {
		if err := os.WriteFile(cfg.AdminPasswordPath, []byte(password+"\n"), 0o600); err != nil {
			return err
		}
		logger.Warn("initial admin created; password written to file",
			zap.String("id_number", account.ID),
			zap.String("path", cfg.AdminPasswordPath))
	} else {
		logger.Warn("initial admin created",
			zap.String("id_number", account.ID),
			zap.String("password", password))
	}

	return nil
}

func generatePassword(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("password length must be positive")
	}
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw)[:length], nil
}
