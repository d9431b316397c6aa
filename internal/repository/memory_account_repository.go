package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/online-booking/booking-service/internal/domain"
)

// MemoryAccountRepository keeps accounts in process memory. It is used when no
// database is configured and in tests, and mirrors the uniqueness rules of
// the users table.
type MemoryAccountRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.Account
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryAccountRepository returns an empty in-memory store.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		byID:    make(map[string]domain.Account),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryAccountRepository) Create(_ context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(account.Email)
	if _, exists := r.byID[account.ID]; exists {
		return domain.ErrDuplicateIdentity
	}
	if _, exists := r.byEmail[email]; exists {
		return domain.ErrDuplicateIdentity
	}

	account.CreatedAt = r.now().UTC()
	r.byID[account.ID] = *account
	r.byEmail[email] = account.ID
	return nil
}

func (r *MemoryAccountRepository) GetByIdentifier(_ context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &account, nil
}

func (r *MemoryAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	id, ok := r.byEmail[strings.ToLower(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.GetByIdentifier(ctx, id)
}

func (r *MemoryAccountRepository) List(_ context.Context, filter AccountFilter) ([]domain.Account, error) {
	column, err := sortColumn(filter.SortBy)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	result := make([]domain.Account, 0, len(r.byID))
	for _, account := range r.byID {
		result = append(result, account)
	}
	r.mu.RUnlock()

	less := func(a, b domain.Account) int {
		switch column {
		case SortByFullName:
			return strings.Compare(a.FullName, b.FullName)
		case SortByIdentifier:
			return strings.Compare(a.ID, b.ID)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		c := less(result[i], result[j])
		if filter.Desc {
			c = -c
		}
		if c == 0 {
			return result[i].ID < result[j].ID
		}
		return c < 0
	})

	limit, offset := pageBounds(filter)
	if offset >= len(result) {
		return []domain.Account{}, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (r *MemoryAccountRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

func (r *MemoryAccountRepository) UpdateRole(_ context.Context, id string, role domain.Role) error {
	if !role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	account.Role = role
	r.byID[id] = account
	return nil
}

func (r *MemoryAccountRepository) UpdateProfile(_ context.Context, id string, patch domain.AccountPatch) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	oldEmail := strings.ToLower(account.Email)
	patch.Apply(&account)
	newEmail := strings.ToLower(account.Email)
	if newEmail != oldEmail {
		if owner, taken := r.byEmail[newEmail]; taken && owner != id {
			return nil, domain.ErrDuplicateIdentity
		}
		delete(r.byEmail, oldEmail)
		r.byEmail[newEmail] = id
	}
	r.byID[id] = account
	return &account, nil
}

func (r *MemoryAccountRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	if passwordHash == "" {
		return fmt.Errorf("%w: empty password hash", domain.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	account.PasswordHash = passwordHash
	r.byID[id] = account
	return nil
}

func (r *MemoryAccountRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, strings.ToLower(account.Email))
	return nil
}

func (r *MemoryAccountRepository) HasAdmin(_ context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.byID {
		if account.Role == domain.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}
