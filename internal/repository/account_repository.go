package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/online-booking/booking-service/internal/domain"
)

// Sortable account columns.
const (
	SortByFullName         = "full_name"
	SortByRegistrationDate = "registration_date"
	SortByIdentifier       = "id_number"
)

const defaultListLimit = 50

// AccountFilter defines query params for account listing.
type AccountFilter struct {
	SortBy string
	Desc   bool
	Limit  int
	Offset int
}

// AccountRepository is the credential store. It exclusively owns Account
// records; uniqueness of identifier and email is enforced by the storage.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByIdentifier(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	List(ctx context.Context, filter AccountFilter) ([]domain.Account, error)
	Count(ctx context.Context) (int, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	UpdateProfile(ctx context.Context, id string, patch domain.AccountPatch) (*domain.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	HasAdmin(ctx context.Context) (bool, error)
}

type accountRepository struct {
	db DBTX
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(db DBTX) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id_number, full_name, email, parish, phone_number, password_hash, role, registration_date`

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO users (id_number, full_name, email, parish, phone_number, password_hash, role)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING registration_date`

	err := r.db.QueryRow(ctx, query,
		account.ID,
		account.FullName,
		account.Email,
		account.Profile.Parish,
		account.Profile.PhoneNumber,
		account.PasswordHash,
		string(account.Role),
	).Scan(&account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateIdentity
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *accountRepository) GetByIdentifier(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE id_number=$1`
	return scanAccount(r.db.QueryRow(ctx, query, id))
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE email=$1`
	return scanAccount(r.db.QueryRow(ctx, query, email))
}

func (r *accountRepository) List(ctx context.Context, filter AccountFilter) ([]domain.Account, error) {
	column, err := sortColumn(filter.SortBy)
	if err != nil {
		return nil, err
	}
	direction := "ASC"
	if filter.Desc {
		direction = "DESC"
	}
	limit, offset := pageBounds(filter)

	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY %s %s, id_number ASC LIMIT %d OFFSET %d`,
		accountColumns, column, direction, limit, offset)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []domain.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *accountRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *accountRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	if !role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}
	const query = `UPDATE users SET role=$1 WHERE id_number=$2`
	return r.execOne(ctx, query, string(role), id)
}

func (r *accountRepository) UpdateProfile(ctx context.Context, id string, patch domain.AccountPatch) (*domain.Account, error) {
	if patch.IsEmpty() {
		return r.GetByIdentifier(ctx, id)
	}

	args := []any{}
	sets := []string{}
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	add("full_name", patch.FullName)
	add("email", patch.Email)
	add("parish", patch.Parish)
	add("phone_number", patch.PhoneNumber)

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id_number=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), accountColumns)

	account, err := scanAccount(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if passwordHash == "" {
		return fmt.Errorf("%w: empty password hash", domain.ErrValidation)
	}
	const query = `UPDATE users SET password_hash=$1 WHERE id_number=$2`
	return r.execOne(ctx, query, passwordHash, id)
}

func (r *accountRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id_number=$1`
	return r.execOne(ctx, query, id)
}

func (r *accountRepository) HasAdmin(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE role=$1)`, string(domain.RoleAdmin)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *accountRepository) execOne(ctx context.Context, query string, args ...any) error {
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account domain.Account
		role    string
	)
	if err := row.Scan(
		&account.ID,
		&account.FullName,
		&account.Email,
		&account.Profile.Parish,
		&account.Profile.PhoneNumber,
		&account.PasswordHash,
		&role,
		&account.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	parsed := domain.Role(role)
	if !parsed.IsValid() {
		return nil, fmt.Errorf("db error: account %s has unknown role %q", account.ID, role)
	}
	account.Role = parsed
	return &account, nil
}

// sortColumn maps a sort option to its column. Listings order by name unless
// told otherwise.
func sortColumn(sortBy string) (string, error) {
	switch sortBy {
	case "", SortByFullName:
		return SortByFullName, nil
	case SortByRegistrationDate:
		return SortByRegistrationDate, nil
	case SortByIdentifier:
		return SortByIdentifier, nil
	default:
		return "", fmt.Errorf("%w: invalid sort option %q", domain.ErrValidation, sortBy)
	}
}

func pageBounds(filter AccountFilter) (int, int) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
