package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/online-booking/booking-service/internal/auth"
	"github.com/online-booking/booking-service/internal/domain"
	"github.com/online-booking/booking-service/internal/events"
	"github.com/online-booking/booking-service/internal/repository"
)

// UsersTable is the name under which accounts are browsable.
const UsersTable = "users"

const maxPageSize = 200

// Caller is the validated identity invoking an admin operation.
type Caller struct {
	ID   string
	Role domain.Role
}

// Record is one row of a browsable table, keyed by column name.
type Record map[string]any

// TableDescriptor describes a browsable table to admin clients.
type TableDescriptor struct {
	Name        string   `json:"name"`
	PrimaryKey  string   `json:"primary_key"`
	Columns     []string `json:"columns"`
	SortColumns []string `json:"sort_columns"`
	Editable    []string `json:"editable"`
}

// ListQuery holds paging and ordering for record listings.
type ListQuery struct {
	SortBy string
	Order  string
	Limit  int
	Offset int
}

// RecordPage is one page of records plus the table size.
type RecordPage struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
}

// AdminService exposes the generic table browser and account administration.
// Every operation re-checks the caller's role.
type AdminService struct {
	accounts   repository.AccountRepository
	hasher     *auth.PasswordHasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
	tables     map[string]TableDescriptor
}

// NewAdminService builds the service.
func NewAdminService(accounts repository.AccountRepository, hasher *auth.PasswordHasher, dispatcher events.Dispatcher, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		accounts:   accounts,
		hasher:     hasher,
		dispatcher: dispatcher,
		logger:     logger,
		tables: map[string]TableDescriptor{
			UsersTable: {
				Name:       UsersTable,
				PrimaryKey: "id_number",
				Columns:    []string{"id_number", "full_name", "email", "parish", "phone_number", "role", "registration_date"},
				SortColumns: []string{
					repository.SortByFullName,
					repository.SortByRegistrationDate,
					repository.SortByIdentifier,
				},
				Editable: []string{"full_name", "email", "parish", "phone_number"},
			},
		},
	}
}

// Tables lists the browsable tables.
func (s *AdminService) Tables(caller Caller) ([]TableDescriptor, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	out := make([]TableDescriptor, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListRecords returns one page of the table, sorted as requested.
func (s *AdminService) ListRecords(ctx context.Context, caller Caller, table string, q ListQuery) (*RecordPage, error) {
	if err := s.checkTable(caller, table); err != nil {
		return nil, err
	}

	filter, err := toAccountFilter(q)
	if err != nil {
		return nil, err
	}

	accounts, err := s.accounts.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.accounts.Count(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(accounts))
	for i := range accounts {
		records = append(records, AccountRecord(&accounts[i]))
	}
	return &RecordPage{Records: records, Total: total}, nil
}

// GetRecord returns one record by primary key.
func (s *AdminService) GetRecord(ctx context.Context, caller Caller, table, id string) (Record, error) {
	if err := s.checkTable(caller, table); err != nil {
		return nil, err
	}
	account, err := s.accounts.GetByIdentifier(ctx, id)
	if err != nil {
		return nil, err
	}
	return AccountRecord(account), nil
}

// PatchRecord applies allow-listed field edits. Unknown or protected columns
// such as password_hash, role and registration_date are rejected.
func (s *AdminService) PatchRecord(ctx context.Context, caller Caller, table, id string, fields map[string]any) (Record, error) {
	if err := s.checkTable(caller, table); err != nil {
		return nil, err
	}

	patch, changed, err := s.parsePatch(table, fields)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.UpdateProfile(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventAccountUpdated, account.ID, actorOf(caller),
		events.AccountUpdatedPayload{Fields: changed}))
	return AccountRecord(account), nil
}

// DeleteRecord removes a record by primary key.
func (s *AdminService) DeleteRecord(ctx context.Context, caller Caller, table, id string) error {
	if err := s.checkTable(caller, table); err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("account deleted", zap.String("account_id", id), zap.String("actor", caller.ID))
	s.publish(ctx, events.NewEvent(events.EventAccountDeleted, id, actorOf(caller), nil))
	return nil
}

// UpdateRole changes an account's role. It is the only path that mutates role.
func (s *AdminService) UpdateRole(ctx context.Context, caller Caller, id, role string) (*domain.Account, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	newRole, err := domain.ParseRole(role)
	if err != nil {
		return nil, domain.FieldErrors{"role": "must be one of User, Admin"}
	}

	account, err := s.accounts.GetByIdentifier(ctx, id)
	if err != nil {
		return nil, err
	}
	oldRole := account.Role
	if oldRole == newRole {
		return account, nil
	}

	if err := s.accounts.UpdateRole(ctx, id, newRole); err != nil {
		return nil, err
	}
	account.Role = newRole

	s.logger.Info("account role changed",
		zap.String("account_id", id),
		zap.String("old_role", oldRole.String()),
		zap.String("new_role", newRole.String()),
		zap.String("actor", caller.ID))
	s.publish(ctx, events.NewEvent(events.EventAccountRoleChanged, id, actorOf(caller),
		events.AccountRoleChangedPayload{OldRole: oldRole, NewRole: newRole}))
	return account, nil
}

// CreateAccount registers an account with an explicit role.
func (s *AdminService) CreateAccount(ctx context.Context, caller Caller, in CreateAccountInput) (*domain.Account, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	in.normalize()
	if err := fieldErrors(in.Validate()); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	account, err := buildAccount(s.hasher, in.RegisterInput, role)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewEvent(events.EventAccountRegistered, account.ID, actorOf(caller), nil))
	return account, nil
}

func (s *AdminService) checkTable(caller Caller, table string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if _, ok := s.tables[table]; !ok {
		return fmt.Errorf("table %q: %w", table, domain.ErrNotFound)
	}
	return nil
}

func (s *AdminService) parsePatch(table string, fields map[string]any) (domain.AccountPatch, []string, error) {
	if len(fields) == 0 {
		return domain.AccountPatch{}, nil, fmt.Errorf("%w: no fields to update", domain.ErrValidation)
	}

	editable := map[string]bool{}
	for _, name := range s.tables[table].Editable {
		editable[name] = true
	}

	problems := domain.FieldErrors{}
	values := map[string]*string{}
	for name, raw := range fields {
		if !editable[name] {
			problems[name] = "field is not editable"
			continue
		}
		str, ok := raw.(string)
		if !ok {
			problems[name] = "must be a string"
			continue
		}
		str = strings.TrimSpace(str)
		if name == "email" {
			str = domain.NormalizeEmail(str)
		}
		values[name] = &str
	}
	if len(problems) > 0 {
		return domain.AccountPatch{}, nil, problems
	}

	in := accountPatchInput{
		FullName:    values["full_name"],
		Email:       values["email"],
		Parish:      values["parish"],
		PhoneNumber: values["phone_number"],
	}
	if err := fieldErrors(in.Validate()); err != nil {
		return domain.AccountPatch{}, nil, err
	}

	changed := make([]string, 0, len(values))
	for name := range values {
		changed = append(changed, name)
	}
	sort.Strings(changed)

	return domain.AccountPatch{
		FullName:    in.FullName,
		Email:       in.Email,
		Parish:      in.Parish,
		PhoneNumber: in.PhoneNumber,
	}, changed, nil
}

func (s *AdminService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// AccountRecord renders an account as a table row. The password hash is
// never part of a record.
func AccountRecord(a *domain.Account) Record {
	return Record{
		"id_number":         a.ID,
		"full_name":         a.FullName,
		"email":             a.Email,
		"parish":            a.Profile.Parish,
		"phone_number":      a.Profile.PhoneNumber,
		"role":              a.Role.String(),
		"registration_date": a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func requireAdmin(caller Caller) error {
	if caller.ID == "" {
		return domain.ErrMissingCredential
	}
	return auth.Authorize(caller.Role, domain.RoleAdmin)
}

func actorOf(caller Caller) events.Actor {
	return events.Actor{ID: caller.ID, Role: caller.Role}
}

func toAccountFilter(q ListQuery) (repository.AccountFilter, error) {
	filter := repository.AccountFilter{SortBy: q.SortBy, Offset: q.Offset, Limit: q.Limit}

	switch strings.ToLower(q.Order) {
	case "", "asc":
	case "desc":
		filter.Desc = true
	default:
		return filter, domain.FieldErrors{"order": "must be asc or desc"}
	}

	switch q.SortBy {
	case "", repository.SortByFullName, repository.SortByRegistrationDate, repository.SortByIdentifier:
	default:
		return filter, domain.FieldErrors{"sort_by": "must be one of full_name, registration_date, id_number"}
	}

	if q.Limit < 0 || q.Limit > maxPageSize {
		return filter, domain.FieldErrors{"limit": fmt.Sprintf("must be between 0 and %d", maxPageSize)}
	}
	if q.Offset < 0 {
		return filter, domain.FieldErrors{"offset": "must not be negative"}
	}
	return filter, nil
}
