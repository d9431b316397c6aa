package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/online-booking/booking-service/internal/domain"
	"github.com/online-booking/booking-service/internal/events"
)

func TestAdmin_RequiresAdminRole(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "U1", "u1@example.com")
	ctx := context.Background()

	anonymous := Caller{}
	user := Caller{ID: "U1", Role: domain.RoleUser}
	bogus := Caller{ID: "X", Role: "Root"}

	for _, caller := range []Caller{anonymous, user, bogus} {
		_, err := f.adminSvc.Tables(caller)
		assert.Error(t, err)

		_, err = f.adminSvc.ListRecords(ctx, caller, UsersTable, ListQuery{})
		assert.Error(t, err)

		_, err = f.adminSvc.GetRecord(ctx, caller, UsersTable, "U1")
		assert.Error(t, err)

		_, err = f.adminSvc.PatchRecord(ctx, caller, UsersTable, "U1", map[string]any{"full_name": "x"})
		assert.Error(t, err)

		assert.Error(t, f.adminSvc.DeleteRecord(ctx, caller, UsersTable, "U1"))

		_, err = f.adminSvc.UpdateRole(ctx, caller, "U1", "Admin")
		assert.Error(t, err)
	}

	_, err := f.adminSvc.Tables(anonymous)
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
	_, err = f.adminSvc.Tables(user)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.adminSvc.Tables(bogus)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	acc, err := f.accounts.GetByIdentifier(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, acc.Role)
	assert.Equal(t, "Test Person U1", acc.FullName)
}

func TestAdmin_Tables(t *testing.T) {
	f := newFixture(t, nil)
	tables, err := f.adminSvc.Tables(f.admin(t))
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, UsersTable, tables[0].Name)
	assert.NotContains(t, tables[0].Columns, "password_hash")
	assert.ElementsMatch(t, []string{"full_name", "email", "parish", "phone_number"}, tables[0].Editable)
}

func TestAdmin_ListRecords(t *testing.T) {
	f := newFixture(t, nil)
	admin := f.admin(t)
	f.register(t, "C3", "c3@example.com")
	f.register(t, "B2", "b2@example.com")
	ctx := context.Background()

	page, err := f.adminSvc.ListRecords(ctx, admin, UsersTable, ListQuery{SortBy: "id_number", Order: "desc", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "root", page.Records[0]["id_number"])
	assert.Equal(t, "C3", page.Records[1]["id_number"])
	for _, r := range page.Records {
		assert.NotContains(t, r, "password_hash")
	}

	page, err = f.adminSvc.ListRecords(ctx, admin, UsersTable, ListQuery{SortBy: "id_number", Offset: 2})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "root", page.Records[0]["id_number"])

	tests := []struct {
		name  string
		q     ListQuery
		field string
	}{
		{"bad sort", ListQuery{SortBy: "password_hash"}, "sort_by"},
		{"bad order", ListQuery{Order: "sideways"}, "order"},
		{"limit too big", ListQuery{Limit: 10000}, "limit"},
		{"negative offset", ListQuery{Offset: -1}, "offset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.adminSvc.ListRecords(ctx, admin, UsersTable, tt.q)
			var fields domain.FieldErrors
			require.True(t, errors.As(err, &fields))
			assert.Contains(t, fields, tt.field)
		})
	}

	_, err = f.adminSvc.ListRecords(ctx, admin, "bookings", ListQuery{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdmin_PatchRecord(t *testing.T) {
	f := newFixture(t, nil)
	admin := f.admin(t)
	f.register(t, "U1", "u1@example.com")
	f.register(t, "U2", "u2@example.com")
	ctx := context.Background()

	t.Run("allow-listed fields", func(t *testing.T) {
		rec, err := f.adminSvc.PatchRecord(ctx, admin, UsersTable, "U1", map[string]any{
			"full_name": "  New Name ",
			"email":     "New@Example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "New Name", rec["full_name"])
		assert.Equal(t, "new@example.com", rec["email"])

		ev := f.events.last()
		assert.Equal(t, events.EventAccountUpdated, ev.Type)
		assert.Equal(t, events.AccountUpdatedPayload{Fields: []string{"email", "full_name"}}, ev.Payload)
		assert.Equal(t, "root", ev.Actor.ID)
	})

	rejected := []struct {
		name   string
		fields map[string]any
		key    string
	}{
		{"password hash", map[string]any{"password_hash": "x"}, "password_hash"},
		{"role", map[string]any{"role": "Admin"}, "role"},
		{"registration date", map[string]any{"registration_date": "2020-01-01"}, "registration_date"},
		{"identifier", map[string]any{"id_number": "Z"}, "id_number"},
		{"non-string", map[string]any{"parish": 7}, "parish"},
		{"blank name", map[string]any{"full_name": "   "}, "full_name"},
		{"bad email", map[string]any{"email": "nope"}, "email"},
		{"mixed", map[string]any{"parish": "ok", "role": "Admin"}, "role"},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			before, err := f.accounts.GetByIdentifier(ctx, "U2")
			require.NoError(t, err)

			_, err = f.adminSvc.PatchRecord(ctx, admin, UsersTable, "U2", tt.fields)
			var fields domain.FieldErrors
			require.True(t, errors.As(err, &fields), "got %v", err)
			assert.Contains(t, fields, tt.key)

			after, err := f.accounts.GetByIdentifier(ctx, "U2")
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}

	_, err := f.adminSvc.PatchRecord(ctx, admin, UsersTable, "U2", map[string]any{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.adminSvc.PatchRecord(ctx, admin, UsersTable, "U2", map[string]any{"email": "new@example.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)

	_, err = f.adminSvc.PatchRecord(ctx, admin, UsersTable, "ghost", map[string]any{"parish": "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdmin_GetAndDeleteRecord(t *testing.T) {
	f := newFixture(t, nil)
	admin := f.admin(t)
	f.register(t, "A123", "a@x.com")
	ctx := context.Background()

	rec, err := f.adminSvc.GetRecord(ctx, admin, UsersTable, "A123")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", rec["email"])
	assert.Equal(t, "User", rec["role"])

	require.NoError(t, f.adminSvc.DeleteRecord(ctx, admin, UsersTable, "A123"))
	assert.Equal(t, events.EventAccountDeleted, f.events.last().Type)

	assert.ErrorIs(t, f.adminSvc.DeleteRecord(ctx, admin, UsersTable, "A123"), domain.ErrNotFound)
	_, err = f.adminSvc.GetRecord(ctx, admin, UsersTable, "A123")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.authSvc.Login(ctx, LoginInput{IDNumber: "A123", Password: "secret1!"})
	assert.ErrorIs(t, err, domain.ErrAuthentication)
}

func TestAdmin_UpdateRole(t *testing.T) {
	f := newFixture(t, nil)
	admin := f.admin(t)
	f.register(t, "U1", "u1@example.com")
	ctx := context.Background()

	_, err := f.adminSvc.UpdateRole(ctx, admin, "U1", "Superuser")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.adminSvc.UpdateRole(ctx, admin, "ghost", "Admin")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	countBefore := len(f.events.types())
	acc, err := f.adminSvc.UpdateRole(ctx, admin, "U1", "user")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, acc.Role)
	assert.Len(t, f.events.types(), countBefore)

	acc, err = f.adminSvc.UpdateRole(ctx, admin, "U1", "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, acc.Role)

	ev := f.events.last()
	assert.Equal(t, events.EventAccountRoleChanged, ev.Type)
	assert.Equal(t, events.AccountRoleChangedPayload{OldRole: domain.RoleUser, NewRole: domain.RoleAdmin}, ev.Payload)
}

func TestAdmin_CreateAccount(t *testing.T) {
	f := newFixture(t, nil)
	admin := f.admin(t)
	ctx := context.Background()

	in := CreateAccountInput{RegisterInput: validRegistration("OPS1", "ops@example.com"), Role: "Admin"}
	acc, err := f.adminSvc.CreateAccount(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, acc.Role)

	res, err := f.authSvc.Login(ctx, LoginInput{IDNumber: "OPS1", Password: "secret1!"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, res.Credential.Role)

	_, err = f.adminSvc.CreateAccount(ctx, admin, in)
	assert.ErrorIs(t, err, domain.ErrDuplicateIdentity)

	in = CreateAccountInput{RegisterInput: validRegistration("OPS2", "ops2@example.com"), Role: "Owner"}
	_, err = f.adminSvc.CreateAccount(ctx, admin, in)
	var fields domain.FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Contains(t, fields, "role")

	_, err = f.adminSvc.CreateAccount(ctx, Caller{ID: "U9", Role: domain.RoleUser}, in)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAccountRecord_OmitsHash(t *testing.T) {
	rec := AccountRecord(&domain.Account{ID: "A", PasswordHash: "secret-hash", Role: domain.RoleUser})
	for _, v := range rec {
		assert.NotEqual(t, "secret-hash", v)
	}
	assert.NotContains(t, rec, "password_hash")
}
