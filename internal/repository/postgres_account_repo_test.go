package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/jobportal/internal/model"
)

var accountRowColumns = []string{
	"id", "name", "email", "password_hash", "role", "location", "skills", "bio", "created_at", "updated_at",
}

func TestPostgresAccountRepo_FindByEmail_Found(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresAccountRepo(db)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, name, email, password_hash, role, location, skills, bio, created_at, updated_at\s+FROM accounts WHERE email = \$1`).
		WithArgs("jane@example.com").
		WillReturnRows(sqlmock.NewRows(accountRowColumns).AddRow(
			"acc-1", "Jane", "jane@example.com", "$2a$10$hash", "jobseeker", "Berlin", "{Go,Rust}", "", now, now,
		))

	account, err := repo.FindByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.NotNil(t, account)
	require.Equal(t, "acc-1", account.ID)
	require.Equal(t, model.RoleJobSeeker, account.Role)
	require.Equal(t, []string{"Go", "Rust"}, account.Skills)
	require.Equal(t, "$2a$10$hash", account.PasswordHash)
}

func TestPostgresAccountRepo_FindByEmail_NotFoundReturnsNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresAccountRepo(db)

	mock.ExpectQuery(`FROM accounts WHERE email = \$1`).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(accountRowColumns))

	account, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	require.Nil(t, account)
}

func TestPostgresAccountRepo_FindByEmail_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresAccountRepo(db)

	mock.ExpectQuery(`FROM accounts`).WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByEmail(context.Background(), "jane@example.com")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to find account by email")
}

func TestPostgresAccountRepo_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresAccountRepo(db)
	now := time.Now()

	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs("acc-1", "Jane", "jane@example.com", "hash", model.RoleAdmin, "", sqlmock.AnyArg(), "", now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &model.Account{
		ID: "acc-1", Name: "Jane", Email: "jane@example.com", PasswordHash: "hash",
		Role: model.RoleAdmin, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
}

func TestPostgresAccountRepo_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresAccountRepo(db)

	mock.ExpectExec(`INSERT INTO accounts`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_accounts_email"})

	err := repo.Create(context.Background(), &model.Account{ID: "acc-2", Email: "jane@example.com"})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestPostgresAccountRepo_UpdateProfile(t *testing.T) {
	tests := []struct {
		name         string
		rowsAffected int64
		want         bool
	}{
		{"existing account", 1, true},
		{"missing account", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPostgresAccountRepo(db)

			mock.ExpectExec(`UPDATE accounts SET name = \$2, bio = \$3`).
				WithArgs("jane@example.com", "Jane D", "Gopher").
				WillReturnResult(sqlmock.NewResult(0, tt.rowsAffected))

			found, err := repo.UpdateProfile(context.Background(), "jane@example.com", "Jane D", "Gopher")
			require.NoError(t, err)
			require.Equal(t, tt.want, found)
		})
	}
}
