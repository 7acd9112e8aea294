package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/jobportal/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// FindByEmail はメールアドレスでアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	account := &model.Account{}
	var skills pq.StringArray
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, location, skills, bio, created_at, updated_at
		 FROM accounts WHERE email = $1`,
		email,
	).Scan(
		&account.ID, &account.Name, &account.Email, &account.PasswordHash, &account.Role,
		&account.Location, &skills, &account.Bio, &account.CreatedAt, &account.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}

	account.Skills = []string(skills)
	return account, nil
}

// Create はアカウントを作成する。メールアドレスが重複する場合はErrDuplicateを返す。
func (r *PostgresAccountRepo) Create(ctx context.Context, account *model.Account) error {
	skills := account.Skills
	if skills == nil {
		skills = []string{}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, email, password_hash, role, location, skills, bio, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		account.ID, account.Name, account.Email, account.PasswordHash, account.Role,
		account.Location, pq.Array(skills), account.Bio, account.CreatedAt, account.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// UpdateProfile は名前と自己紹介を更新する。
// 対象アカウントが存在しない場合はfalseを返す。
func (r *PostgresAccountRepo) UpdateProfile(ctx context.Context, email, name, bio string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = $2, bio = $3, updated_at = now() WHERE email = $1`,
		email, name, bio,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update profile: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
