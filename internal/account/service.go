// Package account はアカウント登録・認証・プロフィール管理のドメインロジックを提供する。
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/jobportal/internal/model"
	"github.com/hitoshi/jobportal/internal/repository"
)

// DefaultBcryptCost はパスワードハッシュのデフォルトのコスト。
const DefaultBcryptCost = 10

// RegisterInput はアカウント登録の入力値。
// Skills はカンマ区切りの文字列として受け取る。
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
	Location string
	Skills   string
}

// Service はアカウント管理のサービス層。
type Service struct {
	repo      repository.AccountRepository
	cost      int
	dummyHash []byte
	now       func() time.Time
}

// NewService はServiceを生成する。costが範囲外の場合はDefaultBcryptCostを使う。
func NewService(repo repository.AccountRepository, cost int) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}

	// 未登録メールアドレスでも照合処理を行い、応答時間から登録有無を推測させない
	dummy, err := bcrypt.GenerateFromPassword([]byte("jobportal-dummy-password"), cost)
	if err != nil {
		panic(fmt.Sprintf("failed to generate dummy hash: %v", err))
	}

	return &Service{
		repo:      repo,
		cost:      cost,
		dummyHash: dummy,
		now:       time.Now,
	}
}

// Register は新しいアカウントを作成する。
// 役割が空の場合はjobseekerとして登録する。
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)

	switch {
	case name == "":
		return model.NewValidationError("Name is required.")
	case email == "":
		return model.NewValidationError("Email is required.")
	case in.Password == "":
		return model.NewValidationError("Password is required.")
	}

	role := in.Role
	if role == "" {
		role = model.RoleJobSeeker
	}
	if !role.Valid() {
		return model.NewValidationError(fmt.Sprintf("Invalid role: %s", role))
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("アカウントの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return model.NewEmailExistsError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	now := s.now()
	account := &model.Account{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Location:     strings.TrimSpace(in.Location),
		Skills:       ParseSkills(in.Skills),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.NewEmailExistsError()
		}
		return fmt.Errorf("アカウントの作成に失敗しました: %w", err)
	}

	slog.Info("アカウントを登録しました",
		slog.String("account_id", account.ID),
		slog.String("role", string(role)),
	)
	return nil
}

// Authenticate はメールアドレスとパスワードを照合し、認証済みの主体を返す。
// 未登録とパスワード不一致はどちらもInvalidCredentialsとして区別しない。
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.Principal, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("アカウントの検索に失敗しました: %w", err)
	}

	if account == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	return &model.Principal{Email: account.Email, Role: account.Role}, nil
}

// GetProfile はパスワードハッシュを除いたプロフィールを返す。
func (s *Service) GetProfile(ctx context.Context, email string) (*model.Profile, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, model.NewAccountNotFoundError()
	}

	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("アカウントの検索に失敗しました: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError()
	}
	return account.Profile(), nil
}

// UpdateProfile は名前と自己紹介を更新する。
// 対象アカウントが存在しない場合はAccountNotFoundを返す。
func (s *Service) UpdateProfile(ctx context.Context, email, name, bio string) error {
	email = normalizeEmail(email)
	if email == "" {
		return model.NewValidationError("Email is required.")
	}

	// JSONで返すため、入力はタグを含めて前後の空白以外そのまま保存する
	found, err := s.repo.UpdateProfile(ctx, email, strings.TrimSpace(name), strings.TrimSpace(bio))
	if err != nil {
		return fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}
	if !found {
		return model.NewAccountNotFoundError()
	}
	return nil
}

// normalizeEmail は照合に使うメールアドレスを正規化する。
// 前後の空白のみ除去し、大文字小文字は保存時の値のまま区別する。
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// ParseSkills はカンマ区切りのスキル文字列を前後の空白を除いたリストに変換する。
// 空要素は含めない。入力が空の場合は空のリストを返す。
func ParseSkills(raw string) []string {
	skills := []string{}
	for _, part := range strings.Split(raw, ",") {
		if skill := strings.TrimSpace(part); skill != "" {
			skills = append(skills, skill)
		}
	}
	return skills
}
