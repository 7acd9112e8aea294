// Package model はドメインモデルを定義する。
package model

import "time"

// Role はアカウントの役割を表す。
type Role string

const (
	// RoleJobSeeker は求職者アカウント。
	RoleJobSeeker Role = "jobseeker"
	// RoleAdmin は管理者アカウント。
	RoleAdmin Role = "admin"
)

// Valid は役割が定義済みの値かどうかを返す。
func (r Role) Valid() bool {
	switch r {
	case RoleJobSeeker, RoleAdmin:
		return true
	default:
		return false
	}
}

// Account は登録済みのユーザーアカウントを表す。
// メールアドレスが一意な識別子として全体の検索キーになる。
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // bcryptハッシュ。レスポンスには含めない
	Role         Role
	Location     string
	Skills       []string
	Bio          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile はパスワードハッシュを除いたアカウント情報を表す。
type Profile struct {
	ID       string
	Name     string
	Email    string
	Role     Role
	Location string
	Skills   []string
	Bio      string
}

// Profile はアカウントから資格情報を除いたプロフィールを返す。
func (a *Account) Profile() *Profile {
	skills := a.Skills
	if skills == nil {
		skills = []string{}
	}
	return &Profile{
		ID:       a.ID,
		Name:     a.Name,
		Email:    a.Email,
		Role:     a.Role,
		Location: a.Location,
		Skills:   skills,
		Bio:      a.Bio,
	}
}

// Principal は認証済みリクエストの主体を表す。
type Principal struct {
	Email string
	Role  Role
}

// IsAdmin は主体が管理者かどうかを返す。
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// CanActAs は主体が指定メールアドレスのアカウントとして操作できるかを返す。
// 本人または管理者のみ許可する。
func (p *Principal) CanActAs(email string) bool {
	if p == nil {
		return false
	}
	return p.IsAdmin() || p.Email == email
}
