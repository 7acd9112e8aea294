package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/jobportal/internal/account"
	"github.com/hitoshi/jobportal/internal/metrics"
	"github.com/hitoshi/jobportal/internal/middleware"
	"github.com/hitoshi/jobportal/internal/model"
)

// AccountServiceInterface はアカウントハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	Register(ctx context.Context, in account.RegisterInput) error
	Authenticate(ctx context.Context, email, password string) (*model.Principal, error)
	GetProfile(ctx context.Context, email string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, email, name, bio string) error
}

// TokenIssuer はログイン成功時にBearerトークンを発行する。
type TokenIssuer interface {
	Issue(email string, role model.Role) (string, error)
}

// AccountHandler はサインアップ・ログイン・プロフィールのHTTPハンドラー。
type AccountHandler struct {
	service AccountServiceInterface
	tokens  TokenIssuer
	metrics metrics.DomainRecorder
}

// NewAccountHandler はAccountHandlerを生成する。
func NewAccountHandler(service AccountServiceInterface, tokens TokenIssuer, recorder metrics.DomainRecorder) *AccountHandler {
	return &AccountHandler{
		service: service,
		tokens:  tokens,
		metrics: recorder,
	}
}

// skillsField は文字列（カンマ区切り）と文字列配列のどちらでも受け付けるスキル入力。
type skillsField string

// UnmarshalJSON は配列で送られた場合にカンマ区切りの文字列へ連結する。
func (s *skillsField) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = skillsField(strings.Join(list, ","))
		return nil
	}
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw != nil {
		*s = skillsField(*raw)
	}
	return nil
}

type signupRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     string      `json:"role"`
	Location string      `json:"location"`
	Skills   skillsField `json:"skills"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	Role    string `json:"role"`
	Email   string `json:"email"`
	Token   string `json:"token"`
}

type updateProfileRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Bio   string `json:"bio"`
}

// profileResponse はパスワードハッシュを含まないアカウント情報。
type profileResponse struct {
	ID       string   `json:"_id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Role     string   `json:"role"`
	Location string   `json:"location"`
	Skills   []string `json:"skills"`
	Bio      string   `json:"bio"`
}

// Signup はアカウント登録を処理する。
// POST /signup
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.service.Register(r.Context(), account.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
		Location: req.Location,
		Skills:   string(req.Skills),
	})
	if err != nil {
		handleServiceError(w, r, err, "Server error during signup")
		return
	}

	h.metrics.RecordSignup()
	writeMessage(w, http.StatusCreated, "Account created successfully!")
}

// Login は資格情報を検証し、Bearerトークンを発行する。
// POST /login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	principal, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.RecordLogin(false)
		handleServiceError(w, r, err, "Server error during login")
		return
	}

	token, err := h.tokens.Issue(principal.Email, principal.Role)
	if err != nil {
		h.metrics.RecordLogin(false)
		handleServiceError(w, r, err, "Server error during login")
		return
	}

	h.metrics.RecordLogin(true)
	slog.Info("login succeeded", slog.String("email", principal.Email))
	writeJSON(w, http.StatusOK, loginResponse{
		Message: "Login successful",
		Role:    string(principal.Role),
		Email:   principal.Email,
		Token:   token,
	})
}

// GetProfile はプロフィールを返す。
// GET /profile/{email}
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), email)
	if err != nil {
		handleServiceError(w, r, err, "Error fetching profile")
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

// UpdateProfile は名前と自己紹介を更新する。
// 本人のトークンでのみ更新できる。
// PATCH /update-profile
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}
	if p.Email != req.Email {
		middleware.WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
		return
	}

	if err := h.service.UpdateProfile(r.Context(), req.Email, req.Name, req.Bio); err != nil {
		handleServiceError(w, r, err, "Error updating profile")
		return
	}
	writeMessage(w, http.StatusOK, "Profile updated successfully")
}

func toProfileResponse(p *model.Profile) profileResponse {
	return profileResponse{
		ID:       p.ID,
		Name:     p.Name,
		Email:    p.Email,
		Role:     string(p.Role),
		Location: p.Location,
		Skills:   p.Skills,
		Bio:      p.Bio,
	}
}
