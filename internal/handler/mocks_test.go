package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/jobportal/internal/account"
	"github.com/hitoshi/jobportal/internal/application"
	"github.com/hitoshi/jobportal/internal/middleware"
	"github.com/hitoshi/jobportal/internal/model"
)

// --- サービスのモック ---

type mockAccountService struct {
	registerFn      func(ctx context.Context, in account.RegisterInput) error
	authenticateFn  func(ctx context.Context, email, password string) (*model.Principal, error)
	getProfileFn    func(ctx context.Context, email string) (*model.Profile, error)
	updateProfileFn func(ctx context.Context, email, name, bio string) error
}

func (m *mockAccountService) Register(ctx context.Context, in account.RegisterInput) error {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return nil
}

func (m *mockAccountService) Authenticate(ctx context.Context, email, password string) (*model.Principal, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, email, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockAccountService) GetProfile(ctx context.Context, email string) (*model.Profile, error) {
	if m.getProfileFn != nil {
		return m.getProfileFn(ctx, email)
	}
	return nil, model.NewAccountNotFoundError()
}

func (m *mockAccountService) UpdateProfile(ctx context.Context, email, name, bio string) error {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, email, name, bio)
	}
	return nil
}

type mockApplicationService struct {
	submitFn           func(ctx context.Context, in application.SubmitInput) (string, error)
	appliedJobIDsFn    func(ctx context.Context, email string) ([]string, error)
	listAllFn          func(ctx context.Context) ([]*model.Application, error)
	listForApplicantFn func(ctx context.Context, email string) ([]*model.Application, error)
	getFn              func(ctx context.Context, id string) (*model.Application, error)
	removeFn           func(ctx context.Context, id string) error
	setStatusFn        func(ctx context.Context, id string, status model.ApplicationStatus) error
}

func (m *mockApplicationService) Submit(ctx context.Context, in application.SubmitInput) (string, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, in)
	}
	return "", nil
}

func (m *mockApplicationService) AppliedJobIDs(ctx context.Context, email string) ([]string, error) {
	if m.appliedJobIDsFn != nil {
		return m.appliedJobIDsFn(ctx, email)
	}
	return []string{}, nil
}

func (m *mockApplicationService) ListAll(ctx context.Context) ([]*model.Application, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return []*model.Application{}, nil
}

func (m *mockApplicationService) ListForApplicant(ctx context.Context, email string) ([]*model.Application, error) {
	if m.listForApplicantFn != nil {
		return m.listForApplicantFn(ctx, email)
	}
	return []*model.Application{}, nil
}

func (m *mockApplicationService) Get(ctx context.Context, id string) (*model.Application, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewApplicationNotFoundError(id)
}

func (m *mockApplicationService) Remove(ctx context.Context, id string) error {
	if m.removeFn != nil {
		return m.removeFn(ctx, id)
	}
	return nil
}

func (m *mockApplicationService) SetStatus(ctx context.Context, id string, status model.ApplicationStatus) error {
	if m.setStatusFn != nil {
		return m.setStatusFn(ctx, id, status)
	}
	return nil
}

type mockJobService struct {
	listFn   func(ctx context.Context, filter model.JobFilter) ([]*model.Job, error)
	getFn    func(ctx context.Context, id string) (*model.Job, error)
	createFn func(ctx context.Context, in *model.Job) (*model.Job, error)
	updateFn func(ctx context.Context, id string, in *model.Job) (*model.Job, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockJobService) List(ctx context.Context, filter model.JobFilter) ([]*model.Job, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return []*model.Job{}, nil
}

func (m *mockJobService) Get(ctx context.Context, id string) (*model.Job, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewJobNotFoundError(id)
}

func (m *mockJobService) Create(ctx context.Context, in *model.Job) (*model.Job, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return in, nil
}

func (m *mockJobService) Update(ctx context.Context, id string, in *model.Job) (*model.Job, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return in, nil
}

func (m *mockJobService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- 認証・メトリクスのモック ---

// mockTokens は "token-<email>" 形式のトークンを発行・検証する。
type mockTokens struct {
	roles    map[string]model.Role
	issueErr error
}

func (m *mockTokens) Issue(email string, role model.Role) (string, error) {
	if m.issueErr != nil {
		return "", m.issueErr
	}
	return "token-" + email, nil
}

func (m *mockTokens) Verify(token string) (*model.Principal, error) {
	email, ok := strings.CutPrefix(token, "token-")
	if !ok {
		return nil, errors.New("invalid token")
	}
	role, ok := m.roles[email]
	if !ok {
		role = model.RoleJobSeeker
	}
	return &model.Principal{Email: email, Role: role}, nil
}

type mockDomainRecorder struct {
	signups      int
	logins       map[bool]int
	applications int
}

func newMockDomainRecorder() *mockDomainRecorder {
	return &mockDomainRecorder{logins: map[bool]int{}}
}

func (m *mockDomainRecorder) RecordSignup()               { m.signups++ }
func (m *mockDomainRecorder) RecordLogin(success bool)    { m.logins[success]++ }
func (m *mockDomainRecorder) RecordApplicationSubmitted() { m.applications++ }

type noopHTTPRecorder struct{}

func (noopHTTPRecorder) RecordHTTPRequest(string, string, int, time.Duration) {}

type mockPinger struct{ err error }

func (m mockPinger) PingContext(context.Context) error { return m.err }

// --- テストヘルパー ---

// testDeps はテスト用のRouterDepsを生成する。サービスは呼び出し側で差し替える。
func testDeps(t *testing.T) *RouterDeps {
	t.Helper()
	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(rl.Stop)

	tokens := &mockTokens{roles: map[string]model.Role{"admin@example.com": model.RoleAdmin}}
	return &RouterDeps{
		Logger:             slog.New(slog.NewJSONHandler(io.Discard, nil)),
		CORSAllowedOrigin:  "http://localhost:5173",
		RateLimiter:        rl,
		TokenVerifier:      tokens,
		TokenIssuer:        tokens,
		AccountService:     &mockAccountService{},
		ApplicationService: &mockApplicationService{},
		JobService:         &mockJobService{},
		HTTPMetrics:        noopHTTPRecorder{},
		DomainMetrics:      newMockDomainRecorder(),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# metrics\n"))
		}),
		HealthChecker: mockPinger{},
	}
}

// doRequest はルーター経由でリクエストを実行する。asEmailが空でなければBearerトークンを付与する。
func doRequest(t *testing.T, deps *RouterDeps, method, path string, body any, asEmail string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if asEmail != "" {
		req.Header.Set("Authorization", "Bearer token-"+asEmail)
	}

	w := httptest.NewRecorder()
	NewRouter(deps).ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response: %v\nbody: %s", err, w.Body.String())
	}
	return v
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d\nbody: %s", w.Code, want, w.Body.String())
	}
}

func assertMessage(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	body := decodeBody[map[string]any](t, w)
	if body["message"] != want {
		t.Errorf("message = %v, want %q", body["message"], want)
	}
}
