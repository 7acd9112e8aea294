package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/jobportal/internal/application"
	"github.com/hitoshi/jobportal/internal/metrics"
	"github.com/hitoshi/jobportal/internal/middleware"
	"github.com/hitoshi/jobportal/internal/model"
)

// ApplicationServiceInterface は応募ハンドラーが必要とするサービスインターフェース。
type ApplicationServiceInterface interface {
	Submit(ctx context.Context, in application.SubmitInput) (string, error)
	AppliedJobIDs(ctx context.Context, applicantEmail string) ([]string, error)
	ListAll(ctx context.Context) ([]*model.Application, error)
	ListForApplicant(ctx context.Context, applicantEmail string) ([]*model.Application, error)
	Get(ctx context.Context, applicationID string) (*model.Application, error)
	Remove(ctx context.Context, applicationID string) error
	SetStatus(ctx context.Context, applicationID string, status model.ApplicationStatus) error
}

// ApplicationHandler は応募管理のHTTPハンドラー。
type ApplicationHandler struct {
	service ApplicationServiceInterface
	metrics metrics.DomainRecorder
}

// NewApplicationHandler はApplicationHandlerを生成する。
func NewApplicationHandler(service ApplicationServiceInterface, recorder metrics.DomainRecorder) *ApplicationHandler {
	return &ApplicationHandler{service: service, metrics: recorder}
}

type applyRequest struct {
	JobID          string `json:"jobId"`
	JobTitle       string `json:"jobTitle"`
	JobCompany     string `json:"jobCompany"`
	ApplicantName  string `json:"applicantName"`
	ApplicantEmail string `json:"applicantEmail"`
}

type applyResponse struct {
	Message string `json:"message"`
	ID      string `json:"_id"`
}

type appliedJobsResponse struct {
	JobIDs []string `json:"jobIds"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type applicationResponse struct {
	ID             string    `json:"_id"`
	JobID          string    `json:"jobId"`
	JobTitle       string    `json:"jobTitle"`
	JobCompany     string    `json:"jobCompany"`
	ApplicantName  string    `json:"applicantName"`
	ApplicantEmail string    `json:"applicantEmail"`
	Status         string    `json:"status"`
	DateApplied    time.Time `json:"dateApplied"`
}

// Apply は求人への応募を受け付ける。
// 応募者メールアドレスは認証主体と一致している必要がある（管理者は代理応募可）。
// POST /apply
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !requirePrincipalFor(w, r, strings.TrimSpace(req.ApplicantEmail)) {
		return
	}

	id, err := h.service.Submit(r.Context(), application.SubmitInput{
		JobID:          req.JobID,
		JobTitle:       req.JobTitle,
		JobCompany:     req.JobCompany,
		ApplicantName:  req.ApplicantName,
		ApplicantEmail: req.ApplicantEmail,
	})
	if err != nil {
		handleServiceError(w, r, err, "Error submitting application")
		return
	}

	h.metrics.RecordApplicationSubmitted()
	writeJSON(w, http.StatusCreated, applyResponse{
		Message: "Application submitted successfully!",
		ID:      id,
	})
}

// AppliedJobs は応募者が応募済みの求人IDを返す。
// GET /appliedJobs?email=
func (h *ApplicationHandler) AppliedJobs(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError("Email is required."))
		return
	}

	ids, err := h.service.AppliedJobIDs(r.Context(), email)
	if err != nil {
		handleServiceError(w, r, err, "Error fetching applied jobs")
		return
	}
	writeJSON(w, http.StatusOK, appliedJobsResponse{JobIDs: ids})
}

// ListAll は全応募を返す。
// GET /applications
func (h *ApplicationHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	apps, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "Error fetching applications")
		return
	}
	writeJSON(w, http.StatusOK, toApplicationResponses(apps))
}

// ListForApplicant は応募者ごとの応募を返す。
// GET /applications/{email}
func (h *ApplicationHandler) ListForApplicant(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	apps, err := h.service.ListForApplicant(r.Context(), email)
	if err != nil {
		handleServiceError(w, r, err, "Error fetching user applications")
		return
	}
	writeJSON(w, http.StatusOK, toApplicationResponses(apps))
}

// Remove は応募を取り下げる。管理者または応募者本人のみ実行できる。
// 存在しない応募の削除は成功として扱う。
// DELETE /applications/{id}
func (h *ApplicationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	app, err := h.service.Get(r.Context(), id)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeApplicationNotFound {
			writeMessage(w, http.StatusOK, "Application removed")
			return
		}
		handleServiceError(w, r, err, "Error deleting application")
		return
	}
	if !requirePrincipalFor(w, r, app.ApplicantEmail) {
		return
	}

	if err := h.service.Remove(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "Error deleting application")
		return
	}
	writeMessage(w, http.StatusOK, "Application removed")
}

// SetStatus は選考状態を更新する。ルーティングで管理者に限定する。
// PATCH /applications/{id}
func (h *ApplicationHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status := model.ApplicationStatus(strings.TrimSpace(req.Status))
	if err := h.service.SetStatus(r.Context(), chi.URLParam(r, "id"), status); err != nil {
		handleServiceError(w, r, err, "Error updating status")
		return
	}
	writeMessage(w, http.StatusOK, "Application status updated")
}

func toApplicationResponses(apps []*model.Application) []applicationResponse {
	out := make([]applicationResponse, len(apps))
	for i, a := range apps {
		out[i] = applicationResponse{
			ID:             a.ID,
			JobID:          a.JobID,
			JobTitle:       a.JobTitle,
			JobCompany:     a.JobCompany,
			ApplicantName:  a.ApplicantName,
			ApplicantEmail: a.ApplicantEmail,
			Status:         string(a.Status),
			DateApplied:    a.DateApplied,
		}
	}
	return out
}
