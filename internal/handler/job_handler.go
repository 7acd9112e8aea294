package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/jobportal/internal/model"
)

// JobServiceInterface は求人ハンドラーが必要とするサービスインターフェース。
type JobServiceInterface interface {
	List(ctx context.Context, filter model.JobFilter) ([]*model.Job, error)
	Get(ctx context.Context, id string) (*model.Job, error)
	Create(ctx context.Context, in *model.Job) (*model.Job, error)
	Update(ctx context.Context, id string, in *model.Job) (*model.Job, error)
	Delete(ctx context.Context, id string) error
}

// JobHandler は求人カタログのHTTPハンドラー。
type JobHandler struct {
	service JobServiceInterface
}

// NewJobHandler はJobHandlerを生成する。
func NewJobHandler(service JobServiceInterface) *JobHandler {
	return &JobHandler{service: service}
}

// jobRequest は求人の作成・更新リクエストのボディ。
type jobRequest struct {
	ID           string   `json:"_id"`
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location"`
	Salary       string   `json:"salary"`
	Type         string   `json:"type"`
	Industry     string   `json:"industry"`
	Status       string   `json:"status"`
	Image        string   `json:"image"`
	ApplyURL     string   `json:"applyUrl"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
}

type jobResponse struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Location     string    `json:"location"`
	Salary       string    `json:"salary"`
	Type         string    `json:"type"`
	Industry     string    `json:"industry"`
	Status       string    `json:"status"`
	Image        string    `json:"image"`
	ApplyURL     string    `json:"applyUrl,omitempty"`
	Description  string    `json:"description"`
	Requirements []string  `json:"requirements"`
	Source       string    `json:"source"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// List は求人一覧を返す。type, location, industryで絞り込める。
// GET /jobs
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jobs, err := h.service.List(r.Context(), model.JobFilter{
		Type:     q.Get("type"),
		Location: q.Get("location"),
		Industry: q.Get("industry"),
	})
	if err != nil {
		handleServiceError(w, r, err, "Error fetching jobs")
		return
	}

	out := make([]jobResponse, len(jobs))
	for i, j := range jobs {
		out[i] = toJobResponse(j)
	}
	writeJSON(w, http.StatusOK, out)
}

// Get は求人詳細を返す。
// GET /jobs/{id}
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err, "Error fetching job")
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

// Create は求人を登録する。
// POST /jobs
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	job, err := h.service.Create(r.Context(), req.toModel())
	if err != nil {
		handleServiceError(w, r, err, "Error creating job")
		return
	}
	writeJSON(w, http.StatusCreated, toJobResponse(job))
}

// Update は求人を更新する。
// PATCH /jobs/{id}
func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	job, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req.toModel())
	if err != nil {
		handleServiceError(w, r, err, "Error updating job")
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

// Delete は求人を削除する。
// DELETE /jobs/{id}
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err, "Error deleting job")
		return
	}
	writeMessage(w, http.StatusOK, "Job removed")
}

func (req *jobRequest) toModel() *model.Job {
	return &model.Job{
		ID:           req.ID,
		Title:        req.Title,
		Company:      req.Company,
		Location:     req.Location,
		Salary:       req.Salary,
		Type:         req.Type,
		Industry:     req.Industry,
		Status:       model.JobStatus(req.Status),
		Image:        req.Image,
		ApplyURL:     req.ApplyURL,
		Description:  req.Description,
		Requirements: req.Requirements,
	}
}

func toJobResponse(j *model.Job) jobResponse {
	reqs := j.Requirements
	if reqs == nil {
		reqs = []string{}
	}
	return jobResponse{
		ID:           j.ID,
		Title:        j.Title,
		Company:      j.Company,
		Location:     j.Location,
		Salary:       j.Salary,
		Type:         j.Type,
		Industry:     j.Industry,
		Status:       string(j.Status),
		Image:        j.Image,
		ApplyURL:     j.ApplyURL,
		Description:  j.Description,
		Requirements: reqs,
		Source:       string(j.Source),
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}
