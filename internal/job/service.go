// Package job は求人カタログの参照と管理者による編集を提供する。
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/jobportal/internal/model"
	"github.com/hitoshi/jobportal/internal/repository"
)

// Sanitizer は求人の文字列項目を無害化する。
type Sanitizer interface {
	Text(raw string) string
	HTML(raw string) string
}

// Service は求人カタログのサービス層。
type Service struct {
	repo      repository.JobRepository
	sanitizer Sanitizer
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.JobRepository, sanitizer Sanitizer) *Service {
	return &Service{repo: repo, sanitizer: sanitizer, now: time.Now}
}

// List は絞り込み条件に一致する求人を返す。
func (s *Service) List(ctx context.Context, filter model.JobFilter) ([]*model.Job, error) {
	filter.Type = strings.TrimSpace(filter.Type)
	filter.Location = strings.TrimSpace(filter.Location)
	filter.Industry = strings.TrimSpace(filter.Industry)

	jobs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("求人一覧の取得に失敗しました: %w", err)
	}
	return jobs, nil
}

// Get は指定IDの求人を返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if job == nil {
		return nil, model.NewJobNotFoundError(id)
	}
	return job, nil
}

// Create は手動登録の求人を作成する。IDが空の場合はUUIDを採番する。
func (s *Service) Create(ctx context.Context, in *model.Job) (*model.Job, error) {
	job, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	job.ID = strings.TrimSpace(in.ID)
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	job.Source = model.JobSourceManual
	now := s.now()
	job.CreatedAt = now
	job.UpdatedAt = now

	if err := s.repo.Create(ctx, job); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewValidationError(fmt.Sprintf("Job ID already exists: %s", job.ID))
		}
		return nil, fmt.Errorf("求人の作成に失敗しました: %w", err)
	}

	slog.Info("求人を登録しました", slog.String("job_id", job.ID))
	return job, nil
}

// Update は既存の求人を上書き更新する。
func (s *Service) Update(ctx context.Context, id string, in *model.Job) (*model.Job, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	job, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	job.ID = current.ID
	job.Source = current.Source
	job.SourceFeedID = current.SourceFeedID
	job.GUID = current.GUID
	job.CreatedAt = current.CreatedAt
	job.UpdatedAt = s.now()

	found, err := s.repo.Update(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("求人の更新に失敗しました: %w", err)
	}
	if !found {
		return nil, model.NewJobNotFoundError(id)
	}
	return job, nil
}

// Delete は求人を削除する。存在しない場合も成功とする。
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("求人の削除に失敗しました: %w", err)
	}
	return nil
}

// normalize は入力を検証し、サニタイズ済みのコピーを返す。
func (s *Service) normalize(in *model.Job) (*model.Job, error) {
	if in == nil {
		return nil, model.NewValidationError("Job is required.")
	}

	job := &model.Job{
		Title:       s.sanitizer.Text(in.Title),
		Company:     s.sanitizer.Text(in.Company),
		Location:    s.sanitizer.Text(in.Location),
		Salary:      s.sanitizer.Text(in.Salary),
		Type:        s.sanitizer.Text(in.Type),
		Industry:    s.sanitizer.Text(in.Industry),
		Status:      in.Status,
		Image:       strings.TrimSpace(in.Image),
		ApplyURL:    strings.TrimSpace(in.ApplyURL),
		Description: s.sanitizer.HTML(in.Description),
	}

	if job.Title == "" {
		return nil, model.NewValidationError("Title is required.")
	}
	if job.Company == "" {
		return nil, model.NewValidationError("Company is required.")
	}
	if job.Status == "" {
		job.Status = model.JobStatusOpen
	}
	if !job.Status.Valid() {
		return nil, model.NewValidationError(fmt.Sprintf("Invalid job status: %s", job.Status))
	}

	job.Requirements = []string{}
	for _, r := range in.Requirements {
		if r = s.sanitizer.Text(r); r != "" {
			job.Requirements = append(job.Requirements, r)
		}
	}
	return job, nil
}
