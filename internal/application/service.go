// Package application は求人への応募と選考状態管理のドメインロジックを提供する。
package application

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

// SubmitInput は応募の入力値。JobTitle と JobCompany は応募時点の求人情報。
type SubmitInput struct {
	JobID          string
	JobTitle       string
	JobCompany     string
	ApplicantName  string
	ApplicantEmail string
}

// Service は応募管理のサービス層。
type Service struct {
	repo repository.ApplicationRepository
	now  func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.ApplicationRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Submit は応募を作成し、そのIDを返す。
// 同一求人・同一応募者の応募が既にある場合はDuplicateApplicationを返す。
func (s *Service) Submit(ctx context.Context, in SubmitInput) (string, error) {
	jobID := strings.TrimSpace(in.JobID)
	email := strings.TrimSpace(in.ApplicantEmail)
	if jobID == "" {
		return "", model.NewValidationError("Job ID is required.")
	}
	if email == "" {
		return "", model.NewValidationError("Email is required.")
	}

	exists, err := s.repo.ExistsForJobAndApplicant(ctx, jobID, email)
	if err != nil {
		return "", fmt.Errorf("既存応募の確認に失敗しました: %w", err)
	}
	if exists {
		return "", model.NewDuplicateApplicationError()
	}

	app := &model.Application{
		ID:             uuid.New().String(),
		JobID:          jobID,
		JobTitle:       in.JobTitle,
		JobCompany:     in.JobCompany,
		ApplicantName:  in.ApplicantName,
		ApplicantEmail: email,
		Status:         model.ApplicationStatusPending,
		DateApplied:    s.now(),
	}

	if err := s.repo.Create(ctx, app); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", model.NewDuplicateApplicationError()
		}
		return "", fmt.Errorf("応募の作成に失敗しました: %w", err)
	}

	slog.Info("応募を受け付けました",
		slog.String("application_id", app.ID),
		slog.String("job_id", jobID),
	)
	return app.ID, nil
}

// AppliedJobIDs は応募者が応募済みの求人IDを返す。応募がない場合は空のリストを返す。
func (s *Service) AppliedJobIDs(ctx context.Context, applicantEmail string) ([]string, error) {
	if strings.TrimSpace(applicantEmail) == "" {
		return nil, model.NewValidationError("Email is required.")
	}

	ids, err := s.repo.ListJobIDsByApplicant(ctx, applicantEmail)
	if err != nil {
		return nil, fmt.Errorf("応募済み求人IDの取得に失敗しました: %w", err)
	}
	return ids, nil
}

// ListAll は全応募を新しい順に返す。
func (s *Service) ListAll(ctx context.Context) ([]*model.Application, error) {
	apps, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("応募一覧の取得に失敗しました: %w", err)
	}
	return apps, nil
}

// ListForApplicant は応募者の全応募を返す。応募がない場合は空のリストを返す。
func (s *Service) ListForApplicant(ctx context.Context, applicantEmail string) ([]*model.Application, error) {
	apps, err := s.repo.ListByApplicant(ctx, applicantEmail)
	if err != nil {
		return nil, fmt.Errorf("応募者の応募一覧の取得に失敗しました: %w", err)
	}
	return apps, nil
}

// Get は指定IDの応募を返す。
// IDがUUIDとして不正な場合も存在しない場合と同じくApplicationNotFoundを返す。
func (s *Service) Get(ctx context.Context, applicationID string) (*model.Application, error) {
	if !isApplicationID(applicationID) {
		return nil, model.NewApplicationNotFoundError(applicationID)
	}

	app, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	if app == nil {
		return nil, model.NewApplicationNotFoundError(applicationID)
	}
	return app, nil
}

// Remove は応募を削除する。存在しないIDや不正なIDでも成功として扱う。
func (s *Service) Remove(ctx context.Context, applicationID string) error {
	if !isApplicationID(applicationID) {
		return nil
	}

	if err := s.repo.Delete(ctx, applicationID); err != nil {
		return fmt.Errorf("応募の削除に失敗しました: %w", err)
	}
	return nil
}

// SetStatus は応募の選考状態を上書きする。
// 未定義の状態はValidationErrorとし、存在しないIDは何もせず成功とする。
func (s *Service) SetStatus(ctx context.Context, applicationID string, status model.ApplicationStatus) error {
	if !status.Valid() {
		return model.NewValidationError(fmt.Sprintf("Invalid status: %s", status))
	}
	if !isApplicationID(applicationID) {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, applicationID, status); err != nil {
		return fmt.Errorf("選考状態の更新に失敗しました: %w", err)
	}

	slog.Info("選考状態を更新しました",
		slog.String("application_id", applicationID),
		slog.String("status", string(status)),
	)
	return nil
}

func isApplicationID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
