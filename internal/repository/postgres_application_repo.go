package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/jobportal/internal/model"
)

const applicationColumns = `id, job_id, job_title, job_company, applicant_name, applicant_email, status, date_applied`

// PostgresApplicationRepo はPostgreSQLを使用した応募リポジトリ。
type PostgresApplicationRepo struct {
	db *sql.DB
}

// NewPostgresApplicationRepo はPostgresApplicationRepoを生成する。
func NewPostgresApplicationRepo(db *sql.DB) *PostgresApplicationRepo {
	return &PostgresApplicationRepo{db: db}
}

// FindByID は指定IDの応募を取得する。見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	app := &model.Application{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`,
		id,
	).Scan(
		&app.ID, &app.JobID, &app.JobTitle, &app.JobCompany,
		&app.ApplicantName, &app.ApplicantEmail, &app.Status, &app.DateApplied,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find application by ID: %w", err)
	}
	return app, nil
}

// ExistsForJobAndApplicant は同一求人・同一応募者の応募が存在するかを返す。
func (r *PostgresApplicationRepo) ExistsForJobAndApplicant(ctx context.Context, jobID, applicantEmail string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE job_id = $1 AND applicant_email = $2)`,
		jobID, applicantEmail,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existing application: %w", err)
	}
	return exists, nil
}

// Create は応募を作成する。(job_id, applicant_email) が重複する場合はErrDuplicateを返す。
func (r *PostgresApplicationRepo) Create(ctx context.Context, app *model.Application) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (`+applicationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		app.ID, app.JobID, app.JobTitle, app.JobCompany,
		app.ApplicantName, app.ApplicantEmail, app.Status, app.DateApplied,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}
	return nil
}

// ListJobIDsByApplicant は応募者が応募した求人IDを応募日時の新しい順に返す。
func (r *PostgresApplicationRepo) ListJobIDsByApplicant(ctx context.Context, applicantEmail string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT job_id FROM applications WHERE applicant_email = $1 ORDER BY date_applied DESC`,
		applicantEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applied job IDs: %w", err)
	}
	defer rows.Close()

	jobIDs := []string{}
	for rows.Next() {
		var jobID string
		if err := rows.Scan(&jobID); err != nil {
			return nil, fmt.Errorf("failed to scan applied job ID: %w", err)
		}
		jobIDs = append(jobIDs, jobID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applied job IDs: %w", err)
	}
	return jobIDs, nil
}

// ListAll は全応募を応募日時の新しい順に返す。
func (r *PostgresApplicationRepo) ListAll(ctx context.Context) ([]*model.Application, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications ORDER BY date_applied DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	return scanApplications(rows)
}

// ListByApplicant は応募者の全応募を応募日時の新しい順に返す。
func (r *PostgresApplicationRepo) ListByApplicant(ctx context.Context, applicantEmail string) ([]*model.Application, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE applicant_email = $1 ORDER BY date_applied DESC`,
		applicantEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications by applicant: %w", err)
	}
	defer rows.Close()

	return scanApplications(rows)
}

// Delete は指定IDの応募を削除する。存在しない場合もエラーにしない。
func (r *PostgresApplicationRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return nil
}

// UpdateStatus は応募の選考状態を上書きする。存在しない場合もエラーにしない。
func (r *PostgresApplicationRepo) UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status = $2 WHERE id = $1`,
		id, status,
	); err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	return nil
}

// scanApplications は応募行をスライスに読み込む。0件の場合は空スライスを返す。
func scanApplications(rows *sql.Rows) ([]*model.Application, error) {
	apps := []*model.Application{}
	for rows.Next() {
		app := &model.Application{}
		if err := rows.Scan(
			&app.ID, &app.JobID, &app.JobTitle, &app.JobCompany,
			&app.ApplicantName, &app.ApplicantEmail, &app.Status, &app.DateApplied,
		); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}
	return apps, nil
}

// compile-time interface check
var _ ApplicationRepository = (*PostgresApplicationRepo)(nil)
