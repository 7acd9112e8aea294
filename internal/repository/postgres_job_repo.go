package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/jobportal/internal/model"
)

const jobColumns = `id, title, company, location, salary, type, industry, status, image, apply_url,
	description, requirements, source, source_feed_id, guid, created_at, updated_at`

// PostgresJobRepo はPostgreSQLを使用した求人リポジトリ。
type PostgresJobRepo struct {
	db *sql.DB
}

// NewPostgresJobRepo はPostgresJobRepoを生成する。
func NewPostgresJobRepo(db *sql.DB) *PostgresJobRepo {
	return &PostgresJobRepo{db: db}
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(s rowScanner) (*model.Job, error) {
	job := &model.Job{}
	var requirements pq.StringArray
	var sourceFeedID, guid sql.NullString
	if err := s.Scan(
		&job.ID, &job.Title, &job.Company, &job.Location, &job.Salary, &job.Type,
		&job.Industry, &job.Status, &job.Image, &job.ApplyURL, &job.Description,
		&requirements, &job.Source, &sourceFeedID, &guid, &job.CreatedAt, &job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.Requirements = []string(requirements)
	if job.Requirements == nil {
		job.Requirements = []string{}
	}
	job.SourceFeedID = nullStringValue(sourceFeedID)
	job.GUID = nullStringValue(guid)
	return job, nil
}

// FindByID は指定IDの求人を取得する。見つからない場合はnilを返す。
func (r *PostgresJobRepo) FindByID(ctx context.Context, id string) (*model.Job, error) {
	job, err := scanJob(r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job by ID: %w", err)
	}
	return job, nil
}

// List は絞り込み条件に一致する求人を作成日時の新しい順に返す。
// 空文字の条件は無視する。
func (r *PostgresJobRepo) List(ctx context.Context, filter model.JobFilter) ([]*model.Job, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE ($1::text = '' OR type = $1)
		   AND ($2::text = '' OR location = $2)
		   AND ($3::text = '' OR industry = $3)
		 ORDER BY created_at DESC, id ASC`,
		filter.Type, filter.Location, filter.Industry,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*model.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}
	return jobs, nil
}

// Create は求人を作成する。IDが重複する場合はErrDuplicateを返す。
func (r *PostgresJobRepo) Create(ctx context.Context, job *model.Job) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		job.ID, job.Title, job.Company, job.Location, job.Salary, job.Type, job.Industry,
		job.Status, job.Image, job.ApplyURL, job.Description, pq.Array(requirementsOrEmpty(job.Requirements)),
		job.Source, nullString(job.SourceFeedID), nullString(job.GUID), job.CreatedAt, job.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// Update は求人の編集可能な項目を上書き更新する。対象が存在しない場合はfalseを返す。
func (r *PostgresJobRepo) Update(ctx context.Context, job *model.Job) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET
		    title = $2, company = $3, location = $4, salary = $5, type = $6,
		    industry = $7, status = $8, image = $9, apply_url = $10,
		    description = $11, requirements = $12, updated_at = $13
		 WHERE id = $1`,
		job.ID, job.Title, job.Company, job.Location, job.Salary, job.Type,
		job.Industry, job.Status, job.Image, job.ApplyURL,
		job.Description, pq.Array(requirementsOrEmpty(job.Requirements)), job.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update job: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete は指定IDの求人を削除する。存在しない場合もエラーにしない。
func (r *PostgresJobRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

// UpsertFromFeed はフィード由来の求人を (source_feed_id, guid) をキーに作成または更新する。
// 新規作成の場合はtrueを返す。既存行のIDと作成日時は維持する。
func (r *PostgresJobRepo) UpsertFromFeed(ctx context.Context, job *model.Job) (bool, error) {
	var inserted bool
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'feed', $13, $14, $15, $15)
		 ON CONFLICT (source_feed_id, guid) WHERE guid IS NOT NULL DO UPDATE SET
		    title = EXCLUDED.title,
		    company = EXCLUDED.company,
		    apply_url = EXCLUDED.apply_url,
		    description = EXCLUDED.description,
		    requirements = EXCLUDED.requirements,
		    updated_at = EXCLUDED.updated_at
		 RETURNING (xmax = 0)`,
		job.ID, job.Title, job.Company, job.Location, job.Salary, job.Type, job.Industry,
		job.Status, job.Image, job.ApplyURL, job.Description, pq.Array(requirementsOrEmpty(job.Requirements)),
		job.SourceFeedID, job.GUID, job.UpdatedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert feed job: %w", err)
	}
	return inserted, nil
}

// DeleteStaleFeedJobs はolderThanより前から更新されていないフィード由来の求人を削除する。
func (r *PostgresJobRepo) DeleteStaleFeedJobs(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE source = 'feed' AND updated_at < $1`,
		olderThan,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale feed jobs: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

func requirementsOrEmpty(reqs []string) []string {
	if reqs == nil {
		return []string{}
	}
	return reqs
}

// compile-time interface check
var _ JobRepository = (*PostgresJobRepo)(nil)
