package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/jobportal/internal/model"
)

const jobFeedColumns = `id, feed_url, title, etag, last_modified, fetch_status, consecutive_errors,
	error_message, next_fetch_at, created_at, updated_at`

// PostgresJobFeedRepo はPostgreSQLを使用した求人フィードリポジトリ。
type PostgresJobFeedRepo struct {
	db *sql.DB
}

// NewPostgresJobFeedRepo はPostgresJobFeedRepoを生成する。
func NewPostgresJobFeedRepo(db *sql.DB) *PostgresJobFeedRepo {
	return &PostgresJobFeedRepo{db: db}
}

func scanJobFeed(s rowScanner) (*model.JobFeed, error) {
	feed := &model.JobFeed{}
	var etag, lastModified, errorMessage sql.NullString
	if err := s.Scan(
		&feed.ID, &feed.FeedURL, &feed.Title, &etag, &lastModified, &feed.FetchStatus,
		&feed.ConsecutiveErrors, &errorMessage, &feed.NextFetchAt, &feed.CreatedAt, &feed.UpdatedAt,
	); err != nil {
		return nil, err
	}
	feed.ETag = nullStringValue(etag)
	feed.LastModified = nullStringValue(lastModified)
	feed.ErrorMessage = nullStringValue(errorMessage)
	return feed, nil
}

// EnsureByURL はフィードURLの行を作成し、既存の場合はそのまま返す。
// 停止中のフィードは再開しない。
func (r *PostgresJobFeedRepo) EnsureByURL(ctx context.Context, feedURL string) (*model.JobFeed, error) {
	feed, err := scanJobFeed(r.db.QueryRowContext(ctx,
		`INSERT INTO job_feeds (id, feed_url)
		 VALUES ($1, $2)
		 ON CONFLICT (feed_url) DO UPDATE SET feed_url = EXCLUDED.feed_url
		 RETURNING `+jobFeedColumns,
		uuid.New().String(), feedURL,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to ensure job feed: %w", err)
	}
	return feed, nil
}

// ListDueForFetch はnext_fetch_at <= now() かつ fetch_status = 'active' のフィードを
// next_fetch_atの古い順に返す。
func (r *PostgresJobFeedRepo) ListDueForFetch(ctx context.Context) ([]*model.JobFeed, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobFeedColumns+` FROM job_feeds
		 WHERE next_fetch_at <= now() AND fetch_status = 'active'
		 ORDER BY next_fetch_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list due job feeds: %w", err)
	}
	defer rows.Close()

	var feeds []*model.JobFeed
	for rows.Next() {
		feed, err := scanJobFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job feed: %w", err)
		}
		feeds = append(feeds, feed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job feeds: %w", err)
	}
	return feeds, nil
}

// UpdateFetchState はフィードのフェッチ状態を更新する。
func (r *PostgresJobFeedRepo) UpdateFetchState(ctx context.Context, feed *model.JobFeed) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE job_feeds SET
		    title = $2,
		    fetch_status = $3,
		    consecutive_errors = $4,
		    error_message = $5,
		    next_fetch_at = $6,
		    etag = $7,
		    last_modified = $8,
		    updated_at = now()
		 WHERE id = $1`,
		feed.ID,
		feed.Title,
		feed.FetchStatus,
		feed.ConsecutiveErrors,
		nullString(feed.ErrorMessage),
		feed.NextFetchAt,
		nullString(feed.ETag),
		nullString(feed.LastModified),
	)
	if err != nil {
		return fmt.Errorf("failed to update job feed fetch state: %w", err)
	}
	return nil
}

// compile-time interface check
var _ JobFeedRepository = (*PostgresJobFeedRepo)(nil)
