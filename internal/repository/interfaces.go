// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/jobportal/internal/model"
)

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// FindByEmail はメールアドレスでアカウントを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)

	// Create はアカウントを作成する。メールアドレスが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, account *model.Account) error

	// UpdateProfile は名前と自己紹介を更新する。
	// 対象アカウントが存在しない場合はfalseを返す。
	UpdateProfile(ctx context.Context, email, name, bio string) (bool, error)
}

// ApplicationRepository は応募データの永続化インターフェース。
type ApplicationRepository interface {
	// FindByID は指定IDの応募を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Application, error)

	// ExistsForJobAndApplicant は同一求人・同一応募者の応募が存在するかを返す。
	ExistsForJobAndApplicant(ctx context.Context, jobID, applicantEmail string) (bool, error)

	// Create は応募を作成する。(job_id, applicant_email) が重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, application *model.Application) error

	// ListJobIDsByApplicant は応募者が応募した求人IDを応募日時の新しい順に返す。
	ListJobIDsByApplicant(ctx context.Context, applicantEmail string) ([]string, error)

	// ListAll は全応募を応募日時の新しい順に返す。
	ListAll(ctx context.Context) ([]*model.Application, error)

	// ListByApplicant は応募者の全応募を応募日時の新しい順に返す。
	ListByApplicant(ctx context.Context, applicantEmail string) ([]*model.Application, error)

	// Delete は指定IDの応募を削除する。存在しない場合もエラーにしない。
	Delete(ctx context.Context, id string) error

	// UpdateStatus は応募の選考状態を上書きする。存在しない場合もエラーにしない。
	UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus) error
}

// JobRepository は求人データの永続化インターフェース。
type JobRepository interface {
	// FindByID は指定IDの求人を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Job, error)

	// List は絞り込み条件に一致する求人を作成日時の新しい順に返す。
	List(ctx context.Context, filter model.JobFilter) ([]*model.Job, error)

	// Create は求人を作成する。IDが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, job *model.Job) error

	// Update は求人を上書き更新する。対象が存在しない場合はfalseを返す。
	Update(ctx context.Context, job *model.Job) (bool, error)

	// Delete は指定IDの求人を削除する。存在しない場合もエラーにしない。
	Delete(ctx context.Context, id string) error

	// UpsertFromFeed はフィード由来の求人を (source_feed_id, guid) をキーに作成または更新する。
	// 新規作成の場合はtrueを返す。
	UpsertFromFeed(ctx context.Context, job *model.Job) (bool, error)

	// DeleteStaleFeedJobs はolderThanより前から更新されていないフィード由来の求人を削除し、
	// 削除件数を返す。手動登録の求人は対象外。
	DeleteStaleFeedJobs(ctx context.Context, olderThan time.Time) (int64, error)
}

// JobFeedRepository は求人フィードの永続化インターフェース。
type JobFeedRepository interface {
	// EnsureByURL はフィードURLの行を作成し、既存の場合はそのまま返す。
	EnsureByURL(ctx context.Context, feedURL string) (*model.JobFeed, error)

	// ListDueForFetch はnext_fetch_at <= now() かつ fetch_status = 'active' のフィードを返す。
	ListDueForFetch(ctx context.Context) ([]*model.JobFeed, error)

	// UpdateFetchState はタイトル、fetch_status、consecutive_errors、error_message、
	// next_fetch_at、etag、last_modifiedを更新する。
	UpdateFetchState(ctx context.Context, feed *model.JobFeed) error
}
