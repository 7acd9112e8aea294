// Package model はドメインモデルを定義する。
package model

import "time"

// JobStatus は求人の募集状態を表す。
type JobStatus string

const (
	// JobStatusOpen は募集中。
	JobStatusOpen JobStatus = "open"
	// JobStatusClosed は募集終了。
	JobStatusClosed JobStatus = "closed"
)

// Valid は募集状態が定義済みの値かどうかを返す。
func (s JobStatus) Valid() bool {
	return s == JobStatusOpen || s == JobStatusClosed
}

// JobSource は求人の登録経路を表す。
type JobSource string

const (
	// JobSourceManual は管理者が手動で登録した求人。
	JobSourceManual JobSource = "manual"
	// JobSourceFeed は求人フィードから取り込んだ求人。
	JobSourceFeed JobSource = "feed"
)

// Job は求人情報を表す。
type Job struct {
	ID           string
	Title        string
	Company      string
	Location     string
	Salary       string
	Type         string
	Industry     string
	Status       JobStatus
	Image        string
	ApplyURL     string
	Description  string // サニタイズ済みHTML
	Requirements []string
	Source       JobSource
	SourceFeedID string
	GUID         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// JobFilter は求人一覧の絞り込み条件を表す。空文字のフィールドは条件に含めない。
type JobFilter struct {
	Type     string
	Location string
	Industry string
}

// FetchStatus は求人フィードの取得状態を表す。
type FetchStatus string

const (
	// FetchStatusActive は定期取得の対象。
	FetchStatusActive FetchStatus = "active"
	// FetchStatusStopped は取得停止中。
	FetchStatusStopped FetchStatus = "stopped"
)

// JobFeed は求人を取り込むRSS/Atomフィードを表す。
type JobFeed struct {
	ID                string
	FeedURL           string
	Title             string
	ETag              string
	LastModified      string
	FetchStatus       FetchStatus
	ConsecutiveErrors int
	ErrorMessage      string
	NextFetchAt       time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ParsedJob はフィードから取得した未保存の求人データを表す。
type ParsedJob struct {
	GUID        string
	Title       string
	Company     string
	Link        string
	Description string // 未サニタイズのHTML
	Categories  []string
	PublishedAt *time.Time
}
