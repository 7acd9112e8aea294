// Package cleanup はフィード由来の求人の自動削除ジョブを提供する。
// 保持期間を過ぎても更新されていない求人を日次で削除する。
// 手動登録の求人と、それに紐づく応募は対象外。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/jobportal/internal/metrics"
)

// DefaultRetentionDays は保持日数の既定値。
const DefaultRetentionDays = 90

// StaleJobDeleter は古いフィード由来の求人を削除する。repository.JobRepositoryの部分集合。
type StaleJobDeleter interface {
	DeleteStaleFeedJobs(ctx context.Context, olderThan time.Time) (int64, error)
}

// CleanupJob は保持期間を超過したフィード由来の求人の削除ジョブ。
// 削除対象がない場合も成功とし、何度実行しても結果は変わらない。
type CleanupJob struct {
	jobs          StaleJobDeleter
	recorder      metrics.ImportRecorder
	logger        *slog.Logger
	RetentionDays int
	now           func() time.Time
}

// NewCleanupJob はCleanupJobを生成する。retentionDaysが0以下の場合は既定値を使う。
func NewCleanupJob(jobs StaleJobDeleter, recorder metrics.ImportRecorder, logger *slog.Logger, retentionDays int) *CleanupJob {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &CleanupJob{
		jobs:          jobs,
		recorder:      recorder,
		logger:        logger,
		RetentionDays: retentionDays,
		now:           time.Now,
	}
}

// Run は最終更新がRetentionDays日より前のフィード由来の求人を削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := j.now().AddDate(0, 0, -j.RetentionDays)

	deleted, err := j.jobs.DeleteStaleFeedJobs(ctx, cutoff)
	if err != nil {
		j.logger.Error("求人クリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("求人クリーンアップの実行に失敗: %w", err)
	}
	j.recorder.RecordJobsPurged(deleted)

	j.logger.Info("求人クリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Int("retention_days", j.RetentionDays),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start は起動直後とinterval毎にRunを実行する。コンテキストがキャンセルされるまで戻らない。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// 失敗はRun内でログ済みのため、次回の実行まで待つ
	_ = j.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
