package jobimport

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hitoshi/jobportal/internal/model"
)

// FetchResult はHTTPステータスコードに基づくフェッチ結果の分類。
type FetchResult int

const (
	// FetchResultOK はフェッチ成功（200）。
	FetchResultOK FetchResult = iota
	// FetchResultNotModified はコンテンツ未変更（304）。
	FetchResultNotModified
	// FetchResultStop はフェッチ停止が必要なステータス（404/410/401/403）。
	FetchResultStop
	// FetchResultBackoff はバックオフが必要なステータス（429/5xx）。
	FetchResultBackoff
	// FetchResultUnknown は上記以外のステータスコード。
	FetchResultUnknown
)

const (
	// initialBackoff は指数バックオフの初回遅延。
	initialBackoff = 30 * time.Minute
	// maxBackoff は指数バックオフの上限。
	maxBackoff = 12 * time.Hour
	// parseFailureThreshold はパース失敗によるフェッチ停止の閾値。
	parseFailureThreshold = 10
)

// ClassifyHTTPStatus はHTTPステータスコードをフェッチ結果に分類する。
func ClassifyHTTPStatus(statusCode int) FetchResult {
	switch statusCode {
	case http.StatusOK:
		return FetchResultOK
	case http.StatusNotModified:
		return FetchResultNotModified
	case http.StatusNotFound, http.StatusGone, http.StatusUnauthorized, http.StatusForbidden:
		return FetchResultStop
	case http.StatusTooManyRequests:
		return FetchResultBackoff
	}
	if statusCode >= 500 {
		return FetchResultBackoff
	}
	return FetchResultUnknown
}

// CalculateBackoff は連続エラー回数に基づく遅延を返す。
// 初回30分から2倍ずつ増やし、12時間で頭打ちにする。
func CalculateBackoff(consecutiveErrors int) time.Duration {
	delay := initialBackoff
	for i := 0; i < consecutiveErrors; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// applyStop はフィードのフェッチを停止状態にする。
func applyStop(feed *model.JobFeed, reason string, now time.Time) {
	feed.FetchStatus = model.FetchStatusStopped
	feed.ErrorMessage = reason
	feed.UpdatedAt = now
}

// applyBackoff は連続エラー回数を増やし、次回フェッチ時刻を指数バックオフで先送りする。
func applyBackoff(feed *model.JobFeed, reason string, now time.Time) {
	feed.ConsecutiveErrors++
	feed.ErrorMessage = reason
	feed.NextFetchAt = now.Add(CalculateBackoff(feed.ConsecutiveErrors - 1))
	feed.UpdatedAt = now
}

// applySuccess はエラー状態をリセットし、interval後を次回フェッチ時刻にする。
func applySuccess(feed *model.JobFeed, interval time.Duration, now time.Time) {
	feed.ConsecutiveErrors = 0
	feed.ErrorMessage = ""
	feed.NextFetchAt = now.Add(interval)
	feed.UpdatedAt = now
}

// applyParseFailure はパース失敗を数え、閾値に達したらフェッチを停止する。
// 停止しない場合も次回フェッチはバックオフで先送りする。
func applyParseFailure(feed *model.JobFeed, reason string, now time.Time) {
	applyBackoff(feed, "", now)
	feed.ErrorMessage = fmt.Sprintf("パース失敗 (%d回連続): %s", feed.ConsecutiveErrors, reason)

	if feed.ConsecutiveErrors >= parseFailureThreshold {
		applyStop(feed, fmt.Sprintf("パース失敗が%d回連続したためフェッチを停止しました: %s", feed.ConsecutiveErrors, reason), now)
	}
}
