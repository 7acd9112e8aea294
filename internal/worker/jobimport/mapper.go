package jobimport

import (
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/jobportal/internal/model"
)

// parseItems はgofeedの記事を求人データに変換する。
// 会社名は記事の著者、なければフィードタイトルを使う。
// GUIDもリンクもない記事は重複判定ができないため取り込まない。
func parseItems(feed *gofeed.Feed) []model.ParsedJob {
	jobs := make([]model.ParsedJob, 0, len(feed.Items))

	for _, item := range feed.Items {
		if item == nil || strings.TrimSpace(item.Title) == "" {
			continue
		}

		pj := model.ParsedJob{
			GUID:        strings.TrimSpace(item.GUID),
			Title:       item.Title,
			Link:        strings.TrimSpace(item.Link),
			Description: item.Content,
			Categories:  item.Categories,
		}
		if pj.Description == "" {
			pj.Description = item.Description
		}
		if pj.GUID == "" {
			pj.GUID = pj.Link
		}
		if pj.GUID == "" {
			continue
		}
		if pj.Link == "" && isHTTPURL(pj.GUID) {
			pj.Link = pj.GUID
		}

		switch {
		case item.Author != nil && item.Author.Name != "":
			pj.Company = item.Author.Name
		case len(item.Authors) > 0 && item.Authors[0] != nil && item.Authors[0].Name != "":
			pj.Company = item.Authors[0].Name
		default:
			pj.Company = feed.Title
		}

		if item.PublishedParsed != nil {
			t := *item.PublishedParsed
			pj.PublishedAt = &t
		} else if item.UpdatedParsed != nil {
			t := *item.UpdatedParsed
			pj.PublishedAt = &t
		}

		jobs = append(jobs, pj)
	}

	return jobs
}

// toJob はParsedJobをサニタイズ済みの求人に変換する。
// カテゴリは応募要件のタグとして保持する。
func toJob(feedID string, pj model.ParsedJob, s Sanitizer) *model.Job {
	job := &model.Job{
		Title:        s.Text(pj.Title),
		Company:      s.Text(pj.Company),
		Status:       model.JobStatusOpen,
		Description:  s.HTML(pj.Description),
		Requirements: []string{},
		Source:       model.JobSourceFeed,
		SourceFeedID: feedID,
		GUID:         pj.GUID,
	}
	if isHTTPURL(pj.Link) {
		job.ApplyURL = pj.Link
	}
	for _, c := range pj.Categories {
		if c = s.Text(c); c != "" {
			job.Requirements = append(job.Requirements, c)
		}
	}
	return job
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
