package jobimport

import (
	"reflect"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/jobportal/internal/model"
	"github.com/hitoshi/jobportal/internal/security"
)

func TestParseItems(t *testing.T) {
	published := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	feed := &gofeed.Feed{
		Title: "Acme Careers",
		Items: []*gofeed.Item{
			{
				Title: "Backend Engineer", GUID: "job-1", Link: "https://acme.example/jobs/1",
				Description: "<p>Go</p>", Author: &gofeed.Person{Name: "Acme Cloud"},
				Categories: []string{"Go", "PostgreSQL"}, PublishedParsed: &published,
			},
			{Title: "Designer", Link: "https://acme.example/jobs/2", Content: "<b>Figma</b>", Description: "short"},
			{Title: "", GUID: "no-title"},
			{Title: "No identity"},
			{Title: "GUID only", GUID: "https://acme.example/jobs/4"},
			nil,
		},
	}

	got := parseItems(feed)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3: %+v", len(got), got)
	}

	if got[0].Company != "Acme Cloud" || got[0].GUID != "job-1" || got[0].PublishedAt == nil {
		t.Errorf("item 0 = %+v", got[0])
	}
	if !reflect.DeepEqual(got[0].Categories, []string{"Go", "PostgreSQL"}) {
		t.Errorf("categories = %v", got[0].Categories)
	}

	// GUIDがない場合はリンクで代用し、会社名はフィードタイトルで補う
	if got[1].GUID != "https://acme.example/jobs/2" || got[1].Company != "Acme Careers" || got[1].Description != "<b>Figma</b>" {
		t.Errorf("item 1 = %+v", got[1])
	}

	if got[2].Link != "https://acme.example/jobs/4" {
		t.Errorf("item 2 link = %q, want GUID URL", got[2].Link)
	}
}

func TestToJob_SanitizesAndMarksFeedSource(t *testing.T) {
	pj := model.ParsedJob{
		GUID:        "job-1",
		Title:       "<b>Backend</b> &amp; SRE",
		Company:     "Acme",
		Link:        "javascript:alert(1)",
		Description: `<p onclick="x()">Hello<script>alert(1)</script></p>`,
		Categories:  []string{"Go", "  ", "<i>SQL</i>"},
	}

	job := toJob("feed-1", pj, security.NewSanitizer())

	if job.Title != "Backend & SRE" {
		t.Errorf("Title = %q", job.Title)
	}
	if job.ApplyURL != "" {
		t.Errorf("ApplyURL = %q, want empty for non-http link", job.ApplyURL)
	}
	if job.Description != "<p>Hello</p>" {
		t.Errorf("Description = %q", job.Description)
	}
	if !reflect.DeepEqual(job.Requirements, []string{"Go", "SQL"}) {
		t.Errorf("Requirements = %v", job.Requirements)
	}
	if job.Source != model.JobSourceFeed || job.SourceFeedID != "feed-1" || job.GUID != "job-1" || job.Status != model.JobStatusOpen {
		t.Errorf("job = %+v", job)
	}
}
