package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/jobportal/internal/model"
)

var jobRowColumns = []string{
	"id", "title", "company", "location", "salary", "type", "industry", "status", "image", "apply_url",
	"description", "requirements", "source", "source_feed_id", "guid", "created_at", "updated_at",
}

func TestPostgresJobRepo_FindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresJobRepo(db)
	now := time.Now()

	mock.ExpectQuery(`FROM jobs WHERE id = \$1`).
		WithArgs("1").
		WillReturnRows(sqlmock.NewRows(jobRowColumns).AddRow(
			"1", "Frontend Developer", "OpenAI", "San Francisco", "$120,000", "Full-time", "Technology",
			"open", "https://logo.clearbit.com/openai.com", "", "Develop and maintain frontend interfaces.",
			"{React,CSS,JavaScript}", "manual", nil, nil, now, now,
		))

	job, err := repo.FindByID(context.Background(), "1")
	require.NoError(t, err)
	require.NotNil(t, job)
	require.Equal(t, []string{"React", "CSS", "JavaScript"}, job.Requirements)
	require.Equal(t, model.JobSourceManual, job.Source)
	require.Empty(t, job.SourceFeedID)
}

func TestPostgresJobRepo_FindByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresJobRepo(db)

	mock.ExpectQuery(`FROM jobs WHERE id = \$1`).WillReturnRows(sqlmock.NewRows(jobRowColumns))

	job, err := repo.FindByID(context.Background(), "404")
	require.NoError(t, err)
	require.Nil(t, job)
}

func TestPostgresJobRepo_List_PassesFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresJobRepo(db)

	mock.ExpectQuery(`FROM jobs\s+WHERE \(\$1::text = '' OR type = \$1\)`).
		WithArgs("Remote", "", "Technology").
		WillReturnRows(sqlmock.NewRows(jobRowColumns))

	jobs, err := repo.List(context.Background(), model.JobFilter{Type: "Remote", Industry: "Technology"})
	require.NoError(t, err)
	require.NotNil(t, jobs)
	require.Empty(t, jobs)
}

func TestPostgresJobRepo_Create_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresJobRepo(db)

	mock.ExpectExec(`INSERT INTO jobs`).WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &model.Job{ID: "1", Title: "T", Company: "C"})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestPostgresJobRepo_Update_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresJobRepo(db)

	mock.ExpectExec(`UPDATE jobs SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	found, err := repo.Update(context.Background(), &model.Job{ID: "missing"})
	require.NoError(t, err)
	require.False(t, found)
}

func TestPostgresJobRepo_UpsertFromFeed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresJobRepo(db)

	mock.ExpectQuery(`ON CONFLICT \(source_feed_id, guid\) WHERE guid IS NOT NULL DO UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(true))

	inserted, err := repo.UpsertFromFeed(context.Background(), &model.Job{
		ID: "job-1", Title: "Go Engineer", Company: "Acme", SourceFeedID: "feed-1", GUID: "guid-1",
		Status: model.JobStatusOpen, UpdatedAt: time.Now(),
	})
	require.NoError(t, err)
	require.True(t, inserted)
}

func TestPostgresJobRepo_DeleteStaleFeedJobs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresJobRepo(db)
	cutoff := time.Now().Add(-90 * 24 * time.Hour)

	mock.ExpectExec(`DELETE FROM jobs WHERE source = 'feed' AND updated_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	deleted, err := repo.DeleteStaleFeedJobs(context.Background(), cutoff)
	require.NoError(t, err)
	require.Equal(t, int64(7), deleted)
}
