package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/jobportal/internal/model"
	"github.com/hitoshi/jobportal/internal/repository"
)

// memoryApplicationRepo は (job_id, applicant_email) の一意性を持つ簡易ストア。
type memoryApplicationRepo struct {
	apps      []*model.Application
	createErr error
	calls     map[string]int
}

func newMemoryRepo() *memoryApplicationRepo {
	return &memoryApplicationRepo{calls: map[string]int{}}
}

func (m *memoryApplicationRepo) FindByID(_ context.Context, id string) (*model.Application, error) {
	m.calls["FindByID"]++
	for _, a := range m.apps {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}
func (m *memoryApplicationRepo) ExistsForJobAndApplicant(_ context.Context, jobID, email string) (bool, error) {
	for _, a := range m.apps {
		if a.JobID == jobID && a.ApplicantEmail == email {
			return true, nil
		}
	}
	return false, nil
}
func (m *memoryApplicationRepo) Create(_ context.Context, app *model.Application) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, a := range m.apps {
		if a.JobID == app.JobID && a.ApplicantEmail == app.ApplicantEmail {
			return repository.ErrDuplicate
		}
	}
	cp := *app
	m.apps = append(m.apps, &cp)
	return nil
}
func (m *memoryApplicationRepo) ListJobIDsByApplicant(_ context.Context, email string) ([]string, error) {
	ids := []string{}
	for _, a := range m.apps {
		if a.ApplicantEmail == email {
			ids = append(ids, a.JobID)
		}
	}
	return ids, nil
}
func (m *memoryApplicationRepo) ListAll(_ context.Context) ([]*model.Application, error) {
	out := []*model.Application{}
	for i := len(m.apps) - 1; i >= 0; i-- {
		cp := *m.apps[i]
		out = append(out, &cp)
	}
	return out, nil
}
func (m *memoryApplicationRepo) ListByApplicant(_ context.Context, email string) ([]*model.Application, error) {
	out := []*model.Application{}
	for _, a := range m.apps {
		if a.ApplicantEmail == email {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}
func (m *memoryApplicationRepo) Delete(_ context.Context, id string) error {
	m.calls["Delete"]++
	for i, a := range m.apps {
		if a.ID == id {
			m.apps = append(m.apps[:i], m.apps[i+1:]...)
			return nil
		}
	}
	return nil
}
func (m *memoryApplicationRepo) UpdateStatus(_ context.Context, id string, status model.ApplicationStatus) error {
	m.calls["UpdateStatus"]++
	for _, a := range m.apps {
		if a.ID == id {
			a.Status = status
		}
	}
	return nil
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError with code %s, got %T: %v", code, err, err)
	}
	if apiErr.Code != code {
		t.Errorf("error code = %s, want %s", apiErr.Code, code)
	}
}

var janeApplies = SubmitInput{
	JobID: "1", JobTitle: "Frontend Developer", JobCompany: "OpenAI",
	ApplicantName: "Jane", ApplicantEmail: "jane@example.com",
}

func TestSubmit_CreatesPendingApplication(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	id, err := svc.Submit(context.Background(), janeApplies)
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("id %q is not a UUID", id)
	}

	app := repo.apps[0]
	if app.Status != model.ApplicationStatusPending {
		t.Errorf("status = %q, want pending", app.Status)
	}
	if !app.DateApplied.Equal(fixed) {
		t.Errorf("dateApplied = %v, want %v", app.DateApplied, fixed)
	}
	if app.JobTitle != "Frontend Developer" || app.JobCompany != "OpenAI" {
		t.Errorf("job snapshot = %q/%q", app.JobTitle, app.JobCompany)
	}
}

func TestSubmit_Duplicate(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	if _, err := svc.Submit(context.Background(), janeApplies); err != nil {
		t.Fatalf("first Submit returned error: %v", err)
	}
	_, err := svc.Submit(context.Background(), janeApplies)
	assertAPIErrorCode(t, err, model.ErrCodeDuplicateApplication)

	if len(repo.apps) != 1 {
		t.Errorf("application count = %d, want 1", len(repo.apps))
	}
}

func TestSubmit_UniqueViolationMapsToDuplicate(t *testing.T) {
	repo := newMemoryRepo()
	repo.createErr = repository.ErrDuplicate
	svc := NewService(repo)

	_, err := svc.Submit(context.Background(), janeApplies)
	assertAPIErrorCode(t, err, model.ErrCodeDuplicateApplication)
}

func TestSubmit_RequiresJobIDAndEmail(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Submit(context.Background(), SubmitInput{ApplicantEmail: "jane@example.com"})
	assertAPIErrorCode(t, err, model.ErrCodeValidation)

	_, err = svc.Submit(context.Background(), SubmitInput{JobID: "1"})
	assertAPIErrorCode(t, err, model.ErrCodeValidation)
}

func TestAppliedJobIDs(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, janeApplies); err != nil {
		t.Fatal(err)
	}
	second := janeApplies
	second.JobID = "2"
	if _, err := svc.Submit(ctx, second); err != nil {
		t.Fatal(err)
	}

	ids, err := svc.AppliedJobIDs(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("AppliedJobIDs returned error: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("ids = %v, want 2 entries", ids)
	}

	_, err = svc.AppliedJobIDs(ctx, "")
	assertAPIErrorCode(t, err, model.ErrCodeValidation)
}

func TestListForApplicant_NoApplicationsReturnsEmptyList(t *testing.T) {
	svc := NewService(newMemoryRepo())

	apps, err := svc.ListForApplicant(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("ListForApplicant returned error: %v", err)
	}
	if apps == nil || len(apps) != 0 {
		t.Errorf("apps = %#v, want empty non-nil list", apps)
	}
}

func TestSetStatus_ThenListAll(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	id, err := svc.Submit(ctx, janeApplies)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.SetStatus(ctx, id, model.ApplicationStatusAccepted); err != nil {
		t.Fatalf("SetStatus returned error: %v", err)
	}

	all, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll returned error: %v", err)
	}
	if len(all) != 1 || all[0].Status != model.ApplicationStatusAccepted {
		t.Errorf("ListAll = %+v, want one accepted application", all)
	}
}

func TestSetStatus_InvalidStatus(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	err := svc.SetStatus(context.Background(), uuid.New().String(), model.ApplicationStatus("rejected"))
	assertAPIErrorCode(t, err, model.ErrCodeValidation)
	if repo.calls["UpdateStatus"] != 0 {
		t.Error("UpdateStatus should not be called for invalid status")
	}
}

func TestSetStatus_UnknownOrMalformedIDIsNoOp(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	if err := svc.SetStatus(context.Background(), uuid.New().String(), model.ApplicationStatusAccepted); err != nil {
		t.Errorf("unknown id: %v", err)
	}
	if err := svc.SetStatus(context.Background(), "not-a-uuid", model.ApplicationStatusAccepted); err != nil {
		t.Errorf("malformed id: %v", err)
	}
	if repo.calls["UpdateStatus"] != 1 {
		t.Errorf("UpdateStatus calls = %d, want 1 (malformed id skipped)", repo.calls["UpdateStatus"])
	}
}

func TestRemove_Idempotent(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	id, err := svc.Submit(ctx, janeApplies)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Remove(ctx, id); err != nil {
		t.Fatalf("first Remove returned error: %v", err)
	}
	if err := svc.Remove(ctx, id); err != nil {
		t.Fatalf("second Remove returned error: %v", err)
	}
	if err := svc.Remove(ctx, "garbage-id"); err != nil {
		t.Fatalf("Remove(malformed) returned error: %v", err)
	}
	if len(repo.apps) != 0 {
		t.Errorf("application count = %d, want 0", len(repo.apps))
	}
}

func TestGet(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)
	ctx := context.Background()

	id, err := svc.Submit(ctx, janeApplies)
	if err != nil {
		t.Fatal(err)
	}

	app, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if app.ApplicantEmail != "jane@example.com" {
		t.Errorf("applicantEmail = %q", app.ApplicantEmail)
	}

	_, err = svc.Get(ctx, uuid.New().String())
	assertAPIErrorCode(t, err, model.ErrCodeApplicationNotFound)

	_, err = svc.Get(ctx, "bad")
	assertAPIErrorCode(t, err, model.ErrCodeApplicationNotFound)
	if repo.calls["FindByID"] != 2 {
		t.Errorf("FindByID calls = %d, want 2", repo.calls["FindByID"])
	}
}
