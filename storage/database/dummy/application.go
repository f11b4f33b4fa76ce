package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/sheleads/intake/core"
	"github.com/sheleads/intake/core/application"
	"github.com/sheleads/intake/core/course"
)

var appPKCount int

type applicationRepository struct {
	applicants   *applicantTable
	applications *applicationTable
	documents    *documentTable
	courses      *courseTable
}

var _ application.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(db *DB) *applicationRepository {
	return &applicationRepository{
		applicants:   db.applicant,
		applications: db.application,
		documents:    db.document,
		courses:      db.course,
	}
}

func (repo *applicationRepository) CreateApplicant(_ context.Context, applicant application.Applicant) (application.Applicant, error) {
	repo.applicants.Lock()
	defer repo.applicants.Unlock()

	appPKCount++
	applicant.ID = appPKCount
	repo.applicants.table[applicant.ID] = &applicant
	return applicant, nil
}

func (repo *applicationRepository) UpdateApplicant(_ context.Context, applicant application.Applicant) (application.Applicant, error) {
	repo.applicants.Lock()
	defer repo.applicants.Unlock()

	if _, ok := repo.applicants.table[applicant.ID]; !ok {
		return application.Applicant{}, application.ErrApplicantNotFound
	}
	repo.applicants.table[applicant.ID] = &applicant
	return applicant, nil
}

func (repo *applicationRepository) GetApplicantByEmail(_ context.Context, email string) (application.Applicant, error) {
	repo.applicants.RLock()
	defer repo.applicants.RUnlock()

	for _, a := range repo.applicants.table {
		if a.Email == email {
			return *a, nil
		}
	}
	return application.Applicant{}, application.ErrApplicantNotFound
}

func (repo *applicationRepository) SetApplicantDriveFolder(_ context.Context, applicantID int, folder core.StoredFile) error {
	repo.applicants.Lock()
	defer repo.applicants.Unlock()

	a, ok := repo.applicants.table[applicantID]
	if !ok {
		return application.ErrApplicantNotFound
	}
	a.DriveFolderID = folder.ID
	a.DriveFolderLink = folder.Link
	return nil
}

func (repo *applicationRepository) CreateApplication(_ context.Context, app application.Application) (application.Application, error) {
	repo.applications.Lock()
	defer repo.applications.Unlock()

	appPKCount++
	app.ID = appPKCount
	repo.applications.table[app.ID] = &app
	return app, nil
}

func (repo *applicationRepository) GetApplicationByID(ctx context.Context, id int) (application.Detail, error) {
	repo.applications.RLock()
	app, ok := repo.applications.table[id]
	repo.applications.RUnlock()
	if !ok {
		return application.Detail{}, application.ErrNotFound
	}

	repo.applicants.RLock()
	applicant, ok := repo.applicants.table[app.ApplicantID]
	repo.applicants.RUnlock()
	if !ok {
		return application.Detail{}, application.ErrApplicantNotFound
	}

	var crs course.Course
	repo.courses.RLock()
	if c, ok := repo.courses.table[app.CourseID]; ok {
		crs = *c
	}
	repo.courses.RUnlock()

	repo.documents.RLock()
	docs := make([]application.Document, 0)
	for _, d := range repo.documents.table {
		if d.ApplicantID == app.ApplicantID {
			docs = append(docs, *d)
		}
	}
	repo.documents.RUnlock()
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	return application.Detail{
		Application: *app,
		Applicant:   *applicant,
		Course:      crs,
		Documents:   docs,
	}, nil
}

func (repo *applicationRepository) summarize(app application.Application) application.Summary {
	s := application.Summary{Application: app}

	repo.applicants.RLock()
	if a, ok := repo.applicants.table[app.ApplicantID]; ok {
		s.ApplicantName = a.FullName
		s.ApplicantEmail = a.Email
		s.ApplicantPhone = a.PhoneNumber
		s.DateOfBirth = a.DateOfBirth
		s.Location = a.Location
		s.LocationType = a.LocationType
		s.AcademicQualification = a.AcademicQualification
		s.StudentLevel = a.StudentLevel
		s.EmploymentStatus = a.EmploymentStatus
		s.IsDisplaced = a.IsDisplaced
		s.HasDisability = a.HasDisability
		s.DisabilityType = a.DisabilityType
		s.HasJobbermanCertificate = a.HasJobbermanCertificate
		s.ReferralSource = a.ReferralSource
		s.AmbassadorCode = a.AmbassadorCode
	}
	repo.applicants.RUnlock()

	repo.courses.RLock()
	if c, ok := repo.courses.table[app.CourseID]; ok {
		s.CourseName = c.Name
	}
	repo.courses.RUnlock()

	return s
}

func (repo *applicationRepository) FilterApplications(_ context.Context, filter application.QueryFilter, ordering ...core.DBOrdering) ([]application.Summary, error) {
	repo.applications.RLock()
	apps := make([]application.Application, 0, len(repo.applications.table))
	for _, app := range repo.applications.table {
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		if filter.CourseID != 0 && app.CourseID != filter.CourseID {
			continue
		}
		apps = append(apps, *app)
	}
	repo.applications.RUnlock()

	// only submitted_at ordering is exercised in memory
	asc := len(ordering) > 0 && ordering[0].Ascending
	sort.Slice(apps, func(i, j int) bool {
		if asc {
			return apps[i].SubmittedAt.Before(apps[j].SubmittedAt)
		}
		return apps[j].SubmittedAt.Before(apps[i].SubmittedAt)
	})

	summaries := make([]application.Summary, 0, len(apps))
	for _, app := range apps {
		summaries = append(summaries, repo.summarize(app))
	}
	return summaries, nil
}

func (repo *applicationRepository) LatestApplicationByEmail(ctx context.Context, email string) (application.Summary, error) {
	applicant, err := repo.GetApplicantByEmail(ctx, email)
	if err != nil {
		return application.Summary{}, application.ErrNotFound
	}

	repo.applications.RLock()
	defer repo.applications.RUnlock()

	var latest *application.Application
	for _, app := range repo.applications.table {
		if app.ApplicantID != applicant.ID {
			continue
		}
		if latest == nil || latest.SubmittedAt.Before(app.SubmittedAt) {
			latest = app
		}
	}
	if latest == nil {
		return application.Summary{}, application.ErrNotFound
	}
	return repo.summarize(*latest), nil
}

func (repo *applicationRepository) UpdateApplicationStatus(_ context.Context, id int, status string, now time.Time) error {
	repo.applications.Lock()
	defer repo.applications.Unlock()

	app, ok := repo.applications.table[id]
	if !ok {
		return application.ErrNotFound
	}
	app.Status = status
	app.UpdatedAt = now
	return nil
}

func (repo *applicationRepository) SetApplicationEmailSent(_ context.Context, id int, at time.Time) error {
	repo.applications.Lock()
	defer repo.applications.Unlock()

	app, ok := repo.applications.table[id]
	if !ok {
		return application.ErrNotFound
	}
	app.EmailSent = true
	app.EmailSentAt = &at
	return nil
}

func (repo *applicationRepository) SetApplicationStatusEmailSent(_ context.Context, id int, at time.Time) error {
	repo.applications.Lock()
	defer repo.applications.Unlock()

	app, ok := repo.applications.table[id]
	if !ok {
		return application.ErrNotFound
	}
	app.StatusEmailSent = true
	app.StatusEmailSentAt = &at
	return nil
}

func (repo *applicationRepository) SetApplicationDriveFolderLink(_ context.Context, id int, link string) error {
	repo.applications.Lock()
	defer repo.applications.Unlock()

	app, ok := repo.applications.table[id]
	if !ok {
		return application.ErrNotFound
	}
	app.DriveFolderLink = link
	return nil
}

func (repo *applicationRepository) CreateDocument(_ context.Context, doc application.Document) (application.Document, error) {
	repo.documents.Lock()
	defer repo.documents.Unlock()

	appPKCount++
	doc.ID = appPKCount
	repo.documents.table[doc.ID] = &doc
	return doc, nil
}
