package application_test

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/sheleads/intake/core"
	"github.com/sheleads/intake/core/application"
	"github.com/sheleads/intake/core/course"
	drivesvc "github.com/sheleads/intake/services/drive"
	sheetsvc "github.com/sheleads/intake/services/sheets"
	dummydb "github.com/sheleads/intake/storage/database/dummy"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type fakeMailer struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
	err  error
}

func (f *fakeMailer) SendMessage(msg *core.EmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	return nil
}

func (f *fakeMailer) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		_ = f.SendMessage(msg)
	}
}

type testEnv struct {
	svc    *application.Service
	repo   application.Repository
	course course.Course
	mailer *fakeMailer
	sheets *sheetsvc.DummyService
	docs   *drivesvc.DummyService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}

	courseRepo := dummydb.NewCourseRepository(db)
	crs, err := courseRepo.CreateCourse(context.Background(), course.Course{
		Name:        "Digital Marketing",
		Description: "Learn to grow a brand online.",
		Schedule:    "Tuesdays and Thursdays, 6pm",
		StartDate:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		Duration:    "8 weeks",
		Location:    "Online",
		Tutor:       "A. Okafor",
	})
	if err != nil {
		t.Fatalf("seeding course: %v", err)
	}

	conf := &core.Config{
		AppName: "She Leads Africa",
		Submission: core.SubmissionConfig{
			StageTimeout:  5 * time.Second,
			MaxUploadSize: 5 << 20,
		},
	}

	env := &testEnv{
		repo:   dummydb.NewApplicationRepository(db),
		course: crs,
		mailer: &fakeMailer{},
		sheets: sheetsvc.NewDummyService(),
		docs:   drivesvc.NewDummyService(),
	}
	env.svc = application.NewService(
		env.repo,
		course.NewService(courseRepo),
		env.mailer,
		env.sheets,
		env.docs,
		nopLogger{},
		conf,
	)
	return env
}

func validAnswers(courseID int) application.AnswerRecord {
	return application.AnswerRecord{
		application.FieldIsEligible:         true,
		application.FieldPathway:            application.PathwayProfessional,
		application.FieldTakenBoosterCourse: false,
		application.FieldConsentToDataUse:   true,
		application.FieldFullName:           "Amina Bello",
		application.FieldEmail:              "amina@test.test",
		application.FieldPhoneNumber:        "+2348012345678",
		application.FieldDateOfBirth:        "1996-04-12",
		application.FieldLocation:           "Lagos",
		application.FieldLocationType:       "urban",
		application.FieldAcademicQualification: "bachelors",
		application.FieldEmploymentStatus:      "unemployed",
		application.FieldWorkInterest:          true,
		application.FieldIsDisplaced:           false,
		application.FieldHasDisability:         false,
		application.FieldReferralSource:        "sla_instagram",
		application.FieldPreferredCourse:       courseID,
		application.FieldExpectations:          "A new career.",
	}
}

func stageStatus(t *testing.T, res application.SubmissionResult, name string) string {
	t.Helper()
	for _, s := range res.Stages {
		if s.Name == name {
			return s.Status
		}
	}
	t.Fatalf("stage %s not reported", name)
	return ""
}

func TestSubmitHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Submit(ctx, validAnswers(env.course.ID))
	if err != nil {
		t.Fatalf("Submit(): %v", err)
	}

	if res.Status != application.ResultApproved {
		t.Errorf("status = %q, want %q", res.Status, application.ResultApproved)
	}
	if !res.Success {
		t.Error("success flag not set")
	}
	if res.Reference == "" {
		t.Error("reference is empty")
	}
	if res.CourseID != env.course.ID {
		t.Errorf("course id = %d, want %d", res.CourseID, env.course.ID)
	}
	if res.Degraded() {
		t.Errorf("unexpected degraded stages: %+v", res.Stages)
	}
	wantStages := []string{
		application.StageSanitize,
		application.StageResolveCourse,
		application.StageCreateApplicant,
		application.StageCreateApplication,
		application.StageSheetLog,
		application.StageStoreDocuments,
		application.StageSendEmail,
	}
	if len(res.Stages) != len(wantStages) {
		t.Fatalf("got %d stages, want %d", len(res.Stages), len(wantStages))
	}
	for i, name := range wantStages {
		if res.Stages[i].Name != name {
			t.Errorf("stage[%d] = %q, want %q", i, res.Stages[i].Name, name)
		}
		if res.Stages[i].Status != application.StageOK {
			t.Errorf("stage %q status = %q, want ok", name, res.Stages[i].Status)
		}
	}

	detail, err := env.repo.GetApplicationByID(ctx, res.ApplicationID)
	if err != nil {
		t.Fatalf("GetApplicationByID(): %v", err)
	}
	if detail.Application.Status != application.StatusApproved {
		t.Errorf("stored status = %q, want approved", detail.Application.Status)
	}
	if !detail.Application.EmailSent {
		t.Error("email_sent not stamped")
	}
	if detail.Applicant.Email != "amina@test.test" {
		t.Errorf("applicant email = %q", detail.Applicant.Email)
	}

	rows := env.sheets.Rows()
	if len(rows) != 1 {
		t.Fatalf("sheet rows = %d, want 1", len(rows))
	}
	// timestamp, then the applicant and application ids
	if got := rows[0][1]; got != res.ApplicantID {
		t.Errorf("sheet row applicant id = %v, want %d", got, res.ApplicantID)
	}
	if got := rows[0][2]; got != res.ApplicationID {
		t.Errorf("sheet row application id = %v, want %d", got, res.ApplicationID)
	}
	if len(env.mailer.sent) != 1 {
		t.Fatalf("sent emails = %d, want 1", len(env.mailer.sent))
	}
	if to := env.mailer.sent[0].To[0].Address; to != "amina@test.test" {
		t.Errorf("email to = %q", to)
	}
	// folder plus the application summary upload
	if folders := env.docs.Folders(); len(folders) != 1 {
		t.Errorf("folders = %d, want 1", len(folders))
	}
}

func TestSubmitRepeatEmailRefreshesApplicant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.Submit(ctx, validAnswers(env.course.ID))
	if err != nil {
		t.Fatalf("Submit(): %v", err)
	}

	again := validAnswers(env.course.ID)
	again[application.FieldPhoneNumber] = "+2348099999999"
	again[application.FieldLocation] = "Abuja"
	second, err := env.svc.Submit(ctx, again)
	if err != nil {
		t.Fatalf("Submit() again: %v", err)
	}

	if second.ApplicantID != first.ApplicantID {
		t.Errorf("applicant id = %d, want reused %d", second.ApplicantID, first.ApplicantID)
	}
	applicant, err := env.repo.GetApplicantByEmail(ctx, "amina@test.test")
	if err != nil {
		t.Fatalf("GetApplicantByEmail(): %v", err)
	}
	if applicant.PhoneNumber != "+2348099999999" {
		t.Errorf("phone = %q, want the latest submission's", applicant.PhoneNumber)
	}
	if applicant.Location != "Abuja" {
		t.Errorf("location = %q, want the latest submission's", applicant.Location)
	}
}

func TestSubmitUnknownCourseIsFatal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Submit(ctx, validAnswers(999))
	if err == nil {
		t.Fatal("Submit() should fail on unknown course")
	}
	if !core.IsNotFound(err) {
		t.Errorf("err = %v, want not-found", err)
	}
	if res.Status != application.ResultFailed {
		t.Errorf("status = %q, want failed", res.Status)
	}
	if res.Success {
		t.Error("success flag should not be set on a fatal failure")
	}
	if got := stageStatus(t, res, application.StageResolveCourse); got != application.StageFailed {
		t.Errorf("resolve_course status = %q, want failed", got)
	}
	// nothing persisted, no side effects
	if _, err := env.repo.GetApplicantByEmail(ctx, "amina@test.test"); err == nil {
		t.Error("applicant should not be stored")
	}
	if len(env.sheets.Rows()) != 0 || len(env.mailer.sent) != 0 {
		t.Error("best-effort stages should not run after a fatal failure")
	}
}

func TestSubmitMissingRequiredFields(t *testing.T) {
	env := newTestEnv(t)

	answers := validAnswers(env.course.ID)
	answers.Clear(application.FieldEmail, application.FieldFullName)

	_, err := env.svc.Submit(context.Background(), answers)
	if err == nil {
		t.Fatal("Submit() should fail on missing required fields")
	}
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("err type = %T, want *core.ValidationError", err)
	}
	if len(vErr.Fields) != 2 {
		t.Errorf("field errors = %d, want 2", len(vErr.Fields))
	}
}

func TestSubmitSheetFailureDegrades(t *testing.T) {
	env := newTestEnv(t)
	env.sheets.Err = context.DeadlineExceeded

	res, err := env.svc.Submit(context.Background(), validAnswers(env.course.ID))
	if err != nil {
		t.Fatalf("Submit(): %v", err)
	}
	if res.Status != application.ResultApproved {
		t.Errorf("status = %q, want approved", res.Status)
	}
	if got := stageStatus(t, res, application.StageSheetLog); got != application.StageDegraded {
		t.Errorf("sheet_log status = %q, want degraded", got)
	}
	// later best-effort stages still ran
	if got := stageStatus(t, res, application.StageSendEmail); got != application.StageOK {
		t.Errorf("send_email status = %q, want ok", got)
	}
	if len(env.mailer.sent) != 1 {
		t.Errorf("sent emails = %d, want 1", len(env.mailer.sent))
	}
}

func TestSubmitEmailFailureDegrades(t *testing.T) {
	env := newTestEnv(t)
	env.mailer.err = context.DeadlineExceeded

	res, err := env.svc.Submit(context.Background(), validAnswers(env.course.ID))
	if err != nil {
		t.Fatalf("Submit(): %v", err)
	}
	if res.Status != application.ResultApproved {
		t.Errorf("status = %q, want approved", res.Status)
	}
	if got := stageStatus(t, res, application.StageSendEmail); got != application.StageDegraded {
		t.Errorf("send_email status = %q, want degraded", got)
	}

	detail, err := env.repo.GetApplicationByID(context.Background(), res.ApplicationID)
	if err != nil {
		t.Fatalf("GetApplicationByID(): %v", err)
	}
	if detail.Application.EmailSent {
		t.Error("email_sent should not be stamped on failure")
	}
}

func TestSubmitSanitizesEnums(t *testing.T) {
	env := newTestEnv(t)

	answers := validAnswers(env.course.ID)
	answers.Set(application.FieldEmploymentStatus, "astronaut")
	answers.Set(application.FieldLocationType, "mars")
	answers.Set(application.FieldDateOfBirth, "not a date")

	res, err := env.svc.Submit(context.Background(), answers)
	if err != nil {
		t.Fatalf("Submit(): %v", err)
	}

	detail, err := env.repo.GetApplicationByID(context.Background(), res.ApplicationID)
	if err != nil {
		t.Fatalf("GetApplicationByID(): %v", err)
	}
	if got := detail.Applicant.EmploymentStatus; got != "unemployed" {
		t.Errorf("employment_status = %q, want unemployed", got)
	}
	if got := detail.Applicant.LocationType; got != "urban" {
		t.Errorf("location_type = %q, want urban", got)
	}
	if got := detail.Applicant.DateOfBirth; got == "" || got == "not a date" {
		t.Errorf("date_of_birth = %q, want canonical date", got)
	}
}

func TestSubmitSkipsInvalidFiles(t *testing.T) {
	env := newTestEnv(t)

	answers := validAnswers(env.course.ID)
	answers.Set(application.FieldIDDocument, map[string]interface{}{
		"name": "id.pdf",
		"type": "application/pdf",
		"data": base64.StdEncoding.EncodeToString([]byte("fake-pdf")),
	})
	answers.Set(application.FieldCV, map[string]interface{}{
		"name": "cv.exe",
		"type": "application/x-msdownload",
		"data": base64.StdEncoding.EncodeToString([]byte("nope")),
	})

	res, err := env.svc.Submit(context.Background(), answers)
	if err != nil {
		t.Fatalf("Submit(): %v", err)
	}
	if got := stageStatus(t, res, application.StageStoreDocuments); got != application.StageOK {
		t.Errorf("store_documents status = %q, want ok", got)
	}

	var uploadedNames []string
	for _, up := range env.docs.Uploads() {
		uploadedNames = append(uploadedNames, up.Name)
	}
	// summary + the valid id document; the executable is skipped
	if len(uploadedNames) != 2 {
		t.Fatalf("uploads = %v, want summary and id document", uploadedNames)
	}
	for _, name := range uploadedNames {
		if name == "cv-cv.exe" {
			t.Error("disallowed file type was uploaded")
		}
	}
}

func TestCheckEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	check, err := env.svc.CheckEmail(ctx, "amina@test.test")
	if err != nil {
		t.Fatalf("CheckEmail(): %v", err)
	}
	if check.Exists {
		t.Error("email should not exist yet")
	}
	if !check.Success {
		t.Error("success flag not set")
	}

	if _, err := env.svc.Submit(ctx, validAnswers(env.course.ID)); err != nil {
		t.Fatalf("Submit(): %v", err)
	}

	check, err = env.svc.CheckEmail(ctx, "Amina@Test.test")
	if err != nil {
		t.Fatalf("CheckEmail(): %v", err)
	}
	if !check.Exists {
		t.Error("email should exist after submission")
	}
	if check.Application == nil || check.Application.CourseName != env.course.Name {
		t.Errorf("summary = %+v, want course %q", check.Application, env.course.Name)
	}

	// the check is advisory: a duplicate submission is still accepted
	if _, err := env.svc.Submit(ctx, validAnswers(env.course.ID)); err != nil {
		t.Errorf("duplicate Submit(): %v", err)
	}
}

func TestUpdateStatusSendsEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Submit(ctx, validAnswers(env.course.ID))
	if err != nil {
		t.Fatalf("Submit(): %v", err)
	}
	env.mailer.sent = nil

	detail, err := env.svc.UpdateStatus(ctx, res.ApplicationID, application.StatusRejected)
	if err != nil {
		t.Fatalf("UpdateStatus(): %v", err)
	}
	if detail.Application.Status != application.StatusRejected {
		t.Errorf("status = %q, want rejected", detail.Application.Status)
	}
	if !detail.Application.StatusEmailSent {
		t.Error("status_email_sent not stamped")
	}
	if len(env.mailer.sent) != 1 {
		t.Fatalf("sent emails = %d, want 1", len(env.mailer.sent))
	}
	if tmpl := env.mailer.sent[0].TemplateName; tmpl != "status-rejected" {
		t.Errorf("template = %q, want status-rejected", tmpl)
	}
}

func TestUpdateStatusInvalid(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.UpdateStatus(context.Background(), 1, "maybe"); err == nil {
		t.Fatal("UpdateStatus() should reject unknown statuses")
	}
}

func TestUpdateStatusEmailFailureKeepsStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Submit(ctx, validAnswers(env.course.ID))
	if err != nil {
		t.Fatalf("Submit(): %v", err)
	}
	env.mailer.err = context.DeadlineExceeded

	detail, err := env.svc.UpdateStatus(ctx, res.ApplicationID, application.StatusRejected)
	if err != nil {
		t.Fatalf("UpdateStatus(): %v", err)
	}
	if detail.Application.Status != application.StatusRejected {
		t.Errorf("status = %q, want rejected", detail.Application.Status)
	}
	if detail.Application.StatusEmailSent {
		t.Error("status_email_sent should not be stamped when the email fails")
	}
}
