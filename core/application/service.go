package application

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/sheleads/intake/core"
	"github.com/sheleads/intake/core/course"
)

var (
	// ErrNotFound is returned when a requested application does not exist.
	ErrNotFound = core.NewNotFoundError("application not found")
	// ErrApplicantNotFound is returned when a requested applicant does not exist.
	ErrApplicantNotFound = core.NewNotFoundError("applicant not found")
)

type (
	// Repository persists applicants, applications and document records.
	Repository interface {
		CreateApplicant(ctx context.Context, applicant Applicant) (Applicant, error)
		UpdateApplicant(ctx context.Context, applicant Applicant) (Applicant, error)
		GetApplicantByEmail(ctx context.Context, email string) (Applicant, error)
		SetApplicantDriveFolder(ctx context.Context, applicantID int, folder core.StoredFile) error

		CreateApplication(ctx context.Context, app Application) (Application, error)
		GetApplicationByID(ctx context.Context, id int) (Detail, error)
		FilterApplications(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Summary, error)
		LatestApplicationByEmail(ctx context.Context, email string) (Summary, error)
		UpdateApplicationStatus(ctx context.Context, id int, status string, now time.Time) error
		SetApplicationEmailSent(ctx context.Context, id int, at time.Time) error
		SetApplicationStatusEmailSent(ctx context.Context, id int, at time.Time) error
		SetApplicationDriveFolderLink(ctx context.Context, id int, link string) error

		CreateDocument(ctx context.Context, doc Document) (Document, error)
	}

	// CourseResolver looks up the course a submission applies to.
	// *course.Service satisfies it.
	CourseResolver interface {
		GetByID(ctx context.Context, id int) (course.Course, error)
	}

	Service struct {
		repo    Repository
		courses CourseResolver
		mailSvc core.EmailService
		sheets  core.SheetAppender
		docs    core.DocumentStore
		logger  core.Logger
		conf    *core.Config
	}
)

func NewService(
	repo Repository,
	courses CourseResolver,
	mailSvc core.EmailService,
	sheets core.SheetAppender,
	docs core.DocumentStore,
	logger core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		repo:    repo,
		courses: courses,
		mailSvc: mailSvc,
		sheets:  sheets,
		docs:    docs,
		logger:  logger,
		conf:    conf,
	}
}

// Submit runs a structurally valid answer set through the intake pipeline.
// The returned error is nil whenever the application was stored, even if
// best-effort stages (spreadsheet, documents, email) degraded.
func (svc *Service) Submit(ctx context.Context, answers AnswerRecord) (SubmissionResult, error) {
	var flds []core.FieldError
	for _, f := range []string{FieldFullName, FieldEmail, FieldPreferredCourse} {
		if !answers.Answered(f) {
			flds = append(flds, core.FieldError{Field: f, Error: "this field is required"})
		}
	}
	if email := answers.String(FieldEmail); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			flds = append(flds, core.FieldError{Field: FieldEmail, Error: "must be a valid email address"})
		}
	}
	if len(flds) > 0 {
		return SubmissionResult{Status: ResultFailed},
			core.NewValidationError(errors.New("submission is incomplete"), flds...)
	}

	st := newPipelineState(answers, time.Now().UTC())
	return svc.run(ctx, st)
}

// EmailCheck is the pre-flight answer for an email address. Application is
// only set when the address already holds a submission.
type EmailCheck struct {
	Success     bool     `json:"success"`
	Exists      bool     `json:"exists"`
	Message     string   `json:"message"`
	Application *Summary `json:"application,omitempty"`
}

// CheckEmail tells the wizard whether an address already applied. The check is
// advisory; a duplicate address at submission time is still accepted.
func (svc *Service) CheckEmail(ctx context.Context, email string) (EmailCheck, error) {
	email = core.CleanString(email, true)
	if email == "" {
		return EmailCheck{}, core.NewValidationError(
			errors.New("invalid email"),
			core.FieldError{Field: FieldEmail, Error: "this field is required"},
		)
	}

	summary, err := svc.repo.LatestApplicationByEmail(ctx, email)
	switch {
	case err == nil:
		return EmailCheck{
			Success:     true,
			Exists:      true,
			Message:     fmt.Sprintf("An application for %s already exists.", summary.CourseName),
			Application: &summary,
		}, nil
	case core.IsNotFound(errors.Cause(err)):
		return EmailCheck{Success: true, Exists: false, Message: "Email is available."}, nil
	default:
		return EmailCheck{}, errors.Wrap(err, "checking email")
	}
}

// ----- pipeline stages -----

func (svc *Service) sanitizeStage(_ context.Context, st *pipelineState) error {
	a := st.answers
	a.Set(FieldEmail, core.CleanString(a.String(FieldEmail), true))
	a.Set(FieldFullName, core.CleanString(a.String(FieldFullName)))
	a.Set(FieldEmploymentStatus, SanitizeEmploymentStatus(a.String(FieldEmploymentStatus)))
	a.Set(FieldLocationType, SanitizeLocationType(a.String(FieldLocationType)))
	a.Set(FieldAcademicQualification, SanitizeAcademicQualification(a.String(FieldAcademicQualification)))
	a.Set(FieldStudentLevel, SanitizeStudentLevel(a.String(FieldStudentLevel)))
	a.Set(FieldReferralSource, SanitizeReferralSource(a.String(FieldReferralSource)))
	a.Set(FieldDateOfBirth, SanitizeDateOfBirth(a.String(FieldDateOfBirth), st.now))
	st.businessAge = SanitizeBusinessAge(a.String(FieldBusinessStatus))
	return nil
}

func (svc *Service) resolveCourseStage(ctx context.Context, st *pipelineState) error {
	id, ok := st.answers.Int(FieldPreferredCourse)
	if !ok {
		return core.NewValidationError(
			errors.New("invalid course selection"),
			core.FieldError{Field: FieldPreferredCourse, Error: "must be a course id"},
		)
	}

	crs, err := svc.courses.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(errors.Cause(err)) || errors.Cause(err) == course.ErrNotFound {
			return core.NewNotFoundError(fmt.Sprintf("course %d not found", id))
		}
		return errors.Wrap(err, "resolving course")
	}

	st.application.CourseID = crs.ID
	st.courseName = crs.Name
	st.courseDesc = crs.Description
	st.detail.Course = crs
	return nil
}

func (svc *Service) createApplicantStage(ctx context.Context, st *pipelineState) error {
	a := st.answers

	isDisplaced, _ := a.Bool(FieldIsDisplaced)
	hasDisability, _ := a.Bool(FieldHasDisability)
	hasJobberman, _ := a.Bool(FieldHasJobbermanCertificate)

	disabilityType := ""
	if hasDisability {
		disabilityType = a.String(FieldDisabilityType)
		if disabilityType == "" {
			disabilityType = "Not specified"
		}
	}

	applicant := Applicant{
		FullName:                a.String(FieldFullName),
		Email:                   a.String(FieldEmail),
		PhoneNumber:             orNA(a.String(FieldPhoneNumber)),
		DateOfBirth:             a.String(FieldDateOfBirth),
		Location:                orNA(a.String(FieldLocation)),
		LocationType:            a.String(FieldLocationType),
		AcademicQualification:   a.String(FieldAcademicQualification),
		StudentLevel:            a.String(FieldStudentLevel),
		EmploymentStatus:        a.String(FieldEmploymentStatus),
		IsDisplaced:             isDisplaced,
		HasDisability:           hasDisability,
		DisabilityType:          disabilityType,
		HasJobbermanCertificate: hasJobberman,
		ReferralSource:          a.String(FieldReferralSource),
		AmbassadorCode:          a.String(FieldAmbassadorCode),
		CreatedAt:               st.now,
	}

	// an address that applied before reuses its applicant record; the
	// demographics are refreshed from the latest answers
	existing, err := svc.repo.GetApplicantByEmail(ctx, applicant.Email)
	switch {
	case err == nil:
		applicant.ID = existing.ID
		applicant.CreatedAt = existing.CreatedAt
		applicant.DriveFolderID = existing.DriveFolderID
		applicant.DriveFolderLink = existing.DriveFolderLink
		applicant, err = svc.repo.UpdateApplicant(ctx, applicant)
		if err != nil {
			return errors.Wrap(err, "refreshing applicant")
		}
	case core.IsNotFound(errors.Cause(err)):
		applicant, err = svc.repo.CreateApplicant(ctx, applicant)
		if err != nil {
			return errors.Wrap(err, "creating applicant")
		}
	default:
		return errors.Wrap(err, "looking up applicant")
	}
	st.applicant = applicant
	return nil
}

func (svc *Service) createApplicationStage(ctx context.Context, st *pipelineState) error {
	a := st.answers

	hasBusiness := false
	if bs := a.String(FieldBusinessStatus); bs != "" && bs != BusinessNone {
		hasBusiness = true
	}
	takenBooster, _ := a.Bool(FieldTakenBoosterCourse)
	workInterest, _ := a.Bool(FieldWorkInterest)

	app := Application{
		ApplicantID:          st.applicant.ID,
		CourseID:             st.application.CourseID,
		Pathway:              a.String(FieldPathway),
		HasBusiness:          hasBusiness,
		BusinessAge:          st.businessAge,
		BusinessSector:       a.String(FieldBusinessSector),
		CompanyName:          a.String(FieldCompanyName),
		TakenBoosterCourse:   takenBooster,
		WorkInterest:         workInterest,
		HasFormalTraining:    a.String(FieldHasFormalTraining),
		HasUsedTools:         a.String(FieldHasUsedTools),
		ToolsUsed:            strings.Join(a.StringSlice(FieldToolsUsed), ", "),
		CourseSpecificAnswer: a.String(FieldCourseSpecificAnswer),
		SocialMediaPlatforms: a.StringSlice(FieldSocialMediaPlatforms),
		DigitalStrategies:    a.StringSlice(FieldDigitalStrategies),
		Expectations:         a.String(FieldExpectations),
		Status:               StatusApproved,
		SubmittedAt:          st.now,
		UpdatedAt:            st.now,
	}
	if n, ok := a.Int(FieldFamiliarityScale); ok {
		app.FamiliarityScale = &n
	}
	if n, ok := a.Int(FieldApplicationEaseRating); ok {
		app.ApplicationEaseRating = &n
	}
	if other := a.String(FieldOtherPlatform); other != "" {
		app.SocialMediaPlatforms = append(app.SocialMediaPlatforms, other)
	}

	app, err := svc.repo.CreateApplication(ctx, app)
	if err != nil {
		return errors.Wrap(err, "creating application")
	}
	st.application = app
	return nil
}

func (svc *Service) sheetLogStage(ctx context.Context, st *pipelineState) error {
	if svc.sheets == nil {
		return nil
	}
	return svc.sheets.AppendRow(ctx, st.sheetRow())
}

func (svc *Service) storeDocumentsStage(ctx context.Context, st *pipelineState) error {
	if svc.docs == nil {
		return nil
	}
	a := st.answers

	folderName := fmt.Sprintf("%s - %s", st.applicant.FullName, st.now.Format(DateLayout))
	folder, err := svc.docs.CreateFolder(ctx, svc.conf.Google.DriveFolderID, folderName)
	if err != nil {
		return errors.Wrap(err, "creating applicant folder")
	}
	if err := svc.repo.SetApplicantDriveFolder(ctx, st.applicant.ID, folder); err != nil {
		svc.logger.Warn("submission %s: recording folder for applicant %d: %v", st.reference, st.applicant.ID, err)
	}

	if _, err := svc.docs.UploadFile(ctx, folder.ID, "application-summary.txt",
		[]byte(st.summaryText()), "text/plain"); err != nil {
		svc.logger.Warn("submission %s: uploading summary: %v", st.reference, err)
	}

	for _, field := range []string{FieldIDDocument, FieldCV, FieldAcademicCertificate} {
		file, ok := a.File(field)
		if !ok {
			continue
		}
		if !AllowedDocumentType(file.Type) {
			svc.logger.Warn("submission %s: skipping %s: disallowed type %q", st.reference, field, file.Type)
			continue
		}
		content, err := file.Decode()
		if err != nil {
			svc.logger.Warn("submission %s: skipping %s: %v", st.reference, field, err)
			continue
		}
		if int64(len(content)) > svc.conf.Submission.MaxUploadSize {
			svc.logger.Warn("submission %s: skipping %s: %d bytes exceeds limit", st.reference, field, len(content))
			continue
		}

		stored, err := svc.docs.UploadFile(ctx, folder.ID, field+"-"+file.Name, content, file.Type)
		if err != nil {
			return errors.Wrapf(err, "uploading %s", field)
		}
		doc := Document{
			ApplicantID:   st.applicant.ID,
			DocumentType:  field,
			FileName:      file.Name,
			DriveFileID:   stored.ID,
			DriveFileLink: stored.Link,
			CreatedAt:     st.now,
		}
		if _, err := svc.repo.CreateDocument(ctx, doc); err != nil {
			svc.logger.Warn("submission %s: recording %s document: %v", st.reference, field, err)
		}
	}

	if err := svc.repo.SetApplicationDriveFolderLink(ctx, st.application.ID, folder.Link); err != nil {
		svc.logger.Warn("submission %s: recording folder link: %v", st.reference, err)
	}
	return nil
}

func (svc *Service) sendEmailStage(ctx context.Context, st *pipelineState) error {
	msg := svc.confirmationMessage(st.applicant, st.detail.Course)
	if err := svc.mailSvc.SendMessage(msg); err != nil {
		return errors.Wrap(err, "sending confirmation email")
	}
	if err := svc.repo.SetApplicationEmailSent(ctx, st.application.ID, time.Now().UTC()); err != nil {
		svc.logger.Warn("submission %s: stamping email_sent: %v", st.reference, err)
	}
	return nil
}

// ----- admin operations -----

func (svc *Service) Filter(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Summary, error) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "submitted_at"}}
	}
	return svc.repo.FilterApplications(ctx, filter, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Detail, error) {
	return svc.repo.GetApplicationByID(ctx, id)
}

// UpdateStatus moves an application to a new status and notifies the
// applicant. The status change sticks even when the notification fails.
func (svc *Service) UpdateStatus(ctx context.Context, id int, status string) (Detail, error) {
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
	default:
		return Detail{}, core.NewValidationError(
			errors.New("invalid status"),
			core.FieldError{Field: "status", Error: "must be one of: pending, approved, rejected"},
		)
	}

	now := time.Now().UTC()
	if err := svc.repo.UpdateApplicationStatus(ctx, id, status, now); err != nil {
		return Detail{}, errors.Wrap(err, "updating status")
	}

	detail, err := svc.repo.GetApplicationByID(ctx, id)
	if err != nil {
		return Detail{}, errors.Wrap(err, "loading application")
	}

	msg := svc.statusMessage(detail, status)
	if err := svc.mailSvc.SendMessage(msg); err != nil {
		svc.logger.Warn("application %d: sending status email: %v", id, err)
		return detail, nil
	}
	if err := svc.repo.SetApplicationStatusEmailSent(ctx, id, now); err != nil {
		svc.logger.Warn("application %d: stamping status_email_sent: %v", id, err)
	}
	detail.Application.StatusEmailSent = true
	detail.Application.StatusEmailSentAt = &now
	return detail, nil
}

// ResendConfirmation sends the approval email again for an existing application.
func (svc *Service) ResendConfirmation(ctx context.Context, id int) error {
	detail, err := svc.repo.GetApplicationByID(ctx, id)
	if err != nil {
		return errors.Wrap(err, "loading application")
	}

	msg := svc.confirmationMessage(detail.Applicant, detail.Course)
	if err := svc.mailSvc.SendMessage(msg); err != nil {
		return errors.Wrap(err, "sending confirmation email")
	}
	if err := svc.repo.SetApplicationEmailSent(ctx, id, time.Now().UTC()); err != nil {
		svc.logger.Warn("application %d: stamping email_sent: %v", id, err)
	}
	return nil
}

// ----- email payloads -----

type courseEmailData struct {
	ApplicantName string
	CourseName    string
	Description   string
	StartDate     string
	Schedule      string
	Duration      string
	Location      string
	Tutor         string
	Requirements  string
	ClassLink     string
	Status        string
}

func (svc *Service) confirmationMessage(applicant Applicant, crs course.Course) *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: applicant.FullName, Address: applicant.Email}},
		Subject:      fmt.Sprintf("Your Application for %s is Approved! 🎉", crs.Name),
		TemplateName: "application-approved",
		TemplateData: courseEmailData{
			ApplicantName: applicant.FullName,
			CourseName:    crs.Name,
			Description:   crs.Description,
			StartDate:     formatStartDate(crs.StartDate),
			Schedule:      crs.Schedule,
			Duration:      crs.Duration,
			Location:      crs.Location,
			Tutor:         crs.Tutor,
			Requirements:  crs.Requirements,
			ClassLink:     crs.ClassLink,
		},
	}
}

func (svc *Service) statusMessage(detail Detail, status string) *core.EmailMessage {
	data := courseEmailData{
		ApplicantName: detail.Applicant.FullName,
		CourseName:    detail.Course.Name,
		Description:   detail.Course.Description,
		StartDate:     formatStartDate(detail.Course.StartDate),
		Schedule:      detail.Course.Schedule,
		Duration:      detail.Course.Duration,
		Location:      detail.Course.Location,
		Tutor:         detail.Course.Tutor,
		Requirements:  detail.Course.Requirements,
		ClassLink:     detail.Course.ClassLink,
		Status:        status,
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: detail.Applicant.FullName, Address: detail.Applicant.Email}},
		TemplateData: data,
	}
	switch status {
	case StatusApproved:
		msg.Subject = fmt.Sprintf("Your Application for %s has been Approved", detail.Course.Name)
		msg.TemplateName = "status-approved"
	case StatusRejected:
		msg.Subject = fmt.Sprintf("Update on Your Application for %s", detail.Course.Name)
		msg.TemplateName = "status-rejected"
	default:
		msg.Subject = fmt.Sprintf("Update on Your Application for %s", detail.Course.Name)
		msg.TemplateName = "status-update"
	}
	return msg
}

// ----- spreadsheet and summary rendering -----

// sheetRow lays out a submission as one spreadsheet row, column order fixed.
func (st *pipelineState) sheetRow() []interface{} {
	applicant := st.applicant
	app := st.application

	return []interface{}{
		st.now.Format(time.RFC3339),
		applicant.ID,
		app.ID,
		applicant.FullName,
		applicant.Email,
		applicant.PhoneNumber,
		applicant.DateOfBirth,
		applicant.Location,
		applicant.LocationType,
		applicant.AcademicQualification,
		orNA(applicant.StudentLevel),
		applicant.EmploymentStatus,
		yesNo(applicant.IsDisplaced),
		yesNo(applicant.HasDisability),
		orNA(applicant.DisabilityType),
		yesNo(applicant.HasJobbermanCertificate),
		applicant.ReferralSource,
		orNA(applicant.AmbassadorCode),
		st.courseName,
		app.Pathway,
		yesNo(app.HasBusiness),
		app.BusinessAge,
		orNA(app.BusinessSector),
		orNA(app.CompanyName),
		yesNo(app.TakenBoosterCourse),
		yesNo(app.WorkInterest),
		orNA(app.HasFormalTraining),
		intOrNA(app.FamiliarityScale),
		orNA(app.HasUsedTools),
		orNA(app.ToolsUsed),
		orNA(app.CourseSpecificAnswer),
		orNA(strings.Join(app.SocialMediaPlatforms, ", ")),
		orNA(strings.Join(app.DigitalStrategies, ", ")),
		orNA(app.Expectations),
		intOrNA(app.ApplicationEaseRating),
		app.Status,
	}
}

func (st *pipelineState) summaryText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Application Summary\n===================\n\n")
	fmt.Fprintf(&b, "Reference: %s\n", st.reference)
	fmt.Fprintf(&b, "Submitted: %s\n\n", st.now.Format(time.RFC3339))
	fmt.Fprintf(&b, "Name: %s\n", st.applicant.FullName)
	fmt.Fprintf(&b, "Email: %s\n", st.applicant.Email)
	fmt.Fprintf(&b, "Phone: %s\n", st.applicant.PhoneNumber)
	fmt.Fprintf(&b, "Date of Birth: %s\n", st.applicant.DateOfBirth)
	fmt.Fprintf(&b, "Location: %s (%s)\n", st.applicant.Location, st.applicant.LocationType)
	fmt.Fprintf(&b, "Course: %s\n", st.courseName)
	fmt.Fprintf(&b, "Pathway: %s\n", orNA(st.application.Pathway))
	fmt.Fprintf(&b, "Status: %s\n", st.application.Status)
	return b.String()
}

func formatStartDate(t time.Time) string {
	if t.IsZero() {
		return "To be announced"
	}
	return t.Format("Monday, 2 January 2006")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func intOrNA(n *int) string {
	if n == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *n)
}
