package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/sheleads/intake/core"
	"github.com/sheleads/intake/core/application"
	"github.com/sheleads/intake/core/course"
)

type applicationRepository struct {
	exec    core.DBExecutor
	courses *courseRepository
}

var _ application.Repository = (*applicationRepository)(nil) // interface compliance check

func NewApplicationRepository(exec core.DBExecutor) *applicationRepository {
	return &applicationRepository{exec: exec, courses: NewCourseRepository(exec)}
}

type applicantRow struct {
	ID                      int         `db:"id"`
	FullName                string      `db:"full_name"`
	Email                   string      `db:"email"`
	PhoneNumber             null.String `db:"phone_number"`
	DateOfBirth             null.String `db:"date_of_birth"`
	Location                null.String `db:"location"`
	LocationType            null.String `db:"location_type"`
	AcademicQualification   null.String `db:"academic_qualification"`
	StudentLevel            null.String `db:"student_level"`
	EmploymentStatus        null.String `db:"employment_status"`
	IsDisplaced             bool        `db:"is_displaced"`
	HasDisability           bool        `db:"has_disability"`
	DisabilityType          null.String `db:"disability_type"`
	HasJobbermanCertificate bool        `db:"has_jobberman_certificate"`
	ReferralSource          null.String `db:"referral_source"`
	AmbassadorCode          null.String `db:"ambassador_code"`
	DriveFolderID           null.String `db:"drive_folder_id"`
	DriveFolderLink         null.String `db:"drive_folder_link"`
	CreatedAt               time.Time   `db:"created_at"`
}

func packApplicant(a application.Applicant) applicantRow {
	return applicantRow{
		ID:                      a.ID,
		FullName:                a.FullName,
		Email:                   a.Email,
		PhoneNumber:             null.NewString(a.PhoneNumber, a.PhoneNumber != ""),
		DateOfBirth:             null.NewString(a.DateOfBirth, a.DateOfBirth != ""),
		Location:                null.NewString(a.Location, a.Location != ""),
		LocationType:            null.NewString(a.LocationType, a.LocationType != ""),
		AcademicQualification:   null.NewString(a.AcademicQualification, a.AcademicQualification != ""),
		StudentLevel:            null.NewString(a.StudentLevel, a.StudentLevel != ""),
		EmploymentStatus:        null.NewString(a.EmploymentStatus, a.EmploymentStatus != ""),
		IsDisplaced:             a.IsDisplaced,
		HasDisability:           a.HasDisability,
		DisabilityType:          null.NewString(a.DisabilityType, a.DisabilityType != ""),
		HasJobbermanCertificate: a.HasJobbermanCertificate,
		ReferralSource:          null.NewString(a.ReferralSource, a.ReferralSource != ""),
		AmbassadorCode:          null.NewString(a.AmbassadorCode, a.AmbassadorCode != ""),
		DriveFolderID:           null.NewString(a.DriveFolderID, a.DriveFolderID != ""),
		DriveFolderLink:         null.NewString(a.DriveFolderLink, a.DriveFolderLink != ""),
		CreatedAt:               a.CreatedAt.UTC(),
	}
}

func unpackApplicant(row applicantRow) application.Applicant {
	return application.Applicant{
		ID:                      row.ID,
		FullName:                row.FullName,
		Email:                   row.Email,
		PhoneNumber:             row.PhoneNumber.String,
		DateOfBirth:             row.DateOfBirth.String,
		Location:                row.Location.String,
		LocationType:            row.LocationType.String,
		AcademicQualification:   row.AcademicQualification.String,
		StudentLevel:            row.StudentLevel.String,
		EmploymentStatus:        row.EmploymentStatus.String,
		IsDisplaced:             row.IsDisplaced,
		HasDisability:           row.HasDisability,
		DisabilityType:          row.DisabilityType.String,
		HasJobbermanCertificate: row.HasJobbermanCertificate,
		ReferralSource:          row.ReferralSource.String,
		AmbassadorCode:          row.AmbassadorCode.String,
		DriveFolderID:           row.DriveFolderID.String,
		DriveFolderLink:         row.DriveFolderLink.String,
		CreatedAt:               row.CreatedAt,
	}
}

type applicationRow struct {
	ID                    int         `db:"id"`
	ApplicantID           int         `db:"applicant_id"`
	CourseID              int         `db:"course_id"`
	Pathway               null.String `db:"pathway"`
	HasBusiness           bool        `db:"has_business"`
	BusinessAge           null.String `db:"business_age"`
	BusinessSector        null.String `db:"business_sector"`
	CompanyName           null.String `db:"company_name"`
	TakenBoosterCourse    bool        `db:"taken_booster_course"`
	WorkInterest          bool        `db:"work_interest"`
	HasFormalTraining     null.String `db:"has_formal_training"`
	FamiliarityScale      null.Int    `db:"familiarity_scale"`
	HasUsedTools          null.String `db:"has_used_tools"`
	ToolsUsed             null.String `db:"tools_used"`
	CourseSpecificAnswer  null.String `db:"course_specific_answer"`
	SocialMediaPlatforms  null.String `db:"social_media_platforms"`
	DigitalStrategies     null.String `db:"digital_strategies"`
	Expectations          null.String `db:"expectations"`
	ApplicationEaseRating null.Int    `db:"application_ease_rating"`
	Status                string      `db:"status"`
	EmailSent             bool        `db:"email_sent"`
	EmailSentAt           null.Time   `db:"email_sent_at"`
	StatusEmailSent       bool        `db:"status_email_sent"`
	StatusEmailSentAt     null.Time   `db:"status_email_sent_at"`
	DriveFolderLink       null.String `db:"drive_folder_link"`
	SubmittedAt           time.Time   `db:"submitted_at"`
	UpdatedAt             time.Time   `db:"updated_at"`
}

func packList(values []string) null.String {
	if len(values) == 0 {
		return null.String{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return null.String{}
	}
	return null.StringFrom(string(data))
}

func unpackList(raw null.String) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw.String), &values); err != nil {
		return nil
	}
	return values
}

func packApplication(app application.Application) applicationRow {
	return applicationRow{
		ID:                    app.ID,
		ApplicantID:           app.ApplicantID,
		CourseID:              app.CourseID,
		Pathway:               null.NewString(app.Pathway, app.Pathway != ""),
		HasBusiness:           app.HasBusiness,
		BusinessAge:           null.NewString(app.BusinessAge, app.BusinessAge != ""),
		BusinessSector:        null.NewString(app.BusinessSector, app.BusinessSector != ""),
		CompanyName:           null.NewString(app.CompanyName, app.CompanyName != ""),
		TakenBoosterCourse:    app.TakenBoosterCourse,
		WorkInterest:          app.WorkInterest,
		HasFormalTraining:     null.NewString(app.HasFormalTraining, app.HasFormalTraining != ""),
		FamiliarityScale:      null.IntFromPtr(app.FamiliarityScale),
		HasUsedTools:          null.NewString(app.HasUsedTools, app.HasUsedTools != ""),
		ToolsUsed:             null.NewString(app.ToolsUsed, app.ToolsUsed != ""),
		CourseSpecificAnswer:  null.NewString(app.CourseSpecificAnswer, app.CourseSpecificAnswer != ""),
		SocialMediaPlatforms:  packList(app.SocialMediaPlatforms),
		DigitalStrategies:     packList(app.DigitalStrategies),
		Expectations:          null.NewString(app.Expectations, app.Expectations != ""),
		ApplicationEaseRating: null.IntFromPtr(app.ApplicationEaseRating),
		Status:                app.Status,
		EmailSent:             app.EmailSent,
		EmailSentAt:           null.TimeFromPtr(app.EmailSentAt),
		StatusEmailSent:       app.StatusEmailSent,
		StatusEmailSentAt:     null.TimeFromPtr(app.StatusEmailSentAt),
		DriveFolderLink:       null.NewString(app.DriveFolderLink, app.DriveFolderLink != ""),
		SubmittedAt:           app.SubmittedAt.UTC(),
		UpdatedAt:             app.UpdatedAt.UTC(),
	}
}

func unpackApplication(row applicationRow) application.Application {
	return application.Application{
		ID:                    row.ID,
		ApplicantID:           row.ApplicantID,
		CourseID:              row.CourseID,
		Pathway:               row.Pathway.String,
		HasBusiness:           row.HasBusiness,
		BusinessAge:           row.BusinessAge.String,
		BusinessSector:        row.BusinessSector.String,
		CompanyName:           row.CompanyName.String,
		TakenBoosterCourse:    row.TakenBoosterCourse,
		WorkInterest:          row.WorkInterest,
		HasFormalTraining:     row.HasFormalTraining.String,
		FamiliarityScale:      row.FamiliarityScale.Ptr(),
		HasUsedTools:          row.HasUsedTools.String,
		ToolsUsed:             row.ToolsUsed.String,
		CourseSpecificAnswer:  row.CourseSpecificAnswer.String,
		SocialMediaPlatforms:  unpackList(row.SocialMediaPlatforms),
		DigitalStrategies:     unpackList(row.DigitalStrategies),
		Expectations:          row.Expectations.String,
		ApplicationEaseRating: row.ApplicationEaseRating.Ptr(),
		Status:                row.Status,
		EmailSent:             row.EmailSent,
		EmailSentAt:           row.EmailSentAt.Ptr(),
		StatusEmailSent:       row.StatusEmailSent,
		StatusEmailSentAt:     row.StatusEmailSentAt.Ptr(),
		DriveFolderLink:       row.DriveFolderLink.String,
		SubmittedAt:           row.SubmittedAt,
		UpdatedAt:             row.UpdatedAt,
	}
}

type summaryRow struct {
	applicationRow
	ApplicantName           string      `db:"applicant_name"`
	ApplicantEmail          string      `db:"applicant_email"`
	ApplicantPhone          null.String `db:"applicant_phone"`
	ApplicantDOB            null.String `db:"applicant_dob"`
	ApplicantLocation       null.String `db:"applicant_location"`
	ApplicantLocationType   null.String `db:"applicant_location_type"`
	ApplicantQualification  null.String `db:"applicant_qualification"`
	ApplicantStudentLevel   null.String `db:"applicant_student_level"`
	ApplicantEmployment     null.String `db:"applicant_employment"`
	ApplicantIsDisplaced    bool        `db:"applicant_is_displaced"`
	ApplicantHasDisability  bool        `db:"applicant_has_disability"`
	ApplicantDisabilityType null.String `db:"applicant_disability_type"`
	ApplicantHasJobberman   bool        `db:"applicant_has_jobberman"`
	ApplicantReferral       null.String `db:"applicant_referral_source"`
	ApplicantAmbassador     null.String `db:"applicant_ambassador_code"`
	CourseName              string      `db:"course_name"`
}

func unpackSummary(row summaryRow) application.Summary {
	return application.Summary{
		Application:             unpackApplication(row.applicationRow),
		ApplicantName:           row.ApplicantName,
		ApplicantEmail:          row.ApplicantEmail,
		ApplicantPhone:          row.ApplicantPhone.String,
		DateOfBirth:             row.ApplicantDOB.String,
		Location:                row.ApplicantLocation.String,
		LocationType:            row.ApplicantLocationType.String,
		AcademicQualification:   row.ApplicantQualification.String,
		StudentLevel:            row.ApplicantStudentLevel.String,
		EmploymentStatus:        row.ApplicantEmployment.String,
		IsDisplaced:             row.ApplicantIsDisplaced,
		HasDisability:           row.ApplicantHasDisability,
		DisabilityType:          row.ApplicantDisabilityType.String,
		HasJobbermanCertificate: row.ApplicantHasJobberman,
		ReferralSource:          row.ApplicantReferral.String,
		AmbassadorCode:          row.ApplicantAmbassador.String,
		CourseName:              row.CourseName,
	}
}

func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func (repo applicationRepository) CreateApplicant(ctx context.Context, applicant application.Applicant) (application.Applicant, error) {
	row := packApplicant(applicant)
	query := `
		INSERT INTO applicant (
			full_name, email, phone_number, date_of_birth, location, location_type,
			academic_qualification, student_level, employment_status, is_displaced,
			has_disability, disability_type, has_jobberman_certificate, referral_source,
			ambassador_code, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`
	err := repo.exec.QueryRowxContext(ctx, query,
		row.FullName, row.Email, row.PhoneNumber, row.DateOfBirth, row.Location,
		row.LocationType, row.AcademicQualification, row.StudentLevel, row.EmploymentStatus,
		row.IsDisplaced, row.HasDisability, row.DisabilityType, row.HasJobbermanCertificate,
		row.ReferralSource, row.AmbassadorCode, row.CreatedAt,
	).Scan(&applicant.ID)
	if err != nil {
		return application.Applicant{}, errors.Wrap(err, "creating applicant")
	}
	return applicant, nil
}

func (repo applicationRepository) UpdateApplicant(ctx context.Context, applicant application.Applicant) (application.Applicant, error) {
	row := packApplicant(applicant)
	query := `
		UPDATE applicant
		SET full_name = $1, phone_number = $2, date_of_birth = $3, location = $4,
			location_type = $5, academic_qualification = $6, student_level = $7,
			employment_status = $8, is_displaced = $9, has_disability = $10,
			disability_type = $11, has_jobberman_certificate = $12, referral_source = $13,
			ambassador_code = $14
		WHERE id = $15`
	res, err := repo.exec.ExecContext(ctx, query,
		row.FullName, row.PhoneNumber, row.DateOfBirth, row.Location, row.LocationType,
		row.AcademicQualification, row.StudentLevel, row.EmploymentStatus, row.IsDisplaced,
		row.HasDisability, row.DisabilityType, row.HasJobbermanCertificate,
		row.ReferralSource, row.AmbassadorCode, row.ID,
	)
	if err != nil {
		return application.Applicant{}, errors.Wrap(err, "updating applicant")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return application.Applicant{}, application.ErrApplicantNotFound
	}
	return applicant, nil
}

func (repo applicationRepository) GetApplicantByEmail(ctx context.Context, email string) (application.Applicant, error) {
	var row applicantRow
	query := `SELECT * FROM applicant WHERE email = $1`
	if err := repo.exec.GetContext(ctx, &row, query, email); err != nil {
		return application.Applicant{}, trapNoRowsErr(err, application.ErrApplicantNotFound, "getting applicant")
	}
	return unpackApplicant(row), nil
}

func (repo applicationRepository) SetApplicantDriveFolder(ctx context.Context, applicantID int, folder core.StoredFile) error {
	query := `UPDATE applicant SET drive_folder_id = $1, drive_folder_link = $2 WHERE id = $3`
	if _, err := repo.exec.ExecContext(ctx, query, folder.ID, folder.Link, applicantID); err != nil {
		return errors.Wrap(err, "setting applicant folder")
	}
	return nil
}

func (repo applicationRepository) CreateApplication(ctx context.Context, app application.Application) (application.Application, error) {
	row := packApplication(app)
	query := `
		INSERT INTO application (
			applicant_id, course_id, pathway, has_business, business_age, business_sector,
			company_name, taken_booster_course, work_interest, has_formal_training,
			familiarity_scale, has_used_tools, tools_used, course_specific_answer,
			social_media_platforms, digital_strategies, expectations, application_ease_rating,
			status, submitted_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id`
	err := repo.exec.QueryRowxContext(ctx, query,
		row.ApplicantID, row.CourseID, row.Pathway, row.HasBusiness, row.BusinessAge,
		row.BusinessSector, row.CompanyName, row.TakenBoosterCourse, row.WorkInterest,
		row.HasFormalTraining, row.FamiliarityScale, row.HasUsedTools, row.ToolsUsed,
		row.CourseSpecificAnswer, row.SocialMediaPlatforms, row.DigitalStrategies,
		row.Expectations, row.ApplicationEaseRating, row.Status, row.SubmittedAt, row.UpdatedAt,
	).Scan(&app.ID)
	if err != nil {
		return application.Application{}, errors.Wrap(err, "creating application")
	}
	return app, nil
}

func (repo applicationRepository) GetApplicationByID(ctx context.Context, id int) (application.Detail, error) {
	var row applicationRow
	query := `SELECT * FROM application WHERE id = $1`
	if err := repo.exec.GetContext(ctx, &row, query, id); err != nil {
		return application.Detail{}, trapNoRowsErr(err, application.ErrNotFound, "getting application")
	}
	app := unpackApplication(row)

	var appRow applicantRow
	query = `SELECT * FROM applicant WHERE id = $1`
	if err := repo.exec.GetContext(ctx, &appRow, query, app.ApplicantID); err != nil {
		return application.Detail{}, trapNoRowsErr(err, application.ErrApplicantNotFound, "getting applicant")
	}

	crs, err := repo.courses.GetCourseByID(ctx, app.CourseID)
	if err != nil && errors.Cause(err) != course.ErrNotFound {
		return application.Detail{}, err
	}

	var docRows []documentRow
	query = `SELECT * FROM document WHERE applicant_id = $1 ORDER BY id ASC`
	if err := repo.exec.SelectContext(ctx, &docRows, query, app.ApplicantID); err != nil {
		return application.Detail{}, errors.Wrap(err, "querying documents")
	}
	docs := make([]application.Document, 0, len(docRows))
	for _, d := range docRows {
		docs = append(docs, unpackDocument(d))
	}

	return application.Detail{
		Application: app,
		Applicant:   unpackApplicant(appRow),
		Course:      crs,
		Documents:   docs,
	}, nil
}

const summarySelect = `
	SELECT a.*,
		ap.full_name AS applicant_name,
		ap.email AS applicant_email,
		ap.phone_number AS applicant_phone,
		ap.date_of_birth AS applicant_dob,
		ap.location AS applicant_location,
		ap.location_type AS applicant_location_type,
		ap.academic_qualification AS applicant_qualification,
		ap.student_level AS applicant_student_level,
		ap.employment_status AS applicant_employment,
		ap.is_displaced AS applicant_is_displaced,
		ap.has_disability AS applicant_has_disability,
		ap.disability_type AS applicant_disability_type,
		ap.has_jobberman_certificate AS applicant_has_jobberman,
		ap.referral_source AS applicant_referral_source,
		ap.ambassador_code AS applicant_ambassador_code,
		c.name AS course_name
	FROM application a
	JOIN applicant ap ON ap.id = a.applicant_id
	JOIN course c ON c.id = a.course_id`

func (repo applicationRepository) FilterApplications(ctx context.Context, filter application.QueryFilter, ordering ...core.DBOrdering) ([]application.Summary, error) {
	query := summarySelect
	var args []interface{}
	var conds []string
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if filter.CourseID != 0 {
		args = append(args, filter.CourseID)
		conds = append(conds, fmt.Sprintf("a.course_id = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += "\n\tWHERE " + strings.Join(conds, " AND ")
	}

	orderings := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		orderings = append(orderings, "a."+ord.String())
	}
	if len(orderings) == 0 {
		orderings = append(orderings, "a.submitted_at DESC")
	}
	query += "\n\tORDER BY " + strings.Join(orderings, ", ")

	var rows []summaryRow
	if err := repo.exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering applications")
	}

	summaries := make([]application.Summary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, unpackSummary(row))
	}
	return summaries, nil
}

func (repo applicationRepository) LatestApplicationByEmail(ctx context.Context, email string) (application.Summary, error) {
	query := summarySelect + `
	WHERE ap.email = $1
	ORDER BY a.submitted_at DESC
	LIMIT 1`
	var row summaryRow
	if err := repo.exec.GetContext(ctx, &row, query, email); err != nil {
		return application.Summary{}, trapNoRowsErr(err, application.ErrNotFound, "getting application by email")
	}
	return unpackSummary(row), nil
}

func (repo applicationRepository) UpdateApplicationStatus(ctx context.Context, id int, status string, now time.Time) error {
	query := `UPDATE application SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := repo.exec.ExecContext(ctx, query, status, now.UTC(), id)
	if err != nil {
		return errors.Wrap(err, "updating status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return application.ErrNotFound
	}
	return nil
}

func (repo applicationRepository) SetApplicationEmailSent(ctx context.Context, id int, at time.Time) error {
	query := `UPDATE application SET email_sent = TRUE, email_sent_at = $1 WHERE id = $2`
	if _, err := repo.exec.ExecContext(ctx, query, at.UTC(), id); err != nil {
		return errors.Wrap(err, "stamping email_sent")
	}
	return nil
}

func (repo applicationRepository) SetApplicationStatusEmailSent(ctx context.Context, id int, at time.Time) error {
	query := `UPDATE application SET status_email_sent = TRUE, status_email_sent_at = $1 WHERE id = $2`
	if _, err := repo.exec.ExecContext(ctx, query, at.UTC(), id); err != nil {
		return errors.Wrap(err, "stamping status_email_sent")
	}
	return nil
}

func (repo applicationRepository) SetApplicationDriveFolderLink(ctx context.Context, id int, link string) error {
	query := `UPDATE application SET drive_folder_link = $1 WHERE id = $2`
	if _, err := repo.exec.ExecContext(ctx, query, link, id); err != nil {
		return errors.Wrap(err, "setting folder link")
	}
	return nil
}

type documentRow struct {
	ID            int         `db:"id"`
	ApplicantID   int         `db:"applicant_id"`
	DocumentType  string      `db:"document_type"`
	FileName      string      `db:"file_name"`
	DriveFileID   null.String `db:"drive_file_id"`
	DriveFileLink null.String `db:"drive_file_link"`
	CreatedAt     time.Time   `db:"created_at"`
}

func unpackDocument(row documentRow) application.Document {
	return application.Document{
		ID:            row.ID,
		ApplicantID:   row.ApplicantID,
		DocumentType:  row.DocumentType,
		FileName:      row.FileName,
		DriveFileID:   row.DriveFileID.String,
		DriveFileLink: row.DriveFileLink.String,
		CreatedAt:     row.CreatedAt,
	}
}

func (repo applicationRepository) CreateDocument(ctx context.Context, doc application.Document) (application.Document, error) {
	query := `
		INSERT INTO document (applicant_id, document_type, file_name, drive_file_id, drive_file_link, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := repo.exec.QueryRowxContext(ctx, query,
		doc.ApplicantID, doc.DocumentType, doc.FileName,
		null.NewString(doc.DriveFileID, doc.DriveFileID != ""),
		null.NewString(doc.DriveFileLink, doc.DriveFileLink != ""),
		doc.CreatedAt.UTC(),
	).Scan(&doc.ID)
	if err != nil {
		return application.Document{}, errors.Wrap(err, "creating document")
	}
	return doc, nil
}
