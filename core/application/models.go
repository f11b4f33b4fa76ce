package application

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/sheleads/intake/core/course"
)

// Application statuses. Every structurally valid submission is stored approved;
// pending/rejected only ever result from an admin action afterwards.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Pathways and business answers collected by the wizard.
const (
	PathwayEntrepreneurship = "entrepreneurship"
	PathwayProfessional     = "professional"

	BusinessNone   = "no_business"
	BusinessUnder3 = "has_business_less_3"
	BusinessOver3  = "has_business_more_3"

	ReferralAmbassador = "sla_ambassador"
)

// Answer field names shared by the wizard steps and the submission pipeline.
const (
	FieldIsEligible              = "isEligible"
	FieldPathway                 = "pathway"
	FieldBusinessStatus          = "businessStatus"
	FieldBusinessSector          = "businessSector"
	FieldCompanyName             = "companyName"
	FieldTakenBoosterCourse      = "takenBoosterCourse"
	FieldConsentToDataUse        = "consentToDataUse"
	FieldFullName                = "fullName"
	FieldEmail                   = "email"
	FieldPhoneNumber             = "phoneNumber"
	FieldDateOfBirth             = "dateOfBirth"
	FieldLocation                = "location"
	FieldLocationType            = "locationType"
	FieldIDDocument              = "idDocument"
	FieldCV                      = "cv"
	FieldAcademicCertificate     = "academicCertificate"
	FieldAcademicQualification   = "academicQualification"
	FieldStudentLevel            = "studentLevel"
	FieldEmploymentStatus        = "employmentStatus"
	FieldWorkInterest            = "workInterest"
	FieldIsDisplaced             = "isDisplaced"
	FieldHasDisability           = "hasDisability"
	FieldDisabilityType          = "disabilityType"
	FieldHasJobbermanCertificate = "hasJobbermanCertificate"
	FieldReferralSource          = "referralSource"
	FieldAmbassadorCode          = "ambassadorCode"
	FieldPreferredCourse         = "preferredCourse"
	FieldHasFormalTraining       = "hasFormalTraining"
	FieldFamiliarityScale        = "familiarityScale"
	FieldHasUsedTools            = "hasUsedTools"
	FieldToolsUsed               = "toolsUsed"
	FieldCourseSpecificAnswer    = "courseSpecificAnswer"
	FieldSocialMediaPlatforms    = "socialMediaPlatforms"
	FieldDigitalStrategies       = "digitalStrategies"
	FieldOtherPlatform           = "otherPlatform"
	FieldExpectations            = "expectations"
	FieldApplicationEaseRating   = "applicationEaseRating"
)

// AnswerRecord is the accumulating answer set of one in-progress application.
// Values are strings, bools, numbers, string lists or file uploads, exactly as
// bound from the submission JSON document.
type AnswerRecord map[string]interface{}

func (a AnswerRecord) String(key string) string {
	if s, ok := a[key].(string); ok {
		return s
	}
	return ""
}

// Bool returns the answer and whether the question was answered at all.
// An unanswered yes/no question is not the same as "no".
func (a AnswerRecord) Bool(key string) (value, answered bool) {
	b, ok := a[key].(bool)
	return b, ok
}

func (a AnswerRecord) Int(key string) (int, bool) {
	switch v := a[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	}
	return 0, false
}

func (a AnswerRecord) StringSlice(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (a AnswerRecord) File(key string) (FileUpload, bool) {
	switch v := a[key].(type) {
	case FileUpload:
		return v, v.Data != ""
	case map[string]interface{}:
		f := FileUpload{}
		f.Name, _ = v["name"].(string)
		f.Type, _ = v["type"].(string)
		f.Data, _ = v["data"].(string)
		return f, f.Data != ""
	}
	return FileUpload{}, false
}

// Answered reports whether the field holds a usable answer: present, non-nil
// and, for strings, non-empty.
func (a AnswerRecord) Answered(key string) bool {
	v, ok := a[key]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) != ""
	}
	return true
}

func (a AnswerRecord) Set(key string, value interface{}) {
	a[key] = value
}

func (a AnswerRecord) Clear(keys ...string) {
	for _, key := range keys {
		delete(a, key)
	}
}

func (a AnswerRecord) Clone() AnswerRecord {
	clone := make(AnswerRecord, len(a))
	for k, v := range a {
		clone[k] = v
	}
	return clone
}

// FileUpload is a base64-encoded file payload as submitted by the client.
type FileUpload struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// Decode returns the raw file bytes. Data URLs ("data:...;base64,xxx") and
// bare base64 payloads are both accepted.
func (f FileUpload) Decode() ([]byte, error) {
	payload := f.Data
	if i := strings.Index(payload, ";base64,"); i >= 0 {
		payload = payload[i+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(payload)
}

type Applicant struct {
	ID                      int       `json:"id"`
	FullName                string    `json:"full_name"`
	Email                   string    `json:"email"`
	PhoneNumber             string    `json:"phone_number"`
	DateOfBirth             string    `json:"date_of_birth"` // canonical 2006-01-02
	Location                string    `json:"location"`
	LocationType            string    `json:"location_type"`
	AcademicQualification   string    `json:"academic_qualification"`
	StudentLevel            string    `json:"student_level"`
	EmploymentStatus        string    `json:"employment_status"`
	IsDisplaced             bool      `json:"is_displaced"`
	HasDisability           bool      `json:"has_disability"`
	DisabilityType          string    `json:"disability_type"`
	HasJobbermanCertificate bool      `json:"has_jobberman_certificate"`
	ReferralSource          string    `json:"referral_source"`
	AmbassadorCode          string    `json:"ambassador_code"`
	DriveFolderID           string    `json:"drive_folder_id"`
	DriveFolderLink         string    `json:"drive_folder_link"`
	CreatedAt               time.Time `json:"created_at"` // UTC
}

type Application struct {
	ID                    int        `json:"id"`
	ApplicantID           int        `json:"applicant_id"`
	CourseID              int        `json:"course_id"`
	Pathway               string     `json:"pathway"`
	HasBusiness           bool       `json:"has_business"`
	BusinessAge           string     `json:"business_age"`
	BusinessSector        string     `json:"business_sector"`
	CompanyName           string     `json:"company_name"`
	TakenBoosterCourse    bool       `json:"taken_booster_course"`
	WorkInterest          bool       `json:"work_interest"`
	HasFormalTraining     string     `json:"has_formal_training"`
	FamiliarityScale      *int       `json:"familiarity_scale"`
	HasUsedTools          string     `json:"has_used_tools"`
	ToolsUsed             string     `json:"tools_used"`
	CourseSpecificAnswer  string     `json:"course_specific_answer"`
	SocialMediaPlatforms  []string   `json:"social_media_platforms"`
	DigitalStrategies     []string   `json:"digital_strategies"`
	Expectations          string     `json:"expectations"`
	ApplicationEaseRating *int       `json:"application_ease_rating"`
	Status                string     `json:"status"`
	EmailSent             bool       `json:"email_sent"`
	EmailSentAt           *time.Time `json:"email_sent_at"`
	StatusEmailSent       bool       `json:"status_email_sent"`
	StatusEmailSentAt     *time.Time `json:"status_email_sent_at"`
	DriveFolderLink       string     `json:"drive_folder_link"`
	SubmittedAt           time.Time  `json:"submitted_at"` // UTC
	UpdatedAt             time.Time  `json:"updated_at"`   // UTC
}

// Document records one stored upload against an Applicant.
type Document struct {
	ID            int       `json:"id"`
	ApplicantID   int       `json:"applicant_id"`
	DocumentType  string    `json:"document_type"` // idDocument | cv | academicCertificate
	FileName      string    `json:"file_name"`
	DriveFileID   string    `json:"drive_file_id"`
	DriveFileLink string    `json:"drive_file_link"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

// Summary is the denormalized application row shown on the admin list.
type Summary struct {
	Application
	ApplicantName           string `json:"applicant_name"`
	ApplicantEmail          string `json:"applicant_email"`
	ApplicantPhone          string `json:"applicant_phone"`
	DateOfBirth             string `json:"date_of_birth"`
	Location                string `json:"location"`
	LocationType            string `json:"location_type"`
	AcademicQualification   string `json:"academic_qualification"`
	StudentLevel            string `json:"student_level"`
	EmploymentStatus        string `json:"employment_status"`
	IsDisplaced             bool   `json:"is_displaced"`
	HasDisability           bool   `json:"has_disability"`
	DisabilityType          string `json:"disability_type"`
	HasJobbermanCertificate bool   `json:"has_jobberman_certificate"`
	ReferralSource          string `json:"referral_source"`
	AmbassadorCode          string `json:"ambassador_code"`
	CourseName              string `json:"course_name"`
}

// Detail is the full admin view of one application.
type Detail struct {
	Application Application   `json:"application"`
	Applicant   Applicant     `json:"applicant"`
	Course      course.Course `json:"course"`
	Documents   []Document    `json:"documents"`
}

type QueryFilter struct {
	Status   string `query:"status"`
	CourseID int    `query:"course_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Status == "" && qf.CourseID == 0
}
