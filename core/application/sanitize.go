package application

import (
	"strings"
	"time"
)

// Free-text wizard answers are funneled through allow-lists before they reach
// storage or the spreadsheet. Anything outside an allow-list collapses to the
// field's default so downstream columns never carry junk values.

var allowedEmploymentStatuses = []string{
	"employed", "unemployed", "self_employed", "student", "other",
}

// SanitizeEmploymentStatus defaults to "unemployed".
func SanitizeEmploymentStatus(v string) string {
	return sanitizeEnum(v, allowedEmploymentStatuses, "unemployed")
}

var allowedLocationTypes = []string{"urban", "semi_urban", "rural", "suburban"}

// SanitizeLocationType defaults to "urban".
func SanitizeLocationType(v string) string {
	return sanitizeEnum(v, allowedLocationTypes, "urban")
}

var allowedAcademicQualifications = []string{
	"primary", "secondary", "undergraduate", "bachelors", "masters", "phd",
	"diploma", "certificate", "other",
}

// SanitizeAcademicQualification defaults to "other".
func SanitizeAcademicQualification(v string) string {
	return sanitizeEnum(v, allowedAcademicQualifications, "other")
}

var allowedStudentLevels = []string{
	"100_level", "200_level", "300_level", "400_level", "500_level", "600_level",
	"graduate", "postgraduate",
}

// SanitizeStudentLevel defaults to empty: the question only exists for
// students, so a junk answer is treated as not asked.
func SanitizeStudentLevel(v string) string {
	return sanitizeEnum(v, allowedStudentLevels, "")
}

var allowedReferralSources = []string{
	"sla_website", "sla_instagram", "sla_twitter", "sla_facebook", "sla_linkedin",
	"sla_ambassador", "friend_referral", "google_search", "others",
}

// SanitizeReferralSource defaults to "others".
func SanitizeReferralSource(v string) string {
	return sanitizeEnum(v, allowedReferralSources, "others")
}

var allowedBusinessAges = []string{
	BusinessNone, "less_than_1_year", "1_to_3_years", "more_than_3_years",
}

// SanitizeBusinessAge defaults to "no_business".
func SanitizeBusinessAge(v string) string {
	return sanitizeEnum(v, allowedBusinessAges, BusinessNone)
}

// DateLayout is the canonical date-of-birth format.
const DateLayout = "2006-01-02"

// SanitizeDateOfBirth reformats the answer to the canonical layout. Unparseable
// or empty values collapse to the submission date.
func SanitizeDateOfBirth(v string, now time.Time) string {
	v = strings.TrimSpace(v)
	for _, layout := range []string{DateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(DateLayout)
		}
	}
	return now.Format(DateLayout)
}

func sanitizeEnum(v string, allowed []string, def string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	return def
}

// Upload constraints for applicant documents.
var allowedDocumentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// AllowedDocumentType reports whether the MIME type may be stored.
func AllowedDocumentType(mimeType string) bool {
	return allowedDocumentTypes[strings.ToLower(strings.TrimSpace(mimeType))]
}
