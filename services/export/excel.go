package exportsvc

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/sheleads/intake/core/application"
)

const sheetName = "Applications"

var headers = []string{
	"Submitted At",
	"Full Name",
	"Email",
	"Phone",
	"Date of Birth",
	"Location",
	"Location Type",
	"Academic Qualification",
	"Student Level",
	"Employment Status",
	"Displaced",
	"Has Disability",
	"Disability Type",
	"Jobberman Certificate",
	"Referral Source",
	"Ambassador Code",
	"Course",
	"Pathway",
	"Has Business",
	"Business Age",
	"Business Sector",
	"Company Name",
	"Taken Booster Course",
	"Work Interest",
	"Formal Training",
	"Familiarity Scale",
	"Used Tools",
	"Tools Used",
	"Course Specific Answer",
	"Social Media Platforms",
	"Digital Strategies",
	"Expectations",
	"Ease Rating",
	"Status",
	"Email Sent",
	"Email Sent At",
	"Status Email Sent",
	"Status Email Sent At",
	"Drive Folder",
}

// Applications renders the admin list as an xlsx workbook.
func Applications(summaries []application.Summary) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), sheetName)

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, errors.Wrap(err, "building header")
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, errors.Wrap(err, "writing header")
		}
	}

	for r, s := range summaries {
		values := []interface{}{
			s.SubmittedAt.Format(time.RFC3339),
			s.ApplicantName,
			s.ApplicantEmail,
			s.ApplicantPhone,
			s.DateOfBirth,
			s.Location,
			s.LocationType,
			s.AcademicQualification,
			s.StudentLevel,
			s.EmploymentStatus,
			yesNo(s.IsDisplaced),
			yesNo(s.HasDisability),
			s.DisabilityType,
			yesNo(s.HasJobbermanCertificate),
			s.ReferralSource,
			s.AmbassadorCode,
			s.CourseName,
			s.Pathway,
			yesNo(s.HasBusiness),
			s.BusinessAge,
			s.BusinessSector,
			s.CompanyName,
			yesNo(s.TakenBoosterCourse),
			yesNo(s.WorkInterest),
			s.HasFormalTraining,
			intCell(s.FamiliarityScale),
			s.HasUsedTools,
			s.ToolsUsed,
			s.CourseSpecificAnswer,
			strings.Join(s.SocialMediaPlatforms, ", "),
			strings.Join(s.DigitalStrategies, ", "),
			s.Expectations,
			intCell(s.ApplicationEaseRating),
			strings.Title(s.Status),
			yesNo(s.EmailSent),
			timeCell(s.EmailSentAt),
			yesNo(s.StatusEmailSent),
			timeCell(s.StatusEmailSentAt),
			s.DriveFolderLink,
		}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, errors.Wrap(err, "building row")
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, errors.Wrapf(err, "writing row %d", r+1)
			}
		}
	}

	if err := f.SetColWidth(sheetName, "A", "AM", 22); err != nil {
		return nil, errors.Wrap(err, "sizing columns")
	}

	return f.WriteToBuffer()
}

// Filename returns a timestamped export name.
func Filename(now time.Time) string {
	return fmt.Sprintf("applications-%s.xlsx", now.Format("2006-01-02"))
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func intCell(p *int) interface{} {
	if p == nil {
		return ""
	}
	return *p
}

func timeCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
