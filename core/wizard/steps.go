package wizard

import (
	"github.com/pkg/errors"

	"github.com/sheleads/intake/core"
	"github.com/sheleads/intake/core/application"
)

// Step identifiers, in wizard order.
const (
	StepEligibility     = "eligibility"
	StepPathway         = "pathway"
	StepBusinessStatus  = "business-status"
	StepBusinessSector  = "business-sector"
	StepCompanyName     = "company-name"
	StepBoosterCheck    = "booster-check"
	StepConsent         = "consent"
	StepPersonalInfo    = "personal-info"
	StepWorkInterest    = "work-interest"
	StepDisplacement    = "displacement"
	StepDisability      = "disability"
	StepReferral        = "referral"
	StepCourseSelection = "course-selection"
	StepCourseQuestions = "course-questions"
)

// Disqualification reasons shown on the terminal screen.
const (
	ReasonNotEligible     = "You do not meet the eligibility criteria for this program."
	ReasonMatureBusiness  = "This program is for entrepreneurs whose business is under three years old."
	ReasonBoosterComplete = "You have already completed a booster course and cannot apply again."
)

// Predicate evaluates a condition over the answers collected so far.
type Predicate func(application.AnswerRecord) bool

// Step is one wizard screen. A nil Visible means always shown; a nil
// Disqualifies means the step can never end the application.
type Step struct {
	ID           string
	Fields       []string
	Required     []string
	Visible      Predicate
	Disqualifies Predicate
	Reason       string
	Normalize    func(application.AnswerRecord)
	Validate     func(application.AnswerRecord) error
}

func isEntrepreneur(a application.AnswerRecord) bool {
	return a.String(application.FieldPathway) == application.PathwayEntrepreneurship
}

func hasYoungBusiness(a application.AnswerRecord) bool {
	return isEntrepreneur(a) &&
		a.String(application.FieldBusinessStatus) == application.BusinessUnder3
}

// Steps returns the ordered wizard step definitions.
func Steps() []Step {
	return []Step{
		{
			ID:       StepEligibility,
			Fields:   []string{application.FieldIsEligible},
			Required: []string{application.FieldIsEligible},
			Disqualifies: func(a application.AnswerRecord) bool {
				eligible, answered := a.Bool(application.FieldIsEligible)
				return answered && !eligible
			},
			Reason: ReasonNotEligible,
		},
		{
			ID:       StepPathway,
			Fields:   []string{application.FieldPathway},
			Required: []string{application.FieldPathway},
		},
		{
			ID:       StepBusinessStatus,
			Fields:   []string{application.FieldBusinessStatus},
			Required: []string{application.FieldBusinessStatus},
			Visible:  isEntrepreneur,
			Disqualifies: func(a application.AnswerRecord) bool {
				return a.String(application.FieldBusinessStatus) == application.BusinessOver3
			},
			Reason: ReasonMatureBusiness,
		},
		{
			ID:       StepBusinessSector,
			Fields:   []string{application.FieldBusinessSector},
			Required: []string{application.FieldBusinessSector},
			Visible:  hasYoungBusiness,
		},
		{
			ID:       StepCompanyName,
			Fields:   []string{application.FieldCompanyName},
			Required: []string{application.FieldCompanyName},
			Visible:  hasYoungBusiness,
		},
		{
			ID:       StepBoosterCheck,
			Fields:   []string{application.FieldTakenBoosterCourse},
			Required: []string{application.FieldTakenBoosterCourse},
			Disqualifies: func(a application.AnswerRecord) bool {
				taken, answered := a.Bool(application.FieldTakenBoosterCourse)
				return answered && taken
			},
			Reason: ReasonBoosterComplete,
		},
		{
			ID:       StepConsent,
			Fields:   []string{application.FieldConsentToDataUse},
			Required: []string{application.FieldConsentToDataUse},
			Validate: func(a application.AnswerRecord) error {
				if consent, _ := a.Bool(application.FieldConsentToDataUse); !consent {
					return core.NewValidationError(
						errors.New("consent is required"),
						core.FieldError{Field: application.FieldConsentToDataUse, Error: "you must consent to data use to continue"},
					)
				}
				return nil
			},
		},
		{
			ID: StepPersonalInfo,
			Fields: []string{
				application.FieldFullName,
				application.FieldEmail,
				application.FieldPhoneNumber,
				application.FieldDateOfBirth,
				application.FieldLocation,
				application.FieldLocationType,
				application.FieldIDDocument,
				application.FieldCV,
				application.FieldAcademicCertificate,
				application.FieldAcademicQualification,
				application.FieldStudentLevel,
				application.FieldEmploymentStatus,
			},
			Required: []string{
				application.FieldFullName,
				application.FieldEmail,
				application.FieldPhoneNumber,
				application.FieldDateOfBirth,
				application.FieldLocation,
				application.FieldLocationType,
				application.FieldAcademicQualification,
			},
			Normalize: func(a application.AnswerRecord) {
				if a.String(application.FieldEmploymentStatus) != "student" {
					a.Clear(application.FieldStudentLevel)
				}
			},
		},
		{
			ID:       StepWorkInterest,
			Fields:   []string{application.FieldWorkInterest},
			Required: []string{application.FieldWorkInterest},
		},
		{
			ID:       StepDisplacement,
			Fields:   []string{application.FieldIsDisplaced},
			Required: []string{application.FieldIsDisplaced},
		},
		{
			ID:       StepDisability,
			Fields:   []string{application.FieldHasDisability, application.FieldDisabilityType},
			Required: []string{application.FieldHasDisability},
			Normalize: func(a application.AnswerRecord) {
				if has, _ := a.Bool(application.FieldHasDisability); !has {
					a.Clear(application.FieldDisabilityType)
				}
			},
		},
		{
			ID:       StepReferral,
			Fields:   []string{application.FieldReferralSource, application.FieldAmbassadorCode},
			Required: []string{application.FieldReferralSource},
			Normalize: func(a application.AnswerRecord) {
				if a.String(application.FieldReferralSource) != application.ReferralAmbassador {
					a.Clear(application.FieldAmbassadorCode)
				}
			},
		},
		{
			ID:       StepCourseSelection,
			Fields:   []string{application.FieldPreferredCourse},
			Required: []string{application.FieldPreferredCourse},
		},
		{
			ID: StepCourseQuestions,
			Fields: []string{
				application.FieldHasFormalTraining,
				application.FieldFamiliarityScale,
				application.FieldHasUsedTools,
				application.FieldToolsUsed,
				application.FieldCourseSpecificAnswer,
				application.FieldSocialMediaPlatforms,
				application.FieldDigitalStrategies,
				application.FieldOtherPlatform,
				application.FieldExpectations,
				application.FieldApplicationEaseRating,
			},
		},
	}
}
