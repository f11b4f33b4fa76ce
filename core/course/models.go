package course

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sheleads/intake/core"
)

// Question types supported by the course-specific step.
const (
	QuestionText     = "text"
	QuestionTextarea = "textarea"
	QuestionSelect   = "select"
	QuestionRadio    = "radio"
	QuestionCheckbox = "checkbox"
	QuestionScale    = "scale"
)

type Course struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Schedule     string    `json:"schedule"`
	StartDate    time.Time `json:"start_date"`
	Duration     string    `json:"duration"`
	Location     string    `json:"location"`
	Tutor        string    `json:"tutor"`
	TutorBio     string    `json:"tutor_bio"`
	ClassLink    string    `json:"class_link"`
	Requirements string    `json:"requirements"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// Question is a per-course custom question rendered on the course-specific step.
// Options is nil for free-form types; the store keeps it serialized (see EncodeOptions).
type Question struct {
	ID       int      `json:"id"`
	CourseID int      `json:"course_id"`
	Prompt   string   `json:"question_text"`
	Type     string   `json:"question_type"`
	Options  []string `json:"question_options"`
	Required bool     `json:"is_required"`
	Order    int      `json:"display_order"`
}

// EncodeOptions serializes an option list for storage. Empty lists encode to "".
func EncodeOptions(options []string) string {
	if len(options) == 0 {
		return ""
	}
	data, err := json.Marshal(options)
	if err != nil {
		return ""
	}
	return string(data)
}

// DecodeOptions parses an option list from its stored serialized form.
// Malformed or empty payloads decode to nil rather than erroring; a question
// with unreadable options degrades to a free-form one.
func DecodeOptions(raw string) []string {
	if raw == "" {
		return nil
	}
	var options []string
	if err := json.Unmarshal([]byte(raw), &options); err != nil {
		return nil
	}
	return options
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name         string    `json:"name" validate:"required"`
	Description  string    `json:"description" validate:"required"`
	Schedule     string    `json:"schedule" validate:"required"`
	StartDate    time.Time `json:"start_date" validate:"required"`
	Duration     string    `json:"duration" validate:"required"`
	Location     string    `json:"location" validate:"required"`
	Tutor        string    `json:"tutor" validate:"required"`
	TutorBio     string    `json:"tutor_bio"`
	ClassLink    string    `json:"class_link" validate:"omitempty,url"`
	Requirements string    `json:"requirements"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Tutor = core.CleanString(nc.Tutor)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Zero-value fields keep the original values.
type UpdateCourse struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Schedule     string    `json:"schedule"`
	StartDate    time.Time `json:"start_date"`
	Duration     string    `json:"duration"`
	Location     string    `json:"location"`
	Tutor        string    `json:"tutor"`
	TutorBio     string    `json:"tutor_bio"`
	ClassLink    string    `json:"class_link" validate:"omitempty,url"`
	Requirements string    `json:"requirements"`
}

func (uc *UpdateCourse) Validate(orig Course, validate *validator.Validate) error {
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	if uc.Description == "" {
		uc.Description = orig.Description
	}
	if uc.Schedule == "" {
		uc.Schedule = orig.Schedule
	}
	if uc.StartDate.IsZero() {
		uc.StartDate = orig.StartDate
	}
	if uc.Duration == "" {
		uc.Duration = orig.Duration
	}
	if uc.Location == "" {
		uc.Location = orig.Location
	}
	if tutor := core.CleanString(uc.Tutor); tutor != "" {
		uc.Tutor = tutor
	} else {
		uc.Tutor = orig.Tutor
	}
	if uc.TutorBio == "" {
		uc.TutorBio = orig.TutorBio
	}
	if uc.ClassLink == "" {
		uc.ClassLink = orig.ClassLink
	}
	if uc.Requirements == "" {
		uc.Requirements = orig.Requirements
	}
	return validate.Struct(uc)
}

// NewQuestion contains information needed to create a new course Question.
type NewQuestion struct {
	Prompt   string   `json:"question_text" validate:"required"`
	Type     string   `json:"question_type" validate:"required,oneof=text textarea select radio checkbox scale"`
	Options  []string `json:"question_options"`
	Required bool     `json:"is_required"`
	Order    int      `json:"display_order" validate:"gte=0"`
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	nq.Prompt = core.CleanString(nq.Prompt)
	if err := validate.Struct(nq); err != nil {
		return err
	}
	switch nq.Type {
	case QuestionSelect, QuestionRadio, QuestionCheckbox:
		if len(nq.Options) == 0 {
			return core.NewValidationError(nil, core.FieldError{
				Field: "question_options", Error: "option list is required for this question type"})
		}
	}
	return nil
}
