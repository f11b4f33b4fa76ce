package application

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Pipeline stage names, in execution order.
const (
	StageSanitize          = "sanitize"
	StageResolveCourse     = "resolve_course"
	StageCreateApplicant   = "create_applicant"
	StageCreateApplication = "create_application"
	StageSheetLog          = "sheet_log"
	StageStoreDocuments    = "store_documents"
	StageSendEmail         = "send_email"
)

// Stage outcomes. A degraded stage failed but did not stop the submission.
const (
	StageOK       = "ok"
	StageDegraded = "degraded"
	StageFailed   = "failed"
)

// Submission results.
const (
	ResultApproved = "approved"
	ResultFailed   = "failed"
)

type StageOutcome struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// SubmissionResult reports what happened to one submission, stage by stage.
// Success and the "approved" status are set as soon as the mandatory stages
// succeed; best-effort stage failures only show up as degraded outcomes.
type SubmissionResult struct {
	Success       bool           `json:"success"`
	Reference     string         `json:"reference"`
	Status        string         `json:"status"`
	CourseID      int            `json:"course_id,omitempty"`
	ApplicantID   int            `json:"applicant_id,omitempty"`
	ApplicationID int            `json:"application_id,omitempty"`
	Stages        []StageOutcome `json:"stages"`
}

// Degraded reports whether any best-effort stage failed.
func (r SubmissionResult) Degraded() bool {
	for _, s := range r.Stages {
		if s.Status == StageDegraded {
			return true
		}
	}
	return false
}

type stage struct {
	name      string
	mandatory bool
	run       func(ctx context.Context, st *pipelineState) error
}

// pipelineState is the mutable carrier threaded through the stages.
type pipelineState struct {
	reference   string
	answers     AnswerRecord
	now         time.Time
	businessAge string

	courseName  string
	courseDesc  string
	applicant   Applicant
	application Application
	detail      Detail
}

func (svc *Service) run(ctx context.Context, st *pipelineState) (SubmissionResult, error) {
	stages := []stage{
		{name: StageSanitize, mandatory: true, run: svc.sanitizeStage},
		{name: StageResolveCourse, mandatory: true, run: svc.resolveCourseStage},
		{name: StageCreateApplicant, mandatory: true, run: svc.createApplicantStage},
		{name: StageCreateApplication, mandatory: true, run: svc.createApplicationStage},
		{name: StageSheetLog, mandatory: false, run: svc.sheetLogStage},
		{name: StageStoreDocuments, mandatory: false, run: svc.storeDocumentsStage},
		{name: StageSendEmail, mandatory: false, run: svc.sendEmailStage},
	}

	res := SubmissionResult{Success: true, Reference: st.reference, Status: ResultApproved}
	for _, stg := range stages {
		sctx, cancel := ctx, func() {}
		if t := svc.conf.Submission.StageTimeout; t > 0 {
			sctx, cancel = context.WithTimeout(ctx, t)
		}
		err := stg.run(sctx, st)
		cancel()

		if err == nil {
			res.Stages = append(res.Stages, StageOutcome{Name: stg.name, Status: StageOK})
			continue
		}
		if stg.mandatory {
			res.Stages = append(res.Stages, StageOutcome{Name: stg.name, Status: StageFailed, Detail: err.Error()})
			res.Success = false
			res.Status = ResultFailed
			res.CourseID = st.application.CourseID
			res.ApplicantID = st.applicant.ID
			res.ApplicationID = st.application.ID
			svc.logger.Error("submission %s: stage %s failed: %v", st.reference, stg.name, err)
			return res, err
		}
		res.Stages = append(res.Stages, StageOutcome{Name: stg.name, Status: StageDegraded, Detail: err.Error()})
		svc.logger.Warn("submission %s: stage %s degraded: %v", st.reference, stg.name, err)
	}

	res.CourseID = st.application.CourseID
	res.ApplicantID = st.applicant.ID
	res.ApplicationID = st.application.ID
	return res, nil
}

func newPipelineState(answers AnswerRecord, now time.Time) *pipelineState {
	return &pipelineState{
		reference: uuid.New().String(),
		answers:   answers.Clone(),
		now:       now,
	}
}
