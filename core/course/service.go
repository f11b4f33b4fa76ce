package course

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("course not found")

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		GetCourseByID(ctx context.Context, id int) (Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCourseByID(ctx context.Context, id int) error

		QueryQuestions(ctx context.Context, courseID int) ([]Question, error)
		CreateQuestion(ctx context.Context, q Question) (Question, error)
		UpdateQuestion(ctx context.Context, q Question) (Question, error)
		DeleteQuestionByID(ctx context.Context, id int) error
		DeleteQuestionsByCourseID(ctx context.Context, courseID int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Name:         nc.Name,
		Description:  nc.Description,
		Schedule:     nc.Schedule,
		StartDate:    nc.StartDate,
		Duration:     nc.Duration,
		Location:     nc.Location,
		Tutor:        nc.Tutor,
		TutorBio:     nc.TutorBio,
		ClassLink:    nc.ClassLink,
		Requirements: nc.Requirements,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

// QueryAll returns all courses, ordered by name.
func (svc *Service) QueryAll(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id int, uc UpdateCourse) (Course, error) {
	crs := Course{
		ID:           id,
		Name:         uc.Name,
		Description:  uc.Description,
		Schedule:     uc.Schedule,
		StartDate:    uc.StartDate,
		Duration:     uc.Duration,
		Location:     uc.Location,
		Tutor:        uc.Tutor,
		TutorBio:     uc.TutorBio,
		ClassLink:    uc.ClassLink,
		Requirements: uc.Requirements,
		UpdatedAt:    time.Now().UTC(),
	}
	return svc.repo.UpdateCourse(ctx, crs)
}

// Delete removes a course and its questions. Questions go first so a failure
// never leaves questions pointing at a missing course.
func (svc *Service) Delete(ctx context.Context, id int) error {
	if err := svc.repo.DeleteQuestionsByCourseID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteCourseByID(ctx, id)
}

// QueryQuestions returns a course's questions ordered by display order.
func (svc *Service) QueryQuestions(ctx context.Context, courseID int) ([]Question, error) {
	return svc.repo.QueryQuestions(ctx, courseID)
}

func (svc *Service) CreateQuestion(ctx context.Context, courseID int, nq NewQuestion) (Question, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return Question{}, err
	}
	q := Question{
		CourseID: courseID,
		Prompt:   nq.Prompt,
		Type:     nq.Type,
		Options:  nq.Options,
		Required: nq.Required,
		Order:    nq.Order,
	}
	return svc.repo.CreateQuestion(ctx, q)
}

// UpdateQuestion rewrites a question in place; it keeps its course.
func (svc *Service) UpdateQuestion(ctx context.Context, id int, nq NewQuestion) (Question, error) {
	q := Question{
		ID:       id,
		Prompt:   nq.Prompt,
		Type:     nq.Type,
		Options:  nq.Options,
		Required: nq.Required,
		Order:    nq.Order,
	}
	return svc.repo.UpdateQuestion(ctx, q)
}

func (svc *Service) DeleteQuestion(ctx context.Context, id int) error {
	return svc.repo.DeleteQuestionByID(ctx, id)
}
