package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/sheleads/intake/core"
	"github.com/sheleads/intake/core/course"
)

type courseRepository struct {
	exec core.DBExecutor
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec core.DBExecutor) *courseRepository {
	return &courseRepository{exec: exec}
}

type courseRow struct {
	ID           int         `db:"id"`
	Name         string      `db:"name"`
	Description  null.String `db:"description"`
	Schedule     null.String `db:"schedule"`
	StartDate    null.Time   `db:"start_date"`
	Duration     null.String `db:"duration"`
	Location     null.String `db:"location"`
	Tutor        null.String `db:"tutor"`
	TutorBio     null.String `db:"tutor_bio"`
	ClassLink    null.String `db:"class_link"`
	Requirements null.String `db:"requirements"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (repo courseRepository) pack(crs course.Course) courseRow {
	return courseRow{
		ID:           crs.ID,
		Name:         crs.Name,
		Description:  null.NewString(crs.Description, crs.Description != ""),
		Schedule:     null.NewString(crs.Schedule, crs.Schedule != ""),
		StartDate:    null.NewTime(crs.StartDate.UTC(), !crs.StartDate.IsZero()),
		Duration:     null.NewString(crs.Duration, crs.Duration != ""),
		Location:     null.NewString(crs.Location, crs.Location != ""),
		Tutor:        null.NewString(crs.Tutor, crs.Tutor != ""),
		TutorBio:     null.NewString(crs.TutorBio, crs.TutorBio != ""),
		ClassLink:    null.NewString(crs.ClassLink, crs.ClassLink != ""),
		Requirements: null.NewString(crs.Requirements, crs.Requirements != ""),
		CreatedAt:    crs.CreatedAt.UTC(),
		UpdatedAt:    crs.UpdatedAt.UTC(),
	}
}

func (repo courseRepository) unpack(row courseRow) course.Course {
	return course.Course{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description.String,
		Schedule:     row.Schedule.String,
		StartDate:    row.StartDate.Time,
		Duration:     row.Duration.String,
		Location:     row.Location.String,
		Tutor:        row.Tutor.String,
		TutorBio:     row.TutorBio.String,
		ClassLink:    row.ClassLink.String,
		Requirements: row.Requirements.String,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to course.ErrNotFound
func (repo courseRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return course.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	row := repo.pack(crs)
	query := `
		INSERT INTO course (name, description, schedule, start_date, duration, location, tutor, tutor_bio, class_link, requirements, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	err := repo.exec.QueryRowxContext(ctx, query,
		row.Name, row.Description, row.Schedule, row.StartDate, row.Duration,
		row.Location, row.Tutor, row.TutorBio, row.ClassLink, row.Requirements,
		row.CreatedAt, row.UpdatedAt,
	).Scan(&crs.ID)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return crs, nil
}

func (repo courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	var rows []courseRow
	query := `SELECT * FROM course ORDER BY name ASC`
	if err := repo.exec.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, repo.unpack(row))
	}
	return courses, nil
}

func (repo courseRepository) GetCourseByID(ctx context.Context, id int) (course.Course, error) {
	var row courseRow
	query := `SELECT * FROM course WHERE id = $1`
	if err := repo.exec.GetContext(ctx, &row, query, id); err != nil {
		return course.Course{}, repo.trapNoRowsErr(err, "getting course")
	}
	return repo.unpack(row), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	row := repo.pack(crs)
	query := `
		UPDATE course
		SET name = $1, description = $2, schedule = $3, start_date = $4, duration = $5,
			location = $6, tutor = $7, tutor_bio = $8, class_link = $9, requirements = $10,
			updated_at = $11
		WHERE id = $12`
	res, err := repo.exec.ExecContext(ctx, query,
		row.Name, row.Description, row.Schedule, row.StartDate, row.Duration,
		row.Location, row.Tutor, row.TutorBio, row.ClassLink, row.Requirements,
		row.UpdatedAt, row.ID,
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo courseRepository) DeleteCourseByID(ctx context.Context, id int) error {
	query := `DELETE FROM course WHERE id = $1`
	if _, err := repo.exec.ExecContext(ctx, query, id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return nil
}

type questionRow struct {
	ID       int         `db:"id"`
	CourseID int         `db:"course_id"`
	Prompt   string      `db:"question_text"`
	Type     string      `db:"question_type"`
	Options  null.String `db:"question_options"`
	Required bool        `db:"is_required"`
	Order    int         `db:"display_order"`
}

func (repo courseRepository) packQuestion(q course.Question) questionRow {
	opts := course.EncodeOptions(q.Options)
	return questionRow{
		ID:       q.ID,
		CourseID: q.CourseID,
		Prompt:   q.Prompt,
		Type:     q.Type,
		Options:  null.NewString(opts, opts != ""),
		Required: q.Required,
		Order:    q.Order,
	}
}

func (repo courseRepository) unpackQuestion(row questionRow) course.Question {
	return course.Question{
		ID:       row.ID,
		CourseID: row.CourseID,
		Prompt:   row.Prompt,
		Type:     row.Type,
		Options:  course.DecodeOptions(row.Options.String),
		Required: row.Required,
		Order:    row.Order,
	}
}

func (repo courseRepository) QueryQuestions(ctx context.Context, courseID int) ([]course.Question, error) {
	var rows []questionRow
	query := `SELECT * FROM course_question WHERE course_id = $1 ORDER BY display_order ASC`
	if err := repo.exec.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}

	questions := make([]course.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, repo.unpackQuestion(row))
	}
	return questions, nil
}

func (repo courseRepository) CreateQuestion(ctx context.Context, q course.Question) (course.Question, error) {
	row := repo.packQuestion(q)
	query := `
		INSERT INTO course_question (course_id, question_text, question_type, question_options, is_required, display_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := repo.exec.QueryRowxContext(ctx, query,
		row.CourseID, row.Prompt, row.Type, row.Options, row.Required, row.Order,
	).Scan(&q.ID)
	if err != nil {
		return course.Question{}, errors.Wrap(err, "creating question")
	}
	return q, nil
}

// UpdateQuestion never moves a question between courses; the stored
// course_id is returned so the result stays attached.
func (repo courseRepository) UpdateQuestion(ctx context.Context, q course.Question) (course.Question, error) {
	row := repo.packQuestion(q)
	query := `
		UPDATE course_question
		SET question_text = $1, question_type = $2, question_options = $3, is_required = $4, display_order = $5
		WHERE id = $6
		RETURNING course_id`
	err := repo.exec.QueryRowxContext(ctx, query,
		row.Prompt, row.Type, row.Options, row.Required, row.Order, row.ID,
	).Scan(&q.CourseID)
	if err != nil {
		return course.Question{}, repo.trapNoRowsErr(err, "updating question")
	}
	return q, nil
}

func (repo courseRepository) DeleteQuestionByID(ctx context.Context, id int) error {
	query := `DELETE FROM course_question WHERE id = $1`
	if _, err := repo.exec.ExecContext(ctx, query, id); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return nil
}

func (repo courseRepository) DeleteQuestionsByCourseID(ctx context.Context, courseID int) error {
	query := `DELETE FROM course_question WHERE course_id = $1`
	if _, err := repo.exec.ExecContext(ctx, query, courseID); err != nil {
		return errors.Wrap(err, "deleting course questions")
	}
	return nil
}
