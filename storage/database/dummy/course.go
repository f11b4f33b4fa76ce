package dummydb

import (
	"context"
	"sort"

	"github.com/sheleads/intake/core/course"
)

var coursePKCount int

type courseRepository struct {
	courses   *courseTable
	questions *questionTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{courses: db.course, questions: db.question}
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.courses.Lock()
	defer repo.courses.Unlock()

	coursePKCount++
	crs.ID = coursePKCount
	repo.courses.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) QueryAllCourses(_ context.Context) ([]course.Course, error) {
	repo.courses.RLock()
	defer repo.courses.RUnlock()

	courses := make([]course.Course, 0, len(repo.courses.table))
	for _, crs := range repo.courses.table {
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Name < courses[j].Name })
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id int) (course.Course, error) {
	repo.courses.RLock()
	defer repo.courses.RUnlock()

	if crs, ok := repo.courses.table[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	repo.courses.Lock()
	defer repo.courses.Unlock()

	if _, ok := repo.courses.table[crs.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.courses.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) DeleteCourseByID(_ context.Context, id int) error {
	repo.courses.Lock()
	defer repo.courses.Unlock()

	delete(repo.courses.table, id)
	return nil
}

func (repo *courseRepository) QueryQuestions(_ context.Context, courseID int) ([]course.Question, error) {
	repo.questions.RLock()
	defer repo.questions.RUnlock()

	questions := make([]course.Question, 0)
	for _, q := range repo.questions.table {
		if q.CourseID == courseID {
			questions = append(questions, *q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })
	return questions, nil
}

func (repo *courseRepository) CreateQuestion(_ context.Context, q course.Question) (course.Question, error) {
	repo.questions.Lock()
	defer repo.questions.Unlock()

	coursePKCount++
	q.ID = coursePKCount
	repo.questions.table[q.ID] = &q
	return q, nil
}

func (repo *courseRepository) UpdateQuestion(_ context.Context, q course.Question) (course.Question, error) {
	repo.questions.Lock()
	defer repo.questions.Unlock()

	existing, ok := repo.questions.table[q.ID]
	if !ok {
		return course.Question{}, course.ErrNotFound
	}
	q.CourseID = existing.CourseID
	repo.questions.table[q.ID] = &q
	return q, nil
}

func (repo *courseRepository) DeleteQuestionByID(_ context.Context, id int) error {
	repo.questions.Lock()
	defer repo.questions.Unlock()

	delete(repo.questions.table, id)
	return nil
}

func (repo *courseRepository) DeleteQuestionsByCourseID(_ context.Context, courseID int) error {
	repo.questions.Lock()
	defer repo.questions.Unlock()

	for id, q := range repo.questions.table {
		if q.CourseID == courseID {
			delete(repo.questions.table, id)
		}
	}
	return nil
}
