package course_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sheleads/intake/core/course"
	dummydb "github.com/sheleads/intake/storage/database/dummy"
)

func newTestService(t *testing.T) *course.Service {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	return course.NewService(dummydb.NewCourseRepository(db))
}

func validNewCourse() course.NewCourse {
	return course.NewCourse{
		Name:        "Digital Marketing",
		Description: "Learn to grow a brand online.",
		Schedule:    "Tuesdays and Thursdays, 6pm",
		StartDate:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		Duration:    "8 weeks",
		Location:    "Online",
		Tutor:       "A. Okafor",
	}
}

func TestNewCourseValidate(t *testing.T) {
	validate := validator.New()

	cases := []struct {
		name    string
		mutate  func(*course.NewCourse)
		wantErr bool
	}{
		{"valid", func(*course.NewCourse) {}, false},
		{"trims name", func(nc *course.NewCourse) { nc.Name = "  Digital Marketing  " }, false},
		{"missing name", func(nc *course.NewCourse) { nc.Name = "" }, true},
		{"missing start date", func(nc *course.NewCourse) { nc.StartDate = time.Time{} }, true},
		{"bad class link", func(nc *course.NewCourse) { nc.ClassLink = "not a url" }, true},
		{"valid class link", func(nc *course.NewCourse) { nc.ClassLink = "https://meet.test/abc" }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			nc := validNewCourse()
			tc.mutate(&nc)
			err := nc.Validate(validate)
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.name == "trims name" && nc.Name != "Digital Marketing" {
				t.Errorf("name = %q, want trimmed", nc.Name)
			}
		})
	}
}

func TestNewQuestionValidate(t *testing.T) {
	validate := validator.New()

	cases := []struct {
		name    string
		q       course.NewQuestion
		wantErr bool
	}{
		{"free-form text", course.NewQuestion{Prompt: "Why this course?", Type: course.QuestionTextarea}, false},
		{"select with options", course.NewQuestion{Prompt: "Pick one", Type: course.QuestionSelect, Options: []string{"a", "b"}}, false},
		{"select without options", course.NewQuestion{Prompt: "Pick one", Type: course.QuestionSelect}, true},
		{"radio without options", course.NewQuestion{Prompt: "Pick one", Type: course.QuestionRadio}, true},
		{"checkbox without options", course.NewQuestion{Prompt: "Pick many", Type: course.QuestionCheckbox}, true},
		{"unknown type", course.NewQuestion{Prompt: "Hmm", Type: "essay"}, true},
		{"missing prompt", course.NewQuestion{Type: course.QuestionText}, true},
		{"negative order", course.NewQuestion{Prompt: "Why?", Type: course.QuestionText, Order: -1}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := tc.q
			if err := q.Validate(validate); (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestCourseCRUD(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	crs, err := svc.Create(ctx, validNewCourse())
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if crs.ID == 0 {
		t.Fatal("created course has no id")
	}
	if crs.CreatedAt.IsZero() || crs.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}

	if _, err := svc.Create(ctx, course.NewCourse{
		Name:        "Business Accounting",
		Description: "Books that balance.",
		Schedule:    "Mondays, 5pm",
		StartDate:   time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
		Duration:    "6 weeks",
		Location:    "Online",
		Tutor:       "N. Mensah",
	}); err != nil {
		t.Fatalf("Create(): %v", err)
	}

	all, err := svc.QueryAll(ctx)
	if err != nil {
		t.Fatalf("QueryAll(): %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("QueryAll() = %d courses, want 2", len(all))
	}
	if all[0].Name != "Business Accounting" {
		t.Errorf("courses not ordered by name: %q first", all[0].Name)
	}

	got, err := svc.GetByID(ctx, crs.ID)
	if err != nil {
		t.Fatalf("GetByID(): %v", err)
	}
	if got.Name != crs.Name {
		t.Errorf("GetByID() name = %q, want %q", got.Name, crs.Name)
	}

	uc := course.UpdateCourse{Tutor: "B. Adeyemi"}
	if err := uc.Validate(got, validator.New()); err != nil {
		t.Fatalf("UpdateCourse.Validate(): %v", err)
	}
	updated, err := svc.Update(ctx, crs.ID, uc)
	if err != nil {
		t.Fatalf("Update(): %v", err)
	}
	if updated.Tutor != "B. Adeyemi" {
		t.Errorf("tutor = %q, want updated", updated.Tutor)
	}
	if updated.Name != crs.Name {
		t.Errorf("name = %q, unset fields should keep original values", updated.Name)
	}

	if err := svc.Delete(ctx, crs.ID); err != nil {
		t.Fatalf("Delete(): %v", err)
	}
	if _, err := svc.GetByID(ctx, crs.ID); !errors.Is(err, course.ErrNotFound) {
		t.Errorf("GetByID() after delete = %v, want ErrNotFound", err)
	}
}

func TestCourseNotFound(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.GetByID(ctx, 42); !errors.Is(err, course.ErrNotFound) {
		t.Errorf("GetByID() = %v, want ErrNotFound", err)
	}
	uc := course.UpdateCourse{Name: "Ghost", Description: "x", Schedule: "x",
		StartDate: time.Now(), Duration: "x", Location: "x", Tutor: "x"}
	if _, err := svc.Update(ctx, 42, uc); !errors.Is(err, course.ErrNotFound) {
		t.Errorf("Update() = %v, want ErrNotFound", err)
	}
	nq := course.NewQuestion{Prompt: "Why?", Type: course.QuestionText}
	if _, err := svc.CreateQuestion(ctx, 42, nq); !errors.Is(err, course.ErrNotFound) {
		t.Errorf("CreateQuestion() = %v, want ErrNotFound", err)
	}
}

func TestQuestionLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	crs, err := svc.Create(ctx, validNewCourse())
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}

	second, err := svc.CreateQuestion(ctx, crs.ID, course.NewQuestion{
		Prompt: "Which tools have you used?",
		Type:   course.QuestionCheckbox,
		Options: []string{
			"Canva", "Meta Ads", "Google Analytics",
		},
		Order: 2,
	})
	if err != nil {
		t.Fatalf("CreateQuestion(): %v", err)
	}
	first, err := svc.CreateQuestion(ctx, crs.ID, course.NewQuestion{
		Prompt:   "Why do you want to learn digital marketing?",
		Type:     course.QuestionTextarea,
		Required: true,
		Order:    1,
	})
	if err != nil {
		t.Fatalf("CreateQuestion(): %v", err)
	}

	questions, err := svc.QueryQuestions(ctx, crs.ID)
	if err != nil {
		t.Fatalf("QueryQuestions(): %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("QueryQuestions() = %d, want 2", len(questions))
	}
	if questions[0].ID != first.ID || questions[1].ID != second.ID {
		t.Error("questions not ordered by display order")
	}
	if len(questions[1].Options) != 3 {
		t.Errorf("options = %v, want 3 entries", questions[1].Options)
	}

	updated, err := svc.UpdateQuestion(ctx, first.ID, course.NewQuestion{
		Prompt: "What do you expect from this course?",
		Type:   course.QuestionTextarea,
		Order:  1,
	})
	if err != nil {
		t.Fatalf("UpdateQuestion(): %v", err)
	}
	if updated.Prompt != "What do you expect from this course?" {
		t.Errorf("prompt = %q, want updated", updated.Prompt)
	}
	if updated.CourseID != crs.ID {
		t.Errorf("course id = %d, an update must keep the question attached", updated.CourseID)
	}
	questions, err = svc.QueryQuestions(ctx, crs.ID)
	if err != nil {
		t.Fatalf("QueryQuestions(): %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("QueryQuestions() after update = %d, want 2", len(questions))
	}

	if err := svc.DeleteQuestion(ctx, second.ID); err != nil {
		t.Fatalf("DeleteQuestion(): %v", err)
	}
	questions, err = svc.QueryQuestions(ctx, crs.ID)
	if err != nil {
		t.Fatalf("QueryQuestions(): %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("QueryQuestions() after delete = %d, want 1", len(questions))
	}

	// deleting the course sweeps its remaining questions
	if err := svc.Delete(ctx, crs.ID); err != nil {
		t.Fatalf("Delete(): %v", err)
	}
	questions, err = svc.QueryQuestions(ctx, crs.ID)
	if err != nil {
		t.Fatalf("QueryQuestions(): %v", err)
	}
	if len(questions) != 0 {
		t.Errorf("questions remain after course delete: %d", len(questions))
	}
}

func TestEncodeDecodeOptions(t *testing.T) {
	if got := course.EncodeOptions(nil); got != "" {
		t.Errorf("EncodeOptions(nil) = %q, want empty", got)
	}
	raw := course.EncodeOptions([]string{"a", "b"})
	if got := course.DecodeOptions(raw); len(got) != 2 || got[0] != "a" {
		t.Errorf("round trip = %v", got)
	}
	if got := course.DecodeOptions("{broken"); got != nil {
		t.Errorf("DecodeOptions(malformed) = %v, want nil", got)
	}
}
