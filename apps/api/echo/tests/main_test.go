package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/sheleads/intake/apps/api/echo"
	"github.com/sheleads/intake/core"
	"github.com/sheleads/intake/core/application"
	"github.com/sheleads/intake/core/course"
	drivesvc "github.com/sheleads/intake/services/drive"
	sheetsvc "github.com/sheleads/intake/services/sheets"
	dummydb "github.com/sheleads/intake/storage/database/dummy"
)

var (
	app       Server
	conf      *core.Config
	courseSvc *course.Service
	appSvc    *application.Service
	mailSvc   *fakeMailer

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		fmt.Printf("dummydb.Open(): %v", err)
		os.Exit(1)
	}
	courseRepo := dummydb.NewCourseRepository(db)
	appRepo := dummydb.NewApplicationRepository(db)

	conf = &core.Config{
		AppName:   "She Leads Africa",
		TestMode:  true,
		SecretKey: "test-secret",
		Admin:     core.AdminConfig{Username: "admin", Password: "s3cr3t"},
		Server:    core.ServerConfig{JWTExpirationDelta: 10 * time.Minute},
		Submission: core.SubmissionConfig{
			StageTimeout:  5 * time.Second,
			MaxUploadSize: 5 << 20,
		},
	}

	// set up services
	mailSvc = new(fakeMailer)
	courseSvc = course.NewService(courseRepo)
	appSvc = application.NewService(
		appRepo,
		courseSvc,
		mailSvc,
		sheetsvc.NewDummyService(),
		drivesvc.NewDummyService(),
		nopLogger{},
		conf,
	)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// set up server
	app = NewServer(ServerDeps{
		Conf:       conf,
		Logger:     nopLogger{},
		CourseSvc:  courseSvc,
		AppSvc:     appSvc,
		Validate:   validate,
		Translator: translator,
	})

	os.Exit(m.Run())
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type fakeMailer struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
}

func (f *fakeMailer) SendMessage(msg *core.EmailMessage) error {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	return nil
}

func (f *fakeMailer) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		_ = f.SendMessage(msg)
	}
}

func (f *fakeMailer) clear() {
	f.mu.Lock()
	f.sent = nil
	f.mu.Unlock()
}

func (f *fakeMailer) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T) string {
	t.Helper()
	token, err := GenerateToken(GetAdminClaims(conf), conf)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

// seedCourse creates a fresh course so tests never depend on one another's data.
func seedCourse(t *testing.T, name string) course.Course {
	t.Helper()
	crs, err := courseSvc.Create(context.Background(), course.NewCourse{
		Name:        name,
		Description: "Learn to grow a brand online.",
		Schedule:    "Tuesdays and Thursdays, 6pm",
		StartDate:   time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		Duration:    "8 weeks",
		Location:    "Online",
		Tutor:       "A. Okafor",
	})
	if err != nil {
		t.Fatalf("seedCourse(): %v", err)
	}
	return crs
}

func submitApplication(t *testing.T, courseID int, email string) application.SubmissionResult {
	t.Helper()
	res, err := appSvc.Submit(context.Background(), validAnswers(courseID, email))
	if err != nil {
		t.Fatalf("submitApplication(): %v", err)
	}
	return res
}

func validAnswers(courseID int, email string) application.AnswerRecord {
	return application.AnswerRecord{
		application.FieldIsEligible:            true,
		application.FieldPathway:               application.PathwayProfessional,
		application.FieldTakenBoosterCourse:    false,
		application.FieldConsentToDataUse:      true,
		application.FieldFullName:              "Amina Bello",
		application.FieldEmail:                 email,
		application.FieldPhoneNumber:           "+2348012345678",
		application.FieldDateOfBirth:           "1996-04-12",
		application.FieldLocation:              "Lagos",
		application.FieldLocationType:          "urban",
		application.FieldAcademicQualification: "bachelors",
		application.FieldEmploymentStatus:      "unemployed",
		application.FieldReferralSource:        "sla_instagram",
		application.FieldPreferredCourse:       courseID,
	}
}
