package tests

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	. "github.com/sheleads/intake/apps/api/echo"
	"github.com/sheleads/intake/core/application"
	"github.com/sheleads/intake/core/course"
)

func TestLogin(t *testing.T) {
	tests := []httpTest{
		{
			name:     "valid credentials",
			body:     marchallObj(t, map[string]string{"username": "admin", "password": "s3cr3t"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong password",
			body:     marchallObj(t, map[string]string{"username": "admin", "password": "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "missing fields",
			body:     marchallObj(t, map[string]string{"username": "admin"}),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/admin/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				var res LoginResponse
				decodeBody(t, rec, &res)
				if res.Token == "" {
					t.Fatal("token is empty")
				}
				// the token must open an authed endpoint
				req, rec := newAuthRequest(http.MethodGet, "/v1/admin/applications", res.Token)
				app.ServeHTTP(rec, req)
				if rec.Code != http.StatusOK {
					t.Errorf("authed request code = %v, want 200", rec.Code)
				}
			}
		})
	}
}

func TestAdminAuthRequired(t *testing.T) {
	nonAdmin := &Claims{
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
		Username:       "intruder",
	}
	nonAdminToken, err := GenerateToken(nonAdmin, conf)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{
			name:     "missing token",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "non-admin token",
			token:    nonAdminToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/admin/applications", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestQueryApplications(t *testing.T) {
	crs := seedCourse(t, "Admin Query 101")
	res := submitApplication(t, crs.ID, "admin-query@test.test")
	token := getToken(t)

	req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/admin/applications?course_id=%d", crs.ID), token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v, want 200; body %s", rec.Code, rec.Body.String())
	}
	var summaries []application.Summary
	decodeBody(t, rec, &summaries)
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	if summaries[0].ID != res.ApplicationID {
		t.Errorf("id = %d, want %d", summaries[0].ID, res.ApplicationID)
	}
	if summaries[0].CourseName != crs.Name {
		t.Errorf("course_name = %q, want %q", summaries[0].CourseName, crs.Name)
	}

	// a status the course has no applications in comes back empty
	req, rec = newAuthRequest(http.MethodGet,
		fmt.Sprintf("/v1/admin/applications?course_id=%d&status=rejected", crs.ID), token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v, want 200", rec.Code)
	}
	decodeBody(t, rec, &summaries)
	if len(summaries) != 0 {
		t.Errorf("summaries = %d, want 0 rejected", len(summaries))
	}
}

func TestRetrieveApplication(t *testing.T) {
	crs := seedCourse(t, "Admin Detail 101")
	res := submitApplication(t, crs.ID, "admin-detail@test.test")
	token := getToken(t)

	req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/admin/applications/%d", res.ApplicationID), token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v, want 200; body %s", rec.Code, rec.Body.String())
	}
	var detail application.Detail
	decodeBody(t, rec, &detail)
	if detail.Applicant.Email != "admin-detail@test.test" {
		t.Errorf("applicant email = %q", detail.Applicant.Email)
	}
	if detail.Course.ID != crs.ID {
		t.Errorf("course id = %d, want %d", detail.Course.ID, crs.ID)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/admin/applications/999999", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %v, want 404", rec.Code)
	}
}

func TestUpdateApplicationStatus(t *testing.T) {
	crs := seedCourse(t, "Admin Status 101")
	res := submitApplication(t, crs.ID, "admin-status@test.test")
	token := getToken(t)
	mailSvc.clear()

	req, rec := newAuthRequest(http.MethodPatch,
		fmt.Sprintf("/v1/admin/applications/%d/status", res.ApplicationID), token,
		marchallObj(t, map[string]string{"status": "rejected"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v, want 200; body %s", rec.Code, rec.Body.String())
	}
	var detail application.Detail
	decodeBody(t, rec, &detail)
	if detail.Application.Status != application.StatusRejected {
		t.Errorf("status = %q, want rejected", detail.Application.Status)
	}
	if mailSvc.sentCount() != 1 {
		t.Errorf("status emails = %d, want 1", mailSvc.sentCount())
	}

	req, rec = newAuthRequest(http.MethodPatch,
		fmt.Sprintf("/v1/admin/applications/%d/status", res.ApplicationID), token,
		marchallObj(t, map[string]string{"status": "maybe"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("code = %v, want 400 for unknown status", rec.Code)
	}
}

func TestResendConfirmationEmail(t *testing.T) {
	crs := seedCourse(t, "Admin Resend 101")
	res := submitApplication(t, crs.ID, "admin-resend@test.test")
	token := getToken(t)
	mailSvc.clear()

	req, rec := newAuthRequest(http.MethodPost,
		fmt.Sprintf("/v1/admin/applications/%d/resend-email", res.ApplicationID), token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("code = %v, want 204; body %s", rec.Code, rec.Body.String())
	}
	if mailSvc.sentCount() != 1 {
		t.Errorf("emails = %d, want 1", mailSvc.sentCount())
	}
}

func TestExportApplications(t *testing.T) {
	crs := seedCourse(t, "Admin Export 101")
	submitApplication(t, crs.ID, "admin-export@test.test")
	token := getToken(t)

	req, rec := newAuthRequest(http.MethodGet,
		fmt.Sprintf("/v1/admin/applications/export?course_id=%d", crs.ID), token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v, want 200; body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q, want xlsx", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Errorf("content disposition = %q, want attachment", cd)
	}
	if rec.Body.Len() == 0 {
		t.Error("export body is empty")
	}
}

func TestAdminCourseCRUD(t *testing.T) {
	token := getToken(t)

	req, rec := newAuthRequest(http.MethodPost, "/v1/admin/courses", token,
		marchallObj(t, course.NewCourse{
			Name:        "Admin CRUD 101",
			Description: "Creating courses over the API.",
			Schedule:    "Fridays, 4pm",
			StartDate:   time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
			Duration:    "4 weeks",
			Location:    "Online",
			Tutor:       "T. Diallo",
		}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create code = %v; body %s", rec.Code, rec.Body.String())
	}
	var crs course.Course
	decodeBody(t, rec, &crs)

	req, rec = newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/admin/courses/%d", crs.ID), token,
		marchallObj(t, map[string]string{"tutor": "B. Adeyemi"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update code = %v; body %s", rec.Code, rec.Body.String())
	}
	var updated course.Course
	decodeBody(t, rec, &updated)
	if updated.Tutor != "B. Adeyemi" {
		t.Errorf("tutor = %q, want updated", updated.Tutor)
	}
	if updated.Name != crs.Name {
		t.Errorf("name = %q, unset fields should keep original values", updated.Name)
	}

	req, rec = newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/admin/courses/%d/questions", crs.ID), token,
		marchallObj(t, course.NewQuestion{Prompt: "Pick one", Type: course.QuestionSelect, Options: []string{"a", "b"}}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create question code = %v; body %s", rec.Code, rec.Body.String())
	}
	var q course.Question
	decodeBody(t, rec, &q)

	req, rec = newAuthRequest(http.MethodPost, fmt.Sprintf("/v1/admin/courses/%d/questions", crs.ID), token,
		marchallObj(t, course.NewQuestion{Prompt: "Pick one", Type: course.QuestionSelect}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("optionless select code = %v, want 400", rec.Code)
	}

	req, rec = newAuthRequest(http.MethodPut, fmt.Sprintf("/v1/admin/questions/%d", q.ID), token,
		marchallObj(t, course.NewQuestion{Prompt: "Pick another", Type: course.QuestionSelect, Options: []string{"c", "d"}}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update question code = %v; body %s", rec.Code, rec.Body.String())
	}
	var updatedQ course.Question
	decodeBody(t, rec, &updatedQ)
	if updatedQ.CourseID != crs.ID {
		t.Errorf("question course_id = %d, want %d", updatedQ.CourseID, crs.ID)
	}

	req, rec = newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/admin/questions/%d", q.ID), token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete question code = %v", rec.Code)
	}

	req, rec = newAuthRequest(http.MethodDelete, fmt.Sprintf("/v1/admin/courses/%d", crs.ID), token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete course code = %v", rec.Code)
	}
	req, rec = newRequest(http.MethodGet, fmt.Sprintf("/v1/courses/%d", crs.ID))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("retrieve after delete code = %v, want 404", rec.Code)
	}
}
