package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/studytrack/core"
	"github.com/studytrack/studytrack/core/dashboard"
	"github.com/studytrack/studytrack/core/student"
)

func Test_dashboardApi(t *testing.T) {
	app := newTestApp(t)
	courseID := app.cms.AddExamCourse("NEET UG", 1)
	contentID := app.cms.AddContent("Cell Biology", "The cell is the basic unit of life")

	now := time.Now().UTC()
	today := now.Format(core.DateLayout)
	examDate := now.AddDate(1, 0, 0).Format(core.DateLayout)

	userID := app.cms.AddUser("jdoe", "jdoe@test.cd", "Str0ngPass!")
	stuID := app.cms.AddStudent(userID, "John Doe", "jdoe@test.cd", student.ExamNEET, map[string]interface{}{"targetExamDate": examDate})
	app.cms.AddEnrollment(stuID, courseID, student.EnrollmentActive)
	app.cms.Create("study-sessions", map[string]interface{}{
		"student": stuID, "date": today, "startAt": "06:00:00.000", "endAt": "07:30:00.000", "minutes": 90,
	})
	app.cms.Create("todos", map[string]interface{}{"student": stuID, "title": "Revise", "status": "open", "priority": "high"})
	app.cms.Create("todos", map[string]interface{}{"student": stuID, "title": "Mock test", "status": "done", "priority": "medium"})
	app.cms.Create("todos", map[string]interface{}{
		"student": stuID, "title": "Late", "status": "open", "priority": "low",
		"dueDate": now.AddDate(0, 0, -2).Format(time.RFC3339),
	})
	app.cms.Create("progresses", map[string]interface{}{"student": stuID, "content": contentID, "percent": 50, "status": "in_progress"})

	newcomer := app.cms.AddUser("newcomer", "newcomer@test.cd", "Str0ngPass!")

	runHTTPTests(t, app, []httpTest{
		{
			name:     "unauthenticated",
			method:   http.MethodGet,
			path:     "/v1/dashboard",
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:     "no student profile",
			method:   http.MethodGet,
			path:     "/v1/dashboard",
			token:    app.cms.Token(newcomer),
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, errNotFound),
		},
	})

	req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard", app.cms.Token(userID))
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sum dashboard.Summary
	unmarshalBody(t, rec, &sum)
	assert.Equal(t, stuID, sum.Student.ID)
	require.Len(t, sum.ExamCourses, 1)
	assert.Equal(t, "NEET UG", sum.ExamCourses[0].Title)

	assert.Len(t, sum.StudyHours.Days, 7)
	assert.Equal(t, today, sum.StudyHours.Days[6].Date)
	assert.Equal(t, 1.5, sum.StudyHours.Days[6].Hours)
	assert.Equal(t, 1.5, sum.StudyHours.TotalHours)
	assert.Equal(t, 1, sum.StudyHours.StudyDays)
	assert.Equal(t, 6, sum.StudyHours.RestDays)
	assert.Len(t, sum.StudyHours.Recent, 1)

	assert.Equal(t, 3, sum.Todos.Total)
	assert.Equal(t, 2, sum.Todos.Open)
	assert.Equal(t, 1, sum.Todos.Done)
	assert.Equal(t, 1, sum.Todos.Overdue)

	assert.Equal(t, 1, sum.Progress.Tracked)
	assert.Equal(t, 1, sum.Progress.InProgress)

	require.NotNil(t, sum.Countdown)
	assert.Equal(t, examDate, sum.Countdown.ExamDate)
	assert.False(t, sum.Countdown.Passed)
	assert.True(t, sum.Countdown.Days > 300)
}

func Test_dashboardApi_manyTodos(t *testing.T) {
	app := newTestApp(t)
	_, stuID, token := app.signedUpStudent("busy")
	for i := 0; i < core.MaxPageSize+5; i++ {
		app.cms.Create("todos", map[string]interface{}{"student": stuID, "title": "todo", "status": "open", "priority": "low"})
	}

	req, rec := newAuthRequest(http.MethodGet, "/v1/dashboard", token)
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sum dashboard.Summary
	unmarshalBody(t, rec, &sum)
	assert.Equal(t, core.MaxPageSize+5, sum.Todos.Total)
	assert.Equal(t, core.MaxPageSize+5, sum.Todos.Open)

	req, rec = newAuthRequest(http.MethodGet, "/v1/todos", token)
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var todos []student.Todo
	unmarshalBody(t, rec, &todos)
	assert.Len(t, todos, core.MaxPageSize+5)
}
