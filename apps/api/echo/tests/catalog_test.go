package tests

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/studytrack/core"
	"github.com/studytrack/studytrack/core/catalog"
)

func Test_catalogApi(t *testing.T) {
	app := newTestApp(t)
	mains := app.cms.AddExamCourse("UPSC Mains", 2)
	prelims := app.cms.AddExamCourse("UPSC Prelims", 1)
	polity := app.cms.Create("subjects", map[string]interface{}{"title": "Polity", "slug": "polity", "order": 1, "exam_course": prelims})
	app.cms.Create("subjects", map[string]interface{}{"title": "Ethics", "slug": "ethics", "order": 1, "exam_course": mains})
	contentID := app.cms.AddContent("Preamble", "We, the people of India")
	_, _, token := app.signedUpStudent("jdoe")

	type page struct {
		Data       []catalog.ExamCourse `json:"data"`
		Pagination core.Pagination      `json:"pagination"`
	}
	list := func(t *testing.T, path, token string) page {
		req, rec := newAuthRequest(http.MethodGet, path, token)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var p page
		unmarshalBody(t, rec, &p)
		return p
	}

	t.Run("list ordered", func(t *testing.T) {
		p := list(t, "/v1/exam-courses", "")
		require.Len(t, p.Data, 2)
		assert.Equal(t, "UPSC Prelims", p.Data[0].Title)
		assert.Equal(t, "UPSC Mains", p.Data[1].Title)
		assert.Equal(t, core.Pagination{Page: 1, PageSize: core.DefaultPageSize, PageCount: 1, Total: 2}, p.Pagination)
	})

	t.Run("custom ordering with a session", func(t *testing.T) {
		p := list(t, "/v1/exam-courses?ordering=-order", token)
		require.Len(t, p.Data, 2)
		assert.Equal(t, "UPSC Mains", p.Data[0].Title)
	})

	t.Run("paginated", func(t *testing.T) {
		p := list(t, "/v1/exam-courses?page=2&pageSize=1", "")
		require.Len(t, p.Data, 1)
		assert.Equal(t, "UPSC Mains", p.Data[0].Title)
		assert.Equal(t, 2, p.Pagination.PageCount)
	})

	t.Run("filters are forwarded", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/subjects?filters[exam_course][id][$eq]="+strconv.Itoa(prelims)+"&populate=exam_course")
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var p struct {
			Data []catalog.Subject `json:"data"`
		}
		unmarshalBody(t, rec, &p)
		require.Len(t, p.Data, 1)
		assert.Equal(t, polity, p.Data[0].ID)
		require.NotNil(t, p.Data[0].ExamCourse)
		assert.Equal(t, "UPSC Prelims", p.Data[0].ExamCourse.Title)
	})

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/exam-courses/"+strconv.Itoa(prelims))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var course catalog.ExamCourse
		unmarshalBody(t, rec, &course)
		assert.Equal(t, "upsc-prelims", course.Slug)

		req, rec = newRequest(http.MethodGet, "/v1/contents/"+strconv.Itoa(contentID))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var content catalog.Content
		unmarshalBody(t, rec, &content)
		assert.Equal(t, "We, the people of India", content.Body)
	})

	runHTTPTests(t, app, []httpTest{
		{
			name:     "unknown course",
			method:   http.MethodGet,
			path:     "/v1/exam-courses/999",
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, errNotFound),
		},
		{
			name:     "bad id",
			method:   http.MethodGet,
			path:     "/v1/exam-courses/prelims",
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, errNotFound),
		},
		{
			name:     "unknown collection",
			method:   http.MethodGet,
			path:     "/v1/lessons",
			wantCode: http.StatusNotFound,
		},
	})

	t.Run("CMS down", func(t *testing.T) {
		app.cms.SetDown(true)
		defer app.cms.SetDown(false)

		req, rec := newRequest(http.MethodGet, "/v1/exam-courses")
		app.do(req, rec)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusInternalServerError,
			wantData: marshalObj(t, httpErr{Error: "Internal Server Error"}),
		}, rec)
	})
}
