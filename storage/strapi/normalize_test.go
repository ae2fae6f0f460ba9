package strapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/studytrack/core/student"
)

func TestUnmarshalFlat(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "v4 envelope",
			raw: `[{"id": 1, "attributes": {
				"status": "active",
				"exam_course": {"data": {"id": 7, "attributes": {"title": "UPSC Prelims", "order": 1}}},
				"student": {"data": null}
			}}]`,
		},
		{
			name: "v5 flat",
			raw: `[{"id": 1, "documentId": "abc", "status": "active",
				"exam_course": {"id": 7, "documentId": "def", "title": "UPSC Prelims", "order": 1}
			}]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var enrs []student.Enrollment
			require.NoError(t, unmarshalFlat(json.RawMessage(tt.raw), &enrs))
			require.Len(t, enrs, 1)
			assert.Equal(t, 1, enrs[0].ID)
			assert.Equal(t, student.EnrollmentActive, enrs[0].Status)
			require.NotNil(t, enrs[0].ExamCourse)
			assert.Equal(t, 7, enrs[0].ExamCourseID())
			assert.Equal(t, "UPSC Prelims", enrs[0].ExamCourse.Title)
			assert.Nil(t, enrs[0].Student)
		})
	}
}

func TestFlatten_relationList(t *testing.T) {
	raw := `{"id": 3, "attributes": {"title": "Polity", "units": {"data": [
		{"id": 10, "attributes": {"title": "Constitution"}},
		{"id": 11, "attributes": {"title": "Parliament"}}
	], "meta": {}}}}`

	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	got, err := json.Marshal(flatten(v))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 3, "title": "Polity", "units": [
		{"id": 10, "title": "Constitution"},
		{"id": 11, "title": "Parliament"}
	]}`, string(got))
}

func TestUnmarshalFlat_null(t *testing.T) {
	var enr student.Enrollment
	assert.NoError(t, unmarshalFlat(json.RawMessage("null"), &enr))
	assert.Zero(t, enr.ID)
}
