package student

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/studytrack/core"
)

func newValidator() *validator.Validate {
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)
	return validate
}

func TestNewStudySession_Validate(t *testing.T) {
	validate := newValidator()

	tests := []struct {
		name    string
		data    NewStudySession
		wantErr bool
		minutes int
	}{
		{name: "valid", data: NewStudySession{Date: "2026-03-08", StartAt: "06:00", EndAt: "07:30"}, minutes: 90},
		{name: "seconds", data: NewStudySession{Date: "2026-03-08", StartAt: "06:00:00", EndAt: "06:45:59"}, minutes: 45},
		{name: "end before start", data: NewStudySession{Date: "2026-03-08", StartAt: "08:00", EndAt: "07:00"}, wantErr: true},
		{name: "same time", data: NewStudySession{Date: "2026-03-08", StartAt: "08:00", EndAt: "08:00"}, wantErr: true},
		{name: "bad date", data: NewStudySession{Date: "08/03/2026", StartAt: "06:00", EndAt: "07:00"}, wantErr: true},
		{name: "bad clock", data: NewStudySession{Date: "2026-03-08", StartAt: "6am", EndAt: "07:00"}, wantErr: true},
		{name: "missing fields", data: NewStudySession{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.data
			err := data.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.minutes, data.Minutes())
		})
	}
}

func TestProfile_Validate(t *testing.T) {
	validate := newValidator()

	p := Profile{Name: " Asha ", Email: "ASHA@test.in", Exam: "upsc", DOB: "2001-04-12"}
	require.NoError(t, p.Validate(validate))
	assert.Equal(t, "Asha", p.Name)
	assert.Equal(t, "asha@test.in", p.Email)
	assert.Equal(t, ExamUPSC, p.Exam)

	p = Profile{Name: "Asha", Email: "asha@test.in", Exam: "GRE"}
	assert.Error(t, p.Validate(validate))

	p = Profile{Name: "Asha", Email: "asha@test.in", Exam: ExamNEET, DOB: "12-04-2001"}
	assert.Error(t, p.Validate(validate))
}

func TestUpdateTodo_Validate(t *testing.T) {
	validate := newValidator()

	blank := "  "
	upd := UpdateTodo{Title: &blank}
	assert.Error(t, upd.Validate(validate))

	status := "archived"
	upd = UpdateTodo{Status: &status}
	assert.Error(t, upd.Validate(validate))

	title := " Revise "
	due := "2026-03-10T18:00:00Z"
	upd = UpdateTodo{Title: &title, DueDate: &due}
	require.NoError(t, upd.Validate(validate))
	assert.Equal(t, "Revise", *upd.Title)
}

func TestTrackProgress_Validate(t *testing.T) {
	validate := newValidator()
	pct := func(f float64) *float64 { return &f }

	assert.Error(t, (&TrackProgress{}).Validate(validate))
	assert.Error(t, (&TrackProgress{Percent: pct(120)}).Validate(validate))
	assert.NoError(t, (&TrackProgress{Percent: pct(0)}).Validate(validate))
	assert.NoError(t, (&TrackProgress{Percent: pct(100), Status: ProgressDone}).Validate(validate))
}
