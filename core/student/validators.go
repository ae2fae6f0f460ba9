package student

import (
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/studytrack/studytrack/core"
)

var (
	sessionOrderTag  = "sessionorder"
	sessionOrderText = "endAt must be after startAt"
)

type (
	// Profile is the student profile a user fills during onboarding.
	Profile struct {
		Name           string `json:"name" validate:"required,max=100"`
		Email          string `json:"email" validate:"required,email"`
		Mobile         string `json:"mobile" validate:"omitempty,min=7,max=20"`
		DOB            string `json:"dob" validate:"omitempty,date"`
		State          string `json:"state" validate:"max=100"`
		District       string `json:"district" validate:"max=100"`
		Exam           string `json:"exam" validate:"required,oneof=UPSC TNPSC NEET"`
		TargetYear     int    `json:"targetYear" validate:"omitempty,min=2000,max=2100"`
		TargetExamDate string `json:"targetExamDate" validate:"omitempty,date"`
		OtherInfo      string `json:"otherInfo" validate:"max=2000"`
	}

	Enroll struct {
		ExamCourseID int `json:"examCourseId" validate:"required,min=1"`
	}

	UpdateEnrollment struct {
		Status string `json:"status" validate:"required,oneof=active completed paused cancelled"`
	}

	NewStudySession struct {
		Date    string `json:"date" validate:"required,date"`
		StartAt string `json:"startAt" validate:"required,clock"`
		EndAt   string `json:"endAt" validate:"required,clock"`
		Notes   string `json:"notes" validate:"max=2000"`
	}

	NewTodo struct {
		Title       string `json:"title" validate:"required,max=200"`
		Description string `json:"description" validate:"max=2000"`
		DueDate     string `json:"dueDate" validate:"omitempty,instant"`
		Status      string `json:"status" validate:"omitempty,oneof=open in-progress done"`
		Priority    string `json:"priority" validate:"omitempty,oneof=low medium high"`
	}

	// UpdateTodo is a partial update: nil fields are left untouched.
	// Completed is a shortcut for Status done/open.
	UpdateTodo struct {
		Title       *string `json:"title" validate:"omitempty,max=200"`
		Description *string `json:"description" validate:"omitempty,max=2000"`
		DueDate     *string `json:"dueDate" validate:"omitempty,instant"`
		Status      *string `json:"status" validate:"omitempty,oneof=open in-progress done"`
		Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high"`
		Completed   *bool   `json:"completed"`
	}

	TrackProgress struct {
		Percent *float64 `json:"percent" validate:"required,min=0,max=100"`
		Status  string   `json:"status" validate:"omitempty,oneof=not_started in_progress done"`
	}
)

// InitValidators registers the student validations and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(sessionStructValidation, NewStudySession{})
	core.RegisterCustomTranslation(validate, translator, sessionOrderTag, sessionOrderText)
}

func sessionStructValidation(sl validator.StructLevel) {
	ns, ok := sl.Current().Interface().(NewStudySession)
	if !ok {
		return
	}
	start, err1 := core.ParseClock(ns.StartAt)
	end, err2 := core.ParseClock(ns.EndAt)
	if err1 != nil || err2 != nil {
		return // reported by the `clock` tag
	}
	if !end.After(start) {
		sl.ReportError(ns.EndAt, "endAt", "EndAt", sessionOrderTag, "")
	}
}

func (p *Profile) Validate(validate *validator.Validate) error {
	p.Name = core.CleanString(p.Name)
	p.Email = core.CleanString(p.Email, true /* lower */)
	p.Mobile = core.CleanString(p.Mobile)
	p.State = core.CleanString(p.State)
	p.District = core.CleanString(p.District)
	p.Exam = strings.ToUpper(core.CleanString(p.Exam))
	p.OtherInfo = core.CleanString(p.OtherInfo)
	return validate.Struct(p)
}

func (e *Enroll) Validate(validate *validator.Validate) error {
	return validate.Struct(e)
}

func (ue *UpdateEnrollment) Validate(validate *validator.Validate) error {
	ue.Status = core.CleanString(ue.Status, true /* lower */)
	return validate.Struct(ue)
}

func (ns *NewStudySession) Validate(validate *validator.Validate) error {
	ns.Notes = core.CleanString(ns.Notes)
	return validate.Struct(ns)
}

// Minutes is the session length; only meaningful on a validated session.
func (ns NewStudySession) Minutes() int {
	start, _ := core.ParseClock(ns.StartAt)
	end, _ := core.ParseClock(ns.EndAt)
	return int(end.Sub(start) / time.Minute)
}

func (nt *NewTodo) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	return validate.Struct(nt)
}

func (upd *UpdateTodo) Validate(validate *validator.Validate) error {
	if upd.Title != nil {
		title := core.CleanString(*upd.Title)
		if title == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "title", Error: "this field is required"})
		}
		upd.Title = &title
	}
	return validate.Struct(upd)
}

func (tp *TrackProgress) Validate(validate *validator.Validate) error {
	return validate.Struct(tp)
}

// clockValue formats a validated clock as the CMS time type expects.
func clockValue(s string) string {
	t, _ := core.ParseClock(s)
	return t.Format("15:04:05.000")
}
