package student

import (
	"time"

	"github.com/studytrack/studytrack/core/account"
	"github.com/studytrack/studytrack/core/catalog"
)

// Exams a student can prepare for.
const (
	ExamUPSC  = "UPSC"
	ExamTNPSC = "TNPSC"
	ExamNEET  = "NEET"
)

// Enrollment statuses
const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentPaused    = "paused"
	EnrollmentCancelled = "cancelled"
)

// Todo statuses & priorities
const (
	TodoOpen       = "open"
	TodoInProgress = "in-progress"
	TodoDone       = "done"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Progress statuses
const (
	ProgressNotStarted = "not_started"
	ProgressInProgress = "in_progress"
	ProgressDone       = "done"
)

type (
	Student struct {
		ID             int           `json:"id"`
		DocumentID     string        `json:"documentId,omitempty"`
		Name           string        `json:"name"`
		Email          string        `json:"email"`
		Mobile         string        `json:"mobile,omitempty"`
		DOB            string        `json:"dob,omitempty"`
		State          string        `json:"state,omitempty"`
		District       string        `json:"district,omitempty"`
		Exam           string        `json:"exam"`
		TargetYear     int           `json:"targetYear,omitempty"`
		TargetExamDate string        `json:"targetExamDate,omitempty"`
		OtherInfo      string        `json:"otherInfo,omitempty"`
		User           *account.User `json:"user,omitempty"`
		CreatedAt      time.Time     `json:"createdAt"`
		UpdatedAt      time.Time     `json:"updatedAt"`
	}

	Enrollment struct {
		ID         int                 `json:"id"`
		DocumentID string              `json:"documentId,omitempty"`
		Student    *Student            `json:"student,omitempty"`
		ExamCourse *catalog.ExamCourse `json:"exam_course,omitempty"`
		EnrolledAt *time.Time          `json:"enrolledAt,omitempty"`
		Status     string              `json:"status"`
	}

	StudySession struct {
		ID         int       `json:"id"`
		DocumentID string    `json:"documentId,omitempty"`
		Student    *Student  `json:"student,omitempty"`
		Date       string    `json:"date"`
		StartAt    string    `json:"startAt"`
		EndAt      string    `json:"endAt"`
		Minutes    int       `json:"minutes"`
		Notes      string    `json:"notes,omitempty"`
		CreatedAt  time.Time `json:"createdAt"`
	}

	Todo struct {
		ID          int        `json:"id"`
		DocumentID  string     `json:"documentId,omitempty"`
		Student     *Student   `json:"student,omitempty"`
		Title       string     `json:"title"`
		Description string     `json:"description,omitempty"`
		DueDate     *time.Time `json:"dueDate,omitempty"`
		Status      string     `json:"status"`
		Priority    string     `json:"priority"`
		CreatedAt   time.Time  `json:"createdAt"`
		UpdatedAt   time.Time  `json:"updatedAt"`
	}

	Progress struct {
		ID             int              `json:"id"`
		DocumentID     string           `json:"documentId,omitempty"`
		Student        *Student         `json:"student,omitempty"`
		Content        *catalog.Content `json:"content,omitempty"`
		Percent        float64          `json:"percent"`
		Status         string           `json:"status"`
		LastAccessedAt *time.Time       `json:"lastAccessedAt,omitempty"`
		CompletedAt    *time.Time       `json:"completedAt,omitempty"`
	}
)

// Completed reports whether the todo is done.
func (t Todo) Completed() bool {
	return t.Status == TodoDone
}

// Overdue reports whether the todo is past its due date and not done.
func (t Todo) Overdue(now time.Time) bool {
	return t.DueDate != nil && !t.Completed() && t.DueDate.Before(now)
}

// ExamCourseID returns the id of the enrolled course, 0 when the relation was not populated.
func (e Enrollment) ExamCourseID() int {
	if e.ExamCourse == nil {
		return 0
	}
	return e.ExamCourse.ID
}

// Write payloads sent to the CMS. Relations are set by id.
type (
	StudentData struct {
		Name           string `json:"name"`
		Email          string `json:"email"`
		Mobile         string `json:"mobile,omitempty"`
		DOB            string `json:"dob,omitempty"`
		State          string `json:"state,omitempty"`
		District       string `json:"district,omitempty"`
		Exam           string `json:"exam"`
		TargetYear     int    `json:"targetYear,omitempty"`
		TargetExamDate string `json:"targetExamDate,omitempty"`
		OtherInfo      string `json:"otherInfo,omitempty"`
		User           int    `json:"user,omitempty"`
	}

	EnrollmentData struct {
		Student    int        `json:"student,omitempty"`
		ExamCourse int        `json:"exam_course,omitempty"`
		EnrolledAt *time.Time `json:"enrolledAt,omitempty"`
		Status     string     `json:"status"`
	}

	StudySessionData struct {
		Student int    `json:"student"`
		Date    string `json:"date"`
		StartAt string `json:"startAt"`
		EndAt   string `json:"endAt"`
		Minutes int    `json:"minutes"`
		Notes   string `json:"notes,omitempty"`
	}

	TodoData struct {
		Student     int        `json:"student,omitempty"`
		Title       string     `json:"title"`
		Description string     `json:"description"`
		DueDate     *time.Time `json:"dueDate"`
		Status      string     `json:"status"`
		Priority    string     `json:"priority"`
	}

	ProgressData struct {
		Student        int        `json:"student,omitempty"`
		Content        int        `json:"content,omitempty"`
		Percent        float64    `json:"percent"`
		Status         string     `json:"status"`
		LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty"`
		CompletedAt    *time.Time `json:"completedAt"`
	}
)

// Read filters. UserID scopes every read to the records of one account.
type (
	EnrollmentFilter struct {
		UserID       int
		Status       string
		ExamCourseID int
	}

	StudySessionFilter struct {
		UserID int
		From   string // YYYY-MM-DD, inclusive
		To     string // YYYY-MM-DD, inclusive
	}

	ProgressFilter struct {
		UserID    int
		ContentID int
	}
)
