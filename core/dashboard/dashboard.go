// Package dashboard aggregates a student's records into the figures shown on their dashboard.
package dashboard

import (
	"math"
	"sort"
	"time"

	"github.com/studytrack/studytrack/core"
	"github.com/studytrack/studytrack/core/catalog"
	"github.com/studytrack/studytrack/core/student"
)

const (
	weekDays        = 7
	recentSessions  = 5
	upcomingTodoMax = 5
)

type (
	Day struct {
		Date    string  `json:"date"`
		Weekday string  `json:"weekday"`
		Hours   float64 `json:"hours"`
	}

	StudyHours struct {
		Days         []Day                  `json:"days"`
		TotalHours   float64                `json:"totalHours"`
		DailyAverage float64                `json:"dailyAverage"`
		StudyDays    int                    `json:"studyDays"`
		RestDays     int                    `json:"restDays"`
		MaxHours     float64                `json:"maxHours"`
		Recent       []student.StudySession `json:"recent"`
	}

	Todos struct {
		Total      int            `json:"total"`
		Open       int            `json:"open"`
		InProgress int            `json:"inProgress"`
		Done       int            `json:"done"`
		Overdue    int            `json:"overdue"`
		Upcoming   []student.Todo `json:"upcoming"`
	}

	Progress struct {
		Tracked        int     `json:"tracked"`
		NotStarted     int     `json:"notStarted"`
		InProgress     int     `json:"inProgress"`
		Done           int     `json:"done"`
		AveragePercent float64 `json:"averagePercent"`
	}

	Countdown struct {
		ExamDate string `json:"examDate"`
		Days     int    `json:"days"`
		Hours    int    `json:"hours"`
		Minutes  int    `json:"minutes"`
		Seconds  int    `json:"seconds"`
		Passed   bool   `json:"passed"`
	}

	Summary struct {
		Student     student.Student      `json:"student"`
		ExamCourses []catalog.ExamCourse `json:"examCourses"`
		StudyHours  StudyHours           `json:"studyHours"`
		Todos       Todos                `json:"todos"`
		Progress    Progress             `json:"progress"`
		Countdown   *Countdown           `json:"countdown,omitempty"`
	}

	Input struct {
		Student     student.Student
		Enrollments []student.Enrollment
		Sessions    []student.StudySession
		Todos       []student.Todo
		Progress    []student.Progress
	}
)

// Build computes the dashboard as of now; days are cut in now's location.
func Build(now time.Time, in Input) Summary {
	sum := Summary{
		Student:     in.Student,
		ExamCourses: activeCourses(in.Enrollments),
		StudyHours:  BuildStudyHours(now, in.Sessions),
		Todos:       BuildTodos(now, in.Todos),
		Progress:    BuildProgress(in.Progress),
	}
	if in.Student.TargetExamDate != "" {
		if target, err := time.ParseInLocation(core.DateLayout, in.Student.TargetExamDate, now.Location()); err == nil {
			cd := BuildCountdown(now, target)
			cd.ExamDate = in.Student.TargetExamDate
			sum.Countdown = &cd
		}
	}
	return sum
}

func activeCourses(enrs []student.Enrollment) []catalog.ExamCourse {
	courses := make([]catalog.ExamCourse, 0, len(enrs))
	for _, enr := range enrs {
		if enr.Status == student.EnrollmentActive && enr.ExamCourse != nil {
			courses = append(courses, *enr.ExamCourse)
		}
	}
	return courses
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}

// BuildStudyHours summarizes the seven days ending on now's date.
func BuildStudyHours(now time.Time, sessions []student.StudySession) StudyHours {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	first := today.AddDate(0, 0, -(weekDays - 1))

	minutes := make(map[string]int, weekDays)
	for _, sess := range sessions {
		minutes[sess.Date] += sess.Minutes
	}

	sh := StudyHours{Days: make([]Day, 0, weekDays)}
	for i := 0; i < weekDays; i++ {
		date := first.AddDate(0, 0, i)
		key := date.Format(core.DateLayout)
		hours := round1(float64(minutes[key]) / 60)
		sh.Days = append(sh.Days, Day{Date: key, Weekday: date.Weekday().String()[:3], Hours: hours})

		sh.TotalHours += float64(minutes[key]) / 60
		if minutes[key] > 0 {
			sh.StudyDays++
		}
		if hours > sh.MaxHours {
			sh.MaxHours = hours
		}
	}
	sh.RestDays = weekDays - sh.StudyDays
	if sh.StudyDays > 0 {
		sh.DailyAverage = round1(sh.TotalHours / float64(sh.StudyDays))
	}
	sh.TotalHours = round1(sh.TotalHours)

	recent := append([]student.StudySession(nil), sessions...)
	sort.SliceStable(recent, func(i, j int) bool {
		if recent[i].Date != recent[j].Date {
			return recent[i].Date > recent[j].Date
		}
		return recent[i].StartAt > recent[j].StartAt
	})
	if len(recent) > recentSessions {
		recent = recent[:recentSessions]
	}
	sh.Recent = recent
	return sh
}

// BuildTodos counts todos by status and lists the next ones due.
func BuildTodos(now time.Time, todos []student.Todo) Todos {
	ts := Todos{Total: len(todos), Upcoming: []student.Todo{}}
	for _, todo := range todos {
		switch todo.Status {
		case student.TodoDone:
			ts.Done++
		case student.TodoInProgress:
			ts.InProgress++
		default:
			ts.Open++
		}
		if todo.Overdue(now) {
			ts.Overdue++
		} else if todo.DueDate != nil && !todo.Completed() {
			ts.Upcoming = append(ts.Upcoming, todo)
		}
	}
	sort.SliceStable(ts.Upcoming, func(i, j int) bool {
		return ts.Upcoming[i].DueDate.Before(*ts.Upcoming[j].DueDate)
	})
	if len(ts.Upcoming) > upcomingTodoMax {
		ts.Upcoming = ts.Upcoming[:upcomingTodoMax]
	}
	return ts
}

// BuildProgress counts tracked contents by status.
func BuildProgress(prgs []student.Progress) Progress {
	ps := Progress{Tracked: len(prgs)}
	var total float64
	for _, prg := range prgs {
		switch prg.Status {
		case student.ProgressDone:
			ps.Done++
		case student.ProgressInProgress:
			ps.InProgress++
		default:
			ps.NotStarted++
		}
		total += prg.Percent
	}
	if ps.Tracked > 0 {
		ps.AveragePercent = round1(total / float64(ps.Tracked))
	}
	return ps
}

// BuildCountdown splits the time left until target; zero once target has passed.
func BuildCountdown(now, target time.Time) Countdown {
	left := target.Sub(now)
	if left <= 0 {
		return Countdown{Passed: true}
	}
	secs := int(left / time.Second)
	return Countdown{
		Days:    secs / 86400,
		Hours:   secs % 86400 / 3600,
		Minutes: secs % 3600 / 60,
		Seconds: secs % 60,
	}
}
