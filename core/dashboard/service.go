package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/studytrack/studytrack/core"
	"github.com/studytrack/studytrack/core/student"
)

var nowFunc = time.Now // mockable

// Source is what the dashboard reads.
type Source interface {
	MyStudent(ctx context.Context, userID int) (student.Student, error)
	MyEnrollments(ctx context.Context, userID int) ([]student.Enrollment, error)
	MyStudySessions(ctx context.Context, filter student.StudySessionFilter) ([]student.StudySession, error)
	MyTodos(ctx context.Context, userID int) ([]student.Todo, error)
	MyProgress(ctx context.Context, userID int) ([]student.Progress, error)
}

type Service struct {
	src Source
	loc *time.Location
}

func NewService(src Source, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{src: src, loc: loc}
}

// Summary builds the dashboard of userID.
func (svc *Service) Summary(ctx context.Context, userID int) (Summary, error) {
	now := nowFunc().In(svc.loc)

	stu, err := svc.src.MyStudent(ctx, userID)
	if err != nil {
		return Summary{}, errors.Wrap(err, "finding student")
	}
	enrs, err := svc.src.MyEnrollments(ctx, userID)
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying enrollments")
	}
	sessions, err := svc.src.MyStudySessions(ctx, student.StudySessionFilter{
		UserID: userID,
		From:   now.AddDate(0, 0, -(weekDays - 1)).Format(core.DateLayout),
		To:     now.Format(core.DateLayout),
	})
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying study sessions")
	}
	todos, err := svc.src.MyTodos(ctx, userID)
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying todos")
	}
	prgs, err := svc.src.MyProgress(ctx, userID)
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying progress")
	}

	return Build(now, Input{
		Student:     stu,
		Enrollments: enrs,
		Sessions:    sessions,
		Todos:       todos,
		Progress:    prgs,
	}), nil
}
