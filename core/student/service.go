package student

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/studytrack/studytrack/core"
	"github.com/studytrack/studytrack/core/catalog"
)

var (
	// errors
	ErrNoStudent       = errors.New("complete your student profile first")
	ErrStudentExists   = errors.New("a student profile already exists for this account")
	ErrAlreadyEnrolled = errors.New("already enrolled in this exam course")
	ErrUnknownCourse   = errors.New("exam course not found")

	nowFunc = time.Now // mockable
)

type (
	StudentRepository interface {
		FindStudentByUser(ctx context.Context, userID int) (Student, error)
		CreateStudent(ctx context.Context, data StudentData) (Student, error)
		UpdateStudent(ctx context.Context, id int, data StudentData) (Student, error)
	}

	EnrollmentRepository interface {
		QueryEnrollments(ctx context.Context, filter EnrollmentFilter) ([]Enrollment, error)
		GetEnrollment(ctx context.Context, id, userID int) (Enrollment, error)
		CreateEnrollment(ctx context.Context, data EnrollmentData) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, id int, data EnrollmentData) (Enrollment, error)
	}

	StudySessionRepository interface {
		QueryStudySessions(ctx context.Context, filter StudySessionFilter) ([]StudySession, error)
		GetStudySession(ctx context.Context, id, userID int) (StudySession, error)
		CreateStudySession(ctx context.Context, data StudySessionData) (StudySession, error)
		DeleteStudySession(ctx context.Context, id int) error
	}

	TodoRepository interface {
		QueryTodos(ctx context.Context, userID int) ([]Todo, error)
		GetTodo(ctx context.Context, id, userID int) (Todo, error)
		CreateTodo(ctx context.Context, data TodoData) (Todo, error)
		UpdateTodo(ctx context.Context, id int, data TodoData) (Todo, error)
		DeleteTodo(ctx context.Context, id int) error
	}

	ProgressRepository interface {
		QueryProgress(ctx context.Context, filter ProgressFilter) ([]Progress, error)
		CreateProgress(ctx context.Context, data ProgressData) (Progress, error)
		UpdateProgress(ctx context.Context, id int, data ProgressData) (Progress, error)
	}

	// Repositories groups every student data store.
	Repositories struct {
		Students      StudentRepository
		Enrollments   EnrollmentRepository
		StudySessions StudySessionRepository
		Todos         TodoRepository
		Progress      ProgressRepository
	}

	// CourseFinder looks up exam courses.
	CourseFinder interface {
		GetExamCourse(ctx context.Context, id int, q core.Query) (catalog.ExamCourse, error)
	}

	// Invalidator is told when a user's onboarding state may have changed.
	Invalidator interface {
		Clear(userID int)
	}
)

type Service struct {
	repos    Repositories
	courses  CourseFinder
	observer Invalidator
	mailSvc  core.EmailService
}

func NewService(repos Repositories, courses CourseFinder, observer Invalidator, mailSvc core.EmailService) *Service {
	return &Service{
		repos:    repos,
		courses:  courses,
		observer: observer,
		mailSvc:  mailSvc,
	}
}

// SetObserver replaces the observer notified on enrollment changes.
func (svc *Service) SetObserver(observer Invalidator) {
	svc.observer = observer
}

func (svc *Service) stateChanged(userID int) {
	if svc.observer != nil {
		svc.observer.Clear(userID)
	}
}

// requireStudent returns the student profile of userID or a validation error asking for one.
func (svc *Service) requireStudent(ctx context.Context, userID int) (Student, error) {
	stu, err := svc.repos.Students.FindStudentByUser(ctx, userID)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return Student{}, core.NewValidationError(ErrNoStudent)
		}
		return Student{}, errors.Wrap(err, "finding student by user")
	}
	return stu, nil
}

// Students

func (svc *Service) MyStudent(ctx context.Context, userID int) (Student, error) {
	stu, err := svc.repos.Students.FindStudentByUser(ctx, userID)
	return stu, errors.Wrap(err, "finding student by user")
}

func profileData(p Profile) StudentData {
	return StudentData{
		Name:           p.Name,
		Email:          p.Email,
		Mobile:         p.Mobile,
		DOB:            p.DOB,
		State:          p.State,
		District:       p.District,
		Exam:           p.Exam,
		TargetYear:     p.TargetYear,
		TargetExamDate: p.TargetExamDate,
		OtherInfo:      p.OtherInfo,
	}
}

// CreateStudent onboards userID: creates their student profile and welcomes them.
func (svc *Service) CreateStudent(ctx context.Context, userID int, p Profile) (Student, error) {
	if _, err := svc.repos.Students.FindStudentByUser(ctx, userID); err == nil {
		return Student{}, core.NewValidationError(ErrStudentExists)
	} else if errors.Cause(err) != core.ErrNotFound {
		return Student{}, errors.Wrap(err, "finding student by user")
	}

	data := profileData(p)
	data.User = userID
	stu, err := svc.repos.Students.CreateStudent(ctx, data)
	if err != nil {
		return Student{}, errors.Wrap(err, "creating student")
	}
	svc.stateChanged(userID)

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: stu.Name, Address: stu.Email}},
		Subject:      "Welcome to Study Tracker!",
		TemplateName: "welcome",
		TemplateData: struct{ Name, Exam string }{Name: stu.Name, Exam: stu.Exam},
	})
	return stu, nil
}

// UpdateStudent replaces the profile fields of the student id, which must belong to userID.
func (svc *Service) UpdateStudent(ctx context.Context, userID, id int, p Profile) (Student, error) {
	mine, err := svc.repos.Students.FindStudentByUser(ctx, userID)
	if err != nil {
		return Student{}, errors.Wrap(err, "finding student by user")
	}
	if mine.ID != id {
		return Student{}, core.ErrNotFound
	}
	stu, err := svc.repos.Students.UpdateStudent(ctx, id, profileData(p))
	return stu, errors.Wrap(err, "updating student")
}

// Enrollments

func (svc *Service) MyEnrollments(ctx context.Context, userID int) ([]Enrollment, error) {
	enrs, err := svc.repos.Enrollments.QueryEnrollments(ctx, EnrollmentFilter{UserID: userID})
	return enrs, errors.Wrap(err, "querying enrollments")
}

// ActiveCourseIDs returns the exam courses userID is actively enrolled in.
func (svc *Service) ActiveCourseIDs(ctx context.Context, userID int) ([]int, error) {
	enrs, err := svc.repos.Enrollments.QueryEnrollments(ctx, EnrollmentFilter{UserID: userID, Status: EnrollmentActive})
	if err != nil {
		return nil, errors.Wrap(err, "querying active enrollments")
	}
	ids := make([]int, 0, len(enrs))
	for _, enr := range enrs {
		if id := enr.ExamCourseID(); id != 0 {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (svc *Service) Enroll(ctx context.Context, userID int, e Enroll) (Enrollment, error) {
	stu, err := svc.requireStudent(ctx, userID)
	if err != nil {
		return Enrollment{}, err
	}

	course, err := svc.courses.GetExamCourse(ctx, e.ExamCourseID, core.Query{})
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return Enrollment{}, core.NewValidationError(
				ErrUnknownCourse, core.FieldError{Field: "examCourseId", Error: ErrUnknownCourse.Error()},
			)
		}
		return Enrollment{}, errors.Wrap(err, "getting exam course")
	}

	active, err := svc.repos.Enrollments.QueryEnrollments(ctx, EnrollmentFilter{
		UserID:       userID,
		Status:       EnrollmentActive,
		ExamCourseID: course.ID,
	})
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "querying enrollments")
	}
	if len(active) > 0 {
		return Enrollment{}, core.NewValidationError(
			ErrAlreadyEnrolled, core.FieldError{Field: "examCourseId", Error: ErrAlreadyEnrolled.Error()},
		)
	}

	now := nowFunc().UTC()
	enr, err := svc.repos.Enrollments.CreateEnrollment(ctx, EnrollmentData{
		Student:    stu.ID,
		ExamCourse: course.ID,
		EnrolledAt: &now,
		Status:     EnrollmentActive,
	})
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	if enr.ExamCourse == nil {
		enr.ExamCourse = &course
	}
	svc.stateChanged(userID)

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: stu.Name, Address: stu.Email}},
		Subject:      "You are enrolled in " + course.Title,
		TemplateName: "enrollment",
		TemplateData: struct{ Name, Course string }{Name: stu.Name, Course: course.Title},
	})
	return enr, nil
}

func (svc *Service) UpdateEnrollment(ctx context.Context, userID, id int, ue UpdateEnrollment) (Enrollment, error) {
	if _, err := svc.repos.Enrollments.GetEnrollment(ctx, id, userID); err != nil {
		return Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	enr, err := svc.repos.Enrollments.UpdateEnrollment(ctx, id, EnrollmentData{Status: ue.Status})
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	svc.stateChanged(userID)
	return enr, nil
}

// Study sessions

func (svc *Service) MyStudySessions(ctx context.Context, filter StudySessionFilter) ([]StudySession, error) {
	sessions, err := svc.repos.StudySessions.QueryStudySessions(ctx, filter)
	return sessions, errors.Wrap(err, "querying study sessions")
}

func (svc *Service) LogStudySession(ctx context.Context, userID int, ns NewStudySession) (StudySession, error) {
	stu, err := svc.requireStudent(ctx, userID)
	if err != nil {
		return StudySession{}, err
	}
	sess, err := svc.repos.StudySessions.CreateStudySession(ctx, StudySessionData{
		Student: stu.ID,
		Date:    ns.Date,
		StartAt: clockValue(ns.StartAt),
		EndAt:   clockValue(ns.EndAt),
		Minutes: ns.Minutes(),
		Notes:   ns.Notes,
	})
	return sess, errors.Wrap(err, "creating study session")
}

func (svc *Service) DeleteStudySession(ctx context.Context, userID, id int) error {
	if _, err := svc.repos.StudySessions.GetStudySession(ctx, id, userID); err != nil {
		return errors.Wrap(err, "getting study session")
	}
	return errors.Wrap(svc.repos.StudySessions.DeleteStudySession(ctx, id), "deleting study session")
}

// Todos

func (svc *Service) MyTodos(ctx context.Context, userID int) ([]Todo, error) {
	todos, err := svc.repos.Todos.QueryTodos(ctx, userID)
	return todos, errors.Wrap(err, "querying todos")
}

func parseDueDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	due, err := core.ParseInstant(s)
	if err != nil {
		return nil
	}
	due = due.UTC()
	return &due
}

func (svc *Service) CreateTodo(ctx context.Context, userID int, nt NewTodo) (Todo, error) {
	stu, err := svc.requireStudent(ctx, userID)
	if err != nil {
		return Todo{}, err
	}
	data := TodoData{
		Student:     stu.ID,
		Title:       nt.Title,
		Description: nt.Description,
		DueDate:     parseDueDate(nt.DueDate),
		Status:      nt.Status,
		Priority:    nt.Priority,
	}
	if data.Status == "" {
		data.Status = TodoOpen
	}
	if data.Priority == "" {
		data.Priority = PriorityMedium
	}
	todo, err := svc.repos.Todos.CreateTodo(ctx, data)
	return todo, errors.Wrap(err, "creating todo")
}

func (svc *Service) UpdateTodo(ctx context.Context, userID, id int, upd UpdateTodo) (Todo, error) {
	todo, err := svc.repos.Todos.GetTodo(ctx, id, userID)
	if err != nil {
		return Todo{}, errors.Wrap(err, "getting todo")
	}

	data := TodoData{
		Title:       todo.Title,
		Description: todo.Description,
		DueDate:     todo.DueDate,
		Status:      todo.Status,
		Priority:    todo.Priority,
	}
	if upd.Title != nil {
		data.Title = *upd.Title
	}
	if upd.Description != nil {
		data.Description = core.CleanString(*upd.Description)
	}
	if upd.DueDate != nil {
		data.DueDate = parseDueDate(*upd.DueDate)
	}
	if upd.Priority != nil {
		data.Priority = *upd.Priority
	}
	if upd.Completed != nil {
		if *upd.Completed {
			data.Status = TodoDone
		} else {
			data.Status = TodoOpen
		}
	}
	if upd.Status != nil { // explicit status wins over `completed`
		data.Status = *upd.Status
	}

	todo, err = svc.repos.Todos.UpdateTodo(ctx, id, data)
	return todo, errors.Wrap(err, "updating todo")
}

func (svc *Service) DeleteTodo(ctx context.Context, userID, id int) error {
	if _, err := svc.repos.Todos.GetTodo(ctx, id, userID); err != nil {
		return errors.Wrap(err, "getting todo")
	}
	return errors.Wrap(svc.repos.Todos.DeleteTodo(ctx, id), "deleting todo")
}

// Progress

func (svc *Service) MyProgress(ctx context.Context, userID int) ([]Progress, error) {
	prgs, err := svc.repos.Progress.QueryProgress(ctx, ProgressFilter{UserID: userID})
	return prgs, errors.Wrap(err, "querying progress")
}

// progressStatus derives the status from percent when none is given.
func progressStatus(percent float64, status string) string {
	if status != "" {
		return status
	}
	switch {
	case percent <= 0:
		return ProgressNotStarted
	case percent >= 100:
		return ProgressDone
	default:
		return ProgressInProgress
	}
}

// TrackProgress records how far userID got in a content, creating the record on first access.
func (svc *Service) TrackProgress(ctx context.Context, userID, contentID int, tp TrackProgress) (Progress, error) {
	stu, err := svc.requireStudent(ctx, userID)
	if err != nil {
		return Progress{}, err
	}

	existing, err := svc.repos.Progress.QueryProgress(ctx, ProgressFilter{UserID: userID, ContentID: contentID})
	if err != nil {
		return Progress{}, errors.Wrap(err, "querying progress")
	}

	now := nowFunc().UTC()
	data := ProgressData{
		Percent:        *tp.Percent,
		Status:         progressStatus(*tp.Percent, tp.Status),
		LastAccessedAt: &now,
	}
	if data.Status == ProgressDone {
		data.CompletedAt = &now
		if len(existing) > 0 && existing[0].CompletedAt != nil && existing[0].Status == ProgressDone {
			data.CompletedAt = existing[0].CompletedAt
		}
	}

	if len(existing) == 0 {
		data.Student = stu.ID
		data.Content = contentID
		prg, err := svc.repos.Progress.CreateProgress(ctx, data)
		return prg, errors.Wrap(err, "creating progress")
	}
	prg, err := svc.repos.Progress.UpdateProgress(ctx, existing[0].ID, data)
	return prg, errors.Wrap(err, "updating progress")
}
