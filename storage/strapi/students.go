package strapi

import (
	"context"
	"net/http"

	"github.com/studytrack/studytrack/core"
	"github.com/studytrack/studytrack/core/student"
)

const (
	studentsPath      = "/students"
	enrollmentsPath   = "/enrollments"
	studySessionsPath = "/study-sessions"
	todosPath         = "/todos"
	progressesPath    = "/progresses"

	ownerPath = "student.user.id"
)

// StudentRepository implements every student data store of core/student.
type StudentRepository struct {
	c *Client
}

var (
	_ student.StudentRepository      = (*StudentRepository)(nil)
	_ student.EnrollmentRepository   = (*StudentRepository)(nil)
	_ student.StudySessionRepository = (*StudentRepository)(nil)
	_ student.TodoRepository         = (*StudentRepository)(nil)
	_ student.ProgressRepository     = (*StudentRepository)(nil)
)

func NewStudentRepository(c *Client) *StudentRepository {
	return &StudentRepository{c: c}
}

// Repositories returns repo as every core/student store.
func (repo *StudentRepository) Repositories() student.Repositories {
	return student.Repositories{
		Students:      repo,
		Enrollments:   repo,
		StudySessions: repo,
		Todos:         repo,
		Progress:      repo,
	}
}

// owned scopes a query to the records of userID.
// Lists built on it are read in full with getAll, MaxPageSize records per request.
func owned(userID int, populate ...string) core.Query {
	return core.Query{
		Filters:  []core.Filter{core.Eq(ownerPath, userID)},
		Populate: populate,
		PageSize: core.MaxPageSize,
	}
}

// Students

func (repo *StudentRepository) FindStudentByUser(ctx context.Context, userID int) (student.Student, error) {
	var stu student.Student
	q := core.Query{
		Filters:  []core.Filter{core.Eq("user.id", userID)},
		Populate: []string{"user"},
		PageSize: 1,
	}
	err := getOne(ctx, repo.c, studentsPath, q, &stu)
	return stu, err
}

func (repo *StudentRepository) CreateStudent(ctx context.Context, data student.StudentData) (student.Student, error) {
	var stu student.Student
	err := repo.c.writeData(ctx, http.MethodPost, studentsPath, data, &stu)
	return stu, err
}

func (repo *StudentRepository) UpdateStudent(ctx context.Context, id int, data student.StudentData) (student.Student, error) {
	var stu student.Student
	err := repo.c.writeData(ctx, http.MethodPut, itemPath("students", id), data, &stu)
	return stu, err
}

// Enrollments

func (repo *StudentRepository) QueryEnrollments(ctx context.Context, filter student.EnrollmentFilter) ([]student.Enrollment, error) {
	q := owned(filter.UserID, "exam_course")
	if filter.Status != "" {
		q = q.With(core.Eq("status", filter.Status))
	}
	if filter.ExamCourseID != 0 {
		q = q.With(core.Eq("exam_course.id", filter.ExamCourseID))
	}
	q.Sort = []core.Ordering{{Field: "enrolledAt", Ascending: false}}

	var enrs []student.Enrollment
	err := getAll(ctx, repo.c, enrollmentsPath, q, &enrs)
	return enrs, err
}

func (repo *StudentRepository) GetEnrollment(ctx context.Context, id, userID int) (student.Enrollment, error) {
	var enr student.Enrollment
	err := getOne(ctx, repo.c, enrollmentsPath, owned(userID, "exam_course").With(core.Eq("id", id)), &enr)
	return enr, err
}

func (repo *StudentRepository) CreateEnrollment(ctx context.Context, data student.EnrollmentData) (student.Enrollment, error) {
	var enr student.Enrollment
	err := repo.c.writeData(ctx, http.MethodPost, enrollmentsPath, data, &enr)
	return enr, err
}

func (repo *StudentRepository) UpdateEnrollment(ctx context.Context, id int, data student.EnrollmentData) (student.Enrollment, error) {
	var enr student.Enrollment
	err := repo.c.writeData(ctx, http.MethodPut, itemPath("enrollments", id), data, &enr)
	return enr, err
}

// Study sessions

func (repo *StudentRepository) QueryStudySessions(ctx context.Context, filter student.StudySessionFilter) ([]student.StudySession, error) {
	q := owned(filter.UserID)
	if filter.From != "" {
		q = q.With(core.Filter{Path: []string{"date"}, Op: "gte", Value: filter.From})
	}
	if filter.To != "" {
		q = q.With(core.Filter{Path: []string{"date"}, Op: "lte", Value: filter.To})
	}
	q.Sort = []core.Ordering{{Field: "date"}, {Field: "startAt"}}

	var sessions []student.StudySession
	err := getAll(ctx, repo.c, studySessionsPath, q, &sessions)
	return sessions, err
}

func (repo *StudentRepository) GetStudySession(ctx context.Context, id, userID int) (student.StudySession, error) {
	var sess student.StudySession
	err := getOne(ctx, repo.c, studySessionsPath, owned(userID).With(core.Eq("id", id)), &sess)
	return sess, err
}

func (repo *StudentRepository) CreateStudySession(ctx context.Context, data student.StudySessionData) (student.StudySession, error) {
	var sess student.StudySession
	err := repo.c.writeData(ctx, http.MethodPost, studySessionsPath, data, &sess)
	return sess, err
}

func (repo *StudentRepository) DeleteStudySession(ctx context.Context, id int) error {
	return repo.c.delete(ctx, itemPath("study-sessions", id))
}

// Todos

func (repo *StudentRepository) QueryTodos(ctx context.Context, userID int) ([]student.Todo, error) {
	q := owned(userID)
	q.Sort = []core.Ordering{{Field: "createdAt"}}

	var todos []student.Todo
	err := getAll(ctx, repo.c, todosPath, q, &todos)
	return todos, err
}

func (repo *StudentRepository) GetTodo(ctx context.Context, id, userID int) (student.Todo, error) {
	var todo student.Todo
	err := getOne(ctx, repo.c, todosPath, owned(userID).With(core.Eq("id", id)), &todo)
	return todo, err
}

func (repo *StudentRepository) CreateTodo(ctx context.Context, data student.TodoData) (student.Todo, error) {
	var todo student.Todo
	err := repo.c.writeData(ctx, http.MethodPost, todosPath, data, &todo)
	return todo, err
}

func (repo *StudentRepository) UpdateTodo(ctx context.Context, id int, data student.TodoData) (student.Todo, error) {
	var todo student.Todo
	err := repo.c.writeData(ctx, http.MethodPut, itemPath("todos", id), data, &todo)
	return todo, err
}

func (repo *StudentRepository) DeleteTodo(ctx context.Context, id int) error {
	return repo.c.delete(ctx, itemPath("todos", id))
}

// Progress

func (repo *StudentRepository) QueryProgress(ctx context.Context, filter student.ProgressFilter) ([]student.Progress, error) {
	q := owned(filter.UserID, "content")
	if filter.ContentID != 0 {
		q = q.With(core.Eq("content.id", filter.ContentID))
	}
	q.Sort = []core.Ordering{{Field: "lastAccessedAt", Ascending: false}}

	var prgs []student.Progress
	err := getAll(ctx, repo.c, progressesPath, q, &prgs)
	return prgs, err
}

func (repo *StudentRepository) CreateProgress(ctx context.Context, data student.ProgressData) (student.Progress, error) {
	var prg student.Progress
	err := repo.c.writeData(ctx, http.MethodPost, progressesPath, data, &prg)
	return prg, err
}

func (repo *StudentRepository) UpdateProgress(ctx context.Context, id int, data student.ProgressData) (student.Progress, error) {
	var prg student.Progress
	err := repo.c.writeData(ctx, http.MethodPut, itemPath("progresses", id), data, &prg)
	return prg, err
}
