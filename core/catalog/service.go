package catalog

import (
	"context"

	"github.com/pkg/errors"

	"github.com/studytrack/studytrack/core"
)

// Repository reads the catalog collections. Lists are decoded into out, a pointer to a
// slice of the Kind's entry type.
type Repository interface {
	List(ctx context.Context, kind Kind, q core.Query, out interface{}) (core.Pagination, error)
	Get(ctx context.Context, kind Kind, id int, q core.Query, out interface{}) error
}

// Page is one page of a catalog list.
type Page struct {
	Data       interface{}     `json:"data"`
	Pagination core.Pagination `json:"pagination"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// defaults applies the catalog ordering: `order` ascending unless asked otherwise.
func defaults(q core.Query) core.Query {
	if len(q.Sort) == 0 {
		q.Sort = []core.Ordering{{Field: "order", Ascending: true}}
	}
	return q
}

func newSlice(kind Kind) (interface{}, error) {
	switch kind {
	case KindExamCourse:
		return &[]ExamCourse{}, nil
	case KindSubject:
		return &[]Subject{}, nil
	case KindUnit:
		return &[]Unit{}, nil
	case KindChapter:
		return &[]Chapter{}, nil
	case KindModule:
		return &[]Module{}, nil
	case KindContent:
		return &[]Content{}, nil
	}
	return nil, errors.Errorf("unknown catalog kind %q", kind)
}

func (svc *Service) List(ctx context.Context, kind Kind, q core.Query) (Page, error) {
	out, err := newSlice(kind)
	if err != nil {
		return Page{}, err
	}
	pg, err := svc.repo.List(ctx, kind, defaults(q), out)
	if err != nil {
		return Page{}, errors.Wrapf(err, "listing %s", kind)
	}
	return Page{Data: out, Pagination: pg}, nil
}

func (svc *Service) ListExamCourses(ctx context.Context, q core.Query) ([]ExamCourse, error) {
	var courses []ExamCourse
	if _, err := svc.repo.List(ctx, KindExamCourse, defaults(q), &courses); err != nil {
		return nil, errors.Wrap(err, "listing exam courses")
	}
	return courses, nil
}

func (svc *Service) GetExamCourse(ctx context.Context, id int, q core.Query) (ExamCourse, error) {
	var course ExamCourse
	err := svc.repo.Get(ctx, KindExamCourse, id, q, &course)
	return course, errors.Wrap(err, "getting exam course")
}

func (svc *Service) GetContent(ctx context.Context, id int, q core.Query) (Content, error) {
	var content Content
	err := svc.repo.Get(ctx, KindContent, id, q, &content)
	return content, errors.Wrap(err, "getting content")
}
