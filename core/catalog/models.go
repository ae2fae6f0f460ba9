package catalog

import "time"

// Meta is shared by every catalog entry.
type Meta struct {
	ID          int        `json:"id"`
	DocumentID  string     `json:"documentId,omitempty"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Order       int        `json:"order"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

type (
	ExamCourse struct {
		Meta
		Summary  string    `json:"summary,omitempty"`
		Subjects []Subject `json:"subjects,omitempty"`
	}

	Subject struct {
		Meta
		Summary    string      `json:"summary,omitempty"`
		ExamCourse *ExamCourse `json:"exam_course,omitempty"`
		Units      []Unit      `json:"units,omitempty"`
	}

	Unit struct {
		Meta
		Summary  string    `json:"summary,omitempty"`
		Subject  *Subject  `json:"subject,omitempty"`
		Chapters []Chapter `json:"chapters,omitempty"`
	}

	Chapter struct {
		Meta
		Summary string   `json:"summary,omitempty"`
		Unit    *Unit    `json:"unit,omitempty"`
		Modules []Module `json:"modules,omitempty"`
	}

	Module struct {
		Meta
		Summary  string    `json:"summary,omitempty"`
		Chapter  *Chapter  `json:"chapter,omitempty"`
		Contents []Content `json:"contents,omitempty"`
	}

	Content struct {
		Meta
		Body   string  `json:"body"`
		Module *Module `json:"module,omitempty"`
	}
)

// Kind names a catalog collection as the CMS REST API does.
type Kind string

const (
	KindExamCourse Kind = "exam-courses"
	KindSubject    Kind = "subjects"
	KindUnit       Kind = "units"
	KindChapter    Kind = "chapters"
	KindModule     Kind = "modules"
	KindContent    Kind = "contents"
)

var Kinds = []Kind{KindExamCourse, KindSubject, KindUnit, KindChapter, KindModule, KindContent}
