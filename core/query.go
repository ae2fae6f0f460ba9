package core

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

type Ordering struct {
	Field     string
	Ascending bool
}

func (ord Ordering) String() string {
	direction := "desc"
	if ord.Ascending {
		direction = "asc"
	}
	return ord.Field + ":" + direction
}

// Filter is a single CMS filter: Path is the attribute path (relations included), Op the
// operator without its `$` ("eq", "gte", "containsi"...).
type Filter struct {
	Path  []string
	Op    string
	Value string
}

func (f Filter) key() string {
	var b strings.Builder
	b.WriteString("filters")
	for _, p := range f.Path {
		b.WriteString("[" + p + "]")
	}
	b.WriteString("[$" + f.Op + "]")
	return b.String()
}

// Eq is a shortcut for an equality Filter on a dotted path ("student.user.id").
func Eq(path string, value interface{}) Filter {
	return Filter{Path: strings.Split(path, "."), Op: "eq", Value: toString(value)}
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// Query describes a CMS collection read.
// RawParams holds `filters[...]` and `populate[...]` params forwarded verbatim from an API client.
type Query struct {
	Filters   []Filter
	RawParams url.Values
	Populate  []string
	Fields    []string
	Sort      []Ordering
	Page      int
	PageSize  int
}

func (q Query) With(filters ...Filter) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), filters...)
	return q
}

// Values encodes q into CMS REST query parameters.
func (q Query) Values() url.Values {
	v := make(url.Values)
	for key, vals := range q.RawParams {
		for _, val := range vals {
			v.Add(key, val)
		}
	}
	for _, f := range q.Filters {
		v.Set(f.key(), f.Value)
	}
	for i, fld := range q.Fields {
		v.Set("fields["+strconv.Itoa(i)+"]", fld)
	}
	switch {
	case len(q.Populate) == 1 && q.Populate[0] == "*":
		v.Set("populate", "*")
	default:
		for i, p := range q.Populate {
			v.Set("populate["+strconv.Itoa(i)+"]", p)
		}
	}
	for i, ord := range q.Sort {
		v.Set("sort["+strconv.Itoa(i)+"]", ord.String())
	}
	if q.Page > 0 {
		v.Set("pagination[page]", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("pagination[pageSize]", strconv.Itoa(clampPageSize(q.PageSize)))
	}
	return v
}

func clampPageSize(size int) int {
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// Pagination mirrors the CMS `meta.pagination` object.
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

// ParseQuery reads the list parameters an API client may send:
// `filters[...]`, `populate`, `sort`, `ordering=a,-b`, `page`, `pageSize`.
func ParseQuery(params url.Values) Query {
	var q Query
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		vals := params[key]
		if len(vals) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(key, "filters["), strings.HasPrefix(key, "populate["):
			if q.RawParams == nil {
				q.RawParams = make(url.Values)
			}
			q.RawParams[key] = vals
		case key == "populate":
			for _, val := range vals {
				for _, p := range strings.Split(val, ",") {
					if p = strings.TrimSpace(p); p != "" {
						q.Populate = append(q.Populate, p)
					}
				}
			}
		case key == "sort":
			for _, val := range vals {
				q.Sort = append(q.Sort, parseSort(val)...)
			}
		case key == "ordering":
			q.Sort = append(q.Sort, parseOrdering(vals[0])...)
		case key == "page":
			q.Page, _ = strconv.Atoi(vals[0])
		case key == "pageSize":
			q.PageSize, _ = strconv.Atoi(vals[0])
		}
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	q.PageSize = clampPageSize(q.PageSize)
	return q
}

// parseSort reads the CMS form: "order:asc,title:desc".
func parseSort(val string) []Ordering {
	var ords []Ordering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		parts := strings.SplitN(field, ":", 2)
		ord := Ordering{Field: parts[0], Ascending: true}
		if len(parts) == 2 && strings.EqualFold(parts[1], "desc") {
			ord.Ascending = false
		}
		ords = append(ords, ord)
	}
	return ords
}

// parseOrdering reads the "-field,field" form.
func parseOrdering(val string) []Ordering {
	var ords []Ordering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		if field == "" || field == "-" {
			continue
		}
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ords = append(ords, Ordering{Field: field, Ascending: !descending})
	}
	return ords
}
