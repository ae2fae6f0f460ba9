package strapi

import (
	"context"
	"reflect"

	"github.com/pkg/errors"

	"github.com/studytrack/studytrack/core"
	"github.com/studytrack/studytrack/core/catalog"
)

type CatalogRepository struct {
	c *Client
}

var _ catalog.Repository = (*CatalogRepository)(nil)

func NewCatalogRepository(c *Client) *CatalogRepository {
	return &CatalogRepository{c: c}
}

func (repo *CatalogRepository) List(ctx context.Context, kind catalog.Kind, q core.Query, out interface{}) (core.Pagination, error) {
	return repo.c.getData(ctx, "/"+string(kind), q.Values(), out)
}

// Get reads one entry through the list endpoint filtered on id.
func (repo *CatalogRepository) Get(ctx context.Context, kind catalog.Kind, id int, q core.Query, out interface{}) error {
	q = q.With(core.Eq("id", id))
	q.Page, q.PageSize = 1, 1
	return getOne(ctx, repo.c, "/"+string(kind), q, out)
}

// getOne lists path with q and decodes the first entry into out (a pointer to a struct).
// An empty list is core.ErrNotFound.
func getOne(ctx context.Context, c *Client, path string, q core.Query, out interface{}) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("getOne: out must be a non-nil pointer")
	}
	list := reflect.New(reflect.SliceOf(rv.Elem().Type()))
	if _, err := c.getData(ctx, path, q.Values(), list.Interface()); err != nil {
		return err
	}
	if list.Elem().Len() == 0 {
		return core.ErrNotFound
	}
	rv.Elem().Set(list.Elem().Index(0))
	return nil
}

// getAll lists path with q page by page until meta.pagination.pageCount
// and appends every entry to out (a pointer to a slice).
func getAll(ctx context.Context, c *Client, path string, q core.Query, out interface{}) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Slice {
		return errors.New("getAll: out must be a non-nil pointer to a slice")
	}
	all := reflect.MakeSlice(rv.Elem().Type(), 0, 0)
	for q.Page = 1; ; q.Page++ {
		page := reflect.New(rv.Elem().Type())
		pg, err := c.getData(ctx, path, q.Values(), page.Interface())
		if err != nil {
			return err
		}
		all = reflect.AppendSlice(all, page.Elem())
		if page.Elem().Len() == 0 || q.Page >= pg.PageCount {
			break
		}
	}
	rv.Elem().Set(all)
	return nil
}
