package onboarding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/studytrack/studytrack/core"
	"github.com/studytrack/studytrack/core/student"
)

var nowFunc = time.Now // mockable

// Redirect is where a signed-in user belongs given their onboarding state.
type Redirect string

const (
	RedirectOnboarding Redirect = "onboarding"
	RedirectChooseExam Redirect = "choose-exam"
	RedirectDashboard  Redirect = "dashboard"
)

// Path is the frontend page for r.
func (r Redirect) Path() string {
	return "/" + string(r)
}

// Resolution is the onboarding state of a user.
type Resolution struct {
	StudentID            *int     `json:"studentId"`
	AllowedExamCourseIDs []int    `json:"allowedExamCourseIds"`
	RedirectTo           Redirect `json:"redirectTo"`
}

func onboardingResolution() Resolution {
	return Resolution{AllowedExamCourseIDs: []int{}, RedirectTo: RedirectOnboarding}
}

// Directory is what the Resolver reads: student profiles and active enrollments by user.
type Directory interface {
	MyStudent(ctx context.Context, userID int) (student.Student, error)
	ActiveCourseIDs(ctx context.Context, userID int) ([]int, error)
}

type cacheEntry struct {
	resolution Resolution
	storedAt   time.Time
}

// Resolver answers "where should this user go?" and caches the answer per user for ttl.
type Resolver struct {
	dir    Directory
	ttl    time.Duration
	logger core.Logger

	mu    sync.Mutex
	cache map[int]cacheEntry
	// bumped by Clear and ClearAll; a fetch started before a bump is not stored
	gens  map[int]uint64
	epoch uint64
}

type generation struct {
	user, epoch uint64
}

func NewResolver(dir Directory, ttl time.Duration, logger core.Logger) *Resolver {
	return &Resolver{
		dir:    dir,
		ttl:    ttl,
		logger: logger,
		cache:  make(map[int]cacheEntry),
		gens:   make(map[int]uint64),
	}
}

func (r *Resolver) cached(userID int) (Resolution, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache[userID]
	if !ok {
		return Resolution{}, false
	}
	if nowFunc().Sub(entry.storedAt) >= r.ttl {
		delete(r.cache, userID)
		return Resolution{}, false
	}
	return entry.resolution, true
}

func (r *Resolver) generation(userID int) generation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return generation{user: r.gens[userID], epoch: r.epoch}
}

// store caches res unless userID was cleared since gen was read.
func (r *Resolver) store(userID int, res Resolution, gen generation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gens[userID] != gen.user || r.epoch != gen.epoch {
		return
	}
	r.cache[userID] = cacheEntry{resolution: res, storedAt: nowFunc()}
}

// Resolve returns the onboarding state of userID.
// CMS failures resolve to onboarding and are not cached.
func (r *Resolver) Resolve(ctx context.Context, userID int) (Resolution, error) {
	if res, ok := r.cached(userID); ok {
		return res, nil
	}
	if _, ok := core.AuthToken(ctx); !ok {
		return Resolution{}, core.ErrNoAuthToken
	}

	gen := r.generation(userID)
	res, err := r.resolve(ctx, userID)
	if err != nil {
		r.logger.Error(fmt.Sprintf("resolving onboarding state of user %d: %v", userID, err), err, core.Principal{ID: userID})
		return onboardingResolution(), nil
	}
	r.store(userID, res, gen)
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, userID int) (Resolution, error) {
	stu, err := r.dir.MyStudent(ctx, userID)
	if err != nil {
		if errors.Cause(err) == core.ErrNotFound {
			return onboardingResolution(), nil
		}
		return Resolution{}, errors.Wrap(err, "finding student")
	}

	ids, err := r.dir.ActiveCourseIDs(ctx, userID)
	if err != nil {
		return Resolution{}, errors.Wrap(err, "finding active enrollments")
	}

	res := Resolution{StudentID: core.IntPtr(stu.ID), AllowedExamCourseIDs: ids, RedirectTo: RedirectDashboard}
	if len(ids) == 0 {
		res.AllowedExamCourseIDs = []int{}
		res.RedirectTo = RedirectChooseExam
	}
	return res, nil
}

// Clear drops the cached resolution of userID.
func (r *Resolver) Clear(userID int) {
	r.mu.Lock()
	delete(r.cache, userID)
	r.gens[userID]++
	r.mu.Unlock()
}

// ClearAll drops every cached resolution.
func (r *Resolver) ClearAll() {
	r.mu.Lock()
	r.cache = make(map[int]cacheEntry)
	r.gens = make(map[int]uint64)
	r.epoch++
	r.mu.Unlock()
}
