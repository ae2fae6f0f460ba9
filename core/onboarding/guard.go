package onboarding

import (
	"context"
	"strings"
)

const (
	SignInPath    = "/sign-in"
	SignUpPath    = "/sign-up"
	DashboardPath = "/dashboard"
)

// ProtectedPrefixes are the pages that need a session.
var ProtectedPrefixes = []string{
	"/dashboard",
	"/welcome",
	"/onboarding",
	"/courses",
	"/profile",
	"/learning",
	"/choose-exam",
}

func hasPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// IsProtected reports whether path needs a session.
func IsProtected(path string) bool {
	for _, prefix := range ProtectedPrefixes {
		if hasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Guard returns the page a visitor of path should be sent to, or "" to let them through.
func Guard(path string, authenticated bool) string {
	switch {
	case !authenticated && IsProtected(path):
		return SignInPath
	case authenticated && (path == "/" || hasPrefix(path, SignInPath) || hasPrefix(path, SignUpPath)):
		return DashboardPath
	}
	return ""
}

// onboardingPaths are the pages each onboarding state may visit besides its own.
var onboardingPaths = map[Redirect][]string{
	RedirectOnboarding: {"/onboarding", "/welcome", "/learning", "/profile"},
	RedirectChooseExam: {"/choose-exam", "/courses", "/profile"},
}

// Navigate refines Guard for a signed-in user with their onboarding state: a user who has
// not finished onboarding is sent to the step they are on.
func (r *Resolver) Navigate(ctx context.Context, path string, userID int) (string, error) {
	redirect := Guard(path, true)
	if redirect == "" && !IsProtected(path) {
		return "", nil
	}

	res, err := r.Resolve(ctx, userID)
	if err != nil {
		return "", err
	}
	target := path
	if redirect != "" {
		target = redirect
	}
	if res.RedirectTo == RedirectDashboard {
		return redirect, nil
	}
	for _, allowed := range onboardingPaths[res.RedirectTo] {
		if hasPrefix(target, allowed) {
			return redirect, nil
		}
	}
	return res.RedirectTo.Path(), nil
}
