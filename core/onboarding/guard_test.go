package onboarding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/studytrack/core/student"
)

func TestGuard(t *testing.T) {
	tests := []struct {
		path          string
		authenticated bool
		want          string
	}{
		{path: "/dashboard", want: SignInPath},
		{path: "/dashboard/stats", want: SignInPath},
		{path: "/welcome", want: SignInPath},
		{path: "/onboarding", want: SignInPath},
		{path: "/courses/3", want: SignInPath},
		{path: "/profile", want: SignInPath},
		{path: "/dashboards", want: ""},
		{path: "/", want: ""},
		{path: "/sign-in", want: ""},
		{path: "/about", want: ""},
		{path: "/sign-in", authenticated: true, want: DashboardPath},
		{path: "/sign-up", authenticated: true, want: DashboardPath},
		{path: "/", authenticated: true, want: DashboardPath},
		{path: "/dashboard", authenticated: true, want: ""},
		{path: "/about", authenticated: true, want: ""},
	}
	for _, tt := range tests {
		name := tt.path
		if tt.authenticated {
			name += " (authed)"
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Guard(tt.path, tt.authenticated))
		})
	}
}

func TestResolver_Navigate(t *testing.T) {
	dir := &directoryStub{
		students: map[int]student.Student{2: {ID: 20}, 3: {ID: 30}},
		courses:  map[int][]int{3: {7}},
	}
	resolver := NewResolver(dir, time.Minute, new(nopLogger))

	tests := []struct {
		name   string
		userID int
		path   string
		want   string
	}{
		{name: "public page", userID: 1, path: "/about", want: ""},
		{name: "new user to onboarding", userID: 1, path: "/dashboard", want: "/onboarding"},
		{name: "new user on onboarding", userID: 1, path: "/onboarding", want: ""},
		{name: "new user signing in", userID: 1, path: "/sign-in", want: "/onboarding"},
		{name: "no course to choose-exam", userID: 2, path: "/dashboard", want: "/choose-exam"},
		{name: "no course browsing courses", userID: 2, path: "/courses/7", want: ""},
		{name: "enrolled on dashboard", userID: 3, path: "/dashboard", want: ""},
		{name: "enrolled signing in", userID: 3, path: "/sign-in", want: DashboardPath},
		{name: "enrolled on onboarding", userID: 3, path: "/onboarding", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.Navigate(authedCtx(), tt.path, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
