package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/studytrack/studytrack/apps/api/echo"
	"github.com/studytrack/studytrack/core/account"
	"github.com/studytrack/studytrack/core/student"
)

func Test_accountApi_signUp(t *testing.T) {
	app := newTestApp(t)
	app.cms.AddUser("taken", "taken@test.cd", "Str0ngPass!")

	signUp := func(uname, email, pwd, confirm string) []byte {
		return marshalObj(t, account.SignUp{Username: uname, Email: email, Password: pwd, ConfirmPassword: confirm})
	}

	tests := []httpTest{
		{
			name:     "passwords do not match",
			body:     signUp("jdoe", "jdoe@test.cd", "Str0ngPass!", "Str0ngPass?"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"confirmPassword": "passwords do not match"}`),
		},
		{
			name:     "password too short",
			body:     signUp("jdoe", "jdoe@test.cd", "abc1", "abc1"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"password": "password must be at least 6 characters long"}`),
		},
		{
			name:     "numeric password",
			body:     signUp("jdoe", "jdoe@test.cd", "12345678", "12345678"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"password": "password cannot be entirely numeric"}`),
		},
		{
			name:     "password like username",
			body:     signUp("jonathan", "jdoe@test.cd", "jonathan1", "jonathan1"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"password": "password is too similar to your username or email"}`),
		},
		{
			name:     "email taken",
			body:     signUp("newbie", "Taken@test.cd", "Str0ngPass!", "Str0ngPass!"),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "This email is already registered. Please use a different email or try signing in."}),
		},
		{
			name:     "username taken",
			body:     signUp("taken", "other@test.cd", "Str0ngPass!", "Str0ngPass!"),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "This username is already taken. Please choose a different username."}),
		},
		{
			name:     "missing fields",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/auth/sign-up"
	}
	runHTTPTests(t, app, tests)

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/sign-up", signUp("jdoe", " JDoe@Test.cd ", "Str0ngPass!", "Str0ngPass!"))
		app.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp UserResponse
		unmarshalBody(t, rec, &resp)
		assert.NotZero(t, resp.User.ID)
		assert.Equal(t, "jdoe", resp.User.Username)
		assert.Equal(t, "jdoe@test.cd", resp.User.Email)

		cookie := sessionCookie(t, app, rec)
		require.NotNil(t, cookie)
		assert.NotEmpty(t, cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, "/", cookie.Path)
		assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	})
}

func Test_accountApi_signIn(t *testing.T) {
	app := newTestApp(t)
	app.cms.AddUser("jdoe", "jdoe@test.cd", "Str0ngPass!")

	signIn := func(identifier, pwd string) []byte {
		return marshalObj(t, account.SignIn{Identifier: identifier, Password: pwd})
	}

	tests := []httpTest{
		{
			name:     "wrong password",
			body:     signIn("jdoe", "nope-nope"),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "Invalid identifier or password"}),
		},
		{
			name:     "unknown user",
			body:     signIn("ghost", "Str0ngPass!"),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "Invalid identifier or password"}),
		},
		{
			name:     "missing identifier",
			body:     signIn("  ", "Str0ngPass!"),
			wantCode: http.StatusBadRequest,
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/auth/sign-in"
	}
	runHTTPTests(t, app, tests)

	for _, identifier := range []string{"jdoe", "jdoe@test.cd"} {
		t.Run("success with "+identifier, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/sign-in", signIn(identifier, "Str0ngPass!"))
			app.do(req, rec)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp UserResponse
			unmarshalBody(t, rec, &resp)
			assert.Equal(t, "jdoe", resp.User.Username)
			assert.NotEmpty(t, sessionCookie(t, app, rec).Value)
		})
	}
}

func Test_accountApi_notConfigured(t *testing.T) {
	app := newTestApp(t)
	app.conf.CMS.URL = ""

	req, rec := newRequest(http.MethodPost, "/v1/auth/sign-in", marshalObj(t, account.SignIn{Identifier: "jdoe", Password: "Str0ngPass!"}))
	app.do(req, rec)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusServiceUnavailable,
		wantData: marshalObj(t, httpErr{Error: "Backend service is not configured. Please contact support."}),
	}, rec)
}

func Test_accountApi_me(t *testing.T) {
	app := newTestApp(t)
	userID := app.cms.AddUser("jdoe", "jdoe@test.cd", "Str0ngPass!")
	token := app.cms.Token(userID)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "no token",
			method:   http.MethodGet,
			path:     "/v1/auth/me",
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:     "forged token",
			method:   http.MethodGet,
			path:     "/v1/auth/me",
			token:    "not.a.jwt",
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
	})

	t.Run("bearer token", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/auth/me", token)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var usr account.User
		unmarshalBody(t, rec, &usr)
		assert.Equal(t, userID, usr.ID)
		assert.Equal(t, "jdoe@test.cd", usr.Email)
	})

	t.Run("session cookie", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/auth/me")
		req.AddCookie(&http.Cookie{Name: app.conf.Session.CookieName, Value: token})
		app.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func Test_accountApi_signOut(t *testing.T) {
	app := newTestApp(t)
	userID, _, token := app.signedUpStudent("jdoe")

	// warm the resolver cache
	_, err := app.svcs.Resolver.Resolve(withToken(token), userID)
	require.NoError(t, err)
	hits := app.cms.Hits()

	req, rec := newAuthRequest(http.MethodPost, "/v1/auth/sign-out", token)
	app.do(req, rec)
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookie := sessionCookie(t, app, rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.MaxAge < 0)

	// the cached resolution is gone: resolving hits the CMS again
	_, err = app.svcs.Resolver.Resolve(withToken(token), userID)
	require.NoError(t, err)
	assert.Greater(t, app.cms.Hits(), hits)

	t.Run("anonymous", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/sign-out")
		app.do(req, rec)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func Test_accountApi_passwordReset(t *testing.T) {
	app := newTestApp(t)
	userID := app.cms.AddUser("jdoe", "jdoe@test.cd", "Str0ngPass!")

	reset := func(code, pwd, confirm string) []byte {
		return marshalObj(t, account.ResetPassword{Code: code, Password: pwd, PasswordConfirmation: confirm})
	}

	runHTTPTests(t, app, []httpTest{
		{
			name:     "forgot password",
			method:   http.MethodPost,
			path:     "/v1/auth/forgot-password",
			body:     marshalObj(t, account.ForgotPassword{Email: "jdoe@test.cd"}),
			wantCode: http.StatusOK,
			wantData: marshalObj(t, MessageResponse{Message: "If an account exists for this email, you will receive a link to reset your password shortly."}),
		},
		{
			name:     "forgot password: invalid email",
			method:   http.MethodPost,
			path:     "/v1/auth/forgot-password",
			body:     marshalObj(t, account.ForgotPassword{Email: "jdoe"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "reset: passwords do not match",
			method:   http.MethodPost,
			path:     "/v1/auth/reset-password",
			body:     reset("whatever", "N3wPassword", "N3wPasswort"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"passwordConfirmation": "passwords do not match"}`),
		},
		{
			name:     "reset: bad code",
			method:   http.MethodPost,
			path:     "/v1/auth/reset-password",
			body:     reset("bad-code", "N3wPassword", "N3wPassword"),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "Incorrect code provided"}),
		},
	})

	t.Run("reset", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/reset-password", reset(app.cms.ResetCode(userID), "N3wPassword", "N3wPassword"))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.NotEmpty(t, sessionCookie(t, app, rec).Value)

		req, rec = newRequest(http.MethodPost, "/v1/auth/sign-in", marshalObj(t, account.SignIn{Identifier: "jdoe", Password: "N3wPassword"}))
		app.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_accountApi_emailConfirmation(t *testing.T) {
	app := newTestApp(t)
	userID := app.cms.AddUser("jdoe", "jdoe@test.cd", "Str0ngPass!")
	confirmation := app.cms.ConfirmationToken(userID)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "invalid token",
			method:   http.MethodPost,
			path:     "/v1/auth/email-confirmation",
			body:     marshalObj(t, account.EmailConfirmation{Confirmation: "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "Invalid token"}),
		},
		{
			name:     "confirm",
			method:   http.MethodPost,
			path:     "/v1/auth/email-confirmation",
			body:     marshalObj(t, account.EmailConfirmation{Confirmation: confirmation}),
			wantCode: http.StatusOK,
			wantData: marshalObj(t, MessageResponse{Message: "Your email has been confirmed. You can now sign in."}),
		},
		{
			name:     "resend",
			method:   http.MethodPost,
			path:     "/v1/auth/send-email-confirmation",
			body:     marshalObj(t, account.SendEmailConfirmation{Email: "jdoe@test.cd"}),
			wantCode: http.StatusOK,
			wantData: marshalObj(t, MessageResponse{Message: "A new confirmation email has been sent."}),
		},
	})

	for _, usr := range app.cms.Records("users") {
		if usr["id"] == userID {
			assert.Equal(t, true, usr["confirmed"])
		}
	}
}

func Test_accountApi_resolution(t *testing.T) {
	app := newTestApp(t)
	courseID := app.cms.AddExamCourse("UPSC Prelims", 1)

	newcomer := app.cms.AddUser("newcomer", "newcomer@test.cd", "Str0ngPass!")
	_, chooserStudent, chooserToken := app.signedUpStudent("chooser")
	_, enrolledStudent, enrolledToken := app.signedUpStudent("enrolled")
	app.cms.AddEnrollment(enrolledStudent, courseID, student.EnrollmentActive)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "unauthenticated",
			method:   http.MethodGet,
			path:     "/v1/auth/resolution",
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
		{
			name:     "no student profile",
			method:   http.MethodGet,
			path:     "/v1/auth/resolution",
			token:    app.cms.Token(newcomer),
			wantCode: http.StatusOK,
			wantData: []byte(`{"studentId": null, "allowedExamCourseIds": [], "redirectTo": "onboarding"}`),
		},
		{
			name:     "no active enrollment",
			method:   http.MethodGet,
			path:     "/v1/auth/resolution",
			token:    chooserToken,
			wantCode: http.StatusOK,
			wantData: marshalObj(t, map[string]interface{}{
				"studentId": chooserStudent, "allowedExamCourseIds": []int{}, "redirectTo": "choose-exam",
			}),
		},
		{
			name:     "enrolled",
			method:   http.MethodGet,
			path:     "/v1/auth/resolution",
			token:    enrolledToken,
			wantCode: http.StatusOK,
			wantData: marshalObj(t, map[string]interface{}{
				"studentId": enrolledStudent, "allowedExamCourseIds": []int{courseID}, "redirectTo": "dashboard",
			}),
		},
	})

	t.Run("cached until refreshed", func(t *testing.T) {
		app.cms.AddEnrollment(chooserStudent, courseID, student.EnrollmentActive)

		req, rec := newAuthRequest(http.MethodGet, "/v1/auth/resolution", chooserToken)
		app.do(req, rec)
		assert.JSONEq(t, string(marshalObj(t, map[string]interface{}{
			"studentId": chooserStudent, "allowedExamCourseIds": []int{}, "redirectTo": "choose-exam",
		})), rec.Body.String())

		req, rec = newAuthRequest(http.MethodPost, "/v1/auth/resolution/refresh", chooserToken)
		app.do(req, rec)
		assert.JSONEq(t, string(marshalObj(t, map[string]interface{}{
			"studentId": chooserStudent, "allowedExamCourseIds": []int{courseID}, "redirectTo": "dashboard",
		})), rec.Body.String())
	})

	t.Run("CMS failure is not cached", func(t *testing.T) {
		userID := app.cms.AddUser("late", "late@test.cd", "Str0ngPass!")
		stuID := app.cms.AddStudent(userID, "Late", "late@test.cd", student.ExamNEET)
		app.cms.AddEnrollment(stuID, courseID, student.EnrollmentActive)
		token := app.cms.Token(userID)

		app.cms.SetDown(true)
		req, rec := newAuthRequest(http.MethodGet, "/v1/auth/resolution", token)
		app.do(req, rec)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"studentId": null, "allowedExamCourseIds": [], "redirectTo": "onboarding"}`, rec.Body.String())

		app.cms.SetDown(false)
		req, rec = newAuthRequest(http.MethodGet, "/v1/auth/resolution", token)
		app.do(req, rec)
		assert.JSONEq(t, string(marshalObj(t, map[string]interface{}{
			"studentId": stuID, "allowedExamCourseIds": []int{courseID}, "redirectTo": "dashboard",
		})), rec.Body.String())
	})
}

func Test_accountApi_navigate(t *testing.T) {
	app := newTestApp(t)
	courseID := app.cms.AddExamCourse("TNPSC Group 1", 1)

	newcomer := app.cms.AddUser("newcomer", "newcomer@test.cd", "Str0ngPass!")
	_, _, chooserToken := app.signedUpStudent("chooser")
	_, enrolledStudent, enrolledToken := app.signedUpStudent("enrolled")
	app.cms.AddEnrollment(enrolledStudent, courseID, student.EnrollmentActive)

	redirect := func(to string) []byte {
		return marshalObj(t, RedirectResponse{Redirect: to})
	}

	tests := []httpTest{
		{name: "anonymous on protected page", path: "/v1/auth/navigate?path=/dashboard", wantData: redirect("/sign-in")},
		{name: "anonymous on nested protected page", path: "/v1/auth/navigate?path=/courses/3", wantData: redirect("/sign-in")},
		{name: "anonymous on public page", path: "/v1/auth/navigate?path=/about", wantData: redirect("")},
		{name: "anonymous on sign-in", path: "/v1/auth/navigate?path=/sign-in", wantData: redirect("")},
		{name: "invalid token is anonymous", path: "/v1/auth/navigate?path=/dashboard", token: "not.a.jwt", wantData: redirect("/sign-in")},
		{name: "newcomer on dashboard", path: "/v1/auth/navigate?path=/dashboard", token: app.cms.Token(newcomer), wantData: redirect("/onboarding")},
		{name: "newcomer on onboarding", path: "/v1/auth/navigate?path=/onboarding", token: app.cms.Token(newcomer), wantData: redirect("")},
		{name: "chooser on dashboard", path: "/v1/auth/navigate?path=/dashboard", token: chooserToken, wantData: redirect("/choose-exam")},
		{name: "chooser on courses", path: "/v1/auth/navigate?path=/courses/1", token: chooserToken, wantData: redirect("")},
		{name: "enrolled on sign-in", path: "/v1/auth/navigate?path=/sign-in", token: enrolledToken, wantData: redirect("/dashboard")},
		{name: "enrolled on home", path: "/v1/auth/navigate", token: enrolledToken, wantData: redirect("/dashboard")},
		{name: "enrolled on dashboard", path: "/v1/auth/navigate?path=/dashboard", token: enrolledToken, wantData: redirect("")},
	}
	for i := range tests {
		tests[i].method = http.MethodGet
		tests[i].wantCode = http.StatusOK
	}
	runHTTPTests(t, app, tests)
}
