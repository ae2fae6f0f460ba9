package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studytrack/studytrack/core/student"
)

type studentApi struct {
	svc      *student.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, required echo.MiddlewareFunc, svc *student.Service, validate *validator.Validate) {
	api := studentApi{svc: svc, validate: validate}

	sg := g.Group("/students", required)
	sg.GET("/me", api.retrieveMe)
	sg.POST("/me", api.createMe)
	sg.PUT("/:id", api.updateStudent)

	eg := g.Group("/enrollments", required)
	eg.GET("", api.queryEnrollments)
	eg.POST("", api.enroll)
	eg.PUT("/:id", api.updateEnrollment)

	ssg := g.Group("/study-sessions", required)
	ssg.GET("", api.queryStudySessions)
	ssg.POST("", api.logStudySession)
	ssg.DELETE("/:id", api.destroyStudySession)

	tg := g.Group("/todos", required)
	tg.GET("", api.queryTodos)
	tg.POST("", api.createTodo)
	tg.PUT("/:id", api.updateTodo)
	tg.DELETE("/:id", api.destroyTodo)

	pg := g.Group("/progresses", required)
	pg.GET("", api.queryProgress)
	pg.PUT("/content/:contentId", api.trackProgress)
}

// Students

func (api *studentApi) retrieveMe(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	stu, err := api.svc.MyStudent(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *studentApi) createMe(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data student.Profile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Profile")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	stu, err := api.svc.CreateStudent(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, stu)
}

func (api *studentApi) updateStudent(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	var data student.Profile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Profile")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	stu, err := api.svc.UpdateStudent(ctx.Request().Context(), userID, id, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, stu)
}

// Enrollments

func (api *studentApi) queryEnrollments(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	enrs, err := api.svc.MyEnrollments(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []student.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *studentApi) enroll(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data student.Enroll
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Enroll")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *studentApi) updateEnrollment(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	var data student.UpdateEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEnrollment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	enr, err := api.svc.UpdateEnrollment(ctx.Request().Context(), userID, id, data)
	if err != nil {
		return errors.Wrap(err, "updating enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

// Study sessions

func (api *studentApi) queryStudySessions(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var dr DateRange
	if err := dr.Bind(ctx, api.validate); err != nil {
		return err
	}

	sessions, err := api.svc.MyStudySessions(ctx.Request().Context(), student.StudySessionFilter{
		UserID: userID,
		From:   dr.From,
		To:     dr.To,
	})
	if err != nil {
		return errors.Wrap(err, "querying study sessions")
	}
	if sessions == nil {
		sessions = []student.StudySession{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *studentApi) logStudySession(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data student.NewStudySession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudySession")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.svc.LogStudySession(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "logging study session")
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *studentApi) destroyStudySession(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteStudySession(ctx.Request().Context(), userID, id); err != nil {
		return errors.Wrap(err, "deleting study session")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// Todos

func (api *studentApi) queryTodos(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	todos, err := api.svc.MyTodos(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "querying todos")
	}
	if todos == nil {
		todos = []student.Todo{}
	}
	return ctx.JSON(http.StatusOK, todos)
}

func (api *studentApi) createTodo(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	var data student.NewTodo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTodo")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	todo, err := api.svc.CreateTodo(ctx.Request().Context(), userID, data)
	if err != nil {
		return errors.Wrap(err, "creating todo")
	}
	return ctx.JSON(http.StatusCreated, todo)
}

func (api *studentApi) updateTodo(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	var data student.UpdateTodo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTodo")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	todo, err := api.svc.UpdateTodo(ctx.Request().Context(), userID, id, data)
	if err != nil {
		return errors.Wrap(err, "updating todo")
	}
	return ctx.JSON(http.StatusOK, todo)
}

func (api *studentApi) destroyTodo(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	id, err := idParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.DeleteTodo(ctx.Request().Context(), userID, id); err != nil {
		return errors.Wrap(err, "deleting todo")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// Progress

func (api *studentApi) queryProgress(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	prgs, err := api.svc.MyProgress(ctx.Request().Context(), userID)
	if err != nil {
		return errors.Wrap(err, "querying progress")
	}
	if prgs == nil {
		prgs = []student.Progress{}
	}
	return ctx.JSON(http.StatusOK, prgs)
}

func (api *studentApi) trackProgress(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	contentID, err := idParam(ctx, "contentId")
	if err != nil {
		return err
	}
	var data student.TrackProgress
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TrackProgress")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prg, err := api.svc.TrackProgress(ctx.Request().Context(), userID, contentID, data)
	if err != nil {
		return errors.Wrap(err, "tracking progress")
	}
	return ctx.JSON(http.StatusOK, prg)
}
