package echoapi

import (
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sheleads/intake/core/application"
	"github.com/sheleads/intake/core/course"
)

type intakeApi struct {
	courseSvc  *course.Service
	appSvc     *application.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerIntakeAPI(g *echo.Group, deps ServerDeps) {
	api := intakeApi{
		courseSvc:  deps.CourseSvc,
		appSvc:     deps.AppSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	g.POST("/applications", api.submit)
	g.POST("/check-email", api.checkEmail)

	cg := g.Group("/courses")
	cg.GET("", api.queryCourses)
	cg.GET("/:id", api.retrieveCourse)
	cg.GET("/:id/questions", api.queryQuestions)
}

// Handlers

func (api *intakeApi) submit(ctx echo.Context) error {
	var answers application.AnswerRecord
	if err := ctx.Bind(&answers); err != nil {
		return errors.Wrap(err, "binding to AnswerRecord")
	}

	res, err := api.appSvc.Submit(ctx.Request().Context(), answers)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *intakeApi) checkEmail(ctx echo.Context) error {
	var data EmailCheckRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailCheckRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	check, err := api.appSvc.CheckEmail(ctx.Request().Context(), data.Email)
	if err != nil {
		return errors.Wrap(err, "checking email")
	}
	return ctx.JSON(http.StatusOK, check)
}

func (api *intakeApi) queryCourses(ctx echo.Context) error {
	courses, err := api.courseSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *intakeApi) retrieveCourse(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	crs, err := api.courseSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *intakeApi) queryQuestions(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err := api.courseSvc.GetByID(ctx.Request().Context(), id); err != nil {
		return err
	}
	questions, err := api.courseSvc.QueryQuestions(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	return ctx.JSON(http.StatusOK, questions)
}

func pathID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
