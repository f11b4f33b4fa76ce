package echoapi

import (
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sheleads/intake/core"
	"github.com/sheleads/intake/core/application"
	"github.com/sheleads/intake/core/course"
	exportsvc "github.com/sheleads/intake/services/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type adminApi struct {
	conf       *core.Config
	courseSvc  *course.Service
	appSvc     *application.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := adminApi{
		conf:       deps.Conf,
		courseSvc:  deps.CourseSvc,
		appSvc:     deps.AppSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	ag := g.Group("/admin")
	ag.POST("/login", api.login)

	// authed endpoints
	authed := ag.Group("", jwt, adminMiddleware())

	authed.GET("/applications", api.queryApplications)
	authed.GET("/applications/export", api.exportApplications)
	authed.GET("/applications/:id", api.retrieveApplication)
	authed.PATCH("/applications/:id/status", api.updateStatus)
	authed.POST("/applications/:id/resend-email", api.resendEmail)

	authed.POST("/courses", api.createCourse)
	authed.PUT("/courses/:id", api.updateCourse)
	authed.DELETE("/courses/:id", api.destroyCourse)
	authed.POST("/courses/:id/questions", api.createQuestion)
	authed.PUT("/questions/:id", api.updateQuestion)
	authed.DELETE("/questions/:id", api.destroyQuestion)
}

// Handlers

func (api *adminApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := authenticate(data.Username, data.Password, api.conf)
	if err != nil {
		return err
	}
	token, err := GenerateToken(claims, api.conf)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *adminApi) queryApplications(ctx echo.Context) error {
	var filter application.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	var ordering Ordering
	ordering.Bind(ctx)

	summaries, err := api.appSvc.Filter(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "filtering applications")
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *adminApi) retrieveApplication(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	detail, err := api.appSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *adminApi) updateStatus(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data StatusUpdateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusUpdateRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	detail, err := api.appSvc.UpdateStatus(ctx.Request().Context(), id, data.Status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *adminApi) resendEmail(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := api.appSvc.ResendConfirmation(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) exportApplications(ctx echo.Context) error {
	var filter application.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	summaries, err := api.appSvc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "filtering applications")
	}

	buff, err := exportsvc.Applications(summaries)
	if err != nil {
		return errors.Wrap(err, "rendering export")
	}

	filename := exportsvc.Filename(time.Now().UTC())
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, buff.Bytes())
}

func (api *adminApi) createCourse(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.courseSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *adminApi) updateCourse(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	orig, err := api.courseSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}

	crs, err := api.courseSvc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *adminApi) destroyCourse(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := api.courseSvc.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) createQuestion(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data course.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.courseSvc.CreateQuestion(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *adminApi) updateQuestion(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data course.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.courseSvc.UpdateQuestion(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *adminApi) destroyQuestion(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err := api.courseSvc.DeleteQuestion(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
