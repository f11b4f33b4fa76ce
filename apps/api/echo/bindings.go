package echoapi

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/sheleads/intake/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username)
	return validate.Struct(lr)
}

type LoginResponse struct {
	Token string `json:"token"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

func (sr *StatusUpdateRequest) Validate(validate *validator.Validate) error {
	sr.Status = core.CleanString(sr.Status, true)
	return validate.Struct(sr)
}

type EmailCheckRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (er *EmailCheckRequest) Validate(validate *validator.Validate) error {
	er.Email = core.CleanString(er.Email, true)
	return validate.Struct(er)
}
