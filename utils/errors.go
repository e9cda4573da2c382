package utils

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

func CreateError(statusCode int, title string, detail string, ctx iris.Context) {
	ctx.StopWithJSON(statusCode, iris.Map{
		"status":    statusCode,
		"title":     title,
		"detail":    detail,
		"timestamp": time.Now().Unix(),
	})
}

// CreateNotFound is used for both genuinely missing resources and resources
// the caller may not see; the two are indistinguishable on purpose so that
// private plans do not leak their existence.
func CreateNotFound(ctx iris.Context) {
	CreateError(iris.StatusNotFound, "Not Found", "Resource not found.", ctx)
}

func CreateForbidden(ctx iris.Context) {
	CreateError(iris.StatusForbidden, "Forbidden", "You do not have permission to perform this action.", ctx)
}

func CreateInternalServerError(ctx iris.Context) {
	CreateError(iris.StatusInternalServerError, "Internal Server Error", "Something went wrong, please try again.", ctx)
}

func CreateEmailAlreadyRegistered(ctx iris.Context) {
	CreateError(iris.StatusConflict, "Conflict", "Email already registered.", ctx)
}

// HandleValidationErrors maps ReadJSON/validator failures onto a 400 with
// per-field details when available.
func HandleValidationErrors(err error, ctx iris.Context) {
	if errs, ok := err.(validator.ValidationErrors); ok {
		validationErrors := make([]iris.Map, 0, len(errs))
		for _, fieldErr := range errs {
			validationErrors = append(validationErrors, iris.Map{
				"field": fieldErr.Field(),
				"tag":   fieldErr.Tag(),
				"param": fieldErr.Param(),
			})
		}
		CreateValidationError(validationErrors, ctx)
		return
	}

	CreateError(iris.StatusBadRequest, "Bad Request", err.Error(), ctx)
}

func CreateValidationError(fields []iris.Map, ctx iris.Context) {
	ctx.StopWithJSON(iris.StatusUnprocessableEntity, iris.Map{
		"status":    iris.StatusUnprocessableEntity,
		"title":     "Validation Error",
		"fields":    fields,
		"timestamp": time.Now().Unix(),
	})
}
