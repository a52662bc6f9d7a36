package validators

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/anonto42/socials/backend/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CustomValidator adapts go-playground/validator to echo.Validator
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator with the application's custom tags registered
func NewValidator() *CustomValidator {
	v := validator.New()
	// visibility accepts exactly private, friends or public
	_ = v.RegisterValidation("visibility", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseVisibility(fl.Field().String())
		return ok && fl.Field().String() == strings.TrimSpace(fl.Field().String())
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, describe(err))
	}
	return nil
}

func describe(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err.Error()
	}
	fe := errs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", fe.Field())
	case "email":
		return "Invalid email address."
	case "visibility":
		return "Invalid visibility. Use private, friends or public."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL.", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid.", fe.Field())
	}
}
