package handler

import (
    "net/http"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
)

// Validator adapts go-playground/validator to Echo's Validator
// interface so handlers can call c.Validate on bound request bodies.
type Validator struct {
    validate *validator.Validate
}

// NewValidator returns a Validator ready to be assigned to
// echo.Echo.Validator.
func NewValidator() *Validator {
    return &Validator{validate: validator.New()}
}

// Validate runs struct validation and converts failures into a 400
// HTTPError so Echo renders them consistently.
func (v *Validator) Validate(i interface{}) error {
    if err := v.validate.Struct(i); err != nil {
        return echo.NewHTTPError(http.StatusBadRequest, err.Error())
    }
    return nil
}
