package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"taskmanager/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var registerOnce sync.Once

// registerValidators teaches gin's validator the custom tags used by the
// request structs and makes field errors report JSON names.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("notpast", notPast)
		_ = v.RegisterValidation("ordering", func(fl validator.FieldLevel) bool {
			return repository.ValidOrdering(fl.Field().String())
		})
	})
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

func notPast(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case time.Time:
		return !v.Before(time.Now())
	case *time.Time:
		return v == nil || !v.Before(time.Now())
	}
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "notblank":
		return "This field may not be blank."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "uuid":
		return "Must be a valid UUID."
	case "notpast":
		return "Deadline cannot be in the past."
	case "ordering":
		return "Invalid ordering."
	}
	return "Invalid value."
}

func validationFailed(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": fields})
}

// bindJSON decodes and validates the body, writing the 400 response itself
// when it returns false.
func bindJSON(c *gin.Context, req interface{}) bool {
	return handleBindError(c, c.ShouldBindJSON(req), "Invalid request body")
}

func bindQuery(c *gin.Context, req interface{}) bool {
	return handleBindError(c, c.ShouldBindQuery(req), "Invalid query parameters")
}

func handleBindError(c *gin.Context, err error, msg string) bool {
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			if _, seen := fields[fe.Field()]; !seen {
				fields[fe.Field()] = fieldMessage(fe)
			}
		}
		validationFailed(c, fields)
		return false
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
	return false
}

// parseTimeParam accepts RFC 3339 timestamps and plain dates.
func parseTimeParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
