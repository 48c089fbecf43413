package middleware

import (
	stderrors "errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/errors"
)

var validatorOnce sync.Once

var (
	countryCodeRegex  = regexp.MustCompile(`^[A-Z]{2}$`)
	serviceLevelRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{2,32}$`)
	postalCodeRegex   = regexp.MustCompile(`^[A-Za-z0-9 -]{3,10}$`)
)

// InitValidator registers the shipping validators on gin's binding engine.
func InitValidator() {
	validatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		registerShippingValidators(v)
	})
}

func registerShippingValidators(v *validator.Validate) {
	_ = v.RegisterValidation("country_code", func(fl validator.FieldLevel) bool {
		return countryCodeRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("service_level", func(fl validator.FieldLevel) bool {
		return serviceLevelRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("postal_code", func(fl validator.FieldLevel) bool {
		return postalCodeRegex.MatchString(fl.Field().String())
	})

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// ValidationErrorFormatter formats validation errors into a map keyed by JSON field path
func ValidationErrorFormatter(err error) map[string]string {
	fields := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if stderrors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			fields[fieldPath(e)] = formatValidationError(e)
		}
	}
	return fields
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "email":
		return "must be a valid email address"
	case "country_code":
		return "must be an ISO 3166-1 alpha-2 country code"
	case "service_level":
		return "must be a carrier service level code"
	case "postal_code":
		return "must be a valid postal code"
	default:
		return "is invalid"
	}
}

// BindAndValidate binds the JSON body into obj and validates it.
func BindAndValidate(c *gin.Context, obj any) *errors.AppError {
	InitValidator()
	if err := c.ShouldBindJSON(obj); err != nil {
		var validationErrors validator.ValidationErrors
		if stderrors.As(err, &validationErrors) {
			return errors.ErrValidationWithFields("validation failed", ValidationErrorFormatter(validationErrors))
		}
		return errors.ErrBadRequest("invalid request body: " + err.Error())
	}
	return nil
}
