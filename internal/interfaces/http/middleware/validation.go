package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/retailops/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

var setupValidatorOnce sync.Once

// SetupValidator configures gin's validator: errors name fields by their
// json or form tag, decimal.Decimal values are validated as strings, and
// the positive_decimal / nonnegative_decimal tags are available.
func SetupValidator() {
	setupValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.String()
			}
			return nil
		}, decimal.Decimal{})
		_ = v.RegisterValidation("positive_decimal", decimalSign(func(d decimal.Decimal) bool { return d.IsPositive() }))
		_ = v.RegisterValidation("nonnegative_decimal", decimalSign(func(d decimal.Decimal) bool { return !d.IsNegative() }))
	})
}

func decimalSign(ok func(decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && ok(d)
	}
}

// BindError writes the 400 (or 413) response for a failed ShouldBind*.
func BindError(c *gin.Context, err error) {
	requestID := c.GetString(RequestIDKey)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]dto.ValidationDetail, 0, len(verrs))
		for _, e := range verrs {
			details = append(details, dto.ValidationDetail{
				Field:   fieldPath(e),
				Message: validationMessage(e),
			})
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewValidationErrorResponse(requestID, details))
		return
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(dto.ErrorInfo{
			Code:      dto.CodeRequestTooLarge,
			Message:   "Request body exceeds maximum allowed size",
			RequestID: requestID,
		}))
		return
	}

	message := "Malformed request body"
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		message = "Request body is required"
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		message = "Request body is not valid JSON"
	case errors.As(err, &typeErr):
		message = "Field " + typeErr.Field + " has the wrong type"
	case err != nil:
		message = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrorInfo{
		Code:      dto.CodeInvalidJSON,
		Message:   message,
		RequestID: requestID,
	}))
}

// fieldPath drops the top-level struct name: "distributions[0].quantity".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "positive_decimal":
		return "Must be a number greater than zero"
	case "nonnegative_decimal":
		return "Must be a number greater than or equal to zero"
	case "min":
		if e.Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " item(s)"
		}
		return "Must be at least " + e.Param()
	case "max":
		switch e.Kind() {
		case reflect.String:
			return "Must be at most " + e.Param() + " characters"
		case reflect.Slice:
			return "Must contain at most " + e.Param() + " items"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	default:
		return "Invalid value"
	}
}
