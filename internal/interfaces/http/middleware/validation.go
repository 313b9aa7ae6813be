package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/erp/bullion/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrValidatorEngine is returned when gin is not backed by validator/v10
var ErrValidatorEngine = errors.New("binding validator is not go-playground/validator")

// SetupValidator configures gin's validator: JSON names in errors, decimal
// amounts validated by value and the decimal_gte0 tag.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return ErrValidatorEngine
	}
	RegisterValidations(v)
	return nil
}

// RegisterValidations installs the ledger tags on v
func RegisterValidations(v *validator.Validate) {
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

	// decimal.Decimal is a struct; tags would otherwise never see its value
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("decimal_gte0", decimalGTE0)
}

// decimalGTE0 accepts a non-negative decimal amount
func decimalGTE0(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	d, err := decimal.NewFromString(field.String())
	if err != nil {
		return false
	}
	return !d.IsNegative()
}

// ValidationDetails turns validator errors into response details
func ValidationDetails(errs validator.ValidationErrors) []dto.ValidationDetail {
	details := make([]dto.ValidationDetail, 0, len(errs))
	for _, e := range errs {
		details = append(details, dto.ValidationDetail{
			Field:   fieldPath(e),
			Message: getValidationMessage(e),
		})
	}
	return details
}

// fieldPath drops the root struct name: "lines[0].price" rather than
// "CreateOrderRequest.lines[0].price"
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Kind() == reflect.Slice {
			return "Must contain at least " + e.Param() + " items"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.Slice {
			return "Must contain at most " + e.Param() + " items"
		}
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "decimal_gte0":
		return "Must be a non-negative amount"
	default:
		return "Invalid value"
	}
}
