package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/erp/treasury/internal/domain/cashbox"
	"github.com/erp/treasury/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Custom binding tags for ledger vocabulary
const (
	TagPaymentChannel = "payment_channel"
	TagCashCategory   = "cash_category"
)

// SetupValidator names fields after their json or form tag and registers
// the ledger vocabulary tags
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation(TagPaymentChannel, func(fl validator.FieldLevel) bool {
			return cashbox.PaymentChannel(fl.Field().String()).IsValid()
		})
		_ = v.RegisterValidation(TagCashCategory, func(fl validator.FieldLevel) bool {
			return cashbox.Category(fl.Field().String()).IsValid()
		})

		// Use JSON tag names for field names in errors
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
	}
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: getValidationMessage(e),
			})
		}
	}

	return dto.NewValidationErrorResponse(
		"Request validation failed",
		requestID,
		details,
	)
}

// HandleValidationError answers 400 with the rejected fields. Errors that are
// not validator errors (malformed JSON, wrong types) carry the decoder message.
func HandleValidationError(c *gin.Context, err error) {
	resp := FormatValidationErrors(err, GetRequestID(c))
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		resp.Error.Message = "Malformed request: " + err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Type().Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "lt":
		return "Must be less than " + e.Param()
	case "numeric":
		return "Must be numeric"
	case TagPaymentChannel:
		return "Must be one of: cash card bank_transfer mobile_money check"
	case TagCashCategory:
		return "Unknown movement category"
	default:
		return "Invalid value"
	}
}
