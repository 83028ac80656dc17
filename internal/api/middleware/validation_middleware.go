package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/ahmedelhadi17776/streaky/pkg/daykey"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const validatedModelKey = "validated_model"

// ValidationMiddleware handles request validation
type ValidationMiddleware struct {
	validator *validator.Validate
}

// NewValidationMiddleware creates a new validation middleware
func NewValidationMiddleware() *ValidationMiddleware {
	v := validator.New()

	// json names in error details
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterValidation("not_empty", validateNotEmpty)
	v.RegisterValidation("daykey", validateDayKey)

	return &ValidationMiddleware{validator: v}
}

// ValidateRequest decodes the JSON body into a fresh copy of model, validates
// it, and stores the pointer under "validated_model".
func (m *ValidationMiddleware) ValidateRequest(model interface{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		modelType := reflect.TypeOf(model)
		if modelType.Kind() == reflect.Ptr {
			modelType = modelType.Elem()
		}
		modelValue := reflect.New(modelType).Interface()

		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		if len(bytes.TrimSpace(bodyBytes)) == 0 {
			bodyBytes = []byte("{}")
		}
		if err := json.Unmarshal(bodyBytes, modelValue); err != nil {
			log.Debug("JSON unmarshal failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path))
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Invalid JSON format: %v", err.Error()),
			})
			c.Abort()
			return
		}

		if err := m.validator.Struct(modelValue); err != nil {
			details := make(map[string]string)
			if verrs, ok := err.(validator.ValidationErrors); ok {
				for _, fe := range verrs {
					details[fe.Field()] = formatValidationError(fe)
				}
			}

			log.Debug("Validation failed",
				zap.Any("errors", details),
				zap.String("path", c.Request.URL.Path))
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": details,
			})
			c.Abort()
			return
		}

		c.Set(validatedModelKey, modelValue)
		c.Next()
	}
}

// Validated returns the body stored by ValidateRequest.
func Validated[T any](c *gin.Context) (*T, bool) {
	v, ok := c.Get(validatedModelKey)
	if !ok {
		return nil, false
	}
	model, ok := v.(*T)
	return model, ok
}

func validateNotEmpty(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return len(strings.TrimSpace(value)) > 0
}

func validateDayKey(fl validator.FieldLevel) bool {
	return daykey.Valid(fl.Field().String())
}

func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "invalid email format"
	case "min":
		return "value is too small"
	case "max":
		return "value is too long"
	case "not_empty":
		return "this field cannot be empty"
	case "daykey":
		return "date must be YYYY-MM-DD"
	default:
		return "invalid value"
	}
}
