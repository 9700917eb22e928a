package middleware

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateRequest validates the request body against a struct with validation tags
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// DecodeAndValidate decodes a JSON or HTML form request body and validates it.
// Form fields are matched by the struct's json tags.
func DecodeAndValidate(r *http.Request, v interface{}) error {
	if err := decodeBody(r, v); err != nil {
		return err
	}
	return ValidateRequest(v)
}

func decodeBody(r *http.Request, v interface{}) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(1 << 20); err != nil && err != http.ErrNotMultipart {
			return fmt.Errorf("invalid form body: %w", err)
		}
		values := make(map[string]interface{}, len(r.PostForm))
		for key, vals := range r.PostForm {
			if len(vals) > 0 {
				values[key] = vals[0]
			}
		}

		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "json",
			WeaklyTypedInput: true,
			// prices arrive as text and decode through decimal's UnmarshalText
			DecodeHook: mapstructure.TextUnmarshallerHookFunc(),
			Result:           v,
		})
		if err != nil {
			return err
		}
		return decoder.Decode(values)
	default:
		if err := json.NewDecoder(r.Body).Decode(v); err != nil {
			return fmt.Errorf("invalid JSON body: %w", err)
		}
		return nil
	}
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors converts validator errors to a readable format
func FormatValidationErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			errors = append(errors, ValidationError{
				Field:   e.Field(),
				Message: getErrorMessage(e),
			})
		}
	}

	return errors
}

func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "oneof":
		return "Value must be one of: " + e.Param()
	case "gte":
		return "Value must be greater than or equal to " + e.Param()
	case "lte":
		return "Value must be less than or equal to " + e.Param()
	case "gt":
		return "Value must be greater than " + e.Param()
	default:
		return "Invalid value"
	}
}
