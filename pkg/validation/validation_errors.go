package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps struct field names to the labels visitors see on the form
var FieldLabels = map[string]string{
	// Contact fields
	"Name":  "Name",
	"Email": "Email",
	"Phone": "Phone Number",

	// Trailer fields
	"Category": "Trailer Type",
	"Size":     "Trailer Size",

	// Rental window fields
	"PickupDate": "Pickup Date",
	"PickupTime": "Pickup Time",
	"ReturnDate": "Return Date",
	"ReturnTime": "Return Time",

	// Location fields
	"PickupLocation":  "Pickup Location",
	"PickupAddress":   "Pickup Address",
	"DropOffLocation": "Drop-off Location",
	"DropOffAddress":  "Drop-off Address",
	"SpecialRequests": "Special Requests",
}

// FormatValidationErrors converts validator.ValidationErrors to user-friendly messages
func FormatValidationErrors(err error) []string {
	var messages []string

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		// Not a validation error, return generic message
		return []string{err.Error()}
	}

	for _, e := range validationErrors {
		messages = append(messages, formatSingleError(e))
	}

	return messages
}

// formatSingleError formats a single validation error to a user-friendly message
func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.Field())
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: This field is required", label)

	case "max":
		if e.Kind().String() == "string" {
			return fmt.Sprintf("%s: At most %s characters", label, param)
		}
		return fmt.Sprintf("%s: At most %s", label, param)

	case "oneof":
		return fmt.Sprintf("%s: Must be one of: %s", label, strings.Join(strings.Fields(param), ", "))

	case "no_control":
		return fmt.Sprintf("%s: Must not contain line breaks or control characters", label)

	default:
		// Fallback for unknown tags
		return fmt.Sprintf("%s: Invalid value (%s)", label, e.Tag())
	}
}

// getFieldLabel returns the user-friendly label for a field
func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return formatCamelCase(fieldName)
}

// formatCamelCase converts CamelCase to spaced words
func formatCamelCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune(' ')
		}
		result.WriteRune(r)
	}
	return result.String()
}
