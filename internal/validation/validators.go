package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/rowanhart/tasknest/internal/engine"
	"github.com/rowanhart/tasknest/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("task_status", validateTaskStatus); err != nil {
		panic(fmt.Sprintf("failed to register task_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("due_date_kind", validateDueDateKind); err != nil {
		panic(fmt.Sprintf("failed to register due_date_kind validator: %v", err))
	}
	if err := Validate.RegisterValidation("status_filter", validateStatusFilter); err != nil {
		panic(fmt.Sprintf("failed to register status_filter validator: %v", err))
	}
	if err := Validate.RegisterValidation("due_date_filter", validateDueDateFilter); err != nil {
		panic(fmt.Sprintf("failed to register due_date_filter validator: %v", err))
	}
}

func validateTaskStatus(fl validator.FieldLevel) bool {
	return models.ValidTaskStatus(fl.Field().String())
}

func validateDueDateKind(fl validator.FieldLevel) bool {
	return models.ValidDueDateKind(fl.Field().String())
}

func validateStatusFilter(fl validator.FieldLevel) bool {
	return engine.ValidStatusFilter(fl.Field().String())
}

func validateDueDateFilter(fl validator.FieldLevel) bool {
	return engine.ValidDueDateFilter(fl.Field().String())
}

// SanitizeText trims whitespace and removes control characters from user text
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateTaskStatus validates a TaskStatus string value
func ValidateTaskStatus(value string) error {
	if !models.ValidTaskStatus(value) {
		return fmt.Errorf("invalid status: %s (must be 'incomplete' or 'complete')", value)
	}
	return nil
}

// ValidateDueDateKind validates a DueDateKind string value
func ValidateDueDateKind(value string) error {
	if !models.ValidDueDateKind(value) {
		return fmt.Errorf("invalid due date kind: %s (must be 'none', 'this-week', 'next-week', or 'custom')", value)
	}
	return nil
}

// ValidateStatusFilter validates a StatusFilter string value
func ValidateStatusFilter(value string) error {
	if !engine.ValidStatusFilter(value) {
		return fmt.Errorf("invalid status filter: %s (must be 'all', 'incomplete', or 'complete')", value)
	}
	return nil
}

// ValidateDueDateFilter validates a DueDateFilter string value
func ValidateDueDateFilter(value string) error {
	if !engine.ValidDueDateFilter(value) {
		return fmt.Errorf("invalid due date filter: %s (must be 'all', 'today', 'this-week', 'next-week', or 'further')", value)
	}
	return nil
}
