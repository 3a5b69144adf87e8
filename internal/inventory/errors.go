package inventory

import (
	"errors"
	"strings"
)

// ErrValidation matches every *ValidationError through errors.Is.
var ErrValidation = errors.New("validation failed")

type ValidationIssue struct {
	SKUID    string `json:"sku_id,omitempty"`
	SKUName  string `json:"sku_name,omitempty"`
	Field    string `json:"field"`
	Quantity int    `json:"quantity,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Message  string `json:"message"`
}

// ValidationError gates a write. Nothing is persisted when one is returned.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return ErrValidation.Error()
	}
	messages := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		messages = append(messages, issue.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(messages, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Add(issue ValidationIssue) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) Field(field string, message string) {
	e.Add(ValidationIssue{Field: field, Message: message})
}

// Err returns nil when no issue was recorded.
func (e *ValidationError) Err() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}
