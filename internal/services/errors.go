package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrNoResults         = errors.New("no results")
	ErrStageFault        = errors.New("stage fault")
	ErrConfiguration     = errors.New("configuration error")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrStageFault
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ErrorDetails is the user-facing view of a wrapped error.
type ErrorDetails struct {
	Kind    string
	Message string
}

// Details classifies err against the known markers and returns a message
// without the marker prefix.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	kind := "unknown"
	message := strings.TrimSpace(err.Error())
	for _, marker := range []error{ErrValidation, ErrNotFound, ErrNoResults, ErrStageFault, ErrConfiguration, ErrUnsupportedFormat} {
		if errors.Is(err, marker) {
			kind = strings.ReplaceAll(marker.Error(), " ", "_")
			message = strings.TrimPrefix(message, marker.Error()+": ")
			break
		}
	}
	return ErrorDetails{Kind: kind, Message: message}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
