package campaign

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"crmagent/internal/services"
)

// RiskLevel is the client's declared risk tolerance.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ParseRiskLevel accepts the canonical English values and the Spanish
// aliases found in legacy client exports.
func ParseRiskLevel(value string) (RiskLevel, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "low", "bajo":
		return RiskLow, nil
	case "medium", "medio":
		return RiskMedium, nil
	case "high", "alto":
		return RiskHigh, nil
	default:
		return "", fmt.Errorf("%w: unknown risk level %q", services.ErrValidation, value)
	}
}

// ClientRecord is the immutable input to one pipeline run.
type ClientRecord struct {
	ID            string    `json:"id" validate:"required"`
	Name          string    `json:"name" validate:"required"`
	Sector        string    `json:"sector"`
	AverageSpend  float64   `json:"average_spend" validate:"gte=0"`
	Risk          RiskLevel `json:"risk" validate:"required,oneof=low medium high"`
	SocialChannel string    `json:"social_channel"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate reports whether the record is usable by the pipeline. Errors wrap
// services.ErrValidation and name the offending fields.
func (c *ClientRecord) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: client record missing", services.ErrValidation)
	}
	err := recordValidator().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", services.ErrValidation, err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: client %q: %s", services.ErrValidation, c.ID, strings.Join(problems, ", "))
}
