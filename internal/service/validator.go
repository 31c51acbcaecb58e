package service

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ListParams holds the raw filters and paging of a listing request.
type ListParams struct {
	Code     string `validate:"omitempty,max=16"`
	Date     string `validate:"omitempty,datetime=2006-01-02"`
	DateFrom string `validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `validate:"omitempty,datetime=2006-01-02"`
	Page     int    `validate:"gte=0,lte=1000000"`
	PageSize int    `validate:"gte=0"`
}

// Validator checks request input before it reaches storage or the provider.
type Validator interface {
	ValidateListParams(p ListParams) error
}

type paramsValidator struct {
	v *validator.Validate
}

// NewValidator creates a new request input validator.
func NewValidator() Validator {
	return &paramsValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// ValidateListParams maps struct validation failures onto the service's validation errors.
func (pv *paramsValidator) ValidateListParams(p ListParams) error {
	err := pv.v.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPage, err)
	}

	fe := verrs[0]
	switch fe.Field() {
	case "Date", "DateFrom", "DateTo":
		return fmt.Errorf("%w (%s)", ErrInvalidDate, fieldName(fe.Field()))
	case "Code":
		return ErrInvalidCode
	default:
		return fmt.Errorf("%w: %s must be positive", ErrInvalidPage, fieldName(fe.Field()))
	}
}

func fieldName(field string) string {
	switch field {
	case "DateFrom":
		return "date_from"
	case "DateTo":
		return "date_to"
	case "PageSize":
		return "page_size"
	case "Page":
		return "page"
	case "Date":
		return "date"
	default:
		return field
	}
}
