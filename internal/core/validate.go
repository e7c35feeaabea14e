package core

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BillFields lists the form fields in display order.
var BillFields = []string{"Name", "Mobile", "Date", "Rate", "Morning", "Evening"}

// BillInput carries the raw form strings of a submission.
type BillInput struct {
	Name    string `validate:"required,min=3"`
	Mobile  string `validate:"required,tendigits"`
	Date    string `validate:"required,datetime=2006-01-02"`
	Rate    string `validate:"required"`
	Morning string `validate:"required"`
	Evening string `validate:"required"`
}

// FieldErrors maps a form field to the message shown next to it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, f := range BillFields {
		if msg, ok := fe[f]; ok {
			parts = append(parts, f+": "+msg)
		}
	}
	return "invalid bill: " + strings.Join(parts, "; ")
}

var (
	validate  = newValidator()
	tenDigits = regexp.MustCompile(`^\d{10}$`)
)

// messages are keyed by field, then by the validator tag that failed.
var messages = map[string]map[string]string{
	"Name":    {"required": "Name is required", "min": "Name must be at least 3 characters"},
	"Mobile":  {"required": "Mobile is required", "tendigits": "Must be 10 digits"},
	"Date":    {"required": "Date is required", "datetime": "Must be a valid date"},
	"Rate":    {"required": "Rate is required"},
	"Morning": {"required": "Morning quantity is required"},
	"Evening": {"required": "Evening quantity is required"},
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("tendigits", func(fl validator.FieldLevel) bool {
		return tenDigits.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("register tendigits validation: %v", err))
	}
	return v
}

// Trimmed returns a copy of the input with surrounding whitespace removed.
func (in BillInput) Trimmed() BillInput {
	return BillInput{
		Name:    strings.TrimSpace(in.Name),
		Mobile:  strings.TrimSpace(in.Mobile),
		Date:    strings.TrimSpace(in.Date),
		Rate:    strings.TrimSpace(in.Rate),
		Morning: strings.TrimSpace(in.Morning),
		Evening: strings.TrimSpace(in.Evening),
	}
}

// ValidateBill checks every field and returns the parsed values, FieldErrors
// with one message per failing field, or ErrInvalidNumbers when a quantity or
// the rate passed the field rules but is still not a number.
func ValidateBill(in BillInput) (BillValues, error) {
	in = in.Trimmed()
	errs := FieldErrors{}

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return BillValues{}, err
		}
		for _, fe := range verrs {
			msg, ok := messages[fe.Field()][fe.Tag()]
			if !ok {
				msg = "Invalid value"
			}
			errs[fe.Field()] = msg
		}
	}

	rate, rateOK := ParseNumber(in.Rate)
	morning, morningOK := ParseNumber(in.Morning)
	evening, eveningOK := ParseNumber(in.Evening)

	if _, failed := errs["Rate"]; !failed && (!rateOK || rate <= 0) {
		errs["Rate"] = "Must be positive"
	}
	if _, failed := errs["Morning"]; !failed {
		switch {
		case !morningOK:
			errs["Morning"] = "Must be a number"
		case morning < 0:
			errs["Morning"] = "Cannot be negative"
		}
	}
	if _, failed := errs["Evening"]; !failed && eveningOK && evening < 0 {
		errs["Evening"] = "Cannot be negative"
	}
	if len(errs) > 0 {
		return BillValues{}, errs
	}

	if !rateOK || !morningOK || !eveningOK {
		return BillValues{}, ErrInvalidNumbers
	}

	date, err := ParseDate(in.Date)
	if err != nil {
		return BillValues{}, FieldErrors{"Date": "Must be a valid date"}
	}

	return BillValues{
		Name:    in.Name,
		Mobile:  in.Mobile,
		Date:    date,
		Morning: morning,
		Evening: evening,
		Rate:    rate,
	}, nil
}

// ParseNumber parses a decimal quantity. NaN and infinities are not numbers.
func ParseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
