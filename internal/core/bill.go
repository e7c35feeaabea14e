package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DateLayout is the wire and form layout of a bill date.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	// Bill is one delivery-day entry for a customer. JSON names match the store.
	Bill struct {
		ID          string  `json:"_id,omitempty"`
		Name        string  `json:"Name"`
		Mobile      string  `json:"Mobile"`
		Date        Date    `json:"Date"`
		Morning     float64 `json:"Morning"`
		Evening     float64 `json:"Evening"`
		Rate        float64 `json:"Rate"`
		TotalLiters float64 `json:"TotalLiters"`
		TotalAmount float64 `json:"TotalAmount"`
	}

	// BillValues is a validated, parsed form submission.
	BillValues struct {
		Name    string
		Mobile  string
		Date    Date
		Morning float64
		Evening float64
		Rate    float64
	}
)

var (
	ErrInvalidNumbers = errors.New("invalid numbers")
	ErrInvalidDate    = errors.New("invalid date")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts the form layout and the RFC 3339 timestamps some stores return.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	// The calendar day is the one in the timestamp's own offset.
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

// String returns the date in DateLayout, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON never fails: a value that is not a date decodes to the zero
// Date so one bad record cannot hide the rest of a listing.
func (d *Date) UnmarshalJSON(data []byte) error {
	*d = Date{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		slog.Warn("Ignoring malformed bill date", "value", string(data))
		return nil
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		slog.Warn("Ignoring malformed bill date", "value", s, "error", err)
		return nil
	}
	*d = parsed
	return nil
}

// NewBill builds the submission record, deriving the totals from the inputs.
func NewBill(v BillValues) Bill {
	liters, amount := ComputeBill(v.Morning, v.Evening, v.Rate)
	return Bill{
		Name:        v.Name,
		Mobile:      v.Mobile,
		Date:        v.Date,
		Morning:     v.Morning,
		Evening:     v.Evening,
		Rate:        v.Rate,
		TotalLiters: liters,
		TotalAmount: amount,
	}
}
