package planner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/p-n-ai/pai-planner/internal/calendar"
)

// MaxHorizonDays caps the number of days a single plan may cover.
const MaxHorizonDays = 366

// ErrInvalidRequest is returned when a plan request fails validation.
var ErrInvalidRequest = errors.New("invalid plan request")

var requestValidate = validator.New(validator.WithRequiredStructEnabled())

// Request asks for a plan over the inclusive date range [From, To].
// StartTime, when set, drops the part of From's windows before it.
type Request struct {
	From      string `json:"from" validate:"required,datetime=2006-01-02"`
	To        string `json:"to" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time,omitempty" validate:"omitempty,datetime=15:04"`
}

type bounds struct {
	from, to time.Time
	start    calendar.Clock
	hasStart bool
}

// Validate checks field formats and the date range.
func (r Request) Validate() error {
	_, err := r.parse()
	return err
}

func (r Request) parse() (bounds, error) {
	if err := requestValidate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return bounds{}, fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(fields, ", "))
		}
		return bounds{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var s bounds
	var err error
	if s.from, err = calendar.ParseDate(r.From); err != nil {
		return bounds{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if s.to, err = calendar.ParseDate(r.To); err != nil {
		return bounds{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if s.to.Before(s.from) {
		return bounds{}, fmt.Errorf("%w: to %s is before from %s", ErrInvalidRequest, r.To, r.From)
	}
	if days := int(s.to.Sub(s.from).Hours()/24) + 1; days > MaxHorizonDays {
		return bounds{}, fmt.Errorf("%w: range of %d days exceeds %d", ErrInvalidRequest, days, MaxHorizonDays)
	}
	if r.StartTime != "" {
		if s.start, err = calendar.ParseClock(r.StartTime); err != nil {
			return bounds{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		s.hasStart = true
	}
	return s, nil
}
