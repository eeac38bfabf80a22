package records

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/passengerflow-console/pkg/passengerflow/models"
)

// Form is the record editor input. Counts are pointers so that an empty
// field is told apart from zero.
type Form struct {
	BusID     int64  `json:"busId" validate:"required,gt=0"`
	StopID    int64  `json:"stopId" validate:"required,gt=0"`
	Entered   *int   `json:"entered" validate:"required,gte=0"`
	Exited    *int   `json:"exited" validate:"required,gte=0"`
	Timestamp string `json:"timestamp" validate:"required,localtime,notfuture"`
}

// FormFromRecord prefills the editor from an existing record
func FormFromRecord(rec models.PassengerCount) Form {
	entered, exited := rec.Entered, rec.Exited
	return Form{
		BusID:     rec.BusID,
		StopID:    rec.StopID,
		Entered:   &entered,
		Exited:    &exited,
		Timestamp: rec.Timestamp.FormValue(),
	}
}

// ValidationError maps form field names to operator-facing messages
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid record: " + strings.Join(parts, "; ")
}

var messages = map[string]map[string]string{
	"busId":   {"": "Select a bus"},
	"stopId":  {"": "Select a stop"},
	"entered": {"": "Enter a valid number of boarding passengers"},
	"exited":  {"": "Enter a valid number of alighting passengers"},
	"timestamp": {
		"required":  "Select a time",
		"localtime": "Enter a valid time",
		"notfuture": "Time cannot be in the future",
	},
}

func message(field, tag string) string {
	byTag := messages[field]
	if m, ok := byTag[tag]; ok {
		return m
	}
	if m, ok := byTag[""]; ok {
		return m
	}
	return "Invalid value"
}

// Validator checks record forms against the clock in loc
type Validator struct {
	validate *validator.Validate
	loc      *time.Location
	now      func() time.Time
}

func NewValidator(loc *time.Location) *Validator {
	if loc == nil {
		loc = time.Local
	}
	v := &Validator{
		validate: validator.New(),
		loc:      loc,
		now:      time.Now,
	}

	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// registration only fails for empty tags or nil funcs
	_ = v.validate.RegisterValidation("localtime", func(fl validator.FieldLevel) bool {
		_, err := models.ParseLocalDateTime(fl.Field().String(), v.loc)
		return err == nil
	})
	_ = v.validate.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		ts, err := models.ParseLocalDateTime(fl.Field().String(), v.loc)
		if err != nil {
			return false
		}
		return !ts.After(v.now())
	})
	return v
}

// Check validates f and converts it into a record. Field problems are
// reported as a *ValidationError.
func (v *Validator) Check(f Form) (models.PassengerCount, error) {
	if err := v.validate.Struct(f); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return models.PassengerCount{}, err
		}
		verr := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
		for _, fe := range fieldErrs {
			verr.Fields[fe.Field()] = message(fe.Field(), fe.Tag())
		}
		return models.PassengerCount{}, verr
	}

	ts, err := models.ParseLocalDateTime(f.Timestamp, v.loc)
	if err != nil {
		return models.PassengerCount{}, err
	}
	return models.PassengerCount{
		BusID:     f.BusID,
		StopID:    f.StopID,
		Entered:   *f.Entered,
		Exited:    *f.Exited,
		Timestamp: ts,
	}, nil
}
